package service

import (
	"context"
	"errors"

	"github.com/quillfeed/quillfeed/internal/repository"
)

var (
	ErrFollowSelf    = errors.New("cannot follow self")
	ErrBlockSelf     = errors.New("cannot block self")
	ErrFollowBlocked = errors.New("cannot follow a blocked user")
)

// RelationshipService owns the social-graph write path. Every edge write
// emits its domain event only after the row has landed.
type RelationshipService interface {
	Follow(ctx context.Context, fromUserID, toUserID string) error
	Unfollow(ctx context.Context, fromUserID, toUserID string) error
	Block(ctx context.Context, fromUserID, toUserID string) error
	Unblock(ctx context.Context, fromUserID, toUserID string) error
	ListFollowing(ctx context.Context, userID string, page, pageSize int) ([]string, error)
}

type relationshipService struct {
	followRepo repository.FollowRepository
	blockRepo  repository.BlockRepository
	reconciler *Reconciler
}

func NewRelationshipService(followRepo repository.FollowRepository, blockRepo repository.BlockRepository, reconciler *Reconciler) RelationshipService {
	return &relationshipService{followRepo: followRepo, blockRepo: blockRepo, reconciler: reconciler}
}

func (s *relationshipService) Follow(ctx context.Context, fromUserID, toUserID string) error {
	if fromUserID == toUserID {
		return ErrFollowSelf
	}
	blocked, err := s.blockRepo.ExistsBetween(ctx, fromUserID, toUserID)
	if err != nil {
		return err
	}
	if blocked {
		return ErrFollowBlocked
	}
	// a repeat follow must not replay the home-feed backfill
	exists, err := s.followRepo.Exists(ctx, fromUserID, toUserID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := s.followRepo.Create(ctx, fromUserID, toUserID); err != nil {
		return err
	}
	s.reconciler.Followed(fromUserID, toUserID)
	return nil
}

func (s *relationshipService) Unfollow(ctx context.Context, fromUserID, toUserID string) error {
	if err := s.followRepo.Delete(ctx, fromUserID, toUserID); err != nil {
		return err
	}
	s.reconciler.Unfollowed(fromUserID, toUserID)
	return nil
}

func (s *relationshipService) Block(ctx context.Context, fromUserID, toUserID string) error {
	if fromUserID == toUserID {
		return ErrBlockSelf
	}
	if err := s.blockRepo.Create(ctx, fromUserID, toUserID); err != nil {
		return err
	}
	// blocking also severs any follow relationship, both ways
	if err := s.followRepo.Delete(ctx, fromUserID, toUserID); err != nil {
		return err
	}
	if err := s.followRepo.Delete(ctx, toUserID, fromUserID); err != nil {
		return err
	}
	s.reconciler.Blocked(fromUserID, toUserID)
	return nil
}

func (s *relationshipService) Unblock(ctx context.Context, fromUserID, toUserID string) error {
	if err := s.blockRepo.Delete(ctx, fromUserID, toUserID); err != nil {
		return err
	}
	s.reconciler.Unblocked(fromUserID, toUserID)
	return nil
}

func (s *relationshipService) ListFollowing(ctx context.Context, userID string, page, pageSize int) ([]string, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	offset := (page - 1) * pageSize
	items, err := s.followRepo.ListFollowings(ctx, userID, offset, pageSize)
	if err != nil {
		return nil, err
	}
	res := make([]string, len(items))
	for i, it := range items {
		res[i] = it.FolloweeID
	}
	return res, nil
}
