package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quillfeed/quillfeed/internal/model"
	"github.com/quillfeed/quillfeed/internal/repository"
)

var ErrBoostTargetMissing = errors.New("boosted status does not exist")

// PublishInput carries everything needed to create a status.
type PublishInput struct {
	AuthorID       string
	Payload        string
	Privacy        string
	BoostOfID      string // empty for plain statuses
	MentionUserIDs []string
	PublishedAt    time.Time // zero means now
}

// StatusService owns the status write path: persist, then emit the domain
// event once the transaction has committed.
type StatusService struct {
	statuses   repository.StatusRepository
	reconciler *Reconciler
}

func NewStatusService(statuses repository.StatusRepository, reconciler *Reconciler) *StatusService {
	return &StatusService{statuses: statuses, reconciler: reconciler}
}

func (s *StatusService) Publish(ctx context.Context, in PublishInput) (*model.Status, error) {
	privacy := in.Privacy
	if privacy == "" {
		privacy = model.PrivacyPublic
	}
	switch privacy {
	case model.PrivacyPublic, model.PrivacyUnlisted, model.PrivacyFollowers, model.PrivacyDirect:
	default:
		return nil, fmt.Errorf("unknown privacy level %q", privacy)
	}

	var boostOf *string
	if in.BoostOfID != "" {
		target, err := s.statuses.GetByID(ctx, in.BoostOfID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBoostTargetMissing
		}
		if err != nil {
			return nil, err
		}
		// boosting a boost collapses onto the underlying original
		id := target.ID
		if target.IsBoost() {
			id = *target.BoostOfID
		}
		boostOf = &id
	}

	publishedAt := in.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = time.Now()
	}
	status := &model.Status{
		ID:          uuid.New().String(),
		AuthorID:    in.AuthorID,
		Payload:     in.Payload,
		Privacy:     privacy,
		BoostOfID:   boostOf,
		PublishedAt: publishedAt,
	}
	if err := s.statuses.Create(ctx, status, in.MentionUserIDs); err != nil {
		return nil, err
	}
	s.reconciler.StatusPublished(status)
	return status, nil
}

// Delete soft-deletes a status and retracts it from feeds. Deleting an
// already-deleted or missing status is a no-op.
func (s *StatusService) Delete(ctx context.Context, statusID string) error {
	status, err := s.statuses.GetByID(ctx, statusID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if status.Deleted {
		return nil
	}
	if err := s.statuses.MarkDeleted(ctx, statusID); err != nil {
		return err
	}
	status.Deleted = true
	s.reconciler.StatusDeleted(status)
	return nil
}
