package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quillfeed/quillfeed/internal/model"
)

// AudienceOptions narrows the base audience (local, active, not blocked by
// or blocking the author) down to the viewers a particular status may reach.
type AudienceOptions struct {
	AuthorID string
	// MentionedInID keeps only the author and users mentioned in that status.
	MentionedInID string
	// FollowersOnly keeps only the author and the author's followers.
	FollowersOnly bool
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	// LocalActiveIDs lists every user this instance materializes feeds for.
	LocalActiveIDs(ctx context.Context) ([]string, error)
	Audience(ctx context.Context, opts AudienceOptions) ([]string, error)
}

type userRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepository{db: db} }

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) LocalActiveIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("local = ? AND active = ?", true, true).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *userRepository) Audience(ctx context.Context, opts AudienceOptions) ([]string, error) {
	q := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("users.local = ? AND users.active = ?", true, true).
		Where(`NOT EXISTS (
			SELECT 1 FROM blocks b
			WHERE (b.user_id = users.id AND b.target_id = ?)
			   OR (b.user_id = ? AND b.target_id = users.id)
		)`, opts.AuthorID, opts.AuthorID)
	if opts.MentionedInID != "" {
		q = q.Where(`(users.id = ? OR EXISTS (
			SELECT 1 FROM mentions m WHERE m.status_id = ? AND m.user_id = users.id
		))`, opts.AuthorID, opts.MentionedInID)
	}
	if opts.FollowersOnly {
		q = q.Where(`(users.id = ? OR EXISTS (
			SELECT 1 FROM follows f WHERE f.follower_id = users.id AND f.followee_id = ?
		))`, opts.AuthorID, opts.AuthorID)
	}
	var ids []string
	err := q.Pluck("users.id", &ids).Error
	return ids, err
}
