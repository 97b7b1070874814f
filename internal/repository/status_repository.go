package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quillfeed/quillfeed/internal/model"
)

// VisibilityScope is the privacy-aware query filter: which statuses a given
// viewer is authorized to see, further narrowed by the calling feed's
// content-source rules.
type VisibilityScope struct {
	// Levels whitelists privacy levels; direct is never a feed level so
	// callers normally pass public/unlisted/followers subsets.
	Levels []string
	// FollowingOnly restricts to statuses whose author the viewer follows
	// (or authored themselves).
	FollowingOnly bool
	// LocalAuthorsOnly restricts to statuses authored on this instance.
	LocalAuthorsOnly bool
	// AuthorID, when set, restricts to a single author.
	AuthorID string
	// Limit caps the result set; zero means no cap.
	Limit int
}

type StatusRepository interface {
	Create(ctx context.Context, status *model.Status, mentionUserIDs []string) error
	GetByID(ctx context.Context, id string) (*model.Status, error)
	MarkDeleted(ctx context.Context, id string) error
	// IDsByAuthor returns every status id by the author, deleted or not.
	// Removal paths sweep all of them so stale feed entries cannot survive.
	IDsByAuthor(ctx context.Context, authorID string) ([]string, error)
	// EarlierBoostsOf lists boosts of the same original created strictly
	// before the given time.
	EarlierBoostsOf(ctx context.Context, originalID string, before time.Time) ([]string, error)
	// VisibleTo applies the privacy filter for viewer, newest first.
	VisibleTo(ctx context.Context, viewerID string, scope VisibilityScope) ([]*model.Status, error)
}

type statusRepository struct{ db *gorm.DB }

func NewStatusRepository(db *gorm.DB) StatusRepository { return &statusRepository{db: db} }

func (r *statusRepository) Create(ctx context.Context, status *model.Status, mentionUserIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(status).Error; err != nil {
			return err
		}
		for _, uid := range mentionUserIDs {
			m := &model.Mention{ID: uuid.New().String(), StatusID: status.ID, UserID: uid}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *statusRepository) GetByID(ctx context.Context, id string) (*model.Status, error) {
	var s model.Status
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *statusRepository) MarkDeleted(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.Status{}).
		Where("id = ?", id).
		Update("deleted", true).Error
}

func (r *statusRepository) IDsByAuthor(ctx context.Context, authorID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Status{}).
		Where("author_id = ?", authorID).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *statusRepository) EarlierBoostsOf(ctx context.Context, originalID string, before time.Time) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Status{}).
		Where("boost_of_id = ? AND created_at < ?", originalID, before).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *statusRepository) VisibleTo(ctx context.Context, viewerID string, scope VisibilityScope) ([]*model.Status, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Status{}).
		Where("statuses.deleted = ?", false).
		Where(`NOT EXISTS (
			SELECT 1 FROM blocks b
			WHERE (b.user_id = statuses.author_id AND b.target_id = ?)
			   OR (b.user_id = ? AND b.target_id = statuses.author_id)
		)`, viewerID, viewerID)
	if len(scope.Levels) > 0 {
		q = q.Where("statuses.privacy IN ?", scope.Levels)
	}
	// followers-only statuses require an actual follow (or authorship)
	q = q.Where(`(statuses.privacy <> ? OR statuses.author_id = ? OR EXISTS (
		SELECT 1 FROM follows f WHERE f.follower_id = ? AND f.followee_id = statuses.author_id
	))`, model.PrivacyFollowers, viewerID, viewerID)
	// direct statuses require a mention (or authorship)
	q = q.Where(`(statuses.privacy <> ? OR statuses.author_id = ? OR EXISTS (
		SELECT 1 FROM mentions m WHERE m.status_id = statuses.id AND m.user_id = ?
	))`, model.PrivacyDirect, viewerID, viewerID)
	if scope.FollowingOnly {
		q = q.Where(`(statuses.author_id = ? OR EXISTS (
			SELECT 1 FROM follows f WHERE f.follower_id = ? AND f.followee_id = statuses.author_id
		))`, viewerID, viewerID)
	}
	if scope.LocalAuthorsOnly {
		q = q.Where(`EXISTS (
			SELECT 1 FROM users u WHERE u.id = statuses.author_id AND u.local = ?
		)`, true)
	}
	if scope.AuthorID != "" {
		q = q.Where("statuses.author_id = ?", scope.AuthorID)
	}
	q = q.Order("statuses.published_at DESC")
	if scope.Limit > 0 {
		q = q.Limit(scope.Limit)
	}
	var res []*model.Status
	err := q.Find(&res).Error
	return res, err
}
