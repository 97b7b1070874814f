package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quillfeed/quillfeed/internal/model"
)

type BlockRepository interface {
	Create(ctx context.Context, userID, targetID string) error
	Delete(ctx context.Context, userID, targetID string) error
	// ExistsBetween checks both directions; a block either way severs visibility.
	ExistsBetween(ctx context.Context, a, b string) (bool, error)
}

type blockRepository struct{ db *gorm.DB }

func NewBlockRepository(db *gorm.DB) BlockRepository { return &blockRepository{db: db} }

func (r *blockRepository) Create(ctx context.Context, userID, targetID string) error {
	b := &model.Block{ID: uuid.New().String(), UserID: userID, TargetID: targetID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(b).Error
}

func (r *blockRepository) Delete(ctx context.Context, userID, targetID string) error {
	return r.db.WithContext(ctx).Where("user_id = ? AND target_id = ?", userID, targetID).Delete(&model.Block{}).Error
}

func (r *blockRepository) ExistsBetween(ctx context.Context, a, b string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Block{}).
		Where("(user_id = ? AND target_id = ?) OR (user_id = ? AND target_id = ?)", a, b, b, a).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}
