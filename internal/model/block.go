package model

import "time"

// Block is a directed row but the relationship is symmetric: a block in
// either direction severs visibility both ways.
type Block struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	UserID    string `gorm:"type:varchar(36);index:idx_block_user;index:idx_block_pair,unique;not null"`
	TargetID  string `gorm:"type:varchar(36);not null;index:idx_block_pair,unique"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Block) TableName() string { return "blocks" }
