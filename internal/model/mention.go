package model

import "time"

// Mention records a user tagged in a status. Direct statuses are visible
// only to the author and their mentions.
type Mention struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	StatusID  string `gorm:"type:varchar(36);index:idx_mention_status;index:idx_mention_pair,unique;not null"`
	UserID    string `gorm:"type:varchar(36);not null;index:idx_mention_pair,unique"`
	CreatedAt time.Time
}

func (Mention) TableName() string { return "mentions" }
