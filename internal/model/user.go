package model

import "time"

// User is an account row. Local marks accounts served by this instance;
// only local, active users get materialized feeds.
type User struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Username  string `gorm:"type:varchar(64);uniqueIndex;not null"`
	Email     string `gorm:"type:varchar(255)"`
	Password  string `gorm:"type:varchar(255)"`
	Local     bool   `gorm:"index:idx_user_local_active"`
	Active    bool   `gorm:"index:idx_user_local_active"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string { return "users" }
