package model

import "time"

// Privacy levels, most to least visible.
const (
	PrivacyPublic    = "public"
	PrivacyUnlisted  = "unlisted"
	PrivacyFollowers = "followers"
	PrivacyDirect    = "direct"
)

// Status is a content item. A non-nil BoostOfID makes it a boost (reshare)
// of another status. Deleted rows stay in place for tombstoning; feeds only
// ever reference the id.
type Status struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)"`
	AuthorID    string    `gorm:"type:varchar(36);index:idx_status_author;not null"`
	Payload     string    `gorm:"type:text"`
	Privacy     string    `gorm:"type:varchar(16);index;not null;default:'public'"`
	BoostOfID   *string   `gorm:"type:varchar(36);index:idx_status_boost_of"`
	Deleted     bool      `gorm:"index"`
	PublishedAt time.Time `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Status) TableName() string { return "statuses" }

// IsBoost reports whether the status reshares another status.
func (s *Status) IsBoost() bool { return s.BoostOfID != nil }

// IsDirectMessage reports whether the status is a plain direct message.
// Direct boosts of a shared object are not DMs and still reach the author
// and mentioned users.
func (s *Status) IsDirectMessage() bool { return s.Privacy == PrivacyDirect && !s.IsBoost() }
