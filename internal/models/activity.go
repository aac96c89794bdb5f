package models

import "time"

// ActivityType groups audit entries by the entity they concern.
type ActivityType string

const (
	ActivityUser   ActivityType = "user"
	ActivityPaper  ActivityType = "paper"
	ActivityResult ActivityType = "result"
)

// Valid reports whether t is a known activity type.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityUser, ActivityPaper, ActivityResult:
		return true
	default:
		return false
	}
}

// Activity is an append-only audit entry. UserID is nil for system actions.
type Activity struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	UserID    *uint        `gorm:"index" json:"user_id"`
	User      *User        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"user,omitempty"`
	Action    string       `gorm:"size:255;not null" json:"action"`
	Type      ActivityType `gorm:"size:16;not null;index" json:"type"`
	Details   string       `gorm:"type:text" json:"details,omitempty"`
	CreatedAt time.Time    `gorm:"index" json:"created_at"`
}
