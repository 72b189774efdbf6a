package progress

import (
	"time"

	"github.com/google/uuid"
)

// DefaultSubjectMarker identifies the canonical per-account subject. Legacy
// subjects carry the account display name as their marker instead.
const DefaultSubjectMarker = "default"

// Subject is the learner-scoped owner of progress records.
type Subject struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	AccountID uuid.UUID `gorm:"type:uuid;not null;index:idx_progress_subject_account_marker,unique,priority:1" json:"account_id"`
	Marker    string    `gorm:"column:marker;not null;index:idx_progress_subject_account_marker,unique,priority:2" json:"marker"`

	DisplayName string `gorm:"column:display_name" json:"display_name"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Subject) TableName() string { return "progress_subject" }

func (s *Subject) IsDefault() bool {
	return s != nil && s.Marker == DefaultSubjectMarker
}
