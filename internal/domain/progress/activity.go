package progress

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ActivityKind classifies catalogue entries.
type ActivityKind string

const (
	ActivityKindLesson  ActivityKind = "lesson"
	ActivityKindGame    ActivityKind = "game"
	ActivityKindQuiz    ActivityKind = "quiz"
	ActivityKindStory   ActivityKind = "story"
	ActivityKindUnknown ActivityKind = "unknown"
)

// PlaceholderOrdinal sorts auto-created activities after every catalogue entry.
const PlaceholderOrdinal = 10000

// Activity is one lesson or game, addressed by a stable external id.
type Activity struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ExternalID string    `gorm:"column:external_id;not null;uniqueIndex" json:"external_id"`

	Title       string       `gorm:"column:title;not null" json:"title"`
	Kind        ActivityKind `gorm:"column:kind;not null" json:"kind"`
	Ordinal     int          `gorm:"column:ordinal;not null;index" json:"ordinal"`
	Placeholder bool         `gorm:"column:placeholder;not null" json:"placeholder"`

	Metadata datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Activity) TableName() string { return "progress_activity" }
