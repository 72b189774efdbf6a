package progress

import (
	"time"

	"github.com/google/uuid"
)

const (
	MaxProgressPercent = 100.0
	// MaxTimeSpentSeconds bounds the stored time total.
	MaxTimeSpentSeconds int64 = 10_000_000
)

// Record is the canonical progress state for one (subject, activity) pair.
type Record struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	SubjectID  uuid.UUID `gorm:"type:uuid;not null;index:idx_progress_record_pair,unique,priority:1" json:"subject_id"`
	ActivityID uuid.UUID `gorm:"type:uuid;not null;index:idx_progress_record_pair,unique,priority:2" json:"activity_id"`

	Status           Status   `gorm:"column:status;not null" json:"status"`
	ProgressPercent  float64  `gorm:"column:progress_percent;not null" json:"progress_percent"`
	Score            *float64 `gorm:"column:score" json:"score,omitempty"`
	TimeSpentSeconds int64    `gorm:"column:time_spent_seconds;not null" json:"time_spent_seconds"`
	Attempts         int      `gorm:"column:attempts;not null" json:"attempts"`

	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	// LastAccessedAt is the timestamp of the last accepted snapshot contribution.
	LastAccessedAt time.Time `gorm:"column:last_accessed_at;not null" json:"last_accessed_at"`

	// Version is bumped on every write; conditional updates key on it.
	Version int `gorm:"column:version;not null" json:"version"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Record) TableName() string { return "progress_record" }

// Clone returns a deep copy so merges never alias the stored row.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	if r.Score != nil {
		v := *r.Score
		out.Score = &v
	}
	if r.CompletedAt != nil {
		v := *r.CompletedAt
		out.CompletedAt = &v
	}
	return &out
}
