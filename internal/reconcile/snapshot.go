package reconcile

import (
	"fmt"
	"time"

	"github.com/yungbote/learnsync/internal/domain/progress"
)

// RawSnapshot is one client's view of an activity, as received.
type RawSnapshot struct {
	ProgressPercent  *float64   `json:"progressPercent,omitempty"`
	Status           *string    `json:"status,omitempty"`
	Score            *float64   `json:"score,omitempty"`
	TimeSpentMinutes *float64   `json:"timeSpentMinutes,omitempty"`
	LastAccessed     *time.Time `json:"lastAccessed,omitempty"`
}

// Normalized is a validated snapshot ready for Merge.
type Normalized struct {
	ProgressPercent  *float64
	Status           *progress.Status
	Score            *float64
	TimeSpentSeconds int64
	LastAccessed     time.Time

	// Anomaly is non-empty when time spent needed unit recovery.
	Anomaly *TimeSpentAnomaly
}

// TimeSpentAnomaly describes how an implausible time value was recovered.
type TimeSpentAnomaly struct {
	RawMinutes float64
	Resolution string
	Seconds    int64
}

const (
	ResolutionSeconds      = "reinterpreted_seconds"
	ResolutionMilliseconds = "reinterpreted_milliseconds"
	ResolutionKeptExisting = "kept_existing"
)

// FieldError rejects a snapshot because one field is out of contract.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
