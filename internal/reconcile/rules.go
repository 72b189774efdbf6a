package reconcile

import (
	"time"

	"github.com/yungbote/learnsync/internal/domain/progress"
)

// progressOrder tells which side carries the higher progress.
type progressOrder int

const (
	incomingBehind progressOrder = iota - 1
	progressEqual
	incomingAhead
)

func compareProgress(existing, incoming float64) progressOrder {
	switch {
	case incoming > existing:
		return incomingAhead
	case incoming < existing:
		return incomingBehind
	default:
		return progressEqual
	}
}

// MergeProgress keeps the larger of the two values.
func MergeProgress(existing float64, incoming *float64) float64 {
	if incoming == nil || *incoming <= existing {
		return existing
	}
	return *incoming
}

// InferStatus derives a status from a progress percentage alone.
func InferStatus(p float64) progress.Status {
	switch {
	case p <= 0:
		return progress.StatusNotStarted
	case p >= progress.MaxProgressPercent:
		return progress.StatusCompleted
	default:
		return progress.StatusInProgress
	}
}

// MergeStatus picks the next status for the given progress ordering.
//
// Only an explicit incoming status accepted on an advancing snapshot can move
// a record backward; inference never lowers the existing status. On equal
// progress an explicit status can only raise the record.
func MergeStatus(existing progress.Status, incoming *progress.Status, order progressOrder, finalProgress float64) progress.Status {
	switch order {
	case incomingBehind:
		return existing
	case incomingAhead:
		if incoming != nil {
			return *incoming
		}
		return progress.MaxStatus(existing, InferStatus(finalProgress))
	default:
		if incoming != nil {
			return progress.MaxStatus(existing, *incoming)
		}
		return progress.MaxStatus(existing, InferStatus(finalProgress))
	}
}

// MergeLastAccessed returns the timestamp to store as the record's last
// accepted contribution.
func MergeLastAccessed(existing, incoming time.Time, order progressOrder) time.Time {
	if order == incomingAhead {
		return incoming
	}
	if incoming.After(existing) {
		return incoming
	}
	return existing
}

// MergeScore replaces the score only when the snapshot carries one.
func MergeScore(existing, incoming *float64) *float64 {
	if incoming == nil {
		return cloneFloat(existing)
	}
	return cloneFloat(incoming)
}

// MergeTimeSpent takes the normalized caller-computed total.
func MergeTimeSpent(_ int64, normalized int64) int64 {
	return normalized
}

// MergeCompletedAt stamps the first transition into a done status.
func MergeCompletedAt(existing *time.Time, prev, next progress.Status, now time.Time) *time.Time {
	if existing != nil {
		v := *existing
		return &v
	}
	if next.Done() && !prev.Done() {
		v := now.UTC()
		return &v
	}
	return nil
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
