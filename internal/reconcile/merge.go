package reconcile

import (
	"time"

	"github.com/yungbote/learnsync/internal/domain/progress"
)

// MergeOptions carries the per-call context of a merge.
type MergeOptions struct {
	Now time.Time
	// CountAttempt is set by single-activity updates; bulk sync leaves it false.
	CountAttempt bool
}

// Merge computes the next canonical record from existing (nil when the pair
// has no record yet) and a normalized snapshot. Identity and version fields
// are copied from existing; the caller fills them for new records.
func Merge(existing *progress.Record, n Normalized, opts MergeOptions) progress.Record {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	var base progress.Record
	if existing != nil {
		base = *existing.Clone()
	} else {
		base = progress.Record{Status: progress.StatusNotStarted}
	}
	if !base.Status.Valid() {
		base.Status = InferStatus(base.ProgressPercent)
	}

	out := base
	incoming := base.ProgressPercent
	if n.ProgressPercent != nil {
		incoming = *n.ProgressPercent
	}
	order := compareProgress(base.ProgressPercent, incoming)

	out.ProgressPercent = MergeProgress(base.ProgressPercent, n.ProgressPercent)
	out.Status = MergeStatus(base.Status, n.Status, order, out.ProgressPercent)
	out.LastAccessedAt = MergeLastAccessed(base.LastAccessedAt, n.LastAccessed, order)
	out.Score = MergeScore(base.Score, n.Score)
	out.TimeSpentSeconds = MergeTimeSpent(base.TimeSpentSeconds, n.TimeSpentSeconds)
	out.CompletedAt = MergeCompletedAt(base.CompletedAt, base.Status, out.Status, now)
	if opts.CountAttempt {
		out.Attempts = base.Attempts + 1
	}
	return out
}

// Apply normalizes raw against existing and merges it in one step.
func Apply(existing *progress.Record, raw RawSnapshot, opts MergeOptions) (progress.Record, Normalized, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	n, err := Normalize(existing, raw, opts.Now)
	if err != nil {
		return progress.Record{}, Normalized{}, err
	}
	return Merge(existing, n, opts), n, nil
}

// Changed reports whether next differs from prev in any persisted field.
func Changed(prev *progress.Record, next progress.Record) bool {
	if prev == nil {
		return true
	}
	if prev.Status != next.Status ||
		prev.ProgressPercent != next.ProgressPercent ||
		prev.TimeSpentSeconds != next.TimeSpentSeconds ||
		prev.Attempts != next.Attempts ||
		!prev.LastAccessedAt.Equal(next.LastAccessedAt) {
		return true
	}
	if !equalFloatPtr(prev.Score, next.Score) {
		return true
	}
	return !equalTimePtr(prev.CompletedAt, next.CompletedAt)
}

func equalFloatPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
