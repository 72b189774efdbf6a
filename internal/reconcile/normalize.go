package reconcile

import (
	"math"
	"time"

	"github.com/yungbote/learnsync/internal/domain/progress"
)

const (
	// MaxPlausibleMinutes is the largest believable single-value time report.
	MaxPlausibleMinutes = 10_000.0

	minutesEpsilon = 1e-9
)

// Normalize validates raw against the field contracts and resolves time
// spent against the existing record. existing may be nil.
func Normalize(existing *progress.Record, raw RawSnapshot, now time.Time) (Normalized, error) {
	var out Normalized

	if raw.ProgressPercent != nil {
		p := *raw.ProgressPercent
		if math.IsNaN(p) || p < 0 || p > progress.MaxProgressPercent {
			return Normalized{}, &FieldError{Field: "progressPercent", Reason: "must be within [0,100]"}
		}
		out.ProgressPercent = &p
	}
	if raw.Score != nil {
		s := *raw.Score
		if math.IsNaN(s) || s < 0 || s > 100 {
			return Normalized{}, &FieldError{Field: "score", Reason: "must be within [0,100]"}
		}
		out.Score = &s
	}
	if raw.Status != nil {
		st, ok := progress.ParseStatus(*raw.Status)
		if !ok {
			return Normalized{}, &FieldError{Field: "status", Reason: "unknown status " + *raw.Status}
		}
		out.Status = &st
	}

	out.TimeSpentSeconds, out.Anomaly = normalizeTimeSpent(existing, raw.TimeSpentMinutes)

	if raw.LastAccessed != nil && !raw.LastAccessed.IsZero() {
		out.LastAccessed = raw.LastAccessed.UTC()
	} else {
		out.LastAccessed = now.UTC()
	}
	return out, nil
}

func normalizeTimeSpent(existing *progress.Record, minutes *float64) (int64, *TimeSpentAnomaly) {
	if minutes == nil {
		return clampSeconds(existingSeconds(existing)), nil
	}
	m := *minutes
	if math.IsNaN(m) || m <= MaxPlausibleMinutes {
		return minutesToSeconds(m), nil
	}

	// Clients have been seen sending seconds and milliseconds in the minutes
	// field; try both before giving up on the value.
	anomaly := &TimeSpentAnomaly{RawMinutes: m}
	if asSeconds := m / 60; asSeconds <= MaxPlausibleMinutes {
		anomaly.Resolution = ResolutionSeconds
		anomaly.Seconds = minutesToSeconds(asSeconds)
	} else if asMillis := m / 60_000; asMillis <= MaxPlausibleMinutes {
		anomaly.Resolution = ResolutionMilliseconds
		anomaly.Seconds = minutesToSeconds(asMillis)
	} else {
		anomaly.Resolution = ResolutionKeptExisting
		anomaly.Seconds = clampSeconds(existingSeconds(existing))
	}
	return anomaly.Seconds, anomaly
}

// existingSeconds returns the stored total when it is plausible, else 0.
func existingSeconds(existing *progress.Record) float64 {
	if existing == nil {
		return 0
	}
	s := existing.TimeSpentSeconds
	if s <= 0 || s > progress.MaxTimeSpentSeconds {
		return 0
	}
	return float64(s)
}

func minutesToSeconds(m float64) int64 {
	return clampSeconds(math.Floor(m*60 + minutesEpsilon))
}

func clampSeconds(v float64) int64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > float64(progress.MaxTimeSpentSeconds) {
		return progress.MaxTimeSpentSeconds
	}
	return int64(math.Round(v))
}
