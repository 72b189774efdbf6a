package progress

import "strings"

// Status is the lifecycle state of a canonical record.
type Status string

const (
	StatusNotStarted Status = "NOT_STARTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusMastered   Status = "MASTERED"
)

// Rank orders statuses: NOT_STARTED < IN_PROGRESS < COMPLETED <= MASTERED.
// Unknown values rank below NOT_STARTED.
func (s Status) Rank() int {
	switch s {
	case StatusNotStarted:
		return 0
	case StatusInProgress:
		return 1
	case StatusCompleted:
		return 2
	case StatusMastered:
		return 3
	default:
		return -1
	}
}

func (s Status) Valid() bool { return s.Rank() >= 0 }

// Done reports whether s is COMPLETED or MASTERED.
func (s Status) Done() bool { return s == StatusCompleted || s == StatusMastered }

// ParseStatus accepts the canonical names case-insensitively, with '-' or ' '
// as separators ("in-progress", "Completed").
func ParseStatus(raw string) (Status, bool) {
	norm := strings.ToUpper(strings.TrimSpace(raw))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	s := Status(norm)
	return s, s.Valid()
}

// MaxStatus returns the higher-ranked of a and b (a on ties).
func MaxStatus(a, b Status) Status {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}
