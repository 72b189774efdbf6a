package domain

import "github.com/yungbote/learnsync/internal/domain/progress"

type Subject = progress.Subject
type Activity = progress.Activity
type ActivityKind = progress.ActivityKind
type Record = progress.Record
type GameBlob = progress.GameBlob
type Status = progress.Status

const (
	StatusNotStarted = progress.StatusNotStarted
	StatusInProgress = progress.StatusInProgress
	StatusCompleted  = progress.StatusCompleted
	StatusMastered   = progress.StatusMastered

	ActivityKindLesson  = progress.ActivityKindLesson
	ActivityKindGame    = progress.ActivityKindGame
	ActivityKindQuiz    = progress.ActivityKindQuiz
	ActivityKindStory   = progress.ActivityKindStory
	ActivityKindUnknown = progress.ActivityKindUnknown

	DefaultSubjectMarker = progress.DefaultSubjectMarker
	PlaceholderOrdinal   = progress.PlaceholderOrdinal
)
