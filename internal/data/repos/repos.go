package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/learnsync/internal/data/repos/progress"
	"github.com/yungbote/learnsync/internal/platform/logger"
)

type SubjectRepo = progress.SubjectRepo
type ActivityRepo = progress.ActivityRepo
type RecordRepo = progress.RecordRepo
type GameBlobRepo = progress.GameBlobRepo

func NewSubjectRepo(db *gorm.DB, baseLog *logger.Logger) SubjectRepo {
	return progress.NewSubjectRepo(db, baseLog)
}
func NewActivityRepo(db *gorm.DB, baseLog *logger.Logger) ActivityRepo {
	return progress.NewActivityRepo(db, baseLog)
}
func NewRecordRepo(db *gorm.DB, baseLog *logger.Logger) RecordRepo {
	return progress.NewRecordRepo(db, baseLog)
}
func NewGameBlobRepo(db *gorm.DB, baseLog *logger.Logger) GameBlobRepo {
	return progress.NewGameBlobRepo(db, baseLog)
}

// Set groups the table repos behind the progress store.
type Set struct {
	Subjects   SubjectRepo
	Activities ActivityRepo
	Records    RecordRepo
	GameBlobs  GameBlobRepo
}

func NewSet(db *gorm.DB, log *logger.Logger) Set {
	return Set{
		Subjects:   NewSubjectRepo(db, log),
		Activities: NewActivityRepo(db, log),
		Records:    NewRecordRepo(db, log),
		GameBlobs:  NewGameBlobRepo(db, log),
	}
}
