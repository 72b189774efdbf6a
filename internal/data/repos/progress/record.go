package progress

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/learnsync/internal/domain"
	"github.com/yungbote/learnsync/internal/platform/dbctx"
	"github.com/yungbote/learnsync/internal/platform/logger"
)

type RecordRepo interface {
	GetByPair(dbc dbctx.Context, subjectID, activityID uuid.UUID) (*types.Record, error)
	ListBySubject(dbc dbctx.Context, subjectID uuid.UUID) ([]*types.Record, error)
	// Insert writes row unless the (subject_id, activity_id) pair exists. It
	// reports whether a row was written.
	Insert(dbc dbctx.Context, row *types.Record) (bool, error)
	DeleteBySubject(dbc dbctx.Context, subjectID uuid.UUID) (int64, error)
}

type recordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecordRepo(db *gorm.DB, baseLog *logger.Logger) RecordRepo {
	return &recordRepo{
		db:  db,
		log: baseLog.With("repo", "RecordRepo"),
	}
}

func (r *recordRepo) GetByPair(dbc dbctx.Context, subjectID, activityID uuid.UUID) (*types.Record, error) {
	if subjectID == uuid.Nil || activityID == uuid.Nil {
		return nil, nil
	}
	var row types.Record
	if err := dbc.DB(r.db).
		Where("subject_id = ? AND activity_id = ?", subjectID, activityID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *recordRepo) ListBySubject(dbc dbctx.Context, subjectID uuid.UUID) ([]*types.Record, error) {
	var out []*types.Record
	if subjectID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("subject_id = ?", subjectID).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *recordRepo) Insert(dbc dbctx.Context, row *types.Record) (bool, error) {
	if row == nil {
		return false, nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now

	res := dbc.DB(r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *recordRepo) DeleteBySubject(dbc dbctx.Context, subjectID uuid.UUID) (int64, error) {
	if subjectID == uuid.Nil {
		return 0, nil
	}
	res := dbc.DB(r.db).
		Where("subject_id = ?", subjectID).
		Delete(&types.Record{})
	return res.RowsAffected, res.Error
}
