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

type GameBlobRepo interface {
	GetBySubject(dbc dbctx.Context, subjectID uuid.UUID) (*types.GameBlob, error)
	Insert(dbc dbctx.Context, row *types.GameBlob) (bool, error)
}

type gameBlobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGameBlobRepo(db *gorm.DB, baseLog *logger.Logger) GameBlobRepo {
	return &gameBlobRepo{
		db:  db,
		log: baseLog.With("repo", "GameBlobRepo"),
	}
}

func (r *gameBlobRepo) GetBySubject(dbc dbctx.Context, subjectID uuid.UUID) (*types.GameBlob, error) {
	if subjectID == uuid.Nil {
		return nil, nil
	}
	var row types.GameBlob
	if err := dbc.DB(r.db).
		Where("subject_id = ?", subjectID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *gameBlobRepo) Insert(dbc dbctx.Context, row *types.GameBlob) (bool, error) {
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
