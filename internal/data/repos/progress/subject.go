package progress

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/learnsync/internal/domain"
	"github.com/yungbote/learnsync/internal/platform/dbctx"
	"github.com/yungbote/learnsync/internal/platform/logger"
)

type SubjectRepo interface {
	GetByAccountMarker(dbc dbctx.Context, accountID uuid.UUID, marker string) (*types.Subject, error)
	ListByAccount(dbc dbctx.Context, accountID uuid.UUID) ([]*types.Subject, error)
	// Create inserts row unless (account_id, marker) exists. It reports whether
	// a row was written.
	Create(dbc dbctx.Context, row *types.Subject) (bool, error)
	UpdateMarker(dbc dbctx.Context, id uuid.UUID, marker string) (bool, error)
}

type subjectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubjectRepo(db *gorm.DB, baseLog *logger.Logger) SubjectRepo {
	return &subjectRepo{
		db:  db,
		log: baseLog.With("repo", "SubjectRepo"),
	}
}

func (r *subjectRepo) GetByAccountMarker(dbc dbctx.Context, accountID uuid.UUID, marker string) (*types.Subject, error) {
	marker = strings.TrimSpace(marker)
	if accountID == uuid.Nil || marker == "" {
		return nil, nil
	}
	var row types.Subject
	if err := dbc.DB(r.db).
		Where("account_id = ? AND marker = ?", accountID, marker).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *subjectRepo) ListByAccount(dbc dbctx.Context, accountID uuid.UUID) ([]*types.Subject, error) {
	var out []*types.Subject
	if accountID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("account_id = ?", accountID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *subjectRepo) Create(dbc dbctx.Context, row *types.Subject) (bool, error) {
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

func (r *subjectRepo) UpdateMarker(dbc dbctx.Context, id uuid.UUID, marker string) (bool, error) {
	marker = strings.TrimSpace(marker)
	if id == uuid.Nil || marker == "" {
		return false, nil
	}
	res := dbc.DB(r.db).
		Model(&types.Subject{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"marker":     marker,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
