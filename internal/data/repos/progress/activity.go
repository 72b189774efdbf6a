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

type ActivityRepo interface {
	GetByExternalID(dbc dbctx.Context, externalID string) (*types.Activity, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Activity, error)
	ListAll(dbc dbctx.Context) ([]*types.Activity, error)
	// Create inserts row unless the external id exists. It reports whether a
	// row was written.
	Create(dbc dbctx.Context, row *types.Activity) (bool, error)
	// UpsertCatalogue writes catalogue rows, overwriting title, kind and
	// ordinal and clearing the placeholder flag of matching external ids.
	UpsertCatalogue(dbc dbctx.Context, rows []*types.Activity) error
}

type activityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityRepo(db *gorm.DB, baseLog *logger.Logger) ActivityRepo {
	return &activityRepo{
		db:  db,
		log: baseLog.With("repo", "ActivityRepo"),
	}
}

func (r *activityRepo) GetByExternalID(dbc dbctx.Context, externalID string) (*types.Activity, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, nil
	}
	var row types.Activity
	if err := dbc.DB(r.db).
		Where("external_id = ?", externalID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *activityRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Activity, error) {
	var out []*types.Activity
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("id IN ?", ids).
		Order("ordinal ASC, external_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *activityRepo) ListAll(dbc dbctx.Context) ([]*types.Activity, error) {
	var out []*types.Activity
	if err := dbc.DB(r.db).
		Order("ordinal ASC, external_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *activityRepo) Create(dbc dbctx.Context, row *types.Activity) (bool, error) {
	if row == nil {
		return false, nil
	}
	prepareActivity(row, time.Now().UTC())
	res := dbc.DB(r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *activityRepo) UpsertCatalogue(dbc dbctx.Context, rows []*types.Activity) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		prepareActivity(row, now)
		row.Placeholder = false
	}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "kind", "ordinal", "placeholder", "metadata", "updated_at"}),
		}).
		Create(&rows).Error
}

func prepareActivity(row *types.Activity, now time.Time) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.Kind == "" {
		row.Kind = types.ActivityKindUnknown
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
}
