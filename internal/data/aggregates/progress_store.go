package aggregates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/learnsync/internal/data/repos"
	domainagg "github.com/yungbote/learnsync/internal/domain/aggregates"
	"github.com/yungbote/learnsync/internal/domain/progress"
	"github.com/yungbote/learnsync/internal/platform/dbctx"
)

const (
	tableRecord   = "progress_record"
	tableGameBlob = "progress_game_blob"
)

type ProgressStoreDeps struct {
	StoreDeps

	Subjects   repos.SubjectRepo
	Activities repos.ActivityRepo
	Records    repos.RecordRepo
	GameBlobs  repos.GameBlobRepo
}

type progressStore struct {
	deps ProgressStoreDeps
}

func NewProgressStore(deps ProgressStoreDeps) domainagg.ProgressStore {
	deps.StoreDeps = deps.StoreDeps.resolve()
	return &progressStore{deps: deps}
}

func (s *progressStore) Contract() domainagg.Contract {
	return domainagg.ProgressStoreContract
}

func (s *progressStore) read(ctx context.Context) dbctx.Context {
	return dbctx.Context{Ctx: ctx}
}

func (s *progressStore) FindSubject(ctx context.Context, accountID uuid.UUID, marker string) (*progress.Subject, error) {
	const op = "Progress.Store.FindSubject"
	row, err := s.deps.Subjects.GetByAccountMarker(s.read(ctx), accountID, marker)
	return row, MapError(op, err)
}

func (s *progressStore) CreateSubject(ctx context.Context, row *progress.Subject) (*progress.Subject, error) {
	const op = "Progress.Store.CreateSubject"
	if row == nil || row.AccountID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing account_id", nil)
	}
	row.Marker = strings.TrimSpace(row.Marker)
	if row.Marker == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing marker", nil)
	}

	var out *progress.Subject
	err := s.deps.write(ctx, op, func(dbc dbctx.Context) error {
		if _, err := s.deps.Subjects.Create(dbc, row); err != nil {
			return err
		}
		stored, err := s.deps.Subjects.GetByAccountMarker(dbc, row.AccountID, row.Marker)
		if err != nil {
			return err
		}
		if stored == nil {
			return InvariantError("subject missing after insert")
		}
		out = stored
		return nil
	})
	return out, err
}

func (s *progressStore) RenameSubject(ctx context.Context, id uuid.UUID, newMarker string) error {
	const op = "Progress.Store.RenameSubject"
	newMarker = strings.TrimSpace(newMarker)
	if id == uuid.Nil || newMarker == "" {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing subject id or marker", nil)
	}
	return s.deps.write(ctx, op, func(dbc dbctx.Context) error {
		ok, err := s.deps.Subjects.UpdateMarker(dbc, id, newMarker)
		if err != nil {
			return err
		}
		if !ok {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("subject not found: %s", id), nil)
		}
		return nil
	})
}

func (s *progressStore) FindActivity(ctx context.Context, externalID string) (*progress.Activity, error) {
	const op = "Progress.Store.FindActivity"
	row, err := s.deps.Activities.GetByExternalID(s.read(ctx), externalID)
	return row, MapError(op, err)
}

func (s *progressStore) CreateActivity(ctx context.Context, row *progress.Activity) (*progress.Activity, error) {
	const op = "Progress.Store.CreateActivity"
	if row == nil || strings.TrimSpace(row.ExternalID) == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing external_id", nil)
	}
	row.ExternalID = strings.TrimSpace(row.ExternalID)

	var out *progress.Activity
	err := s.deps.write(ctx, op, func(dbc dbctx.Context) error {
		if _, err := s.deps.Activities.Create(dbc, row); err != nil {
			return err
		}
		stored, err := s.deps.Activities.GetByExternalID(dbc, row.ExternalID)
		if err != nil {
			return err
		}
		if stored == nil {
			return InvariantError("activity missing after insert")
		}
		out = stored
		return nil
	})
	return out, err
}

func (s *progressStore) ListActivitiesByIDs(ctx context.Context, ids []uuid.UUID) ([]*progress.Activity, error) {
	const op = "Progress.Store.ListActivitiesByIDs"
	rows, err := s.deps.Activities.GetByIDs(s.read(ctx), ids)
	return rows, MapError(op, err)
}

func (s *progressStore) FindRecord(ctx context.Context, subjectID, activityID uuid.UUID) (*progress.Record, error) {
	const op = "Progress.Store.FindRecord"
	row, err := s.deps.Records.GetByPair(s.read(ctx), subjectID, activityID)
	return row, MapError(op, err)
}

func (s *progressStore) ListRecords(ctx context.Context, subjectID uuid.UUID) ([]*progress.Record, error) {
	const op = "Progress.Store.ListRecords"
	rows, err := s.deps.Records.ListBySubject(s.read(ctx), subjectID)
	return rows, MapError(op, err)
}

func (s *progressStore) UpsertRecord(ctx context.Context, row *progress.Record, expectedVersion int) error {
	const op = "Progress.Store.UpsertRecord"
	if row == nil || row.SubjectID == uuid.Nil || row.ActivityID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing subject_id or activity_id", nil)
	}
	if !row.Status.Valid() {
		return domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("invalid status %q", row.Status), nil)
	}
	if expectedVersion > 0 && row.ID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing record id for versioned update", nil)
	}

	return s.deps.write(ctx, op, versionedWrite{
		table:    tableRecord,
		id:       row.ID,
		expected: expectedVersion,
		insert:   func(dbc dbctx.Context) (bool, error) { return s.deps.Records.Insert(dbc, row) },
		columns:  func(next int) map[string]any { return recordColumns(row, next) },
		stamp:    func(v int) { row.Version = v },
	}.apply)
}

func (s *progressStore) DeleteAllRecords(ctx context.Context, subjectID uuid.UUID) (int64, error) {
	const op = "Progress.Store.DeleteAllRecords"
	if subjectID == uuid.Nil {
		return 0, domainagg.NewError(domainagg.CodeValidation, op, "missing subject_id", nil)
	}
	var n int64
	err := s.deps.write(ctx, op, func(dbc dbctx.Context) error {
		deleted, err := s.deps.Records.DeleteBySubject(dbc, subjectID)
		n = deleted
		return err
	})
	return n, err
}

func (s *progressStore) FindGameBlob(ctx context.Context, subjectID uuid.UUID) (*progress.GameBlob, error) {
	const op = "Progress.Store.FindGameBlob"
	row, err := s.deps.GameBlobs.GetBySubject(s.read(ctx), subjectID)
	return row, MapError(op, err)
}

func (s *progressStore) UpsertGameBlob(ctx context.Context, row *progress.GameBlob, expectedVersion int) error {
	const op = "Progress.Store.UpsertGameBlob"
	if row == nil || row.SubjectID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing subject_id", nil)
	}
	if expectedVersion > 0 && row.ID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing blob id for versioned update", nil)
	}

	return s.deps.write(ctx, op, versionedWrite{
		table:    tableGameBlob,
		id:       row.ID,
		expected: expectedVersion,
		insert:   func(dbc dbctx.Context) (bool, error) { return s.deps.GameBlobs.Insert(dbc, row) },
		columns: func(next int) map[string]any {
			return map[string]any{"entries": row.Entries, "version": next, "updated_at": time.Now().UTC()}
		},
		stamp: func(v int) { row.Version = v },
	}.apply)
}

func recordColumns(row *progress.Record, version int) map[string]any {
	return map[string]any{
		"status":             row.Status,
		"progress_percent":   row.ProgressPercent,
		"score":              row.Score,
		"time_spent_seconds": row.TimeSpentSeconds,
		"attempts":           row.Attempts,
		"completed_at":       row.CompletedAt,
		"last_accessed_at":   row.LastAccessedAt,
		"version":            version,
		"updated_at":         time.Now().UTC(),
	}
}
