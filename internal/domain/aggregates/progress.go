package aggregates

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/learnsync/internal/domain/progress"
)

var ProgressStoreContract = Contract{
	Name:             "Progress.Store",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes: "Owns the unique (subject, activity) record and per-subject game blob; " +
		"writes are version-guarded so callers can run read-merge-write with optimistic retry.",
}

// ProgressStore is the persistence boundary of the reconciliation engine.
//
// Find* methods return (nil, nil) when nothing matches. Write method failures
// return *aggregates.Error with codes:
// CodeValidation, CodeConflict, CodeRetryable, CodeInternal.
type ProgressStore interface {
	Aggregate

	FindSubject(ctx context.Context, accountID uuid.UUID, marker string) (*progress.Subject, error)
	// CreateSubject inserts the subject unless (account, marker) already exists,
	// and returns the stored row either way.
	CreateSubject(ctx context.Context, row *progress.Subject) (*progress.Subject, error)
	// RenameSubject re-marks a subject. Returns CodeConflict when the target
	// marker is already taken for the account.
	RenameSubject(ctx context.Context, id uuid.UUID, newMarker string) error

	FindActivity(ctx context.Context, externalID string) (*progress.Activity, error)
	// CreateActivity inserts the activity unless the external id exists, and
	// returns the stored row either way.
	CreateActivity(ctx context.Context, row *progress.Activity) (*progress.Activity, error)
	ListActivitiesByIDs(ctx context.Context, ids []uuid.UUID) ([]*progress.Activity, error)

	FindRecord(ctx context.Context, subjectID, activityID uuid.UUID) (*progress.Record, error)
	ListRecords(ctx context.Context, subjectID uuid.UUID) ([]*progress.Record, error)
	// UpsertRecord writes row when the stored version equals expectedVersion.
	// expectedVersion == 0 means "no row yet". On success row.Version holds the
	// new version. A stale expectation returns CodeConflict.
	UpsertRecord(ctx context.Context, row *progress.Record, expectedVersion int) error
	DeleteAllRecords(ctx context.Context, subjectID uuid.UUID) (int64, error)

	FindGameBlob(ctx context.Context, subjectID uuid.UUID) (*progress.GameBlob, error)
	// UpsertGameBlob follows the same version protocol as UpsertRecord.
	UpsertGameBlob(ctx context.Context, row *progress.GameBlob, expectedVersion int) error
}
