package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/learnsync/internal/domain/aggregates"
	"github.com/yungbote/learnsync/internal/domain/progress"
)

// MemProgressStore is an in-memory ProgressStore for service tests. It
// follows the same version protocol as the database store.
type MemProgressStore struct {
	mu sync.Mutex

	subjects   map[uuid.UUID]*progress.Subject
	activities map[uuid.UUID]*progress.Activity
	records    map[uuid.UUID]*progress.Record
	blobs      map[uuid.UUID]*progress.GameBlob

	// RecordConflicts makes the next N UpsertRecord calls fail with a
	// conflict before touching state.
	RecordConflicts int
	// BeforeUpsertRecord runs outside the lock ahead of every UpsertRecord.
	BeforeUpsertRecord func(row progress.Record, expectedVersion int)
	// Err, when set, is returned by every call.
	Err error

	UpsertRecordCalls   int
	CreateActivityCalls int
}

var _ domainagg.ProgressStore = (*MemProgressStore)(nil)

func NewMemProgressStore() *MemProgressStore {
	return &MemProgressStore{
		subjects:   map[uuid.UUID]*progress.Subject{},
		activities: map[uuid.UUID]*progress.Activity{},
		records:    map[uuid.UUID]*progress.Record{},
		blobs:      map[uuid.UUID]*progress.GameBlob{},
	}
}

func (m *MemProgressStore) Contract() domainagg.Contract {
	return domainagg.ProgressStoreContract
}

func (m *MemProgressStore) fail(ctx context.Context, op string) error {
	if m.Err != nil {
		return m.Err
	}
	if err := ctx.Err(); err != nil {
		return domainagg.Wrap(domainagg.CodeRetryable, op, err)
	}
	return nil
}

func conflict(op, msg string) error {
	return domainagg.NewError(domainagg.CodeConflict, op, msg, nil)
}

func (m *MemProgressStore) FindSubject(ctx context.Context, accountID uuid.UUID, marker string) (*progress.Subject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(ctx, "Progress.Store.FindSubject"); err != nil {
		return nil, err
	}
	return m.subjectLocked(accountID, marker), nil
}

func (m *MemProgressStore) subjectLocked(accountID uuid.UUID, marker string) *progress.Subject {
	for _, s := range m.subjects {
		if s.AccountID == accountID && s.Marker == marker {
			out := *s
			return &out
		}
	}
	return nil
}

func (m *MemProgressStore) CreateSubject(ctx context.Context, row *progress.Subject) (*progress.Subject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(ctx, "Progress.Store.CreateSubject"); err != nil {
		return nil, err
	}
	if existing := m.subjectLocked(row.AccountID, row.Marker); existing != nil {
		return existing, nil
	}
	stored := *row
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	now := time.Now().UTC()
	stored.CreatedAt, stored.UpdatedAt = now, now
	m.subjects[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (m *MemProgressStore) RenameSubject(ctx context.Context, id uuid.UUID, newMarker string) error {
	const op = "Progress.Store.RenameSubject"
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(ctx, op); err != nil {
		return err
	}
	s, ok := m.subjects[id]
	if !ok {
		return domainagg.NewError(domainagg.CodeNotFound, op, "subject not found", nil)
	}
	if other := m.subjectLocked(s.AccountID, newMarker); other != nil && other.ID != id {
		return conflict(op, "marker already taken")
	}
	s.Marker = newMarker
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Subjects returns a copy of every stored subject.
func (m *MemProgressStore) Subjects() []progress.Subject {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]progress.Subject, 0, len(m.subjects))
	for _, s := range m.subjects {
		out = append(out, *s)
	}
	return out
}

func (m *MemProgressStore) FindActivity(ctx context.Context, externalID string) (*progress.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(ctx, "Progress.Store.FindActivity"); err != nil {
		return nil, err
	}
	return m.activityLocked(externalID), nil
}

func (m *MemProgressStore) activityLocked(externalID string) *progress.Activity {
	for _, a := range m.activities {
		if a.ExternalID == externalID {
			out := *a
			return &out
		}
	}
	return nil
}

func (m *MemProgressStore) CreateActivity(ctx context.Context, row *progress.Activity) (*progress.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(ctx, "Progress.Store.CreateActivity"); err != nil {
		return nil, err
	}
	m.CreateActivityCalls++
	if existing := m.activityLocked(row.ExternalID); existing != nil {
		return existing, nil
	}
	stored := *row
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	if stored.Kind == "" {
		stored.Kind = progress.ActivityKindUnknown
	}
	now := time.Now().UTC()
	stored.CreatedAt, stored.UpdatedAt = now, now
	m.activities[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (m *MemProgressStore) ListActivitiesByIDs(ctx context.Context, ids []uuid.UUID) ([]*progress.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(ctx, "Progress.Store.ListActivitiesByIDs"); err != nil {
		return nil, err
	}
	var out []*progress.Activity
	for _, id := range ids {
		if a, ok := m.activities[id]; ok {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Ordinal != out[j].Ordinal {
			return out[i].Ordinal < out[j].Ordinal
		}
		return out[i].ExternalID < out[j].ExternalID
	})
	return out, nil
}

// ActivityCount returns the number of stored activities.
func (m *MemProgressStore) ActivityCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.activities)
}

func (m *MemProgressStore) FindRecord(ctx context.Context, subjectID, activityID uuid.UUID) (*progress.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(ctx, "Progress.Store.FindRecord"); err != nil {
		return nil, err
	}
	return m.recordLocked(subjectID, activityID).Clone(), nil
}

func (m *MemProgressStore) recordLocked(subjectID, activityID uuid.UUID) *progress.Record {
	for _, r := range m.records {
		if r.SubjectID == subjectID && r.ActivityID == activityID {
			return r
		}
	}
	return nil
}

func (m *MemProgressStore) ListRecords(ctx context.Context, subjectID uuid.UUID) ([]*progress.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(ctx, "Progress.Store.ListRecords"); err != nil {
		return nil, err
	}
	var out []*progress.Record
	for _, r := range m.records {
		if r.SubjectID == subjectID {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemProgressStore) UpsertRecord(ctx context.Context, row *progress.Record, expectedVersion int) error {
	const op = "Progress.Store.UpsertRecord"
	if hook := m.BeforeUpsertRecord; hook != nil {
		hook(*row.Clone(), expectedVersion)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(ctx, op); err != nil {
		return err
	}
	m.UpsertRecordCalls++
	if m.RecordConflicts > 0 {
		m.RecordConflicts--
		return conflict(op, "injected conflict")
	}

	now := time.Now().UTC()
	current := m.recordLocked(row.SubjectID, row.ActivityID)
	if expectedVersion == 0 {
		if current != nil {
			return conflict(op, "record created concurrently")
		}
		stored := row.Clone()
		if stored.ID == uuid.Nil {
			stored.ID = uuid.New()
		}
		stored.Version = 1
		stored.CreatedAt, stored.UpdatedAt = now, now
		m.records[stored.ID] = stored
		row.ID, row.Version = stored.ID, 1
		return nil
	}
	if current == nil || current.ID != row.ID || current.Version != expectedVersion {
		return conflict(op, "record changed since read")
	}
	stored := row.Clone()
	stored.Version = expectedVersion + 1
	stored.CreatedAt, stored.UpdatedAt = current.CreatedAt, now
	m.records[stored.ID] = stored
	row.Version = stored.Version
	return nil
}

func (m *MemProgressStore) DeleteAllRecords(ctx context.Context, subjectID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(ctx, "Progress.Store.DeleteAllRecords"); err != nil {
		return 0, err
	}
	var n int64
	for id, r := range m.records {
		if r.SubjectID == subjectID {
			delete(m.records, id)
			n++
		}
	}
	return n, nil
}

func (m *MemProgressStore) FindGameBlob(ctx context.Context, subjectID uuid.UUID) (*progress.GameBlob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(ctx, "Progress.Store.FindGameBlob"); err != nil {
		return nil, err
	}
	b, ok := m.blobs[subjectID]
	if !ok {
		return nil, nil
	}
	out := *b
	out.Entries = append([]byte(nil), b.Entries...)
	return &out, nil
}

func (m *MemProgressStore) UpsertGameBlob(ctx context.Context, row *progress.GameBlob, expectedVersion int) error {
	const op = "Progress.Store.UpsertGameBlob"
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(ctx, op); err != nil {
		return err
	}
	current, ok := m.blobs[row.SubjectID]
	stored := *row
	stored.Entries = append([]byte(nil), row.Entries...)
	if expectedVersion == 0 {
		if ok {
			return conflict(op, "game blob created concurrently")
		}
		if stored.ID == uuid.Nil {
			stored.ID = uuid.New()
		}
	} else if !ok || current.Version != expectedVersion {
		return conflict(op, "game blob changed since read")
	}
	stored.Version = expectedVersion + 1
	m.blobs[row.SubjectID] = &stored
	row.ID, row.Version = stored.ID, stored.Version
	return nil
}
