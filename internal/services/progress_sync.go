package services

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	types "github.com/yungbote/learnsync/internal/domain"
	domainagg "github.com/yungbote/learnsync/internal/domain/aggregates"
	"github.com/yungbote/learnsync/internal/observability"
	"github.com/yungbote/learnsync/internal/platform/logger"
	"github.com/yungbote/learnsync/internal/reconcile"
)

const (
	DefaultMaxMergeRetries  = 5
	DefaultEntryConcurrency = 4
)

type SyncConfig struct {
	// MaxMergeRetries bounds re-reads after a version conflict.
	MaxMergeRetries  int
	EntryConcurrency int
}

type SyncInput struct {
	AccountID    uuid.UUID
	DisplayName  string
	Snapshots    map[string]reconcile.RawSnapshot
	GameProgress map[string]any
}

type UpdateActivityInput struct {
	AccountID   uuid.UUID
	DisplayName string
	ActivityID  string
	Snapshot    reconcile.RawSnapshot
}

// RecordView is the client-facing shape of a canonical record.
type RecordView struct {
	ProgressPercent  float64      `json:"progressPercent"`
	Status           types.Status `json:"status"`
	LastAccessedAt   time.Time    `json:"lastAccessedAt"`
	Score            *float64     `json:"score,omitempty"`
	TimeSpentMinutes float64      `json:"timeSpentMinutes"`
	Attempts         int          `json:"attempts"`
	CompletedAt      *time.Time   `json:"completedAt,omitempty"`
}

func NewRecordView(r *types.Record) RecordView {
	v := RecordView{
		ProgressPercent:  r.ProgressPercent,
		Status:           r.Status,
		LastAccessedAt:   r.LastAccessedAt.UTC(),
		TimeSpentMinutes: float64(r.TimeSpentSeconds) / 60,
		Attempts:         r.Attempts,
	}
	if r.Score != nil {
		s := *r.Score
		v.Score = &s
	}
	if r.CompletedAt != nil {
		c := r.CompletedAt.UTC()
		v.CompletedAt = &c
	}
	return v
}

// EntryFailure explains why one batch entry was not applied.
type EntryFailure struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type SyncResult struct {
	Records           map[string]RecordView   `json:"records"`
	Failed            map[string]EntryFailure `json:"failed"`
	GameProgress      map[string]any          `json:"gameProgress,omitempty"`
	GameProgressError *EntryFailure           `json:"gameProgressError,omitempty"`
}

func newSyncResult() *SyncResult {
	return &SyncResult{
		Records: map[string]RecordView{},
		Failed:  map[string]EntryFailure{},
	}
}

type ProgressSyncService interface {
	Sync(ctx context.Context, in SyncInput) (*SyncResult, error)
	UpdateActivity(ctx context.Context, in UpdateActivityInput) (*RecordView, error)
	ListProgress(ctx context.Context, accountID uuid.UUID, displayName string) (*SyncResult, error)
	// ClearProgress deletes every record of the account's subject and returns
	// how many were removed. The game blob is kept.
	ClearProgress(ctx context.Context, accountID uuid.UUID, displayName string) (int64, error)
}

type progressSyncService struct {
	log         *logger.Logger
	store       domainagg.ProgressStore
	provisioner Provisioner
	metrics     *observability.Metrics
	cfg         SyncConfig
	now         func() time.Time
}

func NewProgressSyncService(
	log *logger.Logger,
	store domainagg.ProgressStore,
	provisioner Provisioner,
	metrics *observability.Metrics,
	cfg SyncConfig,
) ProgressSyncService {
	if cfg.MaxMergeRetries <= 0 {
		cfg.MaxMergeRetries = DefaultMaxMergeRetries
	}
	if cfg.EntryConcurrency <= 0 {
		cfg.EntryConcurrency = DefaultEntryConcurrency
	}
	return &progressSyncService{
		log:         log.With("service", "ProgressSyncService"),
		store:       store,
		provisioner: provisioner,
		metrics:     metrics,
		cfg:         cfg,
		now:         time.Now,
	}
}

func (s *progressSyncService) Sync(ctx context.Context, in SyncInput) (*SyncResult, error) {
	ctx, span := observability.Tracer().Start(ctx, "progress.sync",
		trace.WithAttributes(attribute.Int("sync.entries", len(in.Snapshots))))
	defer span.End()

	subject, err := s.provisioner.EnsureSubject(ctx, in.AccountID, in.DisplayName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ensure subject")
		return nil, err
	}

	res := newSyncResult()
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.cfg.EntryConcurrency)

	for _, key := range sortedKeys(in.Snapshots) {
		key, raw := key, in.Snapshots[key]
		g.Go(func() error {
			rec, changed, err := s.syncEntry(ctx, subject, key, raw, false)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed[key] = entryFailure(err)
				s.metrics.IncSyncEntry("failed")
				s.log.Warn("sync entry failed", "account_id", in.AccountID, "activity_id", key, "error", err)
				return nil
			}
			res.Records[key] = NewRecordView(rec)
			if changed {
				s.metrics.IncSyncEntry("merged")
			} else {
				s.metrics.IncSyncEntry("unchanged")
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(in.GameProgress) > 0 {
		merged, err := s.mergeGameBlob(ctx, subject.ID, in.GameProgress)
		if err != nil {
			f := entryFailure(err)
			res.GameProgressError = &f
			s.log.Warn("game progress merge failed", "account_id", in.AccountID, "error", err)
		} else {
			res.GameProgress = merged
		}
	}

	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		return nil, domainagg.Wrap(domainagg.CodeRetryable, "ProgressSync.Sync", err)
	}

	span.SetAttributes(
		attribute.Int("sync.records", len(res.Records)),
		attribute.Int("sync.failed", len(res.Failed)),
	)
	s.log.Info("progress sync complete",
		"account_id", in.AccountID,
		"entries", len(in.Snapshots),
		"records", len(res.Records),
		"failed", len(res.Failed),
	)
	return res, nil
}

func (s *progressSyncService) UpdateActivity(ctx context.Context, in UpdateActivityInput) (*RecordView, error) {
	ctx, span := observability.Tracer().Start(ctx, "progress.update_activity")
	defer span.End()

	subject, err := s.provisioner.EnsureSubject(ctx, in.AccountID, in.DisplayName)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	rec, changed, err := s.syncEntry(ctx, subject, in.ActivityID, in.Snapshot, true)
	if err != nil {
		s.metrics.IncSyncEntry("failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, "update activity")
		return nil, err
	}
	if changed {
		s.metrics.IncSyncEntry("merged")
	} else {
		s.metrics.IncSyncEntry("unchanged")
	}
	view := NewRecordView(rec)
	return &view, nil
}

func (s *progressSyncService) ListProgress(ctx context.Context, accountID uuid.UUID, displayName string) (*SyncResult, error) {
	subject, err := s.provisioner.EnsureSubject(ctx, accountID, displayName)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListRecords(ctx, subject.ID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ActivityID)
	}
	activities, err := s.store.ListActivitiesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	externalIDs := make(map[uuid.UUID]string, len(activities))
	for _, a := range activities {
		externalIDs[a.ID] = a.ExternalID
	}

	res := newSyncResult()
	for _, r := range records {
		ext, ok := externalIDs[r.ActivityID]
		if !ok {
			s.log.Warn("record without activity", "record_id", r.ID, "activity_id", r.ActivityID)
			continue
		}
		res.Records[ext] = NewRecordView(r)
	}

	blob, err := s.store.FindGameBlob(ctx, subject.ID)
	if err != nil {
		return nil, err
	}
	if blob != nil {
		m, err := blob.Map()
		if err != nil {
			return nil, domainagg.NewError(domainagg.CodeInternal, "ProgressSync.ListProgress", "decode game blob", err)
		}
		res.GameProgress = m
	}
	return res, nil
}

func (s *progressSyncService) ClearProgress(ctx context.Context, accountID uuid.UUID, displayName string) (int64, error) {
	subject, err := s.provisioner.EnsureSubject(ctx, accountID, displayName)
	if err != nil {
		return 0, err
	}
	n, err := s.store.DeleteAllRecords(ctx, subject.ID)
	if err != nil {
		return 0, err
	}
	s.log.Info("progress cleared", "account_id", accountID, "records", n)
	return n, nil
}

func (s *progressSyncService) syncEntry(ctx context.Context, subject *types.Subject, activityID string, raw reconcile.RawSnapshot, countAttempt bool) (*types.Record, bool, error) {
	ctx, span := observability.Tracer().Start(ctx, "progress.sync.entry",
		trace.WithAttributes(attribute.String("activity.external_id", activityID)))
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, false, domainagg.Wrap(domainagg.CodeRetryable, "ProgressSync.Entry", err)
	}
	activity, err := s.provisioner.EnsureActivity(ctx, activityID)
	if err != nil {
		span.RecordError(err)
		return nil, false, err
	}
	rec, changed, err := s.mergeRecord(ctx, subject.ID, activity.ID, raw, countAttempt)
	if err != nil {
		span.RecordError(err)
		return nil, false, err
	}
	span.SetAttributes(attribute.Bool("record.changed", changed))
	return rec, changed, nil
}

// mergeRecord runs read-merge-write until the versioned write lands.
func (s *progressSyncService) mergeRecord(ctx context.Context, subjectID, activityID uuid.UUID, raw reconcile.RawSnapshot, countAttempt bool) (*types.Record, bool, error) {
	const op = "ProgressSync.MergeRecord"
	for attempt := 0; ; attempt++ {
		existing, err := s.store.FindRecord(ctx, subjectID, activityID)
		if err != nil {
			return nil, false, err
		}
		next, n, err := reconcile.Apply(existing, raw, reconcile.MergeOptions{Now: s.now(), CountAttempt: countAttempt})
		if err != nil {
			return nil, false, domainagg.NewError(domainagg.CodeValidation, op, err.Error(), err)
		}
		if n.Anomaly != nil && attempt == 0 {
			s.metrics.IncTimeSpentAnomaly(n.Anomaly.Resolution)
			s.log.Warn("time_spent_anomaly",
				"subject_id", subjectID,
				"activity_id", activityID,
				"raw_minutes", n.Anomaly.RawMinutes,
				"resolution", n.Anomaly.Resolution,
				"seconds", n.Anomaly.Seconds,
			)
		}
		if !reconcile.Changed(existing, next) {
			return existing, false, nil
		}

		expected := 0
		if existing != nil {
			expected = existing.Version
		} else {
			next.ID = uuid.New()
		}
		next.SubjectID, next.ActivityID = subjectID, activityID

		err = s.store.UpsertRecord(ctx, &next, expected)
		if err == nil {
			return &next, true, nil
		}
		if !domainagg.IsCode(err, domainagg.CodeConflict) {
			return nil, false, err
		}
		if attempt >= s.cfg.MaxMergeRetries {
			return nil, false, domainagg.NewError(domainagg.CodeRetryable, op, "record kept changing during merge", err)
		}
		s.metrics.IncMergeRetry("record")
		s.log.Debug("record merge conflict, retrying", "activity_id", activityID, "attempt", attempt+1)
	}
}

func (s *progressSyncService) mergeGameBlob(ctx context.Context, subjectID uuid.UUID, incoming map[string]any) (map[string]any, error) {
	const op = "ProgressSync.MergeGameBlob"
	for attempt := 0; ; attempt++ {
		current, err := s.store.FindGameBlob(ctx, subjectID)
		if err != nil {
			return nil, err
		}
		existing, err := current.Map()
		if err != nil {
			return nil, domainagg.NewError(domainagg.CodeInternal, op, "decode game blob", err)
		}

		var shapes []reconcile.Shape
		merged := reconcile.MergeBlobsFunc(existing, incoming, func(_ string, shape reconcile.Shape) {
			shapes = append(shapes, shape)
		})
		if current != nil && reflect.DeepEqual(existing, merged) {
			return merged, nil
		}

		row := &types.GameBlob{SubjectID: subjectID}
		expected := 0
		if current != nil {
			row.ID, expected = current.ID, current.Version
		} else {
			row.ID = uuid.New()
		}
		if err := row.SetMap(merged); err != nil {
			return nil, domainagg.NewError(domainagg.CodeValidation, op, "game progress is not encodable", err)
		}

		err = s.store.UpsertGameBlob(ctx, row, expected)
		if err == nil {
			for _, shape := range shapes {
				s.metrics.IncBlobMerge(shape.String())
			}
			return merged, nil
		}
		if !domainagg.IsCode(err, domainagg.CodeConflict) {
			return nil, err
		}
		if attempt >= s.cfg.MaxMergeRetries {
			return nil, domainagg.NewError(domainagg.CodeRetryable, op, "game blob kept changing during merge", err)
		}
		s.metrics.IncMergeRetry("game_blob")
	}
}

func entryFailure(err error) EntryFailure {
	f := EntryFailure{Code: string(domainagg.CodeInternal), Message: err.Error()}
	if code := domainagg.CodeOf(err); code != "" {
		f.Code = string(code)
	}
	var fe *reconcile.FieldError
	if errors.As(err, &fe) {
		f.Code = string(domainagg.CodeValidation)
		f.Message = fe.Error()
		f.Field = fe.Field
	}
	return f
}

func sortedKeys(m map[string]reconcile.RawSnapshot) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
