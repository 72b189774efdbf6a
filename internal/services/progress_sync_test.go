package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	aggtestutil "github.com/yungbote/learnsync/internal/data/aggregates/testutil"
	types "github.com/yungbote/learnsync/internal/domain"
	domainagg "github.com/yungbote/learnsync/internal/domain/aggregates"
	"github.com/yungbote/learnsync/internal/observability"
	"github.com/yungbote/learnsync/internal/platform/logger"
	"github.com/yungbote/learnsync/internal/reconcile"
)

var syncTestNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func f64(v float64) *float64 { return &v }
func str(v string) *string   { return &v }
func at(d time.Duration) *time.Time {
	t := syncTestNow.Add(d)
	return &t
}

type syncFixture struct {
	store   *aggtestutil.MemProgressStore
	metrics *observability.Metrics
	svc     *progressSyncService
	account uuid.UUID
}

func newSyncFixture(t *testing.T, cfg SyncConfig) *syncFixture {
	t.Helper()
	store := aggtestutil.NewMemProgressStore()
	metrics := observability.New()
	svc := NewProgressSyncService(logger.Nop(), store, newTestProvisioner(t, store, nil), metrics, cfg).(*progressSyncService)
	svc.now = func() time.Time { return syncTestNow }
	return &syncFixture{store: store, metrics: metrics, svc: svc, account: uuid.New()}
}

func (f *syncFixture) sync(t *testing.T, snapshots map[string]reconcile.RawSnapshot, game map[string]any) *SyncResult {
	t.Helper()
	res, err := f.svc.Sync(context.Background(), SyncInput{
		AccountID:    f.account,
		DisplayName:  "Ada",
		Snapshots:    snapshots,
		GameProgress: game,
	})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	return res
}

func TestSyncMergesBatch(t *testing.T) {
	f := newSyncFixture(t, SyncConfig{})
	res := f.sync(t, map[string]reconcile.RawSnapshot{
		"colors": {ProgressPercent: f64(50), TimeSpentMinutes: f64(4), LastAccessed: at(-time.Hour)},
		"shapes": {ProgressPercent: f64(100), Score: f64(90)},
	}, nil)

	if len(res.Failed) != 0 {
		t.Fatalf("unexpected failures: %+v", res.Failed)
	}
	colors := res.Records["colors"]
	if colors.ProgressPercent != 50 || colors.Status != types.StatusInProgress || colors.TimeSpentMinutes != 4 {
		t.Fatalf("colors: %+v", colors)
	}
	shapes := res.Records["shapes"]
	if shapes.Status != types.StatusCompleted || shapes.CompletedAt == nil || shapes.Score == nil || *shapes.Score != 90 {
		t.Fatalf("shapes: %+v", shapes)
	}
	if got := f.metrics.SyncEntryCount("merged"); got != 2 {
		t.Fatalf("merged count: got=%v want=2", got)
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	f := newSyncFixture(t, SyncConfig{})
	batch := map[string]reconcile.RawSnapshot{
		"colors":        {ProgressPercent: f64(70), Status: str("IN_PROGRESS"), TimeSpentMinutes: f64(12.5), LastAccessed: at(-time.Minute)},
		"letter-sounds": {ProgressPercent: f64(100), Score: f64(80), LastAccessed: at(-2 * time.Minute)},
	}
	first := f.sync(t, batch, map[string]any{"puzzle": 3.0})
	writes := f.store.UpsertRecordCalls

	second := f.sync(t, batch, map[string]any{"puzzle": 3.0})
	if f.store.UpsertRecordCalls != writes {
		t.Fatalf("re-sync wrote records: before=%d after=%d", writes, f.store.UpsertRecordCalls)
	}
	for k, v := range first.Records {
		w := second.Records[k]
		if v.ProgressPercent != w.ProgressPercent || v.Status != w.Status || v.TimeSpentMinutes != w.TimeSpentMinutes || !v.LastAccessedAt.Equal(w.LastAccessedAt) {
			t.Fatalf("%s changed on re-sync: %+v -> %+v", k, v, w)
		}
	}
	if got := f.metrics.SyncEntryCount("unchanged"); got != 2 {
		t.Fatalf("unchanged count: got=%v want=2", got)
	}
}

func TestSyncCollectsEntryFailures(t *testing.T) {
	f := newSyncFixture(t, SyncConfig{})
	res := f.sync(t, map[string]reconcile.RawSnapshot{
		"colors": {ProgressPercent: f64(150)},
		"shapes": {Status: str("DONE")},
		"":       {ProgressPercent: f64(10)},
		"story":  {ProgressPercent: f64(10)},
	}, nil)

	if got := res.Failed["colors"]; got.Code != string(domainagg.CodeValidation) || got.Field != "progressPercent" {
		t.Fatalf("colors failure: %+v", got)
	}
	if got := res.Failed["shapes"]; got.Field != "status" {
		t.Fatalf("shapes failure: %+v", got)
	}
	if got := res.Failed[""]; got.Code != string(domainagg.CodeValidation) {
		t.Fatalf("empty id failure: %+v", got)
	}
	if _, ok := res.Records["story"]; !ok || len(res.Records) != 1 {
		t.Fatalf("expected only story to be recorded, got=%+v", res.Records)
	}
}

func TestSyncNeverDowngrades(t *testing.T) {
	f := newSyncFixture(t, SyncConfig{})
	f.sync(t, map[string]reconcile.RawSnapshot{"colors": {ProgressPercent: f64(100), LastAccessed: at(-time.Hour)}}, nil)
	res := f.sync(t, map[string]reconcile.RawSnapshot{"colors": {ProgressPercent: f64(20), LastAccessed: at(0)}}, nil)

	got := res.Records["colors"]
	if got.ProgressPercent != 100 || got.Status != types.StatusCompleted {
		t.Fatalf("stale snapshot downgraded record: %+v", got)
	}
}

func TestSyncRetriesOnConflict(t *testing.T) {
	f := newSyncFixture(t, SyncConfig{MaxMergeRetries: 5})
	f.store.RecordConflicts = 5
	res := f.sync(t, map[string]reconcile.RawSnapshot{"colors": {ProgressPercent: f64(40)}}, nil)
	if len(res.Failed) != 0 || res.Records["colors"].ProgressPercent != 40 {
		t.Fatalf("expected success after retries, got=%+v", res)
	}
}

func TestSyncRetryExhaustionIsRetryable(t *testing.T) {
	f := newSyncFixture(t, SyncConfig{MaxMergeRetries: 2})
	f.store.RecordConflicts = 3
	res := f.sync(t, map[string]reconcile.RawSnapshot{"colors": {ProgressPercent: f64(40)}}, nil)
	if got := res.Failed["colors"]; got.Code != string(domainagg.CodeRetryable) {
		t.Fatalf("expected retryable failure, got=%+v", got)
	}
}

func TestSyncInterleavedWriterLosesNothing(t *testing.T) {
	f := newSyncFixture(t, SyncConfig{})
	var injected atomic.Bool
	f.store.BeforeUpsertRecord = func(types.Record, int) {
		if !injected.CompareAndSwap(false, true) {
			return
		}
		f.sync(t, map[string]reconcile.RawSnapshot{"colors": {ProgressPercent: f64(80), LastAccessed: at(-time.Hour)}}, nil)
	}

	res := f.sync(t, map[string]reconcile.RawSnapshot{"colors": {ProgressPercent: f64(40), LastAccessed: at(-time.Minute)}}, nil)
	got := res.Records["colors"]
	if got.ProgressPercent != 80 {
		t.Fatalf("lost concurrent progress: %+v", got)
	}
	if !got.LastAccessedAt.Equal(*at(-time.Minute)) {
		t.Fatalf("expected the later access time, got=%s", got.LastAccessedAt)
	}
}

func TestSyncConcurrentWritersKeepMaximum(t *testing.T) {
	f := newSyncFixture(t, SyncConfig{MaxMergeRetries: 100})
	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(p float64) {
			defer wg.Done()
			_, err := f.svc.Sync(context.Background(), SyncInput{
				AccountID:   f.account,
				DisplayName: "Ada",
				Snapshots:   map[string]reconcile.RawSnapshot{"colors": {ProgressPercent: f64(p)}},
			})
			if err != nil {
				t.Errorf("Sync(%v): %v", p, err)
			}
		}(float64(i * 10))
	}
	wg.Wait()

	res, err := f.svc.ListProgress(context.Background(), f.account, "Ada")
	if err != nil {
		t.Fatalf("ListProgress: %v", err)
	}
	if got := res.Records["colors"].ProgressPercent; got != 80 {
		t.Fatalf("expected max progress 80, got=%v", got)
	}
	if n := len(f.store.Subjects()); n != 1 {
		t.Fatalf("expected a single subject, got=%d", n)
	}
}

func TestSyncRecoversTimeSpentUnits(t *testing.T) {
	f := newSyncFixture(t, SyncConfig{})
	res := f.sync(t, map[string]reconcile.RawSnapshot{"colors": {TimeSpentMinutes: f64(15000)}}, nil)
	if got := res.Records["colors"].TimeSpentMinutes; got != 250 {
		t.Fatalf("expected 15000 reinterpreted as seconds (250 min), got=%v", got)
	}
}

func TestSyncMergesGameProgress(t *testing.T) {
	f := newSyncFixture(t, SyncConfig{})
	f.sync(t, nil, map[string]any{"puzzle": 5.0, "legacy": "v1"})
	res := f.sync(t, nil, map[string]any{"puzzle": 2.0, "memory": map[string]any{"completed": true}})

	if res.GameProgressError != nil {
		t.Fatalf("game progress failed: %+v", res.GameProgressError)
	}
	if res.GameProgress["puzzle"] != 5.0 || res.GameProgress["legacy"] != "v1" {
		t.Fatalf("unexpected merged blob: %+v", res.GameProgress)
	}
	if _, ok := res.GameProgress["memory"]; !ok {
		t.Fatalf("new key missing: %+v", res.GameProgress)
	}
}

func TestUpdateActivityCountsAttempts(t *testing.T) {
	f := newSyncFixture(t, SyncConfig{})
	in := UpdateActivityInput{
		AccountID:   f.account,
		DisplayName: "Ada",
		ActivityID:  "colors",
		Snapshot:    reconcile.RawSnapshot{ProgressPercent: f64(30), LastAccessed: at(0)},
	}
	for want := 1; want <= 2; want++ {
		view, err := f.svc.UpdateActivity(context.Background(), in)
		if err != nil {
			t.Fatalf("UpdateActivity: %v", err)
		}
		if view.Attempts != want {
			t.Fatalf("attempts: got=%d want=%d", view.Attempts, want)
		}
	}
}

func TestUpdateActivityValidation(t *testing.T) {
	f := newSyncFixture(t, SyncConfig{})
	_, err := f.svc.UpdateActivity(context.Background(), UpdateActivityInput{
		AccountID:  f.account,
		ActivityID: "colors",
		Snapshot:   reconcile.RawSnapshot{Score: f64(-1)},
	})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation error, got=%v", err)
	}
}

func TestListAndClearProgress(t *testing.T) {
	f := newSyncFixture(t, SyncConfig{})
	f.sync(t, map[string]reconcile.RawSnapshot{
		"colors": {ProgressPercent: f64(10)},
		"shapes": {ProgressPercent: f64(20)},
	}, map[string]any{"puzzle": 1.0})

	ctx := context.Background()
	listed, err := f.svc.ListProgress(ctx, f.account, "Ada")
	if err != nil {
		t.Fatalf("ListProgress: %v", err)
	}
	if len(listed.Records) != 2 || listed.Records["shapes"].ProgressPercent != 20 {
		t.Fatalf("unexpected listing: %+v", listed.Records)
	}

	n, err := f.svc.ClearProgress(ctx, f.account, "Ada")
	if err != nil || n != 2 {
		t.Fatalf("ClearProgress: n=%d err=%v", n, err)
	}
	listed, err = f.svc.ListProgress(ctx, f.account, "Ada")
	if err != nil {
		t.Fatalf("ListProgress after clear: %v", err)
	}
	if len(listed.Records) != 0 {
		t.Fatalf("records survived clear: %+v", listed.Records)
	}
	if listed.GameProgress["puzzle"] != 1.0 {
		t.Fatalf("game blob should survive clear: %+v", listed.GameProgress)
	}

	// A reset record can start over from zero.
	res := f.sync(t, map[string]reconcile.RawSnapshot{"colors": {ProgressPercent: f64(5)}}, nil)
	if res.Records["colors"].ProgressPercent != 5 {
		t.Fatalf("expected fresh record after clear: %+v", res.Records["colors"])
	}
}

func TestSyncHonoursCancellation(t *testing.T) {
	f := newSyncFixture(t, SyncConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.svc.Sync(ctx, SyncInput{
		AccountID: f.account,
		Snapshots: map[string]reconcile.RawSnapshot{"colors": {ProgressPercent: f64(10)}},
	})
	if !domainagg.IsCode(err, domainagg.CodeRetryable) {
		t.Fatalf("expected retryable error, got=%v", err)
	}
}
