package reconcile

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/learnsync/internal/domain/progress"
)

func mustNormalize(t *testing.T, existing *progress.Record, raw RawSnapshot) Normalized {
	t.Helper()
	n, err := Normalize(existing, raw, testNow)
	require.NoError(t, err)
	return n
}

func TestMergeNewRecordZeroProgress(t *testing.T) {
	r := Merge(nil, mustNormalize(t, nil, RawSnapshot{ProgressPercent: f64(0)}), MergeOptions{Now: testNow})
	require.Equal(t, progress.StatusNotStarted, r.Status)
	require.Nil(t, r.CompletedAt)
}

func TestMergeNewRecordFullProgressCompletes(t *testing.T) {
	r := Merge(nil, mustNormalize(t, nil, RawSnapshot{ProgressPercent: f64(100)}), MergeOptions{Now: testNow})
	require.Equal(t, progress.StatusCompleted, r.Status)
	require.NotNil(t, r.CompletedAt)
	require.True(t, r.CompletedAt.Equal(testNow))
}

func TestMergeKeepsHigherExistingProgress(t *testing.T) {
	last := testNow.Add(-2 * time.Hour)
	existing := &progress.Record{ProgressPercent: 60, Status: progress.StatusInProgress, LastAccessedAt: last}
	r := Merge(existing, mustNormalize(t, existing, RawSnapshot{ProgressPercent: f64(40)}), MergeOptions{Now: testNow})
	require.Equal(t, 60.0, r.ProgressPercent)
	require.Equal(t, progress.StatusInProgress, r.Status)
	require.True(t, r.LastAccessedAt.Equal(testNow), "later timestamp should still be recorded")
}

func TestMergeBehindKeepsLaterExistingTimestamp(t *testing.T) {
	existing := &progress.Record{ProgressPercent: 60, Status: progress.StatusInProgress, LastAccessedAt: testNow}
	old := testNow.Add(-time.Hour)
	r := Merge(existing, mustNormalize(t, existing, RawSnapshot{ProgressPercent: f64(40), LastAccessed: &old}), MergeOptions{Now: testNow})
	require.True(t, r.LastAccessedAt.Equal(testNow))
}

func TestMergeAheadAcceptsIncomingTimestamp(t *testing.T) {
	existing := &progress.Record{ProgressPercent: 20, Status: progress.StatusInProgress, LastAccessedAt: testNow}
	old := testNow.Add(-time.Hour)
	r := Merge(existing, mustNormalize(t, existing, RawSnapshot{ProgressPercent: f64(70), LastAccessed: &old}), MergeOptions{Now: testNow})
	require.Equal(t, 70.0, r.ProgressPercent)
	require.True(t, r.LastAccessedAt.Equal(old))
}

func TestMergeEqualProgressTieKeepsExistingTimestamp(t *testing.T) {
	existing := &progress.Record{ProgressPercent: 50, Status: progress.StatusInProgress, LastAccessedAt: testNow}
	same := testNow
	r := Merge(existing, mustNormalize(t, existing, RawSnapshot{ProgressPercent: f64(50), LastAccessed: &same}), MergeOptions{Now: testNow})
	require.True(t, r.LastAccessedAt.Equal(testNow))

	later := testNow.Add(time.Minute)
	r = Merge(existing, mustNormalize(t, existing, RawSnapshot{ProgressPercent: f64(50), LastAccessed: &later}), MergeOptions{Now: testNow})
	require.True(t, r.LastAccessedAt.Equal(later))
}

func TestMergeInferenceNeverDowngradesDone(t *testing.T) {
	done := testNow.Add(-time.Hour)
	existing := &progress.Record{ProgressPercent: 80, Status: progress.StatusMastered, CompletedAt: &done}
	r := Merge(existing, mustNormalize(t, existing, RawSnapshot{ProgressPercent: f64(90)}), MergeOptions{Now: testNow})
	require.Equal(t, progress.StatusMastered, r.Status)
	require.True(t, r.CompletedAt.Equal(done))
}

func TestMergeExplicitStatusOnAdvanceMayLower(t *testing.T) {
	existing := &progress.Record{ProgressPercent: 10, Status: progress.StatusCompleted}
	r := Merge(existing, mustNormalize(t, existing, RawSnapshot{ProgressPercent: f64(30), Status: str("IN_PROGRESS")}), MergeOptions{Now: testNow})
	require.Equal(t, progress.StatusInProgress, r.Status)
}

func TestMergeExplicitStatusOnEqualOnlyRaises(t *testing.T) {
	existing := &progress.Record{ProgressPercent: 100, Status: progress.StatusCompleted}
	r := Merge(existing, mustNormalize(t, existing, RawSnapshot{ProgressPercent: f64(100), Status: str("MASTERED")}), MergeOptions{Now: testNow})
	require.Equal(t, progress.StatusMastered, r.Status)

	r = Merge(existing, mustNormalize(t, existing, RawSnapshot{ProgressPercent: f64(100), Status: str("IN_PROGRESS")}), MergeOptions{Now: testNow})
	require.Equal(t, progress.StatusCompleted, r.Status)
}

func TestMergeScoreReplaceIfPresent(t *testing.T) {
	existing := &progress.Record{ProgressPercent: 50, Status: progress.StatusInProgress, Score: f64(70)}
	r := Merge(existing, mustNormalize(t, existing, RawSnapshot{}), MergeOptions{Now: testNow})
	require.Equal(t, 70.0, *r.Score)

	r = Merge(existing, mustNormalize(t, existing, RawSnapshot{Score: f64(40)}), MergeOptions{Now: testNow})
	require.Equal(t, 40.0, *r.Score)
	require.Equal(t, 70.0, *existing.Score, "existing must not be mutated")
}

func TestMergeAttempts(t *testing.T) {
	existing := &progress.Record{Attempts: 2, Status: progress.StatusInProgress, ProgressPercent: 5}
	n := mustNormalize(t, existing, RawSnapshot{ProgressPercent: f64(5)})
	require.Equal(t, 2, Merge(existing, n, MergeOptions{Now: testNow}).Attempts)
	require.Equal(t, 3, Merge(existing, n, MergeOptions{Now: testNow, CountAttempt: true}).Attempts)
}

func TestMergeTimeSpentReplaces(t *testing.T) {
	existing := &progress.Record{TimeSpentSeconds: 600}
	r := Merge(existing, mustNormalize(t, existing, RawSnapshot{TimeSpentMinutes: f64(4)}), MergeOptions{Now: testNow})
	require.Equal(t, int64(240), r.TimeSpentSeconds)
}

func randomSnapshot(rng *rand.Rand) RawSnapshot {
	var raw RawSnapshot
	if rng.Intn(4) > 0 {
		raw.ProgressPercent = f64(float64(rng.Intn(11) * 10))
	}
	if rng.Intn(3) == 0 {
		raw.Score = f64(float64(rng.Intn(101)))
	}
	if rng.Intn(2) == 0 {
		raw.TimeSpentMinutes = f64(float64(rng.Intn(20000)))
	}
	if rng.Intn(2) == 0 {
		at := testNow.Add(time.Duration(rng.Intn(7200)-3600) * time.Second)
		raw.LastAccessed = &at
	}
	return raw
}

func TestMergeProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		var cur *progress.Record
		for step := 0; step < 8; step++ {
			raw := randomSnapshot(rng)
			n := mustNormalize(t, cur, raw)
			next := Merge(cur, n, MergeOptions{Now: testNow})

			prevProgress, prevStatus := 0.0, progress.StatusNotStarted
			if cur != nil {
				prevProgress, prevStatus = cur.ProgressPercent, cur.Status
			}
			want := prevProgress
			if raw.ProgressPercent != nil && *raw.ProgressPercent > want {
				want = *raw.ProgressPercent
			}
			require.Equal(t, want, next.ProgressPercent, "max progress")
			require.GreaterOrEqual(t, next.Status.Rank(), prevStatus.Rank(), "status monotone")

			again := Merge(&next, n, MergeOptions{Now: testNow.Add(time.Hour)})
			require.False(t, Changed(&next, again), "merge must be idempotent: %+v vs %+v", next, again)

			cur = &next
		}
	}
}

func TestApplyPropagatesValidationError(t *testing.T) {
	_, _, err := Apply(nil, RawSnapshot{ProgressPercent: f64(140)}, MergeOptions{Now: testNow})
	require.Error(t, err)
}
