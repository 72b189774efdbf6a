package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/learnsync/internal/platform/envutil"
	"github.com/yungbote/learnsync/internal/platform/logger"
)

type writer interface {
	WritePrometheus(w io.Writer) error
}

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *GaugeVec

	storeOps       *HistogramVec
	storeConflicts *CounterVec
	storeRetries   *CounterVec

	syncEntries      *CounterVec
	syncMergeRetries *CounterVec
	timeAnomalies    *CounterVec
	blobMerges       *CounterVec

	activityCache *CounterVec
	dbPool        *GaugeVec
	redisUp       *GaugeVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

// Init builds the process-wide registry when METRICS_ENABLED is set, and
// returns nil otherwise. Every Metrics method is safe on a nil receiver.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("Observability metrics enabled")
		}
	})
	return instance
}

// New returns a fresh registry.
func New() *Metrics {
	latency := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}
	return &Metrics{
		apiRequests: NewCounterVec("ls_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency:  NewHistogramVec("ls_api_request_duration_seconds", "API request latency in seconds by method/route/status.", []string{"method", "route", "status"}, latency),
		apiInflight: NewGaugeVec("ls_api_inflight_requests", "In-flight API requests.", nil),

		storeOps:       NewHistogramVec("ls_store_operation_duration_seconds", "Progress store write latency by operation/status.", []string{"op", "status"}, latency),
		storeConflicts: NewCounterVec("ls_store_conflicts_total", "Version conflicts by store operation.", []string{"op"}),
		storeRetries:   NewCounterVec("ls_store_retryable_total", "Retryable store failures by operation.", []string{"op"}),

		syncEntries:      NewCounterVec("ls_sync_entries_total", "Sync entries by outcome.", []string{"outcome"}),
		syncMergeRetries: NewCounterVec("ls_sync_merge_retries_total", "Read-merge-write retries after a conflict.", []string{"target"}),
		timeAnomalies:    NewCounterVec("ls_time_spent_anomalies_total", "Implausible time-spent values by resolution.", []string{"resolution"}),
		blobMerges:       NewCounterVec("ls_game_blob_merges_total", "Game blob keys merged by deciding shape.", []string{"shape"}),

		activityCache: NewCounterVec("ls_activity_cache_total", "Activity cache lookups by result.", []string{"result"}),
		dbPool:        NewGaugeVec("ls_db_pool", "Database pool stats.", []string{"stat"}),
		redisUp:       NewGaugeVec("ls_redis_up", "Redis reachability (1 up, 0 down).", nil),
	}
}

func (m *Metrics) all() []writer {
	return []writer{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.storeOps, m.storeConflicts, m.storeRetries,
		m.syncEntries, m.syncMergeRetries, m.timeAnomalies, m.blobMerges,
		m.activityCache, m.dbPool, m.redisUp,
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range m.all() {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func orUnknown(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return v
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	route, status = orUnknown(route), orUnknown(status)
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Add(1)
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Add(-1)
}

func (m *Metrics) ObserveStoreOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.storeOps.Observe(dur.Seconds(), orUnknown(op), orUnknown(status))
}

func (m *Metrics) IncStoreConflict(op string) {
	if m == nil {
		return
	}
	m.storeConflicts.Inc(orUnknown(op))
}

func (m *Metrics) IncStoreRetry(op string) {
	if m == nil {
		return
	}
	m.storeRetries.Inc(orUnknown(op))
}

// IncSyncEntry counts one processed sync entry; outcome is "merged",
// "unchanged" or "failed".
func (m *Metrics) IncSyncEntry(outcome string) {
	if m == nil {
		return
	}
	m.syncEntries.Inc(orUnknown(outcome))
}

func (m *Metrics) IncMergeRetry(target string) {
	if m == nil {
		return
	}
	m.syncMergeRetries.Inc(orUnknown(target))
}

func (m *Metrics) IncTimeSpentAnomaly(resolution string) {
	if m == nil {
		return
	}
	m.timeAnomalies.Inc(orUnknown(resolution))
}

func (m *Metrics) IncBlobMerge(shape string) {
	if m == nil {
		return
	}
	m.blobMerges.Inc(orUnknown(shape))
}

func (m *Metrics) IncActivityCache(result string) {
	if m == nil {
		return
	}
	m.activityCache.Inc(orUnknown(result))
}

// SyncEntryCount exposes the outcome counter for tests and health output.
func (m *Metrics) SyncEntryCount(outcome string) float64 {
	if m == nil {
		return 0
	}
	return m.syncEntries.Value(outcome)
}
