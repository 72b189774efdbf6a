package aggregates

import (
	"context"
	"time"

	"gorm.io/gorm"

	domainagg "github.com/yungbote/learnsync/internal/domain/aggregates"
	"github.com/yungbote/learnsync/internal/observability"
	"github.com/yungbote/learnsync/internal/platform/dbctx"
	"github.com/yungbote/learnsync/internal/platform/logger"
)

const outcomeSuccess = "success"

// StoreDeps is what every store in this package is built from. Only DB is
// required; the rest default to a gorm runner, silent hooks and a nop logger.
type StoreDeps struct {
	DB     *gorm.DB
	Log    *logger.Logger
	Runner TxRunner
	Hooks  Hooks
}

func (d StoreDeps) resolve() StoreDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	return d
}

// write runs fn inside one transaction, maps the failure to a coded error and
// reports the outcome under op.
func (d StoreDeps) write(ctx context.Context, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	err := MapError(op, d.Runner.InTx(ctx, fn))
	result := outcome(err)

	switch domainagg.ErrorCode(result) {
	case domainagg.CodeConflict:
		d.Hooks.Conflict(op)
	case domainagg.CodeRetryable:
		d.Hooks.Retryable(op)
	case domainagg.CodeInternal:
		d.Log.Warn("store write failed", "op", op, "error", err)
	}
	d.Hooks.Observe(op, result, time.Since(start))
	return err
}

// outcome is the metrics label for err: "success" or its error code.
func outcome(err error) string {
	if err == nil {
		return outcomeSuccess
	}
	return string(domainagg.CodeOf(MapError("store.outcome", err)))
}

// TxRunner owns the transaction boundary of a store write.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

// TxRunnerFunc adapts a function to TxRunner.
type TxRunnerFunc func(ctx context.Context, fn func(dbc dbctx.Context) error) error

func (f TxRunnerFunc) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	return f(ctx, fn)
}

func NewGormTxRunner(db *gorm.DB) TxRunner {
	return TxRunnerFunc(func(ctx context.Context, fn func(dbc dbctx.Context) error) error {
		if fn == nil {
			return nil
		}
		if db == nil {
			return domainagg.NewError(domainagg.CodeInternal, "store.tx", "no database configured", nil)
		}
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(dbctx.Context{Ctx: ctx, Tx: tx})
		})
	})
}

// Hooks receives one Observe per store write plus a signal for each
// conflict or retryable failure.
type Hooks interface {
	Observe(op, outcome string, dur time.Duration)
	Conflict(op string)
	Retryable(op string)
}

type noopHooks struct{}

func (noopHooks) Observe(string, string, time.Duration) {}
func (noopHooks) Conflict(string)                       {}
func (noopHooks) Retryable(string)                      {}

type metricsHooks struct {
	m *observability.Metrics
}

// NewMetricsHooks reports store writes to the process metrics registry.
func NewMetricsHooks(m *observability.Metrics) Hooks {
	if m == nil {
		return noopHooks{}
	}
	return metricsHooks{m: m}
}

func (h metricsHooks) Observe(op, outcome string, dur time.Duration) {
	h.m.ObserveStoreOperation(op, outcome, dur)
}
func (h metricsHooks) Conflict(op string)  { h.m.IncStoreConflict(op) }
func (h metricsHooks) Retryable(op string) { h.m.IncStoreRetry(op) }
