package aggregates

import (
	"context"
	"errors"
	"testing"
	"time"

	domainagg "github.com/yungbote/learnsync/internal/domain/aggregates"
	"github.com/yungbote/learnsync/internal/platform/dbctx"
)

type hookCalls struct {
	observed  []string
	conflicts int
	retries   int
}

func (h *hookCalls) Observe(op, outcome string, _ time.Duration) {
	h.observed = append(h.observed, op+"="+outcome)
}
func (h *hookCalls) Conflict(string)  { h.conflicts++ }
func (h *hookCalls) Retryable(string) { h.retries++ }

var passthroughRunner = TxRunnerFunc(func(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	return fn(dbctx.Context{Ctx: ctx})
})

func TestStoreWriteOutcomes(t *testing.T) {
	cases := []struct {
		name      string
		body      error
		code      domainagg.ErrorCode
		outcome   string
		conflicts int
		retries   int
	}{
		{"success", nil, "", "success", 0, 0},
		{"invariant", InvariantError("subject vanished"), domainagg.CodeInvariantViolation, "invariant_violation", 0, 0},
		{"conflict", ConflictError("stale version"), domainagg.CodeConflict, "conflict", 1, 0},
		{"retryable", RetryableError("lock timeout"), domainagg.CodeRetryable, "retryable", 0, 1},
		{"deadline", context.DeadlineExceeded, domainagg.CodeRetryable, "retryable", 0, 1},
		{"unknown", errors.New("disk on fire"), domainagg.CodeInternal, "internal", 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hooks := &hookCalls{}
			deps := StoreDeps{Runner: passthroughRunner, Hooks: hooks}.resolve()

			err := deps.write(context.Background(), "Progress.Store.Test", func(dbctx.Context) error { return tc.body })

			if tc.code == "" && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.code != "" && !domainagg.IsCode(err, tc.code) {
				t.Fatalf("code: got=%q want=%q", domainagg.CodeOf(err), tc.code)
			}
			if len(hooks.observed) != 1 || hooks.observed[0] != "Progress.Store.Test="+tc.outcome {
				t.Fatalf("observed: %v", hooks.observed)
			}
			if hooks.conflicts != tc.conflicts || hooks.retries != tc.retries {
				t.Fatalf("signals: conflicts=%d retries=%d", hooks.conflicts, hooks.retries)
			}
		})
	}
}

func TestGormTxRunnerWithoutDB(t *testing.T) {
	err := NewGormTxRunner(nil).InTx(context.Background(), func(dbctx.Context) error { return nil })
	if !domainagg.IsCode(err, domainagg.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if err := NewGormTxRunner(nil).InTx(context.Background(), nil); err != nil {
		t.Fatalf("nil body: %v", err)
	}
}

func TestVersionedWriteInsertPath(t *testing.T) {
	version := -1
	w := versionedWrite{
		table:  tableRecord,
		insert: func(dbctx.Context) (bool, error) { return false, nil },
		stamp:  func(v int) { version = v },
	}
	err := w.apply(dbctx.Context{Ctx: context.Background()})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("lost insert race: expected conflict, got %v", err)
	}
	if version != 0 {
		t.Fatalf("version must be reset after a failed insert, got %d", version)
	}

	w.insert = func(dbctx.Context) (bool, error) { return true, nil }
	if err := w.apply(dbctx.Context{Ctx: context.Background()}); err != nil || version != 1 {
		t.Fatalf("insert: err=%v version=%d", err, version)
	}
}

func TestVersionedWriteUpdateNeedsTx(t *testing.T) {
	w := versionedWrite{table: tableRecord, expected: 3, stamp: func(int) {}}
	if err := w.apply(dbctx.Context{Ctx: context.Background()}); !errors.Is(err, ErrInvariant) {
		t.Fatalf("expected invariant error, got %v", err)
	}
}
