package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/yungbote/learnsync/internal/data/aggregates"
	"github.com/yungbote/learnsync/internal/platform/dbctx"
)

// HooksRecorder keeps every store hook signal for later assertions.
type HooksRecorder struct {
	mu sync.Mutex

	Writes    []WriteEvent
	Conflicts []string
	Retries   []string
}

type WriteEvent struct {
	Op       string
	Outcome  string
	Duration time.Duration
}

var _ aggregates.Hooks = (*HooksRecorder)(nil)

func (h *HooksRecorder) Observe(op, outcome string, dur time.Duration) {
	h.mu.Lock()
	h.Writes = append(h.Writes, WriteEvent{Op: op, Outcome: outcome, Duration: dur})
	h.mu.Unlock()
}

func (h *HooksRecorder) Conflict(op string) {
	h.mu.Lock()
	h.Conflicts = append(h.Conflicts, op)
	h.mu.Unlock()
}

func (h *HooksRecorder) Retryable(op string) {
	h.mu.Lock()
	h.Retries = append(h.Retries, op)
	h.mu.Unlock()
}

// Outcomes lists the recorded outcomes for op in call order.
func (h *HooksRecorder) Outcomes(op string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, w := range h.Writes {
		if w.Op == op {
			out = append(out, w.Outcome)
		}
	}
	return out
}

// InjectedTxRunner runs store writes without a database and can be told to
// fail before the body runs or after it succeeds. The body sees a
// dbctx.Context with a nil Tx.
type InjectedTxRunner struct {
	mu sync.Mutex

	FailBegin  error
	FailCommit error

	BeginCalls    int
	CommitCalls   int
	RollbackCalls int
}

var _ aggregates.TxRunner = (*InjectedTxRunner)(nil)

func (r *InjectedTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.BeginCalls++
	failBegin, failCommit := r.FailBegin, r.FailCommit
	r.mu.Unlock()

	if failBegin != nil {
		return failBegin
	}
	var err error
	if fn != nil {
		err = fn(dbctx.Context{Ctx: ctx})
	}
	if err == nil {
		err = failCommit
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.RollbackCalls++
		return err
	}
	r.CommitCalls++
	return nil
}
