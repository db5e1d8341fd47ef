package telemetry

import (
	"context"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Handle owns a provider's live connection and background flush task. One
// exists per configured endpoint. Shutdown must be invoked at most once and
// before process exit; the Guard enforces both.
type Handle interface {
	Kind() StageKind
	Shutdown(ctx context.Context) error
}

// Guard exclusively owns the provider handles created during composition and
// releases them exactly once. Hold it for the life of the process and call
// Shutdown on the way out:
//
//	dispatcher, guard, err := telemetry.New("orders-api").Build(ctx)
//	if err != nil {
//		return err
//	}
//	defer guard.Shutdown(ctx)
//
// Guards must not be copied; shutdown happens exactly once per composition.
// A finalizer backstop releases the handles if the owner drops the guard
// without calling Shutdown, but relying on it trades deterministic flushing
// for garbage-collector timing.
type Guard struct {
	once    sync.Once
	handles []Handle
	log     *zap.Logger
	timeout time.Duration
}

func newGuard(handles []Handle, log *zap.Logger, timeout time.Duration) *Guard {
	g := &Guard{
		handles: handles,
		log:     log,
		timeout: timeout,
	}
	runtime.SetFinalizer(g, (*Guard).finalize)
	return g
}

// Shutdown flushes and closes every owned handle. Idempotent: calls after
// the first are no-ops. Each handle is shut down independently; a failure on
// one never prevents an attempt on the next. Failures are logged as
// warnings, never returned, because shutdown happens during process teardown
// where no recovery action exists.
func (g *Guard) Shutdown(ctx context.Context) {
	runtime.SetFinalizer(g, nil)
	g.shutdown(ctx)
}

// Handles reports how many provider handles the guard owns.
func (g *Guard) Handles() int {
	return len(g.handles)
}

func (g *Guard) finalize() {
	g.log.Warn("telemetry guard dropped without shutdown; flushing from finalizer")
	g.shutdown(context.Background())
}

func (g *Guard) shutdown(ctx context.Context) {
	g.once.Do(func() {
		// Bound flush time so teardown cannot hang process exit.
		if _, ok := ctx.Deadline(); !ok && g.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}

		for _, h := range g.handles {
			if err := h.Shutdown(ctx); err != nil {
				g.log.Warn("telemetry provider shutdown failed",
					zap.Stringer("stage", h.Kind()),
					zap.Error(err))
			}
		}
	})
}
