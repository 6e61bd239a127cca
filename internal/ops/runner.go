package ops

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lepaul-HOU16/worldops/internal/batch"
	"github.com/lepaul-HOU16/worldops/internal/domain"
	"github.com/lepaul-HOU16/worldops/internal/ports"
	"github.com/lepaul-HOU16/worldops/internal/verify"
	"github.com/lepaul-HOU16/worldops/pkg/log"
)

// Runner binds one command session and the policy knobs shared by all
// operations. The zero value of every knob selects the documented default.
//
// A Runner is not reentrant: operations on the same Runner must be
// serialized by the caller, because the underlying session carries one
// exchange at a time.
type Runner struct {
	// Conn is the session used for batches and verification probes.
	Conn ports.CommandConn

	// Dialer, when set, lets the dispatcher pipeline batches by opening one
	// extra session per worker. Without it execution is strictly
	// sequential regardless of Concurrency: a single session is not
	// multiplexed.
	Dialer ports.Dialer

	// Ceiling is the per-command volume limit; 0 means domain.DefaultCeiling.
	Ceiling int64

	// Concurrency caps in-flight batches when Dialer is set.
	Concurrency int

	// Budget bounds each operation's wall clock; 0 means batch.DefaultBudget.
	Budget time.Duration

	// VerifyBudget caps read-back probes; 0 means verify.DefaultBudget.
	VerifyBudget int

	// Clearable is the class set used by all-except-preserved clears;
	// empty means domain.DefaultClearable.
	Clearable domain.ClassSet

	// Preserved is the terrain set never targeted; empty means
	// domain.DefaultPreserved.
	Preserved domain.ClassSet

	Clock  ports.Clock
	Logger log.Logger
}

func (r *Runner) ceiling() int64 {
	if r.Ceiling > 0 {
		return r.Ceiling
	}
	return domain.DefaultCeiling
}

func (r *Runner) clearable() domain.ClassSet {
	if !r.Clearable.Empty() {
		return r.Clearable
	}
	return domain.DefaultClearable()
}

func (r *Runner) preserved() domain.ClassSet {
	if !r.Preserved.Empty() {
		return r.Preserved
	}
	return domain.DefaultPreserved()
}

func (r *Runner) clock() ports.Clock {
	if r.Clock != nil {
		return r.Clock
	}
	return ports.RealClock{}
}

func (r *Runner) logger() log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.NewNoop()
}

func (r *Runner) verifier() *verify.Verifier {
	return &verify.Verifier{Conn: r.Conn, Budget: r.VerifyBudget, Logger: r.logger()}
}

func (r *Runner) newResult(op domain.OpType) domain.OperationResult {
	return domain.OperationResult{
		OperationID: uuid.NewString(),
		Op:          op,
		Status:      domain.StatusFailed,
	}
}

// sessions prepares the connections for one dispatch: the Runner's own
// session, plus per-worker sessions when pipelining is possible. It returns
// the exec-side acquire function and a release for the extra sessions.
func (r *Runner) sessions(ctx context.Context) (workers int, pool chan ports.CommandConn, cleanup func()) {
	workers = r.Concurrency
	if workers < 1 {
		workers = 1
	}
	if workers > batch.MaxConcurrency {
		workers = batch.MaxConcurrency
	}
	if r.Dialer == nil {
		workers = 1
	}

	pool = make(chan ports.CommandConn, workers)
	pool <- r.Conn
	var extras []ports.CommandConn
	for i := 1; i < workers; i++ {
		conn, err := r.Dialer.Dial(ctx)
		if err != nil {
			// Degrade to fewer workers rather than failing the operation.
			r.logger().Warn("worker session dial failed", log.Int("worker", i), log.Err(err))
			break
		}
		extras = append(extras, conn)
		pool <- conn
	}
	workers = 1 + len(extras)

	cleanup = func() {
		for _, c := range extras {
			c.Close()
		}
	}
	return workers, pool, cleanup
}

// dispatch runs the batches, one protocol command each, and folds the
// outcome into the result. Transient failures are retried by the dispatcher
// before they count as failed; a fatal failure stops new dispatch and is
// reported back so the caller can skip verification on a dead session.
func (r *Runner) dispatch(ctx context.Context, res *domain.OperationResult, batches []domain.CommandBatch, command func(domain.CommandBatch) string, parse func(string) (int64, error)) (failed int, fatal bool) {
	workers, pool, cleanup := r.sessions(ctx)
	defer cleanup()

	d := &batch.Dispatcher{
		Concurrency: workers,
		Budget:      r.Budget,
		Clock:       r.clock(),
		Logger:      r.logger(),
	}
	results := d.Run(ctx, batches, func(ctx context.Context, b domain.CommandBatch) (int64, error) {
		conn := <-pool
		defer func() { pool <- conn }()
		resp, err := conn.Exec(ctx, command(b))
		if err != nil {
			return 0, err
		}
		return parse(resp)
	})

	sum := batch.Summarize(results)
	res.BatchesIssued += sum.Dispatched
	res.UnitsAffected += sum.Units
	res.Errors = append(res.Errors, sum.Failures...)
	return sum.Failed, sum.Fatal
}

// conclude sets the final status. Full success requires every batch to have
// succeeded and the read-back to have matched; partial progress is surfaced
// as Partial, never folded into success or collapsed into failure.
func (r *Runner) conclude(res *domain.OperationResult, planned, failed int, verified bool) {
	succeeded := planned - failed
	switch {
	case failed == 0 && verified:
		res.Status = domain.StatusSucceeded
	case succeeded > 0:
		res.Status = domain.StatusPartial
	default:
		res.Status = domain.StatusFailed
	}
	if failed > 0 {
		res.RecordError(domain.Record(domain.KindPartialBatchFailure,
			fmt.Sprintf("%d of %d batches did not complete", failed, planned)))
	}
}

func (r *Runner) recordVerifyErr(res *domain.OperationResult, err error) bool {
	if err == nil {
		return res.Verification.AllMatched
	}
	res.RecordError(domain.Classify(err))
	return false
}
