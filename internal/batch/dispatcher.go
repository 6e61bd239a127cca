package batch

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lepaul-HOU16/worldops/internal/domain"
	"github.com/lepaul-HOU16/worldops/internal/ports"
	"github.com/lepaul-HOU16/worldops/pkg/log"
)

// DefaultBudget is the wall-clock bound for one whole operation. When it
// expires, no new batch is dispatched; in-flight batches resolve and the
// operation returns a partial result instead of hanging.
const DefaultBudget = 30 * time.Second

// Result is the outcome of one dispatched batch.
type Result struct {
	// Batch is the batch this result belongs to.
	Batch domain.CommandBatch

	// Units is the number of cells the server reported changed.
	Units int64

	// Err is the batch's failure after retries, nil on success.
	Err error

	// Skipped is true when the batch was never dispatched because the
	// operation's budget expired or an earlier batch failed fatally.
	Skipped bool
}

// ExecFunc runs one batch's command exchange and returns the changed-cell
// count.
type ExecFunc func(ctx context.Context, b domain.CommandBatch) (int64, error)

// Dispatcher runs batches with bounded concurrency, per-batch retry of
// transient failures, and a wall-clock budget.
//
// Concurrency defaults to 1: a single RCON session carries one exchange at a
// time, so batches run strictly sequentially unless the caller wires one
// session per worker and raises the cap.
type Dispatcher struct {
	// Concurrency is the maximum number of in-flight batches. Values < 1
	// are treated as 1.
	Concurrency int

	// Budget bounds the whole run; 0 means DefaultBudget.
	Budget time.Duration

	// Retries is the number of extra attempts per batch for failures that
	// classify as retryable (timeouts, refused connections). 0 means
	// DefaultRetries; negative disables retry.
	Retries int

	// RetryBase and RetryMax shape the backoff between retry attempts;
	// 0 means the package defaults.
	RetryBase time.Duration
	RetryMax  time.Duration

	Clock  ports.Clock
	Logger log.Logger
}

// MaxConcurrency caps pipelining regardless of configuration.
const MaxConcurrency = 8

// Run executes fn for every batch. Retryable failures are re-attempted with
// bounded backoff before being recorded; a batch that still fails with a
// retryable error never aborts the remaining batches. A non-retryable
// failure (auth rejection, protocol desync) stops new dispatch: issuing
// further commands against a session in an unknown state cannot succeed and
// can corrupt it further. Batches that would start after the budget expired
// or after a fatal failure are recorded as skipped. Results are positionally
// aligned with the input.
func (d *Dispatcher) Run(ctx context.Context, batches []domain.CommandBatch, fn ExecFunc) []Result {
	clock := d.Clock
	if clock == nil {
		clock = ports.RealClock{}
	}
	logger := d.Logger
	if logger == nil {
		logger = log.NewNoop()
	}
	budget := d.Budget
	if budget <= 0 {
		budget = DefaultBudget
	}
	limit := d.Concurrency
	if limit < 1 {
		limit = 1
	}
	if limit > MaxConcurrency {
		limit = MaxConcurrency
	}
	retries := d.Retries
	if retries == 0 {
		retries = DefaultRetries
	}
	if retries < 0 {
		retries = 0
	}
	retryBase := d.RetryBase
	if retryBase <= 0 {
		retryBase = DefaultRetryBase
	}
	retryMax := d.RetryMax
	if retryMax <= 0 {
		retryMax = DefaultRetryMax
	}

	deadline := clock.Now().Add(budget)
	results := make([]Result, len(batches))

	var expired, aborted atomic.Bool
	g := new(errgroup.Group)
	g.SetLimit(limit)

	for i, b := range batches {
		i, b := i, b
		g.Go(func() error {
			if aborted.Load() {
				results[i] = Result{
					Batch:   b,
					Err:     fmt.Errorf("batch %d not dispatched: operation aborted after a fatal failure", i),
					Skipped: true,
				}
				return nil
			}
			if ctx.Err() != nil || expired.Load() || !clock.Now().Before(deadline) {
				expired.Store(true)
				results[i] = Result{
					Batch:   b,
					Err:     fmt.Errorf("batch %d not dispatched: %w", i, domain.ErrBudgetExceeded),
					Skipped: true,
				}
				return nil
			}

			units, err := d.runOne(ctx, b, fn, clock, deadline, retries, retryBase, retryMax, logger, i)
			results[i] = Result{Batch: b, Units: units, Err: err}
			if err == nil {
				logger.Debug("batch complete",
					log.Int("batch", i),
					log.String("slice", b.Slice.String()),
					log.Int64("units", units),
				)
				return nil
			}

			logger.Warn("batch failed",
				log.Int("batch", i),
				log.String("slice", b.Slice.String()),
				log.Err(err),
			)
			if !domain.Classify(err).Retryable {
				aborted.Store(true)
			}
			return nil
		})
	}
	g.Wait()
	return results
}

// runOne executes a single batch, retrying retryable failures with backoff
// until the attempt budget or the operation deadline runs out.
func (d *Dispatcher) runOne(ctx context.Context, b domain.CommandBatch, fn ExecFunc, clock ports.Clock, deadline time.Time, retries int, retryBase, retryMax time.Duration, logger log.Logger, idx int) (int64, error) {
	back := newRetryBackoff(retryBase, retryMax)

	var units int64
	var err error
	for attempt := 0; ; attempt++ {
		units, err = fn(ctx, b)
		if err == nil || attempt >= retries || !domain.Classify(err).Retryable {
			return units, err
		}
		if !clock.Now().Before(deadline) {
			return units, err
		}
		logger.Warn("batch retrying",
			log.Int("batch", idx),
			log.Int("attempt", attempt+1),
			log.Err(err),
		)
		if serr := clock.Sleep(ctx, back.Next()); serr != nil {
			return units, err
		}
	}
}

// Summary folds a batch run into the counts an OperationResult needs.
type Summary struct {
	// Dispatched is the number of batches actually sent.
	Dispatched int

	// Units sums the reported cell changes.
	Units int64

	// Failed counts every batch that did not succeed, skipped included.
	Failed int

	// Fatal is true when a dispatched batch failed with a non-retryable
	// error, which also stopped new dispatch.
	Fatal bool

	// Failures holds one classified record per failed dispatched batch,
	// plus a single aggregated record for all skipped batches.
	Failures []domain.ErrorRecord
}

// Summarize folds batch results into a Summary. Skipped batches collapse
// into one aggregated record: a budget expiry on a large region can skip
// thousands of batches, and one record per skip would drown the result.
func Summarize(results []Result) Summary {
	var s Summary
	var skipped int
	var firstSkip error
	for _, r := range results {
		if r.Skipped {
			s.Failed++
			skipped++
			if firstSkip == nil {
				firstSkip = r.Err
			}
			continue
		}
		s.Dispatched++
		s.Units += r.Units
		if r.Err != nil {
			s.Failed++
			rec := domain.Classify(r.Err)
			if !rec.Retryable {
				s.Fatal = true
			}
			s.Failures = append(s.Failures, rec)
		}
	}
	if skipped > 0 {
		s.Failures = append(s.Failures, domain.Record(domain.KindPartialBatchFailure,
			fmt.Sprintf("%d batches were not dispatched: %v", skipped, firstSkip)))
	}
	return s
}
