package ops

import (
	"context"

	"github.com/lepaul-HOU16/worldops/internal/batch"
	"github.com/lepaul-HOU16/worldops/internal/domain"
	"github.com/lepaul-HOU16/worldops/internal/protocol"
	"github.com/lepaul-HOU16/worldops/pkg/log"
)

// ClearRequest asks for matched cells in a region to become air.
type ClearRequest struct {
	// Region is the target volume.
	Region domain.Region

	// Targets are the block classes to remove. An empty set with
	// AllExceptPreserved unset is a no-op request.
	Targets domain.ClassSet

	// AllExceptPreserved substitutes the configured clearable set for
	// Targets: everything player-placed goes, terrain stays.
	AllExceptPreserved bool
}

// Clear removes the targeted block classes from the region, leaving
// preserved terrain untouched. The bulk-replace primitive targets exactly
// one source identifier per call, so the batch count is the region's slice
// count multiplied by the number of target classes.
func (r *Runner) Clear(ctx context.Context, req ClearRequest) domain.OperationResult {
	res := r.newResult(domain.OpClear)
	start := r.clock().Now()
	defer func() { res.Elapsed = r.clock().Now().Sub(start) }()

	if err := req.Region.Validate(); err != nil {
		res.RecordError(domain.Classify(&domain.ConfigError{Reason: err.Error()}))
		return res
	}

	targets := req.Targets
	if req.AllExceptPreserved {
		targets = r.clearable()
	}
	if targets.Empty() {
		// Nothing to remove: success with zero units and zero network calls.
		res.Status = domain.StatusSucceeded
		res.Verification.AllMatched = true
		return res
	}
	if err := domain.CheckDisjoint(targets, r.preserved()); err != nil {
		res.RecordError(domain.Classify(err))
		return res
	}

	slices := batch.Decompose(req.Region, r.ceiling())
	batches := make([]domain.CommandBatch, 0, len(slices)*targets.Len())
	for _, s := range slices {
		for _, id := range targets.IDs {
			cb, err := domain.NewCommandBatch(s, id, r.ceiling())
			if err != nil {
				res.RecordError(domain.Classify(err))
				return res
			}
			batches = append(batches, cb)
		}
	}

	r.logger().Info("clear starting",
		log.String("op", res.OperationID),
		log.String("region", req.Region.String()),
		log.String("targets", targets.Name),
		log.Int("batches", len(batches)),
	)

	failed, fatal := r.dispatch(ctx, &res, batches,
		func(b domain.CommandBatch) string {
			return protocol.FillReplace(b.Slice, domain.AirBlock, b.Selector)
		},
		func(resp string) (int64, error) {
			return protocol.FillParser{}.Parse(resp)
		},
	)

	// A fatal failure means the session is unusable; probing it for
	// verification would only pile on more of the same error.
	verified := false
	if !fatal {
		report, verr := r.verifier().VerifyCleared(ctx, req.Region, slices, targets.IDs)
		res.Verification = report
		verified = r.recordVerifyErr(&res, verr)
	}

	r.conclude(&res, len(batches), failed, verified)
	r.logger().Info("clear finished",
		log.String("op", res.OperationID),
		log.String("status", res.Status.String()),
		log.Int64("units", res.UnitsAffected),
		log.Int("batches", res.BatchesIssued),
	)
	return res
}
