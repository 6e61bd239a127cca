package domain

import "fmt"

// DefaultCeiling is the protocol's historical per-command volume limit for
// fill-type commands. Deployments can override it through configuration; the
// batcher enforces whatever ceiling it is given.
const DefaultCeiling int64 = 32768

// CommandBatch is one sub-region-scoped command slice. Its invariant is that
// the slice volume never exceeds the ceiling it was built against, so the
// command it produces can never be rejected for size by the server.
type CommandBatch struct {
	// Slice is the sub-region this batch mutates.
	Slice Region

	// Selector is the single source block identifier targeted by the
	// batch's replace command, or empty for an unconditional fill.
	Selector string
}

// NewCommandBatch validates the ceiling invariant before the batch can
// exist. A violation here is a programming error in the decomposer, surfaced
// pre-dispatch rather than as a server-side rejection.
func NewCommandBatch(slice Region, selector string, ceiling int64) (CommandBatch, error) {
	if err := slice.Validate(); err != nil {
		return CommandBatch{}, err
	}
	if v := slice.Volume(); v > ceiling {
		return CommandBatch{}, fmt.Errorf("batch volume %d exceeds ceiling %d", v, ceiling)
	}
	return CommandBatch{Slice: slice, Selector: selector}, nil
}
