package domain

import "time"

// OpType identifies a mutation operation.
type OpType int

const (
	OpClear OpType = iota
	OpFillSurface
	OpLockTime
)

// String returns a human-readable representation of the operation type.
func (t OpType) String() string {
	switch t {
	case OpClear:
		return "Clear"
	case OpFillSurface:
		return "FillSurface"
	case OpLockTime:
		return "LockTime"
	default:
		return "Unknown"
	}
}

// Status is the three-valued outcome of an operation. It is never collapsed
// to a boolean: a partially applied mutation is a distinct state callers
// must be able to render.
type Status int

const (
	StatusFailed Status = iota
	StatusPartial
	StatusSucceeded
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "Succeeded"
	case StatusPartial:
		return "Partial"
	case StatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Probe records one read-back verification sample.
type Probe struct {
	// Position is the sampled cell.
	Position Pos

	// Expected is the block identifier the mutation should have left there.
	Expected string

	// Observed is what the server reported, or a short failure note when
	// the probe itself errored.
	Observed string

	// Matched is true when observed state equals expected state.
	Matched bool
}

// VerificationReport aggregates the read-back probes issued after a
// mutation.
type VerificationReport struct {
	// Probes holds every sample in issue order.
	Probes []Probe

	// AllMatched is true when every probe matched. An empty report (nothing
	// to verify) counts as matched.
	AllMatched bool
}

// Matched returns the number of probes that matched.
func (v VerificationReport) Matched() int {
	n := 0
	for _, p := range v.Probes {
		if p.Matched {
			n++
		}
	}
	return n
}

// OperationResult is the structured outcome returned to every caller. It
// carries enough detail to render an accurate status message without
// re-parsing protocol text.
type OperationResult struct {
	// OperationID correlates the result with log lines.
	OperationID string

	// Op is the operation type the result belongs to.
	Op OpType

	// Status distinguishes full success, partial success, and failure.
	Status Status

	// UnitsAffected is the total number of cells the server reported
	// changed across all batches.
	UnitsAffected int64

	// BatchesIssued is the number of command batches dispatched.
	BatchesIssued int

	// Elapsed is the wall-clock duration of the whole operation.
	Elapsed time.Duration

	// Verification is the post-mutation read-back report.
	Verification VerificationReport

	// Errors holds every classified failure encountered, including
	// per-batch failures that did not abort the operation.
	Errors []ErrorRecord
}

// Succeeded reports whether the operation fully succeeded.
func (r OperationResult) Succeeded() bool { return r.Status == StatusSucceeded }

// RecordError appends a classified failure to the result.
func (r *OperationResult) RecordError(rec ErrorRecord) {
	r.Errors = append(r.Errors, rec)
}
