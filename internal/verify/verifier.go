// Package verify issues read-back probes after a mutation and compares
// observed world state against the expected outcome.
//
// Verification is sampled, never exhaustive: probing every cell of a
// 64M-unit region would cost more than the mutation itself. The minimum
// sample is the region's corners plus its centroid; one probe per dispatched
// batch slice is added for coverage, capped at a fixed budget per operation.
package verify

import (
	"context"
	"fmt"

	"github.com/lepaul-HOU16/worldops/internal/domain"
	"github.com/lepaul-HOU16/worldops/internal/ports"
	"github.com/lepaul-HOU16/worldops/internal/protocol"
	"github.com/lepaul-HOU16/worldops/pkg/log"
)

// DefaultBudget is the maximum number of probes per operation.
const DefaultBudget = 50

// Verifier samples world state over one command session.
type Verifier struct {
	Conn ports.CommandConn

	// Budget caps probes per operation; 0 means DefaultBudget.
	Budget int

	Logger log.Logger
}

// Plan returns the probe positions for a mutated region: the region's
// corners and centroid first, then the centroid of each batch slice,
// deduplicated and capped at budget.
func Plan(r domain.Region, slices []domain.Region, budget int) []domain.Pos {
	if budget <= 0 {
		budget = DefaultBudget
	}

	positions := append(r.Corners(), r.Centroid())
	for _, s := range slices {
		positions = append(positions, s.Centroid())
	}

	seen := make(map[domain.Pos]struct{}, len(positions))
	out := make([]domain.Pos, 0, len(positions))
	for _, p := range positions {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
		if len(out) == budget {
			break
		}
	}
	return out
}

// Verify probes the region and reports whether every sampled cell holds the
// expected block. Probing stops at the first transport failure; the partial
// report is returned alongside the error so the caller can still render
// what was confirmed.
func (v *Verifier) Verify(ctx context.Context, r domain.Region, slices []domain.Region, expected string) (domain.VerificationReport, error) {
	return v.run(ctx, Plan(r, slices, v.Budget), func(int) (string, bool) {
		return expected, true
	})
}

// VerifyCleared asserts the targeted classes are absent from the sampled
// cells, cycling through the class identifiers across probe positions so
// every class gets coverage within the probe budget.
func (v *Verifier) VerifyCleared(ctx context.Context, r domain.Region, slices []domain.Region, classes []string) (domain.VerificationReport, error) {
	if len(classes) == 0 {
		return domain.VerificationReport{AllMatched: true}, nil
	}
	return v.run(ctx, Plan(r, slices, v.Budget), func(i int) (string, bool) {
		return classes[i%len(classes)], false
	})
}

// run executes the probe loop. expectFor returns, for the i-th position, the
// block to test and whether it is expected present (true) or absent (false).
func (v *Verifier) run(ctx context.Context, positions []domain.Pos, expectFor func(i int) (string, bool)) (domain.VerificationReport, error) {
	logger := v.Logger
	if logger == nil {
		logger = log.NewNoop()
	}

	report := domain.VerificationReport{AllMatched: true}
	parser := protocol.ProbeParser{}

	for i, pos := range positions {
		block, wantPresent := expectFor(i)

		resp, err := v.Conn.Exec(ctx, protocol.ProbeBlock(pos, block))
		if err != nil {
			report.AllMatched = false
			return report, fmt.Errorf("probe %s: %w", pos, err)
		}
		present, err := parser.Parse(resp)
		if err != nil {
			report.AllMatched = false
			return report, fmt.Errorf("probe %s: %w", pos, err)
		}

		probe := domain.Probe{Position: pos, Matched: present == wantPresent}
		if wantPresent {
			probe.Expected = block
		} else {
			probe.Expected = "no " + block
		}
		switch {
		case probe.Matched:
			probe.Observed = probe.Expected
		case present:
			probe.Observed = block
		default:
			probe.Observed = "(unexpected block)"
		}
		if !probe.Matched {
			report.AllMatched = false
			logger.Warn("verification mismatch",
				log.String("pos", pos.String()),
				log.String("expected", probe.Expected),
			)
		}
		report.Probes = append(report.Probes, probe)
	}

	logger.Debug("verification complete",
		log.Int("probes", len(report.Probes)),
		log.Int("matched", report.Matched()),
		log.Bool("all_matched", report.AllMatched),
	)
	return report, nil
}
