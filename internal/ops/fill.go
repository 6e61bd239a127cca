package ops

import (
	"context"
	"fmt"

	"github.com/lepaul-HOU16/worldops/internal/batch"
	"github.com/lepaul-HOU16/worldops/internal/domain"
	"github.com/lepaul-HOU16/worldops/internal/protocol"
	"github.com/lepaul-HOU16/worldops/pkg/log"
)

// DefaultGround is the material the surface band is filled with when the
// request does not name one.
const DefaultGround = "minecraft:grass_block"

// FillRequest asks for a terrain reset: void the region, then lay a thin
// ground band at the surface.
type FillRequest struct {
	// Region is the full volume to reset.
	Region domain.Region

	// BandYMin and BandYMax bound the surface band, inclusive. The band
	// must lie inside the region on the Y axis.
	BandYMin int
	BandYMax int

	// Ground is the surface material; empty means DefaultGround.
	Ground string
}

// FillSurface clears the whole region and then fills only the surface band
// with ground material. The two steps are strictly ordered; the fill step
// never targets a cell below the band, so everything under the new surface
// stays empty.
func (r *Runner) FillSurface(ctx context.Context, req FillRequest) domain.OperationResult {
	res := r.newResult(domain.OpFillSurface)
	start := r.clock().Now()
	defer func() { res.Elapsed = r.clock().Now().Sub(start) }()

	if err := req.Region.Validate(); err != nil {
		res.RecordError(domain.Classify(&domain.ConfigError{Reason: err.Error()}))
		return res
	}
	band := req.Region.WithYBand(req.BandYMin, req.BandYMax)
	if err := band.Validate(); err != nil {
		res.RecordError(domain.Classify(&domain.ConfigError{Reason: err.Error()}))
		return res
	}
	// The band must be a sub-range of the cleared region. A band outside it
	// is rejected outright, never silently clamped.
	if !req.Region.ContainsRegion(band) {
		res.RecordError(domain.Classify(&domain.ConfigError{
			Reason: fmt.Sprintf("surface band Y %d..%d outside cleared region %s",
				req.BandYMin, req.BandYMax, req.Region),
		}))
		return res
	}
	ground := req.Ground
	if ground == "" {
		ground = DefaultGround
	}

	r.logger().Info("terrain fill starting",
		log.String("op", res.OperationID),
		log.String("region", req.Region.String()),
		log.String("band", band.String()),
		log.String("ground", ground),
	)

	// Step 1: void the region.
	clearSlices := batch.Decompose(req.Region, r.ceiling())
	clearBatches, err := plainBatches(clearSlices, r.ceiling())
	if err != nil {
		res.RecordError(domain.Classify(err))
		return res
	}
	clearFailed, _ := r.dispatch(ctx, &res, clearBatches,
		func(b domain.CommandBatch) string { return protocol.Fill(b.Slice, domain.AirBlock) },
		func(resp string) (int64, error) { return protocol.FillParser{}.Parse(resp) },
	)

	// Step 2 writes over cells step 1 wrote, so an incomplete clear means
	// the fill must not run: a surface laid over un-voided ground would
	// hide the failure.
	if clearFailed > 0 {
		r.conclude(&res, len(clearBatches), clearFailed, false)
		return res
	}

	bandSlices := batch.Decompose(band, r.ceiling())
	bandBatches, err := plainBatches(bandSlices, r.ceiling())
	if err != nil {
		res.RecordError(domain.Classify(err))
		return res
	}
	fillFailed, fatal := r.dispatch(ctx, &res, bandBatches,
		func(b domain.CommandBatch) string { return protocol.Fill(b.Slice, ground) },
		func(resp string) (int64, error) { return protocol.FillParser{}.Parse(resp) },
	)

	verified := false
	if !fatal {
		verified = r.verifySurface(ctx, &res, req.Region, band, bandSlices, ground)
	}

	planned := len(clearBatches) + len(bandBatches)
	r.conclude(&res, planned, clearFailed+fillFailed, verified)
	r.logger().Info("terrain fill finished",
		log.String("op", res.OperationID),
		log.String("status", res.Status.String()),
		log.Int64("units", res.UnitsAffected),
		log.Int("batches", res.BatchesIssued),
	)
	return res
}

// verifySurface samples the band for ground and the voids above and below
// it for air, merging everything into one report. Each zone gets a share of
// the probe budget so the total stays within the per-operation cap.
func (r *Runner) verifySurface(ctx context.Context, res *domain.OperationResult, region, band domain.Region, bandSlices []domain.Region, ground string) bool {
	v := r.verifier()
	if v.Budget <= 0 {
		v.Budget = 48
	}
	v.Budget /= 3
	if v.Budget < 5 {
		v.Budget = 5
	}

	report, err := v.Verify(ctx, band, bandSlices, ground)
	res.Verification = report
	verified := r.recordVerifyErr(res, err)

	zones := make([]domain.Region, 0, 2)
	if band.YMin > region.YMin {
		zones = append(zones, region.WithYBand(region.YMin, band.YMin-1))
	}
	if band.YMax < region.YMax {
		zones = append(zones, region.WithYBand(band.YMax+1, region.YMax))
	}
	for _, zone := range zones {
		zr, err := v.Verify(ctx, zone, nil, domain.AirBlock)
		res.Verification.Probes = append(res.Verification.Probes, zr.Probes...)
		res.Verification.AllMatched = res.Verification.AllMatched && zr.AllMatched
		if !r.recordVerifyErr(res, err) {
			verified = false
		}
	}
	res.Verification.AllMatched = res.Verification.AllMatched && verified
	return verified && res.Verification.AllMatched
}

func plainBatches(slices []domain.Region, ceiling int64) ([]domain.CommandBatch, error) {
	out := make([]domain.CommandBatch, 0, len(slices))
	for _, s := range slices {
		cb, err := domain.NewCommandBatch(s, "", ceiling)
		if err != nil {
			return nil, err
		}
		out = append(out, cb)
	}
	return out, nil
}
