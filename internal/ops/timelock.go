package ops

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/lepaul-HOU16/worldops/internal/domain"
	"github.com/lepaul-HOU16/worldops/internal/protocol"
	"github.com/lepaul-HOU16/worldops/pkg/log"
)

// TimeLockState tracks the lock's lifecycle.
type TimeLockState int

const (
	TimeUnset TimeLockState = iota
	TimeSetting
	TimeVerified
	TimePersistenceConfirmed
	TimeReverted
)

// String returns a human-readable representation of the state.
func (s TimeLockState) String() string {
	switch s {
	case TimeUnset:
		return "Unset"
	case TimeSetting:
		return "Setting"
	case TimeVerified:
		return "Verified"
	case TimePersistenceConfirmed:
		return "PersistenceConfirmed"
	case TimeReverted:
		return "Reverted"
	default:
		return "Unknown"
	}
}

// TimeLockRequest asks for world time to be fixed and automatic progression
// disabled.
type TimeLockRequest struct {
	// Ticks is the time value to lock to.
	Ticks int64

	// PersistWait, when positive, re-reads the lock after the wait to
	// prove it held across real elapsed time, not just across the initial
	// write.
	PersistWait time.Duration
}

// TimeLockResult is an OperationResult extended with the lock's final
// state. A Reverted state means the writes succeeded but a later read
// diverged, which is a different failure from a write that never landed.
type TimeLockResult struct {
	domain.OperationResult
	State TimeLockState
}

// LockTime fixes the world time and disables the daylight cycle, then reads
// both back to confirm the writes. Progression is disabled before the time
// write so the value cannot drift between the two commands.
func (r *Runner) LockTime(ctx context.Context, req TimeLockRequest) TimeLockResult {
	res := TimeLockResult{OperationResult: r.newResult(domain.OpLockTime), State: TimeUnset}
	start := r.clock().Now()
	defer func() { res.Elapsed = r.clock().Now().Sub(start) }()

	if req.Ticks < 0 {
		res.RecordError(domain.Classify(&domain.ConfigError{
			Reason: fmt.Sprintf("time value %d is negative", req.Ticks),
		}))
		return res
	}

	res.State = TimeSetting
	want := strconv.FormatInt(req.Ticks, 10)

	// Writes.
	if err := r.setGamerule(ctx, &res, protocol.DaylightCycleRule, "false"); err != nil {
		return res
	}
	if err := r.setTime(ctx, &res, req.Ticks); err != nil {
		return res
	}

	// Immediate read-back of both the value and the progression flag.
	ok, err := r.readBackLock(ctx, &res, req.Ticks, want)
	if err != nil {
		return res
	}
	if !ok {
		res.State = TimeReverted
		res.Status = domain.StatusFailed
		res.RecordError(domain.Record(domain.KindStateReverted,
			"time lock read-back diverged immediately after the write"))
		return res
	}
	res.State = TimeVerified
	res.Status = domain.StatusSucceeded

	if req.PersistWait <= 0 {
		return res
	}

	// Persistence pass: prove the lock survives elapsed time.
	if err := r.clock().Sleep(ctx, req.PersistWait); err != nil {
		res.RecordError(domain.Classify(err))
		res.Status = domain.StatusPartial
		return res
	}
	ok, err = r.readBackLock(ctx, &res, req.Ticks, want)
	if err != nil {
		res.Status = domain.StatusPartial
		return res
	}
	if !ok {
		res.State = TimeReverted
		res.Status = domain.StatusFailed
		res.RecordError(domain.Record(domain.KindStateReverted,
			fmt.Sprintf("time lock reverted within %s of the verified write", req.PersistWait)))
		return res
	}
	res.State = TimePersistenceConfirmed

	r.logger().Info("time lock confirmed",
		log.String("op", res.OperationID),
		log.Int64("ticks", req.Ticks),
		log.String("state", res.State.String()),
	)
	return res
}

func (r *Runner) setGamerule(ctx context.Context, res *TimeLockResult, rule, value string) error {
	resp, err := r.Conn.Exec(ctx, protocol.GameruleSet(rule, value))
	if err != nil {
		res.RecordError(domain.Classify(err))
		return err
	}
	got, err := (protocol.GameruleParser{}).Parse(resp)
	if err != nil {
		res.RecordError(domain.Classify(err))
		return err
	}
	res.BatchesIssued++
	if got != value {
		err := fmt.Errorf("%w: gamerule write acknowledged %q, wanted %q", domain.ErrProtocol, got, value)
		res.RecordError(domain.Classify(err))
		return err
	}
	return nil
}

func (r *Runner) setTime(ctx context.Context, res *TimeLockResult, ticks int64) error {
	resp, err := r.Conn.Exec(ctx, protocol.TimeSet(ticks))
	if err != nil {
		res.RecordError(domain.Classify(err))
		return err
	}
	got, err := (protocol.TimeParser{}).Parse(resp)
	if err != nil {
		res.RecordError(domain.Classify(err))
		return err
	}
	res.BatchesIssued++
	if got != ticks {
		err := fmt.Errorf("%w: time write acknowledged %d, wanted %d", domain.ErrProtocol, got, ticks)
		res.RecordError(domain.Classify(err))
		return err
	}
	return nil
}

// readBackLock queries the time value and the progression flag, appending
// both observations to the verification report. It returns whether the lock
// currently holds.
func (r *Runner) readBackLock(ctx context.Context, res *TimeLockResult, ticks int64, want string) (bool, error) {
	gotTime, err := r.queryTime(ctx)
	if err != nil {
		res.RecordError(domain.Classify(err))
		return false, err
	}
	gotRule, err := r.queryGamerule(ctx, protocol.DaylightCycleRule)
	if err != nil {
		res.RecordError(domain.Classify(err))
		return false, err
	}

	timeProbe := domain.Probe{
		Expected: want,
		Observed: strconv.FormatInt(gotTime, 10),
		Matched:  gotTime == ticks,
	}
	ruleProbe := domain.Probe{
		Expected: "false",
		Observed: gotRule,
		Matched:  gotRule == "false",
	}
	first := len(res.Verification.Probes) == 0
	res.Verification.Probes = append(res.Verification.Probes, timeProbe, ruleProbe)
	ok := timeProbe.Matched && ruleProbe.Matched
	if first {
		res.Verification.AllMatched = ok
	} else {
		res.Verification.AllMatched = res.Verification.AllMatched && ok
	}
	return ok, nil
}

func (r *Runner) queryTime(ctx context.Context) (int64, error) {
	resp, err := r.Conn.Exec(ctx, protocol.TimeQuery())
	if err != nil {
		return 0, err
	}
	return protocol.TimeParser{}.Parse(resp)
}

func (r *Runner) queryGamerule(ctx context.Context, rule string) (string, error) {
	resp, err := r.Conn.Exec(ctx, protocol.GameruleQuery(rule))
	if err != nil {
		return "", err
	}
	return protocol.GameruleParser{}.Parse(resp)
}
