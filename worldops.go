// Package worldops applies bulk, verified mutations to a remote world
// simulation server over its remote console protocol.
//
// Example usage:
//
//	cfg := worldops.DefaultConfig()
//	cfg.Host = "mc.example.net"
//	cfg.Password = os.Getenv("WORLDOPS_PASSWORD")
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//	client, err := worldops.Connect(context.Background(), cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	res := client.Clear(context.Background(), worldops.ClearRequest{
//	    Region:             worldops.NewRegion(worldops.Pos{X: 0, Y: 0, Z: 0}, worldops.Pos{X: 99, Y: 63, Z: 99}),
//	    AllExceptPreserved: true,
//	})
//	fmt.Println(res.Status, res.UnitsAffected)
package worldops

import (
	"context"
	"sync"

	"github.com/lepaul-HOU16/worldops/internal/cliconfig"
	"github.com/lepaul-HOU16/worldops/internal/domain"
	"github.com/lepaul-HOU16/worldops/internal/ops"
	"github.com/lepaul-HOU16/worldops/internal/rcon"
	"github.com/lepaul-HOU16/worldops/pkg/log"
)

// Config holds the connection and policy configuration.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = cliconfig.Config

// Pos is a single addressable cell in the world.
type Pos = domain.Pos

// Region is an inclusive axis-aligned box of cells.
type Region = domain.Region

// Status is the three-valued outcome of an operation.
type Status = domain.Status

// Operation outcomes. Partial progress is never collapsed into success or
// failure.
const (
	StatusFailed    = domain.StatusFailed
	StatusPartial   = domain.StatusPartial
	StatusSucceeded = domain.StatusSucceeded
)

// OperationResult is the full outcome of one operation: status, units
// affected, batch count, verification report, and classified errors.
type OperationResult = domain.OperationResult

// ClearRequest asks for matched block classes in a region to become air.
type ClearRequest = ops.ClearRequest

// FillRequest asks for a terrain reset with a surface band.
type FillRequest = ops.FillRequest

// TimeLockRequest asks for world time to be fixed and progression disabled.
type TimeLockRequest = ops.TimeLockRequest

// TimeLockResult is an OperationResult extended with the lock's state.
type TimeLockResult = ops.TimeLockResult

// NewRegion builds a Region from two opposite corners.
func NewRegion(a, b Pos) Region { return domain.NewRegion(a, b) }

// DefaultConfig returns a Config with sensible default values.
// At minimum, set Host and Password before calling Connect.
func DefaultConfig() Config { return cliconfig.DefaultConfig() }

// Client is a connected operations client. Operations on one Client must be
// serialized by the caller; ApplyTunables may be called from any goroutine.
type Client struct {
	mu     sync.Mutex
	runner *ops.Runner
	conn   *rcon.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the structured logger used by the client and every
// operation it runs.
func WithLogger(l log.Logger) Option {
	return func(c *Client) { c.runner.Logger = l }
}

// Connect dials and authenticates a session, returning a Client ready to
// run operations. The configuration should be validated first.
func Connect(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	rconCfg := rcon.Config{
		Host:         cfg.Host,
		Port:         cfg.Port,
		Password:     cfg.Password,
		DialTimeout:  cfg.DialTimeout,
		ExecTimeout:  cfg.ExecTimeout,
		DialAttempts: cfg.DialAttempts,
	}

	conn, err := rcon.Dial(ctx, rconCfg)
	if err != nil {
		return nil, err
	}

	c := &Client{
		conn: conn,
		runner: &ops.Runner{
			Conn:         conn,
			Ceiling:      cfg.Ceiling,
			Concurrency:  cfg.Concurrency,
			Budget:       cfg.Budget,
			VerifyBudget: cfg.VerifyBudget,
			Clearable:    cfg.ClearableSet(),
			Preserved:    cfg.PreservedSet(),
		},
	}
	if cfg.Concurrency > 1 {
		c.runner.Dialer = rcon.SessionDialer{Config: rconCfg}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ApplyTunables swaps in the operation policy knobs from cfg: ceiling,
// budgets, and the clearable and preserved class sets. Connection settings
// are ignored; the session is not re-dialed. An operation already running
// keeps the knobs it started with, the next one picks up the new values.
func (c *Client) ApplyTunables(cfg Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := *c.runner
	next.Ceiling = cfg.Ceiling
	next.Budget = cfg.Budget
	next.VerifyBudget = cfg.VerifyBudget
	next.Clearable = cfg.ClearableSet()
	next.Preserved = cfg.PreservedSet()
	c.runner = &next
}

func (c *Client) current() *ops.Runner {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runner
}

// Clear removes the targeted block classes from the region.
func (c *Client) Clear(ctx context.Context, req ClearRequest) OperationResult {
	return c.current().Clear(ctx, req)
}

// FillSurface resets the region's terrain: void everything, then lay a
// ground band at the surface.
func (c *Client) FillSurface(ctx context.Context, req FillRequest) OperationResult {
	return c.current().FillSurface(ctx, req)
}

// LockTime fixes the world time and disables automatic progression,
// verifying that the lock holds.
func (c *Client) LockTime(ctx context.Context, req TimeLockRequest) TimeLockResult {
	return c.current().LockTime(ctx, req)
}

// Close releases the underlying session. Safe to call more than once.
func (c *Client) Close() error {
	return c.conn.Close()
}
