package worldops

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lepaul-HOU16/worldops/internal/domain"
	"github.com/lepaul-HOU16/worldops/internal/ops"
)

func TestClient_ApplyTunables(t *testing.T) {
	c := &Client{runner: &ops.Runner{
		Ceiling:      32768,
		Budget:       30 * time.Second,
		VerifyBudget: 48,
	}}
	before := c.current()

	cfg := DefaultConfig()
	cfg.Ceiling = 16384
	cfg.Budget = time.Minute
	cfg.VerifyBudget = 12
	cfg.Clearable = []string{"minecraft:glass"}
	cfg.Preserved = []string{"minecraft:stone"}
	c.ApplyTunables(cfg)

	after := c.current()
	assert.Equal(t, int64(16384), after.Ceiling)
	assert.Equal(t, time.Minute, after.Budget)
	assert.Equal(t, 12, after.VerifyBudget)
	assert.Equal(t, []string{"minecraft:glass"}, after.Clearable.IDs)
	assert.Equal(t, []string{"minecraft:stone"}, after.Preserved.IDs)

	// The previous runner is untouched: an operation holding it keeps the
	// knobs it started with.
	assert.Equal(t, int64(32768), before.Ceiling)
	assert.Equal(t, 30*time.Second, before.Budget)
}

func TestClient_ApplyTunablesLeavesConnectionAlone(t *testing.T) {
	conn := &stubConn{}
	c := &Client{runner: &ops.Runner{Conn: conn, Ceiling: 32768}}

	cfg := DefaultConfig()
	cfg.Ceiling = 1000
	c.ApplyTunables(cfg)

	assert.Same(t, conn, c.current().Conn, "the session must survive a reload")
}

type stubConn struct{}

func (*stubConn) Exec(context.Context, string) (string, error) {
	return "", domain.ErrProtocol
}

func (*stubConn) Close() error { return nil }
