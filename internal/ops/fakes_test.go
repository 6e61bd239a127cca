package ops

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lepaul-HOU16/worldops/internal/domain"
	"github.com/lepaul-HOU16/worldops/internal/ports"
	"github.com/lepaul-HOU16/worldops/internal/protocol"
)

// fakeWorld is an in-memory world that answers the command grammar the
// operations emit: fill, fill-replace, conditional probes, gamerule and
// time. It lets tests assert on resulting world state instead of scripting
// every response.
type fakeWorld struct {
	mu     sync.Mutex
	def    string
	blocks map[domain.Pos]string
	rules  map[string]string
	time   int64
	cmds   []string
}

func newFakeWorld(defaultBlock string) *fakeWorld {
	return &fakeWorld{
		def:    defaultBlock,
		blocks: make(map[domain.Pos]string),
		rules:  map[string]string{protocol.DaylightCycleRule: "true"},
	}
}

func (w *fakeWorld) get(p domain.Pos) string {
	if b, ok := w.blocks[p]; ok {
		return b
	}
	return w.def
}

// seed paints a region during test setup without going through a command.
func (w *fakeWorld) seed(r domain.Region, block string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fill(r, block)
}

func (w *fakeWorld) fill(r domain.Region, block string) int64 {
	var n int64
	for x := r.XMin; x <= r.XMax; x++ {
		for y := r.YMin; y <= r.YMax; y++ {
			for z := r.ZMin; z <= r.ZMax; z++ {
				w.blocks[domain.Pos{X: x, Y: y, Z: z}] = block
				n++
			}
		}
	}
	return n
}

func (w *fakeWorld) fillReplace(r domain.Region, block, old string) int64 {
	var n int64
	for x := r.XMin; x <= r.XMax; x++ {
		for y := r.YMin; y <= r.YMax; y++ {
			for z := r.ZMin; z <= r.ZMax; z++ {
				p := domain.Pos{X: x, Y: y, Z: z}
				if w.get(p) != old {
					continue
				}
				w.blocks[p] = block
				n++
			}
		}
	}
	return n
}

func (w *fakeWorld) conn() *worldConn { return &worldConn{w: w} }

func (w *fakeWorld) commands() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.cmds))
	copy(out, w.cmds)
	return out
}

func (w *fakeWorld) exec(cmd string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cmds = append(w.cmds, cmd)

	f := strings.Fields(cmd)
	switch {
	case f[0] == "fill" && len(f) == 10 && f[8] == "replace":
		r := regionFrom(f[1:7])
		n := w.fillReplace(r, f[7], f[9])
		return fillResponse(n), nil
	case f[0] == "fill" && len(f) == 8:
		r := regionFrom(f[1:7])
		return fillResponse(w.fill(r, f[7])), nil
	case f[0] == "execute" && len(f) == 7:
		p := domain.Pos{X: atoi(f[3]), Y: atoi(f[4]), Z: atoi(f[5])}
		if w.get(p) == f[6] {
			return "Test passed", nil
		}
		return "Test failed", nil
	case f[0] == "gamerule" && len(f) == 3:
		w.rules[f[1]] = f[2]
		return fmt.Sprintf("Gamerule %s is now set to: %s", f[1], f[2]), nil
	case f[0] == "gamerule" && len(f) == 2:
		return fmt.Sprintf("Gamerule %s is currently set to: %s", f[1], w.rules[f[1]]), nil
	case f[0] == "time" && f[1] == "set":
		w.time = int64(atoi(f[2]))
		return fmt.Sprintf("Set the time to %d", w.time), nil
	case f[0] == "time" && f[1] == "query":
		return fmt.Sprintf("The time is %d", w.time), nil
	}
	return "", fmt.Errorf("fakeWorld: unrecognized command %q", cmd)
}

func fillResponse(n int64) string {
	if n == 0 {
		return "No blocks were filled"
	}
	return fmt.Sprintf("Successfully filled %d block(s)", n)
}

func regionFrom(f []string) domain.Region {
	return domain.NewRegion(
		domain.Pos{X: atoi(f[0]), Y: atoi(f[1]), Z: atoi(f[2])},
		domain.Pos{X: atoi(f[3]), Y: atoi(f[4]), Z: atoi(f[5])},
	)
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		panic("fakeWorld: bad coordinate " + s)
	}
	return n
}

// worldConn is one session onto a fakeWorld.
type worldConn struct {
	w      *fakeWorld
	closed bool
}

func (c *worldConn) Exec(_ context.Context, cmd string) (string, error) {
	return c.w.exec(cmd)
}

func (c *worldConn) Close() error {
	c.closed = true
	return nil
}

// fakeDialer hands out extra sessions onto the same world.
type fakeDialer struct {
	w     *fakeWorld
	mu    sync.Mutex
	conns []*worldConn
	fail  bool
}

func (d *fakeDialer) Dial(context.Context) (ports.CommandConn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail {
		return nil, fmt.Errorf("dial: %w", domain.ErrConnectionRefused)
	}
	c := d.w.conn()
	d.conns = append(d.conns, c)
	return c, nil
}

// flakyConn fails the first remaining exchanges with a fixed error, then
// delegates to the wrapped session.
type flakyConn struct {
	inner     ports.CommandConn
	err       error
	remaining int
	calls     int
}

func (c *flakyConn) Exec(ctx context.Context, cmd string) (string, error) {
	c.calls++
	if c.remaining > 0 {
		c.remaining--
		return "", c.err
	}
	return c.inner.Exec(ctx, cmd)
}

func (c *flakyConn) Close() error { return c.inner.Close() }

// errConn fails every exchange with a fixed error.
type errConn struct {
	err   error
	calls int
}

func (c *errConn) Exec(context.Context, string) (string, error) {
	c.calls++
	return "", c.err
}

func (c *errConn) Close() error { return nil }

// statConn acknowledges fill commands with the slice's volume and reports
// every probe as failed, which reads as absence. It carries no world state,
// so it scales to region sizes a fakeWorld cannot hold.
type statConn struct {
	mu    sync.Mutex
	execs int
}

func (c *statConn) Exec(_ context.Context, cmd string) (string, error) {
	c.mu.Lock()
	c.execs++
	c.mu.Unlock()

	f := strings.Fields(cmd)
	switch f[0] {
	case "fill":
		return fillResponse(regionFrom(f[1:7]).Volume()), nil
	case "execute":
		return "Test failed", nil
	}
	return "", fmt.Errorf("statConn: unrecognized command %q", cmd)
}

func (c *statConn) Close() error { return nil }

// fakeClock keeps real wall time for Now but records sleeps instead of
// waiting. onSleep, when set, runs inside each Sleep so tests can model
// state changing while the operation waits.
type fakeClock struct {
	mu      sync.Mutex
	slept   []time.Duration
	onSleep func()
}

func (c *fakeClock) Now() time.Time { return time.Now() }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.slept = append(c.slept, d)
	hook := c.onSleep
	c.mu.Unlock()
	if hook != nil {
		hook()
	}
	return ctx.Err()
}
