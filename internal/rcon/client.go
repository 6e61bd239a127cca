package rcon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/lepaul-HOU16/worldops/internal/domain"
	"github.com/lepaul-HOU16/worldops/internal/ports"
	"github.com/lepaul-HOU16/worldops/pkg/log"
)

// Default connection parameters. All are overridable through Config.
const (
	DefaultPort         = 25575
	DefaultDialTimeout  = 5 * time.Second
	DefaultExecTimeout  = 10 * time.Second
	DefaultDialAttempts = 3
	DefaultBackoffBase  = 250 * time.Millisecond
	DefaultBackoffMax   = 2 * time.Second
)

// State is the connection lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateAuthenticated
	StateFailed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateAuthenticated:
		return "Authenticated"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Config holds the parameters for one RCON session.
type Config struct {
	Host     string
	Port     int
	Password string

	// DialTimeout bounds a single TCP connect attempt.
	DialTimeout time.Duration

	// ExecTimeout bounds one command/response exchange. On expiry the
	// session is presumed desynchronized and is rebuilt.
	ExecTimeout time.Duration

	// DialAttempts bounds reconnection before ConnectionRefused surfaces.
	DialAttempts int

	// BackoffBase and BackoffMax shape the delay between dial attempts.
	BackoffBase time.Duration
	BackoffMax  time.Duration

	Clock  ports.Clock
	Logger log.Logger
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.ExecTimeout <= 0 {
		c.ExecTimeout = DefaultExecTimeout
	}
	if c.DialAttempts <= 0 {
		c.DialAttempts = DefaultDialAttempts
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = DefaultBackoffBase
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = DefaultBackoffMax
	}
	if c.Clock == nil {
		c.Clock = ports.RealClock{}
	}
	if c.Logger == nil {
		c.Logger = log.NewNoop()
	}
}

// Addr returns the host:port the config points at.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Client is one authenticated session with the world server. It implements
// ports.CommandConn.
//
// A Client is exclusively owned: the internal mutex serializes Exec so a
// misbehaving caller cannot interleave two exchanges, but throughput-minded
// callers should open one Client per worker rather than share one.
type Client struct {
	cfg Config

	mu     sync.Mutex
	conn   net.Conn
	state  State
	nextID int32
}

var _ ports.CommandConn = (*Client)(nil)

// Dial opens and authenticates a session. Refused connections are retried
// with bounded exponential backoff; an auth rejection is fatal and is never
// retried.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	cfg.applyDefaults()
	c := &Client{cfg: cfg, state: StateDisconnected}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connectLocked(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Exec sends one command and returns the server's response body. If the
// session is down it is rebuilt first. On timeout the socket is closed so
// the next command starts on a fresh, synchronized session.
func (c *Client) Exec(ctx context.Context, cmd string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		if err := c.connectLocked(ctx); err != nil {
			return "", err
		}
	}

	id := c.nextRequestID()
	deadline := c.cfg.Clock.Now().Add(c.cfg.ExecTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		c.teardownLocked()
		return "", fmt.Errorf("set deadline: %w", err)
	}

	if err := writePacket(c.conn, packet{id: id, typ: packetTypeCommand, body: cmd}); err != nil {
		c.teardownLocked()
		return "", c.execErr("write", err)
	}

	p, err := readPacket(c.conn)
	if err != nil {
		// Whatever is still in flight belongs to this command; the socket
		// cannot be reused.
		c.teardownLocked()
		return "", c.execErr("read", err)
	}
	if p.id != id {
		c.teardownLocked()
		return "", fmt.Errorf("%w: response id %d does not match command id %d", domain.ErrProtocol, p.id, id)
	}
	return p.body, nil
}

// Close tears the session down. Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
	return nil
}

// connectLocked dials and authenticates. Caller holds c.mu.
func (c *Client) connectLocked(ctx context.Context) error {
	c.state = StateConnecting
	back := newBackoff(c.cfg.BackoffBase, c.cfg.BackoffMax)
	dialer := &net.Dialer{Timeout: c.cfg.DialTimeout}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.DialAttempts; attempt++ {
		conn, err := dialer.DialContext(ctx, "tcp", c.cfg.Addr())
		if err == nil {
			if aerr := c.authenticate(conn); aerr != nil {
				conn.Close()
				c.state = StateFailed
				return aerr
			}
			c.conn = conn
			c.state = StateAuthenticated
			c.cfg.Logger.Info("session authenticated",
				log.String("addr", c.cfg.Addr()),
				log.Int("attempt", attempt),
			)
			return nil
		}

		lastErr = err
		c.cfg.Logger.Warn("dial failed",
			log.String("addr", c.cfg.Addr()),
			log.Int("attempt", attempt),
			log.Err(err),
		)
		if attempt < c.cfg.DialAttempts {
			if serr := c.cfg.Clock.Sleep(ctx, back.Next()); serr != nil {
				c.state = StateFailed
				return serr
			}
		}
	}

	c.state = StateFailed
	return fmt.Errorf("%w: %s after %d attempts: %v",
		domain.ErrConnectionRefused, c.cfg.Addr(), c.cfg.DialAttempts, lastErr)
}

// authenticate performs the RCON login exchange on a fresh socket. Some
// servers send an empty response packet before the auth response; up to two
// packets are read to find it.
func (c *Client) authenticate(conn net.Conn) error {
	if err := conn.SetDeadline(c.cfg.Clock.Now().Add(c.cfg.ExecTimeout)); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}
	defer conn.SetDeadline(time.Time{})

	id := c.nextRequestID()
	if err := writePacket(conn, packet{id: id, typ: packetTypeAuth, body: c.cfg.Password}); err != nil {
		return c.execErr("auth write", err)
	}

	for i := 0; i < 2; i++ {
		p, err := readPacket(conn)
		if err != nil {
			return c.execErr("auth read", err)
		}
		if p.typ != packetTypeAuthResponse {
			continue
		}
		if p.id == authRejectedID {
			return fmt.Errorf("%w: server rejected the password", domain.ErrAuthFailure)
		}
		if p.id != id {
			return fmt.Errorf("%w: auth response id %d does not match request id %d", domain.ErrProtocol, p.id, id)
		}
		return nil
	}
	return fmt.Errorf("%w: no auth response received", domain.ErrProtocol)
}

// teardownLocked closes the socket and marks the session down. Caller holds
// c.mu.
func (c *Client) teardownLocked() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.state = StateDisconnected
}

func (c *Client) nextRequestID() int32 {
	c.nextID++
	if c.nextID <= 0 {
		c.nextID = 1
	}
	return c.nextID
}

// execErr maps socket-level failures onto the domain taxonomy. Deadline
// expiries become ErrTimeout; everything else passes through for Classify.
func (c *Client) execErr(op string, err error) error {
	var netErr net.Error
	if errors.Is(err, os.ErrDeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s on %s: %v", domain.ErrTimeout, op, c.cfg.Addr(), err)
	}
	return fmt.Errorf("%s on %s: %w", op, c.cfg.Addr(), err)
}

// SessionDialer opens one Client per Dial call. It implements ports.Dialer
// for operations that pipeline batches across several sessions.
type SessionDialer struct {
	Config Config
}

// Dial opens a new authenticated session.
func (d SessionDialer) Dial(ctx context.Context) (ports.CommandConn, error) {
	return Dial(ctx, d.Config)
}
