package rcon

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/lepaul-HOU16/worldops/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeClock keeps deadlines on the real clock but records sleeps instead of
// performing them, so backoff sequences are observable without delay.
type fakeClock struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return time.Now() }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	c.mu.Unlock()
	return ctx.Err()
}

func (c *fakeClock) sleepCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sleeps)
}

// fakeServer speaks just enough RCON to exercise the client.
type fakeServer struct {
	t        *testing.T
	ln       net.Listener
	password string
	handler  func(cmd string) string

	hangFirstConn bool
	badRespID     bool

	mu    sync.Mutex
	conns int

	done chan struct{}
	wg   sync.WaitGroup
}

func startFakeServer(t *testing.T, password string, handler func(string) string) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	if handler == nil {
		handler = func(string) string { return "ok" }
	}
	s := &fakeServer{t: t, ln: ln, password: password, handler: handler, done: make(chan struct{})}
	s.wg.Add(1)
	go s.serve()
	t.Cleanup(s.stop)
	return s
}

func (s *fakeServer) addr() string { return s.ln.Addr().String() }

func (s *fakeServer) port() int { return s.ln.Addr().(*net.TCPAddr).Port }

func (s *fakeServer) connCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns
}

func (s *fakeServer) stop() {
	close(s.done)
	s.ln.Close()
	s.wg.Wait()
}

func (s *fakeServer) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns++
		n := s.conns
		s.mu.Unlock()
		s.wg.Add(1)
		go s.handle(conn, n)
	}
}

func (s *fakeServer) handle(conn net.Conn, connNum int) {
	defer s.wg.Done()
	defer conn.Close()
	for {
		p, err := readPacket(conn)
		if err != nil {
			return
		}
		switch p.typ {
		case packetTypeAuth:
			if p.body != s.password {
				writePacket(conn, packet{id: authRejectedID, typ: packetTypeAuthResponse})
				return
			}
			writePacket(conn, packet{id: p.id, typ: packetTypeAuthResponse})
		case packetTypeCommand:
			if s.hangFirstConn && connNum == 1 {
				<-s.done
				return
			}
			id := p.id
			if s.badRespID {
				id++
			}
			writePacket(conn, packet{id: id, typ: packetTypeResponse, body: s.handler(p.body)})
		}
	}
}

func testConfig(s *fakeServer, password string) Config {
	return Config{
		Host:        "127.0.0.1",
		Port:        s.port(),
		Password:    password,
		ExecTimeout: 2 * time.Second,
	}
}

func TestDialAndExec(t *testing.T) {
	srv := startFakeServer(t, "hunter2", func(cmd string) string {
		if cmd == "time query daytime" {
			return "The time is 6000"
		}
		return "Successfully filled 1000 block(s)"
	})

	c, err := Dial(context.Background(), testConfig(srv, "hunter2"))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	if c.State() != StateAuthenticated {
		t.Errorf("State = %v, want Authenticated", c.State())
	}

	resp, err := c.Exec(context.Background(), "time query daytime")
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if resp != "The time is 6000" {
		t.Errorf("Exec response = %q", resp)
	}
}

func TestDial_AuthFailure_NoRetry(t *testing.T) {
	srv := startFakeServer(t, "hunter2", nil)
	clk := &fakeClock{}
	cfg := testConfig(srv, "wrong")
	cfg.Clock = clk

	_, err := Dial(context.Background(), cfg)
	if !errors.Is(err, domain.ErrAuthFailure) {
		t.Fatalf("Dial error = %v, want ErrAuthFailure", err)
	}
	// Fatal: exactly one connection, no backoff sleeps.
	if got := srv.connCount(); got != 1 {
		t.Errorf("connection attempts = %d, want 1", got)
	}
	if clk.sleepCount() != 0 {
		t.Errorf("backoff sleeps = %d, want 0", clk.sleepCount())
	}

	rec := domain.Classify(err)
	if rec.Kind != domain.KindAuthFailure || rec.Retryable {
		t.Errorf("Classify = %+v, want non-retryable AuthFailure", rec)
	}
}

func TestDial_ConnectionRefused_BoundedBackoff(t *testing.T) {
	// Grab a port that nothing listens on.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().(*net.TCPAddr)
	ln.Close()

	clk := &fakeClock{}
	cfg := Config{
		Host:     "127.0.0.1",
		Port:     addr.Port,
		Password: "x",
		Clock:    clk,
	}

	_, err = Dial(context.Background(), cfg)
	if !errors.Is(err, domain.ErrConnectionRefused) {
		t.Fatalf("Dial error = %v, want ErrConnectionRefused", err)
	}
	// 3 attempts means 2 backoff sleeps between them.
	if clk.sleepCount() != DefaultDialAttempts-1 {
		t.Errorf("backoff sleeps = %d, want %d", clk.sleepCount(), DefaultDialAttempts-1)
	}
	for i, d := range clk.sleeps {
		if d <= 0 {
			t.Errorf("sleep %d = %v, want positive", i, d)
		}
	}
}

func TestExec_TimeoutRebuildsSession(t *testing.T) {
	srv := startFakeServer(t, "hunter2", nil)
	srv.hangFirstConn = true

	cfg := testConfig(srv, "hunter2")
	cfg.ExecTimeout = 100 * time.Millisecond
	cfg.Clock = &fakeClock{}

	c, err := Dial(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	_, err = c.Exec(context.Background(), "fill 0 0 0 1 1 1 minecraft:air")
	if !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("Exec error = %v, want ErrTimeout", err)
	}
	if c.State() != StateDisconnected {
		t.Errorf("state after timeout = %v, want Disconnected", c.State())
	}

	// The next command must run on a fresh session, never on the socket
	// with a half-received response still in flight.
	resp, err := c.Exec(context.Background(), "fill 0 0 0 1 1 1 minecraft:air")
	if err != nil {
		t.Fatalf("Exec after rebuild: %v", err)
	}
	if resp != "ok" {
		t.Errorf("Exec response = %q, want ok", resp)
	}
	if got := srv.connCount(); got != 2 {
		t.Errorf("connections = %d, want 2 (rebuild after timeout)", got)
	}
}

func TestExec_MismatchedResponseID(t *testing.T) {
	srv := startFakeServer(t, "hunter2", nil)
	srv.badRespID = true

	c, err := Dial(context.Background(), testConfig(srv, "hunter2"))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	_, err = c.Exec(context.Background(), "time query daytime")
	if !errors.Is(err, domain.ErrProtocol) {
		t.Errorf("Exec error = %v, want ErrProtocol", err)
	}
	if c.State() != StateDisconnected {
		t.Errorf("state after id mismatch = %v, want Disconnected", c.State())
	}
}

func TestClose_Idempotent(t *testing.T) {
	srv := startFakeServer(t, "hunter2", nil)
	c, err := Dial(context.Background(), testConfig(srv, "hunter2"))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("first Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if c.State() != StateDisconnected {
		t.Errorf("state after Close = %v, want Disconnected", c.State())
	}
}
