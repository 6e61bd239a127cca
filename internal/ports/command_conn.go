package ports

import "context"

// CommandConn executes commands on one authenticated session with the world
// server.
//
// Implementations are NOT safe for concurrent use by multiple in-flight
// operations: a session carries exactly one command/response exchange at a
// time. Callers either serialize access to one connection or open one
// connection per concurrent worker.
type CommandConn interface {
	// Exec sends one command line and returns the server's one-line
	// response. The implementation enforces a per-command timeout; on
	// timeout the session is presumed desynchronized, the error wraps
	// domain.ErrTimeout, and the connection is rebuilt before the next
	// command.
	Exec(ctx context.Context, cmd string) (string, error)

	// Close tears the session down. Safe to call more than once.
	Close() error
}

// Dialer opens authenticated sessions. The RCON client implements it for
// production; operation tests substitute fakes to exercise reconnect paths.
type Dialer interface {
	// Dial connects and authenticates, retrying refused connections with
	// bounded backoff. Auth rejections are fatal and never retried.
	Dial(ctx context.Context) (CommandConn, error)
}
