package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
)

// Sentinel errors for the transport and connection failure modes. These are
// returned by the public API and can be checked with errors.Is.
var (
	// ErrTimeout is returned when a command exceeds its per-command timeout.
	ErrTimeout = errors.New("worldops: command timed out")

	// ErrConnectionRefused is returned when the server cannot be reached
	// after bounded retries.
	ErrConnectionRefused = errors.New("worldops: connection refused")

	// ErrAuthFailure is returned when the server rejects the credential.
	// Never retried.
	ErrAuthFailure = errors.New("worldops: authentication failed")

	// ErrProtocol is returned when a response cannot be parsed or the
	// session framing is violated. Never retried.
	ErrProtocol = errors.New("worldops: protocol error")

	// ErrBudgetExceeded is returned when an operation's wall-clock budget
	// expires before all batches were dispatched.
	ErrBudgetExceeded = errors.New("worldops: operation budget exceeded")
)

// ConfigError reports a request that is invalid before any command is built,
// such as a surface band outside its cleared region or a target set naming a
// preserved block.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "worldops: configuration error: " + e.Reason
}

// ErrorKind is the classified failure taxonomy.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindTimeout
	KindConnectionRefused
	KindAuthFailure
	KindProtocolError
	KindPartialBatchFailure
	KindConfigurationError
	KindStateReverted
)

// String returns a human-readable representation of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "Timeout"
	case KindConnectionRefused:
		return "ConnectionRefused"
	case KindAuthFailure:
		return "AuthFailure"
	case KindProtocolError:
		return "ProtocolError"
	case KindPartialBatchFailure:
		return "PartialBatchFailure"
	case KindConfigurationError:
		return "ConfigurationError"
	case KindStateReverted:
		return "StateReverted"
	default:
		return "Unknown"
	}
}

// Retryable reports whether failures of this kind may be retried with
// bounded backoff. Auth and protocol failures are fatal: retrying an invalid
// credential or a desynchronized session cannot help.
func (k ErrorKind) Retryable() bool {
	return k == KindTimeout || k == KindConnectionRefused
}

// ErrorRecord is one classified failure inside an OperationResult.
type ErrorRecord struct {
	// Kind places the failure in the taxonomy.
	Kind ErrorKind

	// Message is the underlying error text.
	Message string

	// Retryable mirrors Kind.Retryable for callers rendering the record.
	Retryable bool

	// Hint is a short remediation suggestion.
	Hint string
}

func (r ErrorRecord) Error() string {
	return fmt.Sprintf("%s: %s", r.Kind, r.Message)
}

// Record builds an ErrorRecord of a known kind directly, for failures
// produced by policy (a skipped batch, an aggregated partial failure) rather
// than by a raw error.
func Record(kind ErrorKind, msg string) ErrorRecord {
	return ErrorRecord{
		Kind:      kind,
		Message:   msg,
		Retryable: kind.Retryable(),
		Hint:      hintFor(kind),
	}
}

// Classify maps a raw failure into the taxonomy. Wrapped sentinels, context
// deadline errors, and OS-level network errors all land on a typed kind; a
// failure nothing matches degrades to ProtocolError rather than Unknown
// because an unrecognized condition on a text protocol session cannot be
// trusted for reuse.
func Classify(err error) ErrorRecord {
	kind := classifyKind(err)
	return ErrorRecord{
		Kind:      kind,
		Message:   err.Error(),
		Retryable: kind.Retryable(),
		Hint:      hintFor(kind),
	}
}

func classifyKind(err error) ErrorKind {
	var cfgErr *ConfigError
	switch {
	case errors.As(err, &cfgErr):
		return KindConfigurationError
	case errors.Is(err, ErrAuthFailure):
		return KindAuthFailure
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrConnectionRefused), errors.Is(err, syscall.ECONNREFUSED):
		return KindConnectionRefused
	case errors.Is(err, ErrProtocol):
		return KindProtocolError
	case errors.Is(err, ErrBudgetExceeded):
		return KindPartialBatchFailure
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return KindConnectionRefused
	}
	return KindProtocolError
}

func hintFor(kind ErrorKind) string {
	switch kind {
	case KindTimeout:
		return "server may be overloaded; the connection was rebuilt, retry the operation"
	case KindConnectionRefused:
		return "check that the server is running and the host/port are reachable"
	case KindAuthFailure:
		return "check the configured password; the server rejected the credential"
	case KindProtocolError:
		return "server response did not match the expected grammar; check server version"
	case KindPartialBatchFailure:
		return "some batches failed; re-run the operation to converge the region"
	case KindConfigurationError:
		return "fix the request parameters; nothing was sent to the server"
	case KindStateReverted:
		return "a verified write no longer holds; another actor or a restart may have changed it"
	default:
		return ""
	}
}
