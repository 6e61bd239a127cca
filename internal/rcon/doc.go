// Package rcon implements the authenticated command session with the world
// server.
//
// The wire format is the classic RCON framing: little-endian int32 length,
// request id, and packet type, followed by a NUL-terminated body. One
// command string goes out per request; one text response comes back.
//
// The [Client] owns exactly one session. It dials lazily, retries refused
// connections with bounded exponential backoff, enforces a per-command
// timeout on every exchange, and tears the socket down after a timeout so a
// half-received response is never attributed to the next command. A single
// Client is not safe for pipelined use; open one Client per concurrent
// worker instead.
package rcon
