// Package ports defines the interfaces (ports) that connect the operation
// layer to infrastructure adapters.
//
// Ports are the boundaries between the mutation core and the outside world.
// They define what the operations need from external systems without
// specifying how those needs are fulfilled.
//
// # Port Interfaces
//
//   - [CommandConn]: Executes one protocol command and returns its response
//   - [Dialer]: Opens an authenticated session to the world server
//   - [Clock]: Time and sleep abstraction so backoff and persistence waits
//     are testable without wall-clock delays
//
// The operation layer (internal/ops, internal/batch, internal/verify)
// depends only on these interfaces. The RCON adapter (internal/rcon)
// implements them against a real socket; tests implement them with fakes.
package ports
