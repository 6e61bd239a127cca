// Package log provides the logging abstraction used by worldops components.
//
// The package defines a small Logger interface that any logging library can
// implement. A zerolog adapter is provided for production use and a no-op
// logger for tests.
//
// # Usage
//
// Use the provided zerolog console adapter:
//
//	logger := log.NewConsole()
//
// Or wrap an existing zerolog.Logger:
//
//	logger := log.NewZerolog(zerolog.New(os.Stderr))
//
// Tests that do not assert on log output should use log.NewNoop().
package log
