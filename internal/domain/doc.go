// Package domain contains the core domain entities and value objects for
// worldops.
//
// This package represents the innermost layer of the architecture. It has no
// dependencies on infrastructure concerns (sockets, logging, configuration)
// and contains only the vocabulary of bulk world mutation.
//
// # Entities
//
//   - [Region]: An axis-aligned 3D box of discrete unit cells
//   - [ClassSet]: A named set of block identifiers targeted or preserved
//   - [CommandBatch]: A sub-region-scoped command respecting the size ceiling
//   - [OperationResult]: The structured outcome returned to every caller
//   - [ErrorRecord]: A classified failure with retryability and a hint
//
// # Design Principles
//
// Domain entities are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Focused on invariants: min ≤ max per axis, batch volume ≤ ceiling,
//     preserved classes never targeted
//   - Testable without mocks or external systems
package domain
