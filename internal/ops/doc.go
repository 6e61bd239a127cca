// Package ops implements the three mutation operations: clearing a region,
// resetting terrain with a surface fill, and locking world time.
//
// Every operation follows the same shape: validate the request before
// anything touches the wire, decompose the region into batches under the
// size ceiling, dispatch with the failure-accumulation policy, read the
// outcome back through the verifier, and fold everything into one
// OperationResult. Callers never see raw protocol text.
package ops
