// Package domain contains the core types shared across the gateway:
// the error taxonomy, the stable client-facing error shape, and the
// validated input records produced by the contract builders.
//
// Types here are plain values with no behaviour beyond error formatting.
// Internal error types never cross the process boundary; every failure is
// converted to a NormalizedError before it reaches a client.
package domain
