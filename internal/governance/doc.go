// Package governance implements the traffic-shaping half of the gateway:
// per-identity rate admission and bounded retry with exponential backoff.
//
// Rate state is behind the Admitter interface so single-process deployments
// use the in-memory fixed window while multi-instance deployments inject the
// Redis-backed implementation and share one counter per identity.
package governance
