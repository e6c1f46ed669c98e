package gateway

// Request is a single GraphQL request after transport decoding, before any
// integrity check has run. Identity is whatever the deployment uses to
// attribute traffic (an authenticated user id, falling back to the client
// address) and is only consumed by the rate limiter.
type Request struct {
	OperationName string         `json:"operationName"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
	Identity      string         `json:"-"`
}
