package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/pulsefit/gateway/internal/governance"
	"github.com/pulsefit/gateway/pkg/domain"
	"github.com/pulsefit/gateway/pkg/normalize"
	"github.com/pulsefit/gateway/pkg/telemetry"
)

const maxBodyBytes = 1 << 20

// identityHeader carries the caller identity set by the edge. Requests
// without it are attributed to their client address.
const identityHeader = "X-Identity"

// Response is the GraphQL response envelope. Extensions carries the
// computed complexity so clients can tune their queries against the budget.
type Response struct {
	Data       map[string]json.RawMessage `json:"data,omitempty"`
	Errors     []domain.NormalizedError   `json:"errors,omitempty"`
	Extensions *Extensions                `json:"extensions,omitempty"`
}

// Extensions is the non-standard portion of the response envelope.
type Extensions struct {
	Complexity ComplexityExtension `json:"complexity"`
}

// ComplexityExtension reports the computed query cost against the limit in
// force when the request was checked.
type ComplexityExtension struct {
	Score int `json:"score"`
	Limit int `json:"limit"`
}

// Handler is the /graphql HTTP endpoint: decode, check, execute, normalize.
type Handler struct {
	pipeline *Pipeline
	resolver *Resolver
	reporter *normalize.Reporter
	metrics  *telemetry.Metrics
	log      zerolog.Logger
}

// NewHandler wires the pipeline and resolver behind the HTTP surface.
func NewHandler(pipeline *Pipeline, resolver *Resolver, metrics *telemetry.Metrics, log zerolog.Logger) *Handler {
	return &Handler{
		pipeline: pipeline,
		resolver: resolver,
		reporter: normalize.NewReporter(log),
		metrics:  metrics,
		log:      log,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	start := time.Now()

	var req Request
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err == nil {
		err = json.Unmarshal(body, &req)
	}
	if err != nil || req.Query == "" {
		h.reject(w, "bad_request", domain.NewFieldError("query", domain.CodeRequiredField,
			"request body must be a JSON document with a query"), CheckedRequest{})
		return
	}
	req.Identity = identity(r)

	checked, err := h.pipeline.Check(r.Context(), req)
	if err != nil {
		h.metrics.RecordRequest(req.OperationName, "rejected", time.Since(start).Seconds())
		h.reject(w, rejectionReason(err), err, checked)
		return
	}
	h.metrics.RecordComplexity(checked.Complexity)

	data, err := h.resolver.Execute(r.Context(), checked)
	if err != nil {
		h.metrics.RecordRequest(req.OperationName, "error", time.Since(start).Seconds())
		h.reject(w, rejectionReason(err), err, checked)
		return
	}

	h.metrics.RecordRequest(req.OperationName, "ok", time.Since(start).Seconds())
	governance.WriteRateLimitHeaders(w, checked.Decision)
	h.write(w, http.StatusOK, Response{
		Data:       data,
		Extensions: h.extensions(checked),
	})
}

// reject normalizes the error, logs it with request context, and writes the
// error envelope with the status matching the error kind.
func (h *Handler) reject(w http.ResponseWriter, reason string, err error, checked CheckedRequest) {
	h.metrics.RecordRejection(reason)
	norm := h.reporter.Report(err, map[string]any{"reason": reason})

	var rateErr *domain.RateError
	if errors.As(err, &rateErr) {
		governance.WriteRateLimitHeaders(w, governance.Decision{
			Limit:      rateErr.Limit,
			Remaining:  rateErr.Remaining,
			RetryAfter: rateErr.RetryAfter,
		})
	} else if checked.Decision.Limit > 0 {
		governance.WriteRateLimitHeaders(w, checked.Decision)
	}

	resp := Response{Errors: []domain.NormalizedError{norm}}
	if checked.Operation != nil {
		resp.Extensions = h.extensions(checked)
	}
	h.write(w, statusFor(norm.Kind), resp)
}

func (h *Handler) extensions(checked CheckedRequest) *Extensions {
	return &Extensions{Complexity: ComplexityExtension{
		Score: checked.Complexity,
		Limit: h.pipeline.Limits().MaxComplexity,
	}}
}

func (h *Handler) write(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error().Err(err).Msg("failed to write response")
	}
}

// statusFor maps the error taxonomy onto HTTP statuses.
func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation, domain.KindComplexityExceeded, domain.KindDepthExceeded:
		return http.StatusBadRequest
	case domain.KindRateLimitExceeded:
		return http.StatusTooManyRequests
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindServiceUnavailable:
		return http.StatusServiceUnavailable
	case domain.KindServiceError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// rejectionReason buckets errors for the rejection counter.
func rejectionReason(err error) string {
	switch normalize.Classify(err) {
	case domain.KindValidation:
		return "validation"
	case domain.KindComplexityExceeded:
		return "complexity"
	case domain.KindDepthExceeded:
		return "depth"
	case domain.KindRateLimitExceeded:
		return "rate_limit"
	default:
		return "downstream"
	}
}

// identity attributes the request for rate limiting: the edge-set identity
// header when present, otherwise the client address without the port.
func identity(r *http.Request) string {
	if id := r.Header.Get(identityHeader); id != "" {
		return id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
