// Package normalize converts heterogeneous internal failures into the single
// stable client-facing error shape, and owns the structured logging of the
// original failure detail on the way through.
//
// Every error path to a client crosses this package exactly once; raw
// downstream stack traces, hostnames and credentials stop here.
package normalize

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pulsefit/gateway/pkg/domain"
	"github.com/pulsefit/gateway/pkg/redact"
)

// transportPatterns mark error strings that indicate the collaborator was
// unreachable rather than erroring.
var transportPatterns = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"timeout",
	"temporary failure",
	"EOF",
}

// Classify maps any error onto the stable taxonomy.
func Classify(err error) domain.Kind {
	if err == nil {
		return domain.KindUnknown
	}

	var fe *domain.FieldError
	if errors.As(err, &fe) {
		return domain.KindValidation
	}
	var le *domain.LimitError
	if errors.As(err, &le) {
		return le.Kind
	}
	var re *domain.RateError
	if errors.As(err, &re) {
		return domain.KindRateLimitExceeded
	}

	var de *domain.DownstreamError
	if errors.As(err, &de) {
		switch {
		case de.Status == 0:
			return domain.KindServiceUnavailable
		case de.Status == 404:
			return domain.KindNotFound
		case de.Status >= 500:
			return domain.KindServiceError
		default:
			return domain.KindUnknown
		}
	}

	if isTransport(err) {
		return domain.KindServiceUnavailable
	}
	return domain.KindUnknown
}

func isTransport(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	msg := err.Error()
	for _, p := range transportPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// Normalize produces the client-safe error payload. Validation detail passes
// through verbatim; collaborator and unknown failures get fixed generic
// messages so internal detail cannot leak.
func Normalize(err error) domain.NormalizedError {
	return normalizeAt(err, time.Now().UTC())
}

func normalizeAt(err error, now time.Time) domain.NormalizedError {
	kind := Classify(err)
	out := domain.NormalizedError{Kind: kind, Timestamp: now}

	switch kind {
	case domain.KindValidation:
		var fe *domain.FieldError
		errors.As(err, &fe)
		out.Message = fe.Message
		out.Field = fe.Field
		out.Code = fe.Code
	case domain.KindComplexityExceeded, domain.KindDepthExceeded:
		var le *domain.LimitError
		errors.As(err, &le)
		out.Message = le.Error()
		out.Code = le.Code()
	case domain.KindRateLimitExceeded:
		var re *domain.RateError
		errors.As(err, &re)
		out.Message = re.Error()
		out.Code = string(domain.KindRateLimitExceeded)
	case domain.KindNotFound:
		out.Message = "requested resource was not found"
		out.Code = string(domain.KindNotFound)
	case domain.KindServiceUnavailable:
		out.Message = "a downstream service is temporarily unavailable"
		out.Code = string(domain.KindServiceUnavailable)
	case domain.KindServiceError:
		out.Message = "a downstream service failed to process the request"
		out.Code = string(domain.KindServiceError)
	default:
		out.Message = "an unexpected error occurred"
		out.Code = string(domain.KindUnknown)
	}
	return out
}

// Reporter logs full (redacted) failure detail and normalizes. One Reporter
// serves the whole gateway; it is safe for concurrent use.
type Reporter struct {
	log zerolog.Logger
	now func() time.Time
}

func NewReporter(log zerolog.Logger) *Reporter {
	return &Reporter{log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Report emits one structured record for the failure, with extra context
// fields passed through the redaction deny-list, then returns the
// normalized payload. Client-caused failures log at warn, everything else
// at error with the original detail preserved in the log only.
func (r *Reporter) Report(err error, fields map[string]any) domain.NormalizedError {
	norm := normalizeAt(err, r.now())

	var evt *zerolog.Event
	if domain.IsClientError(err) {
		evt = r.log.Warn()
	} else {
		evt = r.log.Error()
	}

	evt = evt.Str("type", string(norm.Kind)).Str("message", err.Error())
	if norm.Field != "" {
		evt = evt.Str("field", norm.Field)
	}
	if norm.Code != "" {
		evt = evt.Str("code", norm.Code)
	}
	for k, v := range redact.Map(fields) {
		evt = evt.Interface(k, v)
	}
	evt.Msg("request failed")

	return norm
}
