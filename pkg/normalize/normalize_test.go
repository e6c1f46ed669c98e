package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pulsefit/gateway/pkg/domain"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want domain.Kind
	}{
		{
			"field error",
			domain.NewFieldError("date", domain.CodeInvalidDate, "bad date"),
			domain.KindValidation,
		},
		{
			"complexity",
			&domain.LimitError{Kind: domain.KindComplexityExceeded, Computed: 48, Limit: 10},
			domain.KindComplexityExceeded,
		},
		{
			"depth",
			&domain.LimitError{Kind: domain.KindDepthExceeded, Computed: 8, Limit: 6},
			domain.KindDepthExceeded,
		},
		{
			"rate",
			&domain.RateError{Limit: 200, RetryAfter: time.Minute},
			domain.KindRateLimitExceeded,
		},
		{
			"downstream 404",
			&domain.DownstreamError{Service: "activity", Status: 404},
			domain.KindNotFound,
		},
		{
			"downstream 500",
			&domain.DownstreamError{Service: "analytics", Status: 503},
			domain.KindServiceError,
		},
		{
			"downstream transport",
			&domain.DownstreamError{Service: "activity", Err: errors.New("dial tcp: connection refused")},
			domain.KindServiceUnavailable,
		},
		{
			"dns failure",
			&net.DNSError{Err: "no such host", Name: "analytics.internal"},
			domain.KindServiceUnavailable,
		},
		{
			"connection reset",
			&domain.DownstreamError{Service: "activity", Status: 0,
				Err: errors.New("connection reset by peer")},
			domain.KindServiceUnavailable,
		},
		{
			"anything else",
			errors.New("slice index out of range"),
			domain.KindUnknown,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err); got != tc.want {
				t.Fatalf("Classify = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestNormalizeValidationPassesFieldThrough(t *testing.T) {
	err := domain.NewFieldError("duration", domain.CodeInvalidDuration, "duration must be an integer")
	got := Normalize(err)

	if got.Kind != domain.KindValidation {
		t.Fatalf("kind = %s", got.Kind)
	}
	if got.Field != "duration" || got.Code != domain.CodeInvalidDuration {
		t.Fatalf("field/code not passed through: %+v", got)
	}
	if got.Message != "duration must be an integer" {
		t.Fatalf("validation message altered: %q", got.Message)
	}
	if got.Timestamp.IsZero() {
		t.Fatal("timestamp not set")
	}
}

func TestNormalizeHidesInternalDetail(t *testing.T) {
	err := &domain.DownstreamError{
		Service: "analytics",
		Status:  500,
		Detail:  `{"trace":"goroutine 12...","host":"analytics.internal:5000"}`,
	}
	got := Normalize(err)

	if got.Kind != domain.KindServiceError {
		t.Fatalf("kind = %s", got.Kind)
	}
	if strings.Contains(got.Message, "internal") || strings.Contains(got.Message, "goroutine") {
		t.Fatalf("internal detail leaked: %q", got.Message)
	}
}

func TestNormalizeUnknownIsGeneric(t *testing.T) {
	got := Normalize(errors.New("pq: duplicate key value violates unique constraint"))
	if got.Kind != domain.KindUnknown {
		t.Fatalf("kind = %s", got.Kind)
	}
	if strings.Contains(got.Message, "pq:") {
		t.Fatalf("original message leaked: %q", got.Message)
	}
}

func TestReporterEmitsRedactedRecord(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	rep := NewReporter(logger)

	err := domain.NewFieldError("username", domain.CodeInvalidEmail, "invalid email format")
	norm := rep.Report(err, map[string]any{
		"operation": "addExercise",
		"authToken": "Bearer abc.def",
	})

	if norm.Kind != domain.KindValidation {
		t.Fatalf("kind = %s", norm.Kind)
	}

	var record map[string]any
	if jsonErr := json.Unmarshal(buf.Bytes(), &record); jsonErr != nil {
		t.Fatalf("log record is not JSON: %v (%s)", jsonErr, buf.String())
	}
	if record["type"] != string(domain.KindValidation) {
		t.Fatalf("record type = %v", record["type"])
	}
	if record["field"] != "username" || record["code"] != domain.CodeInvalidEmail {
		t.Fatalf("record missing field/code: %v", record)
	}
	if record["authToken"] != "[REDACTED]" {
		t.Fatalf("secret not redacted in log: %v", record["authToken"])
	}
	if record["level"] != "warn" {
		t.Fatalf("client error should log at warn, got %v", record["level"])
	}
}

func TestReporterLogsServerErrorsAtError(t *testing.T) {
	var buf bytes.Buffer
	rep := NewReporter(zerolog.New(&buf))

	rep.Report(&domain.DownstreamError{Service: "activity", Status: 502}, nil)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("bad record: %v", err)
	}
	if record["level"] != "error" {
		t.Fatalf("downstream failure should log at error, got %v", record["level"])
	}
}
