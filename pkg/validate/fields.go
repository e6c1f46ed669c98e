package validate

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pulsefit/gateway/pkg/domain"
	"github.com/pulsefit/gateway/pkg/sanitize"
)

const (
	maxDurationMinutes = 100000
	maxDescriptionLen  = 1000
	maxRangeDays       = 365
)

var (
	idPattern           = regexp.MustCompile(`^[A-Za-z0-9_-]{1,100}$`)
	emailPattern        = regexp.MustCompile(`^[a-zA-Z0-9._+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	exerciseTypePattern = regexp.MustCompile(`^[A-Za-z _-]{1,100}$`)
)

// dateLayouts are tried in order; the first match wins. time.Parse rejects
// impossible calendar dates (e.g. February 30th).
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339,
	time.RFC3339Nano,
}

// ID validates an identifier field. The format check runs on the raw value:
// an ID containing markup or SQL fragments is rejected, never cleaned.
func ID(raw string) (string, error) {
	if raw == "" {
		return "", domain.NewFieldError("id", domain.CodeRequiredField, "id is required")
	}
	if !idPattern.MatchString(raw) {
		return "", domain.NewFieldError("id", domain.CodeInvalidID,
			"id must be 1-100 characters of letters, digits, underscore or hyphen")
	}
	return raw, nil
}

// Username validates a username, which by business rule is an email address.
// The value is trimmed and lower-cased, checked against the format rules,
// sanitized, and checked again to catch sanitizer side effects.
func Username(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", domain.NewFieldError("username", domain.CodeRequiredField, "username is required")
	}
	if err := checkEmail(email); err != nil {
		return "", err
	}

	clean := sanitize.Sanitize(email, sanitize.Options{PreventSQLInjection: true, PreventXSS: true})
	if err := checkEmail(clean); err != nil {
		return "", err
	}
	return clean, nil
}

func checkEmail(email string) error {
	fail := func(msg string) error {
		return domain.NewFieldError("username", domain.CodeInvalidEmail, msg)
	}

	if len(email) < 5 || len(email) > 254 {
		return fail("email must be between 5 and 254 characters")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fail("email must contain exactly one @")
	}
	local, dom := parts[0], parts[1]

	if len(local) < 1 || len(local) > 64 {
		return fail("email local part must be between 1 and 64 characters")
	}
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") || strings.Contains(local, "..") {
		return fail("email local part cannot start or end with a dot or contain consecutive dots")
	}

	if len(dom) < 4 || len(dom) > 255 {
		return fail("email domain must be between 4 and 255 characters")
	}
	if !strings.Contains(dom, ".") || strings.HasPrefix(dom, ".") ||
		strings.HasSuffix(dom, ".") || strings.Contains(dom, "..") {
		return fail("email domain must contain an interior dot")
	}

	if !emailPattern.MatchString(email) {
		return fail("invalid email format")
	}
	return nil
}

// ExerciseType validates the exercise-type field against a closed character
// set, before sanitization.
func ExerciseType(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", domain.NewFieldError("exerciseType", domain.CodeRequiredField, "exerciseType is required")
	}
	if !exerciseTypePattern.MatchString(trimmed) {
		return "", domain.NewFieldError("exerciseType", domain.CodeInvalidExerciseType,
			"exerciseType must be 1-100 characters of letters, spaces, hyphens or underscores")
	}
	return trimmed, nil
}

// Description validates the optional free-text description. Empty input is
// legal and yields the empty string. Oversized input is rejected before
// sanitization; accepted text is HTML-stripped and entity-escaped.
func Description(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	if utf8.RuneCountInString(raw) > maxDescriptionLen {
		return "", domain.NewFieldError("description", domain.CodeInvalidDescription,
			fmt.Sprintf("description must be at most %d characters", maxDescriptionLen))
	}
	return sanitize.Sanitize(raw, sanitize.Options{
		PreventXSS: true,
		RemoveHTML: true,
		MaxLength:  maxDescriptionLen,
	}), nil
}

// Duration coerces a raw duration argument to an integer number of minutes
// in [1, 100000]. Strings, integers and whole-valued floats are accepted;
// anything else fails with INVALID_DURATION_VALUE.
func Duration(raw any) (int, error) {
	fail := func(msg string) error {
		return domain.NewFieldError("duration", domain.CodeInvalidDuration, msg)
	}

	var minutes int
	switch v := raw.(type) {
	case int:
		minutes = v
	case int32:
		minutes = int(v)
	case int64:
		minutes = int(v)
	case float64:
		if v != math.Trunc(v) {
			return 0, fail("duration must be a whole number of minutes")
		}
		minutes = int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fail("duration must be an integer")
		}
		minutes = n
	case nil:
		return 0, fail("duration is required")
	default:
		return 0, fail("duration must be an integer")
	}

	if minutes < 1 || minutes > maxDurationMinutes {
		return 0, fail(fmt.Sprintf("duration must be between 1 and %d minutes", maxDurationMinutes))
	}
	return minutes, nil
}

// Date validates an ISO-8601 date or timestamp and returns it trimmed.
func Date(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", domain.NewFieldError("date", domain.CodeRequiredField, "date is required")
	}
	if _, err := parseDate(trimmed); err != nil {
		return "", domain.NewFieldError("date", domain.CodeInvalidDate,
			"date must be an ISO-8601 date (YYYY-MM-DD) or timestamp")
	}
	return trimmed, nil
}

// DateRange validates both endpoints, their ordering, and the maximum span
// of one year.
func DateRange(start, end string) (string, string, error) {
	cleanStart, err := Date(start)
	if err != nil {
		return "", "", err
	}
	cleanEnd, err := Date(end)
	if err != nil {
		return "", "", err
	}

	startAt, _ := parseDate(cleanStart)
	endAt, _ := parseDate(cleanEnd)

	if startAt.After(endAt) {
		return "", "", domain.NewFieldError("dateRange", domain.CodeInvalidDateRange,
			"start date must not be after end date")
	}
	if endAt.Sub(startAt) > maxRangeDays*24*time.Hour {
		return "", "", domain.NewFieldError("dateRange", domain.CodeInvalidDateRange,
			fmt.Sprintf("date range must not exceed %d days", maxRangeDays))
	}
	return cleanStart, cleanEnd, nil
}

func parseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
