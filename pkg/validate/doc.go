// Package validate implements per-field input validation and the
// whole-request contract builders composed from it.
//
// Each validator is a pure function returning the cleaned value or a
// *domain.FieldError carrying the offending field name and a stable code.
// Format checks run on the raw value before any sanitization so that
// malicious identifiers are rejected outright rather than silently cleaned.
package validate
