// Package sanitize implements pattern-based cleaning of raw string input.
//
// Sanitization is a second line of defense for permissive text fields; it is
// not a substitute for format validation. Identifier-like fields must be
// rejected by the validator before sanitization ever runs, so that malicious
// input fails loudly instead of being silently cleaned and accepted.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

// Options configures a Sanitize call. A pure configuration record with no
// shared state; the zero value only strips control bytes and trims.
type Options struct {
	PreventSQLInjection bool
	PreventXSS          bool
	RemoveHTML          bool
	MaxLength           int
}

var (
	sqlKeywords  = regexp.MustCompile(`(?i)\b(select|insert|update|delete|drop|union|exec|execute|create|alter|truncate|declare)\b`)
	sqlOperators = regexp.MustCompile(`(--|/\*|\*/|;)`)
	scriptBlocks = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	eventAttrs   = regexp.MustCompile(`(?i)\bon[a-z]+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)
	htmlTags     = regexp.MustCompile(`(?s)<[^>]*>`)
)

// Sanitize cleans raw according to opts. It never fails and always returns a
// string; the pipeline order is fixed: control bytes, SQL patterns, XSS
// patterns and entity escaping, trim, truncate. Repeated application with the
// same options is a no-op on already-clean text.
func Sanitize(raw string, opts Options) string {
	if raw == "" {
		return ""
	}

	s := stripControl(raw)

	if opts.PreventSQLInjection {
		s = sqlKeywords.ReplaceAllString(s, "")
		s = sqlOperators.ReplaceAllString(s, "")
	}

	if opts.PreventXSS {
		s = scriptBlocks.ReplaceAllString(s, "")
		s = eventAttrs.ReplaceAllString(s, "")
		if opts.RemoveHTML {
			s = htmlTags.ReplaceAllString(s, "")
		}
		s = escapeEntities(s)
	}

	s = strings.TrimSpace(s)

	if opts.MaxLength > 0 {
		s = truncate(s, opts.MaxLength)
	}

	return s
}

// truncate cuts s to at most max runes. The cut backs off over a partial
// escape sequence and trailing whitespace: either would re-sanitize to
// different text, breaking idempotence.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	out := string(runes[:max])
	if i := strings.LastIndexByte(out, '&'); i >= 0 && incompleteEntity(out[i:]) {
		out = out[:i]
	}
	return strings.TrimRightFunc(out, unicode.IsSpace)
}

// incompleteEntity reports whether tail is a strict prefix of one of the
// escape sequences this package emits.
func incompleteEntity(tail string) bool {
	for _, entity := range knownEntities {
		if len(tail) < len(entity) && strings.HasPrefix(entity, tail) {
			return true
		}
	}
	return false
}

// stripControl removes NUL and other control bytes, preserving tab, newline
// and carriage return.
func stripControl(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\t' || r == '\n' || r == '\r' {
			b.WriteRune(r)
			continue
		}
		if r < 0x20 || r == 0x7F {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// knownEntities are the escape sequences this package emits. An ampersand
// introducing one of these is left alone so escaping stays idempotent.
var knownEntities = []string{"&amp;", "&lt;", "&gt;", "&quot;", "&#x27;", "&#x2F;"}

func escapeEntities(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '&':
			if startsEntity(s[i:]) {
				b.WriteByte(c)
			} else {
				b.WriteString("&amp;")
			}
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&#x27;")
		case '/':
			b.WriteString("&#x2F;")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func startsEntity(s string) bool {
	for _, entity := range knownEntities {
		if strings.HasPrefix(s, entity) {
			return true
		}
	}
	return false
}
