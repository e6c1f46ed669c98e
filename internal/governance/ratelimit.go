package governance

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// WindowConfig defines the rate window applied to every identity.
type WindowConfig struct {
	// Window is the accounting interval.
	Window time.Duration
	// Cap is the maximum number of requests admitted per identity per window.
	Cap int
}

// DefaultWindowConfig returns the standard 200 requests per 15 minutes.
func DefaultWindowConfig() WindowConfig {
	return WindowConfig{Window: 15 * time.Minute, Cap: 200}
}

// Decision is the outcome of an admission check. RetryAfter is zero for
// admitted requests and a deterministic hint (time until the window resets)
// for rejected ones.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Admitter decides whether a request from an identity is admitted.
// Implementations must be safe for concurrent use and must never drop a
// request silently: rejections carry a retry hint.
type Admitter interface {
	Admit(ctx context.Context, identity string) (Decision, error)
}

type window struct {
	start time.Time
	count int
}

// MemoryAdmitter is the in-process fixed-window Admitter, the default and
// test implementation. A single mutex covers the read-increment-write of
// each window so the cap holds under concurrent callers. Expired windows
// are evicted opportunistically to bound memory.
type MemoryAdmitter struct {
	mu        sync.Mutex
	cfg       WindowConfig
	windows   map[string]*window
	now       func() time.Time
	lastSweep time.Time
}

// NewMemoryAdmitter creates an in-process admitter. A nil clock uses
// time.Now.
func NewMemoryAdmitter(cfg WindowConfig, now func() time.Time) *MemoryAdmitter {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindowConfig().Window
	}
	if cfg.Cap <= 0 {
		cfg.Cap = DefaultWindowConfig().Cap
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryAdmitter{
		cfg:       cfg,
		windows:   make(map[string]*window),
		now:       now,
		lastSweep: now(),
	}
}

// Admit records one request from identity and reports whether it is within
// the window cap. The first request after a window elapses starts a fresh
// window regardless of prior count.
func (m *MemoryAdmitter) Admit(_ context.Context, identity string) (Decision, error) {
	if identity == "" {
		identity = "unknown"
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)

	w, ok := m.windows[identity]
	if !ok || now.Sub(w.start) >= m.cfg.Window {
		m.windows[identity] = &window{start: now, count: 1}
		return Decision{Allowed: true, Limit: m.cfg.Cap, Remaining: m.cfg.Cap - 1}, nil
	}

	w.count++
	if w.count > m.cfg.Cap {
		return Decision{
			Allowed:    false,
			Limit:      m.cfg.Cap,
			Remaining:  0,
			RetryAfter: w.start.Add(m.cfg.Window).Sub(now),
		}, nil
	}
	return Decision{Allowed: true, Limit: m.cfg.Cap, Remaining: m.cfg.Cap - w.count}, nil
}

// Size reports the number of tracked identities, for tests and stats.
func (m *MemoryAdmitter) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

// sweep drops elapsed windows. Runs at most once per window length; callers
// hold the mutex.
func (m *MemoryAdmitter) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < m.cfg.Window {
		return
	}
	for id, w := range m.windows {
		if now.Sub(w.start) >= m.cfg.Window {
			delete(m.windows, id)
		}
	}
	m.lastSweep = now
}

// WriteRateLimitHeaders adds rate limit status headers to a response.
func WriteRateLimitHeaders(w http.ResponseWriter, d Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	if !d.Allowed {
		secs := int(d.RetryAfter.Round(time.Second).Seconds())
		if secs < 1 {
			secs = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
}
