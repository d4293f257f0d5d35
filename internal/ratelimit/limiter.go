// Package ratelimit throttles public form submissions per identifier and per client IP.
package ratelimit

import (
	"context"
	"encoding/hex"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/blake2b"
)

const (
	windowLength    = time.Hour
	cleanupInterval = 5 * time.Minute
)

// Clock lets tests control time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Config holds the submission limits. A form is any named public endpoint
// ("register", "newsletter", ...); limits apply to each form separately.
type Config struct {
	Cooldown     time.Duration // gap required between two submissions from one identifier
	MaxPerHour   int           // submissions per identifier per hour
	MaxIPPerHour int           // submissions per client IP per hour

	Clock Clock
}

func DefaultConfig() *Config {
	return &Config{
		Cooldown:     30 * time.Second,
		MaxPerHour:   5,
		MaxIPPerHour: 30,
	}
}

// LimitResult is the outcome of CheckSubmit. Reason is one of "cooldown",
// "hourly_limit" or "ip_hourly_limit" when the submission is refused.
type LimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
	Reason     string
}

// window counts submissions in a fixed one-hour window starting at opened.
type window struct {
	opened time.Time
	last   time.Time
	count  int
}

func (w *window) full(now time.Time, limit int) (time.Duration, bool) {
	age := now.Sub(w.opened)
	if age >= windowLength || w.count < limit {
		return 0, false
	}
	return windowLength - age, true
}

func (w *window) stale(now time.Time) bool {
	return now.Sub(w.last) > windowLength
}

// Limiter tracks submissions per form for identifiers and client IPs. Keys
// are hashed so raw emails and addresses are never held in memory.
type Limiter struct {
	config *Config
	clock  Clock

	mu   sync.RWMutex
	byID map[string]*window
	byIP map[string]*window

	stop      context.CancelFunc
	stopCtx   context.Context
	startOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a Limiter. A nil config uses DefaultConfig. The cleanup loop
// starts on first use and runs until Close.
func New(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = systemClock{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Limiter{
		config:  cfg,
		clock:   clock,
		byID:    make(map[string]*window),
		byIP:    make(map[string]*window),
		stop:    cancel,
		stopCtx: ctx,
	}
}

func (l *Limiter) Close() {
	l.stop()
	l.wg.Wait()
}

// CheckSubmit reports whether a submission of form is allowed. It does not
// count the attempt; call RecordSubmit once the submission is stored so
// rejected input does not consume the caller's quota.
func (l *Limiter) CheckSubmit(form, identifier, ip string) LimitResult {
	l.startCleanup()
	now := l.clock.Now()
	idKey, ipKey := keysFor(form, identifier, ip)

	l.mu.RLock()
	defer l.mu.RUnlock()

	if w := l.byID[idKey]; w != nil {
		if since := now.Sub(w.last); since < l.config.Cooldown {
			return LimitResult{RetryAfter: l.config.Cooldown - since, Reason: "cooldown"}
		}
		if wait, full := w.full(now, l.config.MaxPerHour); full {
			return LimitResult{RetryAfter: wait, Reason: "hourly_limit"}
		}
	}
	if w := l.byIP[ipKey]; w != nil {
		if wait, full := w.full(now, l.config.MaxIPPerHour); full {
			return LimitResult{RetryAfter: wait, Reason: "ip_hourly_limit"}
		}
	}
	return LimitResult{Allowed: true}
}

// RecordSubmit counts an accepted submission of form.
func (l *Limiter) RecordSubmit(form, identifier, ip string) {
	now := l.clock.Now()
	idKey, ipKey := keysFor(form, identifier, ip)

	l.mu.Lock()
	defer l.mu.Unlock()

	bump(l.byID, idKey, now)
	bump(l.byIP, ipKey, now)
}

func bump(windows map[string]*window, key string, now time.Time) {
	w := windows[key]
	if w == nil || now.Sub(w.opened) >= windowLength {
		windows[key] = &window{opened: now, last: now, count: 1}
		return
	}
	w.count++
	w.last = now
}

func keysFor(form, identifier, ip string) (string, string) {
	return digest(form, "id", strings.ToLower(strings.TrimSpace(identifier))),
		digest(form, "ip", ip)
}

func digest(form, kind, value string) string {
	sum := blake2b.Sum256([]byte(value))
	return form + ":" + kind + ":" + hex.EncodeToString(sum[:8])
}

func (l *Limiter) startCleanup() {
	l.startOnce.Do(func() {
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			ticker := time.NewTicker(cleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-l.stopCtx.Done():
					return
				case <-ticker.C:
					l.cleanup()
				}
			}
		}()
	})
}

func (l *Limiter) cleanup() {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, windows := range []map[string]*window{l.byID, l.byIP} {
		for key, w := range windows {
			if w.stale(now) {
				delete(windows, key)
			}
		}
	}
}

// GetClientIP returns the caller's address. Forwarding headers are only
// honored when trustProxy is set; the rightmost public X-Forwarded-For hop
// is the one appended by our own proxy.
func GetClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			hops := strings.Split(xff, ",")
			for i := len(hops) - 1; i >= 0; i-- {
				hop := strings.TrimSpace(hops[i])
				if hop != "" && !isPrivateIP(hop) {
					return hop
				}
			}
			return strings.TrimSpace(hops[len(hops)-1])
		}
		if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
			return realIP
		}
	}

	if addrPort, err := netip.ParseAddrPort(r.RemoteAddr); err == nil {
		return addrPort.Addr().Unmap().String()
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// isPrivateIP reports loopback, link-local and RFC 1918 / RFC 4193
// addresses, including their IPv4-mapped IPv6 forms.
func isPrivateIP(raw string) bool {
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	return addr.IsPrivate() || addr.IsLoopback() || addr.IsLinkLocalUnicast()
}

// SanitizeIdentifier masks an email or phone number for logs.
func SanitizeIdentifier(identifier string) string {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if local, domain, ok := strings.Cut(identifier, "@"); ok {
		if len(local) > 2 {
			return local[:2] + "***@" + domain
		}
		return "***@" + domain
	}
	if len(identifier) >= 4 {
		return "***" + identifier[len(identifier)-4:]
	}
	return "***"
}

func LogRateLimitExceeded(form, identifier, ip, reason string) {
	log.Warn().
		Str("event", "rate_limit_exceeded").
		Str("form", form).
		Str("identifier", SanitizeIdentifier(identifier)).
		Str("ip", ip).
		Str("reason", reason).
		Msg("Submission rate limit exceeded")
}
