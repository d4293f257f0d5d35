package apiutil

import (
	"math"
	"net/http"
	"strconv"

	"github.com/codr1/Clubhouse/internal/ratelimit"
)

// FormGuard throttles public form submissions. A nil guard or limiter
// allows everything.
type FormGuard struct {
	Limiter    *ratelimit.Limiter
	TrustProxy bool
}

// ClientIP resolves the caller's address honoring the proxy setting.
func (g *FormGuard) ClientIP(r *http.Request) string {
	trustProxy := g != nil && g.TrustProxy
	return ratelimit.GetClientIP(r, trustProxy)
}

// Allow checks the limits for form and identifier and writes a 429 with
// Retry-After when they are exceeded.
func (g *FormGuard) Allow(w http.ResponseWriter, r *http.Request, form, identifier string) bool {
	if g == nil || g.Limiter == nil {
		return true
	}
	ip := g.ClientIP(r)
	result := g.Limiter.CheckSubmit(form, identifier, ip)
	if result.Allowed {
		return true
	}

	ratelimit.LogRateLimitExceeded(form, identifier, ip, result.Reason)
	seconds := int(math.Ceil(result.RetryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	WriteError(w, http.StatusTooManyRequests, "Too many submissions, please try again later")
	return false
}

// Record counts an accepted submission.
func (g *FormGuard) Record(r *http.Request, form, identifier string) {
	if g == nil || g.Limiter == nil {
		return
	}
	g.Limiter.RecordSubmit(form, identifier, g.ClientIP(r))
}
