package ratelimit

import (
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"
)

// mockClock is a controllable clock for testing.
type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func newMockClock() *mockClock {
	return &mockClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCheckSubmit_Cooldown(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		Cooldown:     30 * time.Second,
		MaxPerHour:   5,
		MaxIPPerHour: 30,
		Clock:        clock,
	})
	defer limiter.Close()

	identifier := "player@club.org"
	ip := "203.0.113.10"

	result := limiter.CheckSubmit("register", identifier, ip)
	if !result.Allowed {
		t.Errorf("First submission should be allowed, got blocked: %s", result.Reason)
	}
	limiter.RecordSubmit("register", identifier, ip)

	clock.Advance(10 * time.Second)
	result = limiter.CheckSubmit("register", identifier, ip)
	if result.Allowed {
		t.Error("Submission within cooldown should be blocked")
	}
	if result.Reason != "cooldown" {
		t.Errorf("Expected reason 'cooldown', got '%s'", result.Reason)
	}
	if result.RetryAfter != 20*time.Second {
		t.Errorf("Expected RetryAfter 20s, got %v", result.RetryAfter)
	}

	clock.Advance(21 * time.Second)
	result = limiter.CheckSubmit("register", identifier, ip)
	if !result.Allowed {
		t.Errorf("Submission after cooldown should be allowed, got blocked: %s", result.Reason)
	}
}

func TestCheckSubmit_FormsAreIndependent(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		Cooldown:     time.Minute,
		MaxPerHour:   5,
		MaxIPPerHour: 30,
		Clock:        clock,
	})
	defer limiter.Close()

	limiter.RecordSubmit("newsletter", "fan@club.org", "203.0.113.10")

	if result := limiter.CheckSubmit("newsletter", "fan@club.org", "203.0.113.10"); result.Allowed {
		t.Error("Repeat newsletter submission should be in cooldown")
	}
	if result := limiter.CheckSubmit("sponsorship", "fan@club.org", "203.0.113.10"); !result.Allowed {
		t.Errorf("Different form should not share cooldown, got blocked: %s", result.Reason)
	}
}

func TestCheckSubmit_HourlyLimit(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		Cooldown:     time.Millisecond,
		MaxPerHour:   3,
		MaxIPPerHour: 30,
		Clock:        clock,
	})
	defer limiter.Close()

	identifier := "hourly@club.org"
	ip := "203.0.113.11"

	for i := 0; i < 3; i++ {
		clock.Advance(time.Second)
		result := limiter.CheckSubmit("sponsorship", identifier, ip)
		if !result.Allowed {
			t.Errorf("Submission %d should be allowed, got blocked: %s", i+1, result.Reason)
		}
		limiter.RecordSubmit("sponsorship", identifier, ip)
	}

	clock.Advance(time.Second)
	result := limiter.CheckSubmit("sponsorship", identifier, ip)
	if result.Allowed {
		t.Error("4th submission should be blocked (hourly limit)")
	}
	if result.Reason != "hourly_limit" {
		t.Errorf("Expected reason 'hourly_limit', got '%s'", result.Reason)
	}

	clock.Advance(time.Hour)
	result = limiter.CheckSubmit("sponsorship", identifier, ip)
	if !result.Allowed {
		t.Errorf("Submission after an hour should be allowed, got blocked: %s", result.Reason)
	}
}

func TestCheckSubmit_IPLimit(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		Cooldown:     time.Millisecond,
		MaxPerHour:   100,
		MaxIPPerHour: 2,
		Clock:        clock,
	})
	defer limiter.Close()

	ip := "203.0.113.12"
	for i := 0; i < 2; i++ {
		identifier := fmt.Sprintf("user%d@club.org", i)
		clock.Advance(time.Second)
		if result := limiter.CheckSubmit("register", identifier, ip); !result.Allowed {
			t.Errorf("Submission %d should be allowed, got blocked: %s", i+1, result.Reason)
		}
		limiter.RecordSubmit("register", identifier, ip)
	}

	clock.Advance(time.Second)
	result := limiter.CheckSubmit("register", "another@club.org", ip)
	if result.Allowed {
		t.Error("3rd submission from same IP should be blocked")
	}
	if result.Reason != "ip_hourly_limit" {
		t.Errorf("Expected reason 'ip_hourly_limit', got '%s'", result.Reason)
	}
}

func TestCheckSubmit_IdentifierNormalization(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		Cooldown:     time.Minute,
		MaxPerHour:   5,
		MaxIPPerHour: 30,
		Clock:        clock,
	})
	defer limiter.Close()

	limiter.RecordSubmit("register", "player@club.org", "203.0.113.13")

	for _, variant := range []string{"PLAYER@CLUB.ORG", " Player@Club.Org "} {
		if result := limiter.CheckSubmit("register", variant, "203.0.113.13"); result.Allowed {
			t.Errorf("Variant %q should share the cooldown", variant)
		}
	}
}

func TestCheckAndRecord_SeparateOps(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		Cooldown:     time.Minute,
		MaxPerHour:   1,
		MaxIPPerHour: 100,
		Clock:        clock,
	})
	defer limiter.Close()

	for i := 0; i < 10; i++ {
		if result := limiter.CheckSubmit("register", "test@club.org", "203.0.113.14"); !result.Allowed {
			t.Errorf("Check %d should be allowed without prior Record", i+1)
		}
	}

	limiter.RecordSubmit("register", "test@club.org", "203.0.113.14")

	if result := limiter.CheckSubmit("register", "test@club.org", "203.0.113.14"); result.Allowed {
		t.Error("Check after Record should be blocked")
	}
}

func TestCleanupDropsStaleEntries(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{Cooldown: time.Second, MaxPerHour: 5, MaxIPPerHour: 5, Clock: clock})
	defer limiter.Close()

	limiter.RecordSubmit("register", "old@club.org", "203.0.113.15")
	clock.Advance(2 * time.Hour)
	limiter.cleanup()

	limiter.mu.RLock()
	defer limiter.mu.RUnlock()
	if len(limiter.byID) != 0 || len(limiter.byIP) != 0 {
		t.Fatalf("expected stale entries to be removed, got %d/%d", len(limiter.byID), len(limiter.byIP))
	}
}

func TestNew_NilConfig(t *testing.T) {
	limiter := New(nil)
	defer limiter.Close()

	if limiter.config.Cooldown != 30*time.Second {
		t.Errorf("Cooldown = %v, want 30s", limiter.config.Cooldown)
	}
	if limiter.config.MaxPerHour != 5 || limiter.config.MaxIPPerHour != 30 {
		t.Errorf("unexpected default limits: %+v", limiter.config)
	}
}

func TestLimiter_Close(t *testing.T) {
	limiter := New(nil)
	limiter.CheckSubmit("register", "test@club.org", "1.2.3.4")

	done := make(chan struct{})
	go func() {
		limiter.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("Close() should not hang")
	}
}

func TestConcurrentAccess(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		Cooldown:     0,
		MaxPerHour:   1000000,
		MaxIPPerHour: 1000000,
		Clock:        clock,
	})
	defer limiter.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if limiter.CheckSubmit("availability", "user@club.org", "203.0.113.16").Allowed {
					limiter.RecordSubmit("availability", "user@club.org", "203.0.113.16")
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestGetClientIP_TrustProxy(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		trustProxy bool
		expected   string
	}{
		{
			name:       "TrustProxy=true, XFF rightmost public IP",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.50, 10.0.0.1"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "203.0.113.50", // Rightmost non-private
		},
		{
			name:       "TrustProxy=true, XFF all private",
			headers:    map[string]string{"X-Forwarded-For": "192.168.1.1, 10.0.0.1"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "10.0.0.1", // Last one when all private
		},
		{
			name:       "TrustProxy=true, X-Real-IP",
			headers:    map[string]string{"X-Real-IP": "203.0.113.51"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "203.0.113.51",
		},
		{
			name:       "TrustProxy=false, ignores XFF",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.50"},
			remoteAddr: "192.168.1.100:54321",
			trustProxy: false,
			expected:   "192.168.1.100", // Uses RemoteAddr, ignores spoofed XFF
		},
		{
			name:       "TrustProxy=false, ignores X-Real-IP",
			headers:    map[string]string{"X-Real-IP": "203.0.113.51"},
			remoteAddr: "192.168.1.100:54321",
			trustProxy: false,
			expected:   "192.168.1.100",
		},
		{
			name:       "No headers, RemoteAddr only",
			headers:    map[string]string{},
			remoteAddr: "192.168.1.100:54321",
			trustProxy: true,
			expected:   "192.168.1.100",
		},
		{
			name:       "RemoteAddr without port",
			headers:    map[string]string{},
			remoteAddr: "192.168.1.100",
			trustProxy: false,
			expected:   "192.168.1.100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := http.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			got := GetClientIP(r, tt.trustProxy)
			if got != tt.expected {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestGetClientIP_SpoofingPrevention(t *testing.T) {
	// Attacker sends fake X-Forwarded-For header
	r, _ := http.NewRequest("GET", "/", nil)
	r.Header.Set("X-Forwarded-For", "1.2.3.4") // Attacker-supplied
	r.RemoteAddr = "192.168.1.100:54321"       // Real connection

	// With TrustProxy=false, the fake header is ignored
	got := GetClientIP(r, false)
	if got != "192.168.1.100" {
		t.Errorf("Should ignore X-Forwarded-For when TrustProxy=false, got %q", got)
	}
}

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"john.doe@example.com", "jo***@example.com"},
		{"JOHN.DOE@EXAMPLE.COM", "jo***@example.com"}, // Normalized to lowercase
		{"ab@example.com", "***@example.com"},
		{"a@example.com", "***@example.com"},
		{"+61412345678", "***5678"},
		{"0412345678", "***5678"},
		{"123", "***"},
		{"", "***"},
		{"  User@Example.Com  ", "us***@example.com"}, // Trimmed and lowercased
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := SanitizeIdentifier(tt.input)
			if got != tt.expected {
				t.Errorf("SanitizeIdentifier(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip       string
		expected bool
	}{
		// IPv4 private ranges
		{"10.0.0.1", true},
		{"10.255.255.255", true},
		{"172.16.0.1", true},
		{"172.31.255.255", true},
		{"192.168.1.1", true},
		{"192.168.255.255", true},
		{"127.0.0.1", true},
		// IPv6 private/reserved
		{"::1", true},
		{"fc00::1", true},
		{"fe80::1", true}, // Link-local
		// IPv4-mapped IPv6 addresses (must match their IPv4 equivalents)
		{"::ffff:10.0.0.1", true},
		{"::ffff:192.168.1.1", true},
		{"::ffff:172.16.0.1", true},
		{"::ffff:127.0.0.1", true},
		{"::ffff:8.8.8.8", false},   // Public IP in IPv4-mapped format
		{"::ffff:1.1.1.1", false},   // Public IP in IPv4-mapped format
		// Public IPs
		{"203.0.113.50", false},
		{"8.8.8.8", false},
		{"1.1.1.1", false},
		{"2001:4860:4860::8888", false}, // Google DNS IPv6
		// Invalid
		{"invalid", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			got := isPrivateIP(tt.ip)
			if got != tt.expected {
				t.Errorf("isPrivateIP(%q) = %v, want %v", tt.ip, got, tt.expected)
			}
		})
	}
}
