package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/HeyImBrandon1/clawding/pkg/clientip"
)

// SecurityHeaders sets security-related response headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

// --- Blanket per-IP admission (200 requests / 60s) ---

const (
	admissionWindow     = 60 * time.Second
	admissionLimit      = 200
	admissionCleanup    = 5 * time.Minute
	admissionLimiterTTL = 30 * time.Minute
)

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

var (
	admissionEntries   = make(map[string]*limiterEntry)
	admissionEntriesMu sync.Mutex
	admissionCleanupOn bool
)

func getAdmissionLimiter(ip string) *rate.Limiter {
	admissionEntriesMu.Lock()
	defer admissionEntriesMu.Unlock()
	startAdmissionCleanupOnce()
	e, ok := admissionEntries[ip]
	if !ok {
		e = &limiterEntry{
			limiter: rate.NewLimiter(rate.Limit(float64(admissionLimit)/admissionWindow.Seconds()), admissionLimit),
			lastUse: time.Now(),
		}
		admissionEntries[ip] = e
	}
	e.lastUse = time.Now()
	return e.limiter
}

func startAdmissionCleanupOnce() {
	if admissionCleanupOn {
		return
	}
	admissionCleanupOn = true
	go func() {
		ticker := time.NewTicker(admissionCleanup)
		defer ticker.Stop()
		for range ticker.C {
			admissionEntriesMu.Lock()
			now := time.Now()
			for ip, e := range admissionEntries {
				if now.Sub(e.lastUse) > admissionLimiterTTL {
					delete(admissionEntries, ip)
				}
			}
			admissionEntriesMu.Unlock()
		}
	}()
}

// IPAdmission caps each IP at 200 requests per 60 seconds across all
// endpoints, before any handler-level quota runs. Returns 429 when exceeded.
func IPAdmission(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientip.RealClientIP(r)
		if !getAdmissionLimiter(ip).Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"success":false,"error":"rate_limited","message":"Too many requests. Slow down."}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
