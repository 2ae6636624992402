package auth

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/luigy23/BackComandapp/internal/web"
)

type ipWindow struct {
	startedAt time.Time
	hits      int
}

// LoginThrottle caps login requests per client IP inside a sliding window.
// It complements the per-account AttemptTracker: the throttle slows down
// brute force across many accounts from one address.
type LoginThrottle struct {
	mu        sync.Mutex
	maxHits   int
	window    time.Duration
	byIP      map[string]*ipWindow
	maxMemory int
}

func NewLoginThrottle(maxHits int, window time.Duration) *LoginThrottle {
	if maxHits <= 0 {
		maxHits = 10
	}
	if window <= 0 {
		window = time.Minute
	}

	return &LoginThrottle{
		maxHits:   maxHits,
		window:    window,
		byIP:      make(map[string]*ipWindow),
		maxMemory: 5000,
	}
}

func (l *LoginThrottle) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, retryAfter := l.allow(clientIP(r), time.Now().UTC())
		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
			web.WriteError(w, http.StatusTooManyRequests, "too many login attempts")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (l *LoginThrottle) allow(ip string, now time.Time) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	window, ok := l.byIP[ip]
	if !ok || now.Sub(window.startedAt) >= l.window {
		l.byIP[ip] = &ipWindow{startedAt: now, hits: 1}
		l.evictStale(now)
		return true, 0
	}

	window.hits++
	if window.hits > l.maxHits {
		retryAfter := window.startedAt.Add(l.window).Sub(now)
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return false, retryAfter
	}

	return true, 0
}

func (l *LoginThrottle) evictStale(now time.Time) {
	if len(l.byIP) <= l.maxMemory {
		return
	}
	for ip, window := range l.byIP {
		if now.Sub(window.startedAt) >= l.window {
			delete(l.byIP, ip)
		}
	}
}

func clientIP(r *http.Request) string {
	xForwardedFor := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if xForwardedFor != "" {
		parts := strings.Split(xForwardedFor, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}

	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}

	return "unknown"
}
