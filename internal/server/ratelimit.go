package server

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/MrWong99/lexora/internal/observe"
)

// idleClientTTL is how long a client limiter survives without requests.
const idleClientTTL = 10 * time.Minute

// RateLimit configures request throttling. A zero RPS disables limiting.
type RateLimit struct {
	// RPS and Burst apply to each client IP.
	RPS   float64
	Burst int

	// GlobalRPS and GlobalBurst cap the whole server. Zero GlobalRPS uses
	// ten times the client rate.
	GlobalRPS   float64
	GlobalBurst int
}

type clientLimiter struct {
	lim  *rate.Limiter
	seen time.Time
}

// limiter throttles per client IP and globally with token buckets.
type limiter struct {
	cfg     RateLimit
	global  *rate.Limiter
	metrics *observe.Metrics

	mu      sync.Mutex
	clients map[string]*clientLimiter
	swept   time.Time
	now     func() time.Time
}

func newLimiter(cfg RateLimit, m *observe.Metrics) *limiter {
	if cfg.Burst <= 0 {
		cfg.Burst = max(1, int(cfg.RPS))
	}
	if cfg.GlobalRPS <= 0 {
		cfg.GlobalRPS = cfg.RPS * 10
	}
	if cfg.GlobalBurst <= 0 {
		cfg.GlobalBurst = cfg.Burst * 10
	}
	return &limiter{
		cfg:     cfg,
		global:  rate.NewLimiter(rate.Limit(cfg.GlobalRPS), cfg.GlobalBurst),
		metrics: m,
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
	}
}

func (l *limiter) client(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.swept) > idleClientTTL {
		for k, c := range l.clients {
			if now.Sub(c.seen) > idleClientTTL {
				delete(l.clients, k)
			}
		}
		l.swept = now
	}
	c, ok := l.clients[ip]
	if !ok {
		c = &clientLimiter{lim: rate.NewLimiter(rate.Limit(l.cfg.RPS), l.cfg.Burst)}
		l.clients[ip] = c
	}
	c.seen = now
	return c.lim
}

// middleware rejects requests over the client or global budget with 429.
func (l *limiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope := ""
		switch {
		case !l.client(clientIP(r)).Allow():
			scope = "client"
		case !l.global.Allow():
			scope = "global"
		}
		if scope != "" {
			l.metrics.RecordRateLimited(r.Context(), scope)
			retry := max(1, int(1/l.cfg.RPS))
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP is the remote host without the port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
