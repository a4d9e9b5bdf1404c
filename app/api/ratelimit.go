package api

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ClientLimiter gates the public refresh trigger per client IP. It sits
// behind an interface so a shared store can replace the in-memory map in a
// multi-instance deployment without touching the handlers.
type ClientLimiter interface {
	// Allow consumes the client's token; when denied it reports how long
	// until the next one.
	Allow(clientIP string) (bool, time.Duration)
	// Peek reports availability without consuming anything.
	Peek(clientIP string) (bool, time.Duration)
}

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter allows one event per window per client IP, with stale
// entries evicted lazily to bound memory. State is per-process.
type IPRateLimiter struct {
	window time.Duration

	mu          sync.Mutex
	clients     map[string]*clientEntry
	lastCleanup time.Time
}

var _ ClientLimiter = (*IPRateLimiter)(nil)

func NewIPRateLimiter(window time.Duration) *IPRateLimiter {
	return &IPRateLimiter{
		window:      window,
		clients:     make(map[string]*clientEntry),
		lastCleanup: time.Now(),
	}
}

func (l *IPRateLimiter) Allow(clientIP string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := l.entryLocked(clientIP)

	if entry.limiter.Allow() {
		return true, 0
	}

	return false, l.retryAfterLocked(entry)
}

func (l *IPRateLimiter) Peek(clientIP string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.clients[clientIP]
	if !ok {
		return true, 0
	}

	if entry.limiter.Tokens() >= 1 {
		return true, 0
	}

	return false, l.retryAfterLocked(entry)
}

func (l *IPRateLimiter) retryAfterLocked(entry *clientEntry) time.Duration {
	reservation := entry.limiter.Reserve()
	delay := reservation.Delay()
	reservation.Cancel()
	return delay
}

func (l *IPRateLimiter) entryLocked(clientIP string) *clientEntry {
	l.cleanupLocked()

	entry, ok := l.clients[clientIP]
	if !ok {
		entry = &clientEntry{
			limiter: rate.NewLimiter(rate.Every(l.window), 1),
		}
		l.clients[clientIP] = entry
	}
	entry.lastSeen = time.Now()

	return entry
}

func (l *IPRateLimiter) cleanupLocked() {
	now := time.Now()
	if now.Sub(l.lastCleanup) < l.window {
		return
	}
	l.lastCleanup = now

	for ip, entry := range l.clients {
		if now.Sub(entry.lastSeen) > 2*l.window {
			delete(l.clients, ip)
		}
	}
}
