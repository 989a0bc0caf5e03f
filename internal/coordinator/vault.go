package coordinator

import (
	"log/slog"
	"sync"
	"time"
	"vidgate/lib/sl"

	"github.com/google/uuid"
)

const tokenLength = 8

type vaultEntry struct {
	url       string
	createdAt time.Time
}

// TokenVault maps short opaque tokens to full request URLs so they survive
// the 64-byte callback data round-trip. Entries expire after ttl: lazily on
// Resolve and in bulk by the sweeper, so the map stays bounded on a
// long-running process.
type TokenVault struct {
	mu      sync.Mutex
	entries map[string]vaultEntry
	ttl     time.Duration
	log     *slog.Logger
	now     func() time.Time
	stopCh  chan struct{}
	done    chan struct{}
}

func NewTokenVault(ttl time.Duration, log *slog.Logger) *TokenVault {
	return &TokenVault{
		entries: make(map[string]vaultEntry),
		ttl:     ttl,
		log:     log.With(sl.Module("coordinator.vault")),
		now:     time.Now,
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Store records the mapping under a fresh token and returns the token.
func (v *TokenVault) Store(url string) string {
	v.mu.Lock()
	defer v.mu.Unlock()

	token := newToken()
	for _, exists := v.entries[token]; exists; _, exists = v.entries[token] {
		token = newToken()
	}
	v.entries[token] = vaultEntry{url: url, createdAt: v.now()}
	return token
}

// Resolve returns the URL for a token. Resolving is non-destructive: the
// same token may be looked up again, e.g. on a retried quality selection.
func (v *TokenVault) Resolve(token string) (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	entry, ok := v.entries[token]
	if !ok {
		return "", false
	}
	if v.now().Sub(entry.createdAt) >= v.ttl {
		delete(v.entries, token)
		return "", false
	}
	return entry.url, true
}

func (v *TokenVault) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.entries)
}

// StartSweeper evicts expired entries on the given interval until Stop.
func (v *TokenVault) StartSweeper(interval time.Duration) {
	go func() {
		defer close(v.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := v.sweep(); n > 0 {
					v.log.Debug("evicted expired tokens", slog.Int("count", n))
				}
			case <-v.stopCh:
				return
			}
		}
	}()
}

func (v *TokenVault) Stop() {
	close(v.stopCh)
	<-v.done
}

func (v *TokenVault) sweep() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.now()
	evicted := 0
	for token, entry := range v.entries {
		if now.Sub(entry.createdAt) >= v.ttl {
			delete(v.entries, token)
			evicted++
		}
	}
	return evicted
}

func newToken() string {
	return uuid.NewString()[:tokenLength]
}
