package coordinator

import (
	"sync"
	"time"
	"vidgate/entity"
)

// GateCache keeps one subscription verdict per user, valid for the
// configured TTL, to avoid hammering the gateway with membership queries.
type GateCache struct {
	mu       sync.Mutex
	verdicts map[int64]entity.SubscriptionVerdict
	ttl      time.Duration
	now      func() time.Time
}

func NewGateCache(ttl time.Duration) *GateCache {
	return &GateCache{
		verdicts: make(map[int64]entity.SubscriptionVerdict),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Check returns the cached verdict for the user. The second result is false
// on a miss: no verdict recorded, or the recorded one has aged out. Callers
// on a miss must run the full membership check and Record the outcome.
func (g *GateCache) Check(userId int64) (bool, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	verdict, ok := g.verdicts[userId]
	if !ok || verdict.Expired(g.ttl, g.now()) {
		return false, false
	}
	return verdict.Subscribed, true
}

// Record overwrites the verdict and its timestamp for the user.
func (g *GateCache) Record(userId int64, subscribed bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.verdicts[userId] = entity.SubscriptionVerdict{
		UserId:     userId,
		Subscribed: subscribed,
		CheckedAt:  g.now(),
	}
}
