package entity

import "time"

// SubscriptionVerdict is the cached result of a channel membership check.
// At most one verdict per user is kept; it is overwritten on every re-check
// and considered valid only while younger than the configured TTL.
type SubscriptionVerdict struct {
	UserId     int64     `json:"user_id"`
	Subscribed bool      `json:"subscribed"`
	CheckedAt  time.Time `json:"checked_at"`
}

func (v SubscriptionVerdict) Expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(v.CheckedAt) >= ttl
}
