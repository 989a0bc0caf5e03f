package entity

import "time"

// UserActivity tracks per-user bookkeeping for analytics. Counters only
// grow; the whole structure lives in memory and is lost on restart.
type UserActivity struct {
	FirstSeen      time.Time `json:"first_seen"`
	LastSeen       time.Time `json:"last_seen"`
	TotalDownloads int64     `json:"total_downloads"`
	Subscribed     bool      `json:"subscribed"`
}

// UsageSummary is a point-in-time aggregation over the analytics state.
type UsageSummary struct {
	TotalUsers       int              `json:"total_users"`
	SubscribedUsers  int              `json:"subscribed_users"`
	SubscriptionRate float64          `json:"subscription_rate_percent"`
	TodayDownloads   int64            `json:"today_downloads"`
	TotalDownloads   int64            `json:"total_downloads"`
	ActiveUsersToday int              `json:"active_users_today"`
	DailyBreakdown   map[string]int64 `json:"daily_breakdown"`
}
