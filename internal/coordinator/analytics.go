package coordinator

import (
	"sync"
	"time"
	"vidgate/entity"
	"vidgate/lib/clock"
)

// AnalyticsAggregator keeps running usage counters derived from coordinator
// events. Everything is in memory and starts from zero on restart.
type AnalyticsAggregator struct {
	mu             sync.Mutex
	users          map[int64]*entity.UserActivity
	daily          map[string]int64
	totalDownloads int64
	now            func() time.Time
}

func NewAnalyticsAggregator() *AnalyticsAggregator {
	return &AnalyticsAggregator{
		users: make(map[int64]*entity.UserActivity),
		daily: make(map[string]int64),
		now:   time.Now,
	}
}

// activity returns the user's record, creating it on first sight.
// Callers must hold a.mu.
func (a *AnalyticsAggregator) activity(userId int64) *entity.UserActivity {
	user, ok := a.users[userId]
	if !ok {
		user = &entity.UserActivity{FirstSeen: a.now()}
		a.users[userId] = user
	}
	return user
}

// OnActivity updates first-seen/last-seen bookkeeping for the user.
func (a *AnalyticsAggregator) OnActivity(userId int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.activity(userId).LastSeen = a.now()
}

// OnSubscriptionVerdict records the latest verdict for the user. Only the
// most recent verdict counts towards the subscribed-users total.
func (a *AnalyticsAggregator) OnSubscriptionVerdict(userId int64, subscribed bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.activity(userId).Subscribed = subscribed
}

// OnDownloadConfirmed bumps the per-day global counter and the user's
// lifetime total.
func (a *AnalyticsAggregator) OnDownloadConfirmed(userId int64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.activity(userId).TotalDownloads++
	a.daily[clock.DayKey(a.now())]++
	a.totalDownloads++
}

// Summary aggregates the current state. The subscription rate is zero when
// no users have been seen.
func (a *AnalyticsAggregator) Summary() entity.UsageSummary {
	a.mu.Lock()
	defer a.mu.Unlock()

	today := clock.DayKey(a.now())
	summary := entity.UsageSummary{
		TotalUsers:     len(a.users),
		TodayDownloads: a.daily[today],
		TotalDownloads: a.totalDownloads,
		DailyBreakdown: make(map[string]int64, len(a.daily)),
	}
	for day, count := range a.daily {
		summary.DailyBreakdown[day] = count
	}
	for _, user := range a.users {
		if user.Subscribed {
			summary.SubscribedUsers++
		}
		if clock.DayKey(user.LastSeen) == today {
			summary.ActiveUsersToday++
		}
	}
	if summary.TotalUsers > 0 {
		summary.SubscriptionRate = float64(summary.SubscribedUsers) / float64(summary.TotalUsers) * 100
	}
	return summary
}
