package coordinator

import (
	"sync"
	"time"
	"vidgate/lib/clock"
)

type quotaCounter struct {
	day   string
	count int
}

// QuotaLedger tracks per-user download counts for the current calendar day.
// Rollover is lazy: a counter from a previous day is discarded the next time
// the user is looked up, never by a background timer.
type QuotaLedger struct {
	mu       sync.Mutex
	counters map[int64]quotaCounter
	limit    int
	now      func() time.Time
}

func NewQuotaLedger(dailyLimit int) *QuotaLedger {
	return &QuotaLedger{
		counters: make(map[int64]quotaCounter),
		limit:    dailyLimit,
		now:      time.Now,
	}
}

// countFor returns today's count for the user, discarding a stale-day
// counter. Callers must hold q.mu.
func (q *QuotaLedger) countFor(userId int64, today string) int {
	counter, ok := q.counters[userId]
	if !ok {
		return 0
	}
	if counter.day != today {
		delete(q.counters, userId)
		return 0
	}
	return counter.count
}

// Remaining returns how many downloads the user may still start today.
func (q *QuotaLedger) Remaining(userId int64) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	left := q.limit - q.countFor(userId, clock.DayKey(q.now()))
	if left < 0 {
		return 0
	}
	return left
}

func (q *QuotaLedger) CanConsume(userId int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.countFor(userId, clock.DayKey(q.now())) < q.limit
}

// Consume charges one download against the user's daily quota and returns
// the new count. Called at most once per actually-started download.
func (q *QuotaLedger) Consume(userId int64) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	today := clock.DayKey(q.now())
	count := q.countFor(userId, today) + 1
	q.counters[userId] = quotaCounter{day: today, count: count}
	return count
}

// ResetIn returns the time remaining until the daily quota rolls over.
func (q *QuotaLedger) ResetIn() time.Duration {
	return clock.UntilNextDay(q.now())
}
