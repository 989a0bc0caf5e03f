package coordinator

import (
	"sync"
	"testing"
	"time"
)

func TestQuotaConsumeToLimit(t *testing.T) {
	ledger := NewQuotaLedger(5)

	for i := 1; i <= 5; i++ {
		if !ledger.CanConsume(42) {
			t.Fatalf("CanConsume false before limit at count %d", i)
		}
		if count := ledger.Consume(42); count != i {
			t.Fatalf("expected count %d, got %d", i, count)
		}
	}

	if ledger.CanConsume(42) {
		t.Fatal("CanConsume true at the limit")
	}
	if remaining := ledger.Remaining(42); remaining != 0 {
		t.Fatalf("expected remaining 0, got %d", remaining)
	}
}

func TestQuotaDayRollover(t *testing.T) {
	ledger := NewQuotaLedger(5)
	current := time.Date(2026, 8, 31, 23, 0, 0, 0, time.Local)
	ledger.now = func() time.Time { return current }

	for i := 0; i < 5; i++ {
		ledger.Consume(42)
	}
	if ledger.CanConsume(42) {
		t.Fatal("expected the limit reached on day D")
	}

	// First access on day D+1 discards the stale counter.
	current = current.Add(2 * time.Hour)
	if remaining := ledger.Remaining(42); remaining != 5 {
		t.Fatalf("expected remaining 5 after rollover, got %d", remaining)
	}
	if !ledger.CanConsume(42) {
		t.Fatal("expected CanConsume true after rollover")
	}
	if count := ledger.Consume(42); count != 1 {
		t.Fatalf("expected a fresh counter after rollover, got %d", count)
	}
}

func TestQuotaUsersIndependent(t *testing.T) {
	ledger := NewQuotaLedger(2)

	ledger.Consume(1)
	ledger.Consume(1)

	if ledger.CanConsume(1) {
		t.Fatal("user 1 should be at the limit")
	}
	if !ledger.CanConsume(2) {
		t.Fatal("user 2 should be untouched")
	}
}

func TestQuotaConcurrentConsume(t *testing.T) {
	ledger := NewQuotaLedger(1000)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ledger.Consume(42)
		}()
	}
	wg.Wait()

	if remaining := ledger.Remaining(42); remaining != 900 {
		t.Fatalf("lost updates: expected remaining 900, got %d", remaining)
	}
}
