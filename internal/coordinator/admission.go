package coordinator

import "sync"

// Load is a read-only snapshot of the admission gate for operational
// reporting.
type Load struct {
	Active  int     `json:"active"`
	Max     int     `json:"max"`
	Percent float64 `json:"percent"`
}

// AdmissionGate bounds the number of simultaneous downloads. The fetch is
// resource-heavy, so admission is checked before invoking the engine and
// the slot is released on every exit path.
type AdmissionGate struct {
	mu     sync.Mutex
	active int
	max    int
}

func NewAdmissionGate(maxConcurrent int) *AdmissionGate {
	return &AdmissionGate{max: maxConcurrent}
}

// TryAcquire grants a slot if one is free. Check and increment are a single
// critical section, so concurrent callers can never over-admit.
func (a *AdmissionGate) TryAcquire() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.active >= a.max {
		return false
	}
	a.active++
	return true
}

// Release frees a slot. The counter is floored at zero: a double release is
// a programming error on the caller's side and must not corrupt the gate.
func (a *AdmissionGate) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.active == 0 {
		return
	}
	a.active--
}

func (a *AdmissionGate) Load() Load {
	a.mu.Lock()
	defer a.mu.Unlock()

	percent := 0.0
	if a.max > 0 {
		percent = float64(a.active) / float64(a.max) * 100
	}
	return Load{Active: a.active, Max: a.max, Percent: percent}
}
