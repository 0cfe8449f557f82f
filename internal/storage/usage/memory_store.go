package usage

import (
	"context"
	"sync"
	"time"
)

// MemoryMeter is the in-process Meter used in tests and offline runs.
type MemoryMeter struct {
	mu     sync.Mutex
	counts map[string]int
	now    func() time.Time
}

func NewMemoryMeter() *MemoryMeter {
	return &MemoryMeter{counts: make(map[string]int), now: time.Now}
}

func (m *MemoryMeter) key(userID, feature string) string {
	return userID + "|" + feature + "|" + windowStart(m.now()).Format("2006-01-02")
}

func (m *MemoryMeter) Allow(ctx context.Context, userID, feature string, quota int) (Decision, error) {
	reset := windowReset(m.now())
	if quota <= 0 {
		return Decision{Allowed: true, Remaining: -1, ResetAt: reset}, nil
	}

	m.mu.Lock()
	used := m.counts[m.key(userID, feature)]
	m.mu.Unlock()

	remaining := quota - used
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: used < quota, Remaining: remaining, ResetAt: reset}, nil
}

func (m *MemoryMeter) Increment(ctx context.Context, userID, feature string) error {
	m.mu.Lock()
	m.counts[m.key(userID, feature)]++
	m.mu.Unlock()
	return nil
}
