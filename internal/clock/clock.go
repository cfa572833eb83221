package clock

import (
	"sync"
	"time"
)

// Clock supplies the timestamp recorded on each accepted mutation.
type Clock interface {
	Now() time.Time
}

// System reads wall-clock time in UTC at second precision.
type System struct{}

func (System) Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// Monotonic wraps a Clock so successive readings never go backwards.
type Monotonic struct {
	mu   sync.Mutex
	base Clock
	last time.Time
}

func NewMonotonic(base Clock) *Monotonic {
	if base == nil {
		base = System{}
	}
	return &Monotonic{base: base}
}

func (m *Monotonic) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.base.Now()
	if now.Before(m.last) {
		return m.last
	}
	m.last = now
	return now
}
