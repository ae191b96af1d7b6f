package output

import (
	"sync"
	"time"
)

// Transition is a single recorded level change.
type Transition struct {
	At   time.Time
	High bool
}

// Mock simulates an output for tests and the desktop simulator. Every level
// change is recorded with a timestamp.
type Mock struct {
	mu          sync.RWMutex
	high        bool
	transitions []Transition
	onChange    func(high bool)

	// Err, when set, is returned by SetHigh and SetLow and the level is left
	// unchanged.
	Err error
}

// NewMock creates a mock output that starts low.
func NewMock() *Mock {
	return &Mock{
		transitions: make([]Transition, 0),
	}
}

// SetHigh drives the mock high.
func (m *Mock) SetHigh() error {
	return m.set(true)
}

// SetLow drives the mock low.
func (m *Mock) SetLow() error {
	return m.set(false)
}

// Read returns the current level.
func (m *Mock) Read() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.high
}

// OnChange registers a callback invoked after every write. The callback runs
// on the writer's goroutine.
func (m *Mock) OnChange(fn func(high bool)) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

// Transitions returns a copy of every recorded write.
func (m *Mock) Transitions() []Transition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Transition, len(m.transitions))
	copy(out, m.transitions)
	return out
}

// Rising returns the number of low-to-high writes recorded.
func (m *Mock) Rising() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	prev := false
	for _, t := range m.transitions {
		if t.High && !prev {
			count++
		}
		prev = t.High
	}
	return count
}

// Reset forgets recorded transitions.
func (m *Mock) Reset() {
	m.mu.Lock()
	m.transitions = m.transitions[:0]
	m.mu.Unlock()
}

func (m *Mock) set(high bool) error {
	m.mu.Lock()
	if m.Err != nil {
		err := m.Err
		m.mu.Unlock()
		return err
	}
	m.high = high
	m.transitions = append(m.transitions, Transition{At: time.Now(), High: high})
	fn := m.onChange
	m.mu.Unlock()

	if fn != nil {
		fn(high)
	}
	return nil
}
