package confirm

import (
	"errors"
	"sync"
)

var (
	ErrAlreadyOpen = errors.New("confirm: a confirmation is already pending")
	ErrNotOpen     = errors.New("confirm: no confirmation is pending")
)

// Action is the destructive operation queued behind the confirmation.
type Action func() error

// Modal gates destructive actions behind an explicit confirm step. It
// is either closed or open with exactly one pending action. Cancel
// closes without running the action; Confirm runs it once and closes
// regardless of the action's outcome, returning its error so the
// caller can report it.
type Modal struct {
	mu      sync.Mutex
	open    bool
	label   string
	pending Action
}

func NewModal() *Modal {
	return &Modal{}
}

// Open queues action under a human-readable label. Fails if another
// confirmation is still pending.
func (m *Modal) Open(label string, action Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.open {
		return ErrAlreadyOpen
	}
	m.open = true
	m.label = label
	m.pending = action
	return nil
}

// Pending reports the label of the queued action, if any.
func (m *Modal) Pending() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.label, m.open
}

// Confirm runs the queued action and closes the modal whatever the
// action returns.
func (m *Modal) Confirm() error {
	m.mu.Lock()
	if !m.open {
		m.mu.Unlock()
		return ErrNotOpen
	}
	action := m.pending
	m.open = false
	m.label = ""
	m.pending = nil
	m.mu.Unlock()

	// Run outside the lock so a slow delete cannot block Pending.
	return action()
}

// Cancel closes the modal without running the action.
func (m *Modal) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open {
		return ErrNotOpen
	}
	m.open = false
	m.label = ""
	m.pending = nil
	return nil
}
