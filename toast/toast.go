package toast

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long a toast stays visible without being dismissed.
const DefaultTTL = 5 * time.Second

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

type Toast struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Severity  Severity  `json:"severity"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier holds the currently visible toasts. Every pushed toast
// schedules its own removal after the TTL; Dismiss removes one early.
// Active returns toasts in insertion order.
type Notifier struct {
	mu     sync.Mutex
	ttl    time.Duration
	toasts map[string]Toast
	order  []string
	timers map[string]*time.Timer
	closed bool
}

func NewNotifier(ttl time.Duration) *Notifier {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Notifier{
		ttl:    ttl,
		toasts: make(map[string]Toast),
		timers: make(map[string]*time.Timer),
	}
}

func (n *Notifier) Success(text string) string { return n.Push(text, SeveritySuccess) }
func (n *Notifier) Error(text string) string   { return n.Push(text, SeverityError) }
func (n *Notifier) Info(text string) string    { return n.Push(text, SeverityInfo) }

func (n *Notifier) Push(text string, severity Severity) string {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return ""
	}

	id := uuid.New().String()
	n.toasts[id] = Toast{
		ID:        id,
		Text:      text,
		Severity:  severity,
		CreatedAt: time.Now(),
	}
	n.order = append(n.order, id)
	n.timers[id] = time.AfterFunc(n.ttl, func() {
		n.Dismiss(id)
	})
	return id
}

// Dismiss removes a toast before its timer fires. Returns false if the
// toast already expired or never existed.
func (n *Notifier) Dismiss(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.toasts[id]; !ok {
		return false
	}
	if t, ok := n.timers[id]; ok {
		t.Stop()
		delete(n.timers, id)
	}
	delete(n.toasts, id)
	for i, other := range n.order {
		if other == id {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
	return true
}

// Active returns the visible toasts, oldest first.
func (n *Notifier) Active() []Toast {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]Toast, 0, len(n.order))
	for _, id := range n.order {
		if t, ok := n.toasts[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Close stops all pending expiry timers and drops every toast.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.closed = true
	for id, t := range n.timers {
		t.Stop()
		delete(n.timers, id)
	}
	n.toasts = make(map[string]Toast)
	n.order = nil
}
