package webstate

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/atfitk/websystem-api/internal/client"
)

// DefaultToastTTL is how long a notification stays visible.
const DefaultToastTTL = 3500 * time.Millisecond

type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
	ToastInfo    ToastKind = "info"
)

type Toast struct {
	ID      string
	Kind    ToastKind
	Message string
}

// Toasts is a timed notification queue. Each toast is removed after the TTL
// or when dismissed, whichever comes first.
type Toasts struct {
	mu     sync.Mutex
	ttl    time.Duration
	items  []Toast
	timers map[string]*time.Timer
}

// NewToasts builds a queue; ttl <= 0 selects DefaultToastTTL.
func NewToasts(ttl time.Duration) *Toasts {
	if ttl <= 0 {
		ttl = DefaultToastTTL
	}
	return &Toasts{ttl: ttl, timers: make(map[string]*time.Timer)}
}

func (t *Toasts) Success(message string) string { return t.push(ToastSuccess, message) }
func (t *Toasts) Error(message string) string   { return t.push(ToastError, message) }
func (t *Toasts) Info(message string) string    { return t.push(ToastInfo, message) }

// Failure shows err as an error toast, preferring text meant for the user.
func (t *Toasts) Failure(err error) string {
	return t.Error(userMessage(err))
}

// Dismiss removes a toast early. Unknown ids are ignored.
func (t *Toasts) Dismiss(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.timers[id]; ok {
		timer.Stop()
		delete(t.timers, id)
	}
	t.remove(id)
}

// Active returns the visible toasts in arrival order.
func (t *Toasts) Active() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Toast, len(t.items))
	copy(out, t.items)
	return out
}

// Close stops all pending timers and clears the queue.
func (t *Toasts) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
	}
	t.items = nil
}

func (t *Toasts) push(kind ToastKind, message string) string {
	id := uuid.NewString()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = append(t.items, Toast{ID: id, Kind: kind, Message: message})
	t.timers[id] = time.AfterFunc(t.ttl, func() { t.expire(id) })
	return id
}

func (t *Toasts) expire(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.timers, id)
	t.remove(id)
}

func (t *Toasts) remove(id string) {
	for i, item := range t.items {
		if item.ID == id {
			t.items = append(t.items[:i], t.items[i+1:]...)
			return
		}
	}
}

func userMessage(err error) string {
	if errors.Is(err, ErrFullNameRequired) {
		return FullNameRequiredMessage
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
