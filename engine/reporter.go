//go:generate mockgen -destination=mock_listener.go -package=engine github.com/ethereum-optimism/infra/op-looper/engine Listener
package engine

import "sync"

// Listener receives the notifications it was registered for
type Listener interface {
	Notify(kind Kind, n Notification)
}

// ListenerFunc adapts a function to the Listener interface
type ListenerFunc func(kind Kind, n Notification)

func (f ListenerFunc) Notify(kind Kind, n Notification) {
	f(kind, n)
}

// Reporter fans notifications out to registered listeners.
// Delivery is synchronous, on the caller's goroutine, in registration order.
// A panicking listener is not recovered.
type Reporter struct {
	mu        sync.RWMutex
	listeners map[Kind][]Listener
}

// NewReporter creates a reporter with no listeners
func NewReporter() *Reporter {
	return &Reporter{
		listeners: make(map[Kind][]Listener),
	}
}

// Register subscribes l to each of the given kinds
func (r *Reporter) Register(l Listener, kinds ...Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, kind := range kinds {
		r.listeners[kind] = append(r.listeners[kind], l)
	}
}

// Registered reports whether any listener subscribed to kind
func (r *Reporter) Registered(kind Kind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners[kind]) > 0
}

// Notify delivers n to every listener registered for kind
func (r *Reporter) Notify(kind Kind, n Notification) {
	if r == nil {
		return
	}
	r.mu.RLock()
	listeners := r.listeners[kind]
	r.mu.RUnlock()

	for _, l := range listeners {
		l.Notify(kind, n)
	}
}
