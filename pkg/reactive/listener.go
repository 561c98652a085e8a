package reactive

// Listener is anything that can be notified when a signal changes.
type Listener interface {
	// MarkDirty notifies the listener that a value it depends on changed.
	// For components, this schedules a re-render.
	MarkDirty()

	// ID returns a unique identifier for this listener.
	// Used to deduplicate subscriptions.
	ID() uint64
}

// funcListener adapts a plain function to the Listener interface.
type funcListener struct {
	id uint64
	fn func()
}

// ListenerFunc wraps fn in a Listener with a fresh ID.
// Each call returns a distinct listener, so subscribing the result of two
// ListenerFunc calls registers two listeners.
func ListenerFunc(fn func()) Listener {
	return &funcListener{id: nextID(), fn: fn}
}

func (l *funcListener) MarkDirty() {
	if l.fn != nil {
		l.fn()
	}
}

func (l *funcListener) ID() uint64 {
	return l.id
}
