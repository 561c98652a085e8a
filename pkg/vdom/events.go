package vdom

// EventHandler binds a handler to an "on"-prefixed event name.
type EventHandler struct {
	Event   string
	Handler func()
}

// event creates an EventHandler with the given name and handler.
// The name is prefixed with "on" (e.g., "click" becomes "onclick").
func event(name string, handler func()) EventHandler {
	return EventHandler{Event: "on" + name, Handler: handler}
}

// OnClick handles click events.
func OnClick(handler func()) EventHandler { return event("click", handler) }

// On handles an arbitrary event by name ("submit", "keydown", ...).
func On(name string, handler func()) EventHandler { return event(name, handler) }

// IsHandler reports whether a prop value is an event handler.
func IsHandler(value any) bool {
	switch h := value.(type) {
	case func():
		return h != nil
	default:
		return false
	}
}
