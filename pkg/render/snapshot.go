package render

import (
	"fmt"

	"github.com/green-ecolution/demo-plugin/pkg/vdom"
)

// Snapshot is one rendered frame of a component: its HTML and the handler
// table for the hydration IDs it carries.
type Snapshot struct {
	HTML     string
	Handlers map[string]func()
}

// Dispatch runs the handler registered for hid and event ("onclick").
// It reports whether a handler was found.
func (s *Snapshot) Dispatch(hid, event string) bool {
	h, ok := s.Handlers[hid+"_"+event]
	if !ok {
		return false
	}
	h()
	return true
}

// Snapshot renders c with fresh hydration IDs. HIDs are assigned in document
// order starting at h1, so two snapshots of the same tree shape agree.
func (r *Renderer) Snapshot(c vdom.Component) (*Snapshot, error) {
	if c == nil {
		return nil, fmt.Errorf("render: nil component")
	}
	tree := vdom.Expand(c.Render())
	vdom.AssignHIDs(tree, vdom.NewHIDGenerator())

	html, err := r.RenderToString(tree)
	if err != nil {
		return nil, err
	}
	return &Snapshot{HTML: html, Handlers: vdom.Handlers(tree)}, nil
}
