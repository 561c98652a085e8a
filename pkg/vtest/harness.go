package vtest

import (
	"strings"
	"testing"

	"github.com/green-ecolution/demo-plugin/pkg/render"
	"github.com/green-ecolution/demo-plugin/pkg/vdom"
)

// Harness drives one mounted component.
type Harness struct {
	t        testing.TB
	comp     vdom.Component
	renderer *render.Renderer
	unmount  func()
}

// Mount wraps comp in a harness. Components with an Unmount method are
// unmounted when the test ends.
func Mount(t testing.TB, comp vdom.Component) *Harness {
	t.Helper()
	if comp == nil {
		t.Fatal("vtest: Mount with nil component")
	}

	h := &Harness{
		t:        t,
		comp:     comp,
		renderer: render.NewRenderer(render.RendererConfig{}),
	}
	if u, ok := comp.(interface{ Unmount() }); ok {
		var once bool
		h.unmount = func() {
			if !once {
				once = true
				u.Unmount()
			}
		}
		t.Cleanup(h.unmount)
	}
	return h
}

// Component returns the mounted component.
func (h *Harness) Component() vdom.Component {
	return h.comp
}

// Snapshot renders the component with fresh hydration IDs.
func (h *Harness) Snapshot() *render.Snapshot {
	h.t.Helper()
	snap, err := h.renderer.Snapshot(h.comp)
	if err != nil {
		h.t.Fatalf("vtest: render: %v", err)
	}
	return snap
}

// HTML returns the rendered HTML.
func (h *Harness) HTML() string {
	h.t.Helper()
	return h.Snapshot().HTML
}

// Text returns the text content of the rendered tree.
func (h *Harness) Text() string {
	return vdom.TextContent(vdom.Expand(h.comp.Render()))
}

// Click dispatches a click to the interactive element whose text is label.
// The test fails if there is no such element.
func (h *Harness) Click(label string) {
	h.t.Helper()
	h.Dispatch(label, "onclick")
}

// Dispatch runs the handler for event ("onclick", "onsubmit", ...) on the
// interactive element whose text is label.
func (h *Harness) Dispatch(label, event string) {
	h.t.Helper()

	tree := vdom.Expand(h.comp.Render())
	vdom.AssignHIDs(tree, vdom.NewHIDGenerator())

	var target *vdom.VNode
	vdom.Walk(tree, func(n *vdom.VNode) bool {
		if n.HID != "" && strings.TrimSpace(vdom.TextContent(n)) == label {
			target = n
			return false
		}
		return true
	})
	if target == nil {
		h.t.Fatalf("vtest: no interactive element labelled %q in:\n%s", label, truncate(h.HTML(), 500))
		return
	}

	handler, ok := vdom.Handlers(tree)[target.HID+"_"+event]
	if !ok {
		h.t.Fatalf("vtest: %q has no %s handler", label, event)
		return
	}
	handler()
}

// ExpectText fails the test unless the rendered text contains want.
func (h *Harness) ExpectText(want string) {
	h.t.Helper()
	if text := h.Text(); !strings.Contains(text, want) {
		h.t.Errorf("expected text %q, got %q", want, text)
	}
}

// ExpectNoText fails the test if the rendered text contains unwanted.
func (h *Harness) ExpectNoText(unwanted string) {
	h.t.Helper()
	if text := h.Text(); strings.Contains(text, unwanted) {
		h.t.Errorf("expected text not to contain %q, got %q", unwanted, text)
	}
}

// Unmount unmounts the component now instead of at the end of the test.
func (h *Harness) Unmount() {
	if h.unmount != nil {
		h.unmount()
	}
}
