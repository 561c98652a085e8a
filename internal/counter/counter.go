// Package counter implements the demo plugin's remote component: a label, the
// current count and an Increment button.
package counter

import (
	"sync/atomic"

	"github.com/green-ecolution/demo-plugin/pkg/federation"
	"github.com/green-ecolution/demo-plugin/pkg/reactive"
	"github.com/green-ecolution/demo-plugin/pkg/vdom"
)

// Label is the static text rendered above the count.
const Label = "It works!"

// ButtonLabel is the text of the increment control.
const ButtonLabel = "Increment"

// Counter is one mounted instance. Its state is owned by the instance and
// never shared; a fresh instance always starts at 0.
type Counter struct {
	count   *reactive.IntSignal
	mounted atomic.Bool
}

// New mounts a fresh counter with count 0.
func New() *Counter {
	c := &Counter{count: reactive.NewIntSignal(0)}
	c.mounted.Store(true)
	return c
}

// Factory returns a new counter as a vdom.Component. It is the factory
// registered for the exposed root module.
func Factory() vdom.Component {
	return New()
}

// Provide registers the counter under its internal entry in c.
func Provide(c *federation.Container) {
	c.Provide(federation.RootEntry, Factory)
}

// Count returns the current value.
func (c *Counter) Count() int {
	return c.count.Get()
}

// Increment replaces the count with count+1 and notifies subscribers.
// It is a no-op after Unmount. The mounted check runs under the signal's
// write lock, so an increment racing Unmount either lands first or not at all.
func (c *Counter) Increment() {
	c.count.Update(func(n int) int {
		if !c.mounted.Load() {
			return n
		}
		return n + 1
	})
}

// Subscribe registers fn to run after every state change and returns a
// function that removes it.
func (c *Counter) Subscribe(fn func()) func() {
	return c.count.Subscribe(reactive.ListenerFunc(fn))
}

// Unmount releases the instance: subscribers are dropped and further
// increments are ignored.
func (c *Counter) Unmount() {
	c.count.Update(func(n int) int {
		c.mounted.Store(false)
		return n
	})
	c.count.Dispose()
}

// Mounted reports whether the instance is still mounted.
func (c *Counter) Mounted() bool {
	return c.mounted.Load()
}

// Render implements vdom.Component.
func (c *Counter) Render() *vdom.VNode {
	return vdom.Fragment(
		vdom.P(Label),
		vdom.P(vdom.AriaLive("polite"), vdom.Textf("Count: %d", c.Count())),
		vdom.Button(vdom.Type("button"), vdom.OnClick(c.Increment), ButtonLabel),
	)
}
