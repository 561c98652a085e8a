// Package reactive provides the observable value holders that drive component
// re-rendering.
//
// A Signal holds one value. Any write that changes the value notifies every
// subscribed Listener; components subscribe a listener that schedules a redraw.
//
//	count := reactive.NewIntSignal(0)
//	unsubscribe := count.Subscribe(reactive.ListenerFunc(func() {
//	    session.Rerender()
//	}))
//	count.Inc() // listener fires once
//	unsubscribe()
//
// Writes that do not change the value (as decided by the signal's equality
// function) do not notify.
package reactive
