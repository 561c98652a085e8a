// Package vtest provides testing helpers for components.
//
// A Harness mounts one component instance, renders it the way a live
// session does and dispatches events to it by the visible label of the
// element, so tests read like a user's script.
//
// # Quick Start
//
//	func TestCounter(t *testing.T) {
//	    h := vtest.Mount(t, counter.New())
//	    h.ExpectText("Count: 0")
//	    h.Click("Increment")
//	    h.ExpectText("Count: 1")
//	}
//
// The harness unmounts the instance when the test ends if the component
// has an Unmount method.
//
// # Render Assertions
//
// Assert on the HTML of a single node without mounting anything:
//
//	vtest.ExpectContains(t, node, "It works!")
//	vtest.ExpectNotContains(t, node, "Error")
//	vtest.ExpectElement(t, node, "button")
//	vtest.ExpectAttribute(t, node, "aria-live", "polite")
package vtest
