// Package vdom provides the virtual DOM used by server-driven components.
//
// A component's Render method returns a VNode tree. The tree is rendered to
// HTML by package render, and its interactive elements (those carrying event
// handlers) are addressed by hydration IDs so that client events can be routed
// back to the right handler on the server.
//
// # Element API
//
// Elements are created using variadic factory functions:
//
//	Div(Class("card"), ID("main"),
//	    P(Text("Count: 0")),
//	    Button(OnClick(handler), Text("Increment")),
//	)
//
// # Hydration
//
// AssignHIDs walks the tree and assigns hydration IDs to interactive
// elements. Handlers returns the handler table keyed by those IDs.
package vdom
