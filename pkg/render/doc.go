// Package render provides server-side rendering (SSR) of vdom trees.
//
// The renderer converts VNode trees into HTML, escaping text and attribute
// values, handling void and boolean attributes, and marking interactive
// elements with their hydration ID (data-hid) and the events they listen to
// (data-on-<event>). Event handlers themselves are never rendered.
//
//	renderer := render.NewRenderer(render.RendererConfig{})
//	html, err := renderer.RenderToString(node)
//
// Hydration IDs are not generated here; call vdom.AssignHIDs on the tree
// first when the output is meant to be interactive.
//
// RenderPage wraps a body tree in a complete HTML5 document.
package render
