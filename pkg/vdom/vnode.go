package vdom

import "strings"

// VKind says how a VNode renders.
type VKind uint8

const (
	KindElement VKind = iota
	KindText
	KindFragment
	KindComponent
	KindRaw // trusted markup, written unescaped
)

var kindNames = [...]string{
	KindElement:   "Element",
	KindText:      "Text",
	KindFragment:  "Fragment",
	KindComponent: "Component",
	KindRaw:       "Raw",
}

func (k VKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// VNode is one node of a rendered tree. Which fields are meaningful depends
// on Kind: elements use Tag, Props and Children; text and raw nodes use
// Text; component nodes use Comp until Expand replaces them.
type VNode struct {
	Kind     VKind
	Tag      string
	Props    Props
	Children []*VNode

	// Key identifies the node among its siblings.
	Key string

	Text string
	Comp Component

	// HID addresses the node from the live session ("h1", "h2", ...).
	// Only elements with handlers get one.
	HID string
}

// Props maps attribute names and "on"-prefixed event names to values.
type Props map[string]any

// IsInteractive reports whether v is an element with at least one handler.
func (v *VNode) IsInteractive() bool {
	if v == nil || v.Kind != KindElement {
		return false
	}
	for key, value := range v.Props {
		if strings.HasPrefix(key, "on") && IsHandler(value) {
			return true
		}
	}
	return false
}

// Component is anything that can render itself.
type Component interface {
	Render() *VNode
}

type renderFunc func() *VNode

func (f renderFunc) Render() *VNode { return f() }

// Func adapts a render function to Component.
func Func(render func() *VNode) Component {
	return renderFunc(render)
}
