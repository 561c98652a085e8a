package vdom

import (
	"fmt"
	"sync"
)

// HIDGenerator generates unique hydration IDs for interactive elements.
type HIDGenerator struct {
	counter uint32
	mu      sync.Mutex
}

// NewHIDGenerator creates a new HIDGenerator.
func NewHIDGenerator() *HIDGenerator {
	return &HIDGenerator{}
}

// Next returns the next hydration ID (e.g., "h1", "h2", ...).
func (g *HIDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("h%d", g.counter)
}

// Reset resets the counter to 0.
func (g *HIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter = 0
}

// Current returns the current counter value without incrementing.
func (g *HIDGenerator) Current() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counter
}

// Expand replaces component nodes with their rendered output, recursively,
// so that the returned tree contains only elements, text, fragments and raw
// nodes. The input tree is modified in place.
func Expand(node *VNode) *VNode {
	if node == nil {
		return nil
	}
	if node.Kind == KindComponent {
		if node.Comp == nil {
			return nil
		}
		return Expand(node.Comp.Render())
	}
	children := node.Children[:0]
	for _, child := range node.Children {
		if expanded := Expand(child); expanded != nil {
			children = append(children, expanded)
		}
	}
	node.Children = children
	return node
}

// AssignHIDs walks the tree and assigns HIDs to interactive elements.
// An element is interactive if it has event handlers (props starting with "on").
func AssignHIDs(node *VNode, gen *HIDGenerator) {
	if node == nil {
		return
	}

	if node.Kind == KindElement && node.IsInteractive() {
		node.HID = gen.Next()
	}

	for _, child := range node.Children {
		AssignHIDs(child, gen)
	}
}

// FindByHID finds a node by its HID in the tree.
func FindByHID(node *VNode, hid string) *VNode {
	var found *VNode
	Walk(node, func(n *VNode) bool {
		if n.HID == hid {
			found = n
			return false
		}
		return true
	})
	return found
}

// Handlers returns the handler table for a tree whose HIDs have been
// assigned. Keys have the form "<hid>_<event>", e.g. "h1_onclick".
func Handlers(node *VNode) map[string]func() {
	table := make(map[string]func())
	Walk(node, func(n *VNode) bool {
		if n.HID == "" {
			return true
		}
		for key, value := range n.Props {
			if h, ok := value.(func()); ok && h != nil {
				table[n.HID+"_"+key] = h
			}
		}
		return true
	})
	return table
}
