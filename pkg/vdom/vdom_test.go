package vdom

import "testing"

func TestVKindString(t *testing.T) {
	tests := []struct {
		kind VKind
		want string
	}{
		{KindElement, "Element"},
		{KindText, "Text"},
		{KindFragment, "Fragment"},
		{KindComponent, "Component"},
		{KindRaw, "Raw"},
		{VKind(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("VKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestCreateElement(t *testing.T) {
	clicked := false
	node := Button(
		Class("btn", "primary"),
		ID("inc"),
		nil,
		Key("k1"),
		OnClick(func() { clicked = true }),
		"Increment",
	)

	if node.Kind != KindElement || node.Tag != "button" {
		t.Fatalf("got kind %v tag %q", node.Kind, node.Tag)
	}
	if node.Props["class"] != "btn primary" {
		t.Errorf("class = %v, want %q", node.Props["class"], "btn primary")
	}
	if node.Props["id"] != "inc" {
		t.Errorf("id = %v, want inc", node.Props["id"])
	}
	if node.Key != "k1" {
		t.Errorf("Key = %q, want k1", node.Key)
	}
	if _, ok := node.Props["key"]; ok {
		t.Error("key should not be stored as a prop")
	}
	if len(node.Children) != 1 || node.Children[0].Text != "Increment" {
		t.Fatalf("children = %+v", node.Children)
	}
	if !node.IsInteractive() {
		t.Fatal("button with OnClick should be interactive")
	}

	node.Props["onclick"].(func())()
	if !clicked {
		t.Error("handler was not stored")
	}
}

func TestNilHandlerIsIgnored(t *testing.T) {
	node := Button(OnClick(nil), "x")
	if node.IsInteractive() {
		t.Error("nil handler should not make the element interactive")
	}
}

func TestFragmentAndTextContent(t *testing.T) {
	inner := Func(func() *VNode { return Span("!") })
	tree := Fragment(
		P("It works!"),
		nil,
		P(Textf("Count: %d", 3)),
		inner,
		Raw("<b>ignored</b>"),
	)

	if got := TextContent(tree); got != "It works!Count: 3!" {
		t.Errorf("TextContent() = %q", got)
	}
}

func TestExpandReplacesComponents(t *testing.T) {
	tree := Div(Func(func() *VNode { return P("inner") }), Func(func() *VNode { return nil }))
	Expand(tree)

	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 child after expand, got %d", len(tree.Children))
	}
	if tree.Children[0].Kind != KindElement || tree.Children[0].Tag != "p" {
		t.Errorf("expanded child = %+v", tree.Children[0])
	}
}

func TestAssignHIDsAndHandlers(t *testing.T) {
	var calls []string
	tree := Div(
		H1("Title"),
		Button(OnClick(func() { calls = append(calls, "a") }), "A"),
		Button(OnClick(func() { calls = append(calls, "b") }), On("dblclick", func() { calls = append(calls, "b2") }), "B"),
	)

	gen := NewHIDGenerator()
	AssignHIDs(tree, gen)

	if tree.HID != "" || tree.Children[0].HID != "" {
		t.Error("non-interactive elements should not get HIDs")
	}
	if tree.Children[1].HID != "h1" || tree.Children[2].HID != "h2" {
		t.Errorf("HIDs = %q, %q", tree.Children[1].HID, tree.Children[2].HID)
	}
	if gen.Current() != 2 {
		t.Errorf("Current() = %d, want 2", gen.Current())
	}

	handlers := Handlers(tree)
	if len(handlers) != 3 {
		t.Fatalf("len(handlers) = %d, want 3", len(handlers))
	}
	handlers["h2_ondblclick"]()
	handlers["h1_onclick"]()
	if len(calls) != 2 || calls[0] != "b2" || calls[1] != "a" {
		t.Errorf("calls = %v", calls)
	}

	if FindByHID(tree, "h2") != tree.Children[2] {
		t.Error("FindByHID(h2) did not return the second button")
	}
	if FindByHID(tree, "h9") != nil {
		t.Error("FindByHID(h9) should be nil")
	}
}

func TestHIDGeneratorReset(t *testing.T) {
	gen := NewHIDGenerator()
	gen.Next()
	gen.Next()
	gen.Reset()

	if gen.Current() != 0 {
		t.Errorf("After reset, Current() = %v, want 0", gen.Current())
	}
	if h := gen.Next(); h != "h1" {
		t.Errorf("After reset, Next() = %v, want h1", h)
	}
}

func TestIsVoidElement(t *testing.T) {
	if !IsVoidElement("meta") || IsVoidElement("p") {
		t.Error("IsVoidElement misclassified meta/p")
	}
}
