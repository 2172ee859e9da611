package widget

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/tau-dev/tau/pkg/dispatch"
	"github.com/tau-dev/tau/pkg/reactive"
)

func TestCounterAllocator(t *testing.T) {
	a := NewCounterAllocator("tau")
	if got := a.Next(); got != "tau_1" {
		t.Errorf("expected tau_1, got %s", got)
	}
	if got := a.Next(); got != "tau_2" {
		t.Errorf("expected tau_2, got %s", got)
	}
	if a.Current() != 2 {
		t.Errorf("expected current 2, got %d", a.Current())
	}
}

func TestAllocatorsAreIndependent(t *testing.T) {
	// Two apps in one process must not share an id space.
	a := NewFactory(NewCounterAllocator("tau"))
	b := NewFactory(NewCounterAllocator("tau"))

	if a.Div().ID() != "tau_1" || b.Div().ID() != "tau_1" {
		t.Error("each factory should start its own sequence")
	}
}

func TestULIDAllocatorUnique(t *testing.T) {
	a := NewULIDAllocator("w")

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := a.Next()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != 20 {
		t.Errorf("expected 20 unique ids, got %d", len(seen))
	}
	for id := range seen {
		if !strings.HasPrefix(id, "w_") {
			t.Errorf("unexpected id %s", id)
		}
	}
}

func TestFactoryIDOverride(t *testing.T) {
	f := NewFactory(nil)
	d := f.Div(ID("main"), Class("a"), Class("b"))

	if d.ID() != "main" {
		t.Errorf("expected id main, got %s", d.ID())
	}
	attrs := d.Attrs()
	if len(attrs) != 1 || attrs[0].Value != "a b" {
		t.Errorf("expected merged class attr, got %v", attrs)
	}
}

func TestElementChildren(t *testing.T) {
	f := NewFactory(nil)
	a := f.Text("a")
	b := f.Text("b")
	root := f.Div(a, nil, "c", []Node{b})

	kids := root.Children()
	if len(kids) != 3 {
		t.Fatalf("expected 3 children, got %d", len(kids))
	}
	if kids[0] != Node(a) || kids[2] != Node(b) {
		t.Error("children out of order")
	}
	if kids[1].(*Text).Eval() != "c" {
		t.Error("string argument should become a text child")
	}

	// Mutating the returned slice must not affect the element.
	kids[0] = nil
	if root.Children()[0] == nil {
		t.Error("Children should return a copy")
	}

	root.SetChildren(b)
	if len(root.Children()) != 1 {
		t.Error("SetChildren should replace")
	}
	root.Append(a)
	if len(root.Children()) != 2 {
		t.Error("Append should add")
	}
}

func TestTextFuncDeps(t *testing.T) {
	f := NewFactory(nil)
	count := reactive.NewCell(1)

	static := f.Text("hello")
	if len(static.Deps()) != 0 {
		t.Error("static text has no deps")
	}

	dyn := f.TextFunc(func() string {
		if count.Get() > 1 {
			return "many"
		}
		return "one"
	}, count)

	if len(dyn.Deps()) != 1 || dyn.Deps()[0].ID() != count.ID() {
		t.Errorf("expected exactly the declared dep, got %v", dyn.Deps())
	}
	if dyn.Eval() != "one" {
		t.Errorf("got %q", dyn.Eval())
	}
	count.Set(2)
	if dyn.Eval() != "many" {
		t.Errorf("got %q", dyn.Eval())
	}
}

func TestSafeEvalRecovers(t *testing.T) {
	f := NewFactory(nil)
	bad := f.TextFunc(func() string { panic("nope") }, reactive.NewCell(0))

	if _, err := SafeEval(bad); err == nil {
		t.Error("expected error from panicking value function")
	}
	v, err := SafeEval(f.Text("ok"))
	if err != nil || v != "ok" {
		t.Errorf("got %q, %v", v, err)
	}
}

func TestButtonBindings(t *testing.T) {
	f := NewFactory(nil)

	plain := f.Button("noop", nil)
	if len(plain.Bindings()) != 0 {
		t.Error("button without handler has no bindings")
	}

	b := f.Button("go", func(context.Context, dispatch.Event) error { return nil })
	bs := b.Bindings()
	if len(bs) != 1 || bs[0].Kind != dispatch.Click {
		t.Errorf("unexpected bindings %v", bs)
	}
	if b.Label() != "go" {
		t.Errorf("label = %q", b.Label())
	}
}

func TestBoundInput(t *testing.T) {
	f := NewFactory(nil)
	name := reactive.NewCell("Ada")

	var seen string
	in := f.BoundInput(name, Placeholder("name"))

	if in.Placeholder() != "name" {
		t.Errorf("placeholder = %q", in.Placeholder())
	}
	if in.Eval() != "Ada" {
		t.Errorf("value = %q", in.Eval())
	}
	if len(in.Deps()) != 1 {
		t.Fatalf("bound input depends on its cell")
	}

	name.Subscribe(func(v string) { seen = v })

	bs := in.Bindings()
	if len(bs) != 1 || bs[0].Kind != dispatch.Input {
		t.Fatalf("unexpected bindings %v", bs)
	}
	if err := bs[0].Handler(context.Background(), dispatch.Event{WidgetID: in.ID(), Kind: dispatch.Input, Value: "Grace"}); err != nil {
		t.Fatal(err)
	}
	if name.Get() != "Grace" || seen != "Grace" {
		t.Errorf("input event should write the cell, got %q / %q", name.Get(), seen)
	}
}

func TestWalkAndFind(t *testing.T) {
	f := NewFactory(nil)
	leaf := f.Text("leaf", ID("leaf"))
	root := f.VStack(f.HStack(leaf), f.Text("other"))

	var order []string
	Walk(root, func(n Node) bool {
		order = append(order, n.ID())
		return true
	})
	if len(order) != 4 || order[0] != root.ID() {
		t.Errorf("unexpected walk order %v", order)
	}

	if Find(root, "leaf") != Node(leaf) {
		t.Error("Find should locate the leaf")
	}
	if Find(root, "missing") != nil {
		t.Error("Find should return nil for unknown ids")
	}
}
