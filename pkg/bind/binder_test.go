package bind

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/tau-dev/tau/pkg/dispatch"
	"github.com/tau-dev/tau/pkg/protocol"
	"github.com/tau-dev/tau/pkg/reactive"
	"github.com/tau-dev/tau/pkg/widget"
)

type recorder struct {
	msgs []protocol.Message
}

func (r *recorder) emit(m protocol.Message) { r.msgs = append(r.msgs, m) }

func newTestBinder() (*Binder, *dispatch.Dispatcher, *recorder) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := dispatch.New(logger, nil)
	rec := &recorder{}
	return New(d, rec.emit, logger), d, rec
}

func TestClickUpdatesText(t *testing.T) {
	b, d, rec := newTestBinder()
	f := widget.NewFactory(widget.NewCounterAllocator("tau"))

	count := reactive.NewCell(0)
	label := f.TextFunc(func() string { return fmt.Sprintf("Count: %d", count.Get()) }, count, widget.ID("t1"))
	button := f.Button("+1", func(context.Context, dispatch.Event) error {
		count.Update(func(n int) int { return n + 1 })
		return nil
	}, widget.ID("b1"))

	b.Bind(f.Div(label, button))

	d.Dispatch(context.Background(), dispatch.Event{WidgetID: "b1", Kind: dispatch.Click})

	want := []protocol.Message{protocol.UpdateText{ID: "t1", Value: "Count: 1"}}
	if !reflect.DeepEqual(rec.msgs, want) {
		t.Errorf("expected %v, got %v", want, rec.msgs)
	}
}

func TestBindIsIdempotent(t *testing.T) {
	b, d, rec := newTestBinder()
	f := widget.NewFactory(nil)

	count := reactive.NewCell(0)
	clicks := 0
	root := f.Div(
		f.TextFunc(func() string { return fmt.Sprint(count.Get()) }, count),
		f.Button("x", func(context.Context, dispatch.Event) error { clicks++; return nil }, widget.ID("btn")),
	)

	b.Bind(root)
	b.Bind(root)
	b.Bind(root)

	if count.SubscriberCount() != 1 {
		t.Errorf("expected 1 subscription after repeated binds, got %d", count.SubscriberCount())
	}
	if d.Len() != 1 {
		t.Errorf("expected 1 handler, got %d", d.Len())
	}

	count.Set(5)
	if len(rec.msgs) != 1 {
		t.Errorf("expected one update, got %d", len(rec.msgs))
	}

	d.Dispatch(context.Background(), dispatch.Event{WidgetID: "btn", Kind: dispatch.Click})
	if clicks != 1 {
		t.Errorf("handler should run once, ran %d times", clicks)
	}
}

func TestBindSubscribesExactlyDeclaredDeps(t *testing.T) {
	b, _, rec := newTestBinder()
	f := widget.NewFactory(nil)

	used := reactive.NewCell("a")
	unrelated := reactive.NewCell("z")

	// The value function reads unrelated, but only used is declared.
	f2 := f.TextFunc(func() string { return used.Get() + unrelated.Get() }, used, used)
	b.Bind(f2)

	if used.SubscriberCount() != 1 {
		t.Errorf("duplicate deps should subscribe once, got %d", used.SubscriberCount())
	}
	unrelated.Set("y")
	if len(rec.msgs) != 0 {
		t.Errorf("undeclared dependency must not trigger updates, got %v", rec.msgs)
	}
}

func TestRebindUnbindsRemovedNodes(t *testing.T) {
	b, d, _ := newTestBinder()
	f := widget.NewFactory(nil)

	count := reactive.NewCell(0)
	root := f.Div(widget.ID("root"))
	page1 := f.VStack(
		f.TextFunc(func() string { return fmt.Sprint(count.Get()) }, count, widget.ID("old-text")),
		f.Button("go", func(context.Context, dispatch.Event) error { return nil }, widget.ID("old-btn")),
	)
	root.SetChildren(page1)
	b.Bind(root)

	page2 := f.VStack(f.Text("about", widget.ID("about")))
	root.SetChildren(page2)
	b.Bind(root)

	if b.IsBound("old-text") || b.IsBound("old-btn") {
		t.Error("nodes of the previous page should be unbound")
	}
	if count.SubscriberCount() != 0 {
		t.Errorf("subscriptions of removed nodes should be dropped, have %d", count.SubscriberCount())
	}
	if d.Has("old-btn", dispatch.Click) {
		t.Error("handlers of removed nodes should be unregistered")
	}
	if !b.IsBound("about") || !b.IsBound("root") {
		t.Errorf("live nodes should be bound, have %v", b.Bound())
	}
}

func TestBoundInputEmitsUpdateInput(t *testing.T) {
	b, d, rec := newTestBinder()
	f := widget.NewFactory(nil)

	name := reactive.NewCell("")
	in := f.BoundInput(name, widget.ID("name"))
	b.Bind(f.Div(in))

	d.Dispatch(context.Background(), dispatch.Event{WidgetID: "name", Kind: dispatch.Input, Value: "Ada"})

	want := []protocol.Message{protocol.UpdateInput{ID: "name", Value: "Ada"}}
	if !reflect.DeepEqual(rec.msgs, want) {
		t.Errorf("expected %v, got %v", want, rec.msgs)
	}
}

func TestPanickingTextDoesNotEmit(t *testing.T) {
	b, _, rec := newTestBinder()
	f := widget.NewFactory(nil)

	n := reactive.NewCell(0)
	b.Bind(f.TextFunc(func() string {
		if n.Get() > 0 {
			panic("bad")
		}
		return "ok"
	}, n))

	n.Set(1)
	if len(rec.msgs) != 0 {
		t.Errorf("expected no message, got %v", rec.msgs)
	}
}

func TestReset(t *testing.T) {
	b, d, _ := newTestBinder()
	f := widget.NewFactory(nil)

	count := reactive.NewCell(0)
	b.Bind(f.Div(
		f.TextFunc(func() string { return "" }, count),
		f.Button("b", func(context.Context, dispatch.Event) error { return nil }),
	))

	b.Reset()

	if len(b.Bound()) != 0 || d.Len() != 0 || count.SubscriberCount() != 0 {
		t.Errorf("reset should clear everything: bound=%v handlers=%d subs=%d",
			b.Bound(), d.Len(), count.SubscriberCount())
	}
}
