package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/tau-dev/tau/pkg/telemetry"
)

func quietDispatcher() *Dispatcher {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), telemetry.NewMetrics())
}

func TestDispatchInvokesHandler(t *testing.T) {
	d := quietDispatcher()

	var got []Event
	d.Register("b1", Click, func(ctx context.Context, ev Event) error {
		got = append(got, ev)
		return nil
	})

	d.Dispatch(context.Background(), Event{WidgetID: "b1", Kind: Click})

	want := []Event{{WidgetID: "b1", Kind: Click}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDispatchUnknownIsNoop(t *testing.T) {
	d := quietDispatcher()

	calls := 0
	d.Register("b1", Click, func(context.Context, Event) error {
		calls++
		return nil
	})

	d.Dispatch(context.Background(), Event{WidgetID: "ghost", Kind: Click})
	d.Dispatch(context.Background(), Event{WidgetID: "b1", Kind: Input, Value: "x"})

	if calls != 0 {
		t.Errorf("expected no calls, got %d", calls)
	}
}

func TestRegisterLastWins(t *testing.T) {
	d := quietDispatcher()

	var which string
	d.Register("b1", Click, func(context.Context, Event) error { which = "first"; return nil })
	d.Register("b1", Click, func(context.Context, Event) error { which = "second"; return nil })

	d.Dispatch(context.Background(), Event{WidgetID: "b1", Kind: Click})

	if which != "second" {
		t.Errorf("expected last registration to win, got %q", which)
	}
	if d.Len() != 1 {
		t.Errorf("expected 1 binding, got %d", d.Len())
	}
}

func TestHandlerErrorIsContained(t *testing.T) {
	d := quietDispatcher()

	d.Register("b1", Click, func(context.Context, Event) error {
		return errors.New("boom")
	})

	// Must not panic or propagate.
	d.Dispatch(context.Background(), Event{WidgetID: "b1", Kind: Click})

	calls := 0
	d.Register("b2", Click, func(context.Context, Event) error { calls++; return nil })
	d.Dispatch(context.Background(), Event{WidgetID: "b2", Kind: Click})
	if calls != 1 {
		t.Errorf("dispatcher should keep working after a failing handler")
	}
}

func TestHandlerPanicIsContained(t *testing.T) {
	d := quietDispatcher()

	d.Register("b1", Click, func(context.Context, Event) error {
		panic("handler exploded")
	})

	d.Dispatch(context.Background(), Event{WidgetID: "b1", Kind: Click})

	if !d.Has("b1", Click) {
		t.Error("binding should survive a panic")
	}
}

func TestInputValueIsDelivered(t *testing.T) {
	d := quietDispatcher()

	var value string
	d.Register("i1", Input, func(_ context.Context, ev Event) error {
		value = ev.Value
		return nil
	})

	d.Dispatch(context.Background(), Event{WidgetID: "i1", Kind: Input, Value: "hello"})

	if value != "hello" {
		t.Errorf("expected hello, got %q", value)
	}
}

func TestUnregister(t *testing.T) {
	d := quietDispatcher()
	noop := func(context.Context, Event) error { return nil }

	d.Register("a", Click, noop)
	d.Register("a", Input, noop)
	d.Register("b", Click, noop)

	d.Unregister("a", Click)
	if d.Has("a", Click) || !d.Has("a", Input) {
		t.Error("Unregister should remove exactly one binding")
	}

	d.UnregisterAll("a")
	if d.Has("a", Input) {
		t.Error("UnregisterAll should remove every binding of the id")
	}
	if !reflect.DeepEqual(d.IDs(), []string{"b"}) {
		t.Errorf("unexpected ids %v", d.IDs())
	}

	d.Register("b", Click, nil)
	if d.Len() != 0 {
		t.Errorf("registering nil should remove, have %d", d.Len())
	}
}

func TestKindValid(t *testing.T) {
	if !Click.Valid() || !Input.Valid() {
		t.Error("click and input are valid")
	}
	if Kind("hover").Valid() {
		t.Error("hover is not a known kind")
	}
}
