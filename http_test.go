package tau

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	tauerrors "github.com/tau-dev/tau/internal/errors"
)

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, string(body)
}

func TestHandlerServesPage(t *testing.T) {
	a := newTestApp(t, Config{Title: "Counter", Theme: "dark"})
	count := NewCell(41)
	_ = a.Route("/", counterPage(a, count))
	if err := a.Navigate(context.Background(), "/"); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	code, body := get(t, srv.URL+"/")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	for _, want := range []string{
		"<title>Counter</title>",
		`data-theme="dark"`,
		`data-tau-ws="/_tau/ws"`,
		`id="tau-root"`,
		">41</span>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page should contain %q", want)
		}
	}

	code, body = get(t, srv.URL+HealthPath)
	if code != http.StatusOK || body != "ok" {
		t.Errorf("health: got %d %q", code, body)
	}

	code, body = get(t, srv.URL+MetricsPath)
	if code != http.StatusOK || !strings.Contains(body, "tau_") {
		t.Errorf("metrics: got %d", code)
	}
}

func TestHandlerServesStaticDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "app.css"), []byte("body{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	a := newTestApp(t, Config{StaticDir: dir})

	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	code, body := get(t, srv.URL+"/public/app.css")
	if code != http.StatusOK || body != "body{}" {
		t.Errorf("static: got %d %q", code, body)
	}
}

func TestHealthAfterShutdown(t *testing.T) {
	a := newTestApp(t, Config{})
	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	a.Shutdown(context.Background())
	if code, _ := get(t, srv.URL+HealthPath); code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 after shutdown, got %d", code)
	}
}

func TestWebSocketClickRoundTrip(t *testing.T) {
	a := newTestApp(t, Config{})
	count := NewCell(0)
	_ = a.Route("/", counterPage(a, count))

	connected := make(chan struct{}, 1)
	a.OnConnect(func(ctx context.Context) error {
		connected <- struct{}{}
		return nil
	})
	if err := a.Navigate(context.Background(), "/"); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + WebSocketPath
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	select {
	case <-connected:
	case <-time.After(2 * time.Second):
		t.Fatal("connect handler did not run")
	}

	if err := client.WriteMessage(websocket.TextMessage, []byte(`{"type":"click","id":"inc"}`)); err != nil {
		t.Fatal(err)
	}

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := client.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"type":"update_text","id":"count","value":"1"}` {
		t.Errorf("unexpected frame %s", data)
	}
}

func TestRunServesUntilCancelled(t *testing.T) {
	a := newTestApp(t, Config{Port: 0})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- a.Run(ctx, func(ctx context.Context, app *App) error {
			return app.Route("/", func(ctx context.Context) (Node, error) {
				return app.UI().Text("hello"), nil
			})
		})
	}()

	waitFor(t, func() bool { return a.Addr() != nil })
	base := "http://" + a.Addr().String()

	if code, _ := get(t, base+HealthPath); code != http.StatusOK {
		t.Fatalf("health: got %d", code)
	}
	if _, body := get(t, base+"/"); !strings.Contains(body, "hello") {
		t.Error("page should show the entry route")
	}
	if a.CurrentPath() != "/" {
		t.Errorf("expected current path /, got %q", a.CurrentPath())
	}

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return")
	}

	if err := a.Run(context.Background(), nil); err == nil {
		t.Error("second run should fail")
	}
}

func TestRunShutdownStopsRun(t *testing.T) {
	a := newTestApp(t, Config{Port: 0})

	errc := make(chan error, 1)
	go func() { errc <- a.Run(context.Background(), nil) }()
	waitFor(t, func() bool { return a.Addr() != nil })

	a.Shutdown(context.Background())
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after shutdown")
	}
}

func TestRunPortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	a := newTestApp(t, Config{Port: port})
	err = a.Run(context.Background(), nil)
	if !tauerrors.Is(err, tauerrors.CodeFatalStartup) {
		t.Fatalf("expected fatal startup error, got %v", err)
	}
	if !strings.Contains(tauerrors.FromError(err, "").Detail, strconv.Itoa(port)) {
		t.Errorf("error should name the port: %v", err)
	}
}

func TestRunDevTracksReloadState(t *testing.T) {
	a := newTestApp(t, Config{Dev: true, ProjectDir: t.TempDir()})
	if a.ReloadState() != ReloadIdle {
		t.Fatalf("expected idle before run, got %s", a.ReloadState())
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- a.Run(ctx, nil) }()

	waitFor(t, func() bool { return a.ReloadState() == ReloadWatching })
	tr := a.Transitions()
	if len(tr) == 0 || tr[0].From != ReloadIdle || tr[0].To != ReloadWatching {
		t.Errorf("unexpected transitions %+v", tr)
	}

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return")
	}
}
