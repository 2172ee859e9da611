package devui

import (
	"bytes"
	"strings"
	"testing"
)

func TestBanner(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Banner(BannerInfo{
		App:    "counter",
		URL:    "http://127.0.0.1:8000",
		Policy: "soft",
		Watch:  "poll",
	})

	out := buf.String()
	for _, want := range []string{"Ready", "counter", "http://127.0.0.1:8000", "Development", "soft"} {
		if !strings.Contains(out, want) {
			t.Errorf("banner missing %q:\n%s", want, out)
		}
	}
}

func TestHMRTriggerUsesBaseNames(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).HMRTrigger([]string{"/proj/main.go", "/proj/ui/page.go"})

	out := buf.String()
	if !strings.Contains(out, "main.go, page.go") {
		t.Errorf("unexpected output %q", out)
	}
	if strings.Contains(out, "/proj") {
		t.Errorf("paths should be shortened, got %q", out)
	}
}

func TestNotices(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)
	c.Restart()
	c.Connected()
	c.BuildError("main.go:3:1: syntax error")

	out := buf.String()
	for _, want := range []string{"Restarting backend", "WebSocket connected", "syntax error"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSoftReloadNotice(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).SoftReloadNotice([]string{"/proj/main.go"})

	out := buf.String()
	for _, want := range []string{"keeps the running code", "main.go", "hard"} {
		if !strings.Contains(out, want) {
			t.Errorf("notice missing %q:\n%s", want, out)
		}
	}
}
