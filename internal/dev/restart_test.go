package dev

import (
	"bytes"
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tau-dev/tau/internal/devui"
	"github.com/tau-dev/tau/pkg/protocol"
)

type recordingReclaimer struct {
	ports []int
	log   *[]string
}

func (r *recordingReclaimer) Reclaim(_ context.Context, port int) error {
	r.ports = append(r.ports, port)
	*r.log = append(*r.log, "reclaim")
	return nil
}

func TestHardRestartOrder(t *testing.T) {
	var log []string
	b := &recordingBroadcaster{}
	reclaimer := &recordingReclaimer{log: &log}

	r := &HardRestart{
		Broadcaster: b,
		Settle:      time.Millisecond,
		Teardown: []func(context.Context) error{
			func(context.Context) error { log = append(log, "hub"); return nil },
			func(context.Context) error { log = append(log, "window"); return stderrors.New("already gone") },
			func(context.Context) error { log = append(log, "listener"); return nil },
		},
		Port:      8000,
		Reclaimer: reclaimer,
		Handover: HandoverFunc(func(context.Context) error {
			log = append(log, "handover")
			return nil
		}),
	}

	require.NoError(t, r.Restart(context.Background(), []Change{{Path: "main.go"}}))
	require.Equal(t, []string{"hub", "window", "listener", "reclaim", "handover"}, log)
	require.Equal(t, []int{8000}, reclaimer.ports)

	msgs := b.messages()
	require.Len(t, msgs, 1)
	require.Equal(t, protocol.TypeHotReload, msgs[0].Type())
}

func TestHardRestartHandoverFailure(t *testing.T) {
	r := &HardRestart{
		Settle: time.Millisecond,
		Handover: HandoverFunc(func(context.Context) error {
			return stderrors.New("exec failed")
		}),
	}
	require.EqualError(t, r.Restart(context.Background(), nil), "exec failed")
}

type unreadyHandover struct{ called bool }

func (h *unreadyHandover) Ready() error { return stderrors.New("binary missing") }

func (h *unreadyHandover) Handover(context.Context) error {
	h.called = true
	return nil
}

func TestHardRestartKeepsRunningWhenHandoverNotReady(t *testing.T) {
	torn := 0
	b := &recordingBroadcaster{}
	handover := &unreadyHandover{}
	r := &HardRestart{
		Broadcaster: b,
		Settle:      time.Millisecond,
		Teardown: []func(context.Context) error{
			func(context.Context) error { torn++; return nil },
		},
		Handover: handover,
	}

	require.EqualError(t, r.Restart(context.Background(), nil), "binary missing")
	require.Zero(t, torn)
	require.Empty(t, b.messages())
	require.False(t, handover.called)
}

func TestHardRestartWithMissingExecBinary(t *testing.T) {
	torn := 0
	r := &HardRestart{
		Settle: time.Millisecond,
		Teardown: []func(context.Context) error{
			func(context.Context) error { torn++; return nil },
		},
		Handover: ExecHandover{Binary: filepath.Join(t.TempDir(), "app")},
	}

	require.Error(t, r.Restart(context.Background(), nil))
	require.Zero(t, torn)
}

func TestHardRestartRequiresHandover(t *testing.T) {
	require.Error(t, (&HardRestart{}).Restart(context.Background(), nil))
}

func TestSoftRestart(t *testing.T) {
	b := &recordingBroadcaster{}
	reloads := 0
	r := &SoftRestart{
		Reload: func(context.Context) error {
			reloads++
			return nil
		},
		Broadcaster: b,
	}

	require.NoError(t, r.Restart(context.Background(), nil))
	require.Equal(t, 1, reloads)
	require.Len(t, b.messages(), 1)
	require.Equal(t, protocol.TypeHotReload, b.messages()[0].Type())
}

func TestSoftRestartReportsGoChanges(t *testing.T) {
	var out bytes.Buffer
	r := &SoftRestart{
		Reload:  func(context.Context) error { return nil },
		Console: devui.New(&out),
	}

	require.NoError(t, r.Restart(context.Background(), []Change{{Path: "/proj/data/items.json", Op: OpModified}}))
	require.Empty(t, out.String())

	require.NoError(t, r.Restart(context.Background(), []Change{
		{Path: "/proj/data/items.json", Op: OpModified},
		{Path: "/proj/pages/home.go", Op: OpModified},
	}))
	require.Contains(t, out.String(), "home.go")
	require.NotContains(t, out.String(), "items.json")
}

func TestSoftRestartError(t *testing.T) {
	b := &recordingBroadcaster{}
	r := &SoftRestart{
		Reload:      func(context.Context) error { return stderrors.New("entry panicked") },
		Broadcaster: b,
	}

	require.Error(t, r.Restart(context.Background(), nil))
	require.Empty(t, b.messages())
	require.Error(t, (&SoftRestart{}).Restart(context.Background(), nil))
}

func TestExitHandover(t *testing.T) {
	code := -1
	h := ExitHandover{Exit: func(c int) { code = c }}
	require.NoError(t, h.Handover(context.Background()))
	require.Equal(t, RestartExitCode, code)
}

func TestExecHandoverMissingBinary(t *testing.T) {
	h := ExecHandover{Binary: "/nonexistent/tau-app"}
	require.Error(t, h.Ready())
	require.Error(t, h.Handover(context.Background()))
	require.Error(t, ExecHandover{Binary: t.TempDir()}.Ready())
}

func TestForwardArgs(t *testing.T) {
	require.Equal(t, []string{"--port", "9000", "--dev"}, ForwardArgs([]string{"--port", "9000"}))
	require.Equal(t, []string{"--dev", "--no-window"}, ForwardArgs([]string{"--dev", "--no-window"}))
	require.Equal(t, []string{"--dev"}, ForwardArgs(nil))
}

func TestSupervised(t *testing.T) {
	t.Setenv(EnvSupervised, "1")
	require.True(t, Supervised())
	t.Setenv(EnvSupervised, "")
	require.False(t, Supervised())
}
