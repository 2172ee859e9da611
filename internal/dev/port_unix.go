//go:build !windows

package dev

import (
	"context"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	"github.com/tau-dev/tau/internal/proc"
)

// listPortPIDs asks lsof, then fuser, for the listeners of port. Missing
// tools yield no pids.
func listPortPIDs(ctx context.Context, port int) ([]int, error) {
	p := strconv.Itoa(port)

	if path, err := exec.LookPath("lsof"); err == nil {
		out, _ := exec.CommandContext(ctx, path, "-t", "-i", "tcp:"+p, "-sTCP:LISTEN").Output()
		if pids := parsePIDList(string(out)); len(pids) > 0 {
			return pids, nil
		}
	}

	if path, err := exec.LookPath("fuser"); err == nil {
		// fuser prints pids on stdout and the port label on stderr.
		out, _ := exec.CommandContext(ctx, path, p+"/tcp").Output()
		return parsePIDList(string(out)), nil
	}

	return nil, nil
}

func killPID(ctx context.Context, pid int) error {
	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		return err
	}
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if !proc.Alive(pid) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
	return syscall.Kill(pid, syscall.SIGKILL)
}
