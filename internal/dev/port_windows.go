//go:build windows

package dev

import (
	"context"
	"os/exec"
	"strconv"
)

func listPortPIDs(ctx context.Context, port int) ([]int, error) {
	out, err := exec.CommandContext(ctx, "netstat", "-ano").Output()
	if err != nil {
		return nil, err
	}
	return parseNetstat(string(out), port), nil
}

func killPID(ctx context.Context, pid int) error {
	return exec.CommandContext(ctx, "taskkill", "/PID", strconv.Itoa(pid), "/F").Run()
}
