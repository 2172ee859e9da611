package dev

import (
	"bufio"
	"context"
	"log/slog"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/tau-dev/tau/internal/proc"
)

// PortReclaimer frees a TCP port held by other processes.
type PortReclaimer interface {
	Reclaim(ctx context.Context, port int) error
}

// SystemReclaimer finds the processes listening on a port with the platform
// tools (lsof or fuser, netstat on Windows) and kills every one except
// itself.
type SystemReclaimer struct {
	// Self is never killed. Defaults to os.Getpid().
	Self int

	// Wait bounds how long Reclaim waits for the port to become free.
	// Defaults to 2s.
	Wait time.Duration

	Logger *slog.Logger
}

// Reclaim implements PortReclaimer. A port that is already free is not an
// error.
func (r *SystemReclaimer) Reclaim(ctx context.Context, port int) error {
	if PortFree(port) {
		return nil
	}

	self := r.Self
	if self == 0 {
		self = os.Getpid()
	}
	log := logger(r.Logger)

	pids, err := listPortPIDs(ctx, port)
	if err != nil {
		return errors.Wrapf(err, "list holders of port %d", port)
	}

	for _, pid := range pids {
		if pid == self || !proc.Alive(pid) {
			continue
		}
		log.Info("killing port holder", "port", port, "pid", pid)
		if err := killPID(ctx, pid); err != nil {
			log.Warn("kill port holder failed", "pid", pid, "error", err)
		}
	}

	wait := r.Wait
	if wait <= 0 {
		wait = 2 * time.Second
	}
	return WaitPortFree(ctx, port, wait)
}

// PortFree reports whether a TCP listener can be opened on port.
func PortFree(port int) bool {
	ln, err := net.Listen("tcp", "127.0.0.1:"+strconv.Itoa(port))
	if err != nil {
		return false
	}
	_ = ln.Close()
	return true
}

// WaitPortFree polls until port is free or wait elapses.
func WaitPortFree(ctx context.Context, port int, wait time.Duration) error {
	deadline := time.Now().Add(wait)
	for {
		if PortFree(port) {
			return nil
		}
		if time.Now().After(deadline) {
			return errors.Errorf("port %d still in use after %s", port, wait)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

// parsePIDList parses whitespace separated process ids, as printed by
// "lsof -t" and "fuser". Non-numeric tokens are skipped and the result is
// sorted and unique.
func parsePIDList(output string) []int {
	seen := make(map[int]struct{})
	for _, field := range strings.FieldsFunc(output, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == ':'
	}) {
		pid, err := strconv.Atoi(strings.TrimRight(field, "ceFfmrx"))
		if err != nil || pid <= 0 {
			continue
		}
		seen[pid] = struct{}{}
	}
	return sortedPIDs(seen)
}

// parseNetstat extracts the pids listening on port from "netstat -ano".
func parseNetstat(output string, port int) []int {
	suffix := ":" + strconv.Itoa(port)
	seen := make(map[int]struct{})

	sc := bufio.NewScanner(strings.NewReader(output))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 5 || !strings.EqualFold(fields[0], "TCP") {
			continue
		}
		if !strings.HasSuffix(fields[1], suffix) || !strings.EqualFold(fields[3], "LISTENING") {
			continue
		}
		pid, err := strconv.Atoi(fields[len(fields)-1])
		if err != nil || pid <= 0 {
			continue
		}
		seen[pid] = struct{}{}
	}
	return sortedPIDs(seen)
}

func sortedPIDs(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for pid := range set {
		out = append(out, pid)
	}
	sort.Ints(out)
	return out
}
