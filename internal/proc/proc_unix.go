//go:build !windows

package proc

import (
	stderrors "errors"
	"os/exec"
	"syscall"
)

type sysHandle struct {
	pgid int
}

func (sysHandle) release() {}

func prepare(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

func attach(cmd *exec.Cmd) sysHandle {
	pgid, err := syscall.Getpgid(cmd.Process.Pid)
	if err != nil {
		return sysHandle{}
	}
	return sysHandle{pgid: pgid}
}

func terminate(cmd *exec.Cmd, h sysHandle) error {
	if h.pgid > 0 {
		return syscall.Kill(-h.pgid, syscall.SIGTERM)
	}
	return cmd.Process.Signal(syscall.SIGTERM)
}

func kill(cmd *exec.Cmd, h sysHandle) error {
	if h.pgid > 0 {
		return syscall.Kill(-h.pgid, syscall.SIGKILL)
	}
	return cmd.Process.Kill()
}

// Alive reports whether a process with the given pid exists.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	if err == nil {
		return true
	}
	return stderrors.Is(err, syscall.EPERM)
}
