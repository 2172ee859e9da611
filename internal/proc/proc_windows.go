//go:build windows

package proc

import (
	"os/exec"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

// stillActive is the exit code GetExitCodeProcess reports for a running
// process.
const stillActive = 259

type sysHandle struct {
	job windows.Handle
}

func (h sysHandle) release() {
	if h.job != 0 {
		windows.CloseHandle(h.job)
	}
}

func prepare(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: windows.CREATE_NEW_PROCESS_GROUP,
	}
}

func attach(cmd *exec.Cmd) sysHandle {
	job, err := createJobObject()
	if err != nil {
		return sysHandle{}
	}
	if err := assignProcessToJob(job, cmd.Process.Pid); err != nil {
		windows.CloseHandle(job)
		return sysHandle{}
	}
	return sysHandle{job: job}
}

// Windows has no SIGTERM for GUI processes; terminate kills the main process
// and lets kill take the rest of the job down.
func terminate(cmd *exec.Cmd, _ sysHandle) error {
	return cmd.Process.Kill()
}

func kill(cmd *exec.Cmd, h sysHandle) error {
	if h.job != 0 {
		return windows.TerminateJobObject(h.job, 1)
	}
	return cmd.Process.Kill()
}

// Alive reports whether a process with the given pid exists.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return false
	}
	defer windows.CloseHandle(h)

	var code uint32
	if err := windows.GetExitCodeProcess(h, &code); err != nil {
		return false
	}
	return code == stillActive
}

func createJobObject() (windows.Handle, error) {
	job, err := windows.CreateJobObject(nil, nil)
	if err != nil {
		return 0, err
	}

	info := windows.JOBOBJECT_EXTENDED_LIMIT_INFORMATION{}
	info.BasicLimitInformation.LimitFlags = windows.JOB_OBJECT_LIMIT_KILL_ON_JOB_CLOSE
	_, err = windows.SetInformationJobObject(
		job,
		windows.JobObjectExtendedLimitInformation,
		uintptr(unsafe.Pointer(&info)),
		uint32(unsafe.Sizeof(info)),
	)
	if err != nil {
		windows.CloseHandle(job)
		return 0, err
	}

	return job, nil
}

func assignProcessToJob(job windows.Handle, pid int) error {
	handle, err := windows.OpenProcess(windows.PROCESS_SET_QUOTA|windows.PROCESS_TERMINATE, false, uint32(pid))
	if err != nil {
		return err
	}
	defer windows.CloseHandle(handle)

	return windows.AssignProcessToJobObject(job, handle)
}
