package platform

import (
	"github.com/shirou/gopsutil/v4/process"
	"golang.org/x/sys/unix"
)

// PidAlive reports whether a process still exists. The cheap
// kill(pid, 0) probe is tried first; EPERM means alive-but-foreign.
func PidAlive(pid PID) bool {
	err := unix.Kill(int(pid), 0)
	if err == nil || err == unix.EPERM {
		return true
	}
	if err == unix.ESRCH {
		return false
	}
	ok, perr := process.PidExists(int32(pid))
	return perr == nil && ok
}

// ProcessName resolves a process name when the adapter did not supply
// one with the event.
func ProcessName(pid PID) string {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return ""
	}
	name, err := p.Name()
	if err != nil {
		return ""
	}
	return name
}
