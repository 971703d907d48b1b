package ipc

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// programName participates in every runtime path.
const programName = "skyline"

// username returns $USER, which the socket contract requires.
func username() (string, error) {
	user := os.Getenv("USER")
	if user == "" {
		return "", fmt.Errorf("USER environment variable is not set")
	}
	return user, nil
}

// SocketPath returns the command socket path for the current user.
func SocketPath() (string, error) {
	user, err := username()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("/tmp/%s_%s.socket", programName, user), nil
}

// LockPath returns the single-instance lock file path.
func LockPath() (string, error) {
	user, err := username()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("/tmp/%s_%s.lock", programName, user), nil
}

// SAPath returns the scripting-addition channel socket path.
func SAPath() (string, error) {
	user, err := username()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("/tmp/%s-sa_%s.socket", programName, user), nil
}

// Lock is a held single-instance lock.
type Lock struct {
	file *os.File
}

// AcquireLock takes the exclusive daemon lock. A held lock means
// another daemon is running; the caller must refuse to start.
func AcquireLock() (*Lock, error) {
	path, err := LockPath()
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("another instance holds %s: %w", path, err)
	}
	return &Lock{file: f}, nil
}

// Release drops the lock.
func (l *Lock) Release() {
	if l.file != nil {
		unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
		l.file.Close()
		l.file = nil
	}
}
