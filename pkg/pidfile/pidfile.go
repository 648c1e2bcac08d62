// Package pidfile implements PID-file based single-instance enforcement
// and start/stop signalling for the bridge process.
package pidfile

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

type State string

const (
	StateRunning State = "running"
	StateStopped State = "stopped"
)

var (
	ErrAlreadyRunning = errors.New("process already running")
	ErrNotRunning     = errors.New("process not running")
)

// PathFor returns the conventional pid file name for the application.
func PathFor(appName string) string { return appName + ".pid" }

// Check reports whether the process named by the pid file is alive. A
// missing, unreadable, or stale pid file means stopped.
func Check(path string) (State, int) {
	data, err := os.ReadFile(path)
	if err != nil {
		return StateStopped, 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return StateStopped, 0
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return StateStopped, 0
	}
	// Signal 0 probes liveness without delivering anything.
	if err := proc.Signal(syscall.Signal(0)); err != nil {
		if errors.Is(err, syscall.EPERM) {
			return StateRunning, pid
		}
		return StateStopped, 0
	}
	return StateRunning, pid
}

// Write records the current process id, refusing when another live
// instance already owns the file.
func Write(path string) error {
	if state, pid := Check(path); state == StateRunning {
		return fmt.Errorf("%w with pid %d (pid file %s)", ErrAlreadyRunning, pid, path)
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

// Remove deletes the pid file. A missing file is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// SignalStop sends SIGINT to the process recorded in the pid file.
func SignalStop(path string) (int, error) {
	state, pid := Check(path)
	if state != StateRunning {
		return 0, fmt.Errorf("%w (pid file %s)", ErrNotRunning, path)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, err
	}
	if err := proc.Signal(syscall.SIGINT); err != nil {
		return 0, fmt.Errorf("signalling pid %d: %w", pid, err)
	}
	return pid, nil
}
