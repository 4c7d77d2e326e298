package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/theirongolddev/tripwidget/internal/config"
)

// daemonFiles is the pid file plus the runtime state file written next to it.
type daemonFiles struct {
	pid   string
	state string
}

func newDaemonFiles(pidPath string) daemonFiles {
	if pidPath == "" {
		pidPath = filepath.Join(config.StateDir(), "tripwidgetd.pid")
	}
	base := strings.TrimSuffix(pidPath, filepath.Ext(pidPath))
	return daemonFiles{pid: pidPath, state: base + ".state.json"}
}

// claim fails when a live daemon holds the pid file and removes leftovers otherwise.
func (f daemonFiles) claim() error {
	pid, err := f.readPID()
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return err
	case processAlive(pid):
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}
	f.clear()
	return nil
}

func (f daemonFiles) write(st daemonRuntimeState) error {
	if err := os.MkdirAll(filepath.Dir(f.pid), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}
	if err := os.WriteFile(f.pid, []byte(strconv.Itoa(st.PID)+"\n"), 0o600); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	// The state file only enriches `daemon status`; the pid file is what counts.
	_ = os.WriteFile(f.state, append(data, '\n'), 0o600)
	return nil
}

func (f daemonFiles) clear() {
	_ = os.Remove(f.pid)
	_ = os.Remove(f.state)
}

func (f daemonFiles) readPID() (int, error) {
	data, err := os.ReadFile(f.pid) //nolint:gosec // pid path is configured by the local user
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %s", f.pid)
	}
	return pid, nil
}

func (f daemonFiles) readState() (daemonRuntimeState, error) {
	var st daemonRuntimeState
	data, err := os.ReadFile(f.state) //nolint:gosec // state path sits next to the pid file
	if err != nil {
		return st, err
	}
	return st, json.Unmarshal(data, &st)
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
