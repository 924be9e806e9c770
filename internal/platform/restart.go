package platform

import (
	"os"
	"syscall"
)

// ExecRestarter re-executes the current binary in place, discarding all
// in-memory controller state.
type ExecRestarter struct{}

func (ExecRestarter) Restart() {
	exe, err := os.Executable()
	if err != nil {
		os.Exit(127)
	}
	_ = syscall.Exec(exe, os.Args, os.Environ())
	os.Exit(127)
}

// NopRestarter ignores restart requests. Default for the manual-vitals
// screen when no process restarter is attached.
type NopRestarter struct{}

func (NopRestarter) Restart() {}
