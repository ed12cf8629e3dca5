package server

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/lumi-launcher/backend/internal/logging"
	"github.com/shirou/gopsutil/v4/process"
)

// ProcessTerminator force-kills the process tree rooted at a pid.
// A pid that is already gone counts as success.
type ProcessTerminator interface {
	Terminate(ctx context.Context, pid uint32) error
}

// SignalTerminator sends SIGKILL to a process and all of its descendants.
type SignalTerminator struct{}

func NewSignalTerminator() *SignalTerminator {
	return &SignalTerminator{}
}

func (t *SignalTerminator) Terminate(ctx context.Context, pid uint32) error {
	log := logging.Component("terminator")

	root, err := process.NewProcessWithContext(ctx, int32(pid))
	if errors.Is(err, process.ErrorProcessNotRunning) {
		log.Warn("process_already_dead", "pid", pid)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: pid %d: %v", ErrTerminate, pid, err)
	}

	// Descendants first so the root cannot respawn them after it dies.
	tree := descendants(ctx, root)
	for i := len(tree) - 1; i >= 0; i-- {
		if err := tree[i].KillWithContext(ctx); err != nil {
			log.Warn("kill_child_failed", "pid", tree[i].Pid, "error", err)
		}
	}
	if err := root.KillWithContext(ctx); err != nil {
		log.Warn("kill_failed", "pid", pid, "error", err)
	}
	return nil
}

func descendants(ctx context.Context, p *process.Process) []*process.Process {
	var out []*process.Process
	children, err := p.ChildrenWithContext(ctx)
	if err != nil {
		return out
	}
	for _, child := range children {
		out = append(out, child)
		out = append(out, descendants(ctx, child)...)
	}
	return out
}

// TaskkillTerminator uses taskkill to end a whole process tree on Windows.
type TaskkillTerminator struct {
	executor CommandExecutor
}

func NewTaskkillTerminator(executor CommandExecutor) *TaskkillTerminator {
	return &TaskkillTerminator{executor: executor}
}

// Terminate fails only if taskkill itself cannot run. A non-zero exit usually means
// the process is already gone, so it is logged and treated as success.
func (t *TaskkillTerminator) Terminate(ctx context.Context, pid uint32) error {
	stdout, stderr, err := t.executor.Execute(ctx, "taskkill", "/PID", strconv.FormatUint(uint64(pid), 10), "/F", "/T")
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			logging.Component("terminator").Warn("taskkill_nonzero_exit",
				"pid", pid,
				"exit_code", exitErr.ExitCode(),
				"output", strings.TrimSpace(stdout+" "+stderr))
			return nil
		}
		return fmt.Errorf("%w: pid %d: %v", ErrTerminate, pid, err)
	}
	return nil
}
