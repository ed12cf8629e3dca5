package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lumi-launcher/backend/internal/config"
	"github.com/lumi-launcher/backend/internal/logging"
)

var (
	ErrCoreNotFound    = errors.New("core archive not found")
	ErrNoTerminalFound = errors.New("no supported terminal emulator found")
	ErrTerminate       = errors.New("terminate failed")
)

// CoreNotFoundError reports the resolved archive path that was missing.
type CoreNotFoundError struct {
	Path string
}

func (e *CoreNotFoundError) Error() string {
	return fmt.Sprintf("Core file not found: %s\nPlease check server settings or select another core.", e.Path)
}

func (e *CoreNotFoundError) Is(target error) bool {
	return target == ErrCoreNotFound
}

// RuntimeCommand is the server invocation a strategy wraps in a visible terminal.
type RuntimeCommand struct {
	Dir         string
	Executable  string
	Args        []string
	WindowTitle string
}

// ProcessStrategy launches a RuntimeCommand in a user-visible terminal and kills process trees.
type ProcessStrategy interface {
	Launch(cmd RuntimeCommand) (uint32, error)
	Terminate(ctx context.Context, pid uint32) error
}

// Launcher starts and stops installations through a ProcessStrategy.
type Launcher struct {
	strategy ProcessStrategy
	runtime  config.RuntimeConfig
}

func NewLauncher(strategy ProcessStrategy, runtime config.RuntimeConfig) *Launcher {
	return &Launcher{
		strategy: strategy,
		runtime:  runtime,
	}
}

// Launch verifies the core archive exists under path and starts it in a new terminal.
// Nothing is spawned when the archive is missing.
func (l *Launcher) Launch(path, coreJar string) (uint32, error) {
	// The strategies both spawn in Dir and cd into it, so it must not be relative.
	dir, err := filepath.Abs(path)
	if err != nil {
		return 0, &CoreNotFoundError{Path: filepath.Join(path, coreJar)}
	}
	corePath := filepath.Join(dir, coreJar)

	info, err := os.Stat(corePath)
	if err != nil || info.IsDir() || coreJar == "" {
		return 0, &CoreNotFoundError{Path: corePath}
	}

	cmd := l.command(dir, coreJar)
	pid, err := l.strategy.Launch(cmd)
	if err != nil {
		logging.Component("launcher").Error("launch_failed", "path", dir, "core", coreJar, "error", err)
		return 0, err
	}

	logging.Component("launcher").Info("launch_started", "path", dir, "core", coreJar, "pid", pid)
	return pid, nil
}

// Terminate force-kills the process tree rooted at pid.
func (l *Launcher) Terminate(ctx context.Context, pid uint32) error {
	if err := l.strategy.Terminate(ctx, pid); err != nil {
		return err
	}
	logging.Component("launcher").Info("terminate_complete", "pid", pid)
	return nil
}

func (l *Launcher) command(dir, coreJar string) RuntimeCommand {
	args := make([]string, 0, 4+len(l.runtime.ServerArgs))
	if l.runtime.MaxHeap != "" {
		args = append(args, "-Xmx"+l.runtime.MaxHeap)
	}
	if l.runtime.MinHeap != "" {
		args = append(args, "-Xms"+l.runtime.MinHeap)
	}
	args = append(args, "-jar", coreJar)
	args = append(args, l.runtime.ServerArgs...)

	return RuntimeCommand{
		Dir:         dir,
		Executable:  l.runtime.Executable,
		Args:        args,
		WindowTitle: l.runtime.WindowTitle,
	}
}
