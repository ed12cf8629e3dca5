package server

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
)

func TestTaskkillTerminatorArguments(t *testing.T) {
	executor := &MockCommandExecutor{}
	if err := NewTaskkillTerminator(executor).Terminate(context.Background(), 1234); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(executor.Calls) != 1 || executor.Calls[0] != "taskkill /PID 1234 /F /T" {
		t.Fatalf("unexpected calls %v", executor.Calls)
	}
}

func TestTaskkillTerminatorNonZeroExitIsSuccess(t *testing.T) {
	exitErr := exitError(t)
	executor := &MockCommandExecutor{MockStderr: `ERROR: The process "1234" not found.`, MockError: exitErr}

	if err := NewTaskkillTerminator(executor).Terminate(context.Background(), 1234); err != nil {
		t.Fatalf("already dead process must not be an error, got %v", err)
	}
}

func TestTaskkillTerminatorMissingUtility(t *testing.T) {
	executor := &MockCommandExecutor{MockError: errors.New(`exec: "taskkill": executable file not found`)}

	err := NewTaskkillTerminator(executor).Terminate(context.Background(), 1)
	if !errors.Is(err, ErrTerminate) {
		t.Fatalf("expected terminate error, got %v", err)
	}
	if !strings.Contains(err.Error(), "taskkill") {
		t.Fatalf("expected cause in message, got %q", err.Error())
	}
}

// exitError produces a real *exec.ExitError from a failing command.
func exitError(t *testing.T) *exec.ExitError {
	t.Helper()
	name, args := "false", []string(nil)
	if _, err := exec.LookPath(name); err != nil {
		name, args = "cmd", []string{"/C", "exit 1"}
	}
	err := exec.Command(name, args...).Run()
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Skipf("could not produce an exit error: %v", err)
	}
	return exitErr
}
