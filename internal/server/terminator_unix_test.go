//go:build !windows

package server

import (
	"context"
	"os/exec"
	"testing"
	"time"
)

func TestSignalTerminatorKillsProcessTree(t *testing.T) {
	cmd := exec.Command("sh", "-c", "sleep 60 & wait")
	if err := cmd.Start(); err != nil {
		t.Skipf("sh unavailable: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	// Let the shell fork its child.
	time.Sleep(200 * time.Millisecond)

	if err := NewSignalTerminator().Terminate(context.Background(), uint32(cmd.Process.Pid)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case err := <-done:
		if err == nil {
			t.Fatalf("expected the process to die from a signal")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("process survived terminate")
	}
}

func TestSignalTerminatorAlreadyDead(t *testing.T) {
	cmd := exec.Command("true")
	if err := cmd.Run(); err != nil {
		t.Skipf("true unavailable: %v", err)
	}

	if err := NewSignalTerminator().Terminate(context.Background(), uint32(cmd.Process.Pid)); err != nil {
		t.Fatalf("a reaped pid must be reported as success, got %v", err)
	}
}

func TestSignalTerminatorUnknownPid(t *testing.T) {
	// Above the Linux pid_max ceiling, so no process can hold it.
	const unusedPid = 1<<22 + 1
	if err := NewSignalTerminator().Terminate(context.Background(), unusedPid); err != nil {
		t.Fatalf("a missing pid must be reported as success, got %v", err)
	}
}
