package server

import (
	"context"
	"errors"
	"testing"
)

func TestMockCommandExecutorRecordsCalls(t *testing.T) {
	executor := &MockCommandExecutor{
		Handlers: map[string]func(args []string) (string, string, error){
			"java": func(args []string) (string, string, error) {
				return "", `openjdk version "21.0.1"`, nil
			},
		},
		MockError: errors.New("not found"),
	}

	_, stderr, err := executor.Execute(context.Background(), "java", "-version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stderr != `openjdk version "21.0.1"` {
		t.Fatalf("unexpected stderr %q", stderr)
	}

	if _, _, err := executor.Execute(context.Background(), "taskkill", "/PID", "1"); err == nil {
		t.Fatalf("expected fallback error for unhandled command")
	}

	if len(executor.Calls) != 2 || executor.Calls[0] != "java -version" {
		t.Fatalf("unexpected calls: %v", executor.Calls)
	}
}
