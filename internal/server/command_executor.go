package server

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// CommandExecutor runs an external program to completion and captures both output streams.
// A non-zero exit status is reported as an *exec.ExitError alongside the captured output.
type CommandExecutor interface {
	Execute(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
}

// DefaultCommandExecutor runs commands on the local machine without a visible console window.
type DefaultCommandExecutor struct{}

func NewDefaultCommandExecutor() *DefaultCommandExecutor {
	return &DefaultCommandExecutor{}
}

func (e *DefaultCommandExecutor) Execute(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	hideConsole(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// MockCommandExecutor for testing
type MockCommandExecutor struct {
	MockStdout string
	MockStderr string
	MockError  error
	Handlers   map[string]func(args []string) (string, string, error)
	Calls      []string
}

func (m *MockCommandExecutor) Execute(ctx context.Context, name string, args ...string) (string, string, error) {
	m.Calls = append(m.Calls, strings.TrimSpace(name+" "+strings.Join(args, " ")))
	if m.Handlers != nil {
		if handler, ok := m.Handlers[name]; ok {
			return handler(args)
		}
	}
	return m.MockStdout, m.MockStderr, m.MockError
}
