package server

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/lumi-launcher/backend/internal/config"
	"github.com/lumi-launcher/backend/internal/logging"
)

// Spawner starts a detached program and returns its process id without waiting for it.
type Spawner func(dir, name string, args ...string) (uint32, error)

// SpawnDetached is the default Spawner. The child is reaped in the background.
func SpawnDetached(dir, name string, args ...string) (uint32, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	newConsole(cmd)

	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid := uint32(cmd.Process.Pid)
	go func() { _ = cmd.Wait() }()
	return pid, nil
}

// terminalArgs holds each emulator's "run this command" flags, ahead of `bash -c <cmd>`.
var terminalArgs = map[string][]string{
	"gnome-terminal": {"--"},
	"konsole":        {"-e"},
	"xfce4-terminal": {"-x"},
	"xterm":          {"-e"},
	"kitty":          {"-e"},
	"alacritty":      {"-e"},
}

const fallbackTerminal = "x-terminal-emulator"

// TerminalStrategy tries terminal emulators in order until one spawns.
type TerminalStrategy struct {
	ProcessTerminator
	terminals []string
	spawn     Spawner
}

// NewTerminalStrategy uses config.KnownTerminals when terminals is empty.
func NewTerminalStrategy(terminals []string, spawn Spawner, terminator ProcessTerminator) *TerminalStrategy {
	if len(terminals) == 0 {
		terminals = config.KnownTerminals
	}
	if spawn == nil {
		spawn = SpawnDetached
	}
	return &TerminalStrategy{
		ProcessTerminator: terminator,
		terminals:         terminals,
		spawn:             spawn,
	}
}

func (s *TerminalStrategy) Launch(cmd RuntimeCommand) (uint32, error) {
	log := logging.Component("launcher")
	shellCmd := fmt.Sprintf("cd %s && %s; exec bash", shellQuote(cmd.Dir), shellJoin(cmd.Executable, cmd.Args))

	for _, name := range s.terminals {
		prefix, ok := terminalArgs[name]
		if !ok {
			continue
		}
		args := append(append([]string{}, prefix...), "bash", "-c", shellCmd)
		pid, err := s.spawn(cmd.Dir, name, args...)
		if err == nil {
			log.Debug("terminal_spawned", "terminal", name, "pid", pid)
			return pid, nil
		}
		log.Debug("terminal_unavailable", "terminal", name, "error", err)
	}

	pid, err := s.spawn(cmd.Dir, fallbackTerminal, "-e", "bash", "-c", shellCmd)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoTerminalFound, err)
	}
	return pid, nil
}

// ShellHostStrategy runs the server through a PowerShell window that stays open afterwards.
type ShellHostStrategy struct {
	ProcessTerminator
	host  string
	spawn Spawner
}

func NewShellHostStrategy(spawn Spawner, terminator ProcessTerminator) *ShellHostStrategy {
	if spawn == nil {
		spawn = SpawnDetached
	}
	return &ShellHostStrategy{
		ProcessTerminator: terminator,
		host:              "powershell",
		spawn:             spawn,
	}
}

func (s *ShellHostStrategy) Launch(cmd RuntimeCommand) (uint32, error) {
	script := powershellScript(cmd)
	pid, err := s.spawn(cmd.Dir, s.host, "-NoLogo", "-NoExit", "-Command", script)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrNoTerminalFound, s.host, err)
	}
	return pid, nil
}

func powershellScript(cmd RuntimeCommand) string {
	parts := make([]string, 0, len(cmd.Args)+1)
	parts = append(parts, "& "+psQuote(cmd.Executable))
	for _, arg := range cmd.Args {
		parts = append(parts, psQuote(arg))
	}

	var b strings.Builder
	if cmd.WindowTitle != "" {
		fmt.Fprintf(&b, "$host.UI.RawUI.WindowTitle = %s; ", psQuote(cmd.WindowTitle))
	}
	fmt.Fprintf(&b, "Set-Location -LiteralPath %s; ", psQuote(cmd.Dir))
	b.WriteString(strings.Join(parts, " "))
	b.WriteString("; Read-Host 'Press Enter to exit...'")
	return b.String()
}

func shellJoin(name string, args []string) string {
	quoted := make([]string, 0, len(args)+1)
	quoted = append(quoted, shellQuote(name))
	for _, arg := range args {
		quoted = append(quoted, shellQuote(arg))
	}
	return strings.Join(quoted, " ")
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
