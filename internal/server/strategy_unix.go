//go:build !windows

package server

import "github.com/lumi-launcher/backend/internal/config"

// NewPlatformStrategy returns the terminal-emulator strategy with a signal-based terminator.
// The executor is only needed by the Windows taskkill terminator.
func NewPlatformStrategy(runtime config.RuntimeConfig, _ CommandExecutor) ProcessStrategy {
	return NewTerminalStrategy(runtime.Terminals, SpawnDetached, NewSignalTerminator())
}
