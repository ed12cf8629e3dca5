//go:build windows

package server

import "github.com/lumi-launcher/backend/internal/config"

// NewPlatformStrategy returns the PowerShell strategy with a taskkill terminator.
func NewPlatformStrategy(runtime config.RuntimeConfig, executor CommandExecutor) ProcessStrategy {
	return NewShellHostStrategy(SpawnDetached, NewTaskkillTerminator(executor))
}
