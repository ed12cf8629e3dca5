//go:build !windows

package server

import (
	"testing"

	"github.com/lumi-launcher/backend/internal/config"
)

func TestNewPlatformStrategyUsesTerminals(t *testing.T) {
	runtime := config.Default().Runtime
	runtime.Terminals = []string{"kitty"}

	strategy, ok := NewPlatformStrategy(runtime, nil).(*TerminalStrategy)
	if !ok {
		t.Fatalf("expected terminal strategy on this platform")
	}
	if len(strategy.terminals) != 1 || strategy.terminals[0] != "kitty" {
		t.Fatalf("unexpected terminals: %v", strategy.terminals)
	}
	if _, ok := strategy.ProcessTerminator.(*SignalTerminator); !ok {
		t.Fatalf("expected signal terminator, got %T", strategy.ProcessTerminator)
	}
}
