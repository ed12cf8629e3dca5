//go:build !windows

package server

import "os/exec"

func hideConsole(cmd *exec.Cmd) {}

func newConsole(cmd *exec.Cmd) {}
