// Package runtimecheck reports whether a compatible Java runtime is installed.
package runtimecheck

import (
	"context"
	"errors"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/lumi-launcher/backend/internal/logging"
)

// DefaultRequiredMajor is used when the requested version is not an integer.
const DefaultRequiredMajor = 21

// versionPattern captures the leading numeral and, when present, the one after it.
var versionPattern = regexp.MustCompile(`version "(\d+)(?:\.(\d+))?[^"]*"`)

// Executor runs an external command and returns its captured output streams.
type Executor interface {
	Execute(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
}

// Result is the outcome of a single probe.
type Result struct {
	IsInstalled     bool    `json:"is_installed"`
	Version         *string `json:"version"`
	MajorVersion    *uint32 `json:"major_version"`
	IsCompatible    bool    `json:"is_compatible"`
	RequiredVersion string  `json:"required_version"`
}

// Probe runs "<executable> -version" and compares the reported major version.
type Probe struct {
	executor   Executor
	executable string
}

func NewProbe(executor Executor, executable string) *Probe {
	if executable == "" {
		executable = "java"
	}
	return &Probe{executor: executor, executable: executable}
}

// Check never fails: a missing runtime or unrecognised output yields IsInstalled=false.
func (p *Probe) Check(ctx context.Context, requiredVersion string) Result {
	log := logging.Component("runtime")
	result := Result{RequiredVersion: requiredVersion}

	_, stderr, err := p.executor.Execute(ctx, p.executable, "-version")
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		log.Debug("runtime_not_found", "executable", p.executable, "error", err)
		return result
	}

	major, ok := ParseMajorVersion(stderr)
	if !ok {
		log.Debug("runtime_version_unrecognised", "executable", p.executable)
		return result
	}

	result.IsInstalled = true
	result.MajorVersion = &major
	if version, found := quotedVersion(stderr); found {
		result.Version = &version
	}
	result.IsCompatible = major >= RequiredMajor(requiredVersion)

	log.Debug("runtime_probed", "major", major, "required", requiredVersion, "compatible", result.IsCompatible)
	return result
}

// ParseMajorVersion extracts the effective major version from "-version" output.
// Legacy "1.x" versions report x.
func ParseMajorVersion(output string) (uint32, bool) {
	matches := versionPattern.FindStringSubmatch(output)
	if matches == nil {
		return 0, false
	}

	if matches[1] == "1" {
		if matches[2] == "" {
			return 0, true
		}
		return parseUint32(matches[2]), true
	}
	return parseUint32(matches[1]), true
}

// RequiredMajor parses the requested major version, defaulting to DefaultRequiredMajor.
func RequiredMajor(requiredVersion string) uint32 {
	value, err := strconv.ParseUint(requiredVersion, 10, 32)
	if err != nil {
		return DefaultRequiredMajor
	}
	return uint32(value)
}

func quotedVersion(output string) (string, bool) {
	parts := strings.SplitN(output, `"`, 3)
	if len(parts) < 2 {
		return "", false
	}
	return parts[1], true
}

func parseUint32(value string) uint32 {
	parsed, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0
	}
	return uint32(parsed)
}
