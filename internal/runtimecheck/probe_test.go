package runtimecheck

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

type fakeExecutor struct {
	stderr string
	err    error
	calls  int
}

func (f *fakeExecutor) Execute(ctx context.Context, name string, args ...string) (string, string, error) {
	f.calls++
	return "", f.stderr, f.err
}

const openJDK21 = `openjdk version "21.0.1" 2023-10-17 LTS
OpenJDK Runtime Environment Temurin-21.0.1+12 (build 21.0.1+12-LTS)
OpenJDK 64-Bit Server VM Temurin-21.0.1+12 (build 21.0.1+12-LTS, mixed mode, sharing)
`

const legacyJava8 = `java version "1.8.0_292"
Java(TM) SE Runtime Environment (build 1.8.0_292-b10)
Java HotSpot(TM) 64-Bit Server VM (build 25.292-b10, mixed mode)
`

func TestParseMajorVersion(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   uint32
		ok     bool
	}{
		{name: "modern", output: openJDK21, want: 21, ok: true},
		{name: "legacy", output: legacyJava8, want: 8, ok: true},
		{name: "bare major", output: `openjdk version "17" 2021-09-14`, want: 17, ok: true},
		{name: "early access", output: `openjdk version "23-ea" 2024-09-17`, want: 23, ok: true},
		{name: "garbage", output: "bash: java: command not found", ok: false},
		{name: "empty", output: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseMajorVersion(tt.output)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if got != tt.want {
				t.Fatalf("expected major %d, got %d", tt.want, got)
			}
		})
	}
}

func TestRequiredMajorDefaultsTo21(t *testing.T) {
	cases := map[string]uint32{
		"17":   17,
		"21":   21,
		"":     21,
		"abc":  21,
		"-1":   21,
		"21.0": 21,
	}
	for input, want := range cases {
		if got := RequiredMajor(input); got != want {
			t.Errorf("RequiredMajor(%q) = %d, want %d", input, got, want)
		}
	}
}

func TestCheckCompatible(t *testing.T) {
	probe := NewProbe(&fakeExecutor{stderr: openJDK21}, "java")

	result := probe.Check(context.Background(), "21")
	if !result.IsInstalled || !result.IsCompatible {
		t.Fatalf("expected installed and compatible, got %+v", result)
	}
	if result.Version == nil || *result.Version != "21.0.1" {
		t.Fatalf("expected version 21.0.1, got %v", result.Version)
	}
	if result.MajorVersion == nil || *result.MajorVersion != 21 {
		t.Fatalf("expected major 21, got %v", result.MajorVersion)
	}
	if result.RequiredVersion != "21" {
		t.Fatalf("expected required version echoed back, got %s", result.RequiredVersion)
	}
}

func TestCheckLegacyIncompatible(t *testing.T) {
	probe := NewProbe(&fakeExecutor{stderr: legacyJava8}, "java")

	result := probe.Check(context.Background(), "not-a-number")
	if !result.IsInstalled {
		t.Fatalf("expected installed")
	}
	if result.IsCompatible {
		t.Fatalf("java 8 must not satisfy the default requirement of 21")
	}
	if *result.Version != "1.8.0_292" {
		t.Fatalf("expected verbatim version string, got %s", *result.Version)
	}
	if *result.MajorVersion != 8 {
		t.Fatalf("expected major 8, got %d", *result.MajorVersion)
	}
}

func TestCheckMissingRuntime(t *testing.T) {
	probe := NewProbe(&fakeExecutor{err: errors.New(`exec: "java": executable file not found in $PATH`)}, "java")

	result := probe.Check(context.Background(), "21")
	if result.IsInstalled || result.IsCompatible {
		t.Fatalf("expected not installed, got %+v", result)
	}
	if result.Version != nil || result.MajorVersion != nil {
		t.Fatalf("expected absent version fields, got %+v", result)
	}
}

func TestCheckUnparseableOutput(t *testing.T) {
	probe := NewProbe(&fakeExecutor{stderr: "Picked up _JAVA_OPTIONS"}, "java")

	result := probe.Check(context.Background(), "21")
	if result.IsInstalled {
		t.Fatalf("expected unparseable output to collapse to not installed")
	}
}

func TestCheckIsIdempotent(t *testing.T) {
	executor := &fakeExecutor{stderr: openJDK21}
	probe := NewProbe(executor, "java")

	first := probe.Check(context.Background(), "17")
	second := probe.Check(context.Background(), "17")
	if first.IsCompatible != second.IsCompatible || *first.Version != *second.Version || *first.MajorVersion != *second.MajorVersion {
		t.Fatalf("expected identical results, got %+v and %+v", first, second)
	}
	if executor.calls != 2 {
		t.Fatalf("expected one command per check, got %d", executor.calls)
	}
}

func TestParseMajorVersion_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("modern versions report the leading numeral", prop.ForAll(
		func(major, minor, patch uint32) bool {
			output := fmt.Sprintf(`openjdk version "%d.%d.%d" 2024-01-01`, major, minor, patch)
			got, ok := ParseMajorVersion(output)
			return ok && got == major
		},
		gen.UInt32Range(2, 999),
		gen.UInt32Range(0, 99),
		gen.UInt32Range(0, 99),
	))

	properties.Property("legacy 1.x versions report x", prop.ForAll(
		func(minor, update uint32) bool {
			output := fmt.Sprintf(`java version "1.%d.0_%d"`, minor, update)
			got, ok := ParseMajorVersion(output)
			return ok && got == minor
		},
		gen.UInt32Range(0, 99),
		gen.UInt32Range(0, 999),
	))

	properties.Property("compatibility is major >= required", prop.ForAll(
		func(major, required uint32) bool {
			probe := NewProbe(&fakeExecutor{stderr: fmt.Sprintf(`openjdk version "%d.0.1"`, major)}, "java")
			result := probe.Check(context.Background(), fmt.Sprint(required))
			return result.IsCompatible == (major >= required)
		},
		gen.UInt32Range(2, 40),
		gen.UInt32Range(0, 40),
	))

	properties.TestingRun(t)
}
