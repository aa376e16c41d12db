// Package impl talks to build-script-impl: it asks the script to vet the
// residual arguments and runs it for real.
package impl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
)

// CheckArgsOnlyFlag puts build-script-impl in validation mode.
const CheckArgsOnlyFlag = "--check-args-only=1"

// DefaultName is the executable looked up when no path is configured.
const DefaultName = "build-script-impl"

// Checker decides whether build-script-impl accepts a set of arguments.
type Checker interface {
	CheckArgs(ctx context.Context, args []string) error
}

// Func adapts an ordinary function to Checker.
type Func func(ctx context.Context, args []string) error

// CheckArgs calls f.
func (f Func) CheckArgs(ctx context.Context, args []string) error { return f(ctx, args) }

// ValidationError reports that build-script-impl rejected the arguments.
type ValidationError struct {
	Message  string
	ExitCode int
}

func (e *ValidationError) Error() string { return e.Message }

// InvocationError reports that build-script-impl could not be started.
type InvocationError struct {
	Path string
	Err  error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("run %s: %v", e.Path, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// Script is a build-script-impl executable on disk.
type Script struct {
	Path string
}

// CheckArgs runs the script with CheckArgsOnlyFlag followed by args. A
// non-zero exit becomes a *ValidationError carrying the first line of the
// script's standard error. There is no timeout beyond what ctx imposes.
func (s *Script) CheckArgs(ctx context.Context, args []string) error {
	argv := append([]string{CheckArgsOnlyFlag}, args...)
	cmd := exec.CommandContext(ctx, s.Path, argv...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	log.Debug().Str("impl", s.Path).Strs("args", args).Msg("checking arguments")
	err := cmd.Run()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return &InvocationError{Path: s.Path, Err: err}
	}
	msg := FirstLine(stderr.String())
	if msg == "" {
		msg = fmt.Sprintf("%s exited with status %d", s.Path, exitErr.ExitCode())
	}
	return &ValidationError{Message: msg, ExitCode: exitErr.ExitCode()}
}

// Run invokes the script with args, streaming its output. The returned
// error is an *exec.ExitError for a non-zero exit, or an *InvocationError
// when the script could not be started.
func (s *Script) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, s.Path, args...) //nolint:gosec
	cmd.Stdin = os.Stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	log.Debug().Str("impl", s.Path).Strs("args", args).Msg("running")
	err := cmd.Run()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	return &InvocationError{Path: s.Path, Err: err}
}

// FirstLine returns the first line of s without its line terminator.
func FirstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSuffix(line, "\r")
}
