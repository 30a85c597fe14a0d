// Package latex invokes an external LaTeX engine on single figure files.
package latex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"
	"unicode/utf8"

	"git.home.luguber.info/inful/tikzbuild/internal/config"
	"git.home.luguber.info/inful/tikzbuild/internal/figures"
	"git.home.luguber.info/inful/tikzbuild/internal/scheduler"
)

// maxDiagnosticBytes bounds the captured engine output per failure.
const maxDiagnosticBytes = 4096

// waitDelay bounds how long Wait may keep reading output pipes after the
// engine was killed. Engines fork helper processes that inherit the pipes;
// without the delay a surviving helper would hold Wait open for its whole
// lifetime.
const waitDelay = 2 * time.Second

// Runner wraps the external LaTeX engine. One Runner serves all jobs of a
// run; every invocation is isolated through its own output directory, so
// concurrent compilations never share working state.
type Runner struct {
	command    string
	args       []string
	timeout    time.Duration
	sourceRoot string
}

// NewRunner creates a runner for the configured engine. sourceRoot is
// prepended to TEXINPUTS so figures can input files relative to the tree
// root. A timeout of zero disables the per-figure deadline.
func NewRunner(engine config.EngineConfig, sourceRoot string, timeout time.Duration) *Runner {
	return &Runner{
		command:    engine.Command,
		args:       engine.Args,
		timeout:    timeout,
		sourceRoot: sourceRoot,
	}
}

// Compile runs the engine against one figure. A failed engine run is a
// normal outcome reported through the Result, never an error. On failure or
// timeout any partial artifact is removed so the next run still sees the
// figure as stale.
func (r *Runner) Compile(ctx context.Context, job figures.Job) scheduler.Result {
	started := time.Now()
	outputDir := filepath.Dir(job.OutputPath)

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return scheduler.Result{
			Job:         job,
			ExitCode:    -1,
			ErrorOutput: fmt.Sprintf("failed to create output directory: %v", err),
			Duration:    time.Since(started),
		}
	}

	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	args := make([]string, 0, len(r.args)+2)
	args = append(args, r.args...)
	args = append(args, "-output-directory="+outputDir, job.SourcePath)

	cmd := exec.CommandContext(runCtx, r.command, args...)
	cmd.WaitDelay = waitDelay
	cmd.Dir = outputDir
	cmd.Env = append(os.Environ(), "TEXINPUTS="+r.sourceRoot+":")

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	slog.Debug("Invoking LaTeX engine",
		"engine", r.command, "source", job.SourcePath, "output_dir", outputDir)

	err := cmd.Run()
	duration := time.Since(started)
	timedOut := errors.Is(runCtx.Err(), context.DeadlineExceeded)

	if err != nil || timedOut {
		// A half-written artifact must not shadow the failure on the next
		// staleness check.
		_ = os.Remove(job.OutputPath)

		result := scheduler.Result{
			Job:         job,
			ExitCode:    exitCode(err),
			ErrorOutput: diagnostics(output.Bytes(), err, timedOut),
			TimedOut:    timedOut,
			Duration:    duration,
		}
		slog.Debug("Figure compilation failed",
			"source", job.SourcePath, "exit_code", result.ExitCode, "timed_out", timedOut)
		return result
	}

	if _, statErr := os.Stat(job.OutputPath); statErr != nil {
		return scheduler.Result{
			Job:         job,
			ExitCode:    0,
			ErrorOutput: fmt.Sprintf("engine exited successfully but produced no artifact at %s", job.OutputPath),
			Duration:    duration,
		}
	}

	return scheduler.Result{
		Job:       job,
		Succeeded: true,
		Duration:  duration,
	}
}

// exitCode extracts the process exit status; -1 when the process never ran or
// was killed.
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// diagnostics assembles the captured output tail plus any driver-level error.
func diagnostics(output []byte, err error, timedOut bool) string {
	if len(output) > maxDiagnosticBytes {
		output = output[len(output)-maxDiagnosticBytes:]
		// The cut can land inside a multi-byte sequence; drop the orphaned
		// continuation bytes.
		for len(output) > 0 && !utf8.RuneStart(output[0]) {
			output = output[1:]
		}
	}
	text := string(output)
	if timedOut {
		return text
	}
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		// The engine never produced output (e.g. command not found); the
		// driver error is the only diagnostic available.
		if text == "" {
			return err.Error()
		}
		return text + "\n" + err.Error()
	}
	return text
}
