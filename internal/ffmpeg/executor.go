package ffmpeg

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
)

// Result holds the outcome of a single external tool invocation.
type Result struct {
	Stdout string
	Stderr string
	Err    error
}

// Success reports whether the invocation exited cleanly.
func (r Result) Success() bool { return r.Err == nil }

// Runner runs an external binary to completion and captures its output.
// ffmpeg and ffprobe share this call shape; tests substitute scripted
// implementations.
type Runner interface {
	Run(ctx context.Context, bin string, args []string) Result
}

// ExecRunner is the production Runner backed by os/exec. The child process
// is killed when ctx is cancelled. When Verbose is set, stderr is tee'd to
// os.Stderr in real time (ffmpeg progress lands there); otherwise it is
// captured silently.
type ExecRunner struct {
	Verbose bool
}

func (e *ExecRunner) Run(ctx context.Context, bin string, args []string) Result {
	cmd := exec.CommandContext(ctx, bin, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if e.Verbose {
		cmd.Stderr = io.MultiWriter(&stderr, os.Stderr)
	} else {
		cmd.Stderr = &stderr
	}

	err := cmd.Run()
	return Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
		Err:    err,
	}
}
