// Package command runs the privileged system tools (rfkill, nmcli, systemctl,
// shutdown) the daemon depends on, and classifies how each invocation went.
// Retry and recovery policy belongs to the callers, not this layer.
package command

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Kind classifies the result of a single command invocation.
type Kind int

const (
	Succeeded Kind = iota
	Failed
	TimedOut
	NotFound
)

func (k Kind) String() string {
	switch k {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed out"
	case NotFound:
		return "not found"
	}
	return "unknown"
}

// Outcome is the result of running one external command. Stderr holds an
// excerpt for diagnostics only; callers must not parse it.
type Outcome struct {
	Kind     Kind
	ExitCode int
	Stderr   string
}

// OK folds the outcome into the boolean the calling state machine consumes.
// With ignorable set, a nonzero exit counts as success (the step's failure is
// expected and benign, e.g. bringing down a connection that is already down).
// Timeouts and missing executables are never ignorable.
func (o Outcome) OK(ignorable bool) bool {
	switch o.Kind {
	case Succeeded:
		return true
	case Failed:
		return ignorable
	default:
		return false
	}
}

// Runner runs one argv-style command to completion.
type Runner interface {
	Run(ctx context.Context, argv []string) Outcome
}

const stderrExcerptLen = 512

// ExecRunner runs commands via os/exec with a per-invocation timeout so a
// hung external tool cannot block the daemon indefinitely. The timeout is
// read through a getter on every invocation, so a config reload takes
// effect on the next command.
type ExecRunner struct {
	timeout func() time.Duration
}

func NewExecRunner(timeout func() time.Duration) *ExecRunner {
	return &ExecRunner{timeout: timeout}
}

func (r *ExecRunner) Run(ctx context.Context, argv []string) Outcome {
	if len(argv) == 0 {
		return Outcome{Kind: Failed, Stderr: "empty argv"}
	}

	timeout := r.timeout()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logrus.Debugf("executing: %s", strings.Join(argv, " "))

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return Outcome{Kind: Succeeded}
	}

	if ctx.Err() == context.DeadlineExceeded {
		logrus.Errorf("command %q timed out after %s", argv[0], timeout)
		return Outcome{Kind: TimedOut}
	}

	if errors.Is(err, exec.ErrNotFound) {
		logrus.Errorf("command %q not found", argv[0])
		return Outcome{Kind: NotFound}
	}

	excerpt := strings.TrimSpace(stderr.String())
	if len(excerpt) > stderrExcerptLen {
		excerpt = excerpt[:stderrExcerptLen]
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		logrus.WithFields(logrus.Fields{
			"argv":     strings.Join(argv, " "),
			"exitCode": exitErr.ExitCode(),
			"stderr":   excerpt,
		}).Debug("command exited nonzero")
		return Outcome{Kind: Failed, ExitCode: exitErr.ExitCode(), Stderr: excerpt}
	}

	logrus.Errorf("command %q failed to run: %v", argv[0], err)
	return Outcome{Kind: Failed, Stderr: err.Error()}
}
