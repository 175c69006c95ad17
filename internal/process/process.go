package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// StartFailedCode is reported when a tool could not be started at all
const StartFailedCode = 42

// Command is a structured external tool invocation. No shell is involved.
type Command struct {
	Name string
	Args []string
	Dir  string
}

// String renders the command the way it is logged
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result holds the outcome of a tool run
type Result struct {
	ExitCode int
	Output   []byte
}

// Runner runs external tools and blocks until they exit
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExitError reports a tool that ran but exited non-zero
type ExitError struct {
	Command Command
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Command.Name, e.Code)
}

// Check converts a non-zero exit code into an *ExitError
func Check(cmd Command, res Result) error {
	if res.ExitCode != 0 {
		return &ExitError{Command: cmd, Code: res.ExitCode}
	}
	return nil
}

// ExecRunner runs tools with os/exec, passing their output through to
// Stdout while also capturing it
type ExecRunner struct {
	Stdout io.Writer
}

// Run starts the tool and waits for it. A tool that ran returns its exit code
// and a nil error; a tool that could not be started returns StartFailedCode and the error.
func (r ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdin = os.Stdin

	var captured bytes.Buffer
	out := r.Stdout
	if out == nil {
		out = os.Stdout
	}
	c.Stdout = io.MultiWriter(out, &captured)
	c.Stderr = io.MultiWriter(out, &captured)

	err := c.Run()
	if err == nil {
		return Result{ExitCode: 0, Output: captured.Bytes()}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Result{ExitCode: exitErr.ExitCode(), Output: captured.Bytes()}, nil
	}

	return Result{ExitCode: StartFailedCode, Output: captured.Bytes()}, fmt.Errorf("failed to start %s: %w", cmd.Name, err)
}

// LoggedRunner logs every invocation and its exit code
type LoggedRunner struct {
	Runner Runner
	Logger hclog.Logger
}

// Logged wraps runner so each call is logged as "Execute: ..." and "Result: N"
func Logged(runner Runner, logger hclog.Logger) *LoggedRunner {
	return &LoggedRunner{Runner: runner, Logger: logger}
}

func (l *LoggedRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	l.Logger.Info("Execute: " + cmd.String())
	res, err := l.Runner.Run(ctx, cmd)
	if err != nil {
		l.Logger.Warn("tool did not run", "tool", cmd.Name, "error", err)
	}
	l.Logger.Info(fmt.Sprintf("Result: %d", res.ExitCode))
	return res, err
}
