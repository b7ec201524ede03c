package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// exit status sh uses when it cannot find the program
const exitNotFound = 127

// CommandRunner runs stage commands.
type CommandRunner interface {
	Run(ctx context.Context, command, dir string) StageResult
	Launch(ctx context.Context, command, dir string) StageResult
}

// Executor runs commands through sh -c.
type Executor struct {
	Timeout time.Duration
	Shell   string
}

func NewExecutor(timeout time.Duration) *Executor {
	return &Executor{Timeout: timeout, Shell: "sh"}
}

// Run executes command in dir and waits for it to exit.
func (e *Executor) Run(ctx context.Context, command, dir string) StageResult {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	if err := checkDir(dir); err != nil {
		return Fail("", err.Error())
	}

	cmd := exec.CommandContext(ctx, e.shell(), "-c", command)
	cmd.Dir = dir
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Pass(stdout.String(), stderr.String())
	res.Duration = time.Since(start)
	if err == nil {
		return res
	}

	res.Verdict = Failed
	var exitErr *exec.ExitError
	switch {
	case errors.Is(err, exec.ErrNotFound):
		res.Stderr = notFound(e.shell(), "")
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		res.Stderr = appendLine(res.Stderr, fmt.Sprintf("command timed out after %s", e.Timeout))
	case errors.As(err, &exitErr) && exitErr.ExitCode() == exitNotFound:
		res.Stderr = notFound(program(command), res.Stderr)
	case res.Stderr == "":
		res.Stderr = err.Error()
	}
	return res
}

// Launch starts command in the background and returns once it has been
// spawned. The process is not supervised afterwards.
func (e *Executor) Launch(_ context.Context, command, dir string) StageResult {
	if err := checkDir(dir); err != nil {
		return Fail("", err.Error())
	}

	cmd := exec.Command(e.shell(), "-c", command)
	cmd.Dir = dir
	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return Fail("", notFound(e.shell(), ""))
		}
		return Fail("", err.Error())
	}
	go func() { _ = cmd.Wait() }()

	return Pass(fmt.Sprintf("started %q (pid %d)\n", command, cmd.Process.Pid), "")
}

func (e *Executor) shell() string {
	if e.Shell == "" {
		return "sh"
	}
	return e.Shell
}

func checkDir(dir string) error {
	if dir == "" {
		return nil
	}
	fi, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("working directory: %w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("working directory %s is not a directory", dir)
	}
	return nil
}

func program(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return command
	}
	return fields[0]
}

func notFound(prog, stderr string) string {
	return appendLine(fmt.Sprintf("Command not found: %s", prog), stderr)
}

func appendLine(s, line string) string {
	if s == "" {
		return line
	}
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	return s + line
}
