// Package desktop wraps the host programs and kernel interfaces the tools
// act through: process launch, wmctrl, xdg-open, df and /proc.
package desktop

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrUnavailable reports that the executable backing an action is not installed.
var ErrUnavailable = errors.New("command unavailable")

type Launcher interface {
	Launch(ctx context.Context, command string) error
}

type WindowManager interface {
	List(ctx context.Context) ([]Window, error)
	Close(ctx context.Context, id string) error
}

type FileBrowser interface {
	Open(ctx context.Context, path string) error
}

type DiskStats interface {
	Usage(ctx context.Context, mount string) (DiskUsage, error)
}

type CPUSampler interface {
	CPUTimes() (CPUTimes, error)
}

type MemoryReader interface {
	Memory() (MemoryUsage, error)
}

// CommandError carries the stderr of a failed helper command.
type CommandError struct {
	Command string
	Err     error
	Stderr  string
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Command, e.Err, e.Stderr)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

type runFunc func(ctx context.Context, name string, args ...string) (stdout string, stderr string, err error)

func runCommand(ctx context.Context, name string, args ...string) (string, string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", "", fmt.Errorf("%w: %s", ErrUnavailable, name)
		}
		return "", "", fmt.Errorf("locate %s command: %w", name, err)
	}

	cmd := exec.CommandContext(ctx, path, args...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	return stdout.String(), strings.TrimSpace(stderr.String()), err
}

func formatError(command string, err error, stderr string) error {
	if errors.Is(err, ErrUnavailable) {
		return err
	}
	return &CommandError{Command: command, Err: err, Stderr: stderr}
}
