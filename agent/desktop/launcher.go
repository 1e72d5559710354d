package desktop

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
)

// ProcessLauncher starts applications detached from the assistant in a new
// session with no inherited stdio. Launch returns once the child is started;
// the child is reaped in the background when it exits.
type ProcessLauncher struct {
	lookPath func(file string) (string, error)
	start    func(cmd *exec.Cmd) error
	reap     func(cmd *exec.Cmd)
}

func NewProcessLauncher() *ProcessLauncher {
	return &ProcessLauncher{
		lookPath: exec.LookPath,
		start:    func(cmd *exec.Cmd) error { return cmd.Start() },
		reap:     waitExit,
	}
}

func waitExit(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	pid := cmd.Process.Pid
	err := cmd.Wait()
	log.Debug().Err(err).Int("pid", pid).Str("command", cmd.Path).Msg("launched application exited")
}

func (l *ProcessLauncher) Launch(ctx context.Context, command string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	command = strings.TrimSpace(command)
	if command == "" {
		return errors.New("launch command is empty")
	}

	path, err := l.lookPath(command)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrUnavailable, command)
		}
		return err
	}

	// Not CommandContext: the child must outlive the request.
	cmd := exec.Command(path)
	cmd.SysProcAttr = detachedAttr()
	if err := l.start(cmd); err != nil {
		return err
	}

	if cmd.Process != nil {
		log.Info().Str("command", command).Int("pid", cmd.Process.Pid).Msg("application launched")
	}
	go l.reap(cmd)
	return nil
}
