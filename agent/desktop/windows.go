package desktop

import (
	"context"
	"strings"
)

type Window struct {
	ID      string
	Desktop string
	Host    string
	Title   string
}

// Wmctrl lists and closes X11 windows through the wmctrl tool.
type Wmctrl struct {
	run runFunc
}

func NewWmctrl() *Wmctrl {
	return &Wmctrl{run: runCommand}
}

func (w *Wmctrl) List(ctx context.Context) ([]Window, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stdout, stderr, err := w.run(ctx, "wmctrl", "-l")
	if err != nil {
		return nil, formatError("wmctrl -l", err, stderr)
	}
	return parseWindowList(stdout), nil
}

func (w *Wmctrl) Close(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, stderr, err := w.run(ctx, "wmctrl", "-ic", id)
	if err != nil {
		return formatError("wmctrl -ic", err, stderr)
	}
	return nil
}

// parseWindowList reads "wmctrl -l" output: id, desktop, host, then the
// title as the rest of the line.
func parseWindowList(out string) []Window {
	var windows []Window
	for line := range strings.Lines(out) {
		parts := splitFields(line, 4)
		if len(parts) == 0 {
			continue
		}
		win := Window{ID: parts[0]}
		if len(parts) > 1 {
			win.Desktop = parts[1]
		}
		if len(parts) > 2 {
			win.Host = parts[2]
		}
		if len(parts) > 3 {
			win.Title = parts[3]
		}
		windows = append(windows, win)
	}
	return windows
}

// splitFields splits on runs of whitespace into at most n parts; the last
// part keeps its inner whitespace.
func splitFields(s string, n int) []string {
	var parts []string
	s = strings.TrimSpace(s)
	for s != "" {
		if len(parts) == n-1 {
			parts = append(parts, s)
			break
		}
		i := strings.IndexAny(s, " \t")
		if i < 0 {
			parts = append(parts, s)
			break
		}
		parts = append(parts, s[:i])
		s = strings.TrimLeft(s[i:], " \t")
	}
	return parts
}
