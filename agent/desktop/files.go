package desktop

import "context"

// XdgOpen opens paths in the desktop's default file manager.
type XdgOpen struct {
	run runFunc
}

func NewXdgOpen() *XdgOpen {
	return &XdgOpen{run: runCommand}
}

func (x *XdgOpen) Open(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, stderr, err := x.run(ctx, "xdg-open", path)
	if err != nil {
		return formatError("xdg-open", err, stderr)
	}
	return nil
}
