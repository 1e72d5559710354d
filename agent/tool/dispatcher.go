package tool

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tanpawarit/Chative-Desktop-Assistant/agent/catalog"
	contractx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/contract"
	"github.com/tanpawarit/Chative-Desktop-Assistant/agent/desktop"
	metricsx "github.com/tanpawarit/Chative-Desktop-Assistant/pkg/metrics"
)

const (
	msgWmctrlMissing  = "wmctrl not installed. Please install wmctrl to use window closing functionality."
	msgXdgOpenMissing = "xdg-open not found. Please install xdg-utils package."
)

type Deps struct {
	Resolver   *catalog.Resolver
	Launcher   desktop.Launcher
	Windows    desktop.WindowManager
	Files      desktop.FileBrowser
	SystemInfo *SystemInfoProbe
	Metrics    *metricsx.Metrics
}

// Dispatcher executes action requests against the desktop. Business
// failures come back as result text; only context cancellation is an error.
type Dispatcher struct {
	resolver *catalog.Resolver
	launcher desktop.Launcher
	windows  desktop.WindowManager
	files    desktop.FileBrowser
	sysinfo  *SystemInfoProbe
	metrics  *metricsx.Metrics

	homeDir func() (string, error)
	stat    func(name string) (os.FileInfo, error)
}

var _ contractx.Dispatcher = (*Dispatcher)(nil)

func NewDispatcher(deps Deps) (*Dispatcher, error) {
	if deps.Resolver == nil {
		return nil, errors.New("application resolver is required")
	}
	if deps.Launcher == nil {
		return nil, errors.New("process launcher is required")
	}
	if deps.Windows == nil {
		return nil, errors.New("window manager is required")
	}
	if deps.Files == nil {
		return nil, errors.New("file browser is required")
	}
	if deps.SystemInfo == nil {
		deps.SystemInfo = NewSystemInfoProbe(nil, nil, nil, 0)
	}

	return &Dispatcher{
		resolver: deps.Resolver,
		launcher: deps.Launcher,
		windows:  deps.Windows,
		files:    deps.Files,
		sysinfo:  deps.SystemInfo,
		metrics:  deps.Metrics,
		homeDir:  os.UserHomeDir,
		stat:     os.Stat,
	}, nil
}

// ExecuteAll runs requests in order. A failed action never stops the ones
// after it; only a cancelled context does.
func (d *Dispatcher) ExecuteAll(ctx context.Context, reqs []contractx.ActionRequest) ([]contractx.DispatchResult, error) {
	results := make([]contractx.DispatchResult, 0, len(reqs))
	for _, req := range reqs {
		res, err := d.Execute(ctx, req)
		if err != nil {
			return results, fmt.Errorf("%w: %v", contractx.ErrDispatch, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (d *Dispatcher) Execute(ctx context.Context, req contractx.ActionRequest) (contractx.DispatchResult, error) {
	if err := ctx.Err(); err != nil {
		return contractx.DispatchResult{}, err
	}

	var (
		res contractx.DispatchResult
		err error
	)
	switch a := req.(type) {
	case contractx.OpenApp:
		res = d.openApp(ctx, a)
	case contractx.CloseWindow:
		res = d.closeWindow(ctx, a)
	case contractx.ListApps:
		res = d.listApps()
	case contractx.OpenFileBrowser:
		res = d.openFileBrowser(ctx, a)
	case contractx.SystemInfo:
		res, err = d.systemInfo(ctx)
	case contractx.UnknownTool:
		res = result(a.Tool(), contractx.StatusUnknown, "unknown tool: %s", a.Name)
	case nil:
		res = result("", contractx.StatusUnknown, "unknown tool: ")
	default:
		res = result(req.Tool(), contractx.StatusUnknown, "unknown tool: %s", req.Tool())
	}
	if err != nil {
		return contractx.DispatchResult{}, err
	}

	d.metrics.RecordDispatch(string(res.Tool), string(res.Status))
	log.Ctx(ctx).Info().
		Str("tool", string(res.Tool)).
		Str("status", string(res.Status)).
		Msg("tool dispatched")
	return res, nil
}

func (d *Dispatcher) openApp(ctx context.Context, a contractx.OpenApp) contractx.DispatchResult {
	m, err := d.resolver.Resolve(a.AppName)
	switch {
	case errors.Is(err, catalog.ErrInvalidQuery):
		return result(a.Tool(), contractx.StatusInvalid, "Application name cannot be empty")
	case errors.Is(err, catalog.ErrNotFound):
		return result(a.Tool(), contractx.StatusNotFound, "Application '%s' not found", a.AppName)
	case err != nil:
		return result(a.Tool(), contractx.StatusFailed, "Failed to open %s: %v", a.AppName, err)
	}
	d.metrics.RecordResolve(m.Tier.String())

	if err := d.launcher.Launch(ctx, m.Entry.LaunchCommand); err != nil {
		return result(a.Tool(), contractx.StatusFailed, "Failed to open %s: %v", m.Entry.DisplayName, err)
	}
	return result(a.Tool(), contractx.StatusOK, "Opened %s", m.Entry.DisplayName)
}

func (d *Dispatcher) closeWindow(ctx context.Context, a contractx.CloseWindow) contractx.DispatchResult {
	query := strings.ToLower(strings.TrimSpace(a.WindowTitle))
	if query == "" {
		return result(a.Tool(), contractx.StatusInvalid, "Window title cannot be empty")
	}

	windows, err := d.windows.List(ctx)
	if err != nil {
		return windowError(a.Tool(), err)
	}

	for _, w := range windows {
		if !strings.Contains(strings.ToLower(w.Title), query) {
			continue
		}
		if err := d.windows.Close(ctx, w.ID); err != nil {
			return windowError(a.Tool(), err)
		}
		title := w.Title
		if title == "" {
			title = "Unknown"
		}
		return result(a.Tool(), contractx.StatusOK, "Closed window: %s", title)
	}
	return result(a.Tool(), contractx.StatusNotFound, "Window '%s' not found", a.WindowTitle)
}

func windowError(tool contractx.ToolName, err error) contractx.DispatchResult {
	if errors.Is(err, desktop.ErrUnavailable) {
		return result(tool, contractx.StatusUnavailable, msgWmctrlMissing)
	}
	return result(tool, contractx.StatusFailed, "Error closing window: %v", err)
}

func (d *Dispatcher) listApps() contractx.DispatchResult {
	names := d.resolver.Catalog().Names()
	return result(contractx.ToolListApps, contractx.StatusOK,
		"Installed applications (%d total): %s", len(names), strings.Join(names, ", "))
}

func (d *Dispatcher) openFileBrowser(ctx context.Context, a contractx.OpenFileBrowser) contractx.DispatchResult {
	path, err := d.expandPath(a.Path)
	if err != nil {
		return result(a.Tool(), contractx.StatusFailed, "Error opening file browser: %v", err)
	}

	if _, err := d.stat(path); err != nil {
		return result(a.Tool(), contractx.StatusNotFound, "Path '%s' does not exist", path)
	}

	if err := d.files.Open(ctx, path); err != nil {
		if errors.Is(err, desktop.ErrUnavailable) {
			return result(a.Tool(), contractx.StatusUnavailable, msgXdgOpenMissing)
		}
		var cmdErr *desktop.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Stderr != "" {
			return result(a.Tool(), contractx.StatusFailed, "Failed to open file browser: %s", cmdErr.Stderr)
		}
		return result(a.Tool(), contractx.StatusFailed, "Failed to open file browser: %v", err)
	}
	return result(a.Tool(), contractx.StatusOK, "Opened file browser at: %s", path)
}

// expandPath maps "" to the home folder and expands a leading ~.
func (d *Dispatcher) expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path != "" && path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := d.homeDir()
	if err != nil {
		return "", err
	}
	if path == "" || path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

func (d *Dispatcher) systemInfo(ctx context.Context) (contractx.DispatchResult, error) {
	report, err := d.sysinfo.Report(ctx)
	if err != nil {
		return contractx.DispatchResult{}, err
	}
	return result(contractx.ToolSystemInfo, contractx.StatusOK, "%s", report), nil
}

func result(tool contractx.ToolName, status contractx.DispatchStatus, format string, args ...any) contractx.DispatchResult {
	return contractx.DispatchResult{
		Tool:   tool,
		Status: status,
		Text:   fmt.Sprintf(format, args...),
	}
}

// JoinResults joins result texts with newlines, in order.
func JoinResults(results []contractx.DispatchResult) string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Text
	}
	return strings.Join(texts, "\n")
}
