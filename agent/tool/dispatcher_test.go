package tool

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tanpawarit/Chative-Desktop-Assistant/agent/catalog"
	contractx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/contract"
	"github.com/tanpawarit/Chative-Desktop-Assistant/agent/desktop"
)

type fakeLauncher struct {
	err      error
	launched []string
}

func (f *fakeLauncher) Launch(ctx context.Context, command string) error {
	f.launched = append(f.launched, command)
	return f.err
}

type fakeWindows struct {
	windows  []desktop.Window
	listErr  error
	closeErr error
	closed   []string
}

func (f *fakeWindows) List(ctx context.Context) ([]desktop.Window, error) {
	return f.windows, f.listErr
}

func (f *fakeWindows) Close(ctx context.Context, id string) error {
	f.closed = append(f.closed, id)
	return f.closeErr
}

type fakeFiles struct {
	err    error
	opened []string
}

func (f *fakeFiles) Open(ctx context.Context, path string) error {
	f.opened = append(f.opened, path)
	return f.err
}

type fakeCPU struct {
	samples []desktop.CPUTimes
	err     error
	idx     int
}

func (f *fakeCPU) CPUTimes() (desktop.CPUTimes, error) {
	if f.err != nil {
		return desktop.CPUTimes{}, f.err
	}
	s := f.samples[f.idx]
	f.idx++
	return s, nil
}

type fakeMem struct {
	usage desktop.MemoryUsage
	err   error
}

func (f fakeMem) Memory() (desktop.MemoryUsage, error) { return f.usage, f.err }

type fakeDisk struct {
	usage desktop.DiskUsage
	err   error
}

func (f fakeDisk) Usage(ctx context.Context, mount string) (desktop.DiskUsage, error) {
	return f.usage, f.err
}

type dispatcherFixture struct {
	d        *Dispatcher
	launcher *fakeLauncher
	windows  *fakeWindows
	files    *fakeFiles
}

func newFixture(t *testing.T, entries ...catalog.Entry) *dispatcherFixture {
	t.Helper()
	if len(entries) == 0 {
		entries = []catalog.Entry{
			{DisplayName: "Firefox", LaunchCommand: "firefox"},
			{DisplayName: "Terminal", LaunchCommand: "gnome-terminal"},
		}
	}
	resolver, err := catalog.NewResolver(catalog.New(entries))
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}

	f := &dispatcherFixture{
		launcher: &fakeLauncher{},
		windows:  &fakeWindows{},
		files:    &fakeFiles{},
	}
	d, err := NewDispatcher(Deps{
		Resolver: resolver,
		Launcher: f.launcher,
		Windows:  f.windows,
		Files:    f.files,
	})
	if err != nil {
		t.Fatalf("NewDispatcher() error = %v", err)
	}
	f.d = d
	return f
}

func mustExecute(t *testing.T, d *Dispatcher, req contractx.ActionRequest) contractx.DispatchResult {
	t.Helper()
	res, err := d.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("Execute(%#v) error = %v", req, err)
	}
	if res.Text == "" {
		t.Fatalf("Execute(%#v) returned empty text", req)
	}
	return res
}

func TestNewDispatcherRequiresDeps(t *testing.T) {
	t.Parallel()

	if _, err := NewDispatcher(Deps{}); err == nil {
		t.Fatal("expected error for missing resolver")
	}
}

func TestOpenAppLaunchesResolvedEntry(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	res := mustExecute(t, f.d, contractx.OpenApp{AppName: "firefox"})
	if res.Text != "Opened Firefox" || res.Status != contractx.StatusOK {
		t.Fatalf("unexpected result: %#v", res)
	}
	if len(f.launcher.launched) != 1 || f.launcher.launched[0] != "firefox" {
		t.Fatalf("unexpected launches: %v", f.launcher.launched)
	}
}

func TestOpenAppEmptyName(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	res := mustExecute(t, f.d, contractx.OpenApp{AppName: "  "})
	if !strings.Contains(res.Text, "cannot be empty") || res.Status != contractx.StatusInvalid {
		t.Fatalf("unexpected result: %#v", res)
	}
	if len(f.launcher.launched) != 0 {
		t.Fatal("nothing must be launched")
	}
}

func TestOpenAppNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	res := mustExecute(t, f.d, contractx.OpenApp{AppName: "nonexistent_app_xyz"})
	if res.Text != "Application 'nonexistent_app_xyz' not found" {
		t.Fatalf("unexpected text: %q", res.Text)
	}
}

func TestOpenAppLaunchFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.launcher.err = errors.New("exec format error")
	res := mustExecute(t, f.d, contractx.OpenApp{AppName: "term"})
	if res.Text != "Failed to open Terminal: exec format error" {
		t.Fatalf("unexpected text: %q", res.Text)
	}
}

func TestCloseWindow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.windows.windows = []desktop.Window{
		{ID: "0x1", Title: "Mozilla Firefox"},
		{ID: "0x2", Title: "Terminal - user@host: ~"},
		{ID: "0x3", Title: "Another terminal"},
	}

	res := mustExecute(t, f.d, contractx.CloseWindow{WindowTitle: "TERMINAL"})
	if res.Text != "Closed window: Terminal - user@host: ~" {
		t.Fatalf("unexpected text: %q", res.Text)
	}
	if len(f.windows.closed) != 1 || f.windows.closed[0] != "0x2" {
		t.Fatalf("unexpected closes: %v", f.windows.closed)
	}
}

func TestCloseWindowFailures(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if res := mustExecute(t, f.d, contractx.CloseWindow{}); res.Text != "Window title cannot be empty" {
		t.Fatalf("unexpected text: %q", res.Text)
	}
	if res := mustExecute(t, f.d, contractx.CloseWindow{WindowTitle: "gimp"}); res.Text != "Window 'gimp' not found" {
		t.Fatalf("unexpected text: %q", res.Text)
	}

	f.windows.listErr = desktop.ErrUnavailable
	res := mustExecute(t, f.d, contractx.CloseWindow{WindowTitle: "gimp"})
	if res.Text != msgWmctrlMissing || res.Status != contractx.StatusUnavailable {
		t.Fatalf("unexpected result: %#v", res)
	}

	f.windows.listErr = errors.New("cannot open display")
	res = mustExecute(t, f.d, contractx.CloseWindow{WindowTitle: "gimp"})
	if res.Text != "Error closing window: cannot open display" {
		t.Fatalf("unexpected text: %q", res.Text)
	}
}

func TestListApps(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	res := mustExecute(t, f.d, contractx.ListApps{})
	if res.Text != "Installed applications (2 total): Firefox, Terminal" {
		t.Fatalf("unexpected text: %q", res.Text)
	}
}

func TestOpenFileBrowser(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	docs := filepath.Join(home, "Documents")
	if err := os.Mkdir(docs, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	f := newFixture(t)
	f.d.homeDir = func() (string, error) { return home, nil }

	if res := mustExecute(t, f.d, contractx.OpenFileBrowser{}); res.Text != "Opened file browser at: "+home {
		t.Fatalf("unexpected text: %q", res.Text)
	}
	if res := mustExecute(t, f.d, contractx.OpenFileBrowser{Path: "~/Documents"}); res.Text != "Opened file browser at: "+docs {
		t.Fatalf("unexpected text: %q", res.Text)
	}
	missing := filepath.Join(home, "nope")
	if res := mustExecute(t, f.d, contractx.OpenFileBrowser{Path: missing}); res.Text != "Path '"+missing+"' does not exist" {
		t.Fatalf("unexpected text: %q", res.Text)
	}
	if len(f.files.opened) != 2 {
		t.Fatalf("expected 2 opens, got %v", f.files.opened)
	}
}

func TestOpenFileBrowserFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	f := newFixture(t)

	f.files.err = desktop.ErrUnavailable
	if res := mustExecute(t, f.d, contractx.OpenFileBrowser{Path: dir}); res.Text != msgXdgOpenMissing {
		t.Fatalf("unexpected text: %q", res.Text)
	}

	f.files.err = &desktop.CommandError{Command: "xdg-open", Err: errors.New("exit status 4"), Stderr: "no handler"}
	if res := mustExecute(t, f.d, contractx.OpenFileBrowser{Path: dir}); res.Text != "Failed to open file browser: no handler" {
		t.Fatalf("unexpected text: %q", res.Text)
	}
}

func TestUnknownTool(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	res := mustExecute(t, f.d, contractx.UnknownTool{Name: "reboot"})
	if res.Text != "unknown tool: reboot" || res.Status != contractx.StatusUnknown {
		t.Fatalf("unexpected result: %#v", res)
	}
}

func TestSystemInfoReport(t *testing.T) {
	t.Parallel()

	probe := NewSystemInfoProbe(
		&fakeCPU{samples: []desktop.CPUTimes{{Total: 100, Idle: 80}, {Total: 200, Idle: 155}}},
		fakeMem{usage: desktop.MemoryUsage{TotalKB: 16 * 1024 * 1024, AvailableKB: 4 * 1024 * 1024}},
		fakeDisk{usage: desktop.DiskUsage{Size: "468G", Used: "201G", Percent: "46%"}},
		time.Millisecond,
	)

	got, err := probe.Report(context.Background())
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	want := "System Information:\n" +
		"• CPU Usage: 25.0%\n" +
		"• Memory: 12.0GB / 16.0GB (75.0%)\n" +
		"• Disk (/): 201G / 468G (46%)"
	if got != want {
		t.Fatalf("Report() = %q, want %q", got, want)
	}
}

func TestSystemInfoDegradesPerMetric(t *testing.T) {
	t.Parallel()

	probe := NewSystemInfoProbe(
		&fakeCPU{err: errors.New("no /proc")},
		fakeMem{err: errors.New("no meminfo")},
		fakeDisk{err: desktop.ErrUnavailable},
		time.Millisecond,
	)
	got, err := probe.Report(context.Background())
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	for _, line := range []string{"CPU Usage: Not available", "Memory: Not available", "Disk: Not available"} {
		if !strings.Contains(got, line) {
			t.Fatalf("Report() missing %q:\n%s", line, got)
		}
	}

	flat := NewSystemInfoProbe(&fakeCPU{samples: []desktop.CPUTimes{{Total: 5}, {Total: 5}}}, nil, nil, time.Millisecond)
	got, err = flat.Report(context.Background())
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if !strings.Contains(got, "CPU Usage: Unable to calculate") {
		t.Fatalf("unexpected report: %s", got)
	}
}

func TestExecuteAllContinuesPastFailures(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.windows.listErr = desktop.ErrUnavailable

	results, err := f.d.ExecuteAll(context.Background(), []contractx.ActionRequest{
		contractx.OpenApp{AppName: "firefox"},
		contractx.CloseWindow{WindowTitle: "terminal"},
		contractx.OpenApp{AppName: "terminal"},
	})
	if err != nil {
		t.Fatalf("ExecuteAll() error = %v", err)
	}
	want := "Opened Firefox\n" + msgWmctrlMissing + "\nOpened Terminal"
	if got := JoinResults(results); got != want {
		t.Fatalf("JoinResults() = %q, want %q", got, want)
	}
}

func TestExecuteAllStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := f.d.ExecuteAll(ctx, []contractx.ActionRequest{contractx.ListApps{}})
	if !errors.Is(err, contractx.ErrDispatch) {
		t.Fatalf("expected ErrDispatch, got %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %v", results)
	}
}
