package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/rs/zerolog/log"
	"gopkg.in/ini.v1"
)

const (
	desktopEntrySection   = "Desktop Entry"
	DefaultDesktopPattern = "*.desktop"
)

// DefaultDesktopDirs lists the freedesktop application directories in the
// order they are scanned.
var DefaultDesktopDirs = []string{
	"/usr/share/applications",
	"/usr/local/share/applications",
	"~/.local/share/applications",
}

var desktopLoadOptions = ini.LoadOptions{
	IgnoreInlineComment:     true,
	SkipUnrecognizableLines: true,
	KeyValueDelimiters:      "=",
}

// DesktopSource discovers applications from freedesktop .desktop files.
type DesktopSource struct {
	Dirs    []string
	Pattern string
}

func NewDesktopSource(dirs []string, pattern string) *DesktopSource {
	if len(dirs) == 0 {
		dirs = DefaultDesktopDirs
	}
	if strings.TrimSpace(pattern) == "" {
		pattern = DefaultDesktopPattern
	}
	return &DesktopSource{Dirs: dirs, Pattern: pattern}
}

// Discover scans every directory in order and returns the entries found.
// Missing directories and unreadable files are skipped.
func (s *DesktopSource) Discover(ctx context.Context) ([]Entry, error) {
	if !doublestar.ValidatePattern(s.Pattern) {
		return nil, fmt.Errorf("invalid desktop file pattern %q", s.Pattern)
	}

	var (
		entries    []Entry
		totalFiles int
	)
	for _, dir := range s.Dirs {
		root := expandHome(dir)
		files, err := s.listDesktopFiles(ctx, root)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn().Err(err).Str("dir", root).Msg("scan desktop directory failed")
			continue
		}
		totalFiles += len(files)

		for _, path := range files {
			entry, ok, err := parseDesktopFile(path)
			if err != nil {
				log.Warn().Err(err).Str("file", path).Msg("read desktop file failed")
				continue
			}
			if ok {
				entries = append(entries, entry)
			}
		}
	}

	log.Info().Int("apps", len(entries)).Int("files", totalFiles).Msg("application discovery complete")
	return entries, nil
}

// Load discovers entries and builds a catalog from them.
func (s *DesktopSource) Load(ctx context.Context) (*Catalog, error) {
	entries, err := s.Discover(ctx)
	if err != nil {
		return nil, err
	}
	return New(entries), nil
}

func (s *DesktopSource) listDesktopFiles(ctx context.Context, root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, nil
	}

	var (
		mu    sync.Mutex
		files []string
	)
	conf := fastwalk.Config{Follow: false}
	err = fastwalk.Walk(&conf, root, func(path string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		matched, _ := doublestar.Match(s.Pattern, filepath.ToSlash(rel))
		if !matched {
			return nil
		}

		mu.Lock()
		files = append(files, path)
		mu.Unlock()
		return nil
	})
	if err != nil && !errors.Is(err, fs.SkipAll) {
		return nil, err
	}

	// fastwalk visits files concurrently; sort for a stable catalog order.
	slices.Sort(files)
	return files, nil
}

// parseDesktopFile reads the [Desktop Entry] group. It reports false for
// files without Name/Exec or marked NoDisplay.
func parseDesktopFile(path string) (Entry, bool, error) {
	f, err := ini.LoadSources(desktopLoadOptions, path)
	if err != nil {
		return Entry{}, false, err
	}
	sec, err := f.GetSection(desktopEntrySection)
	if err != nil {
		return Entry{}, false, nil
	}
	if sec.Key("NoDisplay").MustBool(false) {
		return Entry{}, false, nil
	}

	name := strings.TrimSpace(sec.Key("Name").String())
	fields := strings.Fields(sec.Key("Exec").String())
	if name == "" || len(fields) == 0 {
		return Entry{}, false, nil
	}

	return Entry{
		DisplayName:   name,
		LaunchCommand: fields[0],
		SourceID:      filepath.Base(path),
	}, true, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
