package logx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Debug        bool `split_words:"true" default:"false"`
	PrettyFormat bool `split_words:"true" default:"false"`
	// File, when set, receives a JSON copy of every log line.
	File string `split_words:"true"`
	// Console writes to stdout. Interactive front ends turn it off and log
	// to File only.
	Console bool `split_words:"true" default:"true"`
}

var DefaultConfig = &Config{
	Debug:        false,
	PrettyFormat: false,
	Console:      true,
}

func safe(opts ...Config) *Config {
	if len(opts) == 0 {
		return DefaultConfig
	}
	return &opts[0]
}

// Init configures the global logger. The returned closer releases the log
// file and is a no-op when no file was configured.
func Init(opts ...Config) (io.Closer, error) {
	conf := safe(opts...)

	var writers []io.Writer
	if conf.Console {
		if conf.PrettyFormat {
			writers = append(writers, zerolog.NewConsoleWriter())
		} else {
			writers = append(writers, os.Stdout)
		}
	}

	var closer io.Closer = nopCloser{}
	if conf.File != "" {
		f, err := openLogFile(conf.File)
		if err != nil {
			return closer, err
		}
		writers = append(writers, f)
		closer = f
	}

	var out io.Writer = io.Discard
	switch len(writers) {
	case 0:
	case 1:
		out = writers[0]
	default:
		out = zerolog.MultiLevelWriter(writers...)
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()

	if conf.Debug {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	log.Logger = log.Logger.With().Caller().Stack().Logger()
	zerolog.DefaultContextLogger = &log.Logger
	return closer, nil
}

// DefaultFile returns ~/.ai_assistant/logs/assistant_<timestamp>.log.
func DefaultFile(now time.Time) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	name := fmt.Sprintf("assistant_%s.log", now.Format("20060102_150405"))
	return filepath.Join(home, ".ai_assistant", "logs", name), nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// Truncate shortens user text for log lines.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
