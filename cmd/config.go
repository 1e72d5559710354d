package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/tanpawarit/Chative-Desktop-Assistant/agent/catalog"
	contractx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/contract"
	"github.com/tanpawarit/Chative-Desktop-Assistant/agent/parser"
	statex "github.com/tanpawarit/Chative-Desktop-Assistant/agent/state"
)

// AppConfig is read with the ASSISTANT prefix.
type AppConfig struct {
	Mode              string        `split_words:"true" default:"grammar"`
	SessionID         string        `envconfig:"SESSION_ID" default:"local"`
	HistoryCapacity   int           `split_words:"true" default:"10"`
	HistoryWindow     int           `split_words:"true" default:"5"`
	DesktopDirs       []string      `split_words:"true"`
	DesktopPattern    string        `split_words:"true" default:"*.desktop"`
	ProcRoot          string        `split_words:"true" default:"/proc"`
	CPUSampleInterval time.Duration `envconfig:"CPU_SAMPLE_INTERVAL" default:"100ms"`
	AppsInPrompt      int           `split_words:"true" default:"0"`
	ResultPrefix      string        `split_words:"true" default:"✅ "`
}

func (c AppConfig) Validate() error {
	if _, err := parser.ParseMode(c.Mode); err != nil {
		return err
	}
	if c.HistoryCapacity <= 0 {
		return fmt.Errorf("%w: history capacity must be positive", contractx.ErrValidation)
	}
	if c.HistoryWindow <= 0 {
		return fmt.Errorf("%w: history window must be positive", contractx.ErrValidation)
	}
	if c.CPUSampleInterval <= 0 {
		return fmt.Errorf("%w: cpu sample interval must be positive", contractx.ErrValidation)
	}
	return nil
}

func (c AppConfig) desktopDirs() []string {
	dirs := make([]string, 0, len(c.DesktopDirs))
	for _, d := range c.DesktopDirs {
		if d = strings.TrimSpace(d); d != "" {
			dirs = append(dirs, d)
		}
	}
	if len(dirs) == 0 {
		return catalog.DefaultDesktopDirs
	}
	return dirs
}

func (c AppConfig) sessionID() string {
	if id := strings.TrimSpace(c.SessionID); id != "" {
		return id
	}
	return statex.DefaultSessionID
}
