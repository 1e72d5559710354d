package state

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/contract"
)

const (
	StoreDriverNone     = "none"
	StoreDriverUpstash  = "upstash"
	StoreDriverPostgres = "postgres"
)

// StoreConfig selects and configures the transcript store. Read with the STORE prefix.
type StoreConfig struct {
	Driver  string        `envconfig:"DRIVER" split_words:"true" default:"none"`
	URL     string        `envconfig:"URL" split_words:"true"`
	Token   string        `envconfig:"TOKEN" split_words:"true"`
	DSN     string        `envconfig:"DSN" split_words:"true"`
	TTL     time.Duration `envconfig:"TTL" split_words:"true" default:"168h"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

func (c StoreConfig) Validate() error {
	switch c.driver() {
	case StoreDriverNone:
		return nil
	case StoreDriverUpstash:
		if strings.TrimSpace(c.URL) == "" || strings.TrimSpace(c.Token) == "" {
			return fmt.Errorf("%w: upstash store needs url and token", contractx.ErrValidation)
		}
		return nil
	case StoreDriverPostgres:
		if strings.TrimSpace(c.DSN) == "" {
			return fmt.Errorf("%w: postgres store needs dsn", contractx.ErrValidation)
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported store driver=%q", contractx.ErrValidation, c.Driver)
	}
}

func (c StoreConfig) driver() string {
	d := strings.ToLower(strings.TrimSpace(c.Driver))
	if d == "" {
		return StoreDriverNone
	}
	return d
}

// NewTranscriptStore builds the store named by cfg.Driver. Postgres stores
// are returned unmigrated; call Migrate before first use.
func NewTranscriptStore(cfg StoreConfig, capacity int) (TranscriptStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.driver() {
	case StoreDriverUpstash:
		return NewUpstashRedisStore(
			UpstashRedisConfig{URL: cfg.URL, Token: cfg.Token, Timeout: cfg.Timeout},
			WithTTL(cfg.TTL),
			WithMaxLen(capacity),
		)
	case StoreDriverPostgres:
		return NewPostgresStore(PostgresConfig{DSN: cfg.DSN})
	default:
		return NoopStore{}, nil
	}
}
