package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	contractx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/contract"
)

var (
	ErrInvalidSession = errors.New("session id is empty")
	ErrNilExchange    = errors.New("exchange is empty")
)

const (
	defaultStoreKeyPrefix = "assistant:transcript:"
	defaultStoreTTL       = 7 * 24 * time.Hour
	defaultStoreMaxLen    = DefaultHistoryCapacity
	maxResponseSizeBytes  = 2 << 20
)

// TranscriptStore persists completed exchanges so a session can resume with
// its recent history.
type TranscriptStore interface {
	Load(ctx context.Context, sessionID string, limit int) ([]contractx.Exchange, error)
	Append(ctx context.Context, sessionID string, ex contractx.Exchange) error
	Delete(ctx context.Context, sessionID string) error
}

// NoopStore keeps nothing.
type NoopStore struct{}

func (NoopStore) Load(context.Context, string, int) ([]contractx.Exchange, error) {
	return nil, nil
}

func (NoopStore) Append(context.Context, string, contractx.Exchange) error {
	return nil
}

func (NoopStore) Delete(context.Context, string) error {
	return nil
}

// StoreOption customizes UpstashRedisStore.
type StoreOption func(*UpstashRedisStore)

func WithKeyPrefix(prefix string) StoreOption {
	return func(s *UpstashRedisStore) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			s.keyPrefix = trimmed
		}
	}
}

func WithTTL(ttl time.Duration) StoreOption {
	return func(s *UpstashRedisStore) {
		s.ttl = ttl
	}
}

func WithMaxLen(n int) StoreOption {
	return func(s *UpstashRedisStore) {
		if n > 0 {
			s.maxLen = n
		}
	}
}

func WithHTTPClient(client *http.Client) StoreOption {
	return func(s *UpstashRedisStore) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// UpstashRedisStore keeps each session transcript as a capped Redis list,
// talking to Upstash over its REST API.
type UpstashRedisStore struct {
	baseURL    string
	token      string
	httpClient *http.Client
	keyPrefix  string
	ttl        time.Duration
	maxLen     int
}

type redisRESTResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

type UpstashRedisConfig struct {
	URL     string        `envconfig:"URL" split_words:"true" required:"true"`
	Token   string        `envconfig:"TOKEN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

func NewUpstashRedisStore(cfg UpstashRedisConfig, opts ...StoreOption) (*UpstashRedisStore, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("upstash redis url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid redis rest url: %w", err)
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("upstash redis token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	store := &UpstashRedisStore{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		keyPrefix: defaultStoreKeyPrefix,
		ttl:       defaultStoreTTL,
		maxLen:    defaultStoreMaxLen,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}

	if store.ttl < 0 {
		return nil, errors.New("ttl must be >= 0")
	}

	return store, nil
}

func (s *UpstashRedisStore) Load(ctx context.Context, sessionID string, limit int) ([]contractx.Exchange, error) {
	key, err := s.redisKey(sessionID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.maxLen
	}

	resp, err := s.exec(ctx, []any{"LRANGE", key, -limit, -1})
	if err != nil {
		return nil, err
	}

	result := bytes.TrimSpace(resp.Result)
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return nil, nil
	}

	var encoded []string
	if err := sonic.Unmarshal(result, &encoded); err != nil {
		return nil, fmt.Errorf("decode transcript payload: %w", err)
	}

	out := make([]contractx.Exchange, 0, len(encoded))
	for _, item := range encoded {
		var ex contractx.Exchange
		if err := sonic.UnmarshalString(item, &ex); err != nil {
			return nil, fmt.Errorf("unmarshal exchange: %w", err)
		}
		out = append(out, ex)
	}
	return out, nil
}

func (s *UpstashRedisStore) Append(ctx context.Context, sessionID string, ex contractx.Exchange) error {
	if strings.TrimSpace(ex.ID) == "" {
		return ErrNilExchange
	}
	key, err := s.redisKey(sessionID)
	if err != nil {
		return err
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now().UTC()
	}

	payload, err := sonic.MarshalString(ex)
	if err != nil {
		return fmt.Errorf("marshal exchange: %w", err)
	}

	if _, err := s.exec(ctx, []any{"RPUSH", key, payload}); err != nil {
		return err
	}
	if _, err := s.exec(ctx, []any{"LTRIM", key, -s.maxLen, -1}); err != nil {
		return err
	}
	if s.ttl > 0 {
		if _, err := s.exec(ctx, []any{"EXPIRE", key, ttlSeconds(s.ttl)}); err != nil {
			return err
		}
	}
	return nil
}

func (s *UpstashRedisStore) Delete(ctx context.Context, sessionID string) error {
	key, err := s.redisKey(sessionID)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, []any{"DEL", key})
	return err
}

func (s *UpstashRedisStore) redisKey(sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", ErrInvalidSession
	}
	prefix := strings.TrimSpace(s.keyPrefix)
	if prefix == "" {
		prefix = defaultStoreKeyPrefix
	}
	return prefix + strings.TrimSpace(sessionID), nil
}

func (s *UpstashRedisStore) exec(ctx context.Context, command []any) (*redisRESTResponse, error) {
	if s == nil {
		return nil, errors.New("nil store")
	}
	if len(command) == 0 {
		return nil, errors.New("empty redis command")
	}

	body, err := sonic.Marshal(command)
	if err != nil {
		return nil, fmt.Errorf("marshal redis command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build redis request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute redis request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read redis response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("redis http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed redisRESTResponse
	if err := sonic.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode redis response: %w", err)
	}
	if parsed.Error != "" {
		return nil, errors.New(parsed.Error)
	}
	return &parsed, nil
}

func ttlSeconds(ttl time.Duration) int64 {
	seconds := ttl / time.Second
	if seconds <= 0 {
		return 1
	}
	if ttl%time.Second != 0 {
		seconds++
	}
	return int64(seconds)
}
