package openaicompat

import (
	"context"
	"fmt"
	"strings"
	"time"

	openaimodel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// NoKey is sent when the server does not check keys, as llama.cpp's server
// does by default.
const NoKey = "sk-no-key"

type LLMBuilder interface {
	NewChatModel(ctx context.Context) (model.ToolCallingChatModel, error)
}

var _ LLMBuilder = (*Config)(nil)

// Config describes any OpenAI-compatible endpoint: a local llama.cpp server,
// Ollama, vLLM or a hosted provider.
type Config struct {
	BaseURL     string        `envconfig:"BASE_URL" split_words:"true" default:"http://127.0.0.1:8080/v1"`
	APIKey      string        `envconfig:"API_KEY" split_words:"true"`
	Model       string        `envconfig:"MODEL" split_words:"true" default:"local"`
	MaxTokens   *int          `envconfig:"MAX_TOKENS" split_words:"true" default:"256"`
	Temperature float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.1"`
	Timeout     time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"60s"`
	Headers     map[string]string
}

func (c *Config) key() string {
	if k := strings.TrimSpace(c.APIKey); k != "" {
		return k
	}
	return NoKey
}

func (c *Config) NewChatModel(ctx context.Context) (model.ToolCallingChatModel, error) {
	temp := c.Temperature
	conf := &openaimodel.ChatModelConfig{
		BaseURL:     strings.TrimRight(c.BaseURL, "/"),
		APIKey:      c.key(),
		Model:       strings.TrimSpace(c.Model),
		MaxTokens:   c.MaxTokens,
		Temperature: &temp,
		Timeout:     c.Timeout,
	}

	m, err := openaimodel.NewChatModel(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("openaicompat: create chat model: %w", err)
	}
	return m, nil
}

// NewClient creates an OpenAI SDK client for the configured endpoint. The
// raw client is needed for the legacy completions API, which eino does not
// wrap.
func NewClient(cfg Config) *openaisdk.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.key()),
	}
	if trimmed := strings.TrimRight(cfg.BaseURL, "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	for k, v := range cfg.Headers {
		opts = append(opts, option.WithHeader(k, v))
	}

	client := openaisdk.NewClient(opts...)
	return &client
}
