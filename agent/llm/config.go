package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/contract"
	openaicompatx "github.com/tanpawarit/Chative-Desktop-Assistant/pkg/openaicompat"
)

// Llama3Stop ends a Llama-3 assistant turn.
const Llama3Stop = "<|eot_id|>"

type Config struct {
	BaseURL     string        `envconfig:"BASE_URL" split_words:"true" default:"http://127.0.0.1:8080/v1"`
	APIKey      string        `envconfig:"API_KEY" split_words:"true"`
	Model       string        `envconfig:"MODEL" split_words:"true" default:"local"`
	MaxTokens   int           `envconfig:"MAX_TOKENS" split_words:"true" default:"256"`
	Temperature float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.1"`
	Timeout     time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"60s"`
	Stop        string        `envconfig:"STOP" split_words:"true" default:"<|eot_id|>"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("%w: llm base url is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: llm model is required", contractx.ErrValidation)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("%w: llm max tokens must be positive", contractx.ErrValidation)
	}
	if c.Temperature < 0 {
		return fmt.Errorf("%w: llm temperature must not be negative", contractx.ErrValidation)
	}
	return nil
}

func (c Config) Endpoint() openaicompatx.Config {
	maxTokens := c.MaxTokens
	return openaicompatx.Config{
		BaseURL:     strings.TrimSpace(c.BaseURL),
		APIKey:      strings.TrimSpace(c.APIKey),
		Model:       strings.TrimSpace(c.Model),
		MaxTokens:   &maxTokens,
		Temperature: c.Temperature,
		Timeout:     c.Timeout,
	}
}
