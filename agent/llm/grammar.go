package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/contract"
)

// GrammarCompleter talks to a llama.cpp style server through the legacy
// completions endpoint, which is the one that accepts a GBNF "grammar" field.
type GrammarCompleter struct {
	client      *openaisdk.Client
	model       string
	maxTokens   int64
	temperature float64
	stop        string
}

var _ contractx.Completer = (*GrammarCompleter)(nil)

func NewGrammarCompleter(client *openaisdk.Client, cfg Config) (*GrammarCompleter, error) {
	if client == nil {
		return nil, errors.New("openai client is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &GrammarCompleter{
		client:      client,
		model:       strings.TrimSpace(cfg.Model),
		maxTokens:   int64(cfg.MaxTokens),
		temperature: float64(cfg.Temperature),
		stop:        cfg.Stop,
	}, nil
}

func (g *GrammarCompleter) Complete(ctx context.Context, req contractx.CompletionRequest) (string, error) {
	prompt, err := Llama3Prompt(req.Messages)
	if err != nil {
		return "", err
	}

	params := openaisdk.CompletionNewParams{
		Model:       openaisdk.CompletionNewParamsModel(g.model),
		Prompt:      openaisdk.CompletionNewParamsPromptUnion{OfString: openaisdk.String(prompt)},
		MaxTokens:   openaisdk.Int(g.maxTokens),
		Temperature: openaisdk.Float(g.temperature),
	}
	if g.stop != "" {
		params.Stop = openaisdk.CompletionNewParamsStopUnion{OfString: openaisdk.String(g.stop)}
	}

	var opts []option.RequestOption
	if req.Grammar != "" {
		opts = append(opts, option.WithJSONSet("grammar", req.Grammar))
	}

	resp, err := g.client.Completions.New(ctx, params, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: completion has no choices", contractx.ErrModelInvoke)
	}

	text := strings.TrimSpace(resp.Choices[0].Text)
	log.Ctx(ctx).Debug().
		Int("completion_len", len(text)).
		Bool("grammar", req.Grammar != "").
		Msg("completion received")
	return text, nil
}

// Llama3Prompt frames messages with Llama-3 header tokens and leaves the
// assistant header open for generation.
func Llama3Prompt(msgs []*schema.Message) (string, error) {
	var b strings.Builder
	n := 0
	for _, m := range msgs {
		if m == nil {
			continue
		}
		b.WriteString("<|start_header_id|>")
		b.WriteString(string(m.Role))
		b.WriteString("<|end_header_id|>\n\n")
		b.WriteString(m.Content)
		b.WriteString(Llama3Stop)
		n++
	}
	if n == 0 {
		return "", fmt.Errorf("%w: no messages to send", contractx.ErrValidation)
	}
	b.WriteString("<|start_header_id|>assistant<|end_header_id|>\n\n")
	return b.String(), nil
}
