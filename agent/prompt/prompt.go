package prompt

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"github.com/goccy/go-yaml"
	contractx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/contract"
)

var (
	//go:embed template/system.txt
	systemRaw string

	//go:embed template/format_json.txt
	formatJSONRaw string

	//go:embed template/format_marker.txt
	formatMarkerRaw string

	//go:embed template/grammar.gbnf
	grammarRaw string
)

// Format selects which output contract the system prompt teaches the model.
type Format int

const (
	FormatJSON Format = iota
	FormatMarker
)

// Grammar returns the GBNF grammar that restricts a completion to either a
// single tool-call object or plain chat text.
func Grammar() string {
	return strings.TrimSpace(grammarRaw)
}

type Option func(*Builder)

func WithFormat(f Format) Option {
	return func(b *Builder) { b.format = f }
}

// WithTools sets the tool listing shown to the model.
func WithTools(description string) Option {
	return func(b *Builder) { b.tools = strings.TrimSpace(description) }
}

// WithApps adds an installed-applications block listing at most limit names.
// A non-positive limit disables the block.
func WithApps(names []string, limit int) Option {
	return func(b *Builder) {
		b.apps = names
		b.appsLimit = limit
	}
}

// Builder renders the per-turn message list: one system message carrying the
// rules, tools and history, and one user message carrying the utterance.
type Builder struct {
	format    Format
	tools     string
	apps      []string
	appsLimit int

	appsBlock string
	template  *einoprompt.DefaultChatTemplate
}

func NewBuilder(opts ...Option) (*Builder, error) {
	b := &Builder{format: FormatJSON}
	for _, opt := range opts {
		opt(b)
	}
	if b.tools == "" {
		return nil, fmt.Errorf("%w: tool description", contractx.ErrPromptMissing)
	}

	block, err := renderApps(b.apps, b.appsLimit)
	if err != nil {
		return nil, err
	}
	b.appsBlock = block

	// GoTemplate keeps the literal JSON braces in the examples intact.
	b.template = einoprompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(strings.TrimSpace(systemRaw)),
		schema.UserMessage("{{.input}}"),
	)
	return b, nil
}

// Messages renders the prompt for one turn. history is the already rendered
// conversation block and may be empty.
func (b *Builder) Messages(ctx context.Context, history, input string) ([]*schema.Message, error) {
	msgs, err := b.template.Format(ctx, map[string]any{
		"history": strings.TrimRight(history, "\n"),
		"format":  strings.TrimSpace(b.formatRules()),
		"tools":   b.tools,
		"apps":    b.appsBlock,
		"input":   input,
	})
	if err != nil {
		return nil, fmt.Errorf("format prompt: %w", err)
	}
	return msgs, nil
}

func (b *Builder) formatRules() string {
	if b.format == FormatMarker {
		return formatMarkerRaw
	}
	return formatJSONRaw
}

func renderApps(names []string, limit int) (string, error) {
	if limit <= 0 || len(names) == 0 {
		return "", nil
	}
	if len(names) > limit {
		names = names[:limit]
	}
	out, err := yaml.Marshal(names)
	if err != nil {
		return "", fmt.Errorf("render installed apps: %w", err)
	}
	return strings.TrimRight(string(out), "\n"), nil
}
