package parser

import (
	"strings"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/contract"
)

type toolObject struct {
	Tool       *string `json:"tool"`
	Parameters any     `json:"parameters"`
}

// StrictParser reads the grammar-constrained contract: at most one JSON tool
// object, anything else is conversation.
type StrictParser struct{}

func NewStrictParser() *StrictParser {
	return &StrictParser{}
}

func (p *StrictParser) Parse(text string) contractx.Interpretation {
	trimmed := strings.TrimSpace(text)

	span, ok := findToolObject(trimmed)
	if !ok {
		return conversation(trimmed)
	}

	var obj toolObject
	if err := sonic.UnmarshalString(trimmed[span.Start:span.End], &obj); err != nil {
		log.Debug().Err(err).Msg("tool object is not valid json, treating as conversation")
		return conversation(trimmed)
	}
	if obj.Tool == nil {
		return conversation(trimmed)
	}

	action := BuildAction(*obj.Tool, paramsFromValue(contractx.ToolName(strings.ToLower(strings.TrimSpace(*obj.Tool))), obj.Parameters))
	return contractx.Interpretation{
		Actions: []contractx.ActionRequest{action},
		Prose:   joinProse(trimmed[:span.Start], trimmed[span.End:]),
	}
}

// paramsFromValue accepts the usual object form and, for tools with a single
// parameter, a bare scalar.
func paramsFromValue(tool contractx.ToolName, v any) map[string]any {
	switch typed := v.(type) {
	case map[string]any:
		return typed
	case string:
		if name, ok := DefaultParam(tool); ok && strings.TrimSpace(typed) != "" {
			return map[string]any{name: typed}
		}
	}
	return nil
}

func conversation(text string) contractx.Interpretation {
	return contractx.Interpretation{Prose: text}
}

func joinProse(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, " ")
}
