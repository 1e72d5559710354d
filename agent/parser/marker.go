package parser

import (
	"strings"

	"github.com/bytedance/sonic"
	contractx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/contract"
)

const (
	markerToolCall   = "TOOL_CALL:"
	markerParameters = "PARAMETERS:"
)

// MarkerParser reads the free-text contract, where any number of
// "TOOL_CALL: <name>" blocks, each optionally followed by a
// "PARAMETERS: <text>" line, may be embedded in prose.
type MarkerParser struct{}

func NewMarkerParser() *MarkerParser {
	return &MarkerParser{}
}

func (p *MarkerParser) Parse(text string) contractx.Interpretation {
	segments := strings.Split(text, markerToolCall)
	if len(segments) == 1 {
		return conversation(strings.TrimSpace(text))
	}

	actions := make([]contractx.ActionRequest, 0, len(segments)-1)
	for _, body := range segments[1:] {
		actions = append(actions, parseMarkerBody(body))
	}
	return contractx.Interpretation{
		Actions: actions,
		Prose:   strings.TrimSpace(segments[0]),
	}
}

func parseMarkerBody(body string) contractx.ActionRequest {
	lines := strings.SplitN(body, "\n", 3)
	tool := strings.TrimSpace(lines[0])

	var raw string
	if len(lines) > 1 {
		if _, after, found := strings.Cut(lines[1], markerParameters); found {
			raw = strings.TrimSpace(after)
		}
	}

	name := contractx.ToolName(strings.ToLower(tool))
	return BuildAction(tool, ParseParameterText(name, raw))
}

// ParseParameterText interprets the text after PARAMETERS:. A JSON object
// wins; otherwise "key: value" with a known key; otherwise the whole text is
// the tool's single parameter.
func ParseParameterText(tool contractx.ToolName, raw string) map[string]any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if strings.HasPrefix(raw, "{") {
		var obj map[string]any
		if err := sonic.UnmarshalString(raw, &obj); err == nil {
			return obj
		}
	}

	if key, value, found := strings.Cut(raw, ":"); found {
		if name, ok := CanonicalParam(key); ok {
			return map[string]any{name: unquote(value)}
		}
	}

	if name, ok := DefaultParam(tool); ok {
		return map[string]any{name: unquote(raw)}
	}
	return nil
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'') && first == last {
			return strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}
