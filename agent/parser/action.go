package parser

import (
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/contract"
)

// defaultParams names the single parameter a tool takes when the model gives
// a bare value instead of a key.
var defaultParams = map[contractx.ToolName]string{
	contractx.ToolOpenApp:         "app_name",
	contractx.ToolCloseWindow:     "window_title",
	contractx.ToolOpenFileBrowser: "path",
}

var paramAliases = map[string]string{
	"app_name":     "app_name",
	"app":          "app_name",
	"application":  "app_name",
	"window_title": "window_title",
	"window":       "window_title",
	"title":        "window_title",
	"path":         "path",
}

func DefaultParam(tool contractx.ToolName) (string, bool) {
	name, ok := defaultParams[tool]
	return name, ok
}

// CanonicalParam maps a parameter key the model produced onto the name the
// tool expects.
func CanonicalParam(key string) (string, bool) {
	name, ok := paramAliases[strings.ToLower(strings.TrimSpace(key))]
	return name, ok
}

// BuildAction turns a tool name and loosely-typed parameters into an
// ActionRequest. Names outside the tool set become UnknownTool.
func BuildAction(tool string, params map[string]any) contractx.ActionRequest {
	raw := strings.TrimSpace(tool)
	params = canonicalize(params)

	switch contractx.ToolName(strings.ToLower(raw)) {
	case contractx.ToolOpenApp:
		var a contractx.OpenApp
		decodeParams(raw, params, &a)
		a.AppName = strings.TrimSpace(a.AppName)
		return a
	case contractx.ToolCloseWindow:
		var a contractx.CloseWindow
		decodeParams(raw, params, &a)
		a.WindowTitle = strings.TrimSpace(a.WindowTitle)
		return a
	case contractx.ToolOpenFileBrowser:
		var a contractx.OpenFileBrowser
		decodeParams(raw, params, &a)
		a.Path = strings.TrimSpace(a.Path)
		return a
	case contractx.ToolListApps:
		return contractx.ListApps{}
	case contractx.ToolSystemInfo:
		return contractx.SystemInfo{}
	default:
		return contractx.UnknownTool{Name: raw}
	}
}

// aliasOrder ranks the keys for each parameter. The canonical key comes
// first so it always wins over an alias.
var aliasOrder = map[string][]string{
	"app_name":     {"app_name", "app", "application"},
	"window_title": {"window_title", "window", "title"},
	"path":         {"path"},
}

func canonicalize(params map[string]any) map[string]any {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]any, len(params))
	keys := make(map[string]string, len(params))
	for k, v := range params {
		norm := strings.ToLower(strings.TrimSpace(k))
		if _, ok := paramAliases[norm]; ok {
			// Keep the exact spelling when the model sent both "App" and "app".
			if prev, seen := keys[norm]; !seen || k == norm || (prev != norm && k < prev) {
				keys[norm] = k
			}
			continue
		}
		out[k] = v
	}
	for name, order := range aliasOrder {
		for _, alias := range order {
			if k, ok := keys[alias]; ok {
				out[name] = params[k]
				break
			}
		}
	}
	return out
}

func decodeParams(tool string, params map[string]any, out any) {
	if len(params) == 0 {
		return
	}
	if err := mapstructure.WeakDecode(params, out); err != nil {
		log.Debug().Err(err).Str("tool", tool).Msg("tool parameters partially decoded")
	}
}
