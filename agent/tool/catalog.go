package tool

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/contract"
)

type Param struct {
	Name     string `json:"name" yaml:"name"`
	Desc     string `json:"description" yaml:"description"`
	Required bool   `json:"required" yaml:"required"`
}

// Definition describes a tool to the model and to API clients.
type Definition struct {
	Name   contractx.ToolName `json:"name" yaml:"name"`
	Desc   string             `json:"description" yaml:"description"`
	Params []Param            `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Signature renders the definition as name(param, optional?).
func (d Definition) Signature() string {
	names := make([]string, 0, len(d.Params))
	for _, p := range d.Params {
		if p.Required {
			names = append(names, p.Name)
		} else {
			names = append(names, p.Name+"?")
		}
	}
	return fmt.Sprintf("%s(%s)", d.Name, strings.Join(names, ", "))
}

func Definitions() []Definition {
	return []Definition{
		{
			Name: contractx.ToolOpenApp,
			Desc: "Open an installed application by name.",
			Params: []Param{
				{Name: "app_name", Desc: "Application name as the user said it", Required: true},
			},
		},
		{
			Name: contractx.ToolCloseWindow,
			Desc: "Close the first open window whose title contains the given text.",
			Params: []Param{
				{Name: "window_title", Desc: "Part of the window title", Required: true},
			},
		},
		{
			Name: contractx.ToolListApps,
			Desc: "List every installed application.",
		},
		{
			Name: contractx.ToolOpenFileBrowser,
			Desc: "Open the file manager at a folder, the home folder when no path is given.",
			Params: []Param{
				{Name: "path", Desc: "Folder to open, ~ is expanded", Required: false},
			},
		},
		{
			Name: contractx.ToolSystemInfo,
			Desc: "Report CPU, memory and root disk usage.",
		},
	}
}

// Describe renders one line per tool for a system prompt.
func Describe(defs []Definition) string {
	var b strings.Builder
	for _, d := range defs {
		fmt.Fprintf(&b, "- %s: %s\n", d.Signature(), d.Desc)
	}
	return strings.TrimRight(b.String(), "\n")
}
