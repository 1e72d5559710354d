package contract

import (
	"time"

	"github.com/cloudwego/eino/schema"
)

type ToolName string

const (
	ToolOpenApp         ToolName = "open_app"
	ToolCloseWindow     ToolName = "close_window"
	ToolListApps        ToolName = "list_apps"
	ToolOpenFileBrowser ToolName = "open_file_browser"
	ToolSystemInfo      ToolName = "system_info"
)

// ActionRequest is one parsed request for a tool invocation. The set of
// implementations is closed: OpenApp, CloseWindow, ListApps, OpenFileBrowser,
// SystemInfo and UnknownTool.
type ActionRequest interface {
	Tool() ToolName
	isAction()
}

type OpenApp struct {
	AppName string `json:"app_name" mapstructure:"app_name"`
}

type CloseWindow struct {
	WindowTitle string `json:"window_title" mapstructure:"window_title"`
}

type ListApps struct{}

type OpenFileBrowser struct {
	Path string `json:"path,omitempty" mapstructure:"path"`
}

type SystemInfo struct{}

// UnknownTool carries a tool name the model produced that is not in the tool set.
type UnknownTool struct {
	Name string `json:"name"`
}

func (OpenApp) Tool() ToolName         { return ToolOpenApp }
func (CloseWindow) Tool() ToolName     { return ToolCloseWindow }
func (ListApps) Tool() ToolName        { return ToolListApps }
func (OpenFileBrowser) Tool() ToolName { return ToolOpenFileBrowser }
func (SystemInfo) Tool() ToolName      { return ToolSystemInfo }
func (u UnknownTool) Tool() ToolName   { return ToolName(u.Name) }

func (OpenApp) isAction()         {}
func (CloseWindow) isAction()     {}
func (ListApps) isAction()        {}
func (OpenFileBrowser) isAction() {}
func (SystemInfo) isAction()      {}
func (UnknownTool) isAction()     {}

// Interpretation is what a parser extracted from one raw completion.
type Interpretation struct {
	Actions []ActionRequest
	Prose   string
}

func (i Interpretation) IsConversation() bool {
	return len(i.Actions) == 0
}

type DispatchStatus string

const (
	StatusOK          DispatchStatus = "ok"
	StatusInvalid     DispatchStatus = "invalid"
	StatusNotFound    DispatchStatus = "not_found"
	StatusUnavailable DispatchStatus = "unavailable"
	StatusFailed      DispatchStatus = "failed"
	StatusUnknown     DispatchStatus = "unknown"
)

type DispatchResult struct {
	Tool   ToolName       `json:"tool"`
	Text   string         `json:"text"`
	Status DispatchStatus `json:"status"`
}

type Exchange struct {
	ID            string    `json:"id"`
	UserText      string    `json:"user_text"`
	AssistantText string    `json:"assistant_text"`
	CreatedAt     time.Time `json:"created_at"`
}

type CompletionRequest struct {
	Messages []*schema.Message
	// Grammar, when set, constrains decoding to the given GBNF grammar.
	Grammar string
}
