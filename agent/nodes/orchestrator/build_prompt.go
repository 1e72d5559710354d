package orchestratornode

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/contract"
)

type PromptBuilder interface {
	Messages(ctx context.Context, history, input string) ([]*schema.Message, error)
}

// HistoryRenderer is the read side of the conversation history.
type HistoryRenderer interface {
	Render() string
}

func BuildPrompt(ctx context.Context, in *GraphState, builder PromptBuilder, history HistoryRenderer) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	msgs, err := builder.Messages(ctx, history.Render(), in.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrPromptMissing, err)
	}
	in.Messages = msgs
	return in, nil
}
