package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/contract"
)

// ChatCompleter runs a chat model through a one-node eino graph. It cannot
// enforce a grammar, so it pairs with the marker output contract.
type ChatCompleter struct {
	runner compose.Runnable[[]*schema.Message, *schema.Message]
}

var _ contractx.Completer = (*ChatCompleter)(nil)

func NewChatCompleter(ctx context.Context, chatModel einomodel.BaseChatModel) (*ChatCompleter, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}

	graph := compose.NewGraph[[]*schema.Message, *schema.Message]()
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add chat model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "model"); err != nil {
		return nil, fmt.Errorf("add chat edge start->model: %w", err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add chat edge model->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("llm.chat_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile chat graph: %w", err)
	}
	return &ChatCompleter{runner: runner}, nil
}

func (c *ChatCompleter) Complete(ctx context.Context, req contractx.CompletionRequest) (string, error) {
	if len(req.Messages) == 0 {
		return "", fmt.Errorf("%w: no messages to send", contractx.ErrValidation)
	}
	if req.Grammar != "" {
		log.Ctx(ctx).Debug().Msg("chat completer ignores grammar")
	}

	msg, err := c.runner.Invoke(ctx, req.Messages)
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil {
		return "", fmt.Errorf("%w: model returned no message", contractx.ErrModelInvoke)
	}
	return strings.TrimSpace(msg.Content), nil
}
