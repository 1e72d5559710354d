package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/contract"
)

func Complete(ctx context.Context, in *GraphState, completer contractx.Completer, grammar string) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	raw, err := completer.Complete(ctx, contractx.CompletionRequest{
		Messages: in.Messages,
		Grammar:  grammar,
	})
	if err != nil {
		return nil, err
	}
	in.Completion = raw

	log.Ctx(ctx).Debug().
		Int("completion_len", len(raw)).
		Msg("model completion")
	return in, nil
}
