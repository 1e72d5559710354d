package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/contract"
)

func Dispatch(ctx context.Context, in *GraphState, dispatcher contractx.Dispatcher) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Interpretation.IsConversation() {
		return in, nil
	}

	results, err := dispatcher.ExecuteAll(ctx, in.Interpretation.Actions)
	if err != nil {
		return nil, err
	}
	in.Results = results
	return in, nil
}
