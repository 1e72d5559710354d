package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/contract"
)

// Recorder stores a finished exchange.
type Recorder interface {
	Record(ctx context.Context, userText, assistantText string) contractx.Exchange
}

// RecordHistory is the last node, so a failure anywhere earlier leaves the
// history untouched.
func RecordHistory(ctx context.Context, in *GraphState, recorder Recorder) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	ex := recorder.Record(ctx, in.Text, in.Reply)
	return GraphOutput{
		Reply:    in.Reply,
		Exchange: ex,
		Results:  in.Results,
	}, nil
}
