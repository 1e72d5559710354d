package orchestratornode

import (
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	contractx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/contract"
)

type GraphInput struct {
	Text string
}

type GraphOutput struct {
	Reply    string
	Exchange contractx.Exchange
	Results  []contractx.DispatchResult
}

// GraphState is threaded through every node of one turn.
type GraphState struct {
	TurnID string
	Text   string
	Now    time.Time

	Messages       []*schema.Message
	Completion     string
	Interpretation contractx.Interpretation
	Results        []contractx.DispatchResult

	Reply string
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, contractx.ErrInvalidMessage
	}

	return &GraphState{
		TurnID: uuid.NewString(),
		Text:   text,
		Now:    nowFn().UTC(),
	}, nil
}
