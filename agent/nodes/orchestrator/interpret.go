package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/contract"
)

// Interpret never fails on model output: unparseable text is conversation.
func Interpret(ctx context.Context, in *GraphState, parser contractx.Parser) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	in.Interpretation = parser.Parse(in.Completion)

	tools := make([]string, len(in.Interpretation.Actions))
	for i, a := range in.Interpretation.Actions {
		tools[i] = string(a.Tool())
	}
	log.Ctx(ctx).Debug().
		Strs("tools", tools).
		Bool("has_prose", in.Interpretation.Prose != "").
		Msg("completion interpreted")
	return in, nil
}
