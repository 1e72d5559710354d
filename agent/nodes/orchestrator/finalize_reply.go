package orchestratornode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/contract"
)

// EmptyReply stands in for a completion that carried neither a tool call nor
// any text.
const EmptyReply = "Sorry, I didn't get an answer for that. Could you rephrase?"

// FinalizeReply assembles the user-facing reply: the prose alone for a
// conversational turn, otherwise one prefixed line per result followed by
// the prose after a blank line.
func FinalizeReply(in *GraphState, resultPrefix string) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	prose := strings.TrimSpace(in.Interpretation.Prose)
	if len(in.Results) == 0 {
		if prose == "" {
			prose = EmptyReply
		}
		in.Reply = prose
		return in, nil
	}

	lines := make([]string, len(in.Results))
	for i, r := range in.Results {
		lines[i] = resultPrefix + r.Text
	}
	reply := strings.Join(lines, "\n")
	if prose != "" {
		reply += "\n\n" + prose
	}
	in.Reply = reply
	return in, nil
}
