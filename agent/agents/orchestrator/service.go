package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/contract"
	nodex "github.com/tanpawarit/Chative-Desktop-Assistant/agent/nodes/orchestrator"
	statex "github.com/tanpawarit/Chative-Desktop-Assistant/agent/state"
	logx "github.com/tanpawarit/Chative-Desktop-Assistant/pkg/logger"
	metricsx "github.com/tanpawarit/Chative-Desktop-Assistant/pkg/metrics"
)

var ErrInvalidMessage = contractx.ErrInvalidMessage

const logTextLimit = 100

// State is the turn phase. AwaitingCompletion is the only phase that waits
// on something outside the process.
type State int32

const (
	StateIdle State = iota
	StateAwaitingCompletion
	StateInterpreting
	StateDispatching
)

func (s State) String() string {
	switch s {
	case StateAwaitingCompletion:
		return "awaiting_completion"
	case StateInterpreting:
		return "interpreting"
	case StateDispatching:
		return "dispatching"
	default:
		return "idle"
	}
}

type Config struct {
	// Grammar is sent with every completion request. Leave empty when the
	// completer cannot honour it.
	Grammar string
	// ResultPrefix is put in front of every dispatch result line.
	ResultPrefix string
}

type Deps struct {
	Session    *statex.Session
	Prompt     nodex.PromptBuilder
	Completer  contractx.Completer
	Parser     contractx.Parser
	Dispatcher contractx.Dispatcher
	Metrics    *metricsx.Metrics
}

// Orchestrator runs one conversational turn end to end. Callers must not run
// two turns against the same session at once.
type Orchestrator struct {
	session    *statex.Session
	prompt     nodex.PromptBuilder
	completer  contractx.Completer
	parser     contractx.Parser
	dispatcher contractx.Dispatcher
	metrics    *metricsx.Metrics

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	grammar      string
	resultPrefix string
	state        atomic.Int32

	now func() time.Time
}

func New(deps Deps, cfg Config) (*Orchestrator, error) {
	if deps.Session == nil {
		return nil, errors.New("session is required")
	}
	if deps.Prompt == nil {
		return nil, errors.New("prompt builder is required")
	}
	if deps.Completer == nil {
		return nil, errors.New("completer is required")
	}
	if deps.Parser == nil {
		return nil, errors.New("parser is required")
	}
	if deps.Dispatcher == nil {
		return nil, errors.New("tool dispatcher is required")
	}

	o := &Orchestrator{
		session:      deps.Session,
		prompt:       deps.Prompt,
		completer:    deps.Completer,
		parser:       deps.Parser,
		dispatcher:   deps.Dispatcher,
		metrics:      deps.Metrics,
		grammar:      cfg.Grammar,
		resultPrefix: cfg.ResultPrefix,
		now:          time.Now,
	}

	graphRunner, err := o.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleMessage runs one turn and returns the reply. On error the history is
// left as it was.
func (o *Orchestrator) HandleMessage(ctx context.Context, text string) (string, error) {
	out, err := o.handle(ctx, text)
	if err != nil {
		return "", err
	}
	return out.Reply, nil
}

// Turn is HandleMessage with the recorded exchange and dispatch results.
func (o *Orchestrator) Turn(ctx context.Context, text string) (nodex.GraphOutput, error) {
	return o.handle(ctx, text)
}

// Respond is the front-end form of HandleMessage: failures come back as an
// "Error: ..." reply.
func (o *Orchestrator) Respond(ctx context.Context, text string) string {
	reply, err := o.HandleMessage(ctx, text)
	if err != nil {
		return "Error: " + err.Error()
	}
	return reply
}

// Submit runs the turn on its own goroutine. The channel yields exactly one
// reply and is then closed.
func (o *Orchestrator) Submit(ctx context.Context, text string) <-chan string {
	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		ch <- o.Respond(ctx, text)
	}()
	return ch
}

func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

func (o *Orchestrator) Session() *statex.Session {
	return o.session
}

func (o *Orchestrator) setState(s State) {
	o.state.Store(int32(s))
}

func (o *Orchestrator) handle(ctx context.Context, text string) (nodex.GraphOutput, error) {
	start := o.now()
	logger := log.With().
		Str("session_id", o.session.ID).
		Str("text", logx.Truncate(text, logTextLimit)).
		Logger()
	ctx = logger.WithContext(ctx)

	defer o.setState(StateIdle)

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{Text: text})
	elapsed := o.now().Sub(start)
	if err != nil {
		o.metrics.ObserveTurn("error", elapsed)
		logger.Error().Err(err).Dur("elapsed", elapsed).Msg("turn failed")
		return nodex.GraphOutput{}, unwrapGraphError(err)
	}

	outcome := "conversation"
	if len(out.Results) > 0 {
		outcome = "action"
	}
	o.metrics.ObserveTurn(outcome, elapsed)
	logger.Info().
		Str("exchange_id", out.Exchange.ID).
		Int("actions", len(out.Results)).
		Dur("elapsed", elapsed).
		Msg("turn completed")
	return out, nil
}

// unwrapGraphError strips the graph runner's node decoration so the reply
// shows the node's own message. errors.Is keeps working either way.
func unwrapGraphError(err error) error {
	for _, sentinel := range []error{
		contractx.ErrInvalidMessage,
		contractx.ErrModelInvoke,
		contractx.ErrPromptMissing,
		contractx.ErrDispatch,
		contractx.ErrValidation,
		context.Canceled,
		context.DeadlineExceeded,
	} {
		if !errors.Is(err, sentinel) {
			continue
		}
		for e := err; e != nil; e = errors.Unwrap(e) {
			if strings.HasPrefix(e.Error(), sentinel.Error()) {
				return e
			}
		}
	}
	return err
}
