package contract

import "context"

type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type Parser interface {
	Parse(text string) Interpretation
}

type Dispatcher interface {
	ExecuteAll(ctx context.Context, reqs []ActionRequest) ([]DispatchResult, error)
}
