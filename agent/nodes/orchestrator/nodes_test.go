package orchestratornode

import (
	"context"
	"errors"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/contract"
)

func TestValidateRequest(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))
	st, err := ValidateRequest(GraphInput{Text: "  open firefox \n"}, func() time.Time { return now })
	if err != nil {
		t.Fatalf("ValidateRequest() error = %v", err)
	}
	if st.Text != "open firefox" {
		t.Fatalf("Text = %q", st.Text)
	}
	if st.TurnID == "" {
		t.Fatal("TurnID must be set")
	}
	if !st.Now.Equal(now) || st.Now.Location() != time.UTC {
		t.Fatalf("Now = %v, want UTC %v", st.Now, now)
	}

	if _, err := ValidateRequest(GraphInput{Text: "   "}, time.Now); !errors.Is(err, contractx.ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestFinalizeReply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		state   GraphState
		want    string
		wantErr error
	}{
		{
			name:  "conversation",
			state: GraphState{Interpretation: contractx.Interpretation{Prose: " Hello there! "}},
			want:  "Hello there!",
		},
		{
			name:  "empty conversation",
			state: GraphState{Completion: "   "},
			want:  EmptyReply,
		},
		{
			name: "results only",
			state: GraphState{
				Interpretation: contractx.Interpretation{Actions: []contractx.ActionRequest{contractx.OpenApp{}, contractx.ListApps{}}},
				Results:        []contractx.DispatchResult{{Text: "Opened Firefox"}, {Text: "Installed applications (0 total): "}},
			},
			want: "> Opened Firefox\n> Installed applications (0 total): ",
		},
		{
			name: "results with prose",
			state: GraphState{
				Interpretation: contractx.Interpretation{
					Actions: []contractx.ActionRequest{contractx.OpenApp{}},
					Prose:   "Enjoy browsing!",
				},
				Results: []contractx.DispatchResult{{Text: "Opened Firefox"}},
			},
			want: "> Opened Firefox\n\nEnjoy browsing!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			st := tt.state
			got, err := FinalizeReply(&st, "> ")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FinalizeReply() error = %v", err)
			}
			if got.Reply != tt.want {
				t.Fatalf("Reply = %q, want %q", got.Reply, tt.want)
			}
		})
	}
}

type fakeDispatcher struct {
	calls int
}

func (f *fakeDispatcher) ExecuteAll(ctx context.Context, reqs []contractx.ActionRequest) ([]contractx.DispatchResult, error) {
	f.calls++
	out := make([]contractx.DispatchResult, len(reqs))
	for i, r := range reqs {
		out[i] = contractx.DispatchResult{Tool: r.Tool(), Text: string(r.Tool()), Status: contractx.StatusOK}
	}
	return out, nil
}

func TestDispatchSkipsConversation(t *testing.T) {
	t.Parallel()

	d := &fakeDispatcher{}
	st := &GraphState{Interpretation: contractx.Interpretation{Prose: "hi"}}
	if _, err := Dispatch(context.Background(), st, d); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if d.calls != 0 {
		t.Fatal("dispatcher must not run for a conversational turn")
	}

	st.Interpretation.Actions = []contractx.ActionRequest{contractx.SystemInfo{}}
	if _, err := Dispatch(context.Background(), st, d); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if d.calls != 1 || len(st.Results) != 1 || st.Results[0].Text != "system_info" {
		t.Fatalf("unexpected dispatch: calls=%d results=%v", d.calls, st.Results)
	}
}

func TestNodesRejectNilState(t *testing.T) {
	t.Parallel()

	if _, err := Dispatch(context.Background(), nil, &fakeDispatcher{}); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Dispatch(nil) = %v", err)
	}
	if _, err := FinalizeReply(nil, ""); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("FinalizeReply(nil) = %v", err)
	}
	if _, err := RecordHistory(context.Background(), nil, nil); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("RecordHistory(nil) = %v", err)
	}
}
