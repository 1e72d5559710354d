package state

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/contract"
)

const DefaultSessionID = "local"

// Session is the conversation state handed to the orchestrator: the in-memory
// history plus the store it is mirrored to.
type Session struct {
	ID      string
	History *History

	store TranscriptStore
}

func NewSession(id string, history *History, store TranscriptStore) *Session {
	id = strings.TrimSpace(id)
	if id == "" {
		id = DefaultSessionID
	}
	if history == nil {
		history = NewHistory()
	}
	if store == nil {
		store = NoopStore{}
	}
	return &Session{ID: id, History: history, store: store}
}

/* ----------------------------- Persistence ----------------------------- */

// Resume loads the last capacity exchanges from the store into History.
func (s *Session) Resume(ctx context.Context) error {
	exchanges, err := s.store.Load(ctx, s.ID, s.History.Capacity())
	if err != nil {
		return err
	}
	s.History.Restore(exchanges)
	log.Debug().Str("session_id", s.ID).Int("exchanges", len(exchanges)).Msg("session resumed")
	return nil
}

// Record appends a completed exchange. A store failure is logged and does not
// undo the in-memory append.
func (s *Session) Record(ctx context.Context, userText, assistantText string) contractx.Exchange {
	ex := s.History.Append(userText, assistantText)
	if err := s.store.Append(ctx, s.ID, ex); err != nil {
		log.Warn().Err(err).Str("session_id", s.ID).Str("exchange_id", ex.ID).Msg("persist exchange failed")
	}
	return ex
}

// Clear drops the in-memory history and the stored transcript.
func (s *Session) Clear(ctx context.Context) error {
	s.History.Reset()
	return s.store.Delete(ctx, s.ID)
}
