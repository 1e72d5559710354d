package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/contract"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type exchangeRow struct {
	bun.BaseModel `bun:"table:assistant_exchanges,alias:ex"`

	ID            string    `bun:"id,pk"`
	SessionID     string    `bun:"session_id,notnull"`
	UserText      string    `bun:"user_text,notnull"`
	AssistantText string    `bun:"assistant_text,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

func (r exchangeRow) toExchange() contractx.Exchange {
	return contractx.Exchange{
		ID:            r.ID,
		UserText:      r.UserText,
		AssistantText: r.AssistantText,
		CreatedAt:     r.CreatedAt.UTC(),
	}
}

type PostgresConfig struct {
	DSN string `envconfig:"DSN" split_words:"true" required:"true"`
}

// PostgresStore keeps transcripts in a single exchanges table keyed by session.
type PostgresStore struct {
	db *bun.DB
}

func NewPostgresStore(cfg PostgresConfig) (*PostgresStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return NewPostgresStoreFromDB(bun.NewDB(sqldb, pgdialect.New())), nil
}

func NewPostgresStoreFromDB(db *bun.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the exchanges table and its session index when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*exchangeRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create exchanges table: %w", err)
	}
	if _, err := s.db.NewCreateIndex().
		Model((*exchangeRow)(nil)).
		Index("assistant_exchanges_session_idx").
		Column("session_id", "created_at").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create exchanges index: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, sessionID string, limit int) ([]contractx.Exchange, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}
	if limit <= 0 {
		limit = DefaultHistoryCapacity
	}

	var rows []exchangeRow
	if err := s.selectRecent(&rows, sessionID, limit).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select exchanges: %w", err)
	}

	slices.Reverse(rows)
	out := make([]contractx.Exchange, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toExchange())
	}
	return out, nil
}

func (s *PostgresStore) Append(ctx context.Context, sessionID string, ex contractx.Exchange) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSession
	}
	if strings.TrimSpace(ex.ID) == "" {
		return ErrNilExchange
	}
	row := &exchangeRow{
		ID:            ex.ID,
		SessionID:     strings.TrimSpace(sessionID),
		UserText:      ex.UserText,
		AssistantText: ex.AssistantText,
		CreatedAt:     ex.CreatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert exchange: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSession
	}
	if _, err := s.deleteSession(sessionID).Exec(ctx); err != nil {
		return fmt.Errorf("delete exchanges: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) selectRecent(rows *[]exchangeRow, sessionID string, limit int) *bun.SelectQuery {
	return s.db.NewSelect().
		Model(rows).
		Where("session_id = ?", strings.TrimSpace(sessionID)).
		OrderExpr("created_at DESC").
		Limit(limit)
}

func (s *PostgresStore) deleteSession(sessionID string) *bun.DeleteQuery {
	return s.db.NewDelete().
		Model((*exchangeRow)(nil)).
		Where("session_id = ?", strings.TrimSpace(sessionID))
}
