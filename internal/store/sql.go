package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/lox/stakeledger/internal/game"
	"github.com/lox/stakeledger/internal/ledger"
)

// Dialect names a supported SQL database.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS session (
    id TEXT PRIMARY KEY,
    account_id TEXT NOT NULL,
    game_type TEXT NOT NULL,
    session_name TEXT NOT NULL,
    setup TEXT,
    players TEXT NOT NULL,
    history TEXT NOT NULL,
    next_round_id BIGINT NOT NULL DEFAULT 0,
    calculated BOOLEAN NOT NULL DEFAULT FALSE,
    last_updated BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_session_account ON session(account_id, game_type);
`

// SQL is a Store backed by a database/sql connection. Setup, players and
// history are kept as JSON text columns.
type SQL struct {
	base
	db      *sql.DB
	dialect Dialect
}

// OpenSQL connects to the database, verifies the connection and creates the
// schema.
func OpenSQL(ctx context.Context, dialect Dialect, dsn string, opts ...Option) (*SQL, error) {
	if dialect != SQLite && dialect != Postgres {
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if dialect == SQLite {
		// SQLite allows a single writer; serialize access through one connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	s, err := NewSQL(ctx, db, dialect, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQL wraps an open database and creates the schema. Safe to call on an
// existing database.
func NewSQL(ctx context.Context, db *sql.DB, dialect Dialect, opts ...Option) (*SQL, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQL{base: newBase(opts), db: db, dialect: dialect}, nil
}

// Close closes the database.
func (s *SQL) Close() error {
	return s.db.Close()
}

// Save implements Store.
func (s *SQL) Save(ctx context.Context, sess Session) (Session, error) {
	sess, err := s.stamp(sess)
	if err != nil {
		return Session{}, err
	}
	setup, players, history, err := encodePayload(sess)
	if err != nil {
		return Session{}, err
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO session (id, account_id, game_type, session_name, setup, players, history, next_round_id, calculated, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			account_id = excluded.account_id,
			game_type = excluded.game_type,
			session_name = excluded.session_name,
			setup = excluded.setup,
			players = excluded.players,
			history = excluded.history,
			next_round_id = excluded.next_round_id,
			calculated = excluded.calculated,
			last_updated = excluded.last_updated
	`), sess.ID, sess.AccountID, sess.GameType.String(), sess.SessionName, setup, players, history,
		sess.NextRoundID, sess.Calculated, sess.LastUpdated.UnixNano())
	if err != nil {
		return Session{}, fmt.Errorf("failed to save session %s: %w", sess.ID, err)
	}
	return sess, nil
}

// Load implements Store.
func (s *SQL) Load(ctx context.Context, id string) (Session, error) {
	var (
		sess     Session
		gameType string
		setup    sql.NullString
		players  string
		history  string
		updated  int64
	)
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, account_id, game_type, session_name, setup, players, history, next_round_id, calculated, last_updated
		FROM session WHERE id = ?
	`), id).Scan(&sess.ID, &sess.AccountID, &gameType, &sess.SessionName, &setup, &players, &history,
		&sess.NextRoundID, &sess.Calculated, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to query session %s: %w", id, err)
	}

	if sess.GameType, err = game.ParseVariant(gameType); err != nil {
		return Session{}, fmt.Errorf("session %s: %w", id, err)
	}
	if setup.Valid && setup.String != "" {
		sess.Setup = &game.Setup{}
		if err := json.Unmarshal([]byte(setup.String), sess.Setup); err != nil {
			return Session{}, fmt.Errorf("decode setup of %s: %w", id, err)
		}
	}
	if err := json.Unmarshal([]byte(players), &sess.Players); err != nil {
		return Session{}, fmt.Errorf("decode players of %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(history), &sess.History); err != nil {
		return Session{}, fmt.Errorf("decode history of %s: %w", id, err)
	}
	sess.LastUpdated = time.Unix(0, updated).UTC()
	return sess, nil
}

// List implements Store.
func (s *SQL) List(ctx context.Context, accountID string, gameType game.Variant) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, session_name, last_updated FROM session
		WHERE account_id = ? AND game_type = ?
		ORDER BY last_updated DESC, id DESC
	`), accountID, gameType.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum     Summary
			updated int64
		)
		if err := rows.Scan(&sum.ID, &sum.SessionName, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sum.LastUpdated = time.Unix(0, updated).UTC()
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete implements Store.
func (s *SQL) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM session WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// rebind rewrites ? placeholders as $1, $2, ... for PostgreSQL.
func (s *SQL) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func encodePayload(s Session) (setup sql.NullString, players, history string, err error) {
	if s.Setup != nil {
		data, err := json.Marshal(s.Setup)
		if err != nil {
			return setup, "", "", fmt.Errorf("encode setup: %w", err)
		}
		setup = sql.NullString{String: string(data), Valid: true}
	}
	p := s.Players
	if p == nil {
		p = []game.Player{}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return setup, "", "", fmt.Errorf("encode players: %w", err)
	}
	players = string(data)

	h := s.History
	if h == nil {
		h = []ledger.Round{}
	}
	data, err = json.Marshal(h)
	if err != nil {
		return setup, "", "", fmt.Errorf("encode history: %w", err)
	}
	history = string(data)
	return setup, players, history, nil
}
