// Package ledger provides SQLite persistence for play sessions and settled
// rounds.
package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// Session is one run of the player against a single balance.
type Session struct {
	ID           string     `json:"id"`
	Source       string     `json:"source"`
	Script       string     `json:"script,omitempty"`
	StartBalance float64    `json:"startBalance"`
	FinalBalance *float64   `json:"finalBalance,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	EndedAt      *time.Time `json:"endedAt,omitempty"`
}

// Round is a settled round as stored.
type Round struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"sessionId"`
	Mode         string    `json:"mode"`
	Bet          float64   `json:"bet"`
	Tier         string    `json:"tier"`
	Multiplier   float64   `json:"multiplier"`
	TargetPayout float64   `json:"targetPayout"`
	Payout       float64   `json:"payout"`
	ZeroPayout   bool      `json:"zeroPayout"`
	Reason       string    `json:"reason"`
	Frames       int       `json:"frames"`
	Source       string    `json:"source"`
	BetID        string    `json:"betId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Summary aggregates a session's rounds.
type Summary struct {
	SessionID  string  `json:"sessionId"`
	Rounds     int     `json:"rounds"`
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	Resets     int     `json:"resets"`
	Wagered    float64 `json:"wagered"`
	Paid       float64 `json:"paid"`
	Profit     float64 `json:"profit"`
	BestPayout float64 `json:"bestPayout"`
}

// RTP is paid over wagered, zero before any stake.
func (s Summary) RTP() float64 {
	if s.Wagered == 0 {
		return 0
	}
	return s.Paid / s.Wagered
}

// ErrNotFound is returned for unknown session ids.
var ErrNotFound = errors.New("ledger: not found")

// Store provides SQLite persistence for sessions and rounds.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and migrates it.
func New(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("ledger: open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	s := &Store{db: db}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the schema.
func (s *Store) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			script TEXT NOT NULL DEFAULT '',
			start_balance REAL NOT NULL DEFAULT 0,
			final_balance REAL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			ended_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS rounds (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			mode TEXT NOT NULL,
			bet REAL NOT NULL,
			tier TEXT NOT NULL,
			multiplier REAL NOT NULL DEFAULT 0,
			target_payout REAL NOT NULL DEFAULT 0,
			payout REAL NOT NULL DEFAULT 0,
			zero_payout BOOLEAN NOT NULL DEFAULT 0,
			reason TEXT NOT NULL,
			frames INTEGER NOT NULL DEFAULT 0,
			source TEXT NOT NULL DEFAULT '',
			bet_id TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_session ON rounds(session_id, created_at)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("ledger: migrate: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSession inserts a session and returns its ID.
func (s *Store) CreateSession(sess *Session) (string, error) {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, source, script, start_balance, created_at) VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.Source, sess.Script, sess.StartBalance, sess.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("ledger: create session: %w", err)
	}
	return sess.ID, nil
}

// EndSession stamps the final balance.
func (s *Store) EndSession(id string, finalBalance float64) error {
	res, err := s.db.Exec(
		`UPDATE sessions SET ended_at = ?, final_balance = ? WHERE id = ?`,
		time.Now().UTC(), finalBalance, id,
	)
	if err != nil {
		return fmt.Errorf("ledger: end session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: session %q", ErrNotFound, id)
	}
	return nil
}

// GetSession fetches a session by ID.
func (s *Store) GetSession(id string) (*Session, error) {
	sess := &Session{}
	err := s.db.QueryRow(
		`SELECT id, source, script, start_balance, final_balance, created_at, ended_at
		 FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.Source, &sess.Script, &sess.StartBalance, &sess.FinalBalance, &sess.CreatedAt, &sess.EndedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session %q", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: get session: %w", err)
	}
	return sess, nil
}

const insertRound = `INSERT INTO rounds (id, session_id, mode, bet, tier, multiplier, target_payout,
	payout, zero_payout, reason, frames, source, bet_id, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func roundArgs(r *Round) []any {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return []any{r.ID, r.SessionID, r.Mode, r.Bet, r.Tier, r.Multiplier, r.TargetPayout,
		r.Payout, r.ZeroPayout, r.Reason, r.Frames, r.Source, r.BetID, r.CreatedAt}
}

// InsertRound records a single round.
func (s *Store) InsertRound(r *Round) error {
	if _, err := s.db.Exec(insertRound, roundArgs(r)...); err != nil {
		return fmt.Errorf("ledger: insert round: %w", err)
	}
	return nil
}

// InsertRoundsBatch records several rounds in one transaction.
func (s *Store) InsertRoundsBatch(rounds []Round) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("ledger: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertRound)
	if err != nil {
		return fmt.Errorf("ledger: prepare: %w", err)
	}
	defer stmt.Close()

	for i := range rounds {
		if _, err := stmt.Exec(roundArgs(&rounds[i])...); err != nil {
			return fmt.Errorf("ledger: insert round %s: %w", rounds[i].ID, err)
		}
	}
	return tx.Commit()
}

// ListRounds returns a session's rounds newest first, with the total count.
func (s *Store) ListRounds(sessionID string, limit, offset int) ([]Round, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := s.db.QueryRow(
		"SELECT COUNT(*) FROM rounds WHERE session_id = ?", sessionID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ledger: count rounds: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT id, session_id, mode, bet, tier, multiplier, target_payout, payout,
		        zero_payout, reason, frames, source, bet_id, created_at
		 FROM rounds WHERE session_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		sessionID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("ledger: list rounds: %w", err)
	}
	defer rows.Close()

	var rounds []Round
	for rows.Next() {
		r := Round{}
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Mode, &r.Bet, &r.Tier, &r.Multiplier,
			&r.TargetPayout, &r.Payout, &r.ZeroPayout, &r.Reason, &r.Frames, &r.Source,
			&r.BetID, &r.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("ledger: scan round: %w", err)
		}
		rounds = append(rounds, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ledger: iterate rounds: %w", err)
	}
	return rounds, total, nil
}

// SessionSummary aggregates the rounds of a session.
func (s *Store) SessionSummary(sessionID string) (Summary, error) {
	sum := Summary{SessionID: sessionID}
	err := s.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN payout > 0 THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN payout = 0 THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN reason IN ('soft-stuck', 'hard-stuck') THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(bet), 0.0),
		        COALESCE(SUM(payout), 0.0),
		        COALESCE(MAX(payout), 0.0)
		 FROM rounds WHERE session_id = ?`, sessionID,
	).Scan(&sum.Rounds, &sum.Wins, &sum.Losses, &sum.Resets, &sum.Wagered, &sum.Paid, &sum.BestPayout)
	if err != nil {
		return Summary{}, fmt.Errorf("ledger: session summary: %w", err)
	}
	sum.Profit = sum.Paid - sum.Wagered
	return sum, nil
}

// DeleteSession removes a session and its rounds.
func (s *Store) DeleteSession(id string) error {
	if _, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("ledger: delete session: %w", err)
	}
	return nil
}
