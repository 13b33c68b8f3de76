package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"morvo-assistant/internal/common/config"
	"morvo-assistant/internal/common/database"
	"morvo-assistant/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS profiles (
	user_id        TEXT PRIMARY KEY,
	name           TEXT NOT NULL DEFAULT '',
	role           TEXT NOT NULL DEFAULT '',
	industry       TEXT NOT NULL DEFAULT '',
	company_size   TEXT NOT NULL DEFAULT '',
	website_status TEXT NOT NULL DEFAULT '',
	website_url    TEXT NOT NULL DEFAULT '',
	goals          TEXT NOT NULL DEFAULT '[]',
	budget_range   TEXT NOT NULL DEFAULT '',
	complete       INTEGER NOT NULL DEFAULT 0,
	created_at     TEXT NOT NULL,
	updated_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS intake_sessions (
	user_id       TEXT PRIMARY KEY,
	current_step  TEXT NOT NULL,
	profile       TEXT NOT NULL DEFAULT 'null',
	error_count   INTEGER NOT NULL DEFAULT 0,
	started_at    TEXT NOT NULL,
	last_activity TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS conversation_turns (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	role       TEXT NOT NULL,
	text       TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversation_turns_user ON conversation_turns(user_id, id);

CREATE TABLE IF NOT EXISTS control_state (
	user_id       TEXT PRIMARY KEY,
	reset_pending INTEGER NOT NULL DEFAULT 0,
	updated_at    TEXT NOT NULL
);
`

// SQLiteStore implements Store on an embedded SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	ids *idSource
	now func() time.Time
}

// OpenSQLiteStore creates the parent directory of path, opens the database and
// migrates it.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	client, err := database.NewSQLite(config.SQLiteConfig{Path: path})
	if err != nil {
		return nil, err
	}
	s, err := NewSQLiteStore(client.DB)
	if err != nil {
		client.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore wraps an open handle and migrates the schema.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{
		db:  db,
		ids: newIDSource(),
		now: func() time.Time { return time.Now().UTC() },
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	if userID == "" {
		return nil, ErrInvalidArgument
	}
	var (
		p                  models.Profile
		status, goals      string
		complete           int
		createdAt, updated string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, name, role, industry, company_size, website_status, website_url, goals, budget_range, complete, created_at, updated_at
		 FROM profiles WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &p.Name, &p.Role, &p.Industry, &p.CompanySize, &status,
		&p.WebsiteURL, &goals, &p.BudgetRange, &complete, &createdAt, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	p.WebsiteStatus = models.WebsiteStatus(status)
	p.Complete = complete != 0
	if err := json.Unmarshal([]byte(goals), &p.Goals); err != nil {
		return nil, fmt.Errorf("decode goals: %w", err)
	}
	if len(p.Goals) == 0 {
		p.Goals = nil
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return &p, nil
}

func (s *SQLiteStore) UpsertProfile(ctx context.Context, userID string, p *models.Profile) error {
	if userID == "" || p == nil {
		return ErrInvalidArgument
	}
	goals := p.Goals
	if goals == nil {
		goals = []string{}
	}
	goalsJSON, err := json.Marshal(goals)
	if err != nil {
		return fmt.Errorf("encode goals: %w", err)
	}
	now := s.now()
	created := p.CreatedAt
	if created.IsZero() {
		created = now
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, name, role, industry, company_size, website_status, website_url, goals, budget_range, complete, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET name = excluded.name, role = excluded.role, industry = excluded.industry,
		 company_size = excluded.company_size, website_status = excluded.website_status, website_url = excluded.website_url,
		 goals = excluded.goals, budget_range = excluded.budget_range, complete = excluded.complete, updated_at = excluded.updated_at`,
		userID, p.Name, p.Role, p.Industry, p.CompanySize, string(p.WebsiteStatus), p.WebsiteURL,
		string(goalsJSON), p.BudgetRange, boolInt(p.Complete),
		created.UTC().Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteProfile(ctx context.Context, userID string) error {
	return s.exec(ctx, "delete profile", `DELETE FROM profiles WHERE user_id = ?`, userID)
}

func (s *SQLiteStore) GetSession(ctx context.Context, userID string) (*models.IntakeSession, error) {
	if userID == "" {
		return nil, ErrInvalidArgument
	}
	var (
		sess                models.IntakeSession
		step, raw           string
		started, lastActive string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, current_step, profile, error_count, started_at, last_activity FROM intake_sessions WHERE user_id = ?`, userID,
	).Scan(&sess.UserID, &step, &raw, &sess.ErrorCount, &started, &lastActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	sess.CurrentStep = models.StepID(step)
	if sess.Profile, err = decodeProfile([]byte(raw)); err != nil {
		return nil, fmt.Errorf("decode session profile: %w", err)
	}
	sess.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	sess.LastActivity, _ = time.Parse(time.RFC3339Nano, lastActive)
	return &sess, nil
}

func (s *SQLiteStore) SaveSession(ctx context.Context, sess *models.IntakeSession) error {
	if sess == nil || sess.UserID == "" {
		return ErrInvalidArgument
	}
	raw, err := encodeProfile(sess.Profile)
	if err != nil {
		return fmt.Errorf("encode session profile: %w", err)
	}
	now := s.now()
	started, last := sess.StartedAt, sess.LastActivity
	if started.IsZero() {
		started = now
	}
	if last.IsZero() {
		last = now
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO intake_sessions (user_id, current_step, profile, error_count, started_at, last_activity)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET current_step = excluded.current_step, profile = excluded.profile,
		 error_count = excluded.error_count, last_activity = excluded.last_activity`,
		sess.UserID, string(sess.CurrentStep), string(raw), sess.ErrorCount,
		started.UTC().Format(time.RFC3339Nano), last.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, userID string) error {
	return s.exec(ctx, "delete session", `DELETE FROM intake_sessions WHERE user_id = ?`, userID)
}

func (s *SQLiteStore) AppendTurn(ctx context.Context, userID string, role models.TurnRole, text string) error {
	if userID == "" {
		return ErrInvalidArgument
	}
	now := s.now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversation_turns (id, user_id, role, text, created_at) VALUES (?, ?, ?, ?, ?)`,
		s.ids.next(now), userID, string(role), text, now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetTurns(ctx context.Context, userID string) ([]models.ConversationTurn, error) {
	if userID == "" {
		return nil, ErrInvalidArgument
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, role, text, created_at FROM conversation_turns WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("get turns: %w", err)
	}
	defer rows.Close()

	var turns []models.ConversationTurn
	for rows.Next() {
		var (
			t                models.ConversationTurn
			role, createdAt string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &role, &t.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.Role = models.TurnRole(role)
		t.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func (s *SQLiteStore) DeleteTurns(ctx context.Context, userID string) error {
	return s.exec(ctx, "delete turns", `DELETE FROM conversation_turns WHERE user_id = ?`, userID)
}

func (s *SQLiteStore) SetResetPending(ctx context.Context, userID string, pending bool) error {
	if userID == "" {
		return ErrInvalidArgument
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO control_state (user_id, reset_pending, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET reset_pending = excluded.reset_pending, updated_at = excluded.updated_at`,
		userID, boolInt(pending), s.now().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("set reset pending: %w", err)
	}
	return nil
}

func (s *SQLiteStore) IsResetPending(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, ErrInvalidArgument
	}
	var pending int
	err := s.db.QueryRowContext(ctx, `SELECT reset_pending FROM control_state WHERE user_id = ?`, userID).Scan(&pending)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get reset pending: %w", err)
	}
	return pending != 0, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) exec(ctx context.Context, op, query, userID string) error {
	if userID == "" {
		return ErrInvalidArgument
	}
	if _, err := s.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
