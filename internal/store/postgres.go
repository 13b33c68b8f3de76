package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"morvo-assistant/internal/models"

	"github.com/lib/pq"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS profiles (
	user_id        TEXT PRIMARY KEY,
	name           TEXT NOT NULL DEFAULT '',
	role           TEXT NOT NULL DEFAULT '',
	industry       TEXT NOT NULL DEFAULT '',
	company_size   TEXT NOT NULL DEFAULT '',
	website_status TEXT NOT NULL DEFAULT '',
	website_url    TEXT NOT NULL DEFAULT '',
	goals          TEXT[] NOT NULL DEFAULT '{}',
	budget_range   TEXT NOT NULL DEFAULT '',
	complete       BOOLEAN NOT NULL DEFAULT FALSE,
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS intake_sessions (
	user_id       TEXT PRIMARY KEY,
	current_step  TEXT NOT NULL,
	profile       JSONB NOT NULL DEFAULT 'null',
	error_count   INTEGER NOT NULL DEFAULT 0,
	started_at    TIMESTAMPTZ NOT NULL,
	last_activity TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS conversation_turns (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	role       TEXT NOT NULL,
	text       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversation_turns_user ON conversation_turns(user_id, created_at, id);

CREATE TABLE IF NOT EXISTS control_state (
	user_id       TEXT PRIMARY KEY,
	reset_pending BOOLEAN NOT NULL DEFAULT FALSE,
	updated_at    TIMESTAMPTZ NOT NULL
);
`

const (
	pgSelectProfile = `SELECT user_id, name, role, industry, company_size, website_status, website_url, goals, budget_range, complete, created_at, updated_at FROM profiles WHERE user_id = $1`
	pgUpsertProfile = `INSERT INTO profiles (user_id, name, role, industry, company_size, website_status, website_url, goals, budget_range, complete, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (user_id) DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role, industry = EXCLUDED.industry,
company_size = EXCLUDED.company_size, website_status = EXCLUDED.website_status, website_url = EXCLUDED.website_url,
goals = EXCLUDED.goals, budget_range = EXCLUDED.budget_range, complete = EXCLUDED.complete, updated_at = EXCLUDED.updated_at`
	pgDeleteProfile = `DELETE FROM profiles WHERE user_id = $1`

	pgSelectSession = `SELECT user_id, current_step, profile, error_count, started_at, last_activity FROM intake_sessions WHERE user_id = $1`
	pgUpsertSession = `INSERT INTO intake_sessions (user_id, current_step, profile, error_count, started_at, last_activity)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id) DO UPDATE SET current_step = EXCLUDED.current_step, profile = EXCLUDED.profile,
error_count = EXCLUDED.error_count, last_activity = EXCLUDED.last_activity`
	pgDeleteSession = `DELETE FROM intake_sessions WHERE user_id = $1`

	pgInsertTurn  = `INSERT INTO conversation_turns (id, user_id, role, text, created_at) VALUES ($1, $2, $3, $4, $5)`
	pgSelectTurns = `SELECT id, user_id, role, text, created_at FROM conversation_turns WHERE user_id = $1 ORDER BY created_at, id`
	pgDeleteTurns = `DELETE FROM conversation_turns WHERE user_id = $1`

	pgUpsertReset = `INSERT INTO control_state (user_id, reset_pending, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO UPDATE SET reset_pending = EXCLUDED.reset_pending, updated_at = EXCLUDED.updated_at`
	pgSelectReset = `SELECT reset_pending FROM control_state WHERE user_id = $1`
)

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	db  *sql.DB
	ids *idSource
	now func() time.Time
}

// NewPostgresStore wraps an open handle. Call Migrate once before use.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:  db,
		ids: newIDSource(),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Migrate creates the tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("migrate postgres store: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	if userID == "" {
		return nil, ErrInvalidArgument
	}
	var (
		p      models.Profile
		status string
		goals  pq.StringArray
	)
	err := s.db.QueryRowContext(ctx, pgSelectProfile, userID).Scan(
		&p.UserID, &p.Name, &p.Role, &p.Industry, &p.CompanySize, &status,
		&p.WebsiteURL, &goals, &p.BudgetRange, &p.Complete, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	p.WebsiteStatus = models.WebsiteStatus(status)
	if len(goals) > 0 {
		p.Goals = []string(goals)
	}
	return &p, nil
}

func (s *PostgresStore) UpsertProfile(ctx context.Context, userID string, p *models.Profile) error {
	if userID == "" || p == nil {
		return ErrInvalidArgument
	}
	now := s.now()
	created := p.CreatedAt
	if created.IsZero() {
		created = now
	}
	goals := p.Goals
	if goals == nil {
		goals = []string{}
	}
	_, err := s.db.ExecContext(ctx, pgUpsertProfile,
		userID, p.Name, p.Role, p.Industry, p.CompanySize, string(p.WebsiteStatus),
		p.WebsiteURL, pq.Array(goals), p.BudgetRange, p.Complete, created, now,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteProfile(ctx context.Context, userID string) error {
	return s.exec(ctx, "delete profile", pgDeleteProfile, userID)
}

func (s *PostgresStore) GetSession(ctx context.Context, userID string) (*models.IntakeSession, error) {
	if userID == "" {
		return nil, ErrInvalidArgument
	}
	var (
		sess models.IntakeSession
		step string
		raw  []byte
	)
	err := s.db.QueryRowContext(ctx, pgSelectSession, userID).Scan(
		&sess.UserID, &step, &raw, &sess.ErrorCount, &sess.StartedAt, &sess.LastActivity,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	sess.CurrentStep = models.StepID(step)
	if sess.Profile, err = decodeProfile(raw); err != nil {
		return nil, fmt.Errorf("decode session profile: %w", err)
	}
	return &sess, nil
}

func (s *PostgresStore) SaveSession(ctx context.Context, sess *models.IntakeSession) error {
	if sess == nil || sess.UserID == "" {
		return ErrInvalidArgument
	}
	raw, err := encodeProfile(sess.Profile)
	if err != nil {
		return fmt.Errorf("encode session profile: %w", err)
	}
	now := s.now()
	started := sess.StartedAt
	if started.IsZero() {
		started = now
	}
	last := sess.LastActivity
	if last.IsZero() {
		last = now
	}
	_, err = s.db.ExecContext(ctx, pgUpsertSession,
		sess.UserID, string(sess.CurrentStep), raw, sess.ErrorCount, started, last,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteSession(ctx context.Context, userID string) error {
	return s.exec(ctx, "delete session", pgDeleteSession, userID)
}

func (s *PostgresStore) AppendTurn(ctx context.Context, userID string, role models.TurnRole, text string) error {
	if userID == "" {
		return ErrInvalidArgument
	}
	now := s.now()
	if _, err := s.db.ExecContext(ctx, pgInsertTurn, s.ids.next(now), userID, string(role), text, now); err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTurns(ctx context.Context, userID string) ([]models.ConversationTurn, error) {
	if userID == "" {
		return nil, ErrInvalidArgument
	}
	rows, err := s.db.QueryContext(ctx, pgSelectTurns, userID)
	if err != nil {
		return nil, fmt.Errorf("get turns: %w", err)
	}
	defer rows.Close()

	var turns []models.ConversationTurn
	for rows.Next() {
		var (
			t    models.ConversationTurn
			role string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &role, &t.Text, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.Role = models.TurnRole(role)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func (s *PostgresStore) DeleteTurns(ctx context.Context, userID string) error {
	return s.exec(ctx, "delete turns", pgDeleteTurns, userID)
}

func (s *PostgresStore) SetResetPending(ctx context.Context, userID string, pending bool) error {
	if userID == "" {
		return ErrInvalidArgument
	}
	if _, err := s.db.ExecContext(ctx, pgUpsertReset, userID, pending, s.now()); err != nil {
		return fmt.Errorf("set reset pending: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsResetPending(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, ErrInvalidArgument
	}
	var pending bool
	err := s.db.QueryRowContext(ctx, pgSelectReset, userID).Scan(&pending)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get reset pending: %w", err)
	}
	return pending, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) exec(ctx context.Context, op, query, userID string) error {
	if userID == "" {
		return ErrInvalidArgument
	}
	if _, err := s.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
