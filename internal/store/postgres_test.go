package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"morvo-assistant/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db), mock
}

// ==========================
// Migrate
// ==========================

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := setupMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS profiles")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Profiles
// ==========================

func TestPostgresStore_GetProfile(t *testing.T) {
	s, mock := setupMockDB(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"user_id", "name", "role", "industry", "company_size", "website_status",
		"website_url", "goals", "budget_range", "complete", "created_at", "updated_at",
	}).AddRow("u1", "Sara", "business_owner", "retail", "solo", "none", "", []byte(`{seo,"more leads"}`), "undecided", true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta(pgSelectProfile)).WithArgs("u1").WillReturnRows(rows)

	p, err := s.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Sara", p.Name)
	assert.Equal(t, models.WebsiteNone, p.WebsiteStatus)
	assert.Equal(t, []string{"seo", "more leads"}, p.Goals)
	assert.True(t, p.Complete)
	assert.Equal(t, now, p.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetProfileAbsent(t *testing.T) {
	s, mock := setupMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(pgSelectProfile)).WithArgs("u1").WillReturnError(sql.ErrNoRows)

	p, err := s.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestPostgresStore_GetProfileError(t *testing.T) {
	s, mock := setupMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(pgSelectProfile)).WithArgs("u1").WillReturnError(errors.New("connection refused"))

	_, err := s.GetProfile(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestPostgresStore_UpsertProfile(t *testing.T) {
	s, mock := setupMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta(pgUpsertProfile)).
		WithArgs("u1", "Sara", "entrepreneur", "retail", "solo", "active", "https://example.com",
			sqlmock.AnyArg(), "over_50k", true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.UpsertProfile(context.Background(), "u1", &models.Profile{
		Name: "Sara", Role: "entrepreneur", Industry: "retail", CompanySize: "solo",
		WebsiteStatus: models.WebsiteActive, WebsiteURL: "https://example.com",
		Goals: []string{"seo"}, BudgetRange: "over_50k", Complete: true,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Sessions
// ==========================

func TestPostgresStore_GetSession(t *testing.T) {
	s, mock := setupMockDB(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"user_id", "current_step", "profile", "error_count", "started_at", "last_activity"}).
		AddRow("u1", "goals", []byte(`{"userId":"u1","name":"Sara"}`), 3, now, now)
	mock.ExpectQuery(regexp.QuoteMeta(pgSelectSession)).WithArgs("u1").WillReturnRows(rows)

	sess, err := s.GetSession(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, models.StepGoals, sess.CurrentStep)
	assert.Equal(t, 3, sess.ErrorCount)
	require.NotNil(t, sess.Profile)
	assert.Equal(t, "Sara", sess.Profile.Name)
}

func TestPostgresStore_SaveSession(t *testing.T) {
	s, mock := setupMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta(pgUpsertSession)).
		WithArgs("u1", "role", sqlmock.AnyArg(), 0, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.SaveSession(context.Background(), &models.IntakeSession{
		UserID: "u1", CurrentStep: models.StepRole, Profile: &models.Profile{Name: "Sara"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Turns and reset flag
// ==========================

func TestPostgresStore_Turns(t *testing.T) {
	s, mock := setupMockDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta(pgInsertTurn)).
		WithArgs(sqlmock.AnyArg(), "u1", "user", "hello", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(pgSelectTurns)).WithArgs("u1").WillReturnRows(
		sqlmock.NewRows([]string{"id", "user_id", "role", "text", "created_at"}).
			AddRow("01A", "u1", "user", "hello", now).
			AddRow("01B", "u1", "assistant", "أهلاً", now),
	)
	mock.ExpectExec(regexp.QuoteMeta(pgDeleteTurns)).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, s.AppendTurn(ctx, "u1", models.TurnRoleUser, "hello"))
	turns, err := s.GetTurns(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, models.TurnRoleAssistant, turns[1].Role)
	require.NoError(t, s.DeleteTurns(ctx, "u1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ResetPending(t *testing.T) {
	s, mock := setupMockDB(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(pgUpsertReset)).
		WithArgs("u1", true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(pgSelectReset)).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"reset_pending"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta(pgSelectReset)).WithArgs("u2").WillReturnError(sql.ErrNoRows)

	require.NoError(t, s.SetResetPending(ctx, "u1", true))
	pending, err := s.IsResetPending(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, pending)

	pending, err = s.IsResetPending(ctx, "u2")
	require.NoError(t, err)
	assert.False(t, pending)
	assert.NoError(t, mock.ExpectationsWereMet())
}
