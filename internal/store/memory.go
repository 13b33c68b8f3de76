package store

import (
	"context"
	"sync"
	"time"

	"morvo-assistant/internal/models"
)

// MemoryStore keeps everything in process. It backs unit tests and the CLI's
// --ephemeral mode.
type MemoryStore struct {
	mu       sync.Mutex
	ids      *idSource
	profiles map[string]*models.Profile
	sessions map[string]*models.IntakeSession
	turns    map[string][]models.ConversationTurn
	resets   map[string]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ids:      newIDSource(),
		profiles: make(map[string]*models.Profile),
		sessions: make(map[string]*models.IntakeSession),
		turns:    make(map[string][]models.ConversationTurn),
		resets:   make(map[string]bool),
	}
}

func (m *MemoryStore) GetProfile(_ context.Context, userID string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profiles[userID].Clone(), nil
}

func (m *MemoryStore) UpsertProfile(_ context.Context, userID string, p *models.Profile) error {
	if userID == "" || p == nil {
		return ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := p.Clone()
	cp.UserID = userID
	now := time.Now().UTC()
	if prev, ok := m.profiles[userID]; ok {
		cp.CreatedAt = prev.CreatedAt
	} else if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	m.profiles[userID] = cp
	return nil
}

func (m *MemoryStore) DeleteProfile(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.profiles, userID)
	return nil
}

func (m *MemoryStore) GetSession(_ context.Context, userID string) (*models.IntakeSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[userID]
	if !ok {
		return nil, nil
	}
	cp := *sess
	cp.Profile = sess.Profile.Clone()
	return &cp, nil
}

func (m *MemoryStore) SaveSession(_ context.Context, sess *models.IntakeSession) error {
	if sess == nil || sess.UserID == "" {
		return ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *sess
	cp.Profile = sess.Profile.Clone()
	m.sessions[sess.UserID] = &cp
	return nil
}

func (m *MemoryStore) DeleteSession(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

func (m *MemoryStore) AppendTurn(_ context.Context, userID string, role models.TurnRole, text string) error {
	if userID == "" {
		return ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	m.turns[userID] = append(m.turns[userID], models.ConversationTurn{
		ID:        m.ids.next(now),
		UserID:    userID,
		Role:      role,
		Text:      text,
		CreatedAt: now,
	})
	return nil
}

func (m *MemoryStore) GetTurns(_ context.Context, userID string) ([]models.ConversationTurn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ConversationTurn(nil), m.turns[userID]...), nil
}

func (m *MemoryStore) DeleteTurns(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.turns, userID)
	return nil
}

func (m *MemoryStore) SetResetPending(_ context.Context, userID string, pending bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pending {
		m.resets[userID] = true
	} else {
		delete(m.resets, userID)
	}
	return nil
}

func (m *MemoryStore) IsResetPending(_ context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets[userID], nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
	_ Store = (*RedisSessionCache)(nil)
)
