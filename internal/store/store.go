// Package store persists profiles, intake sessions, conversation turns and the
// per-user reset flag.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand"
	"sync"
	"time"

	"morvo-assistant/internal/models"

	"github.com/oklog/ulid/v2"
)

// ErrInvalidArgument is returned for empty user ids and nil records.
var ErrInvalidArgument = errors.New("store: invalid argument")

// Store is the persistence contract used by the intake engine and the router.
// Reads of absent records return (nil, nil).
type Store interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	UpsertProfile(ctx context.Context, userID string, profile *models.Profile) error
	DeleteProfile(ctx context.Context, userID string) error

	GetSession(ctx context.Context, userID string) (*models.IntakeSession, error)
	SaveSession(ctx context.Context, session *models.IntakeSession) error
	DeleteSession(ctx context.Context, userID string) error

	AppendTurn(ctx context.Context, userID string, role models.TurnRole, text string) error
	// GetTurns returns the user's turns oldest first.
	GetTurns(ctx context.Context, userID string) ([]models.ConversationTurn, error)
	DeleteTurns(ctx context.Context, userID string) error

	SetResetPending(ctx context.Context, userID string, pending bool) error
	IsResetPending(ctx context.Context, userID string) (bool, error)

	Ping(ctx context.Context) error
	Close() error
}

// idSource hands out lexically increasing ULIDs, so ordering turns by id
// matches insertion order even within one millisecond.
type idSource struct {
	mu      sync.Mutex
	entropy io.Reader
}

func newIDSource() *idSource {
	return &idSource{entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)}
}

func (s *idSource) next(t time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

func encodeProfile(p *models.Profile) ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}
	return json.Marshal(p)
}

func decodeProfile(raw []byte) (*models.Profile, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var p models.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
