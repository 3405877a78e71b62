// Package session holds per-member session state and where it is kept
// between requests.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/familybicons/socios-server/internal/models"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a session id is unknown or expired
var ErrNotFound = errors.New("session not found")

// State is the position of a session in the login state machine
type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// Session is the state of one member interaction. Data is fetched once when
// the session becomes Authenticated and dropped when it leaves that state.
type Session struct {
	ID        string             `json:"id"`
	State     State              `json:"state"`
	Username  string             `json:"username,omitempty"`
	Data      *models.MemberData `json:"data,omitempty"`
	DataError string             `json:"dataError,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
	LastSeen  time.Time          `json:"lastSeen"`
}

// New creates an Anonymous session with a fresh id
func New() *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.New().String(),
		State:     Anonymous,
		CreatedAt: now,
		LastSeen:  now,
	}
}

// IsAuthenticated reports whether a member is signed in
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.State == Authenticated
}

// SignIn moves the session to Authenticated for username
func (s *Session) SignIn(username string, data models.MemberData, dataErr error) {
	s.State = Authenticated
	s.Username = username
	s.Data = &data
	s.DataError = ""
	if dataErr != nil {
		s.DataError = dataErr.Error()
	}
}

// Reset moves the session back to Anonymous and discards fetched data
func (s *Session) Reset() {
	s.State = Anonymous
	s.Username = ""
	s.Data = nil
	s.DataError = ""
}

// Touch records activity on the session
func (s *Session) Touch() {
	s.LastSeen = time.Now().UTC()
}

// Store keeps sessions between requests. Implementations must be safe for
// concurrent use and must not share Session pointers between callers.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, sess *Session) error
	// Refresh overwrites an existing session and returns ErrNotFound if it
	// was deleted or expired in the meantime. It never recreates a session.
	Refresh(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, id string) error
	// Sweep removes expired sessions and returns how many were removed
	Sweep(ctx context.Context) (int, error)
	Count(ctx context.Context) (int, error)
}
