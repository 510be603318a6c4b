package session

import (
	"context"
	"errors"

	"thriftstore/internal/common"
)

var ErrNoSession = errors.New("no session stored")

// Session is everything thriftctl persists between runs.
type Session struct {
	Token       string      `json:"token"`
	UserID      uint        `json:"user_id"`
	Email       string      `json:"email"`
	Phone       string      `json:"phone"`
	Location    string      `json:"location"`
	AccessLevel int         `json:"access_level"`
	Name        string      `json:"name"`
	Role        common.Role `json:"role"`
}

func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// Store persists one Session. Update applies fn to a copy of the stored
// session and writes the result in one step; if fn fails nothing is written.
type Store interface {
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Update(ctx context.Context, fn func(*Session) error) error
	Clear(ctx context.Context) error
}

// TokenSource adapts a Store to the api client's token lookup. A missing
// session yields an empty token.
type TokenSource struct {
	Store Store
}

func (t TokenSource) Token(ctx context.Context) (string, error) {
	s, err := t.Store.Load(ctx)
	if errors.Is(err, ErrNoSession) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return s.Token, nil
}
