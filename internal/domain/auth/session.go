package auth

import (
	"context"
	"errors"
	"time"

	"rentilia/internal/domain/user"
)

var ErrSessionNotFound = errors.New("auth: session not found")

// Session is a bearer token issued at login and resolved on every request.
type Session struct {
	Token     string
	UserID    user.UserID
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

type SessionStore interface {
	Save(ctx context.Context, s Session) error
	ByToken(ctx context.Context, token string) (Session, error)
	Delete(ctx context.Context, token string) error
}
