package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	domainauth "rentilia/internal/domain/auth"
	domainuser "rentilia/internal/domain/user"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrPasswordTooShort   = errors.New("auth: password must be at least 8 characters")
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type TokenGenerator interface {
	NewToken() (string, error)
}

type Service struct {
	Users      domainuser.Repository
	Sessions   domainauth.SessionStore
	Passwords  PasswordHasher
	Tokens     TokenGenerator
	SessionTTL time.Duration
	Logger     *slog.Logger
}

type RegisterParams struct {
	Email    string
	Name     string
	Password string
}

type LoginParams struct {
	Email    string
	Password string
}

type AuthResult struct {
	User  *domainuser.User
	Token string
}

func (s *Service) Register(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	email := strings.TrimSpace(strings.ToLower(params.Email))
	name := strings.TrimSpace(params.Name)
	if email == "" {
		return nil, domainuser.ErrEmailRequired
	}
	if name == "" {
		return nil, domainuser.ErrNameRequired
	}
	if len(params.Password) < 8 {
		return nil, ErrPasswordTooShort
	}
	if existing, err := s.Users.ByEmail(ctx, email); err == nil && existing != nil {
		return nil, domainuser.ErrEmailTaken
	} else if err != nil && !errors.Is(err, domainuser.ErrUserNotFound) {
		return nil, err
	}
	hash, err := s.Passwords.Hash(params.Password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &domainuser.User{
		ID:           domainuser.UserID(uuid.NewString()),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Users.Save(ctx, u); err != nil {
		return nil, err
	}
	return s.issueSession(ctx, u)
}

func (s *Service) Login(ctx context.Context, params LoginParams) (*AuthResult, error) {
	email := strings.TrimSpace(strings.ToLower(params.Email))
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainuser.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.Passwords.Compare(u.PasswordHash, params.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issueSession(ctx, u)
}

// Logout drops the session; an unknown token is not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.Sessions.Delete(ctx, token)
}

// ResolveToken maps a bearer token to its user, rejecting expired sessions.
func (s *Service) ResolveToken(ctx context.Context, token string) (*domainuser.User, error) {
	sess, err := s.Sessions.ByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess.Expired(time.Now().UTC()) {
		_ = s.Sessions.Delete(ctx, token)
		return nil, domainauth.ErrSessionNotFound
	}
	return s.Users.ByID(ctx, sess.UserID)
}

func (s *Service) issueSession(ctx context.Context, u *domainuser.User) (*AuthResult, error) {
	token, err := s.Tokens.NewToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	ttl := s.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	sess := domainauth.Session{
		Token:     token,
		UserID:    u.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.Sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Debug("session issued", "user", u.ID)
	}
	return &AuthResult{User: u, Token: token}, nil
}
