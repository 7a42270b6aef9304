package user

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserNotFound  = errors.New("user: not found")
	ErrEmailRequired = errors.New("user: email required")
	ErrNameRequired  = errors.New("user: name required")
	ErrEmailTaken    = errors.New("user: email already registered")
)

type UserID string

// User is a marketplace profile. Any user may act as renter or owner; the
// role is determined per booking, not stored on the profile.
type User struct {
	ID           UserID
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Repository interface {
	ByID(ctx context.Context, id UserID) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	Save(ctx context.Context, u *User) error
}
