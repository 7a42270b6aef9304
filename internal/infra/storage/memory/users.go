package memory

import (
	"context"
	"strings"
	"sync"

	domainuser "rentilia/internal/domain/user"
)

type UserRepository struct {
	mu      sync.RWMutex
	users   map[domainuser.UserID]*domainuser.User
	byEmail map[string]domainuser.UserID
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:   make(map[domainuser.UserID]*domainuser.User),
		byEmail: make(map[string]domainuser.UserID),
	}
}

func (r *UserRepository) ByID(_ context.Context, id domainuser.UserID) (*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domainuser.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *UserRepository) ByEmail(_ context.Context, email string) (*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, domainuser.ErrUserNotFound
	}
	clone := *r.users[id]
	return &clone, nil
}

func (r *UserRepository) Save(_ context.Context, u *domainuser.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	email := normalizeEmail(u.Email)
	if existing, ok := r.byEmail[email]; ok && existing != u.ID {
		return domainuser.ErrEmailTaken
	}
	if old, ok := r.users[u.ID]; ok {
		delete(r.byEmail, normalizeEmail(old.Email))
	}
	clone := *u
	r.users[u.ID] = &clone
	r.byEmail[email] = u.ID
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
