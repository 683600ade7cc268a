package auth_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	auth "github.com/edustack/go-auth"
)

func uuidParse(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// fakeClock is a settable clock shared by signers and issuer in tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// memoryUserStore is an in-memory UserStore used by controller tests.
type memoryUserStore struct {
	mu    sync.Mutex
	users map[string]*auth.User
}

var _ auth.UserStore = (*memoryUserStore)(nil)

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: map[string]*auth.User{}}
}

func (s *memoryUserStore) FindUserByEmail(_ context.Context, email string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func (s *memoryUserStore) FindUserByID(_ context.Context, id string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, auth.ErrUserNotFound
}

func (s *memoryUserStore) CreateUser(_ context.Context, user *auth.User) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return nil, auth.ErrEmailConflict
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	cp := *user
	s.users[user.Identifier()] = &cp
	return user, nil
}

func (s *memoryUserStore) SaveUser(_ context.Context, user *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Identifier()]; !ok {
		return auth.ErrUserNotFound
	}
	cp := *user
	s.users[user.Identifier()] = &cp
	return nil
}

func (s *memoryUserStore) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	return nil
}
