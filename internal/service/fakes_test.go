package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sandeepkv93/shortlink-backend/internal/domain"
	"github.com/sandeepkv93/shortlink-backend/internal/mail"
	"github.com/sandeepkv93/shortlink-backend/internal/repository"
	"github.com/sandeepkv93/shortlink-backend/internal/security"
)

var (
	testVaultOnce sync.Once
	testVault     *security.Vault
	testVaultErr  error
)

func newTestVault(t testing.TB) *security.Vault {
	t.Helper()
	testVaultOnce.Do(func() {
		testVault, testVaultErr = security.NewVault("service-test-secret", "salt")
	})
	if testVaultErr != nil {
		t.Fatalf("new vault: %v", testVaultErr)
	}
	return testVault
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*domain.User
	err    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	r.nextID++
	u.ID = r.nextID
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uint) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r *fakeUserRepo) FindByVerificationToken(_ context.Context, token string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.VerificationToken != nil && *u.VerificationToken == token })
}

func (r *fakeUserRepo) FindByResetToken(_ context.Context, token string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ResetToken != nil && *u.ResetToken == token })
}

func (r *fakeUserRepo) MarkVerified(_ context.Context, id uint, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.VerificationToken == nil || *u.VerificationToken != token {
		return repository.ErrUserNotFound
	}
	u.IsVerified = true
	u.VerificationToken = nil
	u.TokenExpiry = nil
	return nil
}

func (r *fakeUserRepo) SetResetToken(_ context.Context, id uint, token string, expiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.ResetToken = &token
	u.ResetTokenExpiry = &expiry
	return nil
}

func (r *fakeUserRepo) ResetPassword(_ context.Context, id uint, token, blob string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.ResetToken == nil || *u.ResetToken != token {
		return repository.ErrUserNotFound
	}
	u.Password = blob
	u.ResetToken = nil
	u.ResetTokenExpiry = nil
	return nil
}

func (r *fakeUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

type fakeSender struct {
	mu    sync.Mutex
	sent  []mail.Message
	err   error
	block bool
}

func (s *fakeSender) Send(ctx context.Context, msg mail.Message) error {
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *fakeSender) last(t *testing.T) mail.Message {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		t.Fatal("expected a message to be sent")
	}
	return s.sent[len(s.sent)-1]
}

type fakeLinkRepo struct {
	mu    sync.Mutex
	links map[string]*domain.Link
	err   error
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{links: make(map[string]*domain.Link)}
}

func (r *fakeLinkRepo) Create(_ context.Context, l *domain.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.links[l.Alias]; ok {
		return repository.ErrDuplicate
	}
	l.ID = uint(len(r.links) + 1)
	l.CreatedAt = time.Now()
	if l.AccessLog == nil {
		l.AccessLog = []domain.AccessLogEntry{}
	}
	cp := *l
	r.links[l.Alias] = &cp
	return nil
}

func (r *fakeLinkRepo) FindByAlias(_ context.Context, alias string) (*domain.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.links[alias]
	if !ok {
		return nil, repository.ErrLinkNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *fakeLinkRepo) RecordAccess(_ context.Context, alias string, entry domain.AccessLogEntry) (*domain.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	l, ok := r.links[alias]
	if !ok {
		return nil, repository.ErrLinkNotFound
	}
	l.Accessed++
	l.AccessLog = append(l.AccessLog, entry)
	cp := *l
	return &cp, nil
}
