package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadflow_backend/internal/auth/token"
	"leadflow_backend/internal/events"
	"leadflow_backend/internal/identity/directory"
	"leadflow_backend/platform/cache"
	platformevents "leadflow_backend/platform/events"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type fakeTokenStore struct {
	tokens map[string]storedToken
}

type storedToken struct {
	userID    uuid.UUID
	expiresAt time.Time
	revoked   bool
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: make(map[string]storedToken)}
}

func (f *fakeTokenStore) CreateRefreshToken(_ context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	f.tokens[tokenHash] = storedToken{userID: userID, expiresAt: expiresAt}
	return nil
}

func (f *fakeTokenStore) GetRefreshToken(_ context.Context, tokenHash string) (uuid.UUID, time.Time, error) {
	stored, ok := f.tokens[tokenHash]
	if !ok || stored.revoked {
		return uuid.UUID{}, time.Time{}, errors.New("not found")
	}
	return stored.userID, stored.expiresAt, nil
}

func (f *fakeTokenStore) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	if stored, ok := f.tokens[tokenHash]; ok {
		stored.revoked = true
		f.tokens[tokenHash] = stored
	}
	return nil
}

func (f *fakeTokenStore) RevokeAllRefreshTokens(_ context.Context, userID uuid.UUID) error {
	for hash, stored := range f.tokens {
		if stored.userID == userID {
			stored.revoked = true
			f.tokens[hash] = stored
		}
	}
	return nil
}

type fakeDirectory struct {
	accounts map[string]directory.Account
	byIDHits int
}

func (f *fakeDirectory) GetAccountByEmail(_ context.Context, email string) (directory.Account, error) {
	account, ok := f.accounts[email]
	if !ok {
		return directory.Account{}, errors.New("not found")
	}
	return account, nil
}

func (f *fakeDirectory) GetAccountByID(_ context.Context, userID uuid.UUID) (directory.Account, error) {
	f.byIDHits++
	for _, account := range f.accounts {
		if account.ID == userID {
			return account, nil
		}
	}
	return directory.Account{}, errors.New("not found")
}

type memoryCache struct {
	entries map[string]directory.Account
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]directory.Account)}
}

func (m *memoryCache) Get(_ context.Context, key string, dest any) error {
	entry, ok := m.entries[key]
	if !ok {
		return cache.ErrMiss
	}
	*(dest.(*directory.Account)) = entry
	return nil
}

func (m *memoryCache) Set(_ context.Context, key string, value any) error {
	m.entries[key] = value.(directory.Account)
	return nil
}

func (m *memoryCache) Delete(_ context.Context, key string) error {
	delete(m.entries, key)
	return nil
}

type testConfig struct{}

func (testConfig) GetJWTAccessSecret() string        { return "test-access-secret" }
func (testConfig) GetJWTRefreshSecret() string       { return "test-refresh-secret" }
func (testConfig) GetAccessTokenTTL() time.Duration  { return 15 * time.Minute }
func (testConfig) GetRefreshTokenTTL() time.Duration { return 24 * time.Hour }

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(hash)
}

func newTestService(t *testing.T, accounts ...directory.Account) (*Service, *fakeDirectory, *fakeTokenStore, *memoryCache) {
	t.Helper()

	dir := &fakeDirectory{accounts: make(map[string]directory.Account)}
	for _, account := range accounts {
		dir.accounts[account.Email] = account
	}
	store := newFakeTokenStore()
	userCache := newMemoryCache()
	svc := New(store, dir, userCache, testConfig{}, logger.New("development"))
	return svc, dir, store, userCache
}

func activeAccount(t *testing.T) directory.Account {
	t.Helper()
	return directory.Account{
		ID:           uuid.New(),
		TenantID:     uuid.New(),
		Email:        "agent@example.com",
		PasswordHash: mustHash(t, "correct-horse"),
		Status:       "active",
		Roles:        []string{"agent"},
		Permissions:  []string{"leads.read"},
	}
}

func TestLoginIssuesTokenPair(t *testing.T) {
	account := activeAccount(t)
	svc, _, store, _ := newTestService(t, account)

	access, refresh, err := svc.Login(context.Background(), account.Email, "correct-horse")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if access == "" || refresh == "" {
		t.Fatal("expected non-empty token pair")
	}

	hash := token.HashSHA256(refresh)
	if _, _, err := store.GetRefreshToken(context.Background(), hash); err != nil {
		t.Fatalf("refresh token not persisted: %v", err)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	account := activeAccount(t)
	svc, _, _, _ := newTestService(t, account)

	if _, _, err := svc.Login(context.Background(), account.Email, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginRejectsUnknownEmail(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	if _, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	account := activeAccount(t)
	account.Status = "inactive"
	svc, _, _, _ := newTestService(t, account)

	if _, _, err := svc.Login(context.Background(), account.Email, "correct-horse"); !errors.Is(err, ErrUserInactive) {
		t.Fatalf("expected ErrUserInactive, got %v", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	account := activeAccount(t)
	svc, _, store, _ := newTestService(t, account)

	_, refresh, err := svc.Login(context.Background(), account.Email, "correct-horse")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	_, newRefresh, err := svc.Refresh(context.Background(), refresh)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if newRefresh == refresh {
		t.Fatal("expected a rotated refresh token")
	}

	// The old token is revoked and cannot be replayed.
	oldHash := token.HashSHA256(refresh)
	if _, _, err := store.GetRefreshToken(context.Background(), oldHash); err == nil {
		t.Fatal("expected old refresh token to be revoked")
	}
	if _, _, err := svc.Refresh(context.Background(), refresh); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid on replay, got %v", err)
	}
}

func TestRefreshRejectsExpiredToken(t *testing.T) {
	account := activeAccount(t)
	svc, _, store, _ := newTestService(t, account)

	raw, err := token.GenerateRandomToken(48)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	hash := token.HashSHA256(raw)
	if err := store.CreateRefreshToken(context.Background(), account.ID, hash, time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	if _, _, err := svc.Refresh(context.Background(), raw); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestGetAccountUsesCache(t *testing.T) {
	account := activeAccount(t)
	svc, dir, _, _ := newTestService(t, account)
	ctx := context.Background()

	if _, err := svc.GetAccount(ctx, account.ID); err != nil {
		t.Fatalf("first lookup failed: %v", err)
	}
	if _, err := svc.GetAccount(ctx, account.ID); err != nil {
		t.Fatalf("second lookup failed: %v", err)
	}

	if dir.byIDHits != 1 {
		t.Fatalf("expected 1 directory hit, got %d", dir.byIDHits)
	}
}

func TestStatusChangeInvalidatesCache(t *testing.T) {
	account := activeAccount(t)
	svc, dir, _, _ := newTestService(t, account)
	ctx := context.Background()

	bus := platformevents.NewInMemoryBus(logger.New("development"))
	svc.RegisterHandlers(bus)

	if _, err := svc.GetAccount(ctx, account.ID); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	err := bus.PublishSync(ctx, events.UserStatusChanged{
		BaseEvent: events.NewBaseEvent(),
		UserID:    account.ID,
		TenantID:  account.TenantID,
		OldStatus: "active",
		NewStatus: "inactive",
	})
	if err != nil {
		t.Fatalf("publish event: %v", err)
	}

	if _, err := svc.GetAccount(ctx, account.ID); err != nil {
		t.Fatalf("post-invalidation lookup failed: %v", err)
	}
	if dir.byIDHits != 2 {
		t.Fatalf("expected cache miss after status change, directory hits = %d", dir.byIDHits)
	}
}
