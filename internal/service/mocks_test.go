package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"tracks-login/internal/domain"
)

type mockUserRepo struct {
	usersByID    map[string]domain.User
	usersByLogin map[string]string

	saves int

	getErr   error
	countErr error
	saveErr  error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		usersByID:    make(map[string]domain.User),
		usersByLogin: make(map[string]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	m.usersByID[user.ID] = user
	m.usersByLogin[user.Login] = user.ID
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	if m.getErr != nil {
		return domain.User{}, m.getErr
	}
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) GetByLogin(ctx context.Context, login string) (domain.User, error) {
	if m.getErr != nil {
		return domain.User{}, m.getErr
	}
	id, ok := m.usersByLogin[login]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return m.GetByID(ctx, id)
}

func (m *mockUserRepo) GetByRememberToken(_ context.Context, token string) (domain.User, error) {
	if m.getErr != nil {
		return domain.User{}, m.getErr
	}
	for _, user := range m.usersByID {
		if user.RememberToken != nil && *user.RememberToken == token {
			return user, nil
		}
	}
	return domain.User{}, pgx.ErrNoRows
}

func (m *mockUserRepo) Count(_ context.Context) (int64, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return int64(len(m.usersByID)), nil
}

func (m *mockUserRepo) Save(_ context.Context, user domain.User) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if _, ok := m.usersByID[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.saves++
	m.usersByID[user.ID] = user
	return nil
}

type mockPrefsRepo struct {
	byUser map[string]domain.Preferences
	err    error
}

func newMockPrefsRepo() *mockPrefsRepo {
	return &mockPrefsRepo{byUser: make(map[string]domain.Preferences)}
}

func (m *mockPrefsRepo) GetByUserID(_ context.Context, userID string) (domain.Preferences, error) {
	if m.err != nil {
		return domain.Preferences{}, m.err
	}
	prefs, ok := m.byUser[userID]
	if !ok {
		return domain.Preferences{}, pgx.ErrNoRows
	}
	return prefs, nil
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

const testSalt = "test-salt"

// authFixture arma todos los servicios sobre mocks y un reloj comun.
type authFixture struct {
	clock       *testClock
	users       *mockUserRepo
	prefs       *mockPrefsRepo
	store       *memorySessionStore
	hasher      *BcryptHasher
	credentials *CredentialService
	sessions    *SessionService
	tokens      *RememberTokenService
	identity    *IdentityService
	login       *LoginService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		clock:  newTestClock(),
		users:  newMockUserRepo(),
		prefs:  newMockPrefsRepo(),
		hasher: NewBcryptHasher(testSalt, bcrypt.MinCost),
	}
	logger := zap.NewNop()
	f.store = newMemorySessionStore(f.clock.Now)
	f.credentials = NewCredentialService(logger, f.users, f.hasher)
	f.sessions = NewSessionService(logger, f.store, time.Hour, false)
	f.sessions.now = f.clock.Now
	f.tokens = NewRememberTokenService(logger, f.users, f.sessions, nil, "token-secret", 14*24*time.Hour)
	f.tokens.now = f.clock.Now
	f.identity = NewIdentityService(logger, f.users, f.prefs, f.sessions, f.tokens)
	f.login = NewLoginService(logger, f.credentials, f.sessions, f.tokens, nil, LoginPaths{})
	return f
}

func (f *authFixture) addUser(t *testing.T, id, login, password string) domain.User {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := domain.User{ID: id, Login: login, PasswordHash: hash, CreatedAt: f.clock.Now()}
	if err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}
