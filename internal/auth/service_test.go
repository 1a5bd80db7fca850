package auth

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	nextID  int64
	byEmail map[string]User
	byID    map[int64]User
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byEmail: map[string]User{}, byID: map[int64]User{}}
}

func (m *memoryRepo) CreateUser(_ context.Context, email, name, passwordHash string) (User, error) {
	if _, exists := m.byEmail[email]; exists {
		return User{}, fmt.Errorf("%w: %s", ErrEmailTaken, email)
	}
	m.nextID++
	u := User{ID: m.nextID, Email: email, Name: name, PasswordHash: passwordHash, CreatedAt: time.Now()}
	m.byEmail[email] = u
	m.byID[u.ID] = u
	return u, nil
}

func (m *memoryRepo) UserByEmail(_ context.Context, email string) (User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return User{}, fmt.Errorf("%w: user %s", ErrInvalidCredentials, email)
	}
	return u, nil
}

func (m *memoryRepo) UserByID(_ context.Context, id int64) (User, error) {
	u, ok := m.byID[id]
	if !ok {
		return User{}, fmt.Errorf("%w: user %d", ErrInvalidCredentials, id)
	}
	return u, nil
}

func newTestService(t *testing.T) (*Service, *memoryRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newMemoryRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, NewTokenStore(client, time.Hour), logger), repo, mr
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "  Ada@Example.COM ", "Ada", "supersecret")
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", user.Email)
	require.NotEqual(t, "supersecret", user.PasswordHash)

	loggedIn, token, err := svc.Login(ctx, "ada@example.com", "supersecret")
	require.NoError(t, err)
	require.Equal(t, user.ID, loggedIn.ID)
	require.NotEmpty(t, token)

	resolved, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	require.Equal(t, user.ID, resolved.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "ada@example.com", "Ada", "supersecret")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "ada@example.com", "Ada II", "othersecret")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "ada@example.com", "Ada", "supersecret")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "ada@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "supersecret")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "ada@example.com", "Ada", "supersecret")
	require.NoError(t, err)
	_, token, err := svc.Login(ctx, "ada@example.com", "supersecret")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, token))

	_, err = svc.Authenticate(ctx, token)
	require.ErrorIs(t, err, ErrUnauthorized)

	// Revoking twice stays silent.
	require.NoError(t, svc.Logout(ctx, token))
}

func TestAuthenticateExpiredToken(t *testing.T) {
	svc, _, mr := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "ada@example.com", "Ada", "supersecret")
	require.NoError(t, err)
	_, token, err := svc.Login(ctx, "ada@example.com", "supersecret")
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	_, err = svc.Authenticate(ctx, token)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestRequireAuthMiddleware(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, svc)

	_, err := svc.Register(ctx, "ada@example.com", "Ada", "supersecret")
	require.NoError(t, err)
	_, token, err := svc.Login(ctx, "ada@example.com", "supersecret")
	require.NoError(t, err)

	var seen User
	protected := handler.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	protected.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, "ada@example.com", seen.Email)

	rr = httptest.NewRecorder()
	protected.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/me", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}
