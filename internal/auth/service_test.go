package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/stockroom-app/stockroom/internal/shared"
	_ "github.com/stockroom-app/stockroom/testing"
)

type fakeUserRepo struct {
	users map[string]*User
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	user, ok := r.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func newTestStore(t *testing.T) *TokenStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewTokenStore(client, time.Hour)
}

func newTestService(t *testing.T, store *TokenStore) *Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &fakeUserRepo{users: map[string]*User{
		"ops@example.com": {ID: 42, Email: "ops@example.com", PasswordHash: string(hash), IsActive: true},
		"gone@example.com": {ID: 43, Email: "gone@example.com", PasswordHash: string(hash), IsActive: false},
	}}
	return NewService(repo, store)
}

func TestLoginIssuesResolvableToken(t *testing.T) {
	store := newTestStore(t)
	svc := newTestService(t, store)
	ctx := context.Background()

	token, expiresAt, err := svc.Login(ctx, "ops@example.com", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.True(t, expiresAt.After(time.Now()))

	actor, err := store.Resolve(ctx, token)
	require.NoError(t, err)
	require.Equal(t, shared.Actor{ID: 42, Email: "ops@example.com"}, actor)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	store := newTestStore(t)
	svc := newTestService(t, store)
	ctx := context.Background()

	_, _, err := svc.Login(ctx, "ops@example.com", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "s3cret")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "gone@example.com", "s3cret")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials, "inactive accounts cannot log in")
}

func TestLogoutRevokesToken(t *testing.T) {
	store := newTestStore(t)
	svc := newTestService(t, store)
	ctx := context.Background()

	token, _, err := svc.Login(ctx, "ops@example.com", "s3cret")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, token))

	_, err = store.Resolve(ctx, token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRequireActorMiddleware(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	token, _, err := store.Issue(ctx, shared.Actor{ID: 7, Email: "ops@example.com"})
	require.NoError(t, err)

	mw := Middleware{Tokens: store}
	var gotActor shared.Actor
	handler := mw.RequireActor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotActor, _ = shared.ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, int64(7), gotActor.ID)

	// Missing and bogus tokens are rejected.
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}
