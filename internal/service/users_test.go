package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbellini/userhub/internal/auth"
	"github.com/mbellini/userhub/internal/domain/article"
	"github.com/mbellini/userhub/internal/domain/user"
	"github.com/mbellini/userhub/internal/repo/memory"
	"github.com/mbellini/userhub/internal/security"
)

func newTestService() (*Users, *memory.UsersRepo) {
	store := memory.NewUsersRepo()
	codec := security.NewCodec("test-secret")
	tokens := auth.NewManager("test-secret", 60*24*time.Hour)

	return NewUsers(store, codec, tokens, nil), store
}

func register(t *testing.T, svc *Users, username, email, password string) user.View {
	t.Helper()

	view, err := svc.Register(context.Background(), user.CreateUserRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)

	return view
}

func TestRegisterThenAuthenticate(t *testing.T) {
	svc, _ := newTestService()

	created := register(t, svc, "jake", "jake@jake.jake", "hunter2")
	assert.Equal(t, "jake", created.Username)
	assert.Equal(t, "jake@jake.jake", created.Email)
	assert.NotEmpty(t, created.Token)

	view, err := svc.Authenticate(context.Background(), "jake@jake.jake", "hunter2")
	require.NoError(t, err)

	assert.Equal(t, "jake", view.Username)
	assert.Equal(t, "jake@jake.jake", view.Email)
	assert.NotEmpty(t, view.Token)
}

func TestAuthenticateWrongSecretIsUnauthorized(t *testing.T) {
	svc, _ := newTestService()

	register(t, svc, "jake", "jake@jake.jake", "hunter2")

	// wrong secret for an existing email
	_, err := svc.Authenticate(context.Background(), "jake@jake.jake", "wrong")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)

	// unknown email fails the same way, never as a not-found
	_, err = svc.Authenticate(context.Background(), "ghost@jake.jake", "hunter2")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)
	assert.NotErrorIs(t, err, user.ErrNotFound)
}

func TestRegisterDuplicateIdentityWritesNothing(t *testing.T) {
	svc, store := newTestService()

	register(t, svc, "jake", "jake@jake.jake", "hunter2")
	require.Equal(t, 1, store.Len())

	// same username, different email
	_, err := svc.Register(context.Background(), user.CreateUserRequest{
		Username: "jake",
		Email:    "other@jake.jake",
		Password: "hunter2",
	})
	assert.ErrorIs(t, err, user.ErrDuplicateIdentity)

	// same email, different username
	_, err = svc.Register(context.Background(), user.CreateUserRequest{
		Username: "other",
		Email:    "jake@jake.jake",
		Password: "hunter2",
	})
	assert.ErrorIs(t, err, user.ErrDuplicateIdentity)

	assert.Equal(t, 1, store.Len(), "failed registrations must not write")
}

func TestRegisterValidatesFields(t *testing.T) {
	svc, store := newTestService()

	tests := []struct {
		name string
		req  user.CreateUserRequest
	}{
		{"empty username", user.CreateUserRequest{Email: "a@b.c", Password: "x"}},
		{"empty email", user.CreateUserRequest{Username: "a", Password: "x"}},
		{"malformed email", user.CreateUserRequest{Username: "a", Email: "not-an-email", Password: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.req)
			assert.ErrorIs(t, err, user.ErrInvalidInput)
		})
	}

	assert.Equal(t, 0, store.Len())
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newTestService()

	register(t, svc, "jake", "jake@jake.jake", "hunter2")

	bio := "I work at statefarm"
	view, err := svc.UpdateProfile(context.Background(), 1, user.UpdateUserRequest{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "I work at statefarm", view.Bio)
	assert.Equal(t, "jake", view.Username)

	// a password change re-derives the credential
	newPass := "hunter3"
	_, err = svc.UpdateProfile(context.Background(), 1, user.UpdateUserRequest{Password: &newPass})
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), "jake@jake.jake", "hunter2")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "jake@jake.jake", "hunter3")
	assert.NoError(t, err)
}

func TestUpdateProfileUnknownIDIsNotFound(t *testing.T) {
	svc, store := newTestService()

	bio := "nobody home"
	_, err := svc.UpdateProfile(context.Background(), 99, user.UpdateUserRequest{Bio: &bio})
	assert.ErrorIs(t, err, user.ErrNotFound)
	assert.Equal(t, 0, store.Len())
}

func TestDeleteByEmail(t *testing.T) {
	svc, _ := newTestService()

	register(t, svc, "jake", "jake@jake.jake", "hunter2")

	removed, err := svc.DeleteByEmail(context.Background(), "jake@jake.jake")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	// absent email yields zero, not an error
	removed, err = svc.DeleteByEmail(context.Background(), "ghost@jake.jake")
	require.NoError(t, err)
	assert.Equal(t, int64(0), removed)
}

func TestRosterAggregation(t *testing.T) {
	svc, store := newTestService()

	register(t, svc, "writer", "writer@jake.jake", "pw")
	register(t, svc, "quiet", "quiet@jake.jake", "pw")

	store.AddArticle(1, article.Article{CreatedAt: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), FavoritesCount: 2})
	store.AddArticle(1, article.Article{CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), FavoritesCount: 3})
	store.AddArticle(1, article.Article{CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), FavoritesCount: 0})

	entries, err := svc.Roster(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// output order follows the store's natural order
	writer := entries[0]
	assert.Equal(t, "writer", writer.Username)
	assert.Equal(t, "/profiles/writer", writer.ProfileLink)
	assert.Equal(t, 3, writer.ArticlesCount)
	assert.Equal(t, 5, writer.FavoritesCount)
	require.NotNil(t, writer.FirstArticleDate)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *writer.FirstArticleDate)

	quiet := entries[1]
	assert.Equal(t, "quiet", quiet.Username)
	assert.Equal(t, 0, quiet.ArticlesCount)
	assert.Equal(t, 0, quiet.FavoritesCount)
	assert.Nil(t, quiet.FirstArticleDate)
}

func TestEveryViewMintsAFreshToken(t *testing.T) {
	svc, _ := newTestService()

	register(t, svc, "jake", "jake@jake.jake", "hunter2")

	first, err := svc.GetByEmail(context.Background(), "jake@jake.jake")
	require.NoError(t, err)

	tokens := auth.NewManager("test-secret", 60*24*time.Hour)

	claims, err := tokens.Verify(first.Token)
	require.NoError(t, err)
	assert.Equal(t, "jake", claims.Username)
	assert.Equal(t, "jake@jake.jake", claims.Email)

	wantExp := time.Now().Add(60 * 24 * time.Hour).Unix()
	assert.InDelta(t, wantExp, claims.ExpiresAt.Unix(), 2)
}
