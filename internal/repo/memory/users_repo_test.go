package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/mbellini/userhub/internal/domain/user"
)

func seed(t *testing.T, r *UsersRepo, username, email string) user.User {
	t.Helper()

	u, err := r.Create(context.Background(), user.User{
		Username:       username,
		Email:          email,
		CredentialHash: "hash",
	})
	if err != nil {
		t.Fatalf("seed %s: %v", username, err)
	}

	return u
}

func TestCreateAssignsSequentialIDs(t *testing.T) {
	r := NewUsersRepo()

	a := seed(t, r, "a", "a@x.y")
	b := seed(t, r, "b", "b@x.y")

	if a.ID != 1 || b.ID != 2 {
		t.Errorf("ids = %d, %d", a.ID, b.ID)
	}
}

func TestCreateEnforcesUniqueness(t *testing.T) {
	r := NewUsersRepo()

	seed(t, r, "a", "a@x.y")

	_, err := r.Create(context.Background(), user.User{Username: "a", Email: "other@x.y"})

	if !errors.Is(err, user.ErrIdentityConflict) {
		t.Fatalf("err = %v, want ErrIdentityConflict", err)
	}
}

func TestListPreservesInsertionOrderAfterDelete(t *testing.T) {
	r := NewUsersRepo()
	ctx := context.Background()

	seed(t, r, "a", "a@x.y")
	seed(t, r, "b", "b@x.y")
	seed(t, r, "c", "c@x.y")

	removed, err := r.DeleteByEmail(ctx, "b@x.y")

	if err != nil || removed != 1 {
		t.Fatalf("delete: removed=%d err=%v", removed, err)
	}

	listed, err := r.ListWithArticles(ctx)

	if err != nil {
		t.Fatal(err)
	}

	if len(listed) != 2 || listed[0].User.Username != "a" || listed[1].User.Username != "c" {
		t.Errorf("order broken: %+v", listed)
	}
}

func TestGetByCredentialsNoMatchIsNotAnError(t *testing.T) {
	r := NewUsersRepo()

	seed(t, r, "a", "a@x.y")

	_, found, err := r.GetByCredentials(context.Background(), "a@x.y", "wrong-hash")

	if err != nil {
		t.Fatalf("err = %v, want nil", err)
	}

	if found {
		t.Fatal("found = true for a wrong credential")
	}
}
