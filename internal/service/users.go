package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/mbellini/userhub/internal/auth"
	"github.com/mbellini/userhub/internal/domain/user"
	"github.com/mbellini/userhub/internal/security"
)

// Store is the persistence contract the service consumes. Both the postgres
// and the in-memory repos satisfy it.
type Store interface {
	GetByID(ctx context.Context, id int64) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByCredentials(ctx context.Context, email, credentialHash string) (user.User, bool, error)
	CountByUsernameOrEmail(ctx context.Context, username, email string) (int, error)
	Create(ctx context.Context, u user.User) (user.User, error)
	Update(ctx context.Context, u user.User) (user.User, error)
	DeleteByEmail(ctx context.Context, email string) (int64, error)
	ListWithArticles(ctx context.Context) ([]user.WithArticles, error)
}

// RosterCache holds a recent roster computation. Optional; a nil cache means
// every roster call recomputes.
type RosterCache interface {
	Get(ctx context.Context) ([]user.RosterEntry, bool)
	Set(ctx context.Context, entries []user.RosterEntry)
	Clear(ctx context.Context)
}

// Users orchestrates the credential codec, the token issuer and the store
// gateway into the account operations.
type Users struct {
	store    Store
	codec    *security.Codec
	tokens   *auth.Manager
	roster   RosterCache
	validate *validator.Validate
}

func NewUsers(store Store, codec *security.Codec, tokens *auth.Manager, roster RosterCache) *Users {
	return &Users{
		store:    store,
		codec:    codec,
		tokens:   tokens,
		roster:   roster,
		validate: validator.New(),
	}
}

// Register creates an account. The count check is the friendly fast path;
// the store's unique indexes remain the authoritative guard and surface as
// ErrIdentityConflict when a concurrent registration wins the race.
func (s *Users) Register(ctx context.Context, req user.CreateUserRequest) (user.View, error) {
	if err := s.validate.Struct(req); err != nil {
		return user.View{}, fmt.Errorf("%w: %v", user.ErrInvalidInput, err)
	}

	count, err := s.store.CountByUsernameOrEmail(ctx, req.Username, req.Email)

	if err != nil {
		return user.View{}, err
	}

	if count > 0 {
		return user.View{}, user.ErrDuplicateIdentity
	}

	created, err := s.store.Create(ctx, user.User{
		Username:       req.Username,
		Email:          req.Email,
		CredentialHash: s.codec.Hash(req.Password),
	})

	if err != nil {
		return user.View{}, err
	}

	s.clearRoster(ctx)

	return s.buildView(created)
}

// Authenticate hashes the supplied secret and asks the store for an exact
// match, as one operation. There is no path that compares plaintexts, and
// the failure never says whether the email exists.
func (s *Users) Authenticate(ctx context.Context, email, secret string) (user.View, error) {
	u, found, err := s.store.GetByCredentials(ctx, email, s.codec.Hash(secret))

	if err != nil {
		return user.View{}, err
	}

	if !found {
		return user.View{}, user.ErrInvalidCredentials
	}

	return s.buildView(u)
}

func (s *Users) GetByID(ctx context.Context, id int64) (user.View, error) {
	u, err := s.store.GetByID(ctx, id)

	if err != nil {
		return user.View{}, err
	}

	return s.buildView(u)
}

func (s *Users) GetByEmail(ctx context.Context, email string) (user.View, error) {
	u, err := s.store.GetByEmail(ctx, email)

	if err != nil {
		return user.View{}, err
	}

	return s.buildView(u)
}

// UpdateProfile applies a partial field set onto the existing record.
// Uniqueness of a changed username/email is not re-checked here; that
// mirrors the upstream behavior and is a documented gap.
func (s *Users) UpdateProfile(ctx context.Context, id int64, req user.UpdateUserRequest) (user.View, error) {
	u, err := s.store.GetByID(ctx, id)

	if err != nil {
		return user.View{}, err
	}

	u.Apply(req)

	if req.Password != nil {
		u.CredentialHash = s.codec.Hash(*req.Password)
	}

	updated, err := s.store.Update(ctx, u)

	if err != nil {
		return user.View{}, err
	}

	s.clearRoster(ctx)

	return s.buildView(updated)
}

// DeleteByEmail reports how many records were removed; zero matches is a
// normal outcome.
func (s *Users) DeleteByEmail(ctx context.Context, email string) (int64, error) {
	removed, err := s.store.DeleteByEmail(ctx, email)

	if err != nil {
		return 0, err
	}

	if removed > 0 {
		s.clearRoster(ctx)
	}

	return removed, nil
}

// Roster aggregates per-user content statistics. Each user is summarized
// independently and the store's return order is preserved as-is.
func (s *Users) Roster(ctx context.Context) ([]user.RosterEntry, error) {
	if s.roster != nil {
		if entries, ok := s.roster.Get(ctx); ok {
			return entries, nil
		}
	}

	listed, err := s.store.ListWithArticles(ctx)

	if err != nil {
		return nil, err
	}

	entries := make([]user.RosterEntry, 0, len(listed))

	for _, l := range listed {
		entries = append(entries, user.Summarize(l.User, l.Articles))
	}

	if s.roster != nil {
		s.roster.Set(ctx, entries)
	}

	return entries, nil
}

// buildView mints a brand-new token on every call; views never share tokens.
func (s *Users) buildView(u user.User) (user.View, error) {
	token, err := s.tokens.Issue(u)

	if err != nil {
		return user.View{}, err
	}

	return user.View{
		Bio:      u.Bio,
		Email:    u.Email,
		Image:    u.Image,
		Token:    token,
		Username: u.Username,
	}, nil
}

func (s *Users) clearRoster(ctx context.Context) {
	if s.roster != nil {
		s.roster.Clear(ctx)
	}
}
