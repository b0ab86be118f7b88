package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mbellini/userhub/internal/domain/article"
	"github.com/mbellini/userhub/internal/domain/user"
)

// UsersRepo is a map-backed stand-in for the postgres gateway, mostly used
// by tests. It keeps insertion order so listings behave like the real
// store's natural return order.
type UsersRepo struct {
	mu       sync.RWMutex
	nextID   int64
	order    []int64
	users    map[int64]user.User
	articles map[int64][]article.Article
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		nextID:   1,
		users:    make(map[int64]user.User),
		articles: make(map[int64][]article.Article),
	}
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		if r.users[id].Email == email {
			return r.users[id], nil
		}
	}

	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) GetByCredentials(ctx context.Context, email, credentialHash string) (user.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		u := r.users[id]
		if u.Email == email && u.CredentialHash == credentialHash {
			return u, true, nil
		}
	}

	return user.User{}, false, nil
}

func (r *UsersRepo) CountByUsernameOrEmail(ctx context.Context, username, email string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0

	for _, id := range r.order {
		u := r.users[id]
		if u.Username == username || u.Email == email {
			count++
		}
	}

	return count, nil
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// mirror the unique indexes of the real store
	for _, id := range r.order {
		existing := r.users[id]
		if existing.Username == u.Username || existing.Email == u.Email {
			return user.User{}, user.ErrIdentityConflict
		}
	}

	now := time.Now().UTC()
	u.ID = r.nextID
	u.CreatedAt = now
	u.UpdatedAt = now
	r.nextID++

	r.users[u.ID] = u
	r.order = append(r.order, u.ID)

	return u, nil
}

func (r *UsersRepo) Update(ctx context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[u.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}

	u.UpdatedAt = time.Now().UTC()
	r.users[u.ID] = u

	return u, nil
}

func (r *UsersRepo) DeleteByEmail(ctx context.Context, email string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	kept := r.order[:0]

	for _, id := range r.order {
		if r.users[id].Email == email {
			delete(r.users, id)
			delete(r.articles, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}

	r.order = kept

	return removed, nil
}

func (r *UsersRepo) ListWithArticles(ctx context.Context) ([]user.WithArticles, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.WithArticles, 0, len(r.order))

	for _, id := range r.order {
		out = append(out, user.WithArticles{
			User:     r.users[id],
			Articles: append([]article.Article(nil), r.articles[id]...),
		})
	}

	return out, nil
}

// AddArticle attaches an article projection to a user. Test seam; the real
// projection is written by the content subsystem.
func (r *UsersRepo) AddArticle(userID int64, a article.Article) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.articles[userID] = append(r.articles[userID], a)
}

// Len reports how many users are stored.
func (r *UsersRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.users)
}
