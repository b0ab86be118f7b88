package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mbellini/userhub/internal/domain/article"
	"github.com/mbellini/userhub/internal/domain/user"
	"github.com/mbellini/userhub/internal/observability"
)

// UsersRepo is the only component that talks to persistence for users.
type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

const userColumns = `id, username, email, credential_hash, bio, image, created_at, updated_at`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User

	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.CredentialHash,
		&u.Bio,
		&u.Image,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (u user.User, err error) {
	err = r.observe("users.get_by_id", func() error {
		var e error
		u, e = scanUser(r.pool.QueryRow(
			ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`,
			id,
		))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (u user.User, err error) {
	err = r.observe("users.get_by_email", func() error {
		var e error
		u, e = scanUser(r.pool.QueryRow(
			ctx,
			`SELECT `+userColumns+` FROM users WHERE email = $1`,
			email,
		))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

// GetByCredentials matches on the pre-hashed credential. "No match" is a
// plain (zero, false, nil) result, not an error: the caller must not be able
// to tell an unknown email from a wrong secret.
func (r *UsersRepo) GetByCredentials(ctx context.Context, email, credentialHash string) (u user.User, found bool, err error) {
	err = r.observe("users.get_by_credentials", func() error {
		var e error
		u, e = scanUser(r.pool.QueryRow(
			ctx,
			`SELECT `+userColumns+` FROM users WHERE email = $1 AND credential_hash = $2`,
			email, credentialHash,
		))
		return e
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, false, nil
		}

		return user.User{}, false, err
	}

	return u, true, nil
}

func (r *UsersRepo) CountByUsernameOrEmail(ctx context.Context, username, email string) (count int, err error) {
	err = r.observe("users.count_identity", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT COUNT(*) FROM users WHERE username = $1 OR email = $2`,
			username, email,
		).Scan(&count)
	})

	if err != nil {
		return 0, err
	}

	return count, nil
}

// Create persists a new record and lets the store assign its id. A unique
// index violation surfaces as ErrIdentityConflict, which is the
// authoritative guard when two registrations race past the count check.
func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	err := r.observe("users.create", func() error {
		return r.pool.QueryRow(
			ctx,
			`INSERT INTO users (username, email, credential_hash, bio, image, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING id`,
			u.Username, u.Email, u.CredentialHash, u.Bio, u.Image, u.CreatedAt, u.UpdatedAt,
		).Scan(&u.ID)
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return user.User{}, user.ErrIdentityConflict
		}

		return user.User{}, err
	}

	return u, nil
}

// Update writes the full record back; the service applies the partial field
// set onto a freshly loaded user first.
func (r *UsersRepo) Update(ctx context.Context, u user.User) (user.User, error) {
	u.UpdatedAt = time.Now().UTC()

	err := r.observe("users.update", func() error {
		tag, e := r.pool.Exec(
			ctx,
			`UPDATE users
			    SET username = $2,
			        email = $3,
			        credential_hash = $4,
			        bio = $5,
			        image = $6,
			        updated_at = $7
			  WHERE id = $1`,
			u.ID, u.Username, u.Email, u.CredentialHash, u.Bio, u.Image, u.UpdatedAt,
		)
		if e != nil {
			return e
		}
		if tag.RowsAffected() == 0 {
			return user.ErrNotFound
		}
		return nil
	})

	if err != nil {
		return user.User{}, err
	}

	return u, nil
}

// DeleteByEmail removes matching records and reports how many went away.
// Zero is a valid answer, not an error.
func (r *UsersRepo) DeleteByEmail(ctx context.Context, email string) (removed int64, err error) {
	err = r.observe("users.delete_by_email", func() error {
		tag, e := r.pool.Exec(ctx, `DELETE FROM users WHERE email = $1`, email)
		if e != nil {
			return e
		}
		removed = tag.RowsAffected()
		return nil
	})

	if err != nil {
		return 0, err
	}

	return removed, nil
}

// ListWithArticles returns every user together with its article projections.
// Output order is the store's natural id order; callers preserve it.
func (r *UsersRepo) ListWithArticles(ctx context.Context) (out []user.WithArticles, err error) {
	var rows pgx.Rows

	err = r.observe("users.list_with_articles", func() error {
		rows, err = r.pool.Query(
			ctx,
			`SELECT u.id, u.username, u.email, u.credential_hash, u.bio, u.image, u.created_at, u.updated_at,
			        a.id, a.favorites_count, a.created_at
			   FROM users u
			   LEFT JOIN articles a ON a.author_id = u.id
			  ORDER BY u.id ASC, a.id ASC`,
		)
		return err
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	out = make([]user.WithArticles, 0)
	index := make(map[int64]int)

	for rows.Next() {
		var u user.User
		var articleID *int64
		var favorites *int
		var createdAt *time.Time

		e := rows.Scan(
			&u.ID, &u.Username, &u.Email, &u.CredentialHash, &u.Bio, &u.Image, &u.CreatedAt, &u.UpdatedAt,
			&articleID, &favorites, &createdAt,
		)

		if e != nil {
			return nil, e
		}

		i, seen := index[u.ID]

		if !seen {
			i = len(out)
			index[u.ID] = i
			out = append(out, user.WithArticles{User: u})
		}

		if articleID != nil {
			a := article.Article{ID: *articleID}
			if favorites != nil {
				a.FavoritesCount = *favorites
			}
			if createdAt != nil {
				a.CreatedAt = *createdAt
			}
			out[i].Articles = append(out[i].Articles, a)
		}
	}

	err = rows.Err()

	if err != nil {
		return nil, err
	}

	return out, nil
}
