package user

import (
	"errors"
	"time"

	"github.com/mbellini/userhub/internal/domain/article"
)

type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	CredentialHash string    `json:"-"` // never expose the stored credential
	Bio            string    `json:"bio,omitempty"`
	Image          string    `json:"image,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// WithArticles pairs a user with the article projections it authored,
// in the store's natural return order.
type WithArticles struct {
	User     User
	Articles []article.Article
}

// View is what callers get back from every user-facing operation. The token
// is minted fresh on each build, never cached.
type View struct {
	Bio      string `json:"bio"`
	Email    string `json:"email"`
	Image    string `json:"image"`
	Token    string `json:"token"`
	Username string `json:"username"`
}

var (
	ErrNotFound = errors.New("user not found")

	// ErrDuplicateIdentity is the fast-path precondition failure at
	// registration (the count check found a taken username or email).
	ErrDuplicateIdentity = errors.New("username and email must be unique")

	// ErrIdentityConflict is the authoritative failure: the store's unique
	// constraint rejected the insert, e.g. when two registrations race past
	// the count check.
	ErrIdentityConflict = errors.New("username or email already taken")

	ErrInvalidInput = errors.New("user input is not valid")

	// ErrInvalidCredentials deliberately covers both unknown email and wrong
	// secret so login failures don't reveal which one it was.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type CreateUserRequest struct {
	Username string `json:"username" binding:"required" validate:"required"`
	Email    string `json:"email" binding:"required,email" validate:"required,email"`
	Password string `json:"password" binding:"required" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateUserRequest is a partial field set; nil means "leave as is".
// A non-nil Password re-derives the stored credential.
type UpdateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Bio      *string `json:"bio"`
	Image    *string `json:"image"`
	Password *string `json:"password"`
}

// Apply copies the non-nil fields of req onto u. The credential itself is
// handled by the caller since hashing lives outside the domain package.
func (u *User) Apply(req UpdateUserRequest) {
	if req.Username != nil {
		u.Username = *req.Username
	}
	if req.Email != nil {
		u.Email = *req.Email
	}
	if req.Bio != nil {
		u.Bio = *req.Bio
	}
	if req.Image != nil {
		u.Image = *req.Image
	}
}
