package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mbellini/userhub/internal/config"
	"github.com/mbellini/userhub/internal/domain/user"
	"github.com/mbellini/userhub/internal/http/middlewares"
)

// UserService is the orchestration contract this handler consumes.
type UserService interface {
	Register(ctx context.Context, req user.CreateUserRequest) (user.View, error)
	Authenticate(ctx context.Context, email, secret string) (user.View, error)
	GetByEmail(ctx context.Context, email string) (user.View, error)
	UpdateProfile(ctx context.Context, id int64, req user.UpdateUserRequest) (user.View, error)
	DeleteByEmail(ctx context.Context, email string) (int64, error)
	Roster(ctx context.Context) ([]user.RosterEntry, error)
}

type UsersHandler struct {
	svc UserService
}

func NewUsersHandler(svc UserService) *UsersHandler {
	return &UsersHandler{svc: svc}
}

// request bodies use the {"user": {...}} envelope

type createUserBody struct {
	User user.CreateUserRequest `json:"user" binding:"required"`
}

type loginBody struct {
	User user.LoginRequest `json:"user" binding:"required"`
}

type updateUserBody struct {
	User user.UpdateUserRequest `json:"user" binding:"required"`
}

func (h *UsersHandler) Register(ctx *gin.Context) {
	var body createUserBody

	if !BindJSON(ctx, &body) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	view, err := h.svc.Register(cctx, body.User)

	if err != nil {
		h.respondUserError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"user": view})
}

func (h *UsersHandler) Login(ctx *gin.Context) {
	var body loginBody

	if !BindJSON(ctx, &body) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	view, err := h.svc.Authenticate(cctx, body.User.Email, body.User.Password)

	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			// deliberately vague; never confirm whether the email exists
			RespondUnAuthorized(ctx, "invalid_credentials", "User not found")
			return
		}

		RespondInternal(ctx, "Could not log in")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": view})
}

// Me returns the current user, resolved from the bearer token's email.
func (h *UsersHandler) Me(ctx *gin.Context) {
	email, ok := middlewares.EmailFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	view, err := h.svc.GetByEmail(cctx, email)

	if err != nil {
		h.respondUserError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": view})
}

func (h *UsersHandler) Update(ctx *gin.Context) {
	id, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var body updateUserBody

	if !BindJSON(ctx, &body) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	view, err := h.svc.UpdateProfile(cctx, id, body.User)

	if err != nil {
		h.respondUserError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": view})
}

func (h *UsersHandler) Delete(ctx *gin.Context) {
	email := ctx.Param("email")

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	removed, err := h.svc.DeleteByEmail(cctx, email)

	if err != nil {
		RespondInternal(ctx, "Could not delete user")
		return
	}

	// zero removals is still a 200; absence is not an error here
	ctx.JSON(http.StatusOK, gin.H{"deleted": removed})
}

func (h *UsersHandler) Roster(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	entries, err := h.svc.Roster(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not build roster")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, entries)
}

func (h *UsersHandler) respondUserError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, user.ErrDuplicateIdentity):
		RespondBadRequest(ctx, "Input data validation failed", gin.H{
			"username": "Username and email must be unique.",
		})
	case errors.Is(err, user.ErrIdentityConflict):
		RespondConflict(ctx, "identity_taken", "Username and email must be unique.")
	case errors.Is(err, user.ErrInvalidInput):
		RespondBadRequest(ctx, "Input data validation failed", gin.H{
			"username": "User input is not valid.",
		})
	case errors.Is(err, user.ErrNotFound):
		RespondNotFound(ctx, "User not found")
	default:
		RespondInternal(ctx, "Could not process user request")
	}
}
