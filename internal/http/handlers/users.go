package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/learnstack/learnhub/internal/config"
	"github.com/learnstack/learnhub/internal/domain/user"
	"github.com/learnstack/learnhub/internal/http/middlewares"
	"github.com/learnstack/learnhub/internal/security"
)

type UsersRepo interface {
	List(ctx context.Context, filter user.ListFilter) ([]user.User, int, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
	Update(ctx context.Context, id string, req user.UpdateUserRequest) (user.User, error)
	Delete(ctx context.Context, id string) error
}

type UsersHandler struct {
	repo UsersRepo
}

func NewUsersHandler(repo UsersRepo) *UsersHandler {
	return &UsersHandler{repo: repo}
}

func parseIntDefault(s string, fallback int) int {
	if s == "" {
		return fallback
	}

	n, err := strconv.Atoi(s)

	if err != nil {
		return fallback
	}

	return n
}

// GET /users?page=1&limit=20&role=admin&status=active&search=ada
func (h *UsersHandler) List(ctx *gin.Context) {
	page := parseIntDefault(ctx.Query("page"), 1)
	limit := parseIntDefault(ctx.Query("limit"), 20)

	if page < 1 {
		RespondBadRequest(ctx, "invalid_query", "page must be >= 1")
		return
	}
	if limit < 1 || limit > 100 {
		RespondBadRequest(ctx, "invalid_query", "limit must be between 1 and 100")
		return
	}

	filter := user.ListFilter{Page: page, Limit: limit}

	if role := ctx.Query("role"); role != "" {
		filter.Role = &role
	}
	if status := ctx.Query("status"); status != "" {
		filter.Status = &status
	}
	if search := ctx.Query("search"); search != "" {
		filter.Search = &search
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	items, total, err := h.repo.List(cctx, filter)

	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"users": items,
		"total": total,
		// full-page heuristic: a short page means there is no next one
		"hasMore": len(items) == limit,
	})
}

func (h *UsersHandler) Get(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not fetch user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

// POST /users (admin)
func (h *UsersHandler) Create(ctx *gin.Context) {
	var req user.CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	hash := ""

	if req.Password != "" {
		var err error
		hash, err = security.HashPassword(req.Password)

		if err != nil {
			RespondInternal(ctx, "Could not create user")
			return
		}
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.repo.Create(cctx, user.NewFromCreateRequest(req, hash))

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondConflict(ctx, "email_taken", "This email is already in use.")
			return
		}
		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, u)
}

// PATCH /users/:id — self-service or admin. Role and status edits are
// admin-only even on your own account.
func (h *UsersHandler) Update(ctx *gin.Context) {
	id := ctx.Param("id")

	var req user.UpdateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	actorID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || actorID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if actorID != id || req.TouchesRoleOrStatus() {
		actor, err := h.repo.GetByID(cctx, actorID)

		if err != nil || actor.Role != user.RoleAdmin {
			RespondForbidden(ctx, "You can only edit your own profile")
			return
		}
	}

	u, err := h.repo.Update(cctx, id, req)

	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			RespondNotFound(ctx, "User not found")
		case errors.Is(err, user.ErrStaleUpdate):
			RespondConflict(ctx, "stale_update", "User was modified since your last read. Re-fetch and retry.")
		case errors.Is(err, user.ErrEmailTaken):
			RespondConflict(ctx, "email_taken", "This email is already in use.")
		default:
			RespondInternal(ctx, "Could not update user")
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data":    u,
		"message": "User updated",
	})
}

// DELETE /users/:id (admin). Hard delete; a repeat call is a 404.
func (h *UsersHandler) Delete(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	err := h.repo.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not delete user")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}
