package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/learnstack/learnhub/internal/config"
	"github.com/learnstack/learnhub/internal/domain/user"
	"github.com/learnstack/learnhub/internal/http/middlewares"
)

type MeHandler struct {
	repo UsersRepo
}

func NewMeHandler(repo UsersRepo) *MeHandler {
	return &MeHandler{repo: repo}
}

// GET /me. The first authenticated call syncs a user row from the auth
// provider's claims; later calls just read it.
func (h *MeHandler) Get(ctx *gin.Context) {
	actorID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || actorID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.repo.GetByID(cctx, actorID)

	if err == nil {
		ctx.JSON(http.StatusOK, u)
		return
	}

	if !errors.Is(err, user.ErrNotFound) {
		RespondInternal(ctx, "Could not fetch profile")
		return
	}

	email, _ := middlewares.EmailFromContext(ctx)
	name, _ := middlewares.NameFromContext(ctx)

	if email == "" {
		// a credential without an email claim cannot be synced
		RespondUnAuthorized(ctx, "unauthorized", "Credential carries no profile")
		return
	}

	created, err := h.repo.Create(cctx, user.NewSynced(actorID, email, name))

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondConflict(ctx, "email_taken", "This email is already in use.")
			return
		}
		RespondInternal(ctx, "Could not sync profile")
		return
	}

	ctx.JSON(http.StatusOK, created)
}
