package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/learnstack/learnhub/internal/config"
	"github.com/learnstack/learnhub/internal/domain/page"
	"github.com/learnstack/learnhub/internal/domain/progress"
	"github.com/learnstack/learnhub/internal/http/middlewares"
)

type ProgressRepo interface {
	Upsert(ctx context.Context, rec progress.Record) (bool, error)
	ListForUser(ctx context.Context, userID, moduleID string) ([]progress.Record, error)
}

// CompletionDedup short-circuits repeat completion writes. Backed by
// redis so it holds across processes; a miss just falls through to the
// idempotent store upsert.
type CompletionDedup interface {
	IsDuplicate(ctx context.Context, userID, pageID string) (bool, error)
	Mark(ctx context.Context, userID, pageID string) error
}

type ProgressHandler struct {
	repo  ProgressRepo
	pages PagesRepo
	dedup CompletionDedup // may be nil
}

func NewProgressHandler(repo ProgressRepo, pages PagesRepo, dedup CompletionDedup) *ProgressHandler {
	return &ProgressHandler{repo: repo, pages: pages, dedup: dedup}
}

// POST /modules/:id/pages/:pageId/complete
func (h *ProgressHandler) Complete(ctx *gin.Context) {
	moduleID, pageID, ok := pageIDs(ctx)
	if !ok {
		return
	}

	actorID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || actorID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if h.dedup != nil {
		dup, err := h.dedup.IsDuplicate(cctx, actorID, pageID)
		// a dedup failure is not worth failing the request over
		if err == nil && dup {
			ctx.JSON(http.StatusOK, gin.H{"message": "Already completed"})
			return
		}
	}

	// page must exist under this module before anything is recorded

	if _, err := h.pages.GetByID(cctx, moduleID, pageID); err != nil {
		if errors.Is(err, page.ErrNotFound) {
			RespondNotFound(ctx, "Page not found")
			return
		}
		RespondInternal(ctx, "Could not record progress")
		return
	}

	rec := progress.Record{
		UserID:      actorID,
		ModuleID:    moduleID,
		PageID:      pageID,
		CompletedAt: time.Now().UTC(),
	}

	created, err := h.repo.Upsert(cctx, rec)

	if err != nil {
		RespondInternal(ctx, "Could not record progress")
		return
	}

	if h.dedup != nil {
		_ = h.dedup.Mark(cctx, actorID, pageID)
	}

	if created {
		ctx.JSON(http.StatusCreated, rec)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Already completed"})
}

// GET /modules/:id/progress — the caller's own completions only.
func (h *ProgressHandler) ListMine(ctx *gin.Context) {
	moduleID := ctx.Param("id")

	actorID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || actorID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	recs, err := h.repo.ListForUser(cctx, actorID, moduleID)

	if err != nil {
		RespondInternal(ctx, "Could not list progress")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"moduleId":  moduleID,
		"count":     len(recs),
		"completed": recs,
	})
}
