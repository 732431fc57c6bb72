package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/learnstack/learnhub/internal/config"
	"github.com/learnstack/learnhub/internal/domain/module"
	"github.com/learnstack/learnhub/internal/domain/page"
	"github.com/learnstack/learnhub/internal/utils"
)

// version token header for page updates; the payload "version" field is
// the fallback transport
const pageVersionHeader = "X-Page-Version"

type PagesRepo interface {
	ListByModule(ctx context.Context, moduleID string) ([]page.Page, error)
	Create(ctx context.Context, req page.CreatePageRequest) (page.Page, error)
	GetByID(ctx context.Context, moduleID, pageID string) (page.Page, error)
	Update(ctx context.Context, moduleID, pageID string, req page.UpdatePageRequest, expectedVersion int) (page.Page, error)
	Delete(ctx context.Context, moduleID, pageID string) (page.Page, error)
	Reorder(ctx context.Context, moduleID string, orderedPageIDs []string) ([]page.Page, error)
}

type PagesHandler struct {
	repo PagesRepo
}

func NewPagesHandler(repo PagesRepo) *PagesHandler {
	return &PagesHandler{repo: repo}
}

func pageIDs(ctx *gin.Context) (moduleID, pageID string, ok bool) {
	moduleID = ctx.Param("id")
	pageID = ctx.Param("pageId")

	if !utils.IsUUID(moduleID) {
		RespondBadRequest(ctx, "invalid_id", "module id must be a valid UUID")
		return "", "", false
	}
	if !utils.IsUUID(pageID) {
		RespondBadRequest(ctx, "invalid_id", "page id must be a valid UUID")
		return "", "", false
	}
	return moduleID, pageID, true
}

// GET /modules/:id/pages — position order, ETag-enabled.
func (h *PagesHandler) List(ctx *gin.Context) {
	moduleID := ctx.Param("id")

	if !utils.IsUUID(moduleID) {
		RespondBadRequest(ctx, "invalid_id", "module id must be a valid UUID")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	pages, err := h.repo.ListByModule(cctx, moduleID)

	if err != nil {
		if errors.Is(err, module.ErrNotFound) {
			RespondNotFound(ctx, "Module not found")
			return
		}
		RespondInternal(ctx, "Could not list pages")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"moduleId": moduleID,
		"count":    len(pages),
		"pages":    pages,
	})
}

// POST /modules/:id/pages (admin)
func (h *PagesHandler) Create(ctx *gin.Context) {
	moduleID := ctx.Param("id")

	if !utils.IsUUID(moduleID) {
		RespondBadRequest(ctx, "invalid_id", "module id must be a valid UUID")
		return
	}

	var req page.CreatePageRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// force URL param as the source of truth
	req.ModuleID = moduleID

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	p, err := h.repo.Create(cctx, req)

	if err != nil {
		if errors.Is(err, module.ErrNotFound) {
			RespondNotFound(ctx, "Module not found")
			return
		}
		RespondInternal(ctx, "Could not create page")
		return
	}

	ctx.JSON(http.StatusCreated, p)
}

// GET /modules/:id/pages/:pageId — a page under another module is a 404,
// never a leak.
func (h *PagesHandler) Get(ctx *gin.Context) {
	moduleID, pageID, ok := pageIDs(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	p, err := h.repo.GetByID(cctx, moduleID, pageID)

	if err != nil {
		if errors.Is(err, page.ErrNotFound) {
			RespondNotFound(ctx, "Page not found")
			return
		}
		RespondInternal(ctx, "Could not fetch page")
		return
	}

	ctx.JSON(http.StatusOK, p)
}

// PUT /modules/:id/pages/:pageId (admin) — guarded by the version token.
func (h *PagesHandler) Update(ctx *gin.Context) {
	moduleID, pageID, ok := pageIDs(ctx)
	if !ok {
		return
	}

	var req page.UpdatePageRequest

	if !BindJSON(ctx, &req) {
		return
	}

	expectedVersion := 0

	if raw := ctx.GetHeader(pageVersionHeader); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			RespondBadRequest(ctx, "invalid_version", pageVersionHeader+" must be a positive integer")
			return
		}
		expectedVersion = v
	} else if req.Version != nil {
		expectedVersion = *req.Version
	}

	if expectedVersion < 1 {
		RespondBadRequest(ctx, "missing_version", "supply the page version via "+pageVersionHeader+" or the version field")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	p, err := h.repo.Update(cctx, moduleID, pageID, req, expectedVersion)

	if err != nil {
		switch {
		case errors.Is(err, page.ErrNotFound):
			RespondNotFound(ctx, "Page not found")
		case errors.Is(err, page.ErrVersionConflict):
			RespondConflict(ctx, "version_conflict", "Page was modified since your last read. Re-fetch and retry.")
		default:
			RespondInternal(ctx, "Could not update page")
		}
		return
	}

	ctx.JSON(http.StatusOK, p)
}

// DELETE /modules/:id/pages/:pageId (admin)
func (h *PagesHandler) Delete(ctx *gin.Context) {
	moduleID, pageID, ok := pageIDs(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	p, err := h.repo.Delete(cctx, moduleID, pageID)

	if err != nil {
		if errors.Is(err, page.ErrNotFound) {
			RespondNotFound(ctx, "Page not found")
			return
		}
		RespondInternal(ctx, "Could not delete page")
		return
	}

	ctx.JSON(http.StatusOK, p)
}

// PATCH /modules/:id/pages/reorder (admin). The body carries the complete
// target ordering; a partial or padded set is rejected before any write.
func (h *PagesHandler) Reorder(ctx *gin.Context) {
	moduleID := ctx.Param("id")

	if !utils.IsUUID(moduleID) {
		RespondBadRequest(ctx, "invalid_id", "module id must be a valid UUID")
		return
	}

	var req page.ReorderRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	pages, err := h.repo.Reorder(cctx, moduleID, req.PageIDs)

	if err != nil {
		switch {
		case errors.Is(err, module.ErrNotFound):
			RespondNotFound(ctx, "Module not found")
		case errors.Is(err, page.ErrOrderMismatch):
			RespondBadRequest(ctx, "order_mismatch", "pageIds must contain each of the module's page ids exactly once")
		default:
			RespondInternal(ctx, "Could not reorder pages")
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"moduleId": moduleID,
		"pages":    pages,
	})
}
