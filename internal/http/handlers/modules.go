package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/learnstack/learnhub/internal/cache"
	"github.com/learnstack/learnhub/internal/config"
	"github.com/learnstack/learnhub/internal/domain/module"
	"github.com/learnstack/learnhub/internal/http/middlewares"
	"github.com/learnstack/learnhub/internal/utils"
)

type ModulesRepo interface {
	Create(ctx context.Context, m module.Module) (module.Module, error)
	GetByID(ctx context.Context, id string) (module.Module, error)
	ListCursor(ctx context.Context, filter module.ListFilter, afterID string) ([]module.Module, *string, error)
	Update(ctx context.Context, id string, req module.UpdateModuleRequest, actorID string) (module.Module, error)
	Delete(ctx context.Context, id string) error
}

type ModulesHandler struct {
	repo      ModulesRepo
	listCache *cache.Cache // may be nil
}

func NewModulesHandler(repo ModulesRepo, listCache *cache.Cache) *ModulesHandler {
	return &ModulesHandler{repo: repo, listCache: listCache}
}

type modulesListResponse struct {
	Modules    []module.Module       `json:"modules"`
	Pagination modulesListPagination `json:"pagination"`
}

type modulesListPagination struct {
	Limit      int     `json:"limit"`
	NextCursor *string `json:"nextCursor,omitempty"`
}

// GET /modules?limit=20&cursor=...&status=ACTIVE&search=intro
func (h *ModulesHandler) List(ctx *gin.Context) {
	limit := parseIntDefault(ctx.Query("limit"), 20)
	if limit < 1 || limit > 100 {
		RespondBadRequest(ctx, "invalid_query", "limit must be between 1 and 100")
		return
	}

	filter := module.ListFilter{Limit: limit}

	if status := ctx.Query("status"); status != "" {
		filter.Status = &status
	}
	if q := ctx.Query("search"); q != "" {
		filter.Query = &q
	}

	cursor := ctx.Query("cursor")
	afterID := ""

	if cursor != "" {
		cur, err := utils.DecodeModuleCursor(cursor)
		if err != nil {
			RespondBadRequest(ctx, "invalid_query", "cursor is invalid")
			return
		}
		afterID = cur.ID
	}

	cacheKey := utils.BuildModulesListCacheKey(limit, cursor, filter.Status, filter.Query)

	if h.listCache != nil {
		if cached, ok := h.listCache.Get(cacheKey); ok {
			if resp, ok := cached.(modulesListResponse); ok {
				ctx.JSON(http.StatusOK, resp)
				return
			}
		}
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	items, nextCursor, err := h.repo.ListCursor(cctx, filter, afterID)

	if err != nil {
		RespondInternal(ctx, "Could not list modules")
		return
	}

	resp := modulesListResponse{
		Modules: items,
		Pagination: modulesListPagination{
			Limit:      limit,
			NextCursor: nextCursor,
		},
	}

	if h.listCache != nil {
		h.listCache.Set(cacheKey, resp)
	}

	ctx.JSON(http.StatusOK, resp)
}

func (h *ModulesHandler) Get(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "invalid_id", "module id must be a valid UUID")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	m, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, module.ErrNotFound) {
			RespondNotFound(ctx, "Module not found")
			return
		}
		RespondInternal(ctx, "Could not fetch module")
		return
	}

	ctx.JSON(http.StatusOK, m)
}

// POST /modules (admin)
func (h *ModulesHandler) Create(ctx *gin.Context) {
	var req module.CreateModuleRequest

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

	m, err := h.repo.Create(cctx, module.NewFromCreateRequest(req, actorID))

	if err != nil {
		RespondInternal(ctx, "Could not create module")
		return
	}

	h.invalidateListCache()

	ctx.JSON(http.StatusCreated, m)
}

// PUT /modules/:id (admin) — full replacement, stamps updatedBy.
func (h *ModulesHandler) Update(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "invalid_id", "module id must be a valid UUID")
		return
	}

	var req module.UpdateModuleRequest

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

	m, err := h.repo.Update(cctx, id, req, actorID)

	if err != nil {
		if errors.Is(err, module.ErrNotFound) {
			RespondNotFound(ctx, "Module not found")
			return
		}
		RespondInternal(ctx, "Could not update module")
		return
	}

	h.invalidateListCache()

	ctx.JSON(http.StatusOK, m)
}

// DELETE /modules/:id (admin). Refused with 409 while pages exist.
func (h *ModulesHandler) Delete(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "invalid_id", "module id must be a valid UUID")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.repo.Delete(cctx, id)

	if err != nil {
		switch {
		case errors.Is(err, module.ErrNotFound):
			RespondNotFound(ctx, "Module not found")
		case errors.Is(err, module.ErrHasPages):
			RespondConflict(ctx, "module_has_pages", "Delete or move the module's pages first.")
		default:
			RespondInternal(ctx, "Could not delete module")
		}
		return
	}

	h.invalidateListCache()

	ctx.Status(http.StatusNoContent)
}

func (h *ModulesHandler) invalidateListCache() {
	if h.listCache != nil {
		h.listCache.Clear()
	}
}
