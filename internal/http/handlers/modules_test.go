package handlers_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/learnstack/learnhub/internal/cache"
	"github.com/learnstack/learnhub/internal/domain/module"
	"github.com/learnstack/learnhub/internal/http/handlers"
	"github.com/learnstack/learnhub/internal/identity"
	"github.com/learnstack/learnhub/internal/utils"
)

// fake of the handlers.ModulesRepo interface

type fakeModulesRepo struct {
	createFn     func(ctx context.Context, m module.Module) (module.Module, error)
	getFn        func(ctx context.Context, id string) (module.Module, error)
	listCursorFn func(ctx context.Context, filter module.ListFilter, afterID string) ([]module.Module, *string, error)
	updateFn     func(ctx context.Context, id string, req module.UpdateModuleRequest, actorID string) (module.Module, error)
	deleteFn     func(ctx context.Context, id string) error
}

func (f *fakeModulesRepo) Create(ctx context.Context, m module.Module) (module.Module, error) {
	if f.createFn != nil {
		return f.createFn(ctx, m)
	}
	return m, nil
}

func (f *fakeModulesRepo) GetByID(ctx context.Context, id string) (module.Module, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return module.Module{}, nil
}

func (f *fakeModulesRepo) ListCursor(ctx context.Context, filter module.ListFilter, afterID string) ([]module.Module, *string, error) {
	if f.listCursorFn != nil {
		return f.listCursorFn(ctx, filter, afterID)
	}
	return []module.Module{}, nil, nil
}

func (f *fakeModulesRepo) Update(ctx context.Context, id string, req module.UpdateModuleRequest, actorID string) (module.Module, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, req, actorID)
	}
	return module.Module{}, nil
}

func (f *fakeModulesRepo) Delete(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

func TestListModulesHandler(t *testing.T) {
	now := time.Now().UTC()

	validCursor, err := utils.EncodeModuleCursor(newUUID())
	if err != nil {
		t.Fatalf("build cursor: %v", err)
	}

	tests := []struct {
		name           string
		url            string
		repoSetup      func(*fakeModulesRepo)
		wantStatusCode int
	}{
		{
			name: "success_first_page",
			url:  "/modules?limit=20",
			repoSetup: func(f *fakeModulesRepo) {
				f.listCursorFn = func(ctx context.Context, filter module.ListFilter, afterID string) ([]module.Module, *string, error) {
					if afterID != "" {
						return nil, nil, errors.New("afterID must be empty without a cursor")
					}
					next := "next-cursor"
					return []module.Module{
						{ID: newUUID(), Title: "Intro to Go", Status: module.StatusActive, CreatedAt: now, UpdatedAt: now},
					}, &next, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "success_with_cursor",
			url:  "/modules?limit=20&cursor=" + validCursor,
			repoSetup: func(f *fakeModulesRepo) {
				f.listCursorFn = func(ctx context.Context, filter module.ListFilter, afterID string) ([]module.Module, *string, error) {
					if afterID == "" {
						return nil, nil, errors.New("afterID not decoded from cursor")
					}
					return []module.Module{}, nil, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "status_filter_passed_through",
			url:  "/modules?status=DRAFT",
			repoSetup: func(f *fakeModulesRepo) {
				f.listCursorFn = func(ctx context.Context, filter module.ListFilter, afterID string) ([]module.Module, *string, error) {
					if filter.Status == nil || *filter.Status != module.StatusDraft {
						return nil, nil, errors.New("status filter not passed")
					}
					return []module.Module{}, nil, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "invalid_cursor",
			url:            "/modules?cursor=!!!",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "invalid_limit",
			url:            "/modules?limit=0",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "repo_error",
			url:  "/modules",
			repoSetup: func(f *fakeModulesRepo) {
				f.listCursorFn = func(ctx context.Context, filter module.ListFilter, afterID string) ([]module.Module, *string, error) {
					return nil, nil, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fakeRepo := &fakeModulesRepo{}
			if tt.repoSetup != nil {
				tt.repoSetup(fakeRepo)
			}

			h := handlers.NewModulesHandler(fakeRepo, nil)
			r := setupRouter(http.MethodGet, "/modules", h.List)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestListModulesHandlerCacheHit(t *testing.T) {
	fakeRepo := &fakeModulesRepo{}
	calls := 0

	fakeRepo.listCursorFn = func(ctx context.Context, filter module.ListFilter, afterID string) ([]module.Module, *string, error) {
		calls++
		return []module.Module{
			{ID: newUUID(), Title: "Cached Module", Status: module.StatusActive},
		}, nil, nil
	}

	h := handlers.NewModulesHandler(fakeRepo, cache.New(30*time.Second))
	r := setupRouter(http.MethodGet, "/modules", h.List)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/modules?limit=20", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("call %d got %d, body=%s", i+1, w.Code, w.Body.String())
		}
	}

	if calls != 1 {
		t.Fatalf("expected repo calls=1 due cache hit, got %d", calls)
	}
}

func TestCreateModuleHandler(t *testing.T) {
	actorID := newUUID()
	caller := identity.Identity{UserID: actorID, Email: "admin@example.com", Name: "Admin"}

	tests := []struct {
		name           string
		body           string
		repoSetup      func(*fakeModulesRepo)
		wantStatusCode int
	}{
		{
			name: "success_defaults_to_draft",
			body: `{"title": "Concurrency Patterns"}`,
			repoSetup: func(f *fakeModulesRepo) {
				f.createFn = func(ctx context.Context, m module.Module) (module.Module, error) {
					if m.Status != module.StatusDraft {
						return module.Module{}, errors.New("status default not applied")
					}
					if m.CreatedBy != actorID {
						return module.Module{}, errors.New("createdBy not stamped")
					}
					return m, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "title_too_short",
			body:           `{"title": "ab"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "bad_status",
			body:           `{"title": "Valid Title", "status": "LIVE"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "repo_error",
			body: `{"title": "Valid Title"}`,
			repoSetup: func(f *fakeModulesRepo) {
				f.createFn = func(ctx context.Context, m module.Module) (module.Module, error) {
					return module.Module{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fakeRepo := &fakeModulesRepo{}
			if tt.repoSetup != nil {
				tt.repoSetup(fakeRepo)
			}

			h := handlers.NewModulesHandler(fakeRepo, nil)
			r := setupAuthedRouter(http.MethodPost, "/modules", h.Create, caller, &fakeUsersRepo{})

			req := httptest.NewRequest(http.MethodPost, "/modules", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer test-token")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestUpdateModuleHandler(t *testing.T) {
	actorID := newUUID()
	caller := identity.Identity{UserID: actorID, Email: "admin@example.com", Name: "Admin"}
	validID := newUUID()

	tests := []struct {
		name           string
		url            string
		body           string
		repoSetup      func(*fakeModulesRepo)
		wantStatusCode int
	}{
		{
			name: "success_stamps_updated_by",
			url:  "/modules/" + validID,
			body: `{"title": "Updated Title", "status": "ACTIVE"}`,
			repoSetup: func(f *fakeModulesRepo) {
				f.updateFn = func(ctx context.Context, id string, req module.UpdateModuleRequest, actor string) (module.Module, error) {
					if actor != actorID {
						return module.Module{}, errors.New("actor not passed to repo")
					}
					return module.Module{ID: id, Title: req.Title, Status: req.Status, UpdatedBy: actor}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "missing_status",
			url:            "/modules/" + validID,
			body:           `{"title": "Updated Title"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "invalid_id",
			url:            "/modules/not-a-uuid",
			body:           `{"title": "Updated Title", "status": "ACTIVE"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "not_found",
			url:  "/modules/" + validID,
			body: `{"title": "Updated Title", "status": "ACTIVE"}`,
			repoSetup: func(f *fakeModulesRepo) {
				f.updateFn = func(ctx context.Context, id string, req module.UpdateModuleRequest, actor string) (module.Module, error) {
					return module.Module{}, module.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fakeRepo := &fakeModulesRepo{}
			if tt.repoSetup != nil {
				tt.repoSetup(fakeRepo)
			}

			h := handlers.NewModulesHandler(fakeRepo, nil)
			r := setupAuthedRouter(http.MethodPut, "/modules/:id", h.Update, caller, &fakeUsersRepo{})

			req := httptest.NewRequest(http.MethodPut, tt.url, bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer test-token")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestDeleteModuleHandler(t *testing.T) {
	validID := newUUID()

	tests := []struct {
		name           string
		url            string
		repoSetup      func(*fakeModulesRepo)
		wantStatusCode int
	}{
		{
			name: "success",
			url:  "/modules/" + validID,
			repoSetup: func(f *fakeModulesRepo) {
				f.deleteFn = func(ctx context.Context, id string) error { return nil }
			},
			wantStatusCode: http.StatusNoContent,
		},
		{
			name: "blocked_while_pages_exist",
			url:  "/modules/" + validID,
			repoSetup: func(f *fakeModulesRepo) {
				f.deleteFn = func(ctx context.Context, id string) error { return module.ErrHasPages }
			},
			wantStatusCode: http.StatusConflict,
		},
		{
			name: "not_found",
			url:  "/modules/" + validID,
			repoSetup: func(f *fakeModulesRepo) {
				f.deleteFn = func(ctx context.Context, id string) error { return module.ErrNotFound }
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "invalid_id",
			url:            "/modules/not-a-uuid",
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fakeRepo := &fakeModulesRepo{}
			if tt.repoSetup != nil {
				tt.repoSetup(fakeRepo)
			}

			h := handlers.NewModulesHandler(fakeRepo, nil)
			r := setupRouter(http.MethodDelete, "/modules/:id", h.Delete)

			req := httptest.NewRequest(http.MethodDelete, tt.url, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}
