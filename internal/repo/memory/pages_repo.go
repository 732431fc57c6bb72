package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/learnstack/learnhub/internal/domain/module"
	"github.com/learnstack/learnhub/internal/domain/page"
)

// PagesRepo mirrors the postgres repo's concurrency and ordering
// semantics under a single mutex: conditional version bump on update,
// all-or-nothing reorder, contiguous positions after create/delete.
type PagesRepo struct {
	mu      sync.Mutex
	modules map[string]struct{}
	items   map[string]page.Page
}

func NewPagesRepo() *PagesRepo {
	return &PagesRepo{
		modules: make(map[string]struct{}),
		items:   make(map[string]page.Page),
	}
}

// RegisterModule marks a module id as existing, so list/create can tell
// an empty module apart from a missing one.
func (r *PagesRepo) RegisterModule(moduleID string) {
	r.mu.Lock()
	r.registerModule(moduleID)
	r.mu.Unlock()
}

func (r *PagesRepo) registerModule(moduleID string) {
	r.modules[moduleID] = struct{}{}
}

func (r *PagesRepo) dropModule(moduleID string) {
	delete(r.modules, moduleID)
}

func (r *PagesRepo) pagesOf(moduleID string) []page.Page {
	out := make([]page.Page, 0)
	for _, p := range r.items {
		if p.ModuleID == moduleID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Position < out[j].Position
	})
	return out
}

func (r *PagesRepo) countForModule(moduleID string) int {
	n := 0
	for _, p := range r.items {
		if p.ModuleID == moduleID {
			n++
		}
	}
	return n
}

func (r *PagesRepo) ListByModule(_ context.Context, moduleID string) ([]page.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.modules[moduleID]; !ok {
		return nil, module.ErrNotFound
	}

	return r.pagesOf(moduleID), nil
}

func (r *PagesRepo) Create(_ context.Context, req page.CreatePageRequest) (page.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.modules[req.ModuleID]; !ok {
		return page.Page{}, module.ErrNotFound
	}

	count := r.countForModule(req.ModuleID)
	position := count

	if req.Position != nil && *req.Position < count {
		position = *req.Position

		for id, p := range r.items {
			if p.ModuleID == req.ModuleID && p.Position >= position {
				p.Position++
				r.items[id] = p
			}
		}
	}

	created := page.NewFromCreateRequest(req, position)
	r.items[created.ID] = created

	return created, nil
}

func (r *PagesRepo) GetByID(_ context.Context, moduleID, pageID string) (page.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[pageID]
	if !ok || p.ModuleID != moduleID {
		return page.Page{}, page.ErrNotFound
	}
	return p, nil
}

func (r *PagesRepo) Update(_ context.Context, moduleID, pageID string, req page.UpdatePageRequest, expectedVersion int) (page.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[pageID]
	if !ok || p.ModuleID != moduleID {
		return page.Page{}, page.ErrNotFound
	}

	if p.Version != expectedVersion {
		return page.Page{}, page.ErrVersionConflict
	}

	if req.Type != nil {
		p.Type = *req.Type
	}
	if len(req.Content) > 0 {
		p.Content = req.Content
	}

	p.Version++
	p.UpdatedAt = time.Now().UTC()
	r.items[pageID] = p

	return p, nil
}

func (r *PagesRepo) Delete(_ context.Context, moduleID, pageID string) (page.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[pageID]
	if !ok || p.ModuleID != moduleID {
		return page.Page{}, page.ErrNotFound
	}

	delete(r.items, pageID)

	for id, other := range r.items {
		if other.ModuleID == moduleID && other.Position > p.Position {
			other.Position--
			r.items[id] = other
		}
	}

	return p, nil
}

func (r *PagesRepo) Reorder(_ context.Context, moduleID string, orderedPageIDs []string) ([]page.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.modules[moduleID]; !ok {
		return nil, module.ErrNotFound
	}

	current := make(map[string]struct{})
	for _, p := range r.pagesOf(moduleID) {
		current[p.ID] = struct{}{}
	}

	if len(orderedPageIDs) != len(current) {
		return nil, page.ErrOrderMismatch
	}

	seen := make(map[string]struct{}, len(orderedPageIDs))

	for _, id := range orderedPageIDs {
		if _, dup := seen[id]; dup {
			return nil, page.ErrOrderMismatch
		}
		seen[id] = struct{}{}

		if _, ok := current[id]; !ok {
			return nil, page.ErrOrderMismatch
		}
	}

	// validation passed; apply every position in one critical section

	now := time.Now().UTC()

	for idx, id := range orderedPageIDs {
		p := r.items[id]
		p.Position = idx
		p.UpdatedAt = now
		r.items[id] = p
	}

	return r.pagesOf(moduleID), nil
}

func (r *PagesRepo) CountForModule(_ context.Context, moduleID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.countForModule(moduleID), nil
}
