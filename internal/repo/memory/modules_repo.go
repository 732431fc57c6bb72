package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/learnstack/learnhub/internal/domain/module"
	"github.com/learnstack/learnhub/internal/utils"
)

type ModulesRepo struct {
	mu    sync.RWMutex
	items map[string]module.Module
	pages *PagesRepo // page ownership check for delete, may be nil
}

func NewModulesRepo(pages *PagesRepo) *ModulesRepo {
	return &ModulesRepo{
		items: make(map[string]module.Module),
		pages: pages,
	}
}

func (r *ModulesRepo) Create(_ context.Context, m module.Module) (module.Module, error) {
	r.mu.Lock()
	r.items[m.ID] = m
	r.mu.Unlock()

	if r.pages != nil {
		r.pages.RegisterModule(m.ID)
	}

	return m, nil
}

func (r *ModulesRepo) GetByID(_ context.Context, id string) (module.Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.items[id]
	if !ok {
		return module.Module{}, module.ErrNotFound
	}
	return m, nil
}

func (r *ModulesRepo) ListCursor(_ context.Context, filter module.ListFilter, afterID string) ([]module.Module, *string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]module.Module, 0, len(r.items))

	for _, m := range r.items {
		if m.ID <= afterID {
			continue
		}
		if filter.Status != nil && m.Status != *filter.Status {
			continue
		}
		if filter.Query != nil {
			q := strings.ToLower(strings.TrimSpace(*filter.Query))
			if q != "" && !strings.Contains(strings.ToLower(m.Title), q) {
				continue
			}
		}
		matched = append(matched, m)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ID < matched[j].ID
	})

	var nextCursor *string

	if len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
		cur, err := utils.EncodeModuleCursor(matched[len(matched)-1].ID)
		if err != nil {
			return nil, nil, err
		}
		nextCursor = &cur
	}

	return matched, nextCursor, nil
}

func (r *ModulesRepo) Update(_ context.Context, id string, req module.UpdateModuleRequest, actorID string) (module.Module, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.items[id]
	if !ok {
		return module.Module{}, module.ErrNotFound
	}

	m.Title = req.Title
	m.Description = req.Description
	m.Status = req.Status
	m.UpdatedBy = actorID
	m.UpdatedAt = time.Now().UTC()
	r.items[id] = m

	return m, nil
}

// Delete never holds r.mu and the pages repo's mutex at the same time.
// The empty check and the deregistration share one pages critical
// section, so a page cannot be created in the module mid-delete.
func (r *ModulesRepo) Delete(_ context.Context, id string) error {
	r.mu.RLock()
	_, ok := r.items[id]
	r.mu.RUnlock()

	if !ok {
		return module.ErrNotFound
	}

	if r.pages != nil {
		r.pages.mu.Lock()
		if r.pages.countForModule(id) > 0 {
			r.pages.mu.Unlock()
			return module.ErrHasPages
		}
		r.pages.dropModule(id)
		r.pages.mu.Unlock()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return module.ErrNotFound
	}

	delete(r.items, id)

	return nil
}
