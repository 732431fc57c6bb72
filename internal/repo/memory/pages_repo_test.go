package memory_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/learnstack/learnhub/internal/domain/module"
	"github.com/learnstack/learnhub/internal/domain/page"
	"github.com/learnstack/learnhub/internal/repo/memory"
)

func seedPage(t *testing.T, repo *memory.PagesRepo, moduleID string) page.Page {
	t.Helper()

	p, err := repo.Create(context.Background(), page.CreatePageRequest{
		ModuleID: moduleID,
		Type:     page.TypeContent,
		Content:  json.RawMessage(`{"body":"hello"}`),
	})
	if err != nil {
		t.Fatalf("seed page: %v", err)
	}

	return p
}

func TestPagesRepoCreateAssignsPositions(t *testing.T) {
	repo := memory.NewPagesRepo()
	moduleID := uuid.NewString()
	repo.RegisterModule(moduleID)

	first := seedPage(t, repo, moduleID)
	second := seedPage(t, repo, moduleID)

	if first.Position != 0 || second.Position != 1 {
		t.Fatalf("got positions %d, %d, want 0, 1", first.Position, second.Position)
	}
	if first.Version != 1 || second.Version != 1 {
		t.Fatalf("new pages must start at version 1")
	}
}

func TestPagesRepoCreateAtExplicitPosition(t *testing.T) {
	repo := memory.NewPagesRepo()
	moduleID := uuid.NewString()
	repo.RegisterModule(moduleID)

	a := seedPage(t, repo, moduleID)
	b := seedPage(t, repo, moduleID)

	pos := 0
	inserted, err := repo.Create(context.Background(), page.CreatePageRequest{
		ModuleID: moduleID,
		Type:     page.TypeQuiz,
		Position: &pos,
		Content:  json.RawMessage(`{"questions":[]}`),
	})
	if err != nil {
		t.Fatalf("create at position 0: %v", err)
	}
	if inserted.Position != 0 {
		t.Fatalf("got position %d, want 0", inserted.Position)
	}

	pages, err := repo.ListByModule(context.Background(), moduleID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	wantOrder := []string{inserted.ID, a.ID, b.ID}
	for i, p := range pages {
		if p.ID != wantOrder[i] {
			t.Fatalf("position %d holds %s, want %s", i, p.ID, wantOrder[i])
		}
		if p.Position != i {
			t.Fatalf("page %s has position %d, want %d", p.ID, p.Position, i)
		}
	}
}

func TestPagesRepoCreateUnknownModule(t *testing.T) {
	repo := memory.NewPagesRepo()

	_, err := repo.Create(context.Background(), page.CreatePageRequest{
		ModuleID: uuid.NewString(),
		Type:     page.TypeContent,
		Content:  json.RawMessage(`{}`),
	})
	if !errors.Is(err, module.ErrNotFound) {
		t.Fatalf("got %v, want module.ErrNotFound", err)
	}
}

func TestPagesRepoListUnknownModule(t *testing.T) {
	repo := memory.NewPagesRepo()

	_, err := repo.ListByModule(context.Background(), uuid.NewString())
	if !errors.Is(err, module.ErrNotFound) {
		t.Fatalf("got %v, want module.ErrNotFound", err)
	}
}

func TestPagesRepoGetScopedToModule(t *testing.T) {
	repo := memory.NewPagesRepo()
	moduleA := uuid.NewString()
	moduleB := uuid.NewString()
	repo.RegisterModule(moduleA)
	repo.RegisterModule(moduleB)

	p := seedPage(t, repo, moduleA)

	// the page exists, but not under module B
	_, err := repo.GetByID(context.Background(), moduleB, p.ID)
	if !errors.Is(err, page.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound for cross-module lookup", err)
	}
}

func TestPagesRepoUpdateVersionGuard(t *testing.T) {
	repo := memory.NewPagesRepo()
	moduleID := uuid.NewString()
	repo.RegisterModule(moduleID)

	p := seedPage(t, repo, moduleID)

	newType := page.TypeVideo
	updated, err := repo.Update(context.Background(), moduleID, p.ID, page.UpdatePageRequest{
		Type:    &newType,
		Content: json.RawMessage(`{"url":"https://example.com/v"}`),
	}, p.Version)
	if err != nil {
		t.Fatalf("update with the right version: %v", err)
	}
	if updated.Version != p.Version+1 {
		t.Fatalf("got version %d, want %d", updated.Version, p.Version+1)
	}

	// a second writer still holding version 1 must lose
	_, err = repo.Update(context.Background(), moduleID, p.ID, page.UpdatePageRequest{
		Content: json.RawMessage(`{"body":"late"}`),
	}, p.Version)
	if !errors.Is(err, page.ErrVersionConflict) {
		t.Fatalf("got %v, want ErrVersionConflict", err)
	}

	current, err := repo.GetByID(context.Background(), moduleID, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if current.Type != page.TypeVideo {
		t.Fatalf("losing writer overwrote the page: type=%s", current.Type)
	}
}

func TestPagesRepoConcurrentUpdateExactlyOneWins(t *testing.T) {
	repo := memory.NewPagesRepo()
	moduleID := uuid.NewString()
	repo.RegisterModule(moduleID)

	p := seedPage(t, repo, moduleID)

	const writers = 8

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, conflicts := 0, 0

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := repo.Update(context.Background(), moduleID, p.ID, page.UpdatePageRequest{
				Content: json.RawMessage(`{"body":"racing"}`),
			}, p.Version)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				wins++
			case errors.Is(err, page.ErrVersionConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	wg.Wait()

	if wins != 1 {
		t.Fatalf("got %d winners, want exactly 1", wins)
	}
	if conflicts != writers-1 {
		t.Fatalf("got %d conflicts, want %d", conflicts, writers-1)
	}

	current, err := repo.GetByID(context.Background(), moduleID, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if current.Version != p.Version+1 {
		t.Fatalf("got version %d, want a single bump to %d", current.Version, p.Version+1)
	}
}

func TestPagesRepoDeleteClosesGap(t *testing.T) {
	repo := memory.NewPagesRepo()
	moduleID := uuid.NewString()
	repo.RegisterModule(moduleID)

	a := seedPage(t, repo, moduleID)
	b := seedPage(t, repo, moduleID)
	c := seedPage(t, repo, moduleID)

	if _, err := repo.Delete(context.Background(), moduleID, b.ID); err != nil {
		t.Fatalf("delete middle page: %v", err)
	}

	pages, err := repo.ListByModule(context.Background(), moduleID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	if pages[0].ID != a.ID || pages[0].Position != 0 {
		t.Fatalf("first page wrong after delete: %+v", pages[0])
	}
	if pages[1].ID != c.ID || pages[1].Position != 1 {
		t.Fatalf("gap not closed: %+v", pages[1])
	}
}

func TestPagesRepoReorder(t *testing.T) {
	repo := memory.NewPagesRepo()
	moduleID := uuid.NewString()
	repo.RegisterModule(moduleID)

	p1 := seedPage(t, repo, moduleID)
	p2 := seedPage(t, repo, moduleID)
	p3 := seedPage(t, repo, moduleID)

	reordered, err := repo.Reorder(context.Background(), moduleID, []string{p3.ID, p1.ID, p2.ID})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}

	wantOrder := []string{p3.ID, p1.ID, p2.ID}
	for i, p := range reordered {
		if p.ID != wantOrder[i] {
			t.Fatalf("slot %d holds %s, want %s", i, p.ID, wantOrder[i])
		}
		if p.Position != i {
			t.Fatalf("page %s has position %d, want %d", p.ID, p.Position, i)
		}
	}
}

func TestPagesRepoReorderRejectsBadSets(t *testing.T) {
	repo := memory.NewPagesRepo()
	moduleID := uuid.NewString()
	repo.RegisterModule(moduleID)

	p1 := seedPage(t, repo, moduleID)
	p2 := seedPage(t, repo, moduleID)
	p3 := seedPage(t, repo, moduleID)

	tests := []struct {
		name string
		ids  []string
	}{
		{name: "missing_page", ids: []string{p1.ID, p2.ID}},
		{name: "duplicate_page", ids: []string{p1.ID, p1.ID, p2.ID}},
		{name: "foreign_page", ids: []string{p1.ID, p2.ID, uuid.NewString()}},
		{name: "extra_page", ids: []string{p1.ID, p2.ID, p3.ID, uuid.NewString()}},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Reorder(context.Background(), moduleID, tt.ids)
			if !errors.Is(err, page.ErrOrderMismatch) {
				t.Fatalf("got %v, want ErrOrderMismatch", err)
			}

			// nothing moved
			pages, err := repo.ListByModule(context.Background(), moduleID)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			want := []string{p1.ID, p2.ID, p3.ID}
			for i, p := range pages {
				if p.ID != want[i] {
					t.Fatalf("order changed after a rejected reorder: slot %d holds %s", i, p.ID)
				}
			}
		})
	}
}

func TestPagesRepoReorderUnknownModule(t *testing.T) {
	repo := memory.NewPagesRepo()

	_, err := repo.Reorder(context.Background(), uuid.NewString(), []string{uuid.NewString()})
	if !errors.Is(err, module.ErrNotFound) {
		t.Fatalf("got %v, want module.ErrNotFound", err)
	}
}
