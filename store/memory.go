package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
)

// Memory is in-process Store. It backs dry runs and tests: failures can be
// injected per operation and concurrent fetches are tracked.
type Memory struct {
	mu     sync.Mutex
	pages  map[int]memPage
	nextID int

	// FetchHook, when set, is called before every fetch and its error is
	// returned as is.
	FetchHook func(ctx context.Context, id int) error
	// ListErr, CreateErr and DeleteErr are returned instead of performing the
	// operation when set.
	ListErr   error
	CreateErr error
	DeleteErr error
	// RejectCreate makes create respond with failure carrying this message.
	RejectCreate string

	inflight    atomic.Int32
	maxInflight atomic.Int32
	fetches     atomic.Int32
}

type memPage struct {
	ref     EntryRef
	content string
}

func NewMemory() *Memory {
	return &Memory{pages: make(map[int]memPage), nextID: 1}
}

// Put adds page and returns its reference.
func (m *Memory) Put(locale, path, title, content string) EntryRef {
	m.mu.Lock()
	defer m.mu.Unlock()
	ref := EntryRef{ID: m.nextID, Path: path, Title: title, Locale: locale}
	m.nextID++
	m.pages[ref.ID] = memPage{ref: ref, content: content}
	return ref
}

// Content returns stored page content.
func (m *Memory) Content(id int) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pages[id]
	return p.content, ok
}

// MaxInflight returns highest number of fetches observed running at once.
func (m *Memory) MaxInflight() int {
	return int(m.maxInflight.Load())
}

// Fetches returns number of fetch calls.
func (m *Memory) Fetches() int {
	return int(m.fetches.Load())
}

func (m *Memory) List(_ context.Context, limit int, order Order) ([]EntryRef, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.Lock()
	refs := make([]EntryRef, 0, len(m.pages))
	for _, p := range m.pages {
		refs = append(refs, p.ref)
	}
	m.mu.Unlock()

	slices.SortFunc(refs, func(a, b EntryRef) int {
		if order == OrderByPath {
			return cmp.Or(cmp.Compare(a.Path, b.Path), cmp.Compare(a.ID, b.ID))
		}
		return cmp.Or(cmp.Compare(a.Title, b.Title), cmp.Compare(a.ID, b.ID))
	})
	if limit > 0 && len(refs) > limit {
		refs = refs[:limit]
	}
	return refs, nil
}

func (m *Memory) Fetch(ctx context.Context, id int) (Page, error) {
	m.fetches.Add(1)
	cur := m.inflight.Add(1)
	defer m.inflight.Add(-1)
	for {
		seen := m.maxInflight.Load()
		if cur <= seen || m.maxInflight.CompareAndSwap(seen, cur) {
			break
		}
	}

	if m.FetchHook != nil {
		if err := m.FetchHook(ctx, id); err != nil {
			return Page{}, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pages[id]
	if !ok {
		return Page{}, fmt.Errorf("page %d: %w", id, ErrNotFound)
	}
	return Page{ID: p.ref.ID, Path: p.ref.Path, Title: p.ref.Title, Content: p.content}, nil
}

func (m *Memory) Create(_ context.Context, r CreateRequest) (CreateResult, error) {
	if m.CreateErr != nil {
		return CreateResult{}, m.CreateErr
	}
	if m.RejectCreate != "" {
		return CreateResult{Response: Response{ErrorCode: 6002, Slug: "PageCreationFailed", Message: m.RejectCreate}}, nil
	}

	m.mu.Lock()
	for _, p := range m.pages {
		if p.ref.Locale == r.Locale && p.ref.Path == r.Path {
			m.mu.Unlock()
			return CreateResult{Response: Response{ErrorCode: 6002, Slug: "PageDuplicateCreate", Message: "Cannot create this page because an entry already exists at the same path."}}, nil
		}
	}
	m.mu.Unlock()

	ref := m.Put(r.Locale, r.Path, r.Title, r.Content)
	return CreateResult{Response: Response{Succeeded: true, Slug: "success", Message: "Page created successfully."}, Page: &ref}, nil
}

func (m *Memory) Delete(_ context.Context, id int) (Response, error) {
	if m.DeleteErr != nil {
		return Response{}, m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pages[id]; !ok {
		return Response{ErrorCode: 6003, Slug: "PageNotFound", Message: "This page does not exist."}, nil
	}
	delete(m.pages, id)
	return Response{Succeeded: true, Slug: "success", Message: "Page has been deleted."}, nil
}
