package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fjod/go_food/internal/cache"
	"github.com/fjod/go_food/internal/domain"
)

type mockMenuRepo struct {
	m       sync.Mutex
	items   map[int64]domain.MenuItem
	nextID  int64
	created []domain.MenuItem
	updated []domain.MenuItem

	getErr    error
	createErr error
	updateErr error
	deleteErr error

	getCalls int
}

func newMockMenuRepo() *mockMenuRepo {
	return &mockMenuRepo{items: map[int64]domain.MenuItem{}, nextID: 1}
}

func (m *mockMenuRepo) ListMenuItems(context.Context) ([]domain.MenuItem, error) {
	m.m.Lock()
	defer m.m.Unlock()
	var out []domain.MenuItem
	for _, it := range m.items {
		out = append(out, it)
	}
	return out, nil
}

func (m *mockMenuRepo) GetMenuItem(_ context.Context, id int64) (*domain.MenuItem, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.getCalls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	it, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("menu item not found: id %d", id)
	}
	return &it, nil
}

func (m *mockMenuRepo) CreateMenuItem(_ context.Context, item *domain.MenuItem) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	item.ID = m.nextID
	m.nextID++
	m.items[item.ID] = *item
	m.created = append(m.created, *item)
	return nil
}

// UpdateMenuItem mirrors the repository contract: an empty image keeps the
// stored handle, and the handle stored before the update is returned.
func (m *mockMenuRepo) UpdateMenuItem(_ context.Context, item *domain.MenuItem) (string, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.updateErr != nil {
		return "", m.updateErr
	}
	stored, ok := m.items[item.ID]
	if !ok {
		return "", fmt.Errorf("menu item not found: id %d", item.ID)
	}
	prev := stored.Image
	if item.Image == "" {
		item.Image = prev
	}
	m.items[item.ID] = *item
	m.updated = append(m.updated, *item)
	return prev, nil
}

func (m *mockMenuRepo) DeleteMenuItem(_ context.Context, id int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.items, id)
	return nil
}

func (m *mockMenuRepo) getMenuItemCalls() int {
	m.m.Lock()
	defer m.m.Unlock()
	return m.getCalls
}

type mockCache struct {
	m           sync.Mutex
	entries     map[string][]byte
	invalidated []string
	err         error
}

func newMockCache() *mockCache {
	return &mockCache{entries: map[string][]byte{}}
}

func (m *mockCache) Get(_ context.Context, key string) ([]byte, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	data, ok := m.entries[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return data, nil
}

func (m *mockCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries[key] = value
	return nil
}

func (m *mockCache) DeleteByPrefix(_ context.Context, prefix string) (int, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.invalidated = append(m.invalidated, prefix)
	if m.err != nil {
		return 0, m.err
	}
	n := 0
	for k := range m.entries {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(m.entries, k)
			n++
		}
	}
	return n, nil
}

func (m *mockCache) invalidations() []string {
	m.m.Lock()
	defer m.m.Unlock()
	return append([]string(nil), m.invalidated...)
}

type mockFileStore struct {
	m       sync.Mutex
	files   map[string]struct{}
	saved   []string
	deleted []string
	nextN   int

	saveErr   error
	deleteErr error
}

func newMockFileStore() *mockFileStore {
	return &mockFileStore{files: map[string]struct{}{}}
}

func (m *mockFileStore) Save(_ io.Reader, originalName string) (string, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.saveErr != nil {
		return "", m.saveErr
	}
	m.nextN++
	handle := fmt.Sprintf("file-%d-%s", m.nextN, originalName)
	m.files[handle] = struct{}{}
	m.saved = append(m.saved, handle)
	return handle, nil
}

func (m *mockFileStore) Delete(handle string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.files, handle)
	m.deleted = append(m.deleted, handle)
	return nil
}

func (m *mockFileStore) List() ([]string, error) {
	m.m.Lock()
	defer m.m.Unlock()
	var out []string
	for f := range m.files {
		out = append(out, f)
	}
	return out, nil
}

func (m *mockFileStore) has(handle string) bool {
	m.m.Lock()
	defer m.m.Unlock()
	_, ok := m.files[handle]
	return ok
}

type mockOrderRepo struct {
	m       sync.Mutex
	calls   int
	created *domain.Order
	orders  []domain.Order
	err     error
}

func (m *mockOrderRepo) CreateOrder(_ context.Context, userID string, items []domain.OrderRequestItem) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.created, nil
}

func (m *mockOrderRepo) ListOrdersByUserID(_ context.Context, userID string) ([]domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) createCalls() int {
	m.m.Lock()
	defer m.m.Unlock()
	return m.calls
}
