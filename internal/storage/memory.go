package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryLink struct {
	Link
	seq uint64
}

// MemoryStorage keeps links and admins in process memory. It also serves as
// the in-memory index behind FileStorage.
type MemoryStorage struct {
	mu         sync.RWMutex
	byCode     map[string]*memoryLink
	byOriginal map[string]string
	admins     map[string]Admin
	seq        uint64
	now        func() time.Time
}

func CreateMemoryStorage() (*MemoryStorage, error) {
	return &MemoryStorage{
		byCode:     make(map[string]*memoryLink),
		byOriginal: make(map[string]string),
		admins:     make(map[string]Admin),
		now:        time.Now,
	}, nil
}

func (m *MemoryStorage) FindByOriginal(_ context.Context, original string) (*Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	code, ok := m.byOriginal[original]
	if !ok {
		return nil, ErrNotFound
	}
	l := m.byCode[code].Link
	return &l, nil
}

func (m *MemoryStorage) FindByCode(_ context.Context, code string) (*Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ml, ok := m.byCode[code]
	if !ok {
		return nil, ErrNotFound
	}
	l := ml.Link
	return &l, nil
}

func (m *MemoryStorage) Insert(_ context.Context, original, code string) (*Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byCode[code]; exists {
		return nil, ErrConflict
	}

	l := Link{Code: code, Original: original, CreatedAt: m.now().UTC()}
	m.put(l)
	return &l, nil
}

// put stores l without conflict checks. The first link seen for an original
// URL stays the answer of FindByOriginal. Caller holds m.mu.
func (m *MemoryStorage) put(l Link) {
	m.seq++
	m.byCode[l.Code] = &memoryLink{Link: l, seq: m.seq}
	if _, ok := m.byOriginal[l.Original]; !ok {
		m.byOriginal[l.Original] = l.Code
	}
}

func (m *MemoryStorage) IncrementClicks(_ context.Context, code string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ml, ok := m.byCode[code]
	if !ok {
		return 0, ErrNotFound
	}
	ml.Clicks++
	return ml.Clicks, nil
}

// ListAll returns every link, newest first.
func (m *MemoryStorage) ListAll(_ context.Context) ([]Link, error) {
	m.mu.RLock()
	all := make([]memoryLink, 0, len(m.byCode))
	for _, ml := range m.byCode {
		all = append(all, *ml)
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].seq > all[j].seq
	})

	links := make([]Link, len(all))
	for i, ml := range all {
		links[i] = ml.Link
	}
	return links, nil
}

func (m *MemoryStorage) FindAdmin(_ context.Context, username string) (*Admin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.admins[username]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m *MemoryStorage) CreateAdmin(_ context.Context, a Admin) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.admins[a.Username]; exists {
		return ErrConflict
	}
	m.admins[a.Username] = a
	return nil
}

func (m *MemoryStorage) PingContext(_ context.Context) error {
	return nil
}
