// Package session keeps one view controller per chat.
package session

import (
	"sync"
	"time"

	"catalog_bot/internal/catalog"
	"catalog_bot/internal/view"
)

type entry struct {
	ctrl     *view.Controller
	lastSeen time.Time
}

// Manager maps chat IDs to browsing sessions. Sessions are created on first
// use and live only in memory.
type Manager struct {
	mu       sync.Mutex
	catalog  *catalog.Catalog
	obs      view.Observer
	sessions map[int64]*entry
	now      func() time.Time
}

// NewManager creates a Manager whose sessions browse cat and report signals
// to obs. obs may be nil.
func NewManager(cat *catalog.Catalog, obs view.Observer) *Manager {
	if cat == nil {
		cat = catalog.Empty()
	}
	return &Manager{
		catalog:  cat,
		obs:      obs,
		sessions: make(map[int64]*entry),
		now:      time.Now,
	}
}

// Get returns the session of chatID, creating it if needed, and marks it as
// active.
func (m *Manager) Get(chatID int64) *view.Controller {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[chatID]
	if !ok {
		e = &entry{ctrl: view.New(m.catalog, m.obs)}
		m.sessions[chatID] = e
	}
	e.lastSeen = m.now()
	return e.ctrl
}

// Catalog returns the current catalog snapshot.
func (m *Manager) Catalog() *catalog.Catalog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.catalog
}

// SetCatalog installs a new snapshot for new and existing sessions.
func (m *Manager) SetCatalog(cat *catalog.Catalog) {
	if cat == nil {
		cat = catalog.Empty()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.catalog = cat
	for _, e := range m.sessions {
		e.ctrl.SetCatalog(cat)
	}
}

// Sweep ends sessions that have been idle for longer than idle and returns
// how many were removed.
func (m *Manager) Sweep(idle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-idle)
	removed := 0
	for id, e := range m.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
