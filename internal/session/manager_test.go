package session

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"catalog_bot/internal/catalog"
	"catalog_bot/internal/model"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func newTestManager(t *testing.T) (*Manager, *fakeClock) {
	t.Helper()
	cat, err := catalog.New([]model.Item{
		{ID: "1", Name: "First", Category: "A"},
		{ID: "2", Name: "Second", Category: "B"},
	}, nil)
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManager(cat, nil)
	m.now = clock.now
	return m, clock
}

func TestGetReturnsSameSession(t *testing.T) {
	m, _ := newTestManager(t)

	a := m.Get(100)
	if _, err := a.SelectItem("1"); err != nil {
		t.Fatalf("select: %v", err)
	}

	if a != m.Get(100) {
		t.Error("expected the same controller for the same chat")
	}
	if m.Get(200).State().Screen != model.Browse {
		t.Error("sessions of different chats share state")
	}
	if diff := cmp.Diff(2, m.Len()); diff != "" {
		t.Errorf("session count (-want +got):\n%s", diff)
	}
}

func TestSweep(t *testing.T) {
	m, clock := newTestManager(t)

	m.Get(1)
	clock.t = clock.t.Add(20 * time.Minute)
	m.Get(2)
	clock.t = clock.t.Add(15 * time.Minute)

	if diff := cmp.Diff(1, m.Sweep(30*time.Minute)); diff != "" {
		t.Errorf("removed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(1, m.Len()); diff != "" {
		t.Errorf("remaining (-want +got):\n%s", diff)
	}

	// Touching a session keeps it alive.
	clock.t = clock.t.Add(10 * time.Minute)
	m.Get(2)
	clock.t = clock.t.Add(29 * time.Minute)
	if diff := cmp.Diff(0, m.Sweep(30*time.Minute)); diff != "" {
		t.Errorf("removed after touch (-want +got):\n%s", diff)
	}
}

func TestSetCatalogPropagates(t *testing.T) {
	m, _ := newTestManager(t)
	existing := m.Get(1)
	if err := existing.SetCategory("B"); err != nil {
		t.Fatalf("set category: %v", err)
	}

	next, err := catalog.New([]model.Item{{ID: "9", Name: "Ninth", Category: "C"}}, nil)
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	m.SetCatalog(next)

	if m.Catalog() != next {
		t.Error("manager catalog not replaced")
	}
	if diff := cmp.Diff([]model.Item{{ID: "9", Name: "Ninth", Category: "C"}}, existing.Visible()); diff != "" {
		t.Errorf("existing session (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(model.AllCategories, existing.State().Category); diff != "" {
		t.Errorf("category fallback (-want +got):\n%s", diff)
	}
	if m.Get(2).Catalog() != next {
		t.Error("new session got the old catalog")
	}
}

func TestSetCatalogNil(t *testing.T) {
	m, _ := newTestManager(t)
	existing := m.Get(1)
	if err := existing.SetCategory("B"); err != nil {
		t.Fatalf("set category: %v", err)
	}

	m.SetCatalog(nil)

	if m.Catalog() == nil {
		t.Fatal("manager catalog is nil")
	}
	if got := existing.Visible(); len(got) != 0 {
		t.Errorf("existing session: expected empty view, got %v", got)
	}
	if diff := cmp.Diff(model.AllCategories, existing.State().Category); diff != "" {
		t.Errorf("category fallback (-want +got):\n%s", diff)
	}
	if got := m.Get(2).Visible(); len(got) != 0 {
		t.Errorf("new session: expected empty view, got %v", got)
	}
}
