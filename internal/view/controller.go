// Package view implements the browse/capture state machine of a browsing
// session.
package view

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"catalog_bot/internal/catalog"
	"catalog_bot/internal/filter"
	"catalog_bot/internal/model"
)

// Errors returned for events that do not apply to the current state.
// None of them change the state.
var (
	ErrNotBrowsing     = errors.New("not on the browse screen")
	ErrNotCapturing    = errors.New("not on the capture screen")
	ErrUnknownItem     = errors.New("unknown item")
	ErrUnknownCategory = errors.New("unknown category")
	ErrUnknownMethod   = errors.New("unknown contact method")
)

// ContactValues holds what the visitor typed for each contact method.
type ContactValues struct {
	Name  string
	Phone string
}

// Get returns the value entered for m.
func (v ContactValues) Get(m model.ContactMethod) string {
	if m == model.ByPhone {
		return v.Phone
	}
	return v.Name
}

func (v *ContactValues) set(m model.ContactMethod, s string) {
	if m == model.ByPhone {
		v.Phone = s
		return
	}
	v.Name = s
}

// State is a snapshot of a browsing session. Target is non-nil exactly when
// Screen is model.Capture.
type State struct {
	Screen   model.Screen
	Category string
	Query    string
	Target   *model.Item
	Method   model.ContactMethod
	Values   ContactValues
}

// Controller owns the State of one browsing session. Every method runs as a
// single transition under the controller's lock, so events are handled one
// at a time and to completion. Observers are notified while the lock is held
// and must not call back into the controller.
type Controller struct {
	mu      sync.Mutex
	catalog *catalog.Catalog
	state   State
	obs     Observer
	now     func() time.Time
}

// New creates a controller on the browse screen showing every category.
// obs may be nil.
func New(cat *catalog.Catalog, obs Observer) *Controller {
	if cat == nil {
		cat = catalog.Empty()
	}
	return &Controller{
		catalog: cat,
		state: State{
			Screen:   model.Browse,
			Category: model.AllCategories,
			Method:   model.ByName,
		},
		obs: obs,
		now: time.Now,
	}
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	if s.Target != nil {
		t := *s.Target
		s.Target = &t
	}
	return s
}

// Catalog returns the catalog snapshot the controller is browsing.
func (c *Controller) Catalog() *catalog.Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.catalog
}

// SetCatalog swaps in a new catalog snapshot. A selected category that no
// longer exists falls back to All. A capture in progress keeps its target.
func (c *Controller) SetCatalog(cat *catalog.Catalog) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cat == nil {
		cat = catalog.Empty()
	}
	c.catalog = cat
	if !cat.HasCategory(c.state.Category) {
		c.state.Category = model.AllCategories
	}
}

// Visible returns the items that pass the current category and query.
func (c *Controller) Visible() []model.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return filter.Apply(c.catalog.Items(), c.state.Category, c.state.Query)
}

// SetCategory selects the category filter.
func (c *Controller) SetCategory(category string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.catalog.HasCategory(category) {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	c.state.Category = category
	return nil
}

// SetQuery sets the free-text search query. The query is stored verbatim.
func (c *Controller) SetQuery(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Query = query
}

// SelectItem moves from browse to capture with the given item as target.
// Any item in the catalog is accepted, visible or not.
func (c *Controller) SelectItem(id string) (model.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Screen != model.Browse {
		return model.Item{}, ErrNotBrowsing
	}
	item, ok := c.catalog.Item(id)
	if !ok {
		return model.Item{}, fmt.Errorf("%w: %q", ErrUnknownItem, id)
	}

	c.state.Screen = model.Capture
	c.state.Target = &item
	c.resetForm()
	return item, nil
}

// SetContactMethod switches the required contact field. Values typed for the
// other method are kept.
func (c *Controller) SetContactMethod(m model.ContactMethod) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Screen != model.Capture {
		return ErrNotCapturing
	}
	if m != model.ByName && m != model.ByPhone {
		return fmt.Errorf("%w: %q", ErrUnknownMethod, m)
	}
	c.state.Method = m
	return nil
}

// SetContactValue stores v for the current contact method.
func (c *Controller) SetContactValue(v string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Screen != model.Capture {
		return ErrNotCapturing
	}
	c.state.Values.set(c.state.Method, v)
	return nil
}

// Submit validates the capture form. On success it returns the capture
// event and goes back to browse with the form cleared. When the required
// field is blank it returns a *ValidationError and stays on capture.
func (c *Controller) Submit() (model.CaptureEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Screen != model.Capture {
		return model.CaptureEvent{}, ErrNotCapturing
	}

	target := *c.state.Target
	method := c.state.Method
	value := strings.TrimSpace(c.state.Values.Get(method))

	if value == "" {
		verr := &ValidationError{Method: method}
		if c.obs != nil {
			c.obs.ValidationFailed(target, verr)
		}
		return model.CaptureEvent{}, verr
	}

	ev := model.CaptureEvent{
		ID:       uuid.NewString(),
		ItemID:   target.ID,
		ItemName: target.Name,
		Method:   method,
		Value:    value,
		At:       c.now().UTC(),
	}
	if c.obs != nil {
		c.obs.CaptureAccepted(ev)
	}

	c.state.Screen = model.Browse
	c.state.Target = nil
	c.resetForm()
	return ev, nil
}

// Cancel leaves the capture screen and clears the form. On the browse
// screen it does nothing.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Screen != model.Capture {
		return
	}
	c.state.Screen = model.Browse
	c.state.Target = nil
	c.resetForm()
}

func (c *Controller) resetForm() {
	c.state.Method = model.ByName
	c.state.Values = ContactValues{}
}
