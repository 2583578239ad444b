// Package store holds per-session client state for API resources. Stores
// fetch through the services, convert responses to client case and only
// mutate local state once the server has confirmed an operation.
package store

import (
	"sync"

	"github.com/matrific/matrific-web/pkg/casing"
	appErrors "github.com/matrific/matrific-web/pkg/errors"
)

// collection is the shared list/selection state of a resource store.
type collection[T any] struct {
	mu       sync.RWMutex
	items    []T
	selected *T
	idOf     func(T) int
}

func newCollection[T any](idOf func(T) int) *collection[T] {
	return &collection[T]{idOf: idOf}
}

func (c *collection[T]) list() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

func (c *collection[T]) current() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.selected == nil {
		var zero T
		return zero, false
	}
	return *c.selected, true
}

func (c *collection[T]) replace(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
}

func (c *collection[T]) selectItem(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = &item
}

// upsert replaces the entity with the same id or appends it. A selected
// entity with that id is refreshed too.
func (c *collection[T]) upsert(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.idOf(item)
	replaced := false
	for i := range c.items {
		if c.idOf(c.items[i]) == id {
			c.items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		c.items = append(c.items, item)
	}
	if c.selected != nil && c.idOf(*c.selected) == id {
		c.selected = &item
	}
}

func (c *collection[T]) remove(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.items[:0:0]
	for _, item := range c.items {
		if c.idOf(item) != id {
			kept = append(kept, item)
		}
	}
	c.items = kept
	if c.selected != nil && c.idOf(*c.selected) == id {
		c.selected = nil
	}
}

func (c *collection[T]) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.selected = nil
}

// decodeOne converts a raw API response to client case and decodes it.
func decodeOne[T any](raw casing.Value) (T, error) {
	var out T
	if err := casing.Decode(casing.ToClientCase(raw), &out); err != nil {
		return out, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "unexpected API response")
	}
	return out, nil
}

// decodeList accepts either a plain array or a paginated {results: [...]}
// body.
func decodeList[T any](raw casing.Value) ([]T, error) {
	if raw.Kind() == casing.KindMapping {
		if results, ok := raw.Get("results"); ok {
			raw = results
		}
	}
	if raw.IsNull() {
		return []T{}, nil
	}
	out := make([]T, 0)
	if err := casing.Decode(casing.ToClientCase(raw), &out); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "unexpected API response")
	}
	return out, nil
}

// payloadOf lifts a tagged input struct into a client-case mapping.
func payloadOf(in interface{}) (casing.Value, error) {
	v, err := casing.FromStruct(in)
	if err != nil {
		return casing.Null(), appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode payload")
	}
	return v, nil
}
