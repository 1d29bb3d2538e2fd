// Package dirty tracks rows edited locally since the last flush.
package dirty

import (
	"sync"

	"github.com/fairyhunter13/product-catalog-editor/internal/model"
)

// Tracker maps record identity to the latest full edited row. It is
// independent of the authoritative snapshot and does no I/O.
type Tracker struct {
	mu    sync.RWMutex
	m     map[string]model.Product
	order []string
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{m: make(map[string]model.Product)}
}

// RecordEdit upserts the post-edit row by ID. A later edit replaces the
// earlier row wholesale.
func (t *Tracker) RecordEdit(p model.Product) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.m[p.ID]; !ok {
		t.order = append(t.order, p.ID)
	}
	t.m[p.ID] = p
}

// SnapshotAll returns a copy of every tracked row in first-edit order.
func (t *Tracker) SnapshotAll() []model.Product {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]model.Product, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.m[id])
	}
	return out
}

// Get returns the tracked row for id.
func (t *Tracker) Get(id string) (model.Product, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.m[id]
	return p, ok
}

// Len returns the number of tracked rows.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.m)
}

// Clear empties the tracker.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m = make(map[string]model.Product)
	t.order = nil
}
