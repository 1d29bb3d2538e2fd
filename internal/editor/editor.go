// Package editor implements the catalog editor: it owns the authoritative
// snapshot of the catalog, the set of locally edited rows and the draft of a
// new product, and drives the load, flush, create and delete flows against
// the catalog service.
//
// The snapshot only changes at flow completion points, under the editor's
// lock. Network calls never hold the lock, so flows of different kinds may
// overlap; the same flow for the same target may not.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fairyhunter13/product-catalog-editor/internal/catalog"
	"github.com/fairyhunter13/product-catalog-editor/internal/dirty"
	"github.com/fairyhunter13/product-catalog-editor/internal/grid"
	"github.com/fairyhunter13/product-catalog-editor/internal/model"
	"github.com/fairyhunter13/product-catalog-editor/internal/notify"
	"github.com/fairyhunter13/product-catalog-editor/internal/obs"
)

// Flow names, used in notices and metrics.
const (
	FlowLoad   = "load"
	FlowEdit   = "edit"
	FlowFlush  = "flush"
	FlowCreate = "create"
	FlowDelete = "delete"
	FlowAction = "action"
)

var (
	// ErrInFlight is returned when a flow is started again for the same
	// target before the previous run completed.
	ErrInFlight = errors.New("already in progress")
	// ErrPendingEdits is returned by a non-forced reload while edits are
	// waiting to be flushed.
	ErrPendingEdits = errors.New("unflushed edits pending")
)

// Notifier receives the operator-visible outcome of every flow.
type Notifier interface {
	Notify(notify.Notice)
}

type discard struct{}

func (discard) Notify(notify.Notice) {}

// Options configure an Editor.
type Options struct {
	Notifier Notifier
	// FlushConcurrency bounds parallel updates during a flush. 1 keeps the
	// batch strictly sequential in edit order.
	FlushConcurrency int
	Logger           *slog.Logger
}

// Editor is the catalog editor of one operator session. Cancelling the
// context of a flow does not abort a catalog call already sent.
type Editor struct {
	client  catalog.Client
	cred    catalog.Credential
	notes   Notifier
	workers int
	log     *slog.Logger
	dirty   *dirty.Tracker

	mu       sync.Mutex
	rows     []model.Product
	loaded   bool
	draft    model.Draft
	loading  bool
	flushing bool
	creating bool
	deleting map[string]struct{}
}

// New returns an Editor acting with cred against client. Call Load to fetch
// the catalog.
func New(client catalog.Client, cred catalog.Credential, opts Options) *Editor {
	if opts.Notifier == nil {
		opts.Notifier = discard{}
	}
	if opts.FlushConcurrency <= 0 {
		opts.FlushConcurrency = 1
	}
	if opts.Logger == nil {
		opts.Logger = obs.Logger
	}
	return &Editor{
		client:   client,
		cred:     cred,
		notes:    opts.Notifier,
		workers:  opts.FlushConcurrency,
		log:      opts.Logger,
		dirty:    dirty.New(),
		deleting: make(map[string]struct{}),
	}
}

// Status is a point-in-time view of the editor.
type Status struct {
	Rows     int      `json:"rows"`
	Dirty    int      `json:"dirty"`
	Loaded   bool     `json:"loaded"`
	Loading  bool     `json:"loading"`
	Flushing bool     `json:"flushing"`
	Creating bool     `json:"creating"`
	Deleting []string `json:"deleting"`
}

// Status reports snapshot sizes and which flows are in flight.
func (e *Editor) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := Status{
		Rows:     len(e.rows),
		Dirty:    e.dirty.Len(),
		Loaded:   e.loaded,
		Loading:  e.loading,
		Flushing: e.flushing,
		Creating: e.creating,
		Deleting: make([]string, 0, len(e.deleting)),
	}
	for id := range e.deleting {
		st.Deleting = append(st.Deleting, id)
	}
	return st
}

// Rows returns a copy of the authoritative snapshot.
func (e *Editor) Rows() []model.Product {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.Product{}, e.rows...)
}

// Dirty returns the rows edited since the last flush.
func (e *Editor) Dirty() []model.Product { return e.dirty.SnapshotAll() }

// RecordEdit captures a cell edit. p is the full row after the edit. The
// snapshot is left untouched until a flush confirms the row.
func (e *Editor) RecordEdit(p model.Product) error {
	if p.ID == "" {
		err := errors.New("edited row has no id")
		e.reject(FlowEdit, "Edit ignored", err)
		return err
	}
	e.dirty.RecordEdit(p)
	e.log.Debug("row_edited", "id", p.ID, "dirty", e.dirty.Len())
	return nil
}

// Draft returns the new-product form state.
func (e *Editor) Draft() model.Draft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

// SetDraftField binds one form input.
func (e *Editor) SetDraftField(field, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft.Set(field, value)
}

// SetDraft replaces the whole form state.
func (e *Editor) SetDraft(d model.Draft) {
	e.mu.Lock()
	e.draft = d
	e.mu.Unlock()
}

// Load fetches the catalog and replaces the snapshot. On failure the snapshot
// is emptied so the grid never shows stale rows.
//
// While edits are pending Load refuses with ErrPendingEdits unless force is
// set, in which case the pending edits are discarded.
func (e *Editor) Load(ctx context.Context, force bool) error {
	if err := e.begin(FlowLoad, &e.loading); err != nil {
		return err
	}
	defer e.end(&e.loading)

	if n := e.dirty.Len(); n > 0 {
		if !force {
			e.reject(FlowLoad, fmt.Sprintf("%d edited products are not saved yet", n), ErrPendingEdits)
			return ErrPendingEdits
		}
		e.dirty.Clear()
		e.log.Info("pending_edits_discarded", "count", n)
	}

	rows, err := e.client.List(context.WithoutCancel(ctx))
	if err != nil {
		e.mu.Lock()
		e.rows = nil
		e.loaded = false
		e.mu.Unlock()
		e.fail(FlowLoad, "Could not load products", err)
		return err
	}
	rows = e.dedupe(rows)
	e.mu.Lock()
	e.rows = rows
	e.loaded = true
	e.mu.Unlock()
	e.succeed(FlowLoad, fmt.Sprintf("Loaded %d products", len(rows)))
	return nil
}

// dedupe keeps the first row of every identity.
func (e *Editor) dedupe(rows []model.Product) []model.Product {
	seen := make(map[string]struct{}, len(rows))
	out := make([]model.Product, 0, len(rows))
	for _, r := range rows {
		if _, ok := seen[r.ID]; ok {
			e.log.Warn("duplicate_product_dropped", "id", r.ID)
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Create submits the draft. Blank required fields fail locally with
// catalog.ErrValidation and no call is made. On success the created record is
// appended and the draft is reset, unless it was edited while the call was
// out; on failure the draft is kept.
func (e *Editor) Create(ctx context.Context) (model.Product, error) {
	if err := e.begin(FlowCreate, &e.creating); err != nil {
		return model.Product{}, err
	}
	defer e.end(&e.creating)

	submitted := e.Draft()
	p, err := submitted.Product()
	if err != nil {
		err = fmt.Errorf("%w: %w", catalog.ErrValidation, err)
		e.fail(FlowCreate, "Please complete all required fields", err)
		return model.Product{}, err
	}
	created, err := e.client.Create(context.WithoutCancel(ctx), p, e.cred)
	if err == nil && created.ID == "" {
		err = &catalog.Error{Op: "create", Kind: catalog.ErrTransport, Msg: "response has no id"}
	}
	if err != nil {
		e.fail(FlowCreate, "Could not add the product", err)
		return model.Product{}, err
	}

	e.mu.Lock()
	if i := model.IndexOf(e.rows, created.ID); i >= 0 {
		e.log.Warn("created_id_already_present", "id", created.ID)
		e.rows[i] = created
	} else {
		e.rows = append(e.rows, created)
	}
	if e.draft == submitted {
		e.draft = model.Draft{}
	}
	e.mu.Unlock()
	e.succeed(FlowCreate, "Product added")
	return created, nil
}

// Delete removes id from the catalog. catalog.ErrNotFound counts as success
// since the record is gone either way.
func (e *Editor) Delete(ctx context.Context, id string) error {
	e.mu.Lock()
	if _, busy := e.deleting[id]; busy {
		e.mu.Unlock()
		e.reject(FlowDelete, "Delete already in progress", ErrInFlight)
		return ErrInFlight
	}
	e.deleting[id] = struct{}{}
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.deleting, id)
		e.mu.Unlock()
	}()

	err := e.client.Delete(context.WithoutCancel(ctx), id, e.cred)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		e.log.Info("delete_already_absent", "id", id)
	case err != nil:
		e.fail(FlowDelete, "Could not delete the product", err)
		return err
	}

	e.mu.Lock()
	if i := model.IndexOf(e.rows, id); i >= 0 {
		e.rows = append(e.rows[:i:i], e.rows[i+1:]...)
	}
	e.mu.Unlock()
	e.succeed(FlowDelete, "Product deleted")
	return nil
}

// Dispatch runs a row action emitted by the grid.
func (e *Editor) Dispatch(ctx context.Context, a grid.RowAction) error {
	if err := a.Validate(); err != nil {
		e.reject(FlowAction, "Unsupported action", err)
		return err
	}
	switch a.Kind {
	case grid.ActionDelete:
		return e.Delete(ctx, a.ID)
	}
	return fmt.Errorf("%w %q", grid.ErrUnknownAction, a.Kind)
}

func (e *Editor) begin(flow string, flag *bool) error {
	e.mu.Lock()
	busy := *flag
	*flag = true
	e.mu.Unlock()
	if busy {
		e.reject(flow, "Already in progress", ErrInFlight)
		return ErrInFlight
	}
	return nil
}

func (e *Editor) end(flag *bool) {
	e.mu.Lock()
	*flag = false
	e.mu.Unlock()
}

func (e *Editor) succeed(flow, msg string) {
	obs.CountFlow(flow, obs.OutcomeApplied)
	e.log.Info(flow+"_applied", "message", msg)
	e.notes.Notify(notify.Notice{Flow: flow, Level: notify.LevelInfo, Message: msg})
}

func (e *Editor) fail(flow, msg string, err error) {
	obs.CountFlow(flow, obs.OutcomeFailed)
	e.log.Warn(flow+"_failed", "message", msg, "error", err)
	e.notes.Notify(notify.Notice{Flow: flow, Level: notify.LevelError, Message: msg, Detail: err.Error()})
}

func (e *Editor) reject(flow, msg string, err error) {
	obs.CountFlow(flow, obs.OutcomeRejected)
	e.log.Info(flow+"_rejected", "message", msg, "error", err)
	e.notes.Notify(notify.Notice{Flow: flow, Level: notify.LevelError, Message: msg, Detail: err.Error()})
}
