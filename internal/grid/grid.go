// Package grid describes what the editor hands to the grid component and
// what it accepts back from it.
package grid

import (
	"errors"
	"fmt"
	"strings"
)

// Column is one grid column. Width 0 lets the grid size the column.
type Column struct {
	Title    string `json:"title"`
	Field    string `json:"field"`
	Editable bool   `json:"editable"`
	Width    int    `json:"width,omitempty"`
}

// FieldActions is the synthetic field of the per-row action column.
const FieldActions = "actions"

// Columns returns the catalog grid layout.
func Columns() []Column {
	return []Column{
		{Title: "ID", Field: "id", Editable: false, Width: 150},
		{Title: "Product", Field: "name", Editable: true, Width: 150},
		{Title: "Price", Field: "price", Editable: true, Width: 150},
		{Title: "Stock", Field: "stock", Editable: true, Width: 150},
		{Title: "Description", Field: "description", Editable: true},
		{Title: "Actions", Field: FieldActions, Editable: false, Width: 100},
	}
}

// ActionKind names a per-row action.
type ActionKind string

// ActionDelete removes the row's record.
const ActionDelete ActionKind = "delete"

// RowAction is emitted by the grid when an operator triggers a row action.
type RowAction struct {
	ID   string     `json:"id"`
	Kind ActionKind `json:"kind"`
}

var (
	// ErrUnknownAction is returned for actions the editor does not handle.
	ErrUnknownAction = errors.New("unknown row action")
	// ErrNoRowID is returned for actions that do not name a row.
	ErrNoRowID = errors.New("row action without id")
)

// Validate checks the descriptor is dispatchable.
func (a RowAction) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return ErrNoRowID
	}
	switch a.Kind {
	case ActionDelete:
		return nil
	}
	return fmt.Errorf("%w %q", ErrUnknownAction, a.Kind)
}
