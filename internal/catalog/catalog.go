// Package catalog defines the contract of the remote catalog service and the
// errors it can fail with.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fairyhunter13/product-catalog-editor/internal/model"
)

// Client is the remote catalog service. Every call may block on a network
// round trip. No call is atomic across records and Update is not assumed to
// be idempotent.
type Client interface {
	// List returns the whole catalog. It fails only with ErrTransport.
	List(ctx context.Context) ([]model.Product, error)
	// Create stores p and returns it with its server-assigned ID.
	Create(ctx context.Context, p model.Product, cred Credential) (model.Product, error)
	// Update replaces the record identified by id.
	Update(ctx context.Context, id string, p model.Product, cred Credential) (model.Product, error)
	// Delete removes the record identified by id.
	Delete(ctx context.Context, id string, cred Credential) error
}

// Credential is an opaque bearer token issued by the identity provider.
// It is passed through unmodified.
type Credential string

// Empty reports whether no token is present.
func (c Credential) Empty() bool { return strings.TrimSpace(string(c)) == "" }

// String hides the token so credentials never end up in logs.
func (c Credential) String() string {
	if c.Empty() {
		return "<none>"
	}
	return "<redacted>"
}

// Error kinds. Match with errors.Is.
var (
	ErrTransport  = errors.New("transport error")
	ErrValidation = errors.New("validation error")
	ErrAuth       = errors.New("auth error")
	ErrNotFound   = errors.New("not found")
)

// Error is a failed catalog call.
type Error struct {
	Op     string // list, create, update, delete
	ID     string
	Kind   error
	Status int
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.ID != "" {
		fmt.Fprintf(&b, " %s", e.ID)
	}
	fmt.Fprintf(&b, ": %v", e.Kind)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Msg != "" {
		fmt.Fprintf(&b, ": %s", e.Msg)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Kind returns the taxonomy sentinel err belongs to, or nil.
func Kind(err error) error {
	for _, k := range []error{ErrValidation, ErrAuth, ErrNotFound, ErrTransport} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
