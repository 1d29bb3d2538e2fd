// Package catalogtest provides an in-memory catalog service for tests, both
// as a catalog.Client and as an HTTP handler the remote client can talk to.
package catalogtest

import (
	"context"
	"strconv"
	"sync"

	"github.com/fairyhunter13/product-catalog-editor/internal/catalog"
	"github.com/fairyhunter13/product-catalog-editor/internal/model"
)

// Call records one invocation.
type Call struct {
	Op string
	ID string
}

type hold struct {
	entered chan struct{}
	release chan struct{}
}

// Service is a fake catalog. The zero value is not usable; call New.
type Service struct {
	// Token, when set, is the only credential accepted on writes.
	Token catalog.Credential

	mu     sync.Mutex
	rows   []model.Product
	nextID int
	calls  []Call
	fail   map[string]error
	holds  map[string]*hold
}

var _ catalog.Client = (*Service)(nil)

// New returns a service seeded with rows. IDs for created records start
// after the highest numeric seed ID.
func New(rows ...model.Product) *Service {
	s := &Service{fail: map[string]error{}, holds: map[string]*hold{}, nextID: 1}
	for _, r := range rows {
		s.rows = append(s.rows, r)
		if n, err := strconv.Atoi(r.ID); err == nil && n >= s.nextID {
			s.nextID = n + 1
		}
	}
	return s
}

func key(op, id string) string { return op + ":" + id }

// FailOn makes every call to op (for id, or any id when id is "") return err.
func (s *Service) FailOn(op, id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[key(op, id)] = err
}

// Block parks calls to op until release is called. entered receives one
// value per parked call.
func (s *Service) Block(op string) (entered <-chan struct{}, release func()) {
	h := &hold{entered: make(chan struct{}, 64), release: make(chan struct{})}
	s.mu.Lock()
	s.holds[op] = h
	s.mu.Unlock()
	var once sync.Once
	return h.entered, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.holds, op)
			s.mu.Unlock()
			close(h.release)
		})
	}
}

// Calls returns every call made so far.
func (s *Service) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallCount returns how many calls to op were made.
func (s *Service) CallCount(op string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Rows returns the stored records.
func (s *Service) Rows() []model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Product(nil), s.rows...)
}

// Get returns the stored record for id.
func (s *Service) Get(id string) (model.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := model.IndexOf(s.rows, id); i >= 0 {
		return s.rows[i], true
	}
	return model.Product{}, false
}

// enter records the call, waits on a hold and returns an injected failure.
func (s *Service) enter(ctx context.Context, op, id string) error {
	s.mu.Lock()
	s.calls = append(s.calls, Call{Op: op, ID: id})
	h := s.holds[op]
	err := s.fail[key(op, id)]
	if err == nil {
		err = s.fail[key(op, "")]
	}
	s.mu.Unlock()
	if h != nil {
		select {
		case h.entered <- struct{}{}:
		default:
		}
		select {
		case <-h.release:
		case <-ctx.Done():
			return &catalog.Error{Op: op, ID: id, Kind: catalog.ErrTransport, Err: ctx.Err()}
		}
	}
	return err
}

func (s *Service) authorize(op, id string, cred catalog.Credential) error {
	if cred.Empty() || (!s.Token.Empty() && cred != s.Token) {
		return &catalog.Error{Op: op, ID: id, Kind: catalog.ErrAuth, Status: 401, Msg: "invalid credential"}
	}
	return nil
}

func validate(op, id string, p model.Product) error {
	if p.Name == "" {
		return &catalog.Error{Op: op, ID: id, Kind: catalog.ErrValidation, Status: 422, Msg: "name is required"}
	}
	d, err := p.Price.Decimal()
	if err != nil || d.IsNegative() {
		return &catalog.Error{Op: op, ID: id, Kind: catalog.ErrValidation, Status: 422, Msg: "price must be a number >= 0"}
	}
	if p.Stock < 0 {
		return &catalog.Error{Op: op, ID: id, Kind: catalog.ErrValidation, Status: 422, Msg: "stock must be >= 0"}
	}
	return nil
}

// List implements catalog.Client.
func (s *Service) List(ctx context.Context) ([]model.Product, error) {
	if err := s.enter(ctx, "list", ""); err != nil {
		return nil, err
	}
	return s.Rows(), nil
}

// Create implements catalog.Client.
func (s *Service) Create(ctx context.Context, p model.Product, cred catalog.Credential) (model.Product, error) {
	if err := s.enter(ctx, "create", ""); err != nil {
		return model.Product{}, err
	}
	if err := s.authorize("create", "", cred); err != nil {
		return model.Product{}, err
	}
	if err := validate("create", "", p); err != nil {
		return model.Product{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = strconv.Itoa(s.nextID)
	s.nextID++
	s.rows = append(s.rows, p)
	return p, nil
}

// Update implements catalog.Client.
func (s *Service) Update(ctx context.Context, id string, p model.Product, cred catalog.Credential) (model.Product, error) {
	if err := s.enter(ctx, "update", id); err != nil {
		return model.Product{}, err
	}
	if err := s.authorize("update", id, cred); err != nil {
		return model.Product{}, err
	}
	if err := validate("update", id, p); err != nil {
		return model.Product{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := model.IndexOf(s.rows, id)
	if i < 0 {
		return model.Product{}, &catalog.Error{Op: "update", ID: id, Kind: catalog.ErrTransport, Status: 404, Msg: "record not found"}
	}
	p.ID = id
	s.rows[i] = p
	return p, nil
}

// Delete implements catalog.Client.
func (s *Service) Delete(ctx context.Context, id string, cred catalog.Credential) error {
	if err := s.enter(ctx, "delete", id); err != nil {
		return err
	}
	if err := s.authorize("delete", id, cred); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := model.IndexOf(s.rows, id)
	if i < 0 {
		return &catalog.Error{Op: "delete", ID: id, Kind: catalog.ErrNotFound, Status: 404}
	}
	s.rows = append(s.rows[:i], s.rows[i+1:]...)
	return nil
}
