package catalogtest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/fairyhunter13/product-catalog-editor/internal/catalog"
	"github.com/fairyhunter13/product-catalog-editor/internal/model"
)

// Handler serves the service as {prefix}/products REST endpoints.
func (s *Service) Handler(prefix string) http.Handler {
	prefix = strings.TrimRight(prefix, "/")
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+prefix+"/products", s.listHandler)
	mux.HandleFunc("POST "+prefix+"/products", s.createHandler)
	mux.HandleFunc("PUT "+prefix+"/products/{id}", s.updateHandler)
	mux.HandleFunc("DELETE "+prefix+"/products/{id}", s.deleteHandler)
	return mux
}

func bearer(r *http.Request) catalog.Credential {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return catalog.Credential(strings.TrimPrefix(h, "Bearer "))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	switch catalog.Kind(err) {
	case catalog.ErrValidation:
		status, code = http.StatusUnprocessableEntity, "validation_error"
	case catalog.ErrAuth:
		status, code = http.StatusUnauthorized, "unauthorized"
	case catalog.ErrNotFound:
		status, code = http.StatusNotFound, "not_found"
	}
	details := err.Error()
	var ce *catalog.Error
	if errors.As(err, &ce) {
		if ce.Msg != "" {
			details = ce.Msg
		}
		if ce.Status == http.StatusNotFound {
			status, code = http.StatusNotFound, "not_found"
		}
	}
	writeJSON(w, status, map[string]string{"error": code, "details": details})
}

func decodeProduct(w http.ResponseWriter, r *http.Request) (model.Product, bool) {
	var p model.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_json", "details": err.Error()})
		return p, false
	}
	return p, true
}

func (s *Service) listHandler(w http.ResponseWriter, r *http.Request) {
	rows, err := s.List(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Service) createHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := decodeProduct(w, r)
	if !ok {
		return
	}
	created, err := s.Create(r.Context(), p, bearer(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Service) updateHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := decodeProduct(w, r)
	if !ok {
		return
	}
	updated, err := s.Update(r.Context(), r.PathValue("id"), p, bearer(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Service) deleteHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.Delete(r.Context(), r.PathValue("id"), bearer(r)); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
