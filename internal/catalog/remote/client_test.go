package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/product-catalog-editor/internal/catalog"
	"github.com/fairyhunter13/product-catalog-editor/internal/catalog/catalogtest"
	"github.com/fairyhunter13/product-catalog-editor/internal/model"
)

const token = catalog.Credential("tok-1")

func setup(t *testing.T, rows ...model.Product) (*Client, *catalogtest.Service) {
	t.Helper()
	svc := catalogtest.New(rows...)
	svc.Token = token
	srv := httptest.NewServer(svc.Handler("/api"))
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/", Options{Timeout: 2 * time.Second}), svc
}

func TestListCreateUpdateDelete(t *testing.T) {
	c, svc := setup(t, model.Product{ID: "7", Name: "Mouse", Price: "25", Stock: 10, Category: "Peripherals"})
	ctx := context.Background()

	rows, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Mouse", rows[0].Name)

	created, err := c.Create(ctx, model.Product{Name: "Keyboard", Price: "49.9", Stock: 3, Category: "Peripherals"}, token)
	require.NoError(t, err)
	assert.Equal(t, "8", created.ID)

	updated, err := c.Update(ctx, "7", model.Product{Name: "Mouse Pro", Price: "30", Stock: 9, Category: "Peripherals"}, token)
	require.NoError(t, err)
	assert.Equal(t, "7", updated.ID)
	got, _ := svc.Get("7")
	assert.Equal(t, "Mouse Pro", got.Name)

	require.NoError(t, c.Delete(ctx, "8", token))
	_, ok := svc.Get("8")
	assert.False(t, ok)
}

func TestEmptyListIsNotNil(t *testing.T) {
	c, _ := setup(t)
	rows, err := c.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestErrorTaxonomy(t *testing.T) {
	c, _ := setup(t, model.Product{ID: "1", Name: "A", Price: "1", Stock: 1, Category: "c"})
	ctx := context.Background()

	_, err := c.Create(ctx, model.Product{Name: "", Price: "1", Stock: 1, Category: "c"}, token)
	assert.ErrorIs(t, err, catalog.ErrValidation)
	var ce *catalog.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, http.StatusUnprocessableEntity, ce.Status)
	assert.Equal(t, "name is required", ce.Msg)

	_, err = c.Update(ctx, "1", model.Product{Name: "A", Price: "1", Category: "c"}, "wrong")
	assert.ErrorIs(t, err, catalog.ErrAuth)

	err = c.Delete(ctx, "404", token)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestUpdateOfMissingRecordIsTransport(t *testing.T) {
	c, _ := setup(t, model.Product{ID: "1", Name: "A", Price: "1", Stock: 1, Category: "c"})
	_, err := c.Update(context.Background(), "404", model.Product{Name: "A", Price: "1", Category: "c"}, token)
	assert.ErrorIs(t, err, catalog.ErrTransport)
	assert.False(t, errors.Is(err, catalog.ErrNotFound))
	var ce *catalog.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, http.StatusNotFound, ce.Status)
}

func TestMissingCredentialSkipsNetwork(t *testing.T) {
	c, svc := setup(t)
	_, err := c.Create(context.Background(), model.Product{Name: "x"}, "")
	assert.ErrorIs(t, err, catalog.ErrAuth)
	err = c.Delete(context.Background(), "1", " ")
	assert.ErrorIs(t, err, catalog.ErrAuth)
	assert.Empty(t, svc.Calls())
}

func TestListFailuresAreTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
	}))
	defer srv.Close()
	_, err := New(srv.URL, Options{}).List(context.Background())
	assert.ErrorIs(t, err, catalog.ErrTransport)
	assert.False(t, errors.Is(err, catalog.ErrNotFound))
}

func TestUndecodableBodyIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":`))
	}))
	defer srv.Close()
	_, err := New(srv.URL, Options{}).List(context.Background())
	assert.ErrorIs(t, err, catalog.ErrTransport)
}

func TestServerErrorIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	_, err := New(srv.URL, Options{}).Update(context.Background(), "1", model.Product{}, token)
	assert.ErrorIs(t, err, catalog.ErrTransport)
}

func TestCreateWithoutIDIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"x"}`))
	}))
	defer srv.Close()
	_, err := New(srv.URL, Options{}).Create(context.Background(), model.Product{Name: "x"}, token)
	assert.ErrorIs(t, err, catalog.ErrTransport)
}

func TestUnreachableIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	_, err := New(url, Options{Timeout: time.Second}).List(context.Background())
	assert.ErrorIs(t, err, catalog.ErrTransport)
}

func TestHeaders(t *testing.T) {
	var auth, reqID atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		reqID.Store(r.Header.Get("X-Request-Id"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()
	c := New(srv.URL, Options{})

	require.NoError(t, c.Delete(context.Background(), "a b", token))
	assert.Equal(t, "Bearer tok-1", auth.Load())
	assert.NotEmpty(t, reqID.Load())

	_, _ = c.List(context.Background())
	assert.Equal(t, "", auth.Load(), "list must not carry the credential")
}

func TestUpdateEmptyBodyEchoesRow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	got, err := New(srv.URL, Options{}).Update(context.Background(), "7", model.Product{Name: "Mouse"}, token)
	require.NoError(t, err)
	assert.Equal(t, model.Product{ID: "7", Name: "Mouse"}, got)
}
