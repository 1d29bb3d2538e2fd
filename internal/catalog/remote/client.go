// Package remote talks to the catalog service over REST/JSON.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fairyhunter13/product-catalog-editor/internal/catalog"
	"github.com/fairyhunter13/product-catalog-editor/internal/model"
	"github.com/fairyhunter13/product-catalog-editor/internal/obs"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultDialTimeout = 3 * time.Second
	maxErrorBody       = 4 << 10
)

// Options tune the underlying HTTP client.
type Options struct {
	Timeout     time.Duration
	DialTimeout time.Duration
	// HTTPClient replaces the default client entirely when set.
	HTTPClient *http.Client
}

// Client implements catalog.Client against {base}/products.
type Client struct {
	base string
	hc   *http.Client
}

var _ catalog.Client = (*Client)(nil)

// New returns a Client rooted at baseURL, e.g. "http://catalog:3000/api".
func New(baseURL string, opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = defaultClient(opts)
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), hc: hc}
}

func defaultClient(opts Options) *http.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}
	dialer := &net.Dialer{Timeout: opts.DialTimeout}
	return &http.Client{
		Transport: &http.Transport{
			DialContext:         dialer.DialContext,
			TLSHandshakeTimeout: opts.DialTimeout,
			MaxIdleConnsPerHost: 8,
		},
		Timeout: opts.Timeout,
	}
}

// List fetches every product. Any failure is reported as a transport error.
func (c *Client) List(ctx context.Context) ([]model.Product, error) {
	var out []model.Product
	if err := c.do(ctx, "list", "", http.MethodGet, "/products", "", nil, &out); err != nil {
		var ce *catalog.Error
		if errors.As(err, &ce) && ce.Kind != catalog.ErrTransport {
			ce.Kind = catalog.ErrTransport
		}
		return nil, err
	}
	if out == nil {
		out = []model.Product{}
	}
	return out, nil
}

// Create posts p and returns the stored record.
func (c *Client) Create(ctx context.Context, p model.Product, cred catalog.Credential) (model.Product, error) {
	if cred.Empty() {
		return model.Product{}, &catalog.Error{Op: "create", Kind: catalog.ErrAuth, Msg: "missing credential"}
	}
	p.ID = ""
	var out model.Product
	if err := c.do(ctx, "create", "", http.MethodPost, "/products", cred, p, &out); err != nil {
		return model.Product{}, err
	}
	if out.ID == "" {
		return model.Product{}, &catalog.Error{Op: "create", Kind: catalog.ErrTransport, Msg: "response has no id"}
	}
	return out, nil
}

// Update replaces the record identified by id with p.
func (c *Client) Update(ctx context.Context, id string, p model.Product, cred catalog.Credential) (model.Product, error) {
	if cred.Empty() {
		return model.Product{}, &catalog.Error{Op: "update", ID: id, Kind: catalog.ErrAuth, Msg: "missing credential"}
	}
	p.ID = id
	var out model.Product
	if err := c.do(ctx, "update", id, http.MethodPut, "/products/"+url.PathEscape(id), cred, p, &out); err != nil {
		return model.Product{}, err
	}
	if out.ID == "" {
		// Some services answer with an empty body; the sent row is what was stored.
		out = p
	}
	return out, nil
}

// Delete removes the record identified by id.
func (c *Client) Delete(ctx context.Context, id string, cred catalog.Credential) error {
	if cred.Empty() {
		return &catalog.Error{Op: "delete", ID: id, Kind: catalog.ErrAuth, Msg: "missing credential"}
	}
	return c.do(ctx, "delete", id, http.MethodDelete, "/products/"+url.PathEscape(id), cred, nil, nil)
}

// jsonError mirrors the {"error","details"} payload used by the service.
type jsonError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Message string `json:"message,omitempty"`
}

func (c *Client) do(ctx context.Context, op, id, method, path string, cred catalog.Credential, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &catalog.Error{Op: op, ID: id, Kind: catalog.ErrValidation, Err: err}
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return &catalog.Error{Op: op, ID: id, Kind: catalog.ErrTransport, Err: err}
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", reqID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !cred.Empty() {
		req.Header.Set("Authorization", "Bearer "+string(cred))
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		obs.Logger.Warn("catalog_call_failed", "op", op, "id", id, "request_id", reqID, "error", err)
		return &catalog.Error{Op: op, ID: id, Kind: catalog.ErrTransport, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	obs.Logger.Debug("catalog_call",
		"op", op,
		"id", id,
		"status", resp.StatusCode,
		"request_id", reqID,
		"latency_ms", float64(time.Since(start).Microseconds())/1000.0,
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, id, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &catalog.Error{Op: op, ID: id, Kind: catalog.ErrTransport, Status: resp.StatusCode, Err: err}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &catalog.Error{Op: op, ID: id, Kind: catalog.ErrTransport, Status: resp.StatusCode, Msg: "undecodable response", Err: err}
	}
	return nil
}

func statusError(op, id string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(raw))
	var je jsonError
	if json.Unmarshal(raw, &je) == nil {
		switch {
		case je.Details != "":
			msg = je.Details
		case je.Message != "":
			msg = je.Message
		case je.Error != "":
			msg = je.Error
		}
	}
	return &catalog.Error{Op: op, ID: id, Kind: kindForStatus(op, resp.StatusCode), Status: resp.StatusCode, Msg: msg}
}

// kindForStatus classifies a non-2xx answer. Only delete reports a missing
// record as ErrNotFound; for the other operations it is a transport failure.
func kindForStatus(op string, status int) error {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusConflict:
		return catalog.ErrValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		return catalog.ErrAuth
	case http.StatusNotFound, http.StatusGone:
		if op == "delete" {
			return catalog.ErrNotFound
		}
	}
	return catalog.ErrTransport
}

// String identifies the client in logs.
func (c *Client) String() string { return fmt.Sprintf("remote(%s)", c.base) }
