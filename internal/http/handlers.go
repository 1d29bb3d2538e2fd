package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fairyhunter13/product-catalog-editor/internal/config"
	"github.com/fairyhunter13/product-catalog-editor/internal/editor"
	"github.com/fairyhunter13/product-catalog-editor/internal/grid"
	httpopenapi "github.com/fairyhunter13/product-catalog-editor/internal/http/openapi"
	"github.com/fairyhunter13/product-catalog-editor/internal/model"
	"github.com/fairyhunter13/product-catalog-editor/internal/notify"
	"github.com/fairyhunter13/product-catalog-editor/internal/obs"
	"github.com/fairyhunter13/product-catalog-editor/internal/session"
	"github.com/fairyhunter13/product-catalog-editor/internal/summary"
)

// SessionHeader selects the operator session of a request.
const SessionHeader = "X-Session-Id"

type App struct {
	Cfg      config.Config
	Sessions *session.Store
	Summary  *summary.Widgets
	closing  atomic.Bool
	started  time.Time
}

func NewApp(cfg config.Config, sessions *session.Store, widgets *summary.Widgets) *App {
	return &App{Cfg: cfg, Sessions: sessions, Summary: widgets, started: time.Now()}
}

// StartShutdown makes the app refuse new sessions.
func (a *App) StartShutdown() {
	a.closing.Store(true)
}

type sessionResp struct {
	SessionID string          `json:"session_id"`
	Subject   string          `json:"subject,omitempty"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
	Rows      []model.Product `json:"rows"`
	LoadError string          `json:"load_error,omitempty"`
}

type flushResp struct {
	Status string             `json:"status"`
	Result editor.FlushResult `json:"result"`
	Error  string             `json:"error,omitempty"`
}

type noticesResp struct {
	Cursor  uint64          `json:"cursor"`
	Notices []notify.Notice `json:"notices"`
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *session.Session)

// withSession resolves the session named by SessionHeader.
func (a *App) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(SessionHeader)
		if id == "" {
			WriteJSONError(w, http.StatusUnauthorized, "unauthorized", "missing "+SessionHeader)
			return
		}
		sess, ok := a.Sessions.Get(id)
		if !ok {
			WriteJSONError(w, http.StatusUnauthorized, "unauthorized", "unknown or expired session")
			return
		}
		h(w, r, sess)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a JSON body into v, answering the request itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		WriteJSONError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "expected application/json")
		return false
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

func (a *App) openSessionHandler(w http.ResponseWriter, r *http.Request) {
	if a.closing.Load() {
		WriteJSONError(w, http.StatusServiceUnavailable, "shutting_down", "")
		return
	}
	cred, err := session.BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		WriteJSONError(w, http.StatusUnauthorized, "unauthorized", err.Error())
		return
	}
	sess, err := a.Sessions.Open(cred)
	if err != nil {
		WriteJSONError(w, http.StatusUnauthorized, "unauthorized", err.Error())
		return
	}
	resp := sessionResp{SessionID: sess.ID, Subject: sess.Subject}
	if !sess.ExpiresAt.IsZero() {
		resp.ExpiresAt = &sess.ExpiresAt
	}
	if err := sess.Editor.Load(r.Context(), false); err != nil {
		resp.LoadError = err.Error()
	}
	resp.Rows = sess.Editor.Rows()
	writeJSON(w, http.StatusCreated, resp)
	obs.Logger.Info("session_started",
		"request_id", RequestIDFromContext(r.Context()),
		"session_id", sess.ID,
		"rows", len(resp.Rows),
		"load_error", resp.LoadError,
	)
}

func (a *App) closeSessionHandler(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	a.Sessions.Close(sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) columnsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, grid.Columns())
}

func (a *App) rowsHandler(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, sess.Editor.Rows())
}

func (a *App) statusHandler(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, sess.Editor.Status())
}

func (a *App) listEditsHandler(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, sess.Editor.Dirty())
}

func (a *App) recordEditHandler(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var row model.Product
	if !decodeJSON(w, r, &row) {
		return
	}
	if err := sess.Editor.RecordEdit(row); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"dirty": len(sess.Editor.Dirty())})
}

func (a *App) flushHandler(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	res, err := sess.Editor.Flush(r.Context())
	if errors.Is(err, editor.ErrInFlight) {
		writeFlowError(w, err)
		return
	}
	if err != nil {
		status := http.StatusBadGateway
		if len(res.Failed) > 0 {
			status = statusFor(res.Failed[0].Err())
		}
		writeJSON(w, status, flushResp{Status: "failed", Result: res, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, flushResp{Status: "applied", Result: res})
}

func (a *App) actionHandler(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var act grid.RowAction
	if !decodeJSON(w, r, &act) {
		return
	}
	if err := sess.Editor.Dispatch(r.Context(), act); err != nil {
		writeFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "applied", "id": act.ID, "kind": act.Kind})
}

func (a *App) reloadHandler(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	if err := sess.Editor.Load(r.Context(), force); err != nil {
		writeFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Editor.Rows())
}

func (a *App) getDraftHandler(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, sess.Editor.Draft())
}

func (a *App) patchDraftHandler(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var fields map[string]string
	if !decodeJSON(w, r, &fields) {
		return
	}
	for f := range fields {
		if _, ok := (model.Draft{}).Get(f); !ok {
			WriteJSONError(w, http.StatusBadRequest, "validation_error", "unknown draft field "+strconv.Quote(f))
			return
		}
	}
	for f, v := range fields {
		_ = sess.Editor.SetDraftField(f, v)
	}
	writeJSON(w, http.StatusOK, sess.Editor.Draft())
}

func (a *App) submitDraftHandler(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	created, err := sess.Editor.Create(r.Context())
	if err != nil {
		writeFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (a *App) noticesHandler(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var since uint64
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			WriteJSONError(w, http.StatusBadRequest, "invalid_query", "since must be an unsigned integer")
			return
		}
		since = n
	}
	writeJSON(w, http.StatusOK, noticesResp{Cursor: sess.Notices.Cursor(), Notices: sess.Notices.Since(since)})
}

func (a *App) stockSummaryHandler(w http.ResponseWriter, r *http.Request) {
	out, err := a.Summary.StockByCategory(r.Context())
	if err != nil {
		writeFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *App) valueSummaryHandler(w http.ResponseWriter, r *http.Request) {
	out, err := a.Summary.InventoryValue(r.Context())
	if err != nil {
		writeFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) metricsHandler(w http.ResponseWriter, r *http.Request) {
	m := map[string]any{
		"sessions":      a.Sessions.Len(),
		"sessions_live": obs.SessionCount(),
		"flows":         obs.FlowCounts(),
		"uptime_sec":    time.Since(a.started).Seconds(),
	}
	writeJSON(w, http.StatusOK, m)
}

func (a *App) openapiHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(httpopenapi.YAML)
}

func (a *App) docsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	html := `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Catalog Editor API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui'
      });
    </script>
  </body>
</html>`
	_, _ = w.Write([]byte(html))
}
