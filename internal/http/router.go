package httpapi

import (
	"expvar"
	"net/http"
)

// NewRouter registers HTTP routes and returns the handler with middleware.
func NewRouter(app *App) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /session", app.openSessionHandler)
	mux.HandleFunc("DELETE /session", app.withSession(app.closeSessionHandler))
	mux.HandleFunc("GET /session/status", app.withSession(app.statusHandler))

	mux.HandleFunc("GET /grid/columns", app.columnsHandler)
	mux.HandleFunc("GET /grid/rows", app.withSession(app.rowsHandler))
	mux.HandleFunc("GET /grid/edits", app.withSession(app.listEditsHandler))
	mux.HandleFunc("POST /grid/edits", app.withSession(app.recordEditHandler))
	mux.HandleFunc("POST /grid/flush", app.withSession(app.flushHandler))
	mux.HandleFunc("POST /grid/actions", app.withSession(app.actionHandler))
	mux.HandleFunc("POST /grid/reload", app.withSession(app.reloadHandler))

	mux.HandleFunc("GET /draft", app.withSession(app.getDraftHandler))
	mux.HandleFunc("PATCH /draft", app.withSession(app.patchDraftHandler))
	mux.HandleFunc("POST /draft/submit", app.withSession(app.submitDraftHandler))

	mux.HandleFunc("GET /notifications", app.withSession(app.noticesHandler))

	mux.HandleFunc("GET /summary/stock", app.stockSummaryHandler)
	mux.HandleFunc("GET /summary/value", app.valueSummaryHandler)

	mux.HandleFunc("GET /healthz", app.healthHandler)
	mux.HandleFunc("GET /debug/metrics", app.metricsHandler)
	mux.Handle("GET /debug/vars", expvar.Handler())
	mux.HandleFunc("GET /openapi.yaml", app.openapiHandler)
	mux.HandleFunc("GET /docs", app.docsHandler)
	return WithRequestID(WithLogging(mux))
}
