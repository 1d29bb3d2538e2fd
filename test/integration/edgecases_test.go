package integration

import (
	"net/http"
	"testing"
)

func TestIntegration_ValidationErrors(t *testing.T) {
	waitReady(t)
	s := openSession(t)

	cases := []struct {
		name, method, path, body string
		want                     int
	}{
		{"unknown_edit_field", http.MethodPost, "/grid/edits", `{"id":"1","colour":"red"}`, http.StatusBadRequest},
		{"edit_without_id", http.MethodPost, "/grid/edits", `{"name":"x"}`, http.StatusBadRequest},
		{"malformed_json", http.MethodPost, "/grid/edits", `{"id":"1",`, http.StatusBadRequest},
		{"unknown_action", http.MethodPost, "/grid/actions", `{"id":"1","kind":"archive"}`, http.StatusBadRequest},
		{"unknown_draft_field", http.MethodPatch, "/draft", `{"colour":"red"}`, http.StatusBadRequest},
		{"incomplete_draft", http.MethodPost, "/draft/submit", "", http.StatusUnprocessableEntity},
		{"bad_cursor", http.MethodGet, "/notifications?since=-1", "", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, b := call(t, tc.method, tc.path, s.SessionID, tc.body)
			if resp.StatusCode != tc.want {
				t.Fatalf("%s: expected %d, got %d: %s", tc.name, tc.want, resp.StatusCode, b)
			}
		})
	}
}

func TestIntegration_SessionRequired(t *testing.T) {
	waitReady(t)
	for _, path := range []string{"/grid/rows", "/grid/edits", "/draft", "/notifications"} {
		if resp, _ := call(t, http.MethodGet, path, "", ""); resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, resp.StatusCode)
		}
	}
}
