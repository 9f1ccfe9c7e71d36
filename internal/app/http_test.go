package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ianua/api/internal/catalog"
	"ianua/api/internal/history"
)

func newTestServer(t *testing.T) (*httptest.Server, *testHarness, string) {
	t.Helper()
	h := newTestService(t, seededDoc())
	srv := httptest.NewServer(NewHTTPServer(h.svc, nil, "*").Handler())
	t.Cleanup(srv.Close)

	session, err := h.svc.Login(context.Background(), "admin", "admin-secret")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	return srv, h, session.Token
}

func doRequest(t *testing.T, method, url, token string, body any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var payload map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	return resp, payload
}

func TestHealthEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp, payload := doRequest(t, http.MethodGet, srv.URL+"/api/health", "", nil, nil)
	if resp.StatusCode != http.StatusOK || payload["ok"] != true {
		t.Fatalf("unexpected health response: %d %+v", resp.StatusCode, payload)
	}
}

func TestGetDBIsPublic(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp, payload := doRequest(t, http.MethodGet, srv.URL+"/api/db", "", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if payload["revision"] != float64(1) {
		t.Fatalf("expected revision 1, got %v", payload["revision"])
	}
	data, ok := payload["data"].(map[string]any)
	if !ok {
		t.Fatalf("missing data envelope: %+v", payload)
	}
	if _, ok := data["wines"]; !ok {
		t.Fatalf("document missing wines: %+v", data)
	}
}

func TestMutationsRequireAuth(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp, payload := doRequest(t, http.MethodPost, srv.URL+"/api/wines", "", catalog.Wine{Name: "Fumin"}, nil)
	if resp.StatusCode != http.StatusUnauthorized || payload["code"] != "UNAUTHORIZED" {
		t.Fatalf("expected 401 UNAUTHORIZED, got %d %+v", resp.StatusCode, payload)
	}
}

func TestAddWineRoundTrip(t *testing.T) {
	srv, h, token := newTestServer(t)
	resp, payload := doRequest(t, http.MethodPost, srv.URL+"/api/wines", token, catalog.Wine{Name: "Fumin", WineryID: "w1"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %+v", resp.StatusCode, payload)
	}
	wine, ok := payload["wine"].(map[string]any)
	if !ok || !strings.HasPrefix(wine["id"].(string), "wine_") {
		t.Fatalf("expected created wine with generated id: %+v", payload)
	}
	doc, _ := h.svc.Document()
	if len(doc.Wines) != 2 {
		t.Fatalf("wine not persisted: %d", len(doc.Wines))
	}
}

func TestDeleteMissingWineIs404(t *testing.T) {
	srv, _, token := newTestServer(t)
	resp, payload := doRequest(t, http.MethodDelete, srv.URL+"/api/wines/ghost", token, nil, nil)
	if resp.StatusCode != http.StatusNotFound || payload["code"] != "NOT_FOUND" {
		t.Fatalf("expected 404 NOT_FOUND, got %d %+v", resp.StatusCode, payload)
	}
}

func TestWipeDemandsConfirmationHeader(t *testing.T) {
	srv, h, token := newTestServer(t)

	resp, payload := doRequest(t, http.MethodPost, srv.URL+"/api/wines/wipe", token, nil, nil)
	if resp.StatusCode != http.StatusPreconditionRequired || payload["code"] != "WIPE_NOT_CONFIRMED" {
		t.Fatalf("expected 428 WIPE_NOT_CONFIRMED, got %d %+v", resp.StatusCode, payload)
	}
	doc, _ := h.svc.Document()
	if len(doc.Wines) != 1 {
		t.Fatal("unconfirmed wipe must not touch the catalog")
	}

	resp, _ = doRequest(t, http.MethodPost, srv.URL+"/api/wines/wipe", token, nil, map[string]string{"X-Confirm-Wipe": "wines"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirmed wipe failed with %d", resp.StatusCode)
	}
	doc, _ = h.svc.Document()
	if len(doc.Wines) != 0 {
		t.Fatal("confirmed wipe did not empty the collection")
	}
}

func TestWipeAllDemandsOwnConfirmation(t *testing.T) {
	srv, _, token := newTestServer(t)
	resp, _ := doRequest(t, http.MethodPost, srv.URL+"/api/admin/wipe", token, nil, map[string]string{"X-Confirm-Wipe": "wines"})
	if resp.StatusCode != http.StatusPreconditionRequired {
		t.Fatalf("wrong confirmation value must not pass: %d", resp.StatusCode)
	}
	resp, _ = doRequest(t, http.MethodPost, srv.URL+"/api/admin/wipe", token, nil, map[string]string{"X-Confirm-Wipe": "all"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirmed wipe-all failed with %d", resp.StatusCode)
	}
}

func TestReplaceDocumentConflictIs409(t *testing.T) {
	srv, _, token := newTestServer(t)

	body := map[string]any{"data": catalog.Empty(), "baseRevision": 99}
	resp, payload := doRequest(t, http.MethodPost, srv.URL+"/api/db", token, body, nil)
	if resp.StatusCode != http.StatusConflict || payload["code"] != "REVISION_CONFLICT" {
		t.Fatalf("expected 409 REVISION_CONFLICT, got %d %+v", resp.StatusCode, payload)
	}
	details, ok := payload["details"].(map[string]any)
	if !ok || details["current"] != float64(1) {
		t.Fatalf("expected conflict details with current revision: %+v", payload)
	}
}

func TestImportBadFormatIs422(t *testing.T) {
	srv, _, token := newTestServer(t)
	resp, payload := doRequest(t, http.MethodPost, srv.URL+"/api/admin/import", token, map[string]any{"foo": 1}, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity || payload["code"] != "BAD_FORMAT" {
		t.Fatalf("expected 422 BAD_FORMAT, got %d %+v", resp.StatusCode, payload)
	}
}

func TestImportAppliesPolicyFromQuery(t *testing.T) {
	srv, h, token := newTestServer(t)

	raw := []byte(`[{"id": "w1", "name": "Grosjean", "location": "Quart", "image": "https://example.com/new.webp"}]`)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/admin/import?overwriteImages=false", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	doc, _ := h.svc.Document()
	if doc.Wineries[0].Image != "" {
		t.Fatalf("overwriteImages=false must keep the stored image, got %q", doc.Wineries[0].Image)
	}
}

func TestSessionEndpoint(t *testing.T) {
	srv, _, token := newTestServer(t)

	_, payload := doRequest(t, http.MethodGet, srv.URL+"/api/session", "", nil, nil)
	if payload["authenticated"] != false {
		t.Fatalf("expected unauthenticated session: %+v", payload)
	}

	_, payload = doRequest(t, http.MethodGet, srv.URL+"/api/session", token, nil, nil)
	if payload["authenticated"] != true || payload["userName"] != "admin" {
		t.Fatalf("expected authenticated session: %+v", payload)
	}
}

func TestLoginRejectsWrongSecret(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp, payload := doRequest(t, http.MethodPost, srv.URL+"/api/admin/login", "", map[string]string{"name": "x", "secret": "nope"}, nil)
	if resp.StatusCode != http.StatusUnauthorized || payload["code"] != "INVALID_CREDENTIALS" {
		t.Fatalf("expected 401 INVALID_CREDENTIALS, got %d %+v", resp.StatusCode, payload)
	}
}

func TestHistoryEndpoints(t *testing.T) {
	srv, h, token := newTestServer(t)

	old := catalog.Empty()
	old.UpsertWine(catalog.Wine{ID: "old1", Name: "Vecchio"})
	h.history.entries["abc1234"] = history.Snapshot{Revision: 1, Data: old}

	resp, payload := doRequest(t, http.MethodGet, srv.URL+"/api/admin/history", token, nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("history list failed: %d", resp.StatusCode)
	}
	if _, ok := payload["commits"].([]any); !ok {
		t.Fatalf("expected commits array: %+v", payload)
	}

	resp, payload = doRequest(t, http.MethodGet, srv.URL+"/api/admin/history/abc1234", token, nil, nil)
	if resp.StatusCode != http.StatusOK || payload["revision"] != float64(1) {
		t.Fatalf("history entry failed: %d %+v", resp.StatusCode, payload)
	}

	resp, _ = doRequest(t, http.MethodPost, srv.URL+"/api/admin/restore", token, map[string]string{"hash": "abc1234"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("restore failed: %d", resp.StatusCode)
	}
	doc, _ := h.svc.Document()
	if len(doc.Wines) != 1 || doc.Wines[0].ID != "old1" {
		t.Fatalf("restore not applied: %+v", doc.Wines)
	}
}

func TestBackupExportSetsRevisionHeader(t *testing.T) {
	srv, _, token := newTestServer(t)
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/admin/backup/export", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Catalog-Revision") != "1" {
		t.Fatalf("missing revision header: %v", resp.Header)
	}
	if !strings.Contains(resp.Header.Get("Content-Disposition"), "ianua-backup.json") {
		t.Fatalf("missing attachment header: %v", resp.Header)
	}
}

func TestSearchEndpointEchoesQuery(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp, payload := doRequest(t, http.MethodGet, srv.URL+"/api/search?q=torrette", "", nil, nil)
	if resp.StatusCode != http.StatusOK || payload["query"] != "torrette" {
		t.Fatalf("unexpected search response: %d %+v", resp.StatusCode, payload)
	}
}

func TestSearchRejectsNegativePaging(t *testing.T) {
	srv, _, _ := newTestServer(t)
	for _, query := range []string{"q=x&offset=-1", "q=x&limit=-1"} {
		resp, payload := doRequest(t, http.MethodGet, srv.URL+"/api/search?"+query, "", nil, nil)
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Fatalf("%s: expected 422, got %d %+v", query, resp.StatusCode, payload)
		}
		if payload["code"] != "VALIDATION_ERROR" {
			t.Fatalf("%s: unexpected error payload: %+v", query, payload)
		}
	}
}

func TestRequestIDPropagates(t *testing.T) {
	srv, _, _ := newTestServer(t)
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/health", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("X-Request-ID", "req-42")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	if resp.Header.Get("X-Request-ID") != "req-42" {
		t.Fatalf("request id not echoed: %v", resp.Header)
	}
}
