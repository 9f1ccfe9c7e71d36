package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ianua/api/internal/auth"
	"ianua/api/internal/backup"
	"ianua/api/internal/catalog"
	"ianua/api/internal/export"
	"ianua/api/internal/reconcile"
	"ianua/api/internal/search"
	"ianua/api/internal/store"
)

const maxImportBytes = 20 << 20

type HTTPServer struct {
	service    *Service
	wsHandler  http.Handler
	corsOrigin string
}

func NewHTTPServer(service *Service, wsHandler http.Handler, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, wsHandler: wsHandler, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	inner := http.HandlerFunc(s.handle)
	wrapped := s.withMiddleware(inner)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the websocket upgrade needs the raw ResponseWriter (http.Hijacker)
		if r.URL.Path == "/api/db/ws" {
			inner.ServeHTTP(w, r)
			return
		}
		wrapped.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"database": map[string]any{"status": "ok"},
		}
		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["database"] = map[string]any{"status": "error", "error": err.Error()}
		}
		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	if r.URL.Path == "/api/db/ws" {
		if s.wsHandler == nil {
			writeError(w, http.StatusServiceUnavailable, "PUSH_UNAVAILABLE", "Push channel not configured", nil)
			return
		}
		s.wsHandler.ServeHTTP(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/db" {
		doc, revision := s.service.Document()
		writeJSON(w, http.StatusOK, map[string]any{"data": doc, "revision": revision})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/admin/login" {
		var body struct {
			Name   string `json:"name"`
			Secret string `json:"secret"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		session, err := s.service.Login(r.Context(), body.Name, body.Secret)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"token":     session.Token,
			"userName":  session.Name,
			"expiresAt": session.ExpiresAt.Unix(),
		})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/session" {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "userName": nil})
			return
		}
		session, err := s.service.SessionFromToken(token)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "userName": nil})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated": true,
			"userName":      session.Name,
			"expiresAt":     session.ExpiresAt.Unix(),
		})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/search" {
		s.handleSearch(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/export" {
		s.handleExport(w, r)
		return
	}

	// Everything below mutates the catalog or exposes admin data.
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/db" {
		var body struct {
			Data         catalog.Document `json:"data"`
			BaseRevision int64            `json:"baseRevision"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		doc, revision, err := s.service.ReplaceDocument(r.Context(), body.Data, body.BaseRevision, session.Name)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": doc, "revision": revision})
		return
	}

	parts := splitPath(r.URL.Path)

	if len(parts) >= 2 && parts[0] == "api" {
		switch parts[1] {
		case "wines":
			s.handleWines(w, r, session, parts)
			return
		case "wineries":
			s.handleWineries(w, r, session, parts)
			return
		case "menu":
			s.handleMenu(w, r, session, parts)
			return
		case "glossary":
			s.handleGlossary(w, r, session, parts)
			return
		case "ai-instructions":
			s.handleAiInstructions(w, r, session, parts)
			return
		case "admin":
			s.handleAdmin(w, r, session, parts)
			return
		}
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	filterType := strings.TrimSpace(r.URL.Query().Get("type"))
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "limit must be a non-negative integer", nil)
			return
		}
		limit = parsed
	}
	offset := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("offset")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "offset must be a non-negative integer", nil)
			return
		}
		offset = parsed
	}

	payload := s.service.Search(search.Query{
		Text:       q,
		FilterType: search.ResultType(filterType),
		Limit:      limit,
		Offset:     offset,
	})
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	req := export.Request{
		Kind:     export.Kind(strings.TrimSpace(r.URL.Query().Get("kind"))),
		Format:   export.Format(strings.TrimSpace(r.URL.Query().Get("format"))),
		Language: strings.TrimSpace(r.URL.Query().Get("lang")),
	}
	if req.Kind == "" {
		req.Kind = export.KindWineList
	}
	result, err := s.service.Export(r.Context(), req)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	w.Header().Set("Content-Disposition", "attachment; filename=\""+result.Filename+"\"")
	w.Header().Set("Content-Type", result.MimeType)
	_, _ = w.Write(result.Data)
}

// requireWipeConfirmation enforces the X-Confirm-Wipe header before any wipe.
func (s *HTTPServer) requireWipeConfirmation(w http.ResponseWriter, r *http.Request, collection string) bool {
	confirm := strings.TrimSpace(r.Header.Get("X-Confirm-Wipe"))
	if confirm != collection {
		writeError(w, http.StatusPreconditionRequired, "WIPE_NOT_CONFIRMED",
			fmt.Sprintf("Set X-Confirm-Wipe: %s to confirm", collection), nil)
		return false
	}
	return true
}

func (s *HTTPServer) wipe(w http.ResponseWriter, r *http.Request, session Session, collection string) {
	if !s.requireWipeConfirmation(w, r, collection) {
		return
	}
	revision, err := s.service.WipeCollection(r.Context(), collection, session.Name)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "revision": revision})
}

func (s *HTTPServer) handleWines(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	if len(parts) == 2 && r.Method == http.MethodPost {
		var wine catalog.Wine
		if err := decodeBody(r, &wine); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		created, revision, err := s.service.AddWine(r.Context(), wine, session.Name)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"wine": created, "revision": revision})
		return
	}

	if len(parts) == 3 && parts[2] == "batch" && r.Method == http.MethodPost {
		var body struct {
			Wines []json.RawMessage `json:"wines"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		updated, revision, err := s.service.BatchUpdateWines(r.Context(), body.Wines, session.Name)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"updated": updated, "revision": revision})
		return
	}

	if len(parts) == 3 && parts[2] == "wipe" && r.Method == http.MethodPost {
		s.wipe(w, r, session, "wines")
		return
	}

	if len(parts) == 3 {
		id := parts[2]
		switch r.Method {
		case http.MethodPut:
			var wine catalog.Wine
			if err := decodeBody(r, &wine); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			updated, revision, err := s.service.UpdateWine(r.Context(), id, wine, session.Name)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"wine": updated, "revision": revision})
			return
		case http.MethodDelete:
			revision, err := s.service.DeleteWine(r.Context(), id, session.Name)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true, "revision": revision})
			return
		}
	}

	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
}

func (s *HTTPServer) handleWineries(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	if len(parts) == 2 && r.Method == http.MethodPost {
		var winery catalog.Winery
		if err := decodeBody(r, &winery); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		created, revision, err := s.service.AddWinery(r.Context(), winery, session.Name)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"winery": created, "revision": revision})
		return
	}

	if len(parts) == 3 && parts[2] == "wipe" && r.Method == http.MethodPost {
		s.wipe(w, r, session, "wineries")
		return
	}

	if len(parts) == 3 {
		id := parts[2]
		switch r.Method {
		case http.MethodPut:
			var winery catalog.Winery
			if err := decodeBody(r, &winery); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			updated, revision, err := s.service.UpdateWinery(r.Context(), id, winery, session.Name)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"winery": updated, "revision": revision})
			return
		case http.MethodDelete:
			revision, err := s.service.DeleteWinery(r.Context(), id, session.Name)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true, "revision": revision})
			return
		}
	}

	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
}

func (s *HTTPServer) handleMenu(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	if len(parts) == 2 && r.Method == http.MethodPost {
		var item catalog.MenuItem
		if err := decodeBody(r, &item); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		created, revision, err := s.service.AddMenuItem(r.Context(), item, session.Name)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"item": created, "revision": revision})
		return
	}

	if len(parts) == 3 && parts[2] == "wipe" && r.Method == http.MethodPost {
		s.wipe(w, r, session, "menu")
		return
	}

	if len(parts) == 3 {
		id := parts[2]
		switch r.Method {
		case http.MethodPut:
			var item catalog.MenuItem
			if err := decodeBody(r, &item); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			updated, revision, err := s.service.UpdateMenuItem(r.Context(), id, item, session.Name)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"item": updated, "revision": revision})
			return
		case http.MethodDelete:
			revision, err := s.service.DeleteMenuItem(r.Context(), id, session.Name)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true, "revision": revision})
			return
		}
	}

	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
}

func (s *HTTPServer) handleGlossary(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	if len(parts) == 2 && r.Method == http.MethodPost {
		var item catalog.GlossaryItem
		if err := decodeBody(r, &item); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		created, revision, err := s.service.UpsertGlossaryItem(r.Context(), item, session.Name)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"item": created, "revision": revision})
		return
	}

	if len(parts) == 3 && parts[2] == "wipe" && r.Method == http.MethodPost {
		s.wipe(w, r, session, "glossary")
		return
	}

	if len(parts) == 3 && r.Method == http.MethodDelete {
		term := parts[2]
		revision, err := s.service.DeleteGlossaryItem(r.Context(), term, session.Name)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "revision": revision})
		return
	}

	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
}

func (s *HTTPServer) handleAiInstructions(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	if len(parts) == 2 && r.Method == http.MethodPost {
		var inst catalog.AiInstruction
		if err := decodeBody(r, &inst); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		created, revision, err := s.service.AddAiInstruction(r.Context(), inst, session.Name)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"instruction": created, "revision": revision})
		return
	}

	if len(parts) == 3 && parts[2] == "wipe" && r.Method == http.MethodPost {
		s.wipe(w, r, session, "ai_instructions")
		return
	}

	if len(parts) == 3 {
		id := parts[2]
		switch r.Method {
		case http.MethodPut:
			var inst catalog.AiInstruction
			if err := decodeBody(r, &inst); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			updated, revision, err := s.service.UpdateAiInstruction(r.Context(), id, inst, session.Name)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"instruction": updated, "revision": revision})
			return
		case http.MethodDelete:
			revision, err := s.service.DeleteAiInstruction(r.Context(), id, session.Name)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true, "revision": revision})
			return
		}
	}

	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
}

func (s *HTTPServer) handleAdmin(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	if len(parts) == 3 && parts[2] == "import" && r.Method == http.MethodPost {
		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", "Could not read import payload", nil)
			return
		}
		policy := reconcile.DefaultPolicy()
		query := r.URL.Query()
		if query.Get("overwriteImages") == "false" {
			policy.OverwriteImages = false
		}
		if query.Get("createMissingWinery") == "false" {
			policy.CreateMissingWinery = false
		}
		if query.Get("matchScope") == "global" {
			policy.MatchScope = reconcile.MatchGlobal
		}
		format := reconcile.Format(strings.TrimSpace(query.Get("format")))

		result, err := s.service.Import(r.Context(), raw, format, policy, session.Name)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, result)
		return
	}

	if len(parts) == 3 && parts[2] == "translate" && r.Method == http.MethodPost {
		summary, err := s.service.TranslateMissing(r.Context(), session.Name)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, summary)
		return
	}

	if len(parts) == 3 && parts[2] == "wipe" && r.Method == http.MethodPost {
		s.wipe(w, r, session, "all")
		return
	}

	if len(parts) == 4 && parts[2] == "backup" && parts[3] == "export" && r.Method == http.MethodGet {
		doc, revision := s.service.BackupExport()
		w.Header().Set("Content-Disposition", "attachment; filename=\"ianua-backup.json\"")
		w.Header().Set("X-Catalog-Revision", strconv.FormatInt(revision, 10))
		writeJSON(w, http.StatusOK, doc)
		return
	}

	if len(parts) == 4 && parts[2] == "backup" && parts[3] == "import" && r.Method == http.MethodPost {
		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", "Could not read backup payload", nil)
			return
		}
		revision, err := s.service.BackupImport(r.Context(), raw, session.Name)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "revision": revision})
		return
	}

	if len(parts) == 3 && parts[2] == "history" && r.Method == http.MethodGet {
		limit := 50
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
				limit = parsed
			}
		}
		items, err := s.service.History(limit)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"commits": items})
		return
	}

	if len(parts) == 4 && parts[2] == "history" && r.Method == http.MethodGet {
		snap, err := s.service.HistoryEntry(parts[3])
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"revision": snap.Revision, "data": snap.Data})
		return
	}

	if len(parts) == 3 && parts[2] == "restore" && r.Method == http.MethodPost {
		var body struct {
			Hash string `json:"hash"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		if strings.TrimSpace(body.Hash) == "" {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "hash is required", nil)
			return
		}
		revision, err := s.service.Restore(r.Context(), body.Hash, session.Name)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "revision": revision})
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) requireSession(w http.ResponseWriter, r *http.Request) (Session, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return Session{}, false
	}
	session, err := s.service.SessionFromToken(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return Session{}, false
	}
	return session, true
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin, r.URL.Path)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin, path string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID, X-Confirm-Wipe")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	// export and backup endpoints set their own content type
	if path != "/api/export" && path != "/api/db/ws" {
		header.Set("Content-Type", "application/json")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	var conflict *store.RevisionConflictError
	if errors.As(err, &conflict) {
		return http.StatusConflict, "REVISION_CONFLICT", "Document changed since it was read", map[string]any{
			"expected": conflict.Expected,
			"current":  conflict.Current,
		}
	}
	var parseErr *reconcile.ParseError
	if errors.As(err, &parseErr) {
		return http.StatusUnprocessableEntity, "BAD_FORMAT", "Import payload does not match any known shape", map[string]any{
			"format": string(parseErr.Format),
			"reason": parseErr.Reason,
		}
	}
	var validationErr *backup.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusUnprocessableEntity, "INVALID_BACKUP", validationErr.Reason, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken) {
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	}
	if errors.Is(err, export.ErrUnsupportedFormat) || errors.Is(err, export.ErrUnsupportedKind) {
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil
	}
	if errors.Is(err, export.ErrPDFDependencyMissing) {
		return http.StatusServiceUnavailable, "PDF_UNAVAILABLE", "PDF rendering is not available", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
