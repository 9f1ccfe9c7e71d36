package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"ianua/api/internal/auth"
	"ianua/api/internal/backup"
	"ianua/api/internal/catalog"
	"ianua/api/internal/export"
	"ianua/api/internal/history"
	"ianua/api/internal/reconcile"
	"ianua/api/internal/search"
	"ianua/api/internal/store"
	"ianua/api/internal/translate"
)

// Store persists the catalog document with compare-and-set revisions.
type Store interface {
	Load(ctx context.Context) (catalog.Document, int64, error)
	Save(ctx context.Context, doc catalog.Document, baseRevision int64) (int64, error)
}

// Historian records every saved document as a commit.
type Historian interface {
	Commit(snap history.Snapshot, author, message string) (history.CommitInfo, error)
	List(limit int) ([]history.CommitInfo, error)
	Get(hash string) (history.Snapshot, error)
}

// Broadcaster pushes the new document to connected clients.
type Broadcaster interface {
	Broadcast(doc catalog.Document, revision int64)
}

// Publisher fans a save out to sibling instances.
type Publisher interface {
	Publish(ctx context.Context, revision int64) error
}

// Searcher answers queries and keeps its index in sync with the document.
type Searcher interface {
	Search(q search.Query) search.Response
	Reindex(doc catalog.Document)
}

// Snapshotter archives the document before destructive operations.
type Snapshotter interface {
	Take(ctx context.Context, label string, doc catalog.Document, revision int64) (string, error)
}

// Exporter renders printable views of the catalog.
type Exporter interface {
	Export(ctx context.Context, req export.Request) (*export.Result, error)
}

// Pinger reports backing-store connectivity for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps carries the service's collaborators. Store is required; everything
// else may be nil and the matching feature degrades or is reported as
// unavailable.
type Deps struct {
	Store      Store
	History    Historian
	Hub        Broadcaster
	Relay      Publisher
	Search     Searcher
	Translator translate.Translator
	Backup     Snapshotter
	Exporter   Exporter
	Pinger     Pinger
}

// Service owns the in-memory document and serializes every mutation through
// one mutex. The store is the source of truth; memory is a cache of the last
// loaded or saved state.
type Service struct {
	deps Deps

	jwtSecret   []byte
	adminSecret string
	sessionTTL  time.Duration

	mu       sync.Mutex
	doc      catalog.Document
	revision int64

	translating atomic.Bool
}

func NewService(jwtSecret, adminSecret string, sessionTTL time.Duration, deps Deps) *Service {
	return &Service{
		deps:        deps,
		jwtSecret:   []byte(jwtSecret),
		adminSecret: adminSecret,
		sessionTTL:  sessionTTL,
		doc:         catalog.Empty(),
		revision:    0,
	}
}

// Bootstrap loads the document from the store and primes the search index.
func (s *Service) Bootstrap(ctx context.Context) error {
	doc, revision, err := s.deps.Store.Load(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap catalog: %w", err)
	}
	s.mu.Lock()
	s.doc = doc
	s.revision = revision
	s.mu.Unlock()

	if s.deps.Search != nil {
		s.deps.Search.Reindex(doc)
	}
	return nil
}

// Refresh reloads the document from the store after a sibling instance saved
// it, and notifies local clients. It never publishes back to the relay.
func (s *Service) Refresh(ctx context.Context) error {
	doc, revision, err := s.deps.Store.Load(ctx)
	if err != nil {
		return fmt.Errorf("refresh catalog: %w", err)
	}
	s.mu.Lock()
	stale := revision > s.revision
	if stale {
		s.doc = doc
		s.revision = revision
	}
	s.mu.Unlock()
	if !stale {
		return nil
	}

	if s.deps.Search != nil {
		s.deps.Search.Reindex(doc)
	}
	if s.deps.Hub != nil {
		s.deps.Hub.Broadcast(doc, revision)
	}
	return nil
}

// Ping reports readiness of the backing store.
func (s *Service) Ping(ctx context.Context) error {
	if s.deps.Pinger == nil {
		return nil
	}
	return s.deps.Pinger.Ping(ctx)
}

// Document returns a deep copy of the current document and its revision.
func (s *Service) Document() (catalog.Document, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone(), s.revision
}

// Search answers a catalog query.
func (s *Service) Search(q search.Query) search.Response {
	if s.deps.Search == nil {
		return search.Response{Results: []search.Result{}, Query: q.Text}
	}
	return s.deps.Search.Search(q)
}

// Export renders the wine list or the menu.
func (s *Service) Export(ctx context.Context, req export.Request) (*export.Result, error) {
	if s.deps.Exporter == nil {
		return nil, unavailable("EXPORT_UNAVAILABLE", "Export is not configured")
	}
	return s.deps.Exporter.Export(ctx, req)
}

// Session describes an authenticated admin.
type Session struct {
	Name      string
	Token     string
	ExpiresAt time.Time
}

// Login verifies the shared admin secret and issues a session token.
func (s *Service) Login(ctx context.Context, name, secret string) (Session, error) {
	if !auth.VerifySecret(s.adminSecret, secret) {
		return Session{}, domainError(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid admin secret", nil)
	}
	if name == "" {
		name = "admin"
	}
	expiresAt := time.Now().Add(s.sessionTTL)
	token, err := auth.IssueToken(s.jwtSecret, auth.Claims{
		Sub:  "admin",
		Name: name,
		JTI:  catalog.NewID("jti"),
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{Name: name, Token: token, ExpiresAt: expiresAt}, nil
}

// SessionFromToken validates a bearer token.
func (s *Service) SessionFromToken(token string) (Session, error) {
	claims, err := auth.ParseToken(s.jwtSecret, token)
	if err != nil {
		return Session{}, err
	}
	return Session{Name: claims.Name, Token: token, ExpiresAt: time.Unix(claims.Exp, 0)}, nil
}

// save persists next, updates the in-memory state and fans the change out.
// Caller must hold s.mu. baseRevision zero means last-write-wins.
func (s *Service) save(ctx context.Context, next catalog.Document, baseRevision int64, actor, message string) (int64, error) {
	next.Normalize()
	revision, err := s.deps.Store.Save(ctx, next, baseRevision)
	if err != nil {
		return 0, err
	}
	s.doc = next
	s.revision = revision

	if s.deps.History != nil {
		if _, herr := s.deps.History.Commit(history.Snapshot{Revision: revision, Data: next}, actor, message); herr != nil {
			log.Printf("history: commit revision %d: %v", revision, herr)
		}
	}
	if s.deps.Search != nil {
		s.deps.Search.Reindex(next)
	}
	if s.deps.Hub != nil {
		s.deps.Hub.Broadcast(next, revision)
	}
	if s.deps.Relay != nil {
		if perr := s.deps.Relay.Publish(ctx, revision); perr != nil {
			log.Printf("push: relay publish revision %d: %v", revision, perr)
		}
	}
	return revision, nil
}

// mutate applies fn to a copy of the current document and saves it against
// the in-memory revision. A concurrent save from a sibling instance is
// absorbed by refreshing from the store and retrying once.
func (s *Service) mutate(ctx context.Context, actor, message string, fn func(doc *catalog.Document) error) (catalog.Document, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 0; attempt < 2; attempt++ {
		next := s.doc.Clone()
		if err := fn(&next); err != nil {
			return catalog.Document{}, 0, err
		}
		revision, err := s.save(ctx, next, s.revision, actor, message)
		if err == nil {
			return next, revision, nil
		}
		if !isRevisionConflict(err) || attempt == 1 {
			return catalog.Document{}, 0, err
		}
		doc, current, lerr := s.deps.Store.Load(ctx)
		if lerr != nil {
			return catalog.Document{}, 0, lerr
		}
		s.doc = doc
		s.revision = current
	}
	return catalog.Document{}, 0, fmt.Errorf("mutation retries exhausted")
}

// ReplaceDocument swaps in a whole new document. baseRevision guards against
// stale submissions; zero skips the check.
func (s *Service) ReplaceDocument(ctx context.Context, doc catalog.Document, baseRevision int64, actor string) (catalog.Document, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc.Normalize()
	revision, err := s.save(ctx, doc, baseRevision, actor, "replace document")
	if err != nil {
		return catalog.Document{}, 0, err
	}
	return s.doc.Clone(), revision, nil
}

// ── wines ──

func (s *Service) AddWine(ctx context.Context, wine catalog.Wine, actor string) (catalog.Wine, int64, error) {
	if wine.ID == "" {
		wine.ID = catalog.NewID("wine")
	}
	_, revision, err := s.mutate(ctx, actor, "add wine "+wine.Name, func(doc *catalog.Document) error {
		doc.UpsertWine(wine)
		return nil
	})
	return wine, revision, err
}

func (s *Service) UpdateWine(ctx context.Context, id string, wine catalog.Wine, actor string) (catalog.Wine, int64, error) {
	wine.ID = id
	_, revision, err := s.mutate(ctx, actor, "update wine "+id, func(doc *catalog.Document) error {
		if doc.FindWine(id) == nil {
			return notFound("wine")
		}
		doc.UpsertWine(wine)
		return nil
	})
	return wine, revision, err
}

func (s *Service) DeleteWine(ctx context.Context, id, actor string) (int64, error) {
	_, revision, err := s.mutate(ctx, actor, "delete wine "+id, func(doc *catalog.Document) error {
		if !doc.DeleteWine(id) {
			return notFound("wine")
		}
		return nil
	})
	return revision, err
}

// BatchUpdateWines merges partial wine patches by id and reports how many
// matched an existing wine.
func (s *Service) BatchUpdateWines(ctx context.Context, patches []json.RawMessage, actor string) (int, int64, error) {
	updated := 0
	_, revision, err := s.mutate(ctx, actor, fmt.Sprintf("batch update %d wines", len(patches)), func(doc *catalog.Document) error {
		updated = doc.MergeWines(patches)
		return nil
	})
	return updated, revision, err
}

// ── wineries ──

func (s *Service) AddWinery(ctx context.Context, winery catalog.Winery, actor string) (catalog.Winery, int64, error) {
	if winery.ID == "" {
		winery.ID = catalog.NewID("winery")
	}
	_, revision, err := s.mutate(ctx, actor, "add winery "+winery.Name, func(doc *catalog.Document) error {
		doc.UpsertWinery(winery)
		return nil
	})
	return winery, revision, err
}

func (s *Service) UpdateWinery(ctx context.Context, id string, winery catalog.Winery, actor string) (catalog.Winery, int64, error) {
	winery.ID = id
	_, revision, err := s.mutate(ctx, actor, "update winery "+id, func(doc *catalog.Document) error {
		if doc.FindWinery(id) == nil {
			return notFound("winery")
		}
		doc.UpsertWinery(winery)
		return nil
	})
	return winery, revision, err
}

func (s *Service) DeleteWinery(ctx context.Context, id, actor string) (int64, error) {
	_, revision, err := s.mutate(ctx, actor, "delete winery "+id, func(doc *catalog.Document) error {
		if !doc.DeleteWinery(id) {
			return notFound("winery")
		}
		return nil
	})
	return revision, err
}

// ── menu ──

func (s *Service) AddMenuItem(ctx context.Context, item catalog.MenuItem, actor string) (catalog.MenuItem, int64, error) {
	if item.ID == "" {
		item.ID = catalog.NewID("dish")
	}
	_, revision, err := s.mutate(ctx, actor, "add dish "+item.Name, func(doc *catalog.Document) error {
		doc.UpsertMenuItem(item)
		return nil
	})
	return item, revision, err
}

func (s *Service) UpdateMenuItem(ctx context.Context, id string, item catalog.MenuItem, actor string) (catalog.MenuItem, int64, error) {
	item.ID = id
	_, revision, err := s.mutate(ctx, actor, "update dish "+id, func(doc *catalog.Document) error {
		for i := range doc.Menu {
			if doc.Menu[i].ID == id {
				doc.Menu[i] = item
				return nil
			}
		}
		return notFound("dish")
	})
	return item, revision, err
}

func (s *Service) DeleteMenuItem(ctx context.Context, id, actor string) (int64, error) {
	_, revision, err := s.mutate(ctx, actor, "delete dish "+id, func(doc *catalog.Document) error {
		if !doc.DeleteMenuItem(id) {
			return notFound("dish")
		}
		return nil
	})
	return revision, err
}

// ── glossary ──

func (s *Service) UpsertGlossaryItem(ctx context.Context, item catalog.GlossaryItem, actor string) (catalog.GlossaryItem, int64, error) {
	if item.Term == "" {
		return catalog.GlossaryItem{}, 0, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "term is required", nil)
	}
	_, revision, err := s.mutate(ctx, actor, "upsert glossary term "+item.Term, func(doc *catalog.Document) error {
		doc.UpsertGlossaryItem(item)
		return nil
	})
	return item, revision, err
}

func (s *Service) DeleteGlossaryItem(ctx context.Context, term, actor string) (int64, error) {
	_, revision, err := s.mutate(ctx, actor, "delete glossary term "+term, func(doc *catalog.Document) error {
		if !doc.DeleteGlossaryItem(term) {
			return notFound("glossary term")
		}
		return nil
	})
	return revision, err
}

// ── ai instructions ──

func (s *Service) AddAiInstruction(ctx context.Context, inst catalog.AiInstruction, actor string) (catalog.AiInstruction, int64, error) {
	if inst.ID == "" {
		inst.ID = catalog.NewID("inst")
	}
	_, revision, err := s.mutate(ctx, actor, "add ai instruction "+inst.ID, func(doc *catalog.Document) error {
		doc.UpsertAiInstruction(inst)
		return nil
	})
	return inst, revision, err
}

func (s *Service) UpdateAiInstruction(ctx context.Context, id string, inst catalog.AiInstruction, actor string) (catalog.AiInstruction, int64, error) {
	inst.ID = id
	_, revision, err := s.mutate(ctx, actor, "update ai instruction "+id, func(doc *catalog.Document) error {
		for i := range doc.AiInstructions {
			if doc.AiInstructions[i].ID == id {
				doc.AiInstructions[i] = inst
				return nil
			}
		}
		return notFound("ai instruction")
	})
	return inst, revision, err
}

func (s *Service) DeleteAiInstruction(ctx context.Context, id, actor string) (int64, error) {
	_, revision, err := s.mutate(ctx, actor, "delete ai instruction "+id, func(doc *catalog.Document) error {
		if !doc.DeleteAiInstruction(id) {
			return notFound("ai instruction")
		}
		return nil
	})
	return revision, err
}

// ── wipes ──

// WipeCollection empties one collection, or the whole catalog for "all". A
// snapshot is taken first when a snapshotter is configured.
func (s *Service) WipeCollection(ctx context.Context, collection, actor string) (int64, error) {
	s.snapshot(ctx, "pre-wipe-"+collection)

	_, revision, err := s.mutate(ctx, actor, "wipe "+collection, func(doc *catalog.Document) error {
		switch collection {
		case "wines":
			doc.WipeWines()
		case "wineries":
			doc.WipeWineries()
		case "menu":
			doc.WipeMenu()
		case "glossary":
			doc.WipeGlossary()
		case "ai_instructions":
			doc.WipeAiInstructions()
		case "all":
			doc.WipeAll()
		default:
			return notFound("collection")
		}
		return nil
	})
	return revision, err
}

func (s *Service) snapshot(ctx context.Context, label string) {
	if s.deps.Backup == nil {
		return
	}
	doc, revision := s.Document()
	name, err := s.deps.Backup.Take(ctx, label, doc, revision)
	if err != nil {
		log.Printf("backup: snapshot %s: %v", label, err)
		return
	}
	log.Printf("backup: wrote snapshot %s", name)
}

// ── bulk import ──

// ImportResult is what the admin UI shows after a bulk import.
type ImportResult struct {
	Summary      reconcile.Summary `json:"summary"`
	ActiveRegion string            `json:"activeRegion,omitempty"`
	Revision     int64             `json:"revision"`
}

// Import reconciles a bulk payload into the catalog.
func (s *Service) Import(ctx context.Context, raw []byte, format reconcile.Format, policy reconcile.Policy, actor string) (ImportResult, error) {
	payload, err := reconcile.Parse(raw, format)
	if err != nil {
		return ImportResult{}, err
	}
	s.snapshot(ctx, "pre-import")

	var sum reconcile.Summary
	_, revision, err := s.mutate(ctx, actor, "bulk import", func(doc *catalog.Document) error {
		merged, summary := reconcile.Apply(*doc, payload, policy)
		*doc = merged
		sum = summary
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	return ImportResult{
		Summary:      sum,
		ActiveRegion: catalog.RegionOf(sum.LastRegion),
		Revision:     revision,
	}, nil
}

// ── translation ──

// TranslateMissing fills empty language mirrors across the whole catalog.
// Only one run may be in flight at a time.
func (s *Service) TranslateMissing(ctx context.Context, actor string) (translate.Summary, error) {
	if s.deps.Translator == nil {
		return translate.Summary{}, unavailable("TRANSLATE_UNAVAILABLE", "No translation provider configured")
	}
	if !s.translating.CompareAndSwap(false, true) {
		return translate.Summary{}, domainError(http.StatusConflict, "TRANSLATION_RUNNING", "A translation run is already in progress", nil)
	}
	defer s.translating.Store(false)

	doc, baseRevision := s.Document()
	translated, sum, err := translate.TranslateMissing(ctx, s.deps.Translator, doc)
	if err != nil {
		return sum, err
	}
	if sum.Total() == 0 {
		return sum, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.save(ctx, translated, baseRevision, actor, fmt.Sprintf("translate %d fields", sum.Total())); err != nil {
		return sum, err
	}
	return sum, nil
}

// ── backup ──

// BackupExport returns the full document for download.
func (s *Service) BackupExport() (catalog.Document, int64) {
	return s.Document()
}

// BackupImport validates an uploaded backup and replaces the catalog with it.
func (s *Service) BackupImport(ctx context.Context, raw []byte, actor string) (int64, error) {
	if err := backup.Validate(raw); err != nil {
		return 0, err
	}
	var doc catalog.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return 0, domainError(http.StatusUnprocessableEntity, "INVALID_BACKUP", "Backup payload is not a catalog document", nil)
	}
	s.snapshot(ctx, "pre-backup-import")

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, doc, 0, actor, "restore from backup upload")
}

// ── history ──

func (s *Service) History(limit int) ([]history.CommitInfo, error) {
	if s.deps.History == nil {
		return nil, unavailable("HISTORY_UNAVAILABLE", "History is not configured")
	}
	return s.deps.History.List(limit)
}

func (s *Service) HistoryEntry(hash string) (history.Snapshot, error) {
	if s.deps.History == nil {
		return history.Snapshot{}, unavailable("HISTORY_UNAVAILABLE", "History is not configured")
	}
	return s.deps.History.Get(hash)
}

// Restore replaces the catalog with the document stored at the given commit.
func (s *Service) Restore(ctx context.Context, hash, actor string) (int64, error) {
	if s.deps.History == nil {
		return 0, unavailable("HISTORY_UNAVAILABLE", "History is not configured")
	}
	snap, err := s.deps.History.Get(hash)
	if err != nil {
		return 0, notFound("history entry")
	}
	s.snapshot(ctx, "pre-restore")

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, snap.Data, 0, actor, "restore commit "+hash)
}

func isRevisionConflict(err error) bool {
	var conflict *store.RevisionConflictError
	return errors.As(err, &conflict)
}
