package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"ianua/api/internal/catalog"
)

// Postgres persists the catalog as a single JSONB row with a monotonic
// revision. Every save replaces the whole document; partial updates do not
// exist at this layer.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// RevisionConflictError reports a save whose base revision no longer matches
// the stored one. The caller read Expected, the store holds Current.
type RevisionConflictError struct {
	Expected int64
	Current  int64
}

func (e *RevisionConflictError) Error() string {
	return fmt.Sprintf("catalog revision conflict: submitted against revision %d, store is at %d", e.Expected, e.Current)
}

// Ping reports database connectivity for readiness checks.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Load returns the current document and its revision. A missing row is seeded
// with an empty document at revision 1.
func (p *Postgres) Load(ctx context.Context) (catalog.Document, int64, error) {
	var raw []byte
	var revision int64
	err := p.db.QueryRowContext(ctx, `SELECT data, revision FROM catalog WHERE id = 1`).Scan(&raw, &revision)
	if errors.Is(err, sql.ErrNoRows) {
		return p.seed(ctx)
	}
	if err != nil {
		return catalog.Document{}, 0, fmt.Errorf("load catalog: %w", err)
	}

	var doc catalog.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return catalog.Document{}, 0, fmt.Errorf("decode catalog: %w", err)
	}
	doc.Normalize()
	return doc, revision, nil
}

// Save replaces the document. A non-zero baseRevision is compared against the
// stored revision and a mismatch fails with RevisionConflictError; zero skips
// the check and always wins (legacy import clients).
func (p *Postgres) Save(ctx context.Context, doc catalog.Document, baseRevision int64) (int64, error) {
	doc.Normalize()
	raw, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("encode catalog: %w", err)
	}

	if baseRevision == 0 {
		var revision int64
		err := p.db.QueryRowContext(ctx, `
			INSERT INTO catalog (id, data, revision, updated_at)
			VALUES (1, $1, 1, NOW())
			ON CONFLICT (id) DO UPDATE
			SET data = EXCLUDED.data, revision = catalog.revision + 1, updated_at = NOW()
			RETURNING revision
		`, raw).Scan(&revision)
		if err != nil {
			return 0, fmt.Errorf("save catalog: %w", err)
		}
		return revision, nil
	}

	var revision int64
	err = p.db.QueryRowContext(ctx, `
		UPDATE catalog
		SET data = $1, revision = revision + 1, updated_at = NOW()
		WHERE id = 1 AND revision = $2
		RETURNING revision
	`, raw, baseRevision).Scan(&revision)
	if errors.Is(err, sql.ErrNoRows) {
		var current int64
		if qerr := p.db.QueryRowContext(ctx, `SELECT revision FROM catalog WHERE id = 1`).Scan(&current); qerr != nil && !errors.Is(qerr, sql.ErrNoRows) {
			return 0, fmt.Errorf("read current revision: %w", qerr)
		}
		return 0, &RevisionConflictError{Expected: baseRevision, Current: current}
	}
	if err != nil {
		return 0, fmt.Errorf("save catalog: %w", err)
	}
	return revision, nil
}

func (p *Postgres) seed(ctx context.Context) (catalog.Document, int64, error) {
	empty := catalog.Empty()
	raw, err := json.Marshal(empty)
	if err != nil {
		return catalog.Document{}, 0, fmt.Errorf("encode empty catalog: %w", err)
	}
	var revision int64
	err = p.db.QueryRowContext(ctx, `
		INSERT INTO catalog (id, data, revision, updated_at)
		VALUES (1, $1, 1, NOW())
		ON CONFLICT (id) DO UPDATE SET revision = catalog.revision
		RETURNING revision
	`, raw).Scan(&revision)
	if err != nil {
		return catalog.Document{}, 0, fmt.Errorf("seed catalog: %w", err)
	}
	return empty, revision, nil
}
