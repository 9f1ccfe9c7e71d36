// Package backup validates catalog backup payloads and archives snapshots
// before destructive operations.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"ianua/api/internal/catalog"
)

// Archiver stores a named snapshot payload somewhere durable.
type Archiver interface {
	Archive(ctx context.Context, name string, payload []byte) error
}

// Service snapshots the catalog to a local directory and, when configured,
// mirrors the snapshot to object storage. The remote copy is best effort.
type Service struct {
	local  *Dir
	remote Archiver
}

func NewService(local *Dir, remote Archiver) *Service {
	return &Service{local: local, remote: remote}
}

type payload struct {
	Revision int64            `json:"revision"`
	TakenAt  time.Time        `json:"takenAt"`
	Label    string           `json:"label"`
	Data     catalog.Document `json:"data"`
}

// Take archives the document under a timestamped name and returns that name.
func (s *Service) Take(ctx context.Context, label string, doc catalog.Document, revision int64) (string, error) {
	now := time.Now().UTC()
	name := snapshotName(label, now)

	raw, err := json.MarshalIndent(payload{
		Revision: revision,
		TakenAt:  now,
		Label:    label,
		Data:     doc,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := s.local.Archive(ctx, name, raw); err != nil {
		return "", err
	}
	if s.remote != nil {
		if err := s.remote.Archive(ctx, name, raw); err != nil {
			log.Printf("backup: remote archive of %s failed: %v", name, err)
		}
	}
	return name, nil
}

func snapshotName(label string, t time.Time) string {
	if label == "" {
		label = "snapshot"
	}
	return fmt.Sprintf("catalog-%s-%s.json", t.Format("20060102-150405"), label)
}
