package history

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"ianua/api/internal/catalog"
)

func sampleSnapshot(rev int64, wineName string) Snapshot {
	doc := catalog.Empty()
	doc.UpsertWinery(catalog.Winery{ID: "w1", Name: "Les Cretes", Location: "Aymavilles"})
	doc.UpsertWine(catalog.Wine{ID: "v1", Name: wineName, WineryID: "w1"})
	return Snapshot{Revision: rev, Data: doc}
}

func TestCommitAndGetRoundTrip(t *testing.T) {
	svc := New(t.TempDir())

	info, err := svc.Commit(sampleSnapshot(3, "Fumin"), "Avery", "save revision 3")
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if len(info.Hash) != 7 {
		t.Fatalf("expected abbreviated hash, got %q", info.Hash)
	}
	if info.Author != "Avery" {
		t.Fatalf("unexpected author: %+v", info)
	}

	snap, err := svc.Get(info.Hash)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if snap.Revision != 3 {
		t.Fatalf("unexpected revision: %+v", snap)
	}
	if len(snap.Data.Wines) != 1 || snap.Data.Wines[0].Name != "Fumin" {
		t.Fatalf("unexpected document content: %+v", snap.Data)
	}
	if snap.Data.Menu == nil || snap.Data.Glossary == nil {
		t.Fatal("expected normalized empty collections")
	}
}

func TestCommitCreatesRepoOnFirstUse(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "history")
	svc := New(dir)

	if _, err := svc.Commit(sampleSnapshot(1, "Torrette"), "", "initial save"); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		t.Fatalf("repo directory missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, contentFile)); err != nil {
		t.Fatalf("content file missing: %v", err)
	}
}

func TestListNewestFirstWithLimit(t *testing.T) {
	svc := New(t.TempDir())

	for i := 1; i <= 5; i++ {
		msg := fmt.Sprintf("save revision %d", i)
		if _, err := svc.Commit(sampleSnapshot(int64(i), "Torrette"), "Avery", msg); err != nil {
			t.Fatalf("Commit() error = %v", err)
		}
	}

	items, err := svc.List(3)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(items))
	}
	if items[0].Message != "save revision 5" {
		t.Fatalf("expected newest commit first, got %+v", items[0])
	}
}

func TestListOnEmptyRepoDir(t *testing.T) {
	svc := New(filepath.Join(t.TempDir(), "never-created"))
	items, err := svc.List(10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no entries, got %d", len(items))
	}
}

func TestConcurrentCommits(t *testing.T) {
	svc := New(t.TempDir())

	const writers = 10
	var wg sync.WaitGroup
	errCh := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			snap := sampleSnapshot(int64(idx), fmt.Sprintf("wine-%02d", idx))
			if _, err := svc.Commit(snap, "Avery", fmt.Sprintf("save %02d", idx)); err != nil {
				errCh <- err
			}
		}(i)
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			t.Fatalf("Commit() concurrent error = %v", err)
		}
	}

	items, err := svc.List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != writers {
		t.Fatalf("expected %d commits, got %d", writers, len(items))
	}
}
