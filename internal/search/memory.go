package search

import (
	"strings"
	"unicode/utf8"

	"ianua/api/internal/catalog"
)

// Memory searches the live document with case-insensitive substring matching.
// It is the fallback when Meilisearch is not configured or unhealthy.
type Memory struct {
	snapshot func() catalog.Document
}

// NewMemory builds the in-memory searcher over a document snapshot func.
func NewMemory(snapshot func() catalog.Document) *Memory {
	return &Memory{snapshot: snapshot}
}

func (m *Memory) Healthy() bool { return true }

func (m *Memory) Search(q Query) ([]Result, int, error) {
	needle := strings.ToLower(strings.TrimSpace(q.Text))
	if needle == "" {
		return []Result{}, 0, nil
	}
	doc := m.snapshot()

	var matches []Result
	include := func(t ResultType) bool {
		return q.FilterType == "" || q.FilterType == t
	}

	if include(ResultWine) {
		for _, w := range doc.Wines {
			if containsFold(needle, w.Name, w.Description, w.Grapes) {
				matches = append(matches, Result{
					Type: ResultWine, ID: w.ID, Name: w.Name,
					Snippet: snippet(w.Description), WineryID: w.WineryID,
				})
			}
		}
	}
	if include(ResultWinery) {
		for _, w := range doc.Wineries {
			if containsFold(needle, w.Name, w.Location, w.Description) {
				matches = append(matches, Result{
					Type: ResultWinery, ID: w.ID, Name: w.Name,
					Snippet: snippet(w.Description),
				})
			}
		}
	}
	if include(ResultMenu) {
		for _, item := range doc.Menu {
			if containsFold(needle, item.Name, item.Description) {
				matches = append(matches, Result{
					Type: ResultMenu, ID: item.ID, Name: item.Name,
					Snippet: snippet(item.Description), Category: item.Category,
				})
			}
		}
	}
	if include(ResultGlossary) {
		for _, g := range doc.Glossary {
			if containsFold(needle, g.Term, g.Definition) {
				matches = append(matches, Result{
					Type: ResultGlossary, ID: termID(g.Term), Name: g.Term,
					Snippet: snippet(g.Definition), Category: g.Category,
				})
			}
		}
	}

	total := len(matches)
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	start := q.Offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matches[start:end], total, nil
}

func containsFold(needle string, haystacks ...string) bool {
	for _, h := range haystacks {
		if h != "" && strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}

const snippetLen = 160

func snippet(s string) string {
	if len(s) <= snippetLen {
		return s
	}
	cut := s[:snippetLen]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	} else {
		// No space to break on; drop any partial trailing rune.
		for len(cut) > 0 {
			r, size := utf8.DecodeLastRuneInString(cut)
			if r != utf8.RuneError || size != 1 {
				break
			}
			cut = cut[:len(cut)-1]
		}
	}
	return cut + "…"
}
