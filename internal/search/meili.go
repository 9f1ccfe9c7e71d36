package search

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"

	"ianua/api/internal/catalog"
)

const (
	idxWines    = "ianua_wines"
	idxWineries = "ianua_wineries"
	idxMenu     = "ianua_menu"
	idxGlossary = "ianua_glossary"
)

// Meili indexes the four searchable collections in Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures the indexes. An
// unreachable server is tolerated; the health loop reconfigures once it
// comes back.
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		done:   make(chan struct{}),
	}

	if _, err := client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndexes()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndexes() {
	indexes := []struct {
		uid        string
		filterable []string
		searchable []string
	}{
		{
			uid:        idxWines,
			filterable: []string{"wineryId", "type"},
			searchable: []string{"name", "description", "grapes"},
		},
		{
			uid:        idxWineries,
			filterable: []string{},
			searchable: []string{"name", "location", "description"},
		},
		{
			uid:        idxMenu,
			filterable: []string{"category"},
			searchable: []string{"name", "description"},
		},
		{
			uid:        idxGlossary,
			filterable: []string{"category"},
			searchable: []string{"term", "definition"},
		},
	}

	for _, idx := range indexes {
		if _, err := m.client.CreateIndex(&meili.IndexConfig{
			Uid:        idx.uid,
			PrimaryKey: "id",
		}); err != nil {
			log.Printf("search: create index %s (may already exist): %v", idx.uid, err)
		}

		index := m.client.Index(idx.uid)
		filterableInterface := make([]interface{}, len(idx.filterable))
		for i, v := range idx.filterable {
			filterableInterface[i] = v
		}
		if _, err := index.UpdateFilterableAttributes(&filterableInterface); err != nil {
			log.Printf("search: update filterable attrs for %s: %v", idx.uid, err)
		}
		searchable := idx.searchable
		if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
			log.Printf("search: update searchable attrs for %s: %v", idx.uid, err)
		}
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("search: meilisearch recovered, reconfiguring indexes")
				m.configureIndexes()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Search queries all four indexes (or a filtered subset) and merges hits.
func (m *Meili) Search(q Query) ([]Result, int, error) {
	if !m.healthy.Load() {
		return nil, 0, fmt.Errorf("meilisearch unhealthy")
	}

	limit := int64(q.Limit)
	if limit <= 0 {
		limit = 20
	}
	offset := int64(q.Offset)
	if offset < 0 {
		offset = 0
	}

	targetIndexes := []struct {
		uid  string
		rtyp ResultType
	}{
		{idxWines, ResultWine},
		{idxWineries, ResultWinery},
		{idxMenu, ResultMenu},
		{idxGlossary, ResultGlossary},
	}

	var queries []*meili.SearchRequest
	for _, ti := range targetIndexes {
		if q.FilterType != "" && q.FilterType != ti.rtyp {
			continue
		}
		queries = append(queries, &meili.SearchRequest{
			IndexUID:              ti.uid,
			Query:                 q.Text,
			Limit:                 limit,
			Offset:                offset,
			AttributesToHighlight: []string{"*"},
			HighlightPreTag:       "<mark>",
			HighlightPostTag:      "</mark>",
		})
	}
	if len(queries) == 0 {
		return nil, 0, nil
	}

	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{Queries: queries})
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, fmt.Errorf("meilisearch multi-search: %w", err)
	}

	var results []Result
	total := 0
	for _, sr := range resp.Results {
		total += int(sr.EstimatedTotalHits)
		rtyp := indexToResultType(sr.IndexUID)
		for _, hit := range sr.Hits {
			results = append(results, hitToResult(hit, rtyp))
		}
	}
	return results, total, nil
}

// Reindex replaces the four indexes with the given document's content.
func (m *Meili) Reindex(doc catalog.Document) error {
	wines := make([]WineRecord, 0, len(doc.Wines))
	for _, w := range doc.Wines {
		wines = append(wines, WineRecord{
			ID: w.ID, Name: w.Name, Description: w.Description,
			Grapes: w.Grapes, Type: w.Type, WineryID: w.WineryID,
		})
	}
	wineries := make([]WineryRecord, 0, len(doc.Wineries))
	for _, w := range doc.Wineries {
		wineries = append(wineries, WineryRecord{
			ID: w.ID, Name: w.Name, Location: w.Location, Description: w.Description,
		})
	}
	menu := make([]MenuRecord, 0, len(doc.Menu))
	for _, item := range doc.Menu {
		menu = append(menu, MenuRecord{
			ID: item.ID, Name: item.Name, Description: item.Description, Category: item.Category,
		})
	}
	glossary := make([]GlossaryRecord, 0, len(doc.Glossary))
	for _, g := range doc.Glossary {
		glossary = append(glossary, GlossaryRecord{
			ID: termID(g.Term), Term: g.Term, Definition: g.Definition, Category: g.Category,
		})
	}

	if _, err := m.client.Index(idxWines).DeleteAllDocuments(nil); err != nil {
		return fmt.Errorf("clear wines index: %w", err)
	}
	if _, err := m.client.Index(idxWineries).DeleteAllDocuments(nil); err != nil {
		return fmt.Errorf("clear wineries index: %w", err)
	}
	if _, err := m.client.Index(idxMenu).DeleteAllDocuments(nil); err != nil {
		return fmt.Errorf("clear menu index: %w", err)
	}
	if _, err := m.client.Index(idxGlossary).DeleteAllDocuments(nil); err != nil {
		return fmt.Errorf("clear glossary index: %w", err)
	}

	if len(wines) > 0 {
		if _, err := m.client.Index(idxWines).AddDocuments(wines, nil); err != nil {
			return fmt.Errorf("index wines: %w", err)
		}
	}
	if len(wineries) > 0 {
		if _, err := m.client.Index(idxWineries).AddDocuments(wineries, nil); err != nil {
			return fmt.Errorf("index wineries: %w", err)
		}
	}
	if len(menu) > 0 {
		if _, err := m.client.Index(idxMenu).AddDocuments(menu, nil); err != nil {
			return fmt.Errorf("index menu: %w", err)
		}
	}
	if len(glossary) > 0 {
		if _, err := m.client.Index(idxGlossary).AddDocuments(glossary, nil); err != nil {
			return fmt.Errorf("index glossary: %w", err)
		}
	}
	return nil
}

// termID turns a glossary term into a valid Meilisearch primary key.
func termID(term string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(term) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return "term_" + b.String()
}

func indexToResultType(uid string) ResultType {
	switch uid {
	case idxWines:
		return ResultWine
	case idxWineries:
		return ResultWinery
	case idxMenu:
		return ResultMenu
	case idxGlossary:
		return ResultGlossary
	default:
		return ""
	}
}

func hitToResult(hit meili.Hit, rtyp ResultType) Result {
	r := Result{Type: rtyp}
	r.ID = decodeString(hit, "id")
	r.WineryID = decodeString(hit, "wineryId")
	r.Category = decodeString(hit, "category")

	switch rtyp {
	case ResultGlossary:
		r.Name = firstNonBlank(decodeFormattedString(hit, "term"), decodeString(hit, "term"))
		r.Snippet = firstNonBlank(decodeFormattedString(hit, "definition"), decodeString(hit, "definition"))
	default:
		r.Name = firstNonBlank(decodeFormattedString(hit, "name"), decodeString(hit, "name"))
		r.Snippet = firstNonBlank(decodeFormattedString(hit, "description"), decodeString(hit, "description"))
	}
	return r
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func decodeFormattedString(hit meili.Hit, key string) string {
	raw, ok := hit["_formatted"]
	if !ok {
		return ""
	}
	var formatted map[string]string
	if err := json.Unmarshal(raw, &formatted); err != nil {
		return ""
	}
	return strings.TrimSpace(formatted[key])
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
