package search

// ResultType identifies the kind of catalog entity in a search result.
type ResultType string

const (
	ResultWine     ResultType = "wine"
	ResultWinery   ResultType = "winery"
	ResultMenu     ResultType = "menu"
	ResultGlossary ResultType = "glossary"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type     ResultType `json:"type"`
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Snippet  string     `json:"snippet"`
	WineryID string     `json:"wineryId,omitempty"`
	Category string     `json:"category,omitempty"`
}

// Query describes a search request.
type Query struct {
	Text       string
	FilterType ResultType // empty = all types
	Limit      int
	Offset     int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// WineRecord is the data indexed for a wine.
type WineRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Grapes      string `json:"grapes"`
	Type        string `json:"type"`
	WineryID    string `json:"wineryId"`
}

// WineryRecord is the data indexed for a winery.
type WineryRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// MenuRecord is the data indexed for a menu item.
type MenuRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// GlossaryRecord is the data indexed for a glossary term.
type GlossaryRecord struct {
	ID         string `json:"id"`
	Term       string `json:"term"`
	Definition string `json:"definition"`
	Category   string `json:"category"`
}
