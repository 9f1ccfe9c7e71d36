// Package reconcile merges externally supplied catalog data into the current
// document: records are matched by id or fuzzy name, merged field by field
// under an explicit policy, and the result is one replacement document.
package reconcile

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"ianua/api/internal/catalog"
)

// Format identifies the accepted payload shapes. Callers should send the
// discriminator; when absent the legacy sniffing order is applied.
type Format string

const (
	FormatAuto     Format = ""
	FormatWineries Format = "wineries" // bare array of winery-like objects
	FormatBundle   Format = "bundle"   // {wineries,glossary} or {winery,wines,glossary}
	FormatWinery   Format = "winery"   // bare winery object, wines embedded
)

// MatchScope controls how incoming wines are matched against existing ones.
type MatchScope string

const (
	// MatchPerWinery restricts name/id matching to wines already linked to
	// the resolved winery, so equal names under different wineries never
	// collide.
	MatchPerWinery MatchScope = "perWinery"
	// MatchGlobal matches across the whole wine collection (integrative
	// wine-only imports).
	MatchGlobal MatchScope = "global"
)

// Policy parameterizes the merge. Every import entry point instantiates one
// policy instead of duplicating the merge loop.
type Policy struct {
	// OverwriteImages allows a non-empty incoming image that does not look
	// like a placeholder to replace the stored one. When false the stored
	// image always wins.
	OverwriteImages bool
	// CreateMissingWinery creates a winery record when nothing matches;
	// when false the incoming wines keep their declared wineryId and may
	// end up orphaned.
	CreateMissingWinery bool
	MatchScope          MatchScope
}

// DefaultPolicy is the full-import behavior.
func DefaultPolicy() Policy {
	return Policy{OverwriteImages: true, CreateMissingWinery: true, MatchScope: MatchPerWinery}
}

// Item is one winery with its wines, both kept raw so that merging preserves
// the distinction between an absent field and an empty one.
type Item struct {
	Winery json.RawMessage
	Wines  []json.RawMessage
}

// Payload is a normalized import: a list of items plus an optional glossary.
type Payload struct {
	Format   Format
	Items    []Item
	Glossary []catalog.GlossaryItem
}

// Summary reports what the merge did. FailedNames carries the identity of
// every item that errored, not just a count.
type Summary struct {
	AddedWineries   int      `json:"addedWineries"`
	UpdatedWineries int      `json:"updatedWineries"`
	AddedWines      int      `json:"addedWines"`
	UpdatedWines    int      `json:"updatedWines"`
	AddedGlossary   int      `json:"addedGlossary"`
	Errors          int      `json:"errors"`
	FailedNames     []string `json:"failedNames,omitempty"`
	// LastRegion is the classified zone of the last touched winery, used by
	// the caller to switch the active region after an import.
	LastRegion string `json:"lastRegion,omitempty"`
}

const (
	defaultWineryImage = "https://ianua.it/site/assets/files/1/img_20221021_204707_hdr.webp"
	wineImagePrefix    = "https://via.placeholder.com/150x400?text="
)

var defaultCoordinates = catalog.Coordinates{Lat: 45, Lng: 7}

// ParseError reports a payload that matches none of the accepted shapes, or
// that contradicts its declared format.
type ParseError struct {
	Format Format
	Reason string
}

func (e *ParseError) Error() string {
	if e.Format != FormatAuto {
		return fmt.Sprintf("import payload does not match declared format %q: %s", e.Format, e.Reason)
	}
	return "import payload matches no known shape: " + e.Reason
}

type bundleEnvelope struct {
	Wineries []json.RawMessage      `json:"wineries"`
	Winery   json.RawMessage        `json:"winery"`
	Wines    []json.RawMessage      `json:"wines"`
	Glossary []catalog.GlossaryItem `json:"glossary"`
}

// Parse normalizes a raw import body into a Payload. With FormatAuto the
// legacy order is tried: bare array, {wineries}, {winery,wines}, bare
// winery-like object with id, name and location.
func Parse(raw []byte, format Format) (Payload, error) {
	switch format {
	case FormatWineries:
		return parseWineries(raw)
	case FormatBundle:
		return parseBundle(raw)
	case FormatWinery:
		return parseBareWinery(raw, false)
	case FormatAuto:
	default:
		return Payload{}, &ParseError{Format: format, Reason: "unknown format"}
	}

	trimmed := strings.TrimLeft(string(raw), " \t\r\n")
	if strings.HasPrefix(trimmed, "[") {
		return parseWineries(raw)
	}

	var env bundleEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Payload{}, &ParseError{Reason: "invalid JSON: " + err.Error()}
	}
	if env.Wineries != nil {
		return parseBundle(raw)
	}
	if env.Winery != nil && env.Wines != nil {
		return parseBundle(raw)
	}
	return parseBareWinery(raw, true)
}

func parseWineries(raw []byte) (Payload, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return Payload{}, &ParseError{Format: FormatWineries, Reason: "expected a JSON array: " + err.Error()}
	}
	p := Payload{Format: FormatWineries}
	for _, elem := range elems {
		p.Items = append(p.Items, normalizeItem(elem))
	}
	return p, nil
}

func parseBundle(raw []byte) (Payload, error) {
	var env bundleEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Payload{}, &ParseError{Format: FormatBundle, Reason: "expected a JSON object: " + err.Error()}
	}
	p := Payload{Format: FormatBundle, Glossary: env.Glossary}
	switch {
	case env.Wineries != nil:
		for _, elem := range env.Wineries {
			p.Items = append(p.Items, normalizeItem(elem))
		}
	case env.Winery != nil:
		p.Items = append(p.Items, Item{Winery: env.Winery, Wines: env.Wines})
	default:
		return Payload{}, &ParseError{Format: FormatBundle, Reason: "neither wineries nor winery present"}
	}
	return p, nil
}

// parseBareWinery accepts a single winery-like object. In sniffing mode the
// object must carry id, name and location; a declared format only needs name.
func parseBareWinery(raw []byte, sniffing bool) (Payload, error) {
	var probe struct {
		ID       string            `json:"id"`
		Name     string            `json:"name"`
		Location string            `json:"location"`
		Wines    []json.RawMessage `json:"wines"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Payload{}, &ParseError{Format: FormatWinery, Reason: "expected a JSON object: " + err.Error()}
	}
	if probe.Name == "" || (sniffing && (probe.ID == "" || probe.Location == "")) {
		return Payload{}, &ParseError{Format: FormatWinery, Reason: "object is not winery-like (id, name, location)"}
	}
	return Payload{
		Format: FormatWinery,
		Items:  []Item{{Winery: raw, Wines: probe.Wines}},
	}, nil
}

// normalizeItem turns an array element into an Item whether it is a
// {winery,wines} pair or a bare winery object with embedded wines.
func normalizeItem(elem json.RawMessage) Item {
	var pair struct {
		Winery json.RawMessage   `json:"winery"`
		Wines  []json.RawMessage `json:"wines"`
	}
	if err := json.Unmarshal(elem, &pair); err == nil && pair.Winery != nil {
		return Item{Winery: pair.Winery, Wines: pair.Wines}
	}
	return Item{Winery: elem, Wines: pair.Wines}
}

// Apply merges the payload into a copy of doc and returns the replacement
// document with a summary. Item failures are counted and named; they never
// abort the rest of the batch.
func Apply(doc catalog.Document, p Payload, policy Policy) (catalog.Document, Summary) {
	next := doc.Clone()
	var sum Summary
	var lastWinery catalog.Winery
	var anyTouched bool

	for i, item := range p.Items {
		touched, ok, err := applyItem(&next, item, policy, &sum)
		if err != nil {
			sum.Errors++
			sum.FailedNames = append(sum.FailedNames, itemName(item, i))
			continue
		}
		if ok {
			lastWinery = touched
			anyTouched = true
		}
	}

	sum.AddedGlossary = mergeGlossary(&next, p.Glossary)

	if anyTouched {
		sum.LastRegion = catalog.ClassifyWinery(lastWinery)
	}
	next.Normalize()
	return next, sum
}

func applyItem(doc *catalog.Document, item Item, policy Policy, sum *Summary) (catalog.Winery, bool, error) {
	var incoming catalog.Winery
	if err := json.Unmarshal(item.Winery, &incoming); err != nil {
		return catalog.Winery{}, false, fmt.Errorf("decode winery: %w", err)
	}
	if incoming.Name == "" {
		return catalog.Winery{}, false, fmt.Errorf("winery has no name")
	}

	var touched catalog.Winery
	var ok bool
	resolvedID := incoming.ID

	existing := matchWinery(doc, incoming)
	switch {
	case existing != nil:
		merged := *existing
		if err := json.Unmarshal(item.Winery, &merged); err != nil {
			return catalog.Winery{}, false, fmt.Errorf("merge winery %s: %w", incoming.Name, err)
		}
		merged.ID = existing.ID
		merged.Image = mergeImage(existing.Image, incoming.Image, policy.OverwriteImages)
		*existing = merged
		resolvedID = existing.ID
		touched, ok = merged, true
		sum.UpdatedWineries++
	case policy.CreateMissingWinery:
		created := incoming
		if created.ID == "" || doc.FindWinery(created.ID) != nil {
			created.ID = catalog.NewID("winery")
		}
		if created.Image == "" {
			created.Image = defaultWineryImage
		}
		if created.Coordinates == nil {
			c := defaultCoordinates
			created.Coordinates = &c
		}
		doc.Wineries = append(doc.Wineries, created)
		resolvedID = created.ID
		touched, ok = created, true
		sum.AddedWineries++
	}

	for _, rawWine := range item.Wines {
		if err := applyWine(doc, rawWine, resolvedID, policy, sum); err != nil {
			return touched, ok, err
		}
	}
	return touched, ok, nil
}

func applyWine(doc *catalog.Document, raw json.RawMessage, wineryID string, policy Policy, sum *Summary) error {
	var incoming catalog.Wine
	if err := json.Unmarshal(raw, &incoming); err != nil {
		return fmt.Errorf("decode wine: %w", err)
	}
	if incoming.Name == "" && incoming.ID == "" {
		return fmt.Errorf("wine has neither id nor name")
	}

	existing := matchWine(doc, incoming, wineryID, policy.MatchScope)
	if existing != nil {
		merged := *existing
		if err := json.Unmarshal(raw, &merged); err != nil {
			return fmt.Errorf("merge wine %s: %w", incoming.Name, err)
		}
		merged.ID = existing.ID
		merged.Image = mergeImage(existing.Image, incoming.Image, policy.OverwriteImages)
		if wineryID != "" {
			merged.WineryID = wineryID
		}
		*existing = merged
		sum.UpdatedWines++
		return nil
	}

	created := incoming
	if created.ID == "" || doc.FindWine(created.ID) != nil {
		created.ID = catalog.NewID("wine")
	}
	if wineryID != "" {
		created.WineryID = wineryID
	}
	if created.Image == "" {
		label := created.Name
		if label == "" {
			label = "VINO"
		}
		created.Image = wineImagePrefix + url.QueryEscape(label)
	}
	doc.Wines = append(doc.Wines, created)
	sum.AddedWines++
	return nil
}

// matchWinery finds an existing winery by exact id first, then by
// case-insensitive trimmed name.
func matchWinery(doc *catalog.Document, incoming catalog.Winery) *catalog.Winery {
	if incoming.ID != "" {
		if w := doc.FindWinery(incoming.ID); w != nil {
			return w
		}
	}
	name := foldName(incoming.Name)
	for i := range doc.Wineries {
		if foldName(doc.Wineries[i].Name) == name {
			return &doc.Wineries[i]
		}
	}
	return nil
}

func matchWine(doc *catalog.Document, incoming catalog.Wine, wineryID string, scope MatchScope) *catalog.Wine {
	name := foldName(incoming.Name)
	for i := range doc.Wines {
		w := &doc.Wines[i]
		if scope == MatchPerWinery && w.WineryID != wineryID {
			continue
		}
		if (incoming.ID != "" && w.ID == incoming.ID) || (name != "" && foldName(w.Name) == name) {
			return w
		}
	}
	return nil
}

// mergeImage keeps the stored image unless the incoming one is present and
// does not look like a placeholder.
func mergeImage(existing, incoming string, overwrite bool) string {
	if !overwrite || incoming == "" || strings.Contains(incoming, "placeholder") {
		return existing
	}
	return incoming
}

// mergeGlossary adds terms whose lowercased form is new; duplicates are
// dropped without touching the stored entry.
func mergeGlossary(doc *catalog.Document, items []catalog.GlossaryItem) int {
	if len(items) == 0 {
		return 0
	}
	seen := make(map[string]bool, len(doc.Glossary))
	for _, g := range doc.Glossary {
		seen[strings.ToLower(g.Term)] = true
	}
	added := 0
	for _, g := range items {
		key := strings.ToLower(g.Term)
		if g.Term == "" || seen[key] {
			continue
		}
		seen[key] = true
		doc.Glossary = append(doc.Glossary, g)
		added++
	}
	return added
}

func itemName(item Item, idx int) string {
	var probe struct {
		Name string `json:"name"`
		Winery struct {
			Name string `json:"name"`
		} `json:"winery"`
	}
	_ = json.Unmarshal(item.Winery, &probe)
	if probe.Name != "" {
		return probe.Name
	}
	return fmt.Sprintf("item %d", idx+1)
}

func foldName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
