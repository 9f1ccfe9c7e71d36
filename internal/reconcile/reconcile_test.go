package reconcile

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"ianua/api/internal/catalog"
)

func mustParse(t *testing.T, raw string, format Format) Payload {
	t.Helper()
	p, err := Parse([]byte(raw), format)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return p
}

func TestParseSniffingOrder(t *testing.T) {
	cases := []struct {
		raw  string
		want Format
	}{
		{`[{"name":"Cantina A"}]`, FormatWineries},
		{`{"wineries":[{"name":"Cantina A"}],"glossary":[]}`, FormatBundle},
		{`{"winery":{"name":"Cantina A"},"wines":[]}`, FormatBundle},
		{`{"id":"w1","name":"Cantina A","location":"Donnas"}`, FormatWinery},
	}
	for _, tc := range cases {
		p, err := Parse([]byte(tc.raw), FormatAuto)
		if err != nil {
			t.Fatalf("parse %s: %v", tc.raw, err)
		}
		if p.Format != tc.want {
			t.Fatalf("payload %s: expected format %q, got %q", tc.raw, tc.want, p.Format)
		}
		if len(p.Items) != 1 {
			t.Fatalf("payload %s: expected 1 item, got %d", tc.raw, len(p.Items))
		}
	}
}

func TestParseRejectsUnrecognizedShape(t *testing.T) {
	_, err := Parse([]byte(`{"name":"no id or location"}`), FormatAuto)
	if err == nil {
		t.Fatal("expected a parse error")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
}

func TestParseDeclaredFormatMismatch(t *testing.T) {
	_, err := Parse([]byte(`{"wineries":[]}`), FormatWineries)
	if err == nil {
		t.Fatal("expected error for object under wineries format")
	}
}

func TestMergePrecedenceKeepsIDAndImage(t *testing.T) {
	doc := catalog.Empty()
	doc.UpsertWinery(catalog.Winery{ID: "w1", Name: "Cantina A", Image: "real.jpg", Location: "Donnas"})

	p := mustParse(t, `{"winery":{"id":"w1","name":"Cantina A","image":"https://via.placeholder.com/150","website":"https://a.example"},"wines":[]}`, FormatAuto)
	next, sum := Apply(doc, p, DefaultPolicy())

	if sum.UpdatedWineries != 1 || sum.AddedWineries != 0 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	w := next.FindWinery("w1")
	if w == nil {
		t.Fatal("winery lost")
	}
	if w.Image != "real.jpg" {
		t.Fatalf("placeholder image overwrote stored one: %q", w.Image)
	}
	if w.Website != "https://a.example" {
		t.Fatalf("incoming field not applied: %q", w.Website)
	}
	if w.Location != "Donnas" {
		t.Fatalf("absent incoming field wiped stored value: %q", w.Location)
	}
}

func TestMergeTakesRealIncomingImage(t *testing.T) {
	doc := catalog.Empty()
	doc.UpsertWinery(catalog.Winery{ID: "w1", Name: "Cantina A", Image: "old.jpg"})

	p := mustParse(t, `{"winery":{"id":"w1","name":"Cantina A","image":"new.jpg"},"wines":[]}`, FormatAuto)
	next, _ := Apply(doc, p, DefaultPolicy())

	if got := next.FindWinery("w1").Image; got != "new.jpg" {
		t.Fatalf("expected new.jpg, got %q", got)
	}
}

func TestMergeNeverOverwritesImagesWhenPolicyForbids(t *testing.T) {
	doc := catalog.Empty()
	doc.UpsertWinery(catalog.Winery{ID: "w1", Name: "Cantina A", Image: "old.jpg"})

	p := mustParse(t, `{"winery":{"id":"w1","name":"Cantina A","image":"new.jpg"},"wines":[]}`, FormatAuto)
	policy := DefaultPolicy()
	policy.OverwriteImages = false
	next, _ := Apply(doc, p, policy)

	if got := next.FindWinery("w1").Image; got != "old.jpg" {
		t.Fatalf("expected old.jpg, got %q", got)
	}
}

func TestScenarioImportIntoEmptyDocument(t *testing.T) {
	p := mustParse(t, `{"winery":{"id":"w1","name":"Cantina A"},"wines":[{"id":"v1","name":"Rosso"}]}`, FormatAuto)
	next, sum := Apply(catalog.Empty(), p, DefaultPolicy())

	if sum.AddedWineries != 1 || sum.AddedWines != 1 || sum.Errors != 0 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if len(next.Wines) != 1 || next.Wines[0].WineryID != "w1" {
		t.Fatalf("wine not linked to winery: %+v", next.Wines)
	}
	if next.Wines[0].Image == "" || next.Wineries[0].Image == "" {
		t.Fatal("created records should get placeholder images")
	}
	if next.Wineries[0].Coordinates == nil {
		t.Fatal("created winery should get default coordinates")
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	raw := `{"wineries":[{"id":"w1","name":"Cantina A","wines":[{"id":"v1","name":"Rosso"},{"name":"Bianco"}]},{"name":"Cantina B"}]}`
	p := mustParse(t, raw, FormatAuto)

	first, sum1 := Apply(catalog.Empty(), p, DefaultPolicy())
	if sum1.AddedWineries != 2 || sum1.AddedWines != 2 {
		t.Fatalf("first pass summary: %+v", sum1)
	}

	second, sum2 := Apply(first, p, DefaultPolicy())
	if sum2.AddedWineries != 0 || sum2.AddedWines != 0 {
		t.Fatalf("second pass created duplicates: %+v", sum2)
	}
	if sum2.UpdatedWineries != 2 || sum2.UpdatedWines != 2 {
		t.Fatalf("second pass should recognize every record as update: %+v", sum2)
	}
	if len(second.Wineries) != 2 || len(second.Wines) != 2 {
		t.Fatalf("duplicates created: %d wineries, %d wines", len(second.Wineries), len(second.Wines))
	}
}

func TestWineMatchingScopedToWinery(t *testing.T) {
	doc := catalog.Empty()
	doc.UpsertWinery(catalog.Winery{ID: "w1", Name: "Cantina A"})
	doc.UpsertWinery(catalog.Winery{ID: "w2", Name: "Cantina B"})
	doc.UpsertWine(catalog.Wine{ID: "v1", Name: "Rosso", WineryID: "w2"})

	p := mustParse(t, `{"winery":{"id":"w1","name":"Cantina A"},"wines":[{"name":"Rosso"}]}`, FormatAuto)
	next, sum := Apply(doc, p, DefaultPolicy())

	if sum.AddedWines != 1 || sum.UpdatedWines != 0 {
		t.Fatalf("name collision crossed winery boundary: %+v", sum)
	}
	if len(next.Wines) != 2 {
		t.Fatalf("expected 2 wines, got %d", len(next.Wines))
	}
}

func TestGlossaryDedupLeavesExistingUntouched(t *testing.T) {
	doc := catalog.Empty()
	doc.UpsertGlossaryItem(catalog.GlossaryItem{Term: "Fumin", Category: "Vitigno", Definition: "original definition"})

	p := mustParse(t, `{"wineries":[],"glossary":[{"term":"fumin","definition":"other"},{"term":"Barrique","definition":"new"}]}`, FormatAuto)
	next, sum := Apply(doc, p, DefaultPolicy())

	if sum.AddedGlossary != 1 {
		t.Fatalf("expected 1 glossary addition, got %d", sum.AddedGlossary)
	}
	if len(next.Glossary) != 2 {
		t.Fatalf("expected 2 terms, got %d", len(next.Glossary))
	}
	if next.Glossary[0].Definition != "original definition" || next.Glossary[0].Term != "Fumin" {
		t.Fatalf("existing term modified: %+v", next.Glossary[0])
	}
}

func TestPerItemErrorsDoNotAbortBatch(t *testing.T) {
	items := []json.RawMessage{
		json.RawMessage(`{"name":"Cantina A"}`),
		json.RawMessage(`{"location":"no name here"}`),
		json.RawMessage(`{"name":"Cantina C"}`),
	}
	raw, _ := json.Marshal(map[string]any{"wineries": items})
	p := mustParse(t, string(raw), FormatAuto)
	next, sum := Apply(catalog.Empty(), p, DefaultPolicy())

	if sum.AddedWineries != 2 {
		t.Fatalf("expected 2 added, got %d", sum.AddedWineries)
	}
	if sum.Errors != 1 {
		t.Fatalf("expected 1 error, got %d", sum.Errors)
	}
	if len(sum.FailedNames) != 1 || !strings.Contains(sum.FailedNames[0], "item 2") {
		t.Fatalf("failed item not identified: %v", sum.FailedNames)
	}
	if len(next.Wineries) != 2 {
		t.Fatalf("expected 2 wineries, got %d", len(next.Wineries))
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	doc := catalog.Empty()
	doc.UpsertWinery(catalog.Winery{ID: "w1", Name: "Cantina A", Image: "old.jpg"})

	p := mustParse(t, `{"winery":{"id":"w1","name":"Cantina A","image":"new.jpg"},"wines":[{"name":"Rosso"}]}`, FormatAuto)
	_, _ = Apply(doc, p, DefaultPolicy())

	if doc.Wineries[0].Image != "old.jpg" || len(doc.Wines) != 0 {
		t.Fatalf("input document mutated: %+v", doc)
	}
}

func TestLastRegionClassified(t *testing.T) {
	p := mustParse(t, `{"winery":{"id":"w1","name":"Cantina A","location":"Morgex (AO)"},"wines":[]}`, FormatAuto)
	_, sum := Apply(catalog.Empty(), p, DefaultPolicy())
	if sum.LastRegion != "valdigne" {
		t.Fatalf("expected valdigne, got %q", sum.LastRegion)
	}
}
