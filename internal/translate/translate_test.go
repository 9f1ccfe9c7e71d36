package translate

import (
	"context"
	"errors"
	"testing"

	"ianua/api/internal/catalog"
)

type fakeProvider struct {
	name   string
	result Result
	err    error
	calls  int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Translate(ctx context.Context, text, hint string) (Result, error) {
	f.calls++
	return f.result, f.err
}

func TestTranslateFallsBackOnError(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: errors.New("boom")}
	fallback := &fakeProvider{name: "fallback", result: Result{EN: "X", FR: "Y"}}
	o := NewOrchestrator(primary, fallback)

	got, err := o.Translate(context.Background(), "ciao", "greeting")
	if err != nil {
		t.Fatalf("expected fallback to hide primary failure, got %v", err)
	}
	if got.EN != "X" || got.FR != "Y" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if primary.calls != 1 || fallback.calls != 1 {
		t.Fatalf("expected one call each, got %d/%d", primary.calls, fallback.calls)
	}
}

func TestTranslateFallsBackOnEmptyResult(t *testing.T) {
	primary := &fakeProvider{name: "primary"}
	fallback := &fakeProvider{name: "fallback", result: Result{EN: "X", FR: "Y"}}
	o := NewOrchestrator(primary, fallback)

	got, err := o.Translate(context.Background(), "ciao", "")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if got.EN != "X" {
		t.Fatalf("expected fallback result, got %+v", got)
	}
}

func TestTranslatePrefersPrimary(t *testing.T) {
	primary := &fakeProvider{name: "primary", result: Result{EN: "A", FR: "B"}}
	fallback := &fakeProvider{name: "fallback", result: Result{EN: "X", FR: "Y"}}
	o := NewOrchestrator(primary, fallback)

	got, err := o.Translate(context.Background(), "ciao", "")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if got.EN != "A" || fallback.calls != 0 {
		t.Fatalf("fallback should not run when primary succeeds: %+v, %d calls", got, fallback.calls)
	}
}

func TestTranslateEmptyInputSkipsProviders(t *testing.T) {
	primary := &fakeProvider{name: "primary", result: Result{EN: "A", FR: "B"}}
	o := NewOrchestrator(primary, nil)

	got, err := o.Translate(context.Background(), "   ", "")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if got.EN != "" || got.FR != "" || primary.calls != 0 {
		t.Fatalf("empty input must short-circuit: %+v, %d calls", got, primary.calls)
	}
}

func TestTranslateBothProvidersFail(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: errors.New("primary down")}
	fallback := &fakeProvider{name: "fallback", err: errors.New("fallback down")}
	o := NewOrchestrator(primary, fallback)

	_, err := o.Translate(context.Background(), "ciao", "")
	if err == nil || err.Error() != "fallback down" {
		t.Fatalf("expected fallback error to propagate, got %v", err)
	}
}

type recordingTranslator struct {
	result Result
	failOn string
	calls  []string
}

func (r *recordingTranslator) Translate(ctx context.Context, text, hint string) (Result, error) {
	r.calls = append(r.calls, text)
	if r.failOn != "" && text == r.failOn {
		return Result{}, errors.New("provider error")
	}
	return r.result, nil
}

func TestTranslateMissingFillsOnlyEmptyMirrors(t *testing.T) {
	doc := catalog.Empty()
	doc.UpsertWine(catalog.Wine{
		ID:            "v1",
		Description:   "vino rosso",
		DescriptionEN: "red wine",
	})

	tr := &recordingTranslator{result: Result{EN: "new en", FR: "vin rouge"}}
	next, sum, err := TranslateMissing(context.Background(), tr, doc)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}

	w := next.FindWine("v1")
	if w.DescriptionEN != "red wine" {
		t.Fatalf("existing translation overwritten: %q", w.DescriptionEN)
	}
	if w.DescriptionFR != "vin rouge" {
		t.Fatalf("missing mirror not filled: %q", w.DescriptionFR)
	}
	if len(tr.calls) != 1 {
		t.Fatalf("expected one provider call, got %d", len(tr.calls))
	}
	if sum.TranslatedWines != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestTranslateMissingIsIdempotent(t *testing.T) {
	doc := catalog.Empty()
	doc.UpsertWinery(catalog.Winery{ID: "w1", Description: "storica cantina"})
	doc.UpsertGlossaryItem(catalog.GlossaryItem{Term: "Fumin", Definition: "vitigno autoctono"})

	tr := &recordingTranslator{result: Result{EN: "en", FR: "fr"}}
	first, sum1, err := TranslateMissing(context.Background(), tr, doc)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	if sum1.TranslatedWineries != 1 || sum1.TranslatedGlossary != 1 {
		t.Fatalf("first pass summary: %+v", sum1)
	}

	tr.calls = nil
	_, sum2, err := TranslateMissing(context.Background(), tr, first)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if len(tr.calls) != 0 {
		t.Fatalf("second pass called the provider %d times", len(tr.calls))
	}
	if sum2.Total() != 0 {
		t.Fatalf("second pass summary: %+v", sum2)
	}
}

func TestTranslateMissingCountsFailuresAndContinues(t *testing.T) {
	doc := catalog.Empty()
	doc.UpsertWine(catalog.Wine{ID: "v1", Description: "fallisce"})
	doc.UpsertWine(catalog.Wine{ID: "v2", Description: "funziona"})

	tr := &recordingTranslator{result: Result{EN: "en", FR: "fr"}, failOn: "fallisce"}
	next, sum, err := TranslateMissing(context.Background(), tr, doc)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if sum.Failures != 1 || sum.TranslatedWines != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if next.FindWine("v1").DescriptionEN != "" {
		t.Fatal("failed field should stay empty")
	}
	if next.FindWine("v2").DescriptionEN != "en" {
		t.Fatal("later field not translated after failure")
	}
}

func TestTranslateMissingDoesNotMutateInput(t *testing.T) {
	doc := catalog.Empty()
	doc.UpsertMenuItem(catalog.MenuItem{ID: "m1", Name: "Carbonada"})

	tr := &recordingTranslator{result: Result{EN: "en", FR: "fr"}}
	_, _, err := TranslateMissing(context.Background(), tr, doc)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if doc.Menu[0].NameEN != "" {
		t.Fatal("input document mutated")
	}
}

func TestParseResultStripsCodeFences(t *testing.T) {
	got, err := parseResult("```json\n{\"en\": \"hello\", \"fr\": \"bonjour\"}\n```")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.EN != "hello" || got.FR != "bonjour" {
		t.Fatalf("unexpected result: %+v", got)
	}
}
