package translate

import (
	"context"

	"ianua/api/internal/catalog"
)

// Summary reports how many entities a batch pass touched. Failures counts
// fields whose translation failed; those fields stay empty and are picked up
// by the next run.
type Summary struct {
	TranslatedWineries int `json:"translatedWineries"`
	TranslatedWines    int `json:"translatedWines"`
	TranslatedMenu     int `json:"translatedMenu"`
	TranslatedGlossary int `json:"translatedGlossary"`
	Failures           int `json:"failures"`
}

func (s Summary) Total() int {
	return s.TranslatedWineries + s.TranslatedWines + s.TranslatedMenu + s.TranslatedGlossary
}

// TranslateMissing walks the document and translates every field whose source
// text is set but whose English or French mirror is missing. Both mirrors are
// fetched together and only the empty ones are written, so existing
// translations are never overwritten and a re-run touches nothing that is
// already complete. The loop is sequential on purpose: providers are
// rate-limited. Per-field failures are counted and the batch continues;
// only context cancellation aborts it.
func TranslateMissing(ctx context.Context, tr Translator, doc catalog.Document) (catalog.Document, Summary, error) {
	next := doc.Clone()
	var sum Summary

	for i := range next.Wineries {
		if err := ctx.Err(); err != nil {
			return next, sum, err
		}
		w := &next.Wineries[i]
		updated := false
		updated = fillField(ctx, tr, w.Description, "winery description", &w.DescriptionEN, &w.DescriptionFR, &sum) || updated
		updated = fillField(ctx, tr, w.Curiosity, "winery fun fact", &w.CuriosityEN, &w.CuriosityFR, &sum) || updated
		if updated {
			sum.TranslatedWineries++
		}
	}

	for i := range next.Wines {
		if err := ctx.Err(); err != nil {
			return next, sum, err
		}
		w := &next.Wines[i]
		updated := false
		updated = fillField(ctx, tr, w.Description, "wine description", &w.DescriptionEN, &w.DescriptionFR, &sum) || updated
		updated = fillField(ctx, tr, w.Pairing, "wine pairing", &w.PairingEN, &w.PairingFR, &sum) || updated
		updated = fillField(ctx, tr, w.Curiosity, "wine fun fact", &w.CuriosityEN, &w.CuriosityFR, &sum) || updated
		if updated {
			sum.TranslatedWines++
		}
	}

	for i := range next.Menu {
		if err := ctx.Err(); err != nil {
			return next, sum, err
		}
		m := &next.Menu[i]
		updated := false
		updated = fillField(ctx, tr, m.Name, "dish name on a menu", &m.NameEN, &m.NameFR, &sum) || updated
		updated = fillField(ctx, tr, m.Description, "dish description", &m.DescriptionEN, &m.DescriptionFR, &sum) || updated
		if updated {
			sum.TranslatedMenu++
		}
	}

	for i := range next.Glossary {
		if err := ctx.Err(); err != nil {
			return next, sum, err
		}
		g := &next.Glossary[i]
		if fillField(ctx, tr, g.Definition, "wine glossary definition", &g.DefinitionEN, &g.DefinitionFR, &sum) {
			sum.TranslatedGlossary++
		}
	}

	return next, sum, nil
}

// fillField translates source when either mirror is missing and writes the
// empty mirrors. Reports whether anything was written.
func fillField(ctx context.Context, tr Translator, source, hint string, en, fr *string, sum *Summary) bool {
	if source == "" || (*en != "" && *fr != "") {
		return false
	}
	result, err := tr.Translate(ctx, source, hint)
	if err != nil {
		sum.Failures++
		return false
	}
	if *en == "" {
		*en = result.EN
	}
	if *fr == "" {
		*fr = result.FR
	}
	return true
}
