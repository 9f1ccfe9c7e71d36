package catalog

import "encoding/json"

// Collection transforms. Each one mutates the receiver in place; callers work
// on a Clone and submit the whole document afterwards.

func (d *Document) UpsertWine(w Wine) {
	for i := range d.Wines {
		if d.Wines[i].ID == w.ID {
			d.Wines[i] = w
			return
		}
	}
	d.Wines = append(d.Wines, w)
}

func (d *Document) DeleteWine(id string) bool {
	for i := range d.Wines {
		if d.Wines[i].ID == id {
			d.Wines = append(d.Wines[:i], d.Wines[i+1:]...)
			return true
		}
	}
	return false
}

// MergeWines applies a batch of partial wine patches by id. Entries without an
// id, or whose id matches nothing, are skipped without error. Returns the
// number of wines updated.
func (d *Document) MergeWines(patches []json.RawMessage) int {
	updated := 0
	for _, raw := range patches {
		var probe struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil || probe.ID == "" {
			continue
		}
		w := d.FindWine(probe.ID)
		if w == nil {
			continue
		}
		if err := json.Unmarshal(raw, w); err != nil {
			continue
		}
		updated++
	}
	return updated
}

func (d *Document) WipeWines() {
	d.Wines = []Wine{}
}

func (d *Document) UpsertWinery(w Winery) {
	for i := range d.Wineries {
		if d.Wineries[i].ID == w.ID {
			d.Wineries[i] = w
			return
		}
	}
	d.Wineries = append(d.Wineries, w)
}

func (d *Document) DeleteWinery(id string) bool {
	for i := range d.Wineries {
		if d.Wineries[i].ID == id {
			d.Wineries = append(d.Wineries[:i], d.Wineries[i+1:]...)
			return true
		}
	}
	return false
}

func (d *Document) WipeWineries() {
	d.Wineries = []Winery{}
}

func (d *Document) UpsertMenuItem(m MenuItem) {
	for i := range d.Menu {
		if d.Menu[i].ID == m.ID {
			d.Menu[i] = m
			return
		}
	}
	d.Menu = append(d.Menu, m)
}

func (d *Document) DeleteMenuItem(id string) bool {
	for i := range d.Menu {
		if d.Menu[i].ID == id {
			d.Menu = append(d.Menu[:i], d.Menu[i+1:]...)
			return true
		}
	}
	return false
}

func (d *Document) WipeMenu() {
	d.Menu = []MenuItem{}
}

func (d *Document) UpsertGlossaryItem(g GlossaryItem) {
	for i := range d.Glossary {
		if d.Glossary[i].Term == g.Term {
			d.Glossary[i] = g
			return
		}
	}
	d.Glossary = append(d.Glossary, g)
}

func (d *Document) DeleteGlossaryItem(term string) bool {
	for i := range d.Glossary {
		if d.Glossary[i].Term == term {
			d.Glossary = append(d.Glossary[:i], d.Glossary[i+1:]...)
			return true
		}
	}
	return false
}

func (d *Document) WipeGlossary() {
	d.Glossary = []GlossaryItem{}
}

func (d *Document) UpsertAiInstruction(a AiInstruction) {
	for i := range d.AiInstructions {
		if d.AiInstructions[i].ID == a.ID {
			d.AiInstructions[i] = a
			return
		}
	}
	d.AiInstructions = append(d.AiInstructions, a)
}

func (d *Document) DeleteAiInstruction(id string) bool {
	for i := range d.AiInstructions {
		if d.AiInstructions[i].ID == id {
			d.AiInstructions = append(d.AiInstructions[:i], d.AiInstructions[i+1:]...)
			return true
		}
	}
	return false
}

func (d *Document) WipeAiInstructions() {
	d.AiInstructions = []AiInstruction{}
}

// WipeAll replaces every collection with an empty one.
func (d *Document) WipeAll() {
	*d = Empty()
}
