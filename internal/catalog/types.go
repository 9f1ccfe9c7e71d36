package catalog

// Document is the root aggregate: five collections persisted, replaced and
// broadcast as a whole. There is no partial-patch path anywhere.
type Document struct {
	Wines          []Wine          `json:"wines"`
	Wineries       []Winery        `json:"wineries"`
	Menu           []MenuItem      `json:"menu"`
	Glossary       []GlossaryItem  `json:"glossary"`
	AiInstructions []AiInstruction `json:"ai_instructions"`
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Vintage struct {
	Year  string `json:"year"`
	Price string `json:"price"`
}

// IanuaPairing is a curated reverse link from a wine to a menu dish.
type IanuaPairing struct {
	DishID      string `json:"dishId"`
	Label       string `json:"label"`
	Notes       string `json:"notes"`
	Description string `json:"description"`
}

type VerifiedPairing struct {
	WineID          string  `json:"wineId"`
	Justification   string  `json:"justification"`
	Score           float64 `json:"score"`
	Label           string  `json:"label"`
	TechnicalDetail string  `json:"technicalDetail"`
}

type Wine struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	WineryID    string `json:"wineryId"`
	Grapes      string `json:"grapes,omitempty"`
	Alcohol     string `json:"alcohol,omitempty"`
	Temperature string `json:"temperature,omitempty"`
	Pairing     string `json:"pairing,omitempty"`
	Description string `json:"description,omitempty"`
	// Price is free text and may embed several vintage/price pairs;
	// Vintages is the structured override when present.
	Price    string    `json:"price,omitempty"`
	Vintages []Vintage `json:"vintages,omitempty"`
	Image    string    `json:"image,omitempty"`
	Type     string    `json:"type,omitempty"`
	Hidden   bool      `json:"hidden,omitempty"`

	SensoryProfile string `json:"sensoryProfile,omitempty"`
	Curiosity      string `json:"curiosity,omitempty"`

	PairingEN        string `json:"pairing_en,omitempty"`
	PairingFR        string `json:"pairing_fr,omitempty"`
	DescriptionEN    string `json:"description_en,omitempty"`
	DescriptionFR    string `json:"description_fr,omitempty"`
	SensoryProfileEN string `json:"sensoryProfile_en,omitempty"`
	SensoryProfileFR string `json:"sensoryProfile_fr,omitempty"`
	CuriosityEN      string `json:"curiosity_en,omitempty"`
	CuriosityFR      string `json:"curiosity_fr,omitempty"`

	IanuaPairings []IanuaPairing `json:"ianuaPairings,omitempty"`
}

type Winery struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
	// Region is the explicit zone tag; authoritative when present.
	Region      string       `json:"region,omitempty"`
	Description string       `json:"description,omitempty"`
	Website     string       `json:"website,omitempty"`
	Curiosity   string       `json:"curiosity,omitempty"`
	Image       string       `json:"image,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`

	DescriptionEN string `json:"description_en,omitempty"`
	DescriptionFR string `json:"description_fr,omitempty"`
	CuriosityEN   string `json:"curiosity_en,omitempty"`
	CuriosityFR   string `json:"curiosity_fr,omitempty"`
}

type MenuItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Price       string `json:"price,omitempty"`
	Description string `json:"description,omitempty"`
	Allergens   string `json:"allergens,omitempty"`
	Story       string `json:"story,omitempty"`
	Preparation string `json:"preparation,omitempty"`
	Image       string `json:"image,omitempty"`
	Hidden      bool   `json:"hidden,omitempty"`

	NameEN        string `json:"name_en,omitempty"`
	NameFR        string `json:"name_fr,omitempty"`
	DescriptionEN string `json:"description_en,omitempty"`
	DescriptionFR string `json:"description_fr,omitempty"`
	StoryEN       string `json:"story_en,omitempty"`
	StoryFR       string `json:"story_fr,omitempty"`
	PreparationEN string `json:"preparation_en,omitempty"`
	PreparationFR string `json:"preparation_fr,omitempty"`

	VerifiedPairings []VerifiedPairing `json:"verifiedPairings,omitempty"`
}

type GlossaryItem struct {
	Term         string `json:"term"`
	Category     string `json:"category,omitempty"`
	Definition   string `json:"definition,omitempty"`
	DefinitionEN string `json:"definition_en,omitempty"`
	DefinitionFR string `json:"definition_fr,omitempty"`
}

type AiInstruction struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// Empty returns a document with all five collections present and empty.
func Empty() Document {
	return Document{
		Wines:          []Wine{},
		Wineries:       []Winery{},
		Menu:           []MenuItem{},
		Glossary:       []GlossaryItem{},
		AiInstructions: []AiInstruction{},
	}
}

// Normalize replaces nil collections with empty slices so the wire format
// always carries all five arrays.
func (d *Document) Normalize() {
	if d.Wines == nil {
		d.Wines = []Wine{}
	}
	if d.Wineries == nil {
		d.Wineries = []Winery{}
	}
	if d.Menu == nil {
		d.Menu = []MenuItem{}
	}
	if d.Glossary == nil {
		d.Glossary = []GlossaryItem{}
	}
	if d.AiInstructions == nil {
		d.AiInstructions = []AiInstruction{}
	}
}

// Clone returns a deep copy. Mutations always run on a copy so a failed save
// leaves the shared in-memory document untouched.
func (d Document) Clone() Document {
	out := Document{
		Wines:          make([]Wine, len(d.Wines)),
		Wineries:       make([]Winery, len(d.Wineries)),
		Menu:           make([]MenuItem, len(d.Menu)),
		Glossary:       make([]GlossaryItem, len(d.Glossary)),
		AiInstructions: make([]AiInstruction, len(d.AiInstructions)),
	}
	copy(out.Glossary, d.Glossary)
	copy(out.AiInstructions, d.AiInstructions)
	for i, w := range d.Wines {
		w.Vintages = append([]Vintage(nil), w.Vintages...)
		w.IanuaPairings = append([]IanuaPairing(nil), w.IanuaPairings...)
		out.Wines[i] = w
	}
	for i, w := range d.Wineries {
		if w.Coordinates != nil {
			c := *w.Coordinates
			w.Coordinates = &c
		}
		out.Wineries[i] = w
	}
	for i, m := range d.Menu {
		m.VerifiedPairings = append([]VerifiedPairing(nil), m.VerifiedPairings...)
		out.Menu[i] = m
	}
	return out
}

// FindWinery returns the winery with the given id, or nil.
func (d *Document) FindWinery(id string) *Winery {
	for i := range d.Wineries {
		if d.Wineries[i].ID == id {
			return &d.Wineries[i]
		}
	}
	return nil
}

// FindWine returns the wine with the given id, or nil.
func (d *Document) FindWine(id string) *Wine {
	for i := range d.Wines {
		if d.Wines[i].ID == id {
			return &d.Wines[i]
		}
	}
	return nil
}
