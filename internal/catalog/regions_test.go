package catalog

import "testing"

func TestClassifyWineryManualTagWins(t *testing.T) {
	w := Winery{Region: "Langhe", Location: "Gattinara"}
	if got := ClassifyWinery(w); got != "langhe" {
		t.Fatalf("expected langhe, got %q", got)
	}
}

func TestClassifyWineryLegacyAliases(t *testing.T) {
	cases := map[string]string{
		"bassa valle":        "bassa",
		"zona di Nus":        "nus-quart",
		"Quart":              "nus-quart",
		"plaine":             "la-plaine",
		"media valle":        "plaine-to-valdigne",
		"verso la valdigne":  "plaine-to-valdigne",
	}
	for tag, want := range cases {
		got := ClassifyWinery(Winery{Region: tag})
		if got != want {
			t.Fatalf("tag %q: expected %q, got %q", tag, want, got)
		}
	}
}

func TestClassifyWineryLocationFallback(t *testing.T) {
	w := Winery{Location: "Fraz. Pied de Ville, Morgex (AO)"}
	if got := ClassifyWinery(w); got != "valdigne" {
		t.Fatalf("expected valdigne, got %q", got)
	}
}

func TestClassifyWineryUnknown(t *testing.T) {
	if got := ClassifyWinery(Winery{Name: "Somewhere"}); got != ZoneUnknown {
		t.Fatalf("expected unknown, got %q", got)
	}
}

func TestClassifyWineryIsPure(t *testing.T) {
	w := Winery{Location: "Barolo (CN)"}
	first := ClassifyWinery(w)
	for i := 0; i < 20; i++ {
		if got := ClassifyWinery(w); got != first {
			t.Fatalf("classification changed between calls: %q vs %q", first, got)
		}
	}
	if first != "langhe" {
		t.Fatalf("expected langhe, got %q", first)
	}
}

func TestRegionOf(t *testing.T) {
	if got := RegionOf("nus-quart"); got != "vda" {
		t.Fatalf("expected vda, got %q", got)
	}
	if got := RegionOf("monferrato"); got != "piemonte" {
		t.Fatalf("expected piemonte, got %q", got)
	}
	if got := RegionOf(ZoneUnknown); got != "" {
		t.Fatalf("expected empty group for unknown, got %q", got)
	}
}
