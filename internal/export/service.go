package export

import (
	"context"
	"time"

	"ianua/api/internal/catalog"
)

// Service renders exports from the live document.
type Service struct {
	snapshot func() catalog.Document
}

func NewService(snapshot func() catalog.Document) *Service {
	return &Service{snapshot: snapshot}
}

// Export renders the requested catalog view. Hidden wines and dishes are
// left out.
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	lang := req.Language
	if lang != "en" && lang != "fr" {
		lang = "it"
	}
	doc := s.snapshot()

	var (
		html  string
		title string
		err   error
	)
	switch req.Kind {
	case KindWineList:
		title = wineListTitle(lang)
		html, err = renderWineList(templateData{
			Title:       title,
			GeneratedAt: time.Now(),
			WineGroups:  buildWineGroups(doc, lang),
		})
	case KindMenu:
		title = menuTitle(lang)
		html, err = renderMenu(templateData{
			Title:       title,
			GeneratedAt: time.Now(),
			MenuGroups:  buildMenuGroups(doc, lang),
		})
	default:
		return nil, ErrUnsupportedKind
	}
	if err != nil {
		return nil, err
	}

	switch req.Format {
	case FormatHTML, "":
		return &Result{
			Data:     []byte(html),
			Filename: sanitizeFilename(title) + ".html",
			MimeType: "text/html; charset=utf-8",
		}, nil
	case FormatPDF:
		return exportPDF(ctx, html, title)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func buildWineGroups(doc catalog.Document, lang string) []wineGroup {
	groups := make([]wineGroup, 0, len(doc.Wineries))
	for _, winery := range doc.Wineries {
		group := wineGroup{Winery: winery.Name, Location: winery.Location}
		for _, wine := range doc.Wines {
			if wine.Hidden || wine.WineryID != winery.ID {
				continue
			}
			group.Wines = append(group.Wines, wineRow{
				Name:        wine.Name,
				Grapes:      wine.Grapes,
				Description: pick(lang, wine.Description, wine.DescriptionEN, wine.DescriptionFR),
				Price:       wine.Price,
				Type:        wine.Type,
			})
		}
		if len(group.Wines) > 0 {
			groups = append(groups, group)
		}
	}

	// wines pointing at a missing winery still belong on the list
	orphans := wineGroup{Winery: orphanLabel(lang)}
	for _, wine := range doc.Wines {
		if wine.Hidden || doc.FindWinery(wine.WineryID) != nil {
			continue
		}
		orphans.Wines = append(orphans.Wines, wineRow{
			Name:        wine.Name,
			Grapes:      wine.Grapes,
			Description: pick(lang, wine.Description, wine.DescriptionEN, wine.DescriptionFR),
			Price:       wine.Price,
			Type:        wine.Type,
		})
	}
	if len(orphans.Wines) > 0 {
		groups = append(groups, orphans)
	}
	return groups
}

func buildMenuGroups(doc catalog.Document, lang string) []menuGroup {
	var order []string
	byCategory := map[string][]menuRow{}
	for _, item := range doc.Menu {
		if item.Hidden {
			continue
		}
		category := item.Category
		if category == "" {
			category = otherLabel(lang)
		}
		if _, seen := byCategory[category]; !seen {
			order = append(order, category)
		}
		byCategory[category] = append(byCategory[category], menuRow{
			Name:        pick(lang, item.Name, item.NameEN, item.NameFR),
			Description: pick(lang, item.Description, item.DescriptionEN, item.DescriptionFR),
			Allergens:   item.Allergens,
			Price:       item.Price,
		})
	}

	groups := make([]menuGroup, 0, len(order))
	for _, category := range order {
		groups = append(groups, menuGroup{Category: category, Items: byCategory[category]})
	}
	return groups
}

// pick returns the field in the requested language, falling back to Italian
// when the mirror is empty.
func pick(lang, it, en, fr string) string {
	switch lang {
	case "en":
		if en != "" {
			return en
		}
	case "fr":
		if fr != "" {
			return fr
		}
	}
	return it
}

func wineListTitle(lang string) string {
	switch lang {
	case "en":
		return "Wine List"
	case "fr":
		return "Carte des Vins"
	default:
		return "Carta dei Vini"
	}
}

func menuTitle(lang string) string {
	switch lang {
	case "en":
		return "Menu"
	case "fr":
		return "Menu"
	default:
		return "Menù"
	}
}

func orphanLabel(lang string) string {
	switch lang {
	case "en":
		return "Other wineries"
	case "fr":
		return "Autres caves"
	default:
		return "Altre cantine"
	}
}

func otherLabel(lang string) string {
	switch lang {
	case "en":
		return "Other"
	case "fr":
		return "Autres"
	default:
		return "Altro"
	}
}
