package export

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

type wineRow struct {
	Name        string
	Grapes      string
	Description string
	Price       string
	Type        string
}

type wineGroup struct {
	Winery   string
	Location string
	Wines    []wineRow
}

type menuRow struct {
	Name        string
	Description string
	Allergens   string
	Price       string
}

type menuGroup struct {
	Category string
	Items    []menuRow
}

type templateData struct {
	Title       string
	GeneratedAt time.Time
	WineGroups  []wineGroup
	MenuGroups  []menuGroup
}

var wineListTemplate = template.Must(template.New("winelist").Parse(wineListHTML))
var menuTemplate = template.Must(template.New("menu").Parse(menuHTML))

func renderWineList(data templateData) (string, error) {
	var buf bytes.Buffer
	if err := wineListTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render wine list: %w", err)
	}
	return buf.String(), nil
}

func renderMenu(data templateData) (string, error) {
	var buf bytes.Buffer
	if err := menuTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render menu: %w", err)
	}
	return buf.String(), nil
}

const pageStyle = `
    body { font-family: Georgia, serif; line-height: 1.5; max-width: 720px; margin: 2rem auto; color: #222; }
    h1 { text-align: center; font-variant: small-caps; border-bottom: 1px solid #999; padding-bottom: 0.5rem; }
    h2 { margin-top: 2rem; font-variant: small-caps; }
    .sub { color: #666; font-size: 0.85em; font-style: italic; }
    .row { display: flex; justify-content: space-between; margin: 0.6rem 0 0; }
    .price { white-space: nowrap; margin-left: 1rem; }
    .desc { color: #444; font-size: 0.9em; margin: 0.1rem 0 0; }
    .allergens { color: #888; font-size: 0.8em; }
    .footer { margin-top: 3rem; text-align: center; color: #999; font-size: 0.75em; }
`

const wineListHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>` + pageStyle + `</style>
</head>
<body>
  <h1>{{.Title}}</h1>
  {{range .WineGroups}}
  <h2>{{.Winery}}</h2>
  {{if .Location}}<p class="sub">{{.Location}}</p>{{end}}
  {{range .Wines}}
  <div class="row"><span>{{.Name}}{{if .Grapes}} <span class="sub">{{.Grapes}}</span>{{end}}</span><span class="price">{{.Price}}</span></div>
  {{if .Description}}<p class="desc">{{.Description}}</p>{{end}}
  {{end}}
  {{end}}
  <p class="footer">{{.GeneratedAt.Format "02/01/2006"}}</p>
</body>
</html>`

const menuHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>` + pageStyle + `</style>
</head>
<body>
  <h1>{{.Title}}</h1>
  {{range .MenuGroups}}
  <h2>{{.Category}}</h2>
  {{range .Items}}
  <div class="row"><span>{{.Name}}</span><span class="price">{{.Price}}</span></div>
  {{if .Description}}<p class="desc">{{.Description}}</p>{{end}}
  {{if .Allergens}}<p class="allergens">{{.Allergens}}</p>{{end}}
  {{end}}
  {{end}}
  <p class="footer">{{.GeneratedAt.Format "02/01/2006"}}</p>
</body>
</html>`
