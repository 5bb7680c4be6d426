package shopping

import (
	"bytes"
	"encoding/csv"
	"html/template"
	"strings"

	"weekmenu/backend/internal/domain"
)

// ToCSV renders the list as category,item,quantity,unit,recipes rows.
func ToCSV(items []domain.ShoppingItem) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"category", "item", "quantity", "unit", "recipes"}); err != nil {
		return "", err
	}
	for _, item := range items {
		row := []string{item.Category, item.DisplayName, item.TotalQuantity, item.Unit, strings.Join(item.FromRecipes, "; ")}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type printableSection struct {
	Category string
	Items    []domain.ShoppingItem
}

var printableTmpl = template.Must(template.New("shopping-list").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Boodschappenlijst</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    h3 { margin: 16px 0 4px; text-transform: capitalize; }
    li { font-size: 14px; padding: 2px 0; }
    .from { color: #777; font-size: 12px; }
  </style>
</head>
<body>
  <h2>Boodschappenlijst</h2>
  {{range .}}
  <h3>{{.Category}}</h3>
  <ul>{{range .Items}}
    <li>&#9744; {{if .TotalQuantity}}{{.TotalQuantity}} {{end}}{{.Unit}} {{.DisplayName}} <span class="from">({{range $i, $r := .FromRecipes}}{{if $i}}, {{end}}{{$r}}{{end}})</span></li>{{end}}
  </ul>
  {{end}}
</body>
</html>
`))

// ToPrintableHTML renders the list grouped per category. Items must already
// be in display order, as returned by Aggregate.
func ToPrintableHTML(items []domain.ShoppingItem) (string, error) {
	sections := make([]printableSection, 0, len(categories)+1)
	for _, item := range items {
		if n := len(sections); n > 0 && sections[n-1].Category == item.Category {
			sections[n-1].Items = append(sections[n-1].Items, item)
			continue
		}
		sections = append(sections, printableSection{Category: item.Category, Items: []domain.ShoppingItem{item}})
	}

	var buf bytes.Buffer
	if err := printableTmpl.Execute(&buf, sections); err != nil {
		return "", err
	}
	return buf.String(), nil
}
