package shopping

import (
	"strings"
	"testing"

	"weekmenu/backend/internal/domain"
)

func TestCategorizeUsesPriorityOrder(t *testing.T) {
	cases := map[string]string{
		"rode ui":       "vegetables",
		"paprikapoeder": "vegetables",
		"citroen":       "fruit",
		"geraspte kaas": "dairy",
		"zalmfilet":     "meat",
		"kabeljauw":     "fish",
		"spaghetti":     "dry-goods",
		"zout":          "spices",
		"olijfolie":     "sauces",
		"water":         CategoryOther,
	}
	for name, want := range cases {
		if got := Categorize(name); got != want {
			t.Fatalf("Categorize(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestAggregateSumsAcrossRecipes(t *testing.T) {
	items := Aggregate([]domain.ShoppingLine{
		{Name: "Bloem", Quantity: "200", Unit: "g", RecipeTitle: "Pannenkoeken"},
		{Name: "bloem", Quantity: "300", Unit: "gram", RecipeTitle: "Wafels"},
	})

	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d: %+v", len(items), items)
	}
	item := items[0]
	if item.Name != "bloem" || item.Unit != "g" {
		t.Fatalf("unexpected grouping key %q/%q", item.Name, item.Unit)
	}
	if item.TotalQuantity != "500" {
		t.Fatalf("expected total 500, got %q", item.TotalQuantity)
	}
	if item.DisplayName != "Bloem" {
		t.Fatalf("expected first-seen display name, got %q", item.DisplayName)
	}
	if len(item.FromRecipes) != 2 {
		t.Fatalf("expected 2 contributing recipes, got %v", item.FromRecipes)
	}
	if item.Category != "dry-goods" {
		t.Fatalf("expected dry-goods, got %q", item.Category)
	}
}

func TestAggregateFormatsTotals(t *testing.T) {
	items := Aggregate([]domain.ShoppingLine{
		{Name: "ui", Quantity: "1", Unit: "stuk", RecipeTitle: "A"},
		{Name: "ui", Quantity: "1½", Unit: "stuks", RecipeTitle: "B"},
		{Name: "wortel", Quantity: "1,5", Unit: "stuk(s)", RecipeTitle: "A"},
		{Name: "wortel", Quantity: "1½", Unit: "stuk", RecipeTitle: "B"},
	})

	got := map[string]string{}
	for _, item := range items {
		got[item.Name] = item.TotalQuantity
	}
	if got["ui"] != "2.5" {
		t.Fatalf("expected ui total 2.5, got %q", got["ui"])
	}
	if got["wortel"] != "3" {
		t.Fatalf("expected wortel total 3, got %q", got["wortel"])
	}
}

func TestAggregateKeepsGroupsWithoutParseableQuantity(t *testing.T) {
	items := Aggregate([]domain.ShoppingLine{
		{Name: "peper", Quantity: "", Unit: "", RecipeTitle: "A"},
		{Name: "zout", Quantity: "naar smaak", Unit: "", RecipeTitle: "A"},
		{Name: "zout", Quantity: "1", Unit: "", RecipeTitle: "B"},
	})

	byName := map[string]domain.ShoppingItem{}
	for _, item := range items {
		byName[item.Name] = item
	}

	peper, ok := byName["peper"]
	if !ok {
		t.Fatalf("expected peper to be emitted")
	}
	if peper.TotalQuantity != "" || peper.PartialQuantity {
		t.Fatalf("expected empty total without partial flag, got %+v", peper)
	}
	if peper.Category != "spices" {
		t.Fatalf("expected spices category, got %q", peper.Category)
	}

	zout := byName["zout"]
	if zout.TotalQuantity != "1" || !zout.PartialQuantity {
		t.Fatalf("expected total 1 with partial flag, got %+v", zout)
	}
}

func TestAggregateCountsLeadingNumberOfRanges(t *testing.T) {
	items := Aggregate([]domain.ShoppingLine{
		{Name: "ui", Quantity: "1-2", Unit: "stuk", RecipeTitle: "A"},
		{Name: "ui", Quantity: "1", Unit: "stuk", RecipeTitle: "B"},
		{Name: "bloem", Quantity: "200g", Unit: "g", RecipeTitle: "A"},
		{Name: "bloem", Quantity: "100", Unit: "g", RecipeTitle: "B"},
	})

	byName := map[string]domain.ShoppingItem{}
	for _, item := range items {
		byName[item.Name] = item
	}
	cases := []struct {
		name string
		want string
	}{
		{name: "ui", want: "2"},
		{name: "bloem", want: "300"},
	}
	for _, tc := range cases {
		item, ok := byName[tc.name]
		if !ok {
			t.Fatalf("expected %s to be emitted, got %+v", tc.name, items)
		}
		if item.TotalQuantity != tc.want || item.PartialQuantity {
			t.Fatalf("%s: expected total %s without partial flag, got %+v", tc.name, tc.want, item)
		}
	}
}

func TestAggregateStripsQualifiersAndDedupesRecipes(t *testing.T) {
	items := Aggregate([]domain.ShoppingLine{
		{Name: "Rode ui, gesneden", Quantity: "1", Unit: "stuk", RecipeTitle: "Curry"},
		{Name: "rode ui", Quantity: "2", Unit: "stuk", RecipeTitle: "Curry"},
	})
	if len(items) != 1 {
		t.Fatalf("expected qualifiers to be stripped into one group, got %+v", items)
	}
	if items[0].TotalQuantity != "3" {
		t.Fatalf("expected total 3, got %q", items[0].TotalQuantity)
	}
	if len(items[0].FromRecipes) != 1 {
		t.Fatalf("expected recipe titles to be deduplicated, got %v", items[0].FromRecipes)
	}
}

func TestAggregateSeparatesUnits(t *testing.T) {
	items := Aggregate([]domain.ShoppingLine{
		{Name: "melk", Quantity: "200", Unit: "ml", RecipeTitle: "A"},
		{Name: "melk", Quantity: "1", Unit: "l", RecipeTitle: "B"},
	})
	if len(items) != 2 {
		t.Fatalf("expected one group per unit, got %d", len(items))
	}
}

func TestAggregateOrdersByCategoryThenName(t *testing.T) {
	items := Aggregate([]domain.ShoppingLine{
		{Name: "water", Quantity: "1", Unit: "l", RecipeTitle: "A"},
		{Name: "zout", Quantity: "", Unit: "", RecipeTitle: "A"},
		{Name: "wortel", Quantity: "2", Unit: "", RecipeTitle: "A"},
		{Name: "Courgette", Quantity: "1", Unit: "", RecipeTitle: "A"},
		{Name: "kip", Quantity: "500", Unit: "g", RecipeTitle: "A"},
		{Name: "ui", Quantity: "1", Unit: "", RecipeTitle: "A"},
	})

	want := []string{"courgette", "ui", "wortel", "kip", "zout", "water"}
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(items))
	}
	for i, name := range want {
		if items[i].Name != name {
			t.Fatalf("position %d: expected %q, got %q (all: %+v)", i, name, items[i].Name, items)
		}
	}
}

func TestExportFormats(t *testing.T) {
	items := Aggregate([]domain.ShoppingLine{
		{Name: "bloem", Quantity: "200", Unit: "g", RecipeTitle: "Pannenkoeken"},
		{Name: "tomaat", Quantity: "3", Unit: "", RecipeTitle: "Salade <script>"},
	})

	csvOut, err := ToCSV(items)
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	if !strings.HasPrefix(csvOut, "category,item,quantity,unit,recipes\n") {
		t.Fatalf("unexpected csv header: %q", csvOut)
	}
	if !strings.Contains(csvOut, "dry-goods,bloem,200,g,Pannenkoeken") {
		t.Fatalf("expected bloem row, got %q", csvOut)
	}

	html, err := ToPrintableHTML(items)
	if err != nil {
		t.Fatalf("html: %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Fatalf("expected recipe titles to be escaped")
	}
	if strings.Index(html, "vegetables") > strings.Index(html, "dry-goods") {
		t.Fatalf("expected vegetables section before dry-goods")
	}
}
