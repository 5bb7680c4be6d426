package memory

import (
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"weekmenu/backend/internal/domain"
	"weekmenu/backend/internal/logging"
)

// seedUsers builds the in-memory accounts for dev mode. Passwords come from
// SEED_ADMIN_PASSWORD and SEED_MEMBER_PASSWORD, with dev defaults when unset.
// The postgres store never uses these.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	memberPwd := envOr("SEED_MEMBER_PASSWORD", "member123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_MEMBER_PASSWORD") == "" {
		logging.Warn().Str("component", "memory-store").Msg("using default dev credentials, set SEED_ADMIN_PASSWORD and SEED_MEMBER_PASSWORD to override")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, domain.RoleAdmin},
		{"thuis", memberPwd, domain.RoleMember},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			logging.Fatal().Err(err).Str("username", u.username).Msg("hash seed password")
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var seedScrapedAt = time.Date(2026, 2, 9, 8, 0, 0, 0, time.UTC)

func minutes(v int) *int { return &v }

func ing(name, quantity, unit string) domain.Ingredient {
	raw := name
	if quantity != "" {
		raw = quantity + " " + unit + " " + name
	}
	return domain.Ingredient{Name: name, Quantity: quantity, Unit: unit, RawText: raw}
}

func seedRecipe(slug, title, source string, favorite bool, prep int, tags []string, ingredients ...domain.Ingredient) domain.Recipe {
	host := "https://www.ah.be/allerhande/recept/"
	if source == "koken.demorgen" {
		host = "https://koken.demorgen.be/recepten/"
	}
	return domain.Recipe{
		Title:       title,
		URL:         host + slug,
		Source:      source,
		Servings:    4,
		PrepTime:    minutes(prep),
		IsFavorite:  favorite,
		Tags:        tags,
		Ingredients: ingredients,
		ScrapedAt:   seedScrapedAt,
	}
}

func seedRecipes() []domain.Recipe {
	return []domain.Recipe{
		seedRecipe("spaghetti-bolognese", "Spaghetti bolognese", "ah.be", true, 35,
			[]string{"italiaans", "pasta"},
			ing("spaghetti", "400", "g"), ing("rundergehakt", "500", "g"), ing("ui", "1", ""),
			ing("knoflook", "2", "teentjes"), ing("tomatenblokjes", "1", "blik"), ing("olijfolie", "2", "el")),
		seedRecipe("groene-curry-kip", "Thaise groene curry met kip", "ah.be", true, 30,
			[]string{"thais", "curry"},
			ing("kipfilet", "400", "g"), ing("kokosmelk", "400", "ml"), ing("groene currypasta", "2", "el"),
			ing("rijst", "300", "g"), ing("paprika", "1", "")),
		seedRecipe("griekse-salade", "Griekse salade met feta", "koken.demorgen", true, 15,
			[]string{"grieks", "salade", "vegetarisch"},
			ing("komkommer", "1", ""), ing("tomaat", "4", ""), ing("feta", "200", "g"),
			ing("olijven", "100", "g"), ing("rode ui", "1", "")),
		seedRecipe("zalm-uit-de-oven", "Zalm uit de oven met krieltjes", "ah.be", true, 25,
			[]string{"vis"},
			ing("zalmfilet", "4", "stuks"), ing("krieltjes", "600", "g"), ing("broccoli", "1", "stuk"),
			ing("citroen", "½", "")),
		seedRecipe("chili-con-carne", "Chili con carne", "koken.demorgen", true, 45,
			[]string{"mexicaans", "stoofpot"},
			ing("rundergehakt", "500", "g"), ing("kidneybonen", "1", "blik"), ing("paprika", "2", ""),
			ing("ui", "1", ""), ing("komijn", "1", "tl")),
		seedRecipe("champignonrisotto", "Risotto met champignons", "ah.be", false, 40,
			[]string{"italiaans", "vegetarisch"},
			ing("risottorijst", "300", "g"), ing("champignons", "250", "g"), ing("parmezaan", "50", "g"),
			ing("bouillon", "1", "l"), ing("ui", "1", "")),
		seedRecipe("stoemp-met-worst", "Stoemp met worst", "koken.demorgen", true, 40,
			[]string{"belgisch", "winter"},
			ing("aardappel", "1", "kg"), ing("wortel", "500", "g"), ing("worst", "4", "stuks"),
			ing("boter", "30", "g")),
		seedRecipe("linzencurry", "Indiase linzencurry", "koken.demorgen", false, 35,
			[]string{"indiaas", "vegetarisch"},
			ing("linzen", "250", "g"), ing("kokosmelk", "400", "ml"), ing("ui", "1", ""),
			ing("gember", "1", "stuk"), ing("kerrie", "2", "tl")),
		seedRecipe("ramen-met-ei", "Ramen met zacht ei", "ah.be", false, 20,
			[]string{"japans", "soep"},
			ing("noedels", "250", "g"), ing("ei", "4", ""), ing("bouillon", "1", "l"),
			ing("lente-ui", "2", ""), ing("sojasaus", "3", "el")),
		seedRecipe("kiptajine", "Kiptajine met couscous", "koken.demorgen", false, 60,
			[]string{"marokkaans", "stoofpot"},
			ing("kippendijen", "600", "g"), ing("couscous", "300", "g"), ing("wortel", "2", ""),
			ing("ui", "1", ""), ing("kaneel", "1", "tl")),
		seedRecipe("penne-pesto", "Penne met pesto en kerstomaatjes", "ah.be", true, 15,
			[]string{"italiaans", "pasta"},
			ing("penne", "400", "g"), ing("pesto", "1", "pot"), ing("kerstomaatjes", "250", "g"),
			ing("pijnboompitten", "30", "g")),
		seedRecipe("tacos-gehakt", "Tacos met gehakt", "ah.be", false, 25,
			[]string{"mexicaans"},
			ing("tortilla", "8", "stuks"), ing("gehakt", "400", "g"), ing("sla", "1", "krop"),
			ing("cheddar", "100", "g"), ing("salsa", "1", "pot")),
	}
}

func seedBonuses() []domain.Bonus {
	price := func(v float64) *float64 { return &v }
	return []domain.Bonus{
		{ProductName: "AH Kipfilet", DiscountLabel: "2e halve prijs", Category: "vlees", OriginalPrice: price(7.49), ScrapedAt: seedScrapedAt},
		{ProductName: "Kokosmelk", DiscountLabel: "1+1 gratis", Category: "wereldkeuken", OriginalPrice: price(1.99), ScrapedAt: seedScrapedAt},
		{ProductName: "Hollandse champignons", DiscountLabel: "25% korting", Category: "groente", OriginalPrice: price(1.79), BonusPrice: price(1.34), ScrapedAt: seedScrapedAt},
		{ProductName: "Rundergehakt", DiscountLabel: "35% korting", Category: "vlees", OriginalPrice: price(5.99), BonusPrice: price(3.89), ScrapedAt: seedScrapedAt},
		{ProductName: "Verse zalmfilet", DiscountLabel: "2 voor 10.00", Category: "vis", ScrapedAt: seedScrapedAt},
	}
}
