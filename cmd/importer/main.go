package main

import (
	"context"
	"flag"
	"time"

	"weekmenu/backend/internal/bootstrap"
	"weekmenu/backend/internal/config"
	"weekmenu/backend/internal/importer"
	"weekmenu/backend/internal/logging"
	"weekmenu/backend/internal/menu"
	"weekmenu/backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	loc, err := cfg.Location()
	if err != nil {
		logging.Fatal().Err(err).Msg("invalid timezone")
	}

	dataDir := flag.String("data-dir", cfg.DataDir, "directory holding the scraper JSON files")
	flag.Parse()

	if cfg.DatabaseURL == "" {
		logging.Warn().Msg("DATABASE_URL is empty, importing into a throwaway in-memory store")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	req, err := importer.LoadDir(*dataDir)
	if err != nil {
		logging.Fatal().Err(err).Str("data_dir", *dataDir).Msg("read scraper output")
	}

	res, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("open storage")
	}
	defer res.Close()

	svc := service.New(res.Repo, menu.NewEngine(nil), service.Options{
		ShoppingCache: res.ShoppingCache,
		CacheTTL:      cfg.ShoppingCacheTTL(),
		Location:      loc,
	})
	result, err := svc.ImportAsSystem(ctx, req)
	if err != nil {
		res.Close()
		logging.Fatal().Err(err).Msg("import failed")
	}

	logging.Info().
		Str("data_dir", *dataDir).
		Int("recipes", result.Recipes).
		Int("favorites", result.Favorites).
		Int("tags", result.Tags).
		Int("bonuses", result.Bonuses).
		Msg("import done")
}
