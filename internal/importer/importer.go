// Package importer reads the JSON files the scrapers leave in the data
// directory and turns them into one import request.
package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"weekmenu/backend/internal/domain"
)

// Required files. A missing one aborts the import.
var (
	FavoriteFiles = []string{"ah-recipes.json", "dm-recipes.json"}
	BonusFile     = "ah-bonuses.json"
)

// DiscoverFiles are optional; scrapers only write them after a discover run.
var DiscoverFiles = []string{"ah-discover.json", "dm-discover.json"}

// LoadDir reads every scraper file under dir. Favorites keep file order so the
// first file wins on duplicate URLs.
func LoadDir(dir string) (domain.ImportRequest, error) {
	var req domain.ImportRequest

	for _, name := range FavoriteFiles {
		var recipes []domain.ImportRecipe
		if err := readJSON(filepath.Join(dir, name), &recipes); err != nil {
			return domain.ImportRequest{}, err
		}
		req.Favorites = append(req.Favorites, recipes...)
	}

	for _, name := range DiscoverFiles {
		var recipes []domain.ImportRecipe
		err := readJSON(filepath.Join(dir, name), &recipes)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return domain.ImportRequest{}, err
		}
		req.Discover = append(req.Discover, recipes...)
	}

	if err := readJSON(filepath.Join(dir, BonusFile), &req.Bonuses); err != nil {
		return domain.ImportRequest{}, err
	}

	return req, nil
}

func readJSON(path string, dest any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
