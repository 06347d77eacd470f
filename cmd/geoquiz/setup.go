package main

import (
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/susu3304/geoquiz/internal/game"
	"github.com/susu3304/geoquiz/internal/places"
	"github.com/susu3304/geoquiz/internal/scoring"
)

// loadCatalog reads the place catalog from path, or the built-in one when
// path is empty.
func loadCatalog(path string) (*places.Catalog, error) {
	if path == "" {
		return places.Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open places file %s", path)
	}
	defer f.Close()

	catalog, err := places.Load(f)
	if err != nil {
		return nil, eris.Wrapf(err, "load places file %s", path)
	}
	zap.L().Info("loaded place catalog", zap.String("path", path))
	return catalog, nil
}

// loadModes adds a "custom" mode when path names a tier table.
func loadModes(path string) (game.Modes, error) {
	if path == "" {
		return game.NewModes(nil), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return game.Modes{}, eris.Wrapf(err, "open tier file %s", path)
	}
	defer f.Close()

	table, err := scoring.LoadTable(f)
	if err != nil {
		return game.Modes{}, eris.Wrapf(err, "load tier file %s", path)
	}
	zap.L().Info("loaded custom tier table", zap.String("path", path), zap.String("table", table.Name()))
	return game.NewModes(&table), nil
}

func newRegistry(opts ...game.Option) (*game.Registry, game.Modes, error) {
	catalog, err := loadCatalog(cfg.PlacesFile)
	if err != nil {
		return nil, game.Modes{}, err
	}
	modes, err := loadModes(cfg.TierFile)
	if err != nil {
		return nil, game.Modes{}, err
	}
	return game.NewRegistry(catalog, opts...), modes, nil
}
