package app

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/greenadmin/internal/admin/seed"
	"github.com/aussiebroadwan/greenadmin/pkg/slogx"
)

// ErrNoSeedFile is returned by Seed when neither the argument nor SEED_FILE
// names a file.
var ErrNoSeedFile = errors.New("no seed file configured")

// Seed runs one pass over every section of the seed file at path, falling
// back to SEED_FILE when path is empty.
func (app *Application) Seed(ctx context.Context, path string, force bool) ([]seed.Result, error) {
	if path == "" {
		path = app.cfg.SeedFile
	}
	if path == "" {
		return nil, ErrNoSeedFile
	}

	tree, err := seed.LoadFile(path)
	if err != nil {
		return nil, err
	}

	ctx = slogx.WithActor(slogx.WithContext(ctx, app.logger), app.cfg.SeedActor)
	results, err := app.director.SeedAll(ctx, tree, app.cfg.SeedActor, force)
	if err != nil {
		return results, err
	}

	seeded := 0
	for _, r := range results {
		seeded += r.Seeded
	}
	app.logger.Info("seed file applied", "file", path, "sections", len(results), "seeded", seeded, "force", force)
	return results, nil
}
