// Package brand loads and validates brand theme configs from JSON files and
// keeps the brands table in sync with what is on disk.
package brand

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ampline/ampline/internal/model"
	"github.com/ampline/ampline/internal/store"
	"github.com/ampline/ampline/internal/template"
)

// ErrBrandNotFound is returned when no config file exists for a brand id.
var ErrBrandNotFound = errors.New("brand config not found")

// Loader reads brand configs from a directory of <brand_id>.json files.
// Every config is validated before being returned.
type Loader struct {
	dir string
}

// NewLoader returns a Loader reading from dir.
func NewLoader(dir string) *Loader { return &Loader{dir: dir} }

// Load returns the validated config for one brand.
func (l *Loader) Load(brandID string) (*model.BrandConfig, error) {
	path := l.configPath(brandID)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrBrandNotFound, brandID)
		}
		return nil, err
	}
	return parseConfig(data, path)
}

// LoadAll returns every validated brand config in the directory, sorted by
// file name. A single invalid config fails the whole load.
func (l *Loader) LoadAll() ([]*model.BrandConfig, error) {
	paths, err := filepath.Glob(filepath.Join(l.dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var out []*model.BrandConfig
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		cfg, err := parseConfig(data, path)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, nil
}

// Sync upserts the brands table from the configs on disk.
func (l *Loader) Sync(ctx context.Context, st store.Store) error {
	configs, err := l.LoadAll()
	if err != nil {
		return err
	}
	for _, cfg := range configs {
		b := &model.Brand{
			BrandID:    cfg.BrandID,
			Name:       cfg.BrandName,
			ConfigPath: l.configPath(cfg.BrandID),
		}
		if err := st.Brands().Upsert(ctx, b); err != nil {
			return fmt.Errorf("sync brand %s: %w", cfg.BrandID, err)
		}
	}
	return nil
}

func (l *Loader) configPath(brandID string) string {
	// brand ids come from URLs and file names; keep them to a single path element
	return filepath.Join(l.dir, filepath.Base(brandID)+".json")
}

func parseConfig(data []byte, path string) (*model.BrandConfig, error) {
	var cfg model.BrandConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if err := template.ValidateBrandConfig(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", strings.TrimSuffix(filepath.Base(path), ".json"), err)
	}
	return &cfg, nil
}
