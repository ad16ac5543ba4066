package brand

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ampline/ampline/internal/model"
	"github.com/ampline/ampline/internal/store/sqlite"
)

func validConfig(brandID string) *model.BrandConfig {
	return &model.BrandConfig{
		BrandID:         brandID,
		BrandName:       "Acme Outfitters",
		LogoURL:         "https://cdn.example.com/acme/logo.png",
		FontStack:       "Helvetica, Arial, sans-serif",
		ColorPrimary:    "#C4320F",
		ColorSurface:    "#FFF6F1",
		ColorText:       "#1F1A17",
		ColorMuted:      "#8A7F78",
		BorderRadiusPx:  8,
		SpacingScale:    4,
		ChatHeaderTitle: "Ask Acme",
	}
}

func writeConfig(t *testing.T, dir string, cfg *model.BrandConfig) {
	t.Helper()
	data, err := json.MarshalIndent(cfg, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, cfg.BrandID+".json"), data, 0o644))
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, validConfig("acme"))

	l := NewLoader(dir)
	cfg, err := l.Load("acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme Outfitters", cfg.BrandName)
	assert.Equal(t, "#C4320F", cfg.ColorPrimary)
}

func TestLoader_LoadMissing(t *testing.T) {
	l := NewLoader(t.TempDir())
	_, err := l.Load("nope")
	assert.ErrorIs(t, err, ErrBrandNotFound)
}

func TestLoader_LoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	bad := validConfig("acme")
	bad.ColorPrimary = "red"
	writeConfig(t, dir, bad)

	_, err := NewLoader(dir).Load("acme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "color_primary")
}

func TestLoader_LoadIgnoresPathTraversal(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, validConfig("acme"))

	// "../acme" must resolve to the same file inside the directory
	cfg, err := NewLoader(dir).Load("../acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", cfg.BrandID)
}

func TestLoader_LoadAll(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, validConfig("acme"))
	second := validConfig("borealis")
	second.BrandName = "Borealis Gear"
	writeConfig(t, dir, second)

	configs, err := NewLoader(dir).LoadAll()
	require.NoError(t, err)
	require.Len(t, configs, 2)
	assert.Equal(t, "acme", configs[0].BrandID)
	assert.Equal(t, "borealis", configs[1].BrandID)
}

func TestLoader_LoadAllFailsOnAnyInvalid(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, validConfig("acme"))
	bad := validConfig("borealis")
	bad.LogoURL = "ftp://cdn.example.com/logo.png"
	writeConfig(t, dir, bad)

	_, err := NewLoader(dir).LoadAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "borealis")
}

func TestLoader_Sync(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, validConfig("acme"))

	st, err := sqlite.New(filepath.Join(t.TempDir(), "ampline.db"))
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	require.NoError(t, NewLoader(dir).Sync(ctx, st))

	brands, err := st.Brands().List(ctx)
	require.NoError(t, err)
	require.Len(t, brands, 1)
	assert.Equal(t, "acme", brands[0].BrandID)
	assert.Equal(t, "Acme Outfitters", brands[0].Name)
	assert.Equal(t, filepath.Join(dir, "acme.json"), brands[0].ConfigPath)
}
