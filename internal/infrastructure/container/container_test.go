package container

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/alchemorsel/ingredients/internal/application/normalize"
	"github.com/alchemorsel/ingredients/internal/domain/ingredient"
	"github.com/alchemorsel/ingredients/internal/infrastructure/cache"
	"github.com/alchemorsel/ingredients/internal/infrastructure/config"
	"github.com/alchemorsel/ingredients/internal/infrastructure/referencedata"
	"github.com/alchemorsel/ingredients/pkg/errors"
	"github.com/alchemorsel/ingredients/pkg/healthcheck"
)

func TestModule_GraphIsComplete(t *testing.T) {
	err := fx.ValidateApp(
		fx.Supply(ConfigPath("")),
		Module,
	)

	assert.NoError(t, err)
}

func TestNewNormalizer(t *testing.T) {
	dir := t.TempDir()
	densities := filepath.Join(dir, "densities.yaml")
	require.NoError(t, os.WriteFile(densities, []byte("densities:\n  cocoa powder: 0.41\n"), 0o644))

	n, err := NewNormalizer(referencedata.Source{DensitiesFile: densities}, zap.NewNop())
	require.NoError(t, err)

	got := n.Normalize("1 cup cocoa powder")
	assert.Equal(t, ingredient.StatusConverted, got.Status)
	require.NotNil(t, got.Grams)
	assert.InDelta(t, 240*0.41, *got.Grams, 1e-9)
	assert.Equal(t, ingredient.DefaultDensityTable().Len()+1, n.Densities().Len())
}

func TestNewNormalizer_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	units := filepath.Join(dir, "units.yaml")
	require.NoError(t, os.WriteFile(units, []byte("units: [{name: pinch, dimension: time, factor: 1}]\n"), 0o644))

	_, err := NewNormalizer(referencedata.Source{UnitsFile: units}, zap.NewNop())

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeInvalidReferenceData))
}

func TestNewWatcher_DisabledReturnsNil(t *testing.T) {
	cfg := config.Default()
	service, err := normalize.NewService(ingredient.DefaultNormalizer(), nil, nil, zap.NewNop(), normalize.DefaultOptions())
	require.NoError(t, err)

	w, err := NewWatcher(cfg, referencedata.Source{}, service, zap.NewNop())

	assert.NoError(t, err)
	assert.Nil(t, w)
}

func TestNewWatcher_Enabled(t *testing.T) {
	dir := t.TempDir()
	densities := filepath.Join(dir, "densities.yaml")
	require.NoError(t, os.WriteFile(densities, []byte("densities:\n  tahini: 0.96\n"), 0o644))

	cfg := config.Default()
	cfg.Reference.DensitiesFile = densities
	cfg.Reference.Watch = true
	service, err := normalize.NewService(ingredient.DefaultNormalizer(), nil, nil, zap.NewNop(), normalize.DefaultOptions())
	require.NoError(t, err)

	w, err := NewWatcher(cfg, referencedata.Source{DensitiesFile: densities}, service, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, w)
	defer w.Stop()

	w.Reload(densities)

	_, table := service.Tables()
	d, err := table.Density("tahini")
	require.NoError(t, err)
	assert.Equal(t, 0.96, d)
}

func TestSelectResultCache(t *testing.T) {
	local := cache.NewLocalCache[ingredient.NormalizedIngredient](10, 0)

	assert.Nil(t, SelectResultCache(nil, nil))
	assert.Same(t, local, SelectResultCache(local, nil))
}

func TestNewHealthCheck_ReferenceDataOnly(t *testing.T) {
	service, err := normalize.NewService(ingredient.DefaultNormalizer(), nil, nil, zap.NewNop(), normalize.DefaultOptions())
	require.NoError(t, err)

	health := NewHealthCheck(config.Default(), zap.NewNop(), service, nil)
	resp := health.Check(context.Background())

	assert.Equal(t, healthcheck.StatusHealthy, resp.Status)
	require.Len(t, resp.Checks, 1)
	assert.Equal(t, "reference_data", resp.Checks[0].Name)
}
