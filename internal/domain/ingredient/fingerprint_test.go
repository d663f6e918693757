package ingredient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint(t *testing.T) {
	t.Parallel()

	t.Run("EqualTablesHashEqual", func(t *testing.T) {
		a, err := NewNormalizer(
			WithUnitTable(MustNewUnitTable(DefaultUnits()...)),
			WithDensityTable(MustNewDensityTable(DefaultDensities())),
		)
		require.NoError(t, err)

		assert.Equal(t, DefaultNormalizer().Fingerprint(), a.Fingerprint())
	})

	t.Run("DensityChangeAltersFingerprint", func(t *testing.T) {
		densities, err := DefaultDensityTable().Merge(map[string]float64{"sugar": 2.0})
		require.NoError(t, err)
		n, err := NewNormalizer(WithDensityTable(densities))
		require.NoError(t, err)

		assert.NotEqual(t, DefaultDensityTable().Fingerprint(), densities.Fingerprint())
		assert.NotEqual(t, DefaultNormalizer().Fingerprint(), n.Fingerprint())
	})

	t.Run("UnitFactorChangeAltersFingerprint", func(t *testing.T) {
		units, err := DefaultUnitTable().Merge(Unit{Name: "cup", Dimension: DimensionVolume, Factor: 250, Synonyms: []string{"cups", "c"}})
		require.NoError(t, err)

		assert.NotEqual(t, DefaultUnitTable().Fingerprint(), units.Fingerprint())
	})

	t.Run("SynonymOrderIsIgnored", func(t *testing.T) {
		a := MustNewUnitTable(Unit{Name: "pinch", Dimension: DimensionVolume, Factor: 0.3, Synonyms: []string{"pinches", "pn"}})
		b := MustNewUnitTable(Unit{Name: "pinch", Dimension: DimensionVolume, Factor: 0.3, Synonyms: []string{"pn", "pinches"}})

		assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	})
}

func TestNormalizedIngredient_Clone(t *testing.T) {
	t.Parallel()

	original := DefaultNormalizer().Normalize("1 cup sugar")
	require.NotNil(t, original.Grams)

	clone := original.Clone()
	*clone.Grams = 0
	*clone.Quantity = 0

	assert.InDelta(t, 202.8, *original.Grams, 1e-9)
	assert.Equal(t, 1.0, *original.Quantity)

	empty := DefaultNormalizer().Normalize("salt to taste").Clone()
	assert.Nil(t, empty.Quantity)
	assert.Nil(t, empty.Grams)
}
