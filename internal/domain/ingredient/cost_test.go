package ingredient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateCost(t *testing.T) {
	t.Parallel()

	t.Run("converts quoted price to the measured unit", func(t *testing.T) {
		t.Parallel()
		est, err := EstimateCost(DefaultUnitTable(), 8, "ounce", 4.00, "pound")
		require.NoError(t, err)

		assert.Equal(t, 0.25, est.CostPerUnit)
		assert.Equal(t, 2.00, est.TotalCost)
		assert.Equal(t, 4.00, est.PerUnit["pound"])
		assert.Equal(t, 0.25, est.PerUnit["ounce"])
	})

	t.Run("same unit keeps the quoted price", func(t *testing.T) {
		t.Parallel()
		est, err := EstimateCost(DefaultUnitTable(), 3, "cups", 0.5, "cup")
		require.NoError(t, err)

		assert.Equal(t, 0.5, est.CostPerUnit)
		assert.Equal(t, 1.5, est.TotalCost)
	})

	t.Run("dimension mismatch falls back to the quoted price", func(t *testing.T) {
		t.Parallel()
		est, err := EstimateCost(DefaultUnitTable(), 2, "cup", 1.25, "pound")
		require.NoError(t, err)

		assert.Equal(t, 1.25, est.CostPerUnit)
		assert.Equal(t, 2.5, est.TotalCost)
	})

	t.Run("unknown unit has no per-unit sheet", func(t *testing.T) {
		t.Parallel()
		est, err := EstimateCost(DefaultUnitTable(), 12, "egg", 0.3, "egg")
		require.NoError(t, err)

		assert.Equal(t, 3.6, est.TotalCost)
		assert.Nil(t, est.PerUnit)
	})

	t.Run("rejects negative amounts", func(t *testing.T) {
		t.Parallel()
		_, err := EstimateCost(DefaultUnitTable(), -1, "cup", 1, "cup")
		assert.Error(t, err)
	})

	t.Run("rejects nil table", func(t *testing.T) {
		t.Parallel()
		_, err := EstimateCost(nil, 1, "cup", 1, "cup")
		assert.ErrorIs(t, err, ErrNilTable)
	})
}
