package ingredient

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// NormalizerTestSuite provides a test suite for the normalization pipeline
type NormalizerTestSuite struct {
	suite.Suite
	normalizer *Normalizer
}

// SetupSuite initializes the test suite
func (suite *NormalizerTestSuite) SetupSuite() {
	n, err := NewNormalizer()
	require.NoError(suite.T(), err)
	suite.normalizer = n
}

// TestConversion tests lines that end in a gram value
func (suite *NormalizerTestSuite) TestConversion() {
	suite.Run("VolumeWithKnownDensity_ShouldConvert", func() {
		// Act
		result := suite.normalizer.Normalize("2 cups all-purpose flour")

		// Assert
		assert.Equal(suite.T(), StatusConverted, result.Status)
		require.NotNil(suite.T(), result.Grams)
		assert.InDelta(suite.T(), 284.64, *result.Grams, 1e-9)
		assert.Equal(suite.T(), "cup", result.CanonicalUnit)
		assert.Equal(suite.T(), DimensionVolume, result.Dimension)
		assert.Equal(suite.T(), "all-purpose flour", result.Name)
		assert.Equal(suite.T(), CategoryDry, result.Category)
		assert.Empty(suite.T(), result.Diagnostic)
	})

	suite.Run("MassUnit_ShouldConvertWithoutDensity", func() {
		// Act
		result := suite.normalizer.Normalize("1 lb unobtainium")

		// Assert
		assert.Equal(suite.T(), StatusConverted, result.Status)
		require.NotNil(suite.T(), result.Grams)
		assert.InDelta(suite.T(), 453.592, *result.Grams, 1e-9)
		assert.Equal(suite.T(), DimensionMass, result.Dimension)
	})

	suite.Run("MassUnitWithoutName_ShouldConvert", func() {
		result := suite.normalizer.Normalize("500 g")

		assert.Equal(suite.T(), StatusConverted, result.Status)
		require.NotNil(suite.T(), result.Grams)
		assert.InDelta(suite.T(), 500.0, *result.Grams, 1e-9)
	})

	suite.Run("TypographicMixedNumbers_ShouldConvert", func() {
		for _, line := range []string{"1¹⁄₂ cups sugar", "１½ cups sugar", "1 1/2 cups sugar"} {
			result := suite.normalizer.Normalize(line)

			assert.Equal(suite.T(), StatusConverted, result.Status, line)
			require.NotNil(suite.T(), result.Quantity, line)
			assert.Equal(suite.T(), 1.5, *result.Quantity, line)
			require.NotNil(suite.T(), result.Grams, line)
			assert.InDelta(suite.T(), 1.5*240*0.845, *result.Grams, 1e-9, line)
		}
	})

	suite.Run("NegativeMixedNumber_ShouldConvert", func() {
		result := suite.normalizer.Normalize("-1 1/2 cups sugar")

		assert.Equal(suite.T(), StatusConverted, result.Status)
		assert.Equal(suite.T(), "cup", result.CanonicalUnit)
		assert.Equal(suite.T(), "sugar", result.Name)
		require.NotNil(suite.T(), result.Grams)
		assert.InDelta(suite.T(), -1.5*240*0.845, *result.Grams, 1e-9)
	})

	suite.Run("MixedNumberAndAbbreviation_ShouldConvert", func() {
		result := suite.normalizer.Normalize("1 1/2 Tbsp. honey")

		assert.Equal(suite.T(), StatusConverted, result.Status)
		require.NotNil(suite.T(), result.Quantity)
		assert.Equal(suite.T(), 1.5, *result.Quantity)
		require.NotNil(suite.T(), result.Grams)
		assert.InDelta(suite.T(), 1.5*14.7868*1.42, *result.Grams, 1e-9)
	})

	suite.Run("UnicodeFraction_ShouldConvert", func() {
		result := suite.normalizer.Normalize("½ teaspoon salt")

		assert.Equal(suite.T(), StatusConverted, result.Status)
		require.NotNil(suite.T(), result.Grams)
		assert.InDelta(suite.T(), 0.5*4.92892*1.2, *result.Grams, 1e-9)
	})

	suite.Run("MultiWordUnit_ShouldConvert", func() {
		result := suite.normalizer.Normalize("8 fl oz milk")

		assert.Equal(suite.T(), StatusConverted, result.Status)
		assert.Equal(suite.T(), "fluid ounce", result.CanonicalUnit)
		require.NotNil(suite.T(), result.Grams)
		assert.InDelta(suite.T(), 8*29.5735*1.03, *result.Grams, 1e-9)
	})
}

// TestNonConvertedStates tests every terminal state other than converted
func (suite *NormalizerTestSuite) TestNonConvertedStates() {
	suite.Run("UnknownUnit_ShouldReportUnitUnrecognized", func() {
		result := suite.normalizer.Normalize("3 large eggs")

		assert.Equal(suite.T(), StatusUnitUnrecognized, result.Status)
		assert.Nil(suite.T(), result.Grams)
		assert.Equal(suite.T(), "large", result.Unit)
		assert.Contains(suite.T(), result.Diagnostic, `"large"`)
		require.NotNil(suite.T(), result.Quantity)
		assert.Equal(suite.T(), 3.0, *result.Quantity)
	})

	suite.Run("QuantityOnly_ShouldReportUnitUnrecognized", func() {
		result := suite.normalizer.Normalize("4")

		assert.Equal(suite.T(), StatusUnitUnrecognized, result.Status)
		assert.Nil(suite.T(), result.Grams)
		assert.Equal(suite.T(), "no unit given", result.Diagnostic)
	})

	suite.Run("MissingDensity_ShouldReportDensityUnavailable", func() {
		result := suite.normalizer.Normalize("1 cup unobtainium")

		assert.Equal(suite.T(), StatusDensityUnavailable, result.Status)
		assert.Nil(suite.T(), result.Grams)
		assert.Equal(suite.T(), "cup", result.CanonicalUnit)
		assert.Contains(suite.T(), result.Diagnostic, "unobtainium")
	})

	suite.Run("NoLeadingNumber_ShouldReportNoQuantity", func() {
		result := suite.normalizer.Normalize("kosher salt")

		assert.Equal(suite.T(), StatusNoQuantity, result.Status)
		assert.Nil(suite.T(), result.Grams)
		assert.Nil(suite.T(), result.Quantity)
		assert.Equal(suite.T(), "kosher salt", result.Name)
		assert.Empty(suite.T(), result.Unit)
		assert.True(suite.T(), result.Ambiguous)
		assert.Equal(suite.T(), 0.5, result.Confidence)
	})

	suite.Run("EmptyLine_ShouldReportNoQuantity", func() {
		result := suite.normalizer.Normalize("   ")

		assert.Equal(suite.T(), StatusNoQuantity, result.Status)
		assert.Equal(suite.T(), "   ", result.Original)
	})
}

// TestInvariants tests properties that hold for every line
func (suite *NormalizerTestSuite) TestInvariants() {
	lines := []string{
		"2 cups all-purpose flour",
		"3 large eggs",
		"1 cup unobtainium",
		"kosher salt",
		"",
		"1/0 cup sugar",
		"-2 tbsp butter",
		"  1½   cups   milk  ",
		"a pinch of salt",
	}

	suite.Run("GramsPresentIffConverted", func() {
		for _, line := range lines {
			result := suite.normalizer.Normalize(line)
			assert.Equal(suite.T(), result.Status == StatusConverted, result.Grams != nil, line)
		}
	})

	suite.Run("OriginalIsVerbatim", func() {
		for _, line := range lines {
			assert.Equal(suite.T(), line, suite.normalizer.Normalize(line).Original)
		}
	})

	suite.Run("Idempotent", func() {
		for _, line := range lines {
			assert.Equal(suite.T(), suite.normalizer.Normalize(line), suite.normalizer.Normalize(line), line)
		}
	})
}

// TestBatch tests order preservation and isolation between lines
func (suite *NormalizerTestSuite) TestBatch() {
	suite.Run("NormalizeAll_PreservesOrder", func() {
		lines := []string{"2 cups all-purpose flour", "kosher salt", "3 large eggs", "1 cup unobtainium"}

		results := suite.normalizer.NormalizeAll(lines)

		require.Len(suite.T(), results, len(lines))
		assert.Equal(suite.T(), StatusConverted, results[0].Status)
		assert.Equal(suite.T(), StatusNoQuantity, results[1].Status)
		assert.Equal(suite.T(), StatusUnitUnrecognized, results[2].Status)
		assert.Equal(suite.T(), StatusDensityUnavailable, results[3].Status)
		for i, line := range lines {
			assert.Equal(suite.T(), line, results[i].Original)
			assert.Equal(suite.T(), suite.normalizer.Normalize(line), results[i])
		}
	})

	suite.Run("NormalizeAll_Empty", func() {
		assert.Empty(suite.T(), suite.normalizer.NormalizeAll(nil))
	})

	suite.Run("ConcurrentUse_IsSafe", func() {
		want := suite.normalizer.Normalize("2 cups all-purpose flour")

		var wg sync.WaitGroup
		results := make([]NormalizedIngredient, 32)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = suite.normalizer.Normalize("2 cups all-purpose flour")
			}(i)
		}
		wg.Wait()

		for _, got := range results {
			assert.Equal(suite.T(), want, got)
		}
	})
}

// TestParts tests already-split triples
func (suite *NormalizerTestSuite) TestParts() {
	suite.Run("SplitTriple_ShouldConvert", func() {
		result := suite.normalizer.NormalizeParts("1 ½", "cups", "Sugar")

		assert.Equal(suite.T(), StatusConverted, result.Status)
		assert.Equal(suite.T(), "1 ½ cups Sugar", result.Original)
		require.NotNil(suite.T(), result.Grams)
		assert.InDelta(suite.T(), 1.5*240*0.845, *result.Grams, 1e-9)
	})

	suite.Run("MissingQuantity_ShouldReportNoQuantity", func() {
		result := suite.normalizer.NormalizeParts("", "", "fresh basil")

		assert.Equal(suite.T(), StatusNoQuantity, result.Status)
		assert.Equal(suite.T(), "fresh basil", result.Original)
	})
}

// TestCustomTables tests reference data injected at construction
func (suite *NormalizerTestSuite) TestCustomTables() {
	suite.Run("CustomDensity_ShouldBeUsed", func() {
		densities, err := DefaultDensityTable().Merge(map[string]float64{"unobtainium": 2})
		require.NoError(suite.T(), err)
		n, err := NewNormalizer(WithDensityTable(densities))
		require.NoError(suite.T(), err)

		result := n.Normalize("1 cup unobtainium")

		assert.Equal(suite.T(), StatusConverted, result.Status)
		require.NotNil(suite.T(), result.Grams)
		assert.InDelta(suite.T(), 480.0, *result.Grams, 1e-9)
	})

	suite.Run("CustomUnits_ShouldBeUsed", func() {
		units := MustNewUnitTable(Unit{Name: "egg", Dimension: DimensionMass, Factor: 50, Synonyms: []string{"eggs"}})
		n, err := NewNormalizer(WithUnitTable(units))
		require.NoError(suite.T(), err)

		result := n.Normalize("3 eggs")

		assert.Equal(suite.T(), StatusConverted, result.Status)
		require.NotNil(suite.T(), result.Grams)
		assert.InDelta(suite.T(), 150.0, *result.Grams, 1e-9)

		assert.Equal(suite.T(), StatusUnitUnrecognized, n.Normalize("2 cups milk").Status)
	})

	suite.Run("NilTable_ShouldFail", func() {
		n, err := NewNormalizer(WithUnitTable(nil))
		assert.ErrorIs(suite.T(), err, ErrNilTable)
		assert.Nil(suite.T(), n)

		n, err = NewNormalizer(WithDensityTable(nil))
		assert.ErrorIs(suite.T(), err, ErrNilTable)
		assert.Nil(suite.T(), n)
	})
}

// TestNormalizerTestSuite runs the normalizer test suite
func TestNormalizerTestSuite(t *testing.T) {
	suite.Run(t, new(NormalizerTestSuite))
}
