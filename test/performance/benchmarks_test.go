//go:build performance

// Package performance provides benchmarks for the normalization pipeline
package performance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alchemorsel/ingredients/internal/application/normalize"
	"github.com/alchemorsel/ingredients/internal/domain/ingredient"
	"github.com/alchemorsel/ingredients/internal/infrastructure/cache"
	"github.com/alchemorsel/ingredients/test/testutils"
)

// Performance test configuration
const (
	SmallDataset  = 100
	MediumDataset = 1000
	LargeDataset  = 10000

	// MaxBatchDuration is the budget for one LargeDataset batch
	MaxBatchDuration = 500 * time.Millisecond
)

func BenchmarkNormalizeLine(b *testing.B) {
	factory := testutils.NewIngredientLineFactory(1)
	lines := testutils.Texts(factory.Lines(SmallDataset))
	n := ingredient.DefaultNormalizer()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		n.Normalize(lines[i%len(lines)])
	}
}

func BenchmarkParseQuantity(b *testing.B) {
	tokens := []string{"3", "1.5", "1/2", "½", "1 1/2", "1½", "-2 3/4"}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		ingredient.ParseQuantity(tokens[i%len(tokens)])
	}
}

func BenchmarkNormalizeBatch(b *testing.B) {
	for _, size := range []int{SmallDataset, MediumDataset, LargeDataset} {
		size := size
		for _, workers := range []int{1, 4, 16} {
			workers := workers
			b.Run(fmt.Sprintf("lines=%d/workers=%d", size, workers), func(b *testing.B) {
				lines := testutils.Texts(testutils.NewIngredientLineFactory(int64(size)).Lines(size))
				service, err := normalize.NewService(ingredient.DefaultNormalizer(), nil, nil, zap.NewNop(),
					normalize.Options{Workers: workers, MaxBatchLines: size})
				require.NoError(b, err)

				b.ReportAllocs()
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if _, err := service.NormalizeBatch(context.Background(), lines); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkNormalizeBatch_Cached(b *testing.B) {
	lines := testutils.Texts(testutils.NewIngredientLineFactory(3).Lines(MediumDataset))
	resultCache := cache.NewLocalCache[ingredient.NormalizedIngredient](MediumDataset*2, time.Hour)
	service, err := normalize.NewService(ingredient.DefaultNormalizer(), resultCache, nil, zap.NewNop(),
		normalize.Options{MaxBatchLines: MediumDataset})
	require.NoError(b, err)

	// warm
	_, err = service.NormalizeBatch(context.Background(), lines)
	require.NoError(b, err)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := service.NormalizeBatch(context.Background(), lines); err != nil {
			b.Fatal(err)
		}
	}
}

func TestLargeBatchWithinBudget(t *testing.T) {
	lines := testutils.Texts(testutils.NewIngredientLineFactory(4).Lines(LargeDataset))
	service, err := normalize.NewService(ingredient.DefaultNormalizer(), nil, nil, zap.NewNop(),
		normalize.Options{MaxBatchLines: LargeDataset})
	require.NoError(t, err)

	start := time.Now()
	result, err := service.NormalizeBatch(context.Background(), lines)
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.Equal(t, LargeDataset, result.Total)
	require.Less(t, elapsed, MaxBatchDuration, "batch of %d lines took %s", LargeDataset, elapsed)
}
