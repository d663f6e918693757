// Package normalize provides the application layer for ingredient
// normalization. It implements the use cases defined in the inbound ports.
package normalize

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alchemorsel/ingredients/internal/domain/ingredient"
	"github.com/alchemorsel/ingredients/internal/ports/inbound"
	"github.com/alchemorsel/ingredients/internal/ports/outbound"
	"github.com/alchemorsel/ingredients/pkg/errors"
)

const tracerName = "github.com/alchemorsel/ingredients/normalize"

// Options tunes a Service
type Options struct {
	Workers       int
	MaxBatchLines int
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{Workers: 8, MaxBatchLines: 1000}
}

// generation pairs a normalizer with the fingerprint of its tables. Cache
// keys carry the fingerprint, so a cache shared between processes never
// serves results computed from other tables.
type generation struct {
	fingerprint string
	normalizer  *ingredient.Normalizer
}

// Service implements the normalization use cases
type Service struct {
	current atomic.Pointer[generation]
	cache   outbound.ResultCache
	metrics outbound.MetricsRecorder
	tracer  trace.Tracer
	logger  *zap.Logger
	opts    Options
}

var _ inbound.NormalizeService = (*Service)(nil)

// NewService creates a new normalization service. cache may be nil to
// disable memoization; metrics may be nil to discard telemetry.
func NewService(
	normalizer *ingredient.Normalizer,
	cache outbound.ResultCache,
	metrics outbound.MetricsRecorder,
	logger *zap.Logger,
	opts Options,
) (*Service, error) {
	if normalizer == nil {
		return nil, ingredient.ErrNilTable
	}
	if metrics == nil {
		metrics = outbound.NoopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultOptions()
	if opts.Workers < 1 {
		opts.Workers = defaults.Workers
	}
	if opts.MaxBatchLines < 1 {
		opts.MaxBatchLines = defaults.MaxBatchLines
	}

	s := &Service{
		cache:   cache,
		metrics: metrics,
		tracer:  otel.Tracer(tracerName),
		logger:  logger.Named("normalize-service"),
		opts:    opts,
	}
	s.current.Store(newGeneration(normalizer))
	return s, nil
}

// Normalize normalizes a single ingredient line
func (s *Service) Normalize(ctx context.Context, line string) (*inbound.IngredientDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, span := s.tracer.Start(ctx, "normalize.line")
	defer span.End()

	result := s.normalizeLine(s.current.Load(), line)
	span.SetAttributes(attribute.String("ingredient.status", string(result.Status)))

	return &inbound.IngredientDTO{NormalizedIngredient: result}, nil
}

// NormalizeBatch normalizes lines in parallel. Results keep input order.
func (s *Service) NormalizeBatch(ctx context.Context, lines []string) (*inbound.BatchResult, error) {
	if err := s.checkBatchSize(len(lines)); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "normalize.batch",
		trace.WithAttributes(attribute.Int("batch.size", len(lines))))
	defer span.End()

	gen := s.current.Load()
	result, err := s.runBatch(ctx, len(lines), func(i int) ingredient.NormalizedIngredient {
		return s.normalizeLine(gen, lines[i])
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return result, nil
}

// NormalizeParts normalizes ingredients already split into quantity, unit
// and name
func (s *Service) NormalizeParts(ctx context.Context, parts []inbound.PartsCommand) (*inbound.BatchResult, error) {
	if err := s.checkBatchSize(len(parts)); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "normalize.parts",
		trace.WithAttributes(attribute.Int("batch.size", len(parts))))
	defer span.End()

	gen := s.current.Load()
	result, err := s.runBatch(ctx, len(parts), func(i int) ingredient.NormalizedIngredient {
		p := parts[i]
		return s.normalizeParts(gen, p.Quantity, p.Unit, p.Name)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return result, nil
}

// NormalizeRecipe extracts a recipe from source and normalizes its
// ingredients
func (s *Service) NormalizeRecipe(ctx context.Context, source outbound.RecipeSource) (*inbound.RecipeResult, error) {
	ctx, span := s.tracer.Start(ctx, "normalize.recipe")
	defer span.End()

	recipe, err := source.Extract(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			return nil, appErr
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.NewExtractionFailedError(err)
	}
	if err := s.checkBatchSize(len(recipe.Ingredients)); err != nil {
		return nil, err
	}

	gen := s.current.Load()
	items, err := s.runBatch(ctx, len(recipe.Ingredients), func(i int) ingredient.NormalizedIngredient {
		found := recipe.Ingredients[i]
		if found.IsSplit() {
			return s.normalizeParts(gen, found.Quantity, found.Unit, found.Name)
		}
		return s.normalizeLine(gen, found.Line)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Recipe normalized",
		zap.String("title", recipe.Title),
		zap.Int("ingredients", items.Total),
		zap.String("batch_id", items.BatchID),
	)

	return &inbound.RecipeResult{
		Title:        recipe.Title,
		Instructions: recipe.Instructions,
		Ingredients:  items,
	}, nil
}

// Convert re-expresses a quantity in another unit of the same dimension,
// or in every such unit when no target is given
func (s *Service) Convert(ctx context.Context, cmd inbound.ConvertCommand) (*inbound.ConversionDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	units := s.current.Load().normalizer.Units()
	src, ok := units.Lookup(cmd.From)
	if !ok {
		return nil, errors.NewUnitUnrecognizedError(cmd.From, ingredient.ErrUnitUnrecognized)
	}

	dto := &inbound.ConversionDTO{
		Quantity:  cmd.Quantity,
		From:      src.Name,
		Dimension: src.Dimension,
	}

	if cmd.To == "" {
		all, err := units.ConvertAll(cmd.Quantity, cmd.From)
		if err != nil {
			return nil, s.conversionError(cmd, err)
		}
		dto.Results = all
		return dto, nil
	}

	value, err := units.Convert(cmd.Quantity, cmd.From, cmd.To)
	if err != nil {
		return nil, s.conversionError(cmd, err)
	}
	dst, _ := units.Lookup(cmd.To)
	dto.To = dst.Name
	dto.Result = &value
	return dto, nil
}

// EstimateCost prices an amount of an ingredient
func (s *Service) EstimateCost(ctx context.Context, cmd inbound.CostCommand) (*inbound.CostDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	units := s.current.Load().normalizer.Units()
	estimate, err := ingredient.EstimateCost(units, cmd.Amount, cmd.Unit, cmd.CostPerUnit, cmd.CostUnit)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	return &inbound.CostDTO{CostEstimate: estimate}, nil
}

// Units lists the canonical units in registration order
func (s *Service) Units(_ context.Context) []inbound.UnitDTO {
	units := s.current.Load().normalizer.Units().Units()
	out := make([]inbound.UnitDTO, len(units))
	for i, u := range units {
		out[i] = inbound.UnitDTO{
			Name:      u.Name,
			Dimension: u.Dimension,
			Factor:    u.Factor,
			Synonyms:  u.Synonyms,
		}
	}
	return out
}

// Densities lists the density table sorted by name
func (s *Service) Densities(_ context.Context) []inbound.DensityDTO {
	table := s.current.Load().normalizer.Densities()
	names := table.Names()
	out := make([]inbound.DensityDTO, 0, len(names))
	for _, name := range names {
		d, err := table.Density(name)
		if err != nil {
			continue
		}
		out = append(out, inbound.DensityDTO{Name: name, Density: d})
	}
	return out
}

// SwapTables replaces the reference tables used by later calls. Calls
// already running finish against the tables they started with.
func (s *Service) SwapTables(units *ingredient.UnitTable, densities *ingredient.DensityTable) error {
	normalizer, err := ingredient.NewNormalizer(
		ingredient.WithUnitTable(units),
		ingredient.WithDensityTable(densities),
	)
	if err != nil {
		s.metrics.RecordReferenceReload(false)
		return errors.NewInvalidReferenceDataError("reference tables", err)
	}

	next := newGeneration(normalizer)
	s.current.Store(next)
	if s.cache != nil {
		s.cache.Clear()
	}
	s.metrics.RecordReferenceReload(true)

	s.logger.Info("Reference tables replaced",
		zap.String("fingerprint", next.fingerprint),
		zap.Int("units", units.Len()),
		zap.Int("densities", densities.Len()),
	)
	return nil
}

// Tables returns the reference tables currently in use
func (s *Service) Tables() (*ingredient.UnitTable, *ingredient.DensityTable) {
	n := s.current.Load().normalizer
	return n.Units(), n.Densities()
}

func newGeneration(n *ingredient.Normalizer) *generation {
	return &generation{fingerprint: n.Fingerprint(), normalizer: n}
}

func (s *Service) checkBatchSize(n int) error {
	if n > s.opts.MaxBatchLines {
		return errors.NewValidationError(
			fmt.Sprintf("batch holds %d lines, at most %d are accepted", n, s.opts.MaxBatchLines),
		).WithMetadata("limit", s.opts.MaxBatchLines)
	}
	return nil
}

// runBatch evaluates fn for every index on a bounded worker pool and
// collects the results in index order
func (s *Service) runBatch(ctx context.Context, n int, fn func(i int) ingredient.NormalizedIngredient) (*inbound.BatchResult, error) {
	start := time.Now()
	items := make([]inbound.IngredientDTO, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i := 0; i < n; i++ {
		i := i
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			items[i] = inbound.IngredientDTO{NormalizedIngredient: fn(i)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary := make(map[ingredient.ConversionStatus]int, len(ingredient.AllStatuses))
	for _, status := range ingredient.AllStatuses {
		summary[status] = 0
	}
	for _, item := range items {
		summary[item.Status]++
	}

	batchID := uuid.New().String()
	elapsed := time.Since(start)
	s.metrics.RecordBatch(n, elapsed)
	s.logger.Info("Batch normalized",
		zap.String("batch_id", batchID),
		zap.Int("lines", n),
		zap.Int("converted", summary[ingredient.StatusConverted]),
		zap.Duration("duration", elapsed),
	)

	return &inbound.BatchResult{
		BatchID: batchID,
		Items:   items,
		Summary: summary,
		Total:   n,
	}, nil
}

func (s *Service) normalizeLine(gen *generation, line string) ingredient.NormalizedIngredient {
	return s.memoize(gen, "l\x00"+line, func() ingredient.NormalizedIngredient {
		return gen.normalizer.Normalize(line)
	})
}

func (s *Service) normalizeParts(gen *generation, quantity, unit, name string) ingredient.NormalizedIngredient {
	key := "p\x00" + quantity + "\x00" + unit + "\x00" + name
	return s.memoize(gen, key, func() ingredient.NormalizedIngredient {
		return gen.normalizer.NormalizeParts(quantity, unit, name)
	})
}

func (s *Service) memoize(gen *generation, key string, compute func() ingredient.NormalizedIngredient) ingredient.NormalizedIngredient {
	start := time.Now()
	key = gen.fingerprint + "\x00" + key

	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			s.metrics.RecordCacheLookup(true)
			s.metrics.RecordNormalization(cached.Status, time.Since(start))
			// callers never share pointer fields with the cache
			return cached.Clone()
		}
		s.metrics.RecordCacheLookup(false)
	}

	result := compute()
	if s.cache != nil {
		s.cache.Set(key, result.Clone())
	}
	s.metrics.RecordNormalization(result.Status, time.Since(start))
	return result
}

func (s *Service) conversionError(cmd inbound.ConvertCommand, err error) error {
	switch {
	case stderrors.Is(err, ingredient.ErrUnitUnrecognized):
		unit := cmd.To
		if _, ok := s.current.Load().normalizer.Units().Lookup(cmd.From); !ok {
			unit = cmd.From
		}
		return errors.NewUnitUnrecognizedError(unit, err)
	case stderrors.Is(err, ingredient.ErrDimensionMismatch):
		return errors.NewDimensionMismatchError(cmd.From, cmd.To, err)
	default:
		return errors.Wrap(err, "conversion failed")
	}
}
