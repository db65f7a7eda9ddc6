// Package quote is the entry point used by the bot and the webhook: it
// runs the safety filter, constraint checks and pricing against the
// current catalog, caches quotes and reloads the catalog.
package quote

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"storal-pricer/internal/catalog"
	"storal-pricer/internal/engine"
	"storal-pricer/internal/observability"
	"storal-pricer/internal/units"
)

// Cache stores computed quotes. A miss or an error only costs a
// recomputation.
type Cache interface {
	GetQuote(ctx context.Context, key string) (*engine.Quote, bool, error)
	SetQuote(ctx context.Context, key string, q *engine.Quote) error
}

// OverrideSource supplies admin-edited margin coefficients.
type OverrideSource interface {
	CoefficientOverrides(ctx context.Context) ([]catalog.CoefficientOverride, error)
}

// CatalogSource supplies a fresh base catalog, e.g. from a remote service.
type CatalogSource interface {
	FetchCatalog(ctx context.Context) (*catalog.Catalog, error)
}

type Service struct {
	// reloadMu serialises reloads; pricing never takes it.
	reloadMu  sync.Mutex
	base      *catalog.Catalog
	store     *catalog.Store
	cache     Cache
	overrides OverrideSource
	source    CatalogSource
	logger    *zap.Logger
}

type Option func(*Service)

func WithCache(c Cache) Option                   { return func(s *Service) { s.cache = c } }
func WithOverrides(o OverrideSource) Option      { return func(s *Service) { s.overrides = o } }
func WithCatalogSource(src CatalogSource) Option { return func(s *Service) { s.source = src } }

func NewService(base *catalog.Catalog, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		base:   base,
		store:  catalog.NewStore(base),
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the catalog currently used for pricing.
func (s *Service) Catalog() *catalog.Catalog {
	return s.store.Load()
}

func (s *Service) Version() string {
	return s.store.Load().Version()
}

// EvaluateSafety partitions the catalog for a customer size in centimetres.
func (s *Service) EvaluateSafety(widthCm, depthCm int) engine.SafetyResult {
	res := engine.EvaluateSafetyCm(s.store.Load(), widthCm, depthCm)
	observability.SafetyExclusionsTotal.Add(float64(len(res.Excluded)))
	if len(res.Excluded) > 0 {
		s.logger.Info("Models excluded for safety",
			zap.Int("width_cm", widthCm),
			zap.Int("depth_cm", depthCm),
			zap.Strings("excluded", res.Excluded))
	}
	return res
}

func (s *Service) ResolveArmCount(modelID string, width, projection int) (int, error) {
	m, err := s.store.Load().Model(modelID)
	if err != nil {
		return 0, &engine.Failure{Kind: engine.UnknownModel, ModelID: modelID, Detail: fmt.Sprintf("Modèle inconnu : %s", modelID)}
	}
	return engine.ResolveArmCount(m, width, projection)
}

// PriceModel prices one configuration. Expected outcomes such as a dead
// zone are returned as *engine.Failure.
func (s *Service) PriceModel(ctx context.Context, modelID string, width, projection int, opts engine.Options) (*engine.Quote, error) {
	return s.price(ctx, s.store.Load(), engine.Request{
		ModelID:    modelID,
		Width:      width,
		Projection: projection,
		Options:    opts,
	})
}

func (s *Service) price(ctx context.Context, cat *catalog.Catalog, req engine.Request) (*engine.Quote, error) {
	key := CacheKey(cat.Version(), req)

	if s.cache != nil {
		q, ok, err := s.cache.GetQuote(ctx, key)
		switch {
		case err != nil:
			observability.QuoteCacheTotal.WithLabelValues("error").Inc()
			s.logger.Warn("Quote cache read failed", zap.String("key", key), zap.Error(err))
		case ok:
			observability.QuoteCacheTotal.WithLabelValues("hit").Inc()
			return q, nil
		default:
			observability.QuoteCacheTotal.WithLabelValues("miss").Inc()
		}
	}

	start := time.Now()
	q, err := engine.Price(cat, req)
	observability.PriceDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		outcome := "error"
		if f, ok := engine.AsFailure(err); ok {
			outcome = f.Kind.String()
		}
		observability.QuotesTotal.WithLabelValues(req.ModelID, outcome).Inc()
		return nil, err
	}
	observability.QuotesTotal.WithLabelValues(req.ModelID, "ok").Inc()

	if s.cache != nil {
		if err := s.cache.SetQuote(ctx, key, q); err != nil {
			s.logger.Warn("Quote cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return q, nil
}

// Comparison is the outcome of pricing every safe candidate for one size.
type Comparison struct {
	Width      int
	Projection int
	Options    engine.Options
	Safety     engine.SafetyResult
	Candidates []string
	Quotes     []*engine.Quote
	Failures   []*engine.Failure
}

// Compare filters the catalog for the size in millimetres, narrows it to
// the preferred models and prices each candidate. A failing candidate is
// recorded and the others still get priced.
func (s *Service) Compare(ctx context.Context, width, projection int, opts engine.Options, preferred []string) (*Comparison, error) {
	cat := s.store.Load()

	safety := engine.EvaluateSafety(cat, width, projection)
	observability.SafetyExclusionsTotal.Add(float64(len(safety.Excluded)))

	cmp := &Comparison{
		Width:      width,
		Projection: projection,
		Options:    opts,
		Safety:     safety,
		Candidates: safety.Narrow(preferred),
	}

	for _, id := range cmp.Candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q, err := s.price(ctx, cat, engine.Request{ModelID: id, Width: width, Projection: projection, Options: opts})
		if err != nil {
			f, ok := engine.AsFailure(err)
			if !ok {
				return nil, fmt.Errorf("quote.Compare: %s: %w", id, err)
			}
			cmp.Failures = append(cmp.Failures, f)
			continue
		}
		cmp.Quotes = append(cmp.Quotes, q)
	}

	s.logger.Debug("Comparison computed",
		zap.Int("width_mm", width),
		zap.Int("projection_mm", projection),
		zap.Int("quotes", len(cmp.Quotes)),
		zap.Int("failures", len(cmp.Failures)))
	return cmp, nil
}

// CompareCm is Compare for customer input in centimetres.
func (s *Service) CompareCm(ctx context.Context, widthCm, depthCm int, opts engine.Options, preferred []string) (*Comparison, error) {
	return s.Compare(ctx, units.CmToMm(widthCm), units.CmToMm(depthCm), opts, preferred)
}

// Reload rebuilds the catalog from its base plus the persisted overrides
// and swaps it in. On error the current catalog stays in place.
func (s *Service) Reload(ctx context.Context) error {
	const operation = "quote.Reload"

	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	base := s.base
	if s.source != nil {
		fetched, err := s.source.FetchCatalog(ctx)
		if err != nil {
			observability.CatalogReloadsTotal.WithLabelValues("error").Inc()
			return fmt.Errorf("%s: fetch catalog: %w", operation, err)
		}
		base = fetched
	}

	var overrides []catalog.CoefficientOverride
	if s.overrides != nil {
		var err error
		overrides, err = s.overrides.CoefficientOverrides(ctx)
		if err != nil {
			observability.CatalogReloadsTotal.WithLabelValues("error").Inc()
			return fmt.Errorf("%s: load overrides: %w", operation, err)
		}
	}

	next, err := base.WithCoefficients(s.applicable(base, overrides))
	if err != nil {
		observability.CatalogReloadsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("%s: %w", operation, err)
	}

	prev := s.store.Replace(next)
	s.base = base
	observability.CatalogReloadsTotal.WithLabelValues("ok").Inc()
	s.logger.Info("Catalog reloaded",
		zap.String("previous_version", prev.Version()),
		zap.String("version", next.Version()),
		zap.Int("overrides", len(overrides)))
	return nil
}

// applicable drops overrides for models the catalog no longer has, so a
// stale override cannot block later reloads.
func (s *Service) applicable(base *catalog.Catalog, overrides []catalog.CoefficientOverride) []catalog.CoefficientOverride {
	out := make([]catalog.CoefficientOverride, 0, len(overrides))
	for _, o := range overrides {
		if _, err := base.Model(o.ModelID); err != nil {
			s.logger.Warn("Skipping coefficient override for unknown model",
				zap.String("model_id", o.ModelID),
				zap.String("option", string(o.Option)))
			continue
		}
		out = append(out, o)
	}
	return out
}

// RunRefresher reloads the catalog every interval until ctx is done.
func (s *Service) RunRefresher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Reload(ctx); err != nil {
				s.logger.Error("Periodic catalog reload failed", zap.Error(err))
			}
		}
	}
}
