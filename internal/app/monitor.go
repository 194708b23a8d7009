package app

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ACONG-AC/miyar-arcteryx-monitor/internal/domain"
	"github.com/ACONG-AC/miyar-arcteryx-monitor/internal/infra/notify"
	"github.com/ACONG-AC/miyar-arcteryx-monitor/internal/infra/snapshot"
	"github.com/ACONG-AC/miyar-arcteryx-monitor/internal/infra/storefront"
	"github.com/ACONG-AC/miyar-arcteryx-monitor/internal/infra/telemetry"
)

// CatalogSource retrieves raw catalog records from a storefront.
type CatalogSource interface {
	ListCatalog(ctx context.Context) ([]storefront.Record, error)
	LookupByHandle(ctx context.Context, handle string) (storefront.Record, error)
	ProductURLs(ctx context.Context) ([]string, error)
	BaseURL() *url.URL
	Pace(ctx context.Context)
}

// SnapshotStore persists the last observed catalog between runs.
type SnapshotStore interface {
	Load(ctx context.Context) (domain.Catalog, error)
	Save(ctx context.Context, catalog domain.Catalog) error
}

// Notifier delivers one formatted change message.
type Notifier interface {
	Dispatch(ctx context.Context, message string, thumbnail *string) error
}

// ErrEmptyCatalog is returned when both retrieval strategies yield no
// products. The run aborts before persisting so the snapshot keeps the
// last good catalog.
var ErrEmptyCatalog = errors.New("no products retrieved from storefront")

// Monitor runs one observe-diff-notify-persist cycle against a
// storefront.
type Monitor struct {
	logger    *zap.Logger
	source    CatalogSource
	store     SnapshotStore
	notifier  Notifier
	formatter notify.Formatter
	matcher   domain.BrandMatcher
	metrics   *telemetry.Metrics
}

func newMonitor(cfg domain.MonitorConfig, source CatalogSource, store SnapshotStore, notifier Notifier, metrics *telemetry.Metrics, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		logger:    logger.Named("monitor"),
		source:    source,
		store:     store,
		notifier:  notifier,
		formatter: notify.Formatter{Region: cfg.RegionLabel, CurrencyPrefix: cfg.CurrencyPrefix},
		matcher:   domain.NewBrandMatcher(cfg.Brand),
		metrics:   metrics,
	}
}

// NewMonitor wires a Monitor from config. The returned cleanup closes
// the snapshot store.
func NewMonitor(cfg domain.MonitorConfig, metrics *telemetry.Metrics, logger *zap.Logger) (*Monitor, func() error, error) {
	client, err := storefront.NewClient(storefront.ClientConfig{
		BaseURL:      cfg.StoreURL,
		UserAgent:    cfg.HTTP.UserAgent,
		Timeout:      time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
		RetryMax:     cfg.HTTP.RetryMax,
		RetryBackoff: time.Duration(cfg.HTTP.RetryBackoffMillis) * time.Millisecond,
		PageLimit:    cfg.HTTP.PageLimit,
		MaxPages:     cfg.HTTP.MaxPages,
		MaxSitemaps:  cfg.HTTP.MaxSitemaps,
		PageDelay:    time.Duration(cfg.HTTP.PageDelayMillis) * time.Millisecond,
		LookupDelay:  time.Duration(cfg.HTTP.LookupDelayMillis) * time.Millisecond,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	store, err := snapshot.Open(cfg.SnapshotPath, logger)
	if err != nil {
		return nil, nil, err
	}

	notifier := notify.NewWebhookNotifier(notify.WebhookConfig{
		URL:          cfg.WebhookURL,
		UserAgent:    cfg.HTTP.UserAgent,
		Timeout:      time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
		RetryMax:     cfg.HTTP.RetryMax,
		RetryBackoff: time.Duration(cfg.HTTP.RetryBackoffMillis) * time.Millisecond,
	}, logger)

	return newMonitor(cfg, client, store, notifier, metrics, logger), store.Close, nil
}

// Run executes one full monitor cycle: load the previous snapshot,
// rebuild the catalog, classify changes, dispatch notifications, then
// persist the new catalog. Dispatch failures are logged and counted
// but never abort the run.
func (m *Monitor) Run(ctx context.Context) error {
	runID := uuid.NewString()
	logger := m.logger.With(zap.String("run_id", runID))
	start := time.Now()
	m.metrics.RunStarted()

	previous, err := m.store.Load(ctx)
	if err != nil {
		m.metrics.RunFailed()
		return err
	}

	current, err := m.buildCatalog(ctx, logger)
	if err != nil {
		m.metrics.RunFailed()
		return err
	}

	events := domain.DiffCatalogs(previous, current)
	for _, ev := range events {
		m.metrics.EventDetected(ev.Kind)
		message := m.formatter.Format(ev)
		if err := m.notifier.Dispatch(ctx, message, ev.Product.Image); err != nil {
			m.metrics.DispatchFailed()
			logger.Warn("notification dispatch failed",
				zap.String("kind", string(ev.Kind)),
				zap.String("handle", ev.Product.Handle),
				zap.Error(err),
			)
		}
	}

	if err := m.store.Save(ctx, current); err != nil {
		m.metrics.RunFailed()
		return err
	}

	m.metrics.RunFinished(start, len(current))
	logger.Info("run complete",
		zap.Int("tracked", len(current)),
		zap.Int("events", len(events)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// buildCatalog retrieves the full brand catalog. The bulk listing is
// the primary strategy; each listed product is then enriched with its
// per-product lookup, which carries fresher availability. When the
// bulk listing yields no records at all the sitemap fallback rebuilds
// the catalog from per-product lookups alone. The fatal decision keys
// off raw records retrieved, not brand membership: a storefront that
// answered with products but none in brand still yields a (possibly
// empty) catalog to persist.
func (m *Monitor) buildCatalog(ctx context.Context, logger *zap.Logger) (domain.Catalog, error) {
	base := m.source.BaseURL()

	records, err := m.source.ListCatalog(ctx)
	if err != nil {
		logger.Warn("bulk catalog retrieval failed", zap.Error(err))
	}

	if len(records) == 0 {
		fallback, retrieved, err := m.sitemapCatalog(ctx, logger, base)
		if err != nil {
			return nil, err
		}
		if retrieved == 0 {
			return nil, ErrEmptyCatalog
		}
		return fallback, nil
	}

	catalog := make(domain.Catalog)
	for _, rec := range records {
		if !storefront.InBrand(rec, m.matcher) {
			continue
		}
		product, ok := storefront.NormalizeListing(rec, base)
		if !ok {
			continue
		}
		catalog[product.Handle] = product
	}

	m.enrichCatalog(ctx, logger, base, catalog)
	return catalog, nil
}

// enrichCatalog overlays each product with its lookup record. Lookup
// failures keep the bulk product as-is.
func (m *Monitor) enrichCatalog(ctx context.Context, logger *zap.Logger, base *url.URL, catalog domain.Catalog) {
	for _, handle := range catalog.SortedHandles() {
		m.source.Pace(ctx)
		rec, err := m.source.LookupByHandle(ctx, handle)
		if err != nil {
			m.metrics.FetchSkipped()
			logger.Warn("product lookup failed", zap.String("handle", handle), zap.Error(err))
			continue
		}
		if rec == nil {
			continue
		}
		overlay, ok := storefront.NormalizeLookup(rec, base)
		if !ok {
			continue
		}
		catalog[handle] = domain.MergeProduct(catalog[handle], overlay)
	}
}

// sitemapCatalog also reports how many raw records the lookups
// returned, so the caller can tell an unreachable storefront apart
// from one with no brand products.
func (m *Monitor) sitemapCatalog(ctx context.Context, logger *zap.Logger, base *url.URL) (domain.Catalog, int, error) {
	urls, err := m.source.ProductURLs(ctx)
	if err != nil {
		return nil, 0, err
	}
	logger.Info("falling back to sitemap retrieval", zap.Int("urls", len(urls)))

	retrieved := 0
	catalog := make(domain.Catalog)
	for _, raw := range urls {
		handle, ok := storefront.HandleFromProductURL(raw)
		if !ok {
			continue
		}
		m.source.Pace(ctx)
		rec, err := m.source.LookupByHandle(ctx, handle)
		if err != nil {
			m.metrics.FetchSkipped()
			logger.Warn("product lookup failed", zap.String("handle", handle), zap.Error(err))
			continue
		}
		if rec == nil {
			continue
		}
		retrieved++
		if !storefront.InBrand(rec, m.matcher) {
			continue
		}
		product, ok := storefront.NormalizeLookup(rec, base)
		if !ok {
			continue
		}
		catalog[product.Handle] = product
	}
	return catalog, retrieved, nil
}
