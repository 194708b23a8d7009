package app

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ACONG-AC/miyar-arcteryx-monitor/internal/domain"
	"github.com/ACONG-AC/miyar-arcteryx-monitor/internal/infra/config"
	"github.com/ACONG-AC/miyar-arcteryx-monitor/internal/infra/telemetry"
)

const reloadDebounce = 200 * time.Millisecond

// WatchRunner repeats monitor runs on an interval and reloads the
// config file when it changes on disk. Config changes apply on the
// next cycle.
type WatchRunner struct {
	logger     *zap.Logger
	loader     *config.Loader
	configPath string
	metrics    *telemetry.Metrics
	registry   *prometheus.Registry

	mu  sync.Mutex
	cfg domain.MonitorConfig
}

func NewWatchRunner(ctx context.Context, configPath string, logger *zap.Logger) (*WatchRunner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	loader := config.NewLoader(logger)
	cfg, err := loader.Load(ctx, configPath)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	return &WatchRunner{
		logger:     logger.Named("watch"),
		loader:     loader,
		configPath: configPath,
		metrics:    telemetry.NewMetrics(registry),
		registry:   registry,
		cfg:        cfg,
	}, nil
}

// Run blocks until ctx is cancelled. Run failures are logged and the
// loop keeps going; only telemetry server startup failures are fatal.
func (w *WatchRunner) Run(ctx context.Context) error {
	cfg := w.current()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- telemetry.StartHTTPServer(ctx, telemetry.HTTPServerOptions{
			Addr:     cfg.Observability.ListenAddress,
			Registry: w.registry,
		}, w.logger)
	}()
	go w.watchConfig(ctx)

	for {
		w.cycle(ctx)

		interval := time.Duration(w.current().Watch.IntervalSeconds) * time.Second
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return <-serverErr
		case err := <-serverErr:
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}

func (w *WatchRunner) cycle(ctx context.Context) {
	cfg := w.current()
	monitor, cleanup, err := NewMonitor(cfg, w.metrics, w.logger)
	if err != nil {
		w.metrics.RunFailed()
		w.logger.Error("monitor setup failed", zap.Error(err))
		return
	}
	defer func() {
		if err := cleanup(); err != nil {
			w.logger.Warn("snapshot store close failed", zap.Error(err))
		}
	}()

	if err := monitor.Run(ctx); err != nil && ctx.Err() == nil {
		w.logger.Error("monitor run failed", zap.Error(err))
	}
}

func (w *WatchRunner) current() domain.MonitorConfig {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cfg
}

func (w *WatchRunner) reload(ctx context.Context) {
	cfg, err := w.loader.Load(ctx, w.configPath)
	if err != nil {
		w.logger.Warn("config reload failed", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.cfg = cfg
	w.mu.Unlock()
	w.logger.Info("config reloaded", zap.String("path", w.configPath))
}

func (w *WatchRunner) watchConfig(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn("config watcher failed", zap.Error(err))
		return
	}
	defer watcher.Close()

	// Watch the directory: editors replace the file on save, which
	// drops a watch on the file itself.
	if err := watcher.Add(filepath.Dir(w.configPath)); err != nil {
		w.logger.Warn("config watcher add failed", zap.Error(err))
		return
	}

	target := filepath.Base(w.configPath)
	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-watcher.Errors:
			if err != nil {
				w.logger.Warn("config watcher error", zap.Error(err))
			}
		case event := <-watcher.Events:
			if filepath.Base(event.Name) != target {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(reloadDebounce)
		case <-timerChan(timer):
			timer = nil
			w.reload(ctx)
		}
	}
}

func timerChan(timer *time.Timer) <-chan time.Time {
	if timer == nil {
		return nil
	}
	return timer.C
}
