package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ACONG-AC/miyar-arcteryx-monitor/internal/domain"
)

// Loader reads a monitor config file into a validated
// domain.MonitorConfig.
type Loader struct {
	logger *zap.Logger
}

func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		return &Loader{logger: zap.NewNop()}
	}
	return &Loader{logger: logger.Named("config")}
}

func newMonitorViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	setMonitorDefaults(v)
	return v
}

func setMonitorDefaults(v *viper.Viper) {
	v.SetDefault("brand", domain.DefaultBrand)
	v.SetDefault("region", domain.DefaultRegionLabel)
	v.SetDefault("currencyPrefix", domain.DefaultCurrencyPrefix)
	v.SetDefault("snapshotPath", domain.DefaultSnapshotPath)
	v.SetDefault("http.timeoutSeconds", domain.DefaultHTTPTimeoutSeconds)
	v.SetDefault("http.retryMax", domain.DefaultRetryMax)
	v.SetDefault("http.retryBackoffMillis", domain.DefaultRetryBackoffMillis)
	v.SetDefault("http.userAgent", domain.DefaultUserAgent)
	v.SetDefault("http.pageLimit", domain.DefaultPageLimit)
	v.SetDefault("http.maxPages", domain.DefaultMaxPages)
	v.SetDefault("http.maxSitemaps", domain.DefaultMaxSitemaps)
	v.SetDefault("http.pageDelayMillis", domain.DefaultPageDelayMillis)
	v.SetDefault("http.lookupDelayMillis", domain.DefaultLookupDelayMillis)
	v.SetDefault("watch.intervalSeconds", domain.DefaultWatchIntervalSeconds)
	v.SetDefault("observability.listenAddress", domain.DefaultObservabilityListenAddress)
}

type rawMonitorConfig struct {
	StoreURL       string                 `mapstructure:"storeURL"`
	Brand          string                 `mapstructure:"brand"`
	Region         string                 `mapstructure:"region"`
	CurrencyPrefix string                 `mapstructure:"currencyPrefix"`
	WebhookURL     string                 `mapstructure:"webhookURL"`
	SnapshotPath   string                 `mapstructure:"snapshotPath"`
	HTTP           rawHTTPConfig          `mapstructure:"http"`
	Watch          rawWatchConfig         `mapstructure:"watch"`
	Observability  rawObservabilityConfig `mapstructure:"observability"`
}

type rawHTTPConfig struct {
	TimeoutSeconds     int    `mapstructure:"timeoutSeconds"`
	RetryMax           int    `mapstructure:"retryMax"`
	RetryBackoffMillis int    `mapstructure:"retryBackoffMillis"`
	UserAgent          string `mapstructure:"userAgent"`
	PageLimit          int    `mapstructure:"pageLimit"`
	MaxPages           int    `mapstructure:"maxPages"`
	MaxSitemaps        int    `mapstructure:"maxSitemaps"`
	PageDelayMillis    int    `mapstructure:"pageDelayMillis"`
	LookupDelayMillis  int    `mapstructure:"lookupDelayMillis"`
}

type rawWatchConfig struct {
	IntervalSeconds int `mapstructure:"intervalSeconds"`
}

type rawObservabilityConfig struct {
	ListenAddress string `mapstructure:"listenAddress"`
}

func (l *Loader) Load(ctx context.Context, path string) (domain.MonitorConfig, error) {
	if path == "" {
		return domain.MonitorConfig{}, errors.New("config path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.MonitorConfig{}, fmt.Errorf("read config: %w", err)
	}

	expanded, unset, err := expandEnv(data)
	if err != nil {
		return domain.MonitorConfig{}, err
	}
	if len(unset) > 0 {
		l.logger.Warn("missing environment variables in config", zap.String("path", path), zap.Strings("missing", unset))
	}

	v := newMonitorViper()
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return domain.MonitorConfig{}, fmt.Errorf("parse config: %w", err)
	}

	var raw rawMonitorConfig
	if err := v.Unmarshal(&raw); err != nil {
		return domain.MonitorConfig{}, fmt.Errorf("decode config: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return domain.MonitorConfig{}, err
	}

	cfg, errs := normalizeMonitorConfig(raw)
	if len(errs) > 0 {
		return domain.MonitorConfig{}, errors.New(strings.Join(errs, "; "))
	}
	return cfg, nil
}

func normalizeMonitorConfig(raw rawMonitorConfig) (domain.MonitorConfig, []string) {
	var errs []string

	storeURL := strings.TrimSpace(raw.StoreURL)
	if storeURL == "" {
		errs = append(errs, "storeURL is required")
	} else if !isHTTPURL(storeURL) {
		errs = append(errs, "storeURL must be a valid http(s) URL")
	}

	webhookURL := strings.TrimSpace(raw.WebhookURL)
	if webhookURL != "" && !isHTTPURL(webhookURL) {
		errs = append(errs, "webhookURL must be a valid http(s) URL")
	}

	brand := strings.TrimSpace(raw.Brand)
	if brand == "" {
		errs = append(errs, "brand must not be empty")
	}

	if strings.TrimSpace(raw.SnapshotPath) == "" {
		errs = append(errs, "snapshotPath must not be empty")
	}

	httpCfg, httpErrs := normalizeHTTPConfig(raw.HTTP)
	errs = append(errs, httpErrs...)

	if raw.Watch.IntervalSeconds <= 0 {
		errs = append(errs, "watch.intervalSeconds must be > 0")
	}

	listenAddr := strings.TrimSpace(raw.Observability.ListenAddress)
	if listenAddr == "" {
		listenAddr = domain.DefaultObservabilityListenAddress
	}

	return domain.MonitorConfig{
		StoreURL:       strings.TrimRight(storeURL, "/"),
		Brand:          brand,
		RegionLabel:    raw.Region,
		CurrencyPrefix: raw.CurrencyPrefix,
		WebhookURL:     webhookURL,
		SnapshotPath:   strings.TrimSpace(raw.SnapshotPath),
		HTTP:           httpCfg,
		Watch:          domain.WatchConfig{IntervalSeconds: raw.Watch.IntervalSeconds},
		Observability:  domain.ObservabilityConfig{ListenAddress: listenAddr},
	}, errs
}

func normalizeHTTPConfig(raw rawHTTPConfig) (domain.HTTPConfig, []string) {
	var errs []string

	if raw.TimeoutSeconds <= 0 {
		errs = append(errs, "http.timeoutSeconds must be > 0")
	}
	if raw.RetryMax < 0 {
		errs = append(errs, "http.retryMax must be >= 0")
	}
	if raw.RetryBackoffMillis <= 0 {
		errs = append(errs, "http.retryBackoffMillis must be > 0")
	}
	if raw.PageLimit < 1 || raw.PageLimit > 250 {
		errs = append(errs, "http.pageLimit must be between 1 and 250")
	}
	if raw.MaxPages <= 0 {
		errs = append(errs, "http.maxPages must be > 0")
	}
	if raw.MaxSitemaps <= 0 {
		errs = append(errs, "http.maxSitemaps must be > 0")
	}
	if raw.PageDelayMillis < 0 {
		errs = append(errs, "http.pageDelayMillis must be >= 0")
	}
	if raw.LookupDelayMillis < 0 {
		errs = append(errs, "http.lookupDelayMillis must be >= 0")
	}

	return domain.HTTPConfig{
		TimeoutSeconds:     raw.TimeoutSeconds,
		RetryMax:           raw.RetryMax,
		RetryBackoffMillis: raw.RetryBackoffMillis,
		UserAgent:          strings.TrimSpace(raw.UserAgent),
		PageLimit:          raw.PageLimit,
		MaxPages:           raw.MaxPages,
		MaxSitemaps:        raw.MaxSitemaps,
		PageDelayMillis:    raw.PageDelayMillis,
		LookupDelayMillis:  raw.LookupDelayMillis,
	}, errs
}

func isHTTPURL(value string) bool {
	if strings.Contains(value, " ") {
		return false
	}
	parsed, err := url.ParseRequestURI(value)
	if err != nil || parsed.Host == "" {
		return false
	}
	return parsed.Scheme == "http" || parsed.Scheme == "https"
}
