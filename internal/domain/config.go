package domain

// Defaults for monitor configuration knobs. Values mirror the knobs a
// storefront tolerates without tripping rate limiting.
const (
	DefaultBrand                      = "Arc'teryx"
	DefaultRegionLabel                = "🇨🇦 Canada Store"
	DefaultCurrencyPrefix             = "CA$"
	DefaultSnapshotPath               = "arcmon.db"
	DefaultUserAgent                  = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	DefaultHTTPTimeoutSeconds         = 20
	DefaultRetryMax                   = 3
	DefaultRetryBackoffMillis         = 1200
	DefaultPageLimit                  = 250
	DefaultMaxPages                   = 40
	DefaultMaxSitemaps                = 30
	DefaultPageDelayMillis            = 500
	DefaultLookupDelayMillis          = 250
	DefaultWatchIntervalSeconds       = 300
	DefaultObservabilityListenAddress = "127.0.0.1:9464"
)

// MonitorConfig is the validated runtime configuration for one
// storefront monitor.
type MonitorConfig struct {
	StoreURL       string
	Brand          string
	RegionLabel    string
	CurrencyPrefix string
	WebhookURL     string
	SnapshotPath   string
	HTTP           HTTPConfig
	Watch          WatchConfig
	Observability  ObservabilityConfig
}

type HTTPConfig struct {
	TimeoutSeconds     int
	RetryMax           int
	RetryBackoffMillis int
	UserAgent          string
	PageLimit          int
	MaxPages           int
	MaxSitemaps        int
	PageDelayMillis    int
	LookupDelayMillis  int
}

type WatchConfig struct {
	IntervalSeconds int
}

type ObservabilityConfig struct {
	ListenAddress string
}
