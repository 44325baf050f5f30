package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	S3BucketName    string
	S3PublicBaseURL string // prefix for permanent object URLs; derived from bucket when empty

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	SNSRegion       string
	SNSPushTopicARN string // empty disables push delivery
	AllowedOrigins  []string

	Notifications NotificationConfig
	Enrichment    EnrichmentConfig
	Watchers      WatcherConfig
	Invoice       InvoiceConfig
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users         string
	Notifications string
	Purchases     string
	Offers        string
	Watchlist     string
}

// NotificationConfig tunes the per-user aggregation session.
type NotificationConfig struct {
	DedupWindow  time.Duration
	PollInterval time.Duration
}

// EnrichmentConfig throttles admin purchase lookups against the store.
type EnrichmentConfig struct {
	BatchSize    int
	BatchDelay   time.Duration
	FieldTimeout time.Duration
}

// WatcherConfig controls the background order-status and price watchers.
type WatcherConfig struct {
	Enabled       bool
	OrderInterval time.Duration
	PriceInterval time.Duration
}

// InvoiceConfig seeds the invoice template.
type InvoiceConfig struct {
	CompanyName    string
	HeaderText     string
	FooterText     string
	PrimaryColor   string
	SecondaryColor string
	FontFamily     string
	FontSize       float64
	HiddenSections []string // e.g. "seller,footer"
}

// Load reads all configuration from environment variables.
func Load() *Config {
	bucket := getEnv("S3_BUCKET_NAME", "clearlot-files")
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		AWSRegion:      getEnv("AWS_REGION", "ap-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:         getEnv("DYNAMO_TABLE_USERS", "users"),
			Notifications: getEnv("DYNAMO_TABLE_NOTIFICATIONS", "notifications"),
			Purchases:     getEnv("DYNAMO_TABLE_PURCHASES", "purchases"),
			Offers:        getEnv("DYNAMO_TABLE_OFFERS", "offers"),
			Watchlist:     getEnv("DYNAMO_TABLE_WATCHLIST", "watchlist"),
		},
		S3BucketName:      bucket,
		S3PublicBaseURL:   getEnv("S3_PUBLIC_BASE_URL", ""),
		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 12)) * time.Hour,
		SNSRegion:         getEnv("SNS_REGION", "ap-east-1"),
		SNSPushTopicARN:   getEnv("SNS_PUSH_TOPIC_ARN", ""),
		AllowedOrigins:    strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		Notifications: NotificationConfig{
			DedupWindow:  getEnvDuration("NOTIFICATION_DEDUP_WINDOW", 3*time.Second),
			PollInterval: getEnvDuration("NOTIFICATION_POLL_INTERVAL", 2*time.Second),
		},
		Enrichment: EnrichmentConfig{
			BatchSize:    getEnvInt("ENRICH_BATCH_SIZE", 2),
			BatchDelay:   getEnvDuration("ENRICH_BATCH_DELAY", 100*time.Millisecond),
			FieldTimeout: getEnvDuration("ENRICH_FIELD_TIMEOUT", 3*time.Second),
		},
		Watchers: WatcherConfig{
			Enabled:       getEnv("WATCHERS_ENABLED", "true") == "true",
			OrderInterval: getEnvDuration("WATCH_ORDER_INTERVAL", 30*time.Second),
			PriceInterval: getEnvDuration("WATCH_PRICE_INTERVAL", time.Minute),
		},
		Invoice: InvoiceConfig{
			CompanyName:    getEnv("INVOICE_COMPANY_NAME", "ClearLot Limited"),
			HeaderText:     getEnv("INVOICE_HEADER_TEXT", "Tax Invoice"),
			FooterText:     getEnv("INVOICE_FOOTER_TEXT", "Thank you for trading on ClearLot."),
			PrimaryColor:   getEnv("INVOICE_PRIMARY_COLOR", "#1F4E79"),
			SecondaryColor: getEnv("INVOICE_SECONDARY_COLOR", "#D9E2F3"),
			FontFamily:     getEnv("INVOICE_FONT_FAMILY", "Helvetica"),
			FontSize:       getEnvFloat("INVOICE_FONT_SIZE", 10),
			HiddenSections: getEnvList("INVOICE_HIDDEN_SECTIONS"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// getEnvList splits a comma separated value, dropping blank items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// getEnvDuration accepts Go duration strings such as "3s" or "250ms".
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
