package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/dwarvesf/swap-history/internal/consts"
	"github.com/dwarvesf/swap-history/internal/types/environments"
)

type AppConfig struct {
	Environment    environments.Environment `validate:"oneof=production development staging test"`
	ApiServer      ApiServerConfig
	Postgres       DBConnection
	Midgard        MidgardConfig
	Chainflip      ChainflipConfig
	CoinGecko      CoinGeckoConfig
	Ingestion      IngestionConfig
	Schedule       ScheduleConfig
	UptimeWebhooks UptimeWebhooksConfig
	Vault          VaultConfig
	Sources        []SourceConfig `validate:"required,min=1,unique=Kind,dive"`
	LogFile        string
}

type ApiServerConfig struct {
	AllowedOrigins string
	Port           string
}

type DBConnection struct {
	Host string
	Port string
	User string
	Name string
	Pass string

	SSLMode string
}

type MidgardConfig struct {
	NativeBaseURL      string
	TradeBaseURL       string
	Timeout            time.Duration
	MaxAttempts        int
	RetryDelay         time.Duration
	MinRequestInterval time.Duration
}

type ChainflipConfig struct {
	GraphQLURL         string
	PageSize           int
	MaxAttempts        int
	Timeout            time.Duration
	MinRequestInterval time.Duration
}

// VaultConfig is optional; an empty Addr keeps secrets in the environment.
type VaultConfig struct {
	Addr         string
	KVSecretPath string
	Role         string
	TokenPath    string
}

type CoinGeckoConfig struct {
	BaseURL string
	APIKey  string
}

type IngestionConfig struct {
	CheckpointDir          string
	BackfillStartTimestamp int64
	BackfillFlushPages     int
	MaxPagesPerPass        int
	ForwardHistoryOnStart  bool
	BackfillOnStart        bool
	Timezone               string
}

// ScheduleConfig holds cron specs for every recurring pass.
type ScheduleConfig struct {
	LiveTail      string
	PendingRetry  string
	Backfill      string
	Reconcile     string
	ChainflipSync string
	ClosingPrice  string
}

type UptimeWebhooksConfig struct {
	LiveTailURL      string
	BackfillURL      string
	ReconcileURL     string
	PendingRetryURL  string
	ChainflipSyncURL string
	ClosingPriceURL  string
}

// SourceConfig is the typed table descriptor of one upstream source.
// Reconcile enables the daily re-walk of the local calendar day.
type SourceConfig struct {
	Kind            consts.SourceKind     `validate:"required,oneof=native trade chainflip"`
	Table           string                `validate:"required,sqlident"`
	BaseURL         string                `validate:"required,url"`
	Conflict        consts.ConflictPolicy `validate:"required,oneof=ignore overwrite"`
	SettlementAsset string                `validate:"required_unless=Kind chainflip"`
	Decimals        int32                 `validate:"gte=0,lte=18"`
	Notation        consts.AssetNotation  `validate:"omitempty,oneof=pool trade"`
	Reconcile       bool                  `validate:"excluded_if=Kind chainflip"`
	Enrich          bool
}

func New() *AppConfig {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// this will not override env variables if they already exist
	godotenv.Load(".env." + env)

	cfg := &AppConfig{
		Environment: environments.Environment(env),
		ApiServer: ApiServerConfig{
			AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
			Port:           envVarOrDefault("PORT", "3000"),
		},
		Postgres: DBConnection{
			Host:    os.Getenv("DB_HOST"),
			Port:    os.Getenv("DB_PORT"),
			User:    os.Getenv("DB_USER"),
			Name:    os.Getenv("DB_NAME"),
			Pass:    os.Getenv("DB_PASS"),
			SSLMode: os.Getenv("DB_SSL_MODE"),
		},
		Midgard: MidgardConfig{
			NativeBaseURL:      envVarOrDefault("MIDGARD_NATIVE_BASE_URL", "https://vanaheimex.com"),
			TradeBaseURL:       envVarOrDefault("MIDGARD_TRADE_BASE_URL", "https://vanaheimex.com"),
			Timeout:            envVarDuration("MIDGARD_TIMEOUT", 5*time.Second),
			MaxAttempts:        envVarAtoiOrDefault("MIDGARD_MAX_ATTEMPTS", 3),
			RetryDelay:         envVarDuration("MIDGARD_RETRY_DELAY", 500*time.Millisecond),
			MinRequestInterval: envVarDuration("MIDGARD_MIN_REQUEST_INTERVAL", 200*time.Millisecond),
		},
		Chainflip: ChainflipConfig{
			GraphQLURL:         envVarOrDefault("CHAINFLIP_GRAPHQL_URL", "https://explorer-service-processor.chainflip.io/graphql"),
			PageSize:           envVarAtoiOrDefault("CHAINFLIP_PAGE_SIZE", 30),
			MaxAttempts:        envVarAtoiOrDefault("CHAINFLIP_MAX_ATTEMPTS", 10),
			Timeout:            envVarDuration("CHAINFLIP_TIMEOUT", 15*time.Second),
			MinRequestInterval: envVarDuration("CHAINFLIP_MIN_REQUEST_INTERVAL", 500*time.Millisecond),
		},
		CoinGecko: CoinGeckoConfig{
			BaseURL: envVarOrDefault("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
			APIKey:  os.Getenv("COINGECKO_API_KEY"),
		},
		Ingestion: IngestionConfig{
			CheckpointDir:          envVarOrDefault("CHECKPOINT_DIR", "checkpoints"),
			BackfillStartTimestamp: int64(envVarAtoiOrDefault("BACKFILL_START_TIMESTAMP", int(consts.BackfillStartTimestamp))),
			BackfillFlushPages:     envVarAtoiOrDefault("BACKFILL_FLUSH_PAGES", consts.BackfillFlushPages),
			MaxPagesPerPass:        envVarAtoiOrDefault("MAX_PAGES_PER_PASS", 500),
			ForwardHistoryOnStart:  envVarAsBool("FORWARD_HISTORY_ON_START"),
			BackfillOnStart:        os.Getenv("BACKFILL_ON_START") != "false",
			Timezone:               envVarOrDefault("INGESTION_TIMEZONE", "UTC"),
		},
		Schedule: ScheduleConfig{
			LiveTail:      envVarOrDefault("SCHEDULE_LIVE_TAIL", "@every 5m"),
			PendingRetry:  envVarOrDefault("SCHEDULE_PENDING_RETRY", "@every 5m"),
			Backfill:      envVarOrDefault("SCHEDULE_BACKFILL", "@every 1h"),
			Reconcile:     envVarOrDefault("SCHEDULE_RECONCILE", "55 11,23 * * *"),
			ChainflipSync: envVarOrDefault("SCHEDULE_CHAINFLIP_SYNC", "@every 15m"),
			ClosingPrice:  envVarOrDefault("SCHEDULE_CLOSING_PRICE", "5 0 * * *"),
		},
		UptimeWebhooks: UptimeWebhooksConfig{
			LiveTailURL:      os.Getenv("UPTIME_WEBHOOK_LIVE_TAIL_URL"),
			BackfillURL:      os.Getenv("UPTIME_WEBHOOK_BACKFILL_URL"),
			ReconcileURL:     os.Getenv("UPTIME_WEBHOOK_RECONCILE_URL"),
			PendingRetryURL:  os.Getenv("UPTIME_WEBHOOK_PENDING_RETRY_URL"),
			ChainflipSyncURL: os.Getenv("UPTIME_WEBHOOK_CHAINFLIP_SYNC_URL"),
			ClosingPriceURL:  os.Getenv("UPTIME_WEBHOOK_CLOSING_PRICE_URL"),
		},
		Vault: VaultConfig{
			Addr:         os.Getenv("VAULT_ADDR"),
			KVSecretPath: os.Getenv("VAULT_KV_SECRET_PATH"),
			Role:         os.Getenv("VAULT_ROLE"),
			TokenPath:    envVarOrDefault("VAULT_K8S_TOKEN_PATH", "/var/run/secrets/kubernetes.io/serviceaccount/token"),
		},
		LogFile: os.Getenv("LOG_FILE"),
	}
	cfg.Sources = DefaultSources(cfg)

	return cfg
}

// DefaultSources returns the source descriptors the ingestor runs with.
// Native and trade rows never change once final, chainflip rows get revised upstream.
func DefaultSources(cfg *AppConfig) []SourceConfig {
	return []SourceConfig{
		{
			Kind:            consts.SourceNative,
			Table:           envVarOrDefault("NATIVE_SWAPS_TABLE", "native_swaps"),
			BaseURL:         cfg.Midgard.NativeBaseURL,
			Conflict:        consts.ConflictIgnore,
			SettlementAsset: consts.NativeSettlementAsset,
			Decimals:        consts.THORChainDecimals,
			Notation:        consts.AssetNotationPool,
			Enrich:          envVarAsBool("NATIVE_SWAPS_ENRICH_USD"),
			Reconcile:       true,
		},
		{
			Kind:            consts.SourceTrade,
			Table:           envVarOrDefault("TRADE_SWAPS_TABLE", "trade_swaps"),
			BaseURL:         cfg.Midgard.TradeBaseURL,
			Conflict:        consts.ConflictIgnore,
			SettlementAsset: consts.NativeSettlementAsset,
			Decimals:        consts.THORChainDecimals,
			Notation:        consts.AssetNotationTrade,
		},
		{
			Kind:     consts.SourceChainflip,
			Table:    envVarOrDefault("CHAINFLIP_SWAPS_TABLE", "chainflip_swaps"),
			BaseURL:  cfg.Chainflip.GraphQLURL,
			Conflict: consts.ConflictOverwrite,
		},
	}
}

// Source looks up the descriptor of a source kind.
func (c *AppConfig) Source(kind consts.SourceKind) (SourceConfig, bool) {
	for _, s := range c.Sources {
		if s.Kind == kind {
			return s, true
		}
	}
	return SourceConfig{}, false
}

// RequestInterval is the minimum delay between two requests to a source's upstream.
func (c *AppConfig) RequestInterval(kind consts.SourceKind) time.Duration {
	if kind == consts.SourceChainflip {
		return c.Chainflip.MinRequestInterval
	}
	return c.Midgard.MinRequestInterval
}

func envVarAtoi(envName string) int {
	valueStr := os.Getenv(envName)
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		panic(err)
	}

	return value
}

func envVarAtoiOrDefault(envName string, fallback int) int {
	if os.Getenv(envName) == "" {
		return fallback
	}
	return envVarAtoi(envName)
}

func envVarAsBool(envName string) bool {
	valueStr := os.Getenv(envName)
	return valueStr == "true"
}

func envVarOrDefault(envName, fallback string) string {
	if v := os.Getenv(envName); v != "" {
		return v
	}
	return fallback
}

func envVarDuration(envName string, fallback time.Duration) time.Duration {
	valueStr := os.Getenv(envName)
	if valueStr == "" {
		return fallback
	}
	d, err := time.ParseDuration(valueStr)
	if err != nil {
		panic(err)
	}
	return d
}
