package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/riskibarqy/prediction-league/internal/platform/logging"
	"github.com/riskibarqy/prediction-league/internal/platform/resilience"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                  string
	ServiceName             string
	ServiceVersion          string
	HTTPAddr                string
	DBURL                   string
	DBDisablePreparedBinary bool
	DBSeedEnabled           bool
	CacheEnabled            bool
	CacheTTL                time.Duration
	CORSAllowedOrigins      []string
	ReadTimeout             time.Duration
	WriteTimeout            time.Duration
	ShutdownTimeout         time.Duration
	PprofEnabled            bool
	PprofAddr               string
	SwaggerEnabled          bool

	UptraceEnabled     bool
	UptraceDSN         string
	UptraceLogsEnabled bool

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration

	GammaBaseURL       string
	GammaTimeout       time.Duration
	GammaMaxRetries    int
	GammaRatePerSecond float64
	GammaRateBurst     int
	GammaCircuit       resilience.CircuitBreakerConfig
	PriceFetchTimeout  time.Duration

	ChainEnabled        bool
	ChainRPCURL         string
	ChainTokenAddress   string
	ChainEscrowAddress  string
	ChainLookbackBlocks uint64
	ChainTimeout        time.Duration

	SwapFeeRate decimal.Decimal

	JobSchedulerEnabled bool
	JobPriceInterval    time.Duration
	JobScoringInterval  time.Duration
	JobRunTimeout       time.Duration
	JobMaxWorkers       int
	JobMetricCapacity   int

	RateLimitPerSecond  float64
	RateLimitBurst      int
	RateLimitMaxClients int

	InternalJobToken    string
	QStashEnabled       bool
	QStashBaseURL       string
	QStashToken         string
	QStashTargetBaseURL string
	QStashRetries       int
	QStashCircuit       resilience.CircuitBreakerConfig

	LogLevel  logging.Level
	LogFormat logging.Format
}

// Load reads an optional .env file (ENV_FILE overrides the path) and then the process environment.
// Variables already set in the environment win over the file.
func Load() (Config, error) {
	if err := loadDotEnv(getEnv("ENV_FILE", ".env")); err != nil {
		return Config{}, err
	}

	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	swaggerDefault := "true"
	if appEnv == EnvProd {
		swaggerDefault = "false"
	}

	swaggerEnabled, err := strconv.ParseBool(getEnv("SWAGGER_ENABLED", swaggerDefault))
	if err != nil {
		return Config{}, fmt.Errorf("parse SWAGGER_ENABLED: %w", err)
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	uptraceLogsEnabled, err := strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := getPositiveDuration("PYROSCOPE_UPLOAD_RATE", "15s")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:                     appEnv,
		ServiceName:                getEnv("APP_SERVICE_NAME", "prediction-league-api"),
		ServiceVersion:             getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                   getEnv("APP_HTTP_ADDR", ":8080"),
		DBURL:                      strings.TrimSpace(getEnv("DB_URL", "")),
		CORSAllowedOrigins:         splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		PprofEnabled:               pprofEnabled,
		PprofAddr:                  pprofAddr,
		SwaggerEnabled:             swaggerEnabled,
		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		UptraceLogsEnabled:         uptraceLogsEnabled,
		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
		LogLevel:                   parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	formatDefault := string(logging.FormatJSON)
	if appEnv == EnvDev {
		formatDefault = string(logging.FormatConsole)
	}
	cfg.LogFormat, err = parseLogFormat(getEnv("LOG_FORMAT", formatDefault))
	if err != nil {
		return Config{}, err
	}

	if err := loadStorage(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadServer(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadGamma(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadChain(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadJobs(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadQStash(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadStorage(cfg *Config) error {
	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}
	seedDefault := "false"
	if cfg.AppEnv == EnvDev {
		seedDefault = "true"
	}
	dbSeedEnabled, err := strconv.ParseBool(getEnv("DB_SEED_ENABLED", seedDefault))
	if err != nil {
		return fmt.Errorf("parse DB_SEED_ENABLED: %w", err)
	}
	if cfg.AppEnv == EnvProd && cfg.DBURL == "" {
		return fmt.Errorf("DB_URL is required when APP_ENV=%s", EnvProd)
	}

	cacheEnabled, err := strconv.ParseBool(getEnv("CACHE_ENABLED", "true"))
	if err != nil {
		return fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	cacheTTL, err := getPositiveDuration("CACHE_TTL", "30s")
	if err != nil {
		return err
	}

	cfg.DBDisablePreparedBinary = dbDisablePreparedBinary
	cfg.DBSeedEnabled = dbSeedEnabled
	cfg.CacheEnabled = cacheEnabled
	cfg.CacheTTL = cacheTTL
	return nil
}

func loadServer(cfg *Config) error {
	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}
	shutdownTimeout, err := getPositiveDuration("APP_SHUTDOWN_TIMEOUT", "20s")
	if err != nil {
		return err
	}

	ratePerSecond, err := strconv.ParseFloat(getEnv("RATE_LIMIT_PER_SEC", "20"), 64)
	if err != nil {
		return fmt.Errorf("parse RATE_LIMIT_PER_SEC: %w", err)
	}
	if ratePerSecond < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_SEC must be >= 0")
	}
	rateBurst, err := getEnvAsInt("RATE_LIMIT_BURST", 40)
	if err != nil {
		return fmt.Errorf("parse RATE_LIMIT_BURST: %w", err)
	}
	if rateBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 1")
	}
	rateMaxClients, err := getEnvAsInt("RATE_LIMIT_MAX_CLIENTS", 10000)
	if err != nil {
		return fmt.Errorf("parse RATE_LIMIT_MAX_CLIENTS: %w", err)
	}
	if rateMaxClients < 1 {
		return fmt.Errorf("RATE_LIMIT_MAX_CLIENTS must be >= 1")
	}

	cfg.ReadTimeout = readTimeout
	cfg.WriteTimeout = writeTimeout
	cfg.ShutdownTimeout = shutdownTimeout
	cfg.RateLimitPerSecond = ratePerSecond
	cfg.RateLimitBurst = rateBurst
	cfg.RateLimitMaxClients = rateMaxClients
	return nil
}

func loadGamma(cfg *Config) error {
	timeout, err := getPositiveDuration("GAMMA_TIMEOUT", "10s")
	if err != nil {
		return err
	}
	maxRetries, err := getEnvAsInt("GAMMA_MAX_RETRIES", 2)
	if err != nil {
		return fmt.Errorf("parse GAMMA_MAX_RETRIES: %w", err)
	}
	if maxRetries < 0 {
		return fmt.Errorf("GAMMA_MAX_RETRIES must be >= 0")
	}
	ratePerSecond, err := strconv.ParseFloat(getEnv("GAMMA_RATE_PER_SEC", "5"), 64)
	if err != nil {
		return fmt.Errorf("parse GAMMA_RATE_PER_SEC: %w", err)
	}
	if ratePerSecond <= 0 {
		return fmt.Errorf("GAMMA_RATE_PER_SEC must be > 0")
	}
	rateBurst, err := getEnvAsInt("GAMMA_RATE_BURST", 5)
	if err != nil {
		return fmt.Errorf("parse GAMMA_RATE_BURST: %w", err)
	}
	if rateBurst < 1 {
		return fmt.Errorf("GAMMA_RATE_BURST must be >= 1")
	}
	circuit, err := loadCircuitBreaker("GAMMA")
	if err != nil {
		return err
	}
	fetchTimeout, err := getPositiveDuration("PRICE_FETCH_TIMEOUT", "20s")
	if err != nil {
		return err
	}

	cfg.GammaBaseURL = strings.TrimSpace(getEnv("GAMMA_BASE_URL", "https://gamma-api.polymarket.com"))
	cfg.GammaTimeout = timeout
	cfg.GammaMaxRetries = maxRetries
	cfg.GammaRatePerSecond = ratePerSecond
	cfg.GammaRateBurst = rateBurst
	cfg.GammaCircuit = circuit
	cfg.PriceFetchTimeout = fetchTimeout

	feeRate, err := decimal.NewFromString(strings.TrimSpace(getEnv("SWAP_FEE_RATE", "0.01")))
	if err != nil {
		return fmt.Errorf("parse SWAP_FEE_RATE: %w", err)
	}
	if feeRate.IsNegative() || feeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("SWAP_FEE_RATE must be in [0, 1)")
	}
	cfg.SwapFeeRate = feeRate
	return nil
}

func loadChain(cfg *Config) error {
	rpcURL := strings.TrimSpace(getEnv("CHAIN_RPC_URL", ""))
	tokenAddress := strings.TrimSpace(getEnv("CHAIN_TOKEN_ADDRESS", ""))
	if rpcURL != "" && tokenAddress == "" {
		return fmt.Errorf("CHAIN_TOKEN_ADDRESS is required when CHAIN_RPC_URL is set")
	}

	lookback, err := getEnvAsInt("CHAIN_LOOKBACK_BLOCKS", 50000)
	if err != nil {
		return fmt.Errorf("parse CHAIN_LOOKBACK_BLOCKS: %w", err)
	}
	if lookback <= 0 {
		return fmt.Errorf("CHAIN_LOOKBACK_BLOCKS must be > 0")
	}
	timeout, err := getPositiveDuration("CHAIN_TIMEOUT", "8s")
	if err != nil {
		return err
	}

	cfg.ChainEnabled = rpcURL != ""
	cfg.ChainRPCURL = rpcURL
	cfg.ChainTokenAddress = tokenAddress
	cfg.ChainEscrowAddress = strings.TrimSpace(getEnv("CHAIN_ESCROW_ADDRESS", ""))
	cfg.ChainLookbackBlocks = uint64(lookback)
	cfg.ChainTimeout = timeout
	return nil
}

func loadJobs(cfg *Config) error {
	enabled, err := strconv.ParseBool(getEnv("JOB_SCHEDULER_ENABLED", "true"))
	if err != nil {
		return fmt.Errorf("parse JOB_SCHEDULER_ENABLED: %w", err)
	}
	priceInterval, err := getPositiveDuration("JOB_PRICE_INTERVAL", "1m")
	if err != nil {
		return err
	}
	scoringInterval, err := getPositiveDuration("JOB_SCORING_INTERVAL", "5m")
	if err != nil {
		return err
	}
	runTimeout, err := getPositiveDuration("JOB_RUN_TIMEOUT", "2m")
	if err != nil {
		return err
	}
	maxWorkers, err := getEnvAsInt("JOB_MAX_WORKERS", 4)
	if err != nil {
		return fmt.Errorf("parse JOB_MAX_WORKERS: %w", err)
	}
	if maxWorkers < 1 {
		return fmt.Errorf("JOB_MAX_WORKERS must be >= 1")
	}
	metricCapacity, err := getEnvAsInt("JOB_METRIC_CAPACITY", 50)
	if err != nil {
		return fmt.Errorf("parse JOB_METRIC_CAPACITY: %w", err)
	}
	if metricCapacity < 1 {
		return fmt.Errorf("JOB_METRIC_CAPACITY must be >= 1")
	}

	cfg.JobSchedulerEnabled = enabled
	cfg.JobPriceInterval = priceInterval
	cfg.JobScoringInterval = scoringInterval
	cfg.JobRunTimeout = runTimeout
	cfg.JobMaxWorkers = maxWorkers
	cfg.JobMetricCapacity = metricCapacity
	return nil
}

func loadQStash(cfg *Config) error {
	qstashEnabled, err := strconv.ParseBool(getEnv("QSTASH_ENABLED", "false"))
	if err != nil {
		return fmt.Errorf("parse QSTASH_ENABLED: %w", err)
	}
	qstashRetries, err := getEnvAsInt("QSTASH_RETRIES", 3)
	if err != nil {
		return fmt.Errorf("parse QSTASH_RETRIES: %w", err)
	}
	if qstashRetries < 0 {
		return fmt.Errorf("QSTASH_RETRIES must be >= 0")
	}
	circuit, err := loadCircuitBreaker("QSTASH")
	if err != nil {
		return err
	}

	cfg.InternalJobToken = strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", ""))
	cfg.QStashEnabled = qstashEnabled
	cfg.QStashBaseURL = strings.TrimSpace(getEnv("QSTASH_BASE_URL", "https://qstash.upstash.io"))
	cfg.QStashToken = strings.TrimSpace(getEnv("QSTASH_TOKEN", ""))
	cfg.QStashTargetBaseURL = strings.TrimSpace(getEnv("QSTASH_TARGET_BASE_URL", ""))
	cfg.QStashRetries = qstashRetries
	cfg.QStashCircuit = circuit

	if !qstashEnabled {
		return nil
	}
	if cfg.QStashToken == "" {
		return fmt.Errorf("QSTASH_TOKEN is required when QSTASH_ENABLED=true")
	}
	if cfg.QStashTargetBaseURL == "" {
		return fmt.Errorf("QSTASH_TARGET_BASE_URL is required when QSTASH_ENABLED=true")
	}
	if cfg.InternalJobToken == "" {
		return fmt.Errorf("INTERNAL_JOB_TOKEN is required when QSTASH_ENABLED=true")
	}
	return nil
}

// loadCircuitBreaker reads <PREFIX>_CIRCUIT_{ENABLED,FAILURE_COUNT,OPEN_TIMEOUT,HALF_OPEN_MAX_REQ}.
func loadCircuitBreaker(prefix string) (resilience.CircuitBreakerConfig, error) {
	enabledKey := prefix + "_CIRCUIT_ENABLED"
	enabled, err := strconv.ParseBool(getEnv(enabledKey, "true"))
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s: %w", enabledKey, err)
	}

	failureKey := prefix + "_CIRCUIT_FAILURE_COUNT"
	failureCount, err := getEnvAsInt(failureKey, 5)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s: %w", failureKey, err)
	}
	if failureCount < 1 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s must be >= 1", failureKey)
	}

	openTimeout, err := getPositiveDuration(prefix+"_CIRCUIT_OPEN_TIMEOUT", "15s")
	if err != nil {
		return resilience.CircuitBreakerConfig{}, err
	}

	halfOpenKey := prefix + "_CIRCUIT_HALF_OPEN_MAX_REQ"
	halfOpenMaxReq, err := getEnvAsInt(halfOpenKey, 2)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("parse %s: %w", halfOpenKey, err)
	}
	if halfOpenMaxReq < 1 {
		return resilience.CircuitBreakerConfig{}, fmt.Errorf("%s must be >= 1", halfOpenKey)
	}

	return resilience.CircuitBreakerConfig{
		Enabled:          enabled,
		FailureThreshold: failureCount,
		OpenTimeout:      openTimeout,
		HalfOpenMaxReq:   halfOpenMaxReq,
	}, nil
}

func loadDotEnv(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func parseLogFormat(v string) (logging.Format, error) {
	switch logging.Format(strings.ToLower(strings.TrimSpace(v))) {
	case logging.FormatJSON:
		return logging.FormatJSON, nil
	case logging.FormatConsole:
		return logging.FormatConsole, nil
	default:
		return "", fmt.Errorf("invalid LOG_FORMAT %q: valid values are %s, %s", v, logging.FormatJSON, logging.FormatConsole)
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getPositiveDuration(key, fallback string) (time.Duration, error) {
	value, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return value, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
