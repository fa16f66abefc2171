package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/pickem/internal/domain/season"
	"github.com/riskibarqy/pickem/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                     string
	ServiceName                string
	ServiceVersion             string
	HTTPAddr                   string
	PublicBaseURL              string
	DBURL                      string
	RedisURL                   string
	CacheEnabled               bool
	CacheTTL                   time.Duration
	CurrentCacheTTL            time.Duration
	CurrentSeasonPolicy        season.CurrentPolicy
	CORSAllowedOrigins         []string
	ReadTimeout                time.Duration
	WriteTimeout               time.Duration
	PprofEnabled               bool
	PprofAddr                  string
	SessionSecret              string
	SessionTTL                 time.Duration
	InviteCodeSecret           string
	FacebookClientID           string
	FacebookClientSecret       string
	FacebookRedirectURL        string
	FacebookTimeout            time.Duration
	OddsFeedURL                string
	OddsTimeout                time.Duration
	OddsMaxRetries             int
	OddsCircuitEnabled         bool
	OddsCircuitFailureCount    int
	OddsCircuitOpenTimeout     time.Duration
	OddsCircuitHalfOpenMaxReq  int
	ImportWorkers              int
	SchedulerEnabled           bool
	OddsCron                   string
	DefaultPicksCron           string
	EvaluationCron             string
	CachePurgeCron             string
	InternalJobToken           string
	UptraceEnabled             bool
	UptraceDSN                 string
	UptraceCaptureRequestBody  bool
	UptraceRequestBodyMaxBytes int
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
	LogLevel                   logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
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
	uptraceCaptureRequestBody, err := strconv.ParseBool(getEnv("UPTRACE_CAPTURE_REQUEST_BODY", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_CAPTURE_REQUEST_BODY: %w", err)
	}
	uptraceRequestBodyMaxBytes, err := getEnvAsInt("UPTRACE_REQUEST_BODY_MAX_BYTES", 8192)
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_REQUEST_BODY_MAX_BYTES: %w", err)
	}
	if uptraceRequestBodyMaxBytes <= 0 {
		return Config{}, fmt.Errorf("UPTRACE_REQUEST_BODY_MAX_BYTES must be > 0")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", "15s")
	if err != nil {
		return Config{}, err
	}

	cacheEnabled, err := strconv.ParseBool(getEnv("CACHE_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	cacheTTL, err := getEnvAsDuration("CACHE_TTL", "60s")
	if err != nil {
		return Config{}, err
	}
	currentCacheTTL, err := getEnvAsDuration("CURRENT_CACHE_TTL", "10m")
	if err != nil {
		return Config{}, err
	}
	currentPolicy, err := season.ParseCurrentPolicy(getEnv("CURRENT_SEASON_POLICY", string(season.PolicyEndNotPassed)))
	if err != nil {
		return Config{}, fmt.Errorf("parse CURRENT_SEASON_POLICY: %w", err)
	}

	sessionSecret := strings.TrimSpace(getEnv("SESSION_SECRET", ""))
	inviteCodeSecret := strings.TrimSpace(getEnv("INVITE_CODE_SECRET", ""))
	if appEnv != EnvDev {
		if sessionSecret == "" {
			return Config{}, fmt.Errorf("SESSION_SECRET is required when APP_ENV=%s", appEnv)
		}
		if inviteCodeSecret == "" {
			return Config{}, fmt.Errorf("INVITE_CODE_SECRET is required when APP_ENV=%s", appEnv)
		}
	}
	if sessionSecret == "" {
		sessionSecret = "dev-session-secret"
	}
	if inviteCodeSecret == "" {
		inviteCodeSecret = "dev-invite-secret"
	}
	sessionTTL, err := getEnvAsDuration("SESSION_TTL", "720h")
	if err != nil {
		return Config{}, err
	}
	facebookTimeout, err := getEnvAsDuration("FACEBOOK_TIMEOUT", "5s")
	if err != nil {
		return Config{}, err
	}

	oddsTimeout, err := getEnvAsDuration("ODDS_TIMEOUT", "20s")
	if err != nil {
		return Config{}, err
	}
	oddsMaxRetries, err := getEnvAsInt("ODDS_MAX_RETRIES", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse ODDS_MAX_RETRIES: %w", err)
	}
	if oddsMaxRetries < 0 {
		return Config{}, fmt.Errorf("ODDS_MAX_RETRIES must be >= 0")
	}
	oddsCircuitEnabled, err := strconv.ParseBool(getEnv("ODDS_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse ODDS_CIRCUIT_ENABLED: %w", err)
	}
	oddsCircuitFailureCount, err := getEnvAsInt("ODDS_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse ODDS_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if oddsCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("ODDS_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	oddsCircuitOpenTimeout, err := getEnvAsDuration("ODDS_CIRCUIT_OPEN_TIMEOUT", "30s")
	if err != nil {
		return Config{}, err
	}
	oddsCircuitHalfOpenMaxReq, err := getEnvAsInt("ODDS_CIRCUIT_HALF_OPEN_MAX_REQ", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse ODDS_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if oddsCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("ODDS_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	importWorkers, err := getEnvAsInt("IMPORT_WORKERS", 8)
	if err != nil {
		return Config{}, fmt.Errorf("parse IMPORT_WORKERS: %w", err)
	}
	if importWorkers < 1 {
		return Config{}, fmt.Errorf("IMPORT_WORKERS must be >= 1")
	}

	schedulerEnabled, err := strconv.ParseBool(getEnv("SCHEDULER_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SCHEDULER_ENABLED: %w", err)
	}
	oddsFeedURL := strings.TrimSpace(getEnv("ODDS_FEED_URL", ""))
	if schedulerEnabled && oddsFeedURL == "" {
		return Config{}, fmt.Errorf("ODDS_FEED_URL is required when SCHEDULER_ENABLED=true")
	}

	readTimeout, err := getEnvAsDuration("APP_READ_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}
	writeTimeout, err := getEnvAsDuration("APP_WRITE_TIMEOUT", "15s")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:                     appEnv,
		ServiceName:                getEnv("APP_SERVICE_NAME", "pickem-api"),
		ServiceVersion:             getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                   getEnv("APP_HTTP_ADDR", ":8080"),
		PublicBaseURL:              strings.TrimRight(getEnv("APP_PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		DBURL:                      strings.TrimSpace(getEnv("DB_URL", "")),
		RedisURL:                   strings.TrimSpace(getEnv("REDIS_URL", "")),
		CacheEnabled:               cacheEnabled,
		CacheTTL:                   cacheTTL,
		CurrentCacheTTL:            currentCacheTTL,
		CurrentSeasonPolicy:        currentPolicy,
		CORSAllowedOrigins:         splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		ReadTimeout:                readTimeout,
		WriteTimeout:               writeTimeout,
		PprofEnabled:               pprofEnabled,
		PprofAddr:                  strings.TrimSpace(getEnv("PPROF_ADDR", ":6060")),
		SessionSecret:              sessionSecret,
		SessionTTL:                 sessionTTL,
		InviteCodeSecret:           inviteCodeSecret,
		FacebookClientID:           strings.TrimSpace(getEnv("FACEBOOK_CLIENT_ID", "")),
		FacebookClientSecret:       strings.TrimSpace(getEnv("FACEBOOK_CLIENT_SECRET", "")),
		FacebookTimeout:            facebookTimeout,
		OddsFeedURL:                oddsFeedURL,
		OddsTimeout:                oddsTimeout,
		OddsMaxRetries:             oddsMaxRetries,
		OddsCircuitEnabled:         oddsCircuitEnabled,
		OddsCircuitFailureCount:    oddsCircuitFailureCount,
		OddsCircuitOpenTimeout:     oddsCircuitOpenTimeout,
		OddsCircuitHalfOpenMaxReq:  oddsCircuitHalfOpenMaxReq,
		ImportWorkers:              importWorkers,
		SchedulerEnabled:           schedulerEnabled,
		OddsCron:                   getEnv("ODDS_CRON", "0 0 */6 * * *"),
		DefaultPicksCron:           getEnv("DEFAULT_PICKS_CRON", "0 */15 * * * *"),
		EvaluationCron:             getEnv("EVALUATION_CRON", "0 */10 * * * *"),
		CachePurgeCron:             getEnv("CACHE_PURGE_CRON", "0 */5 * * * *"),
		InternalJobToken:           strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		UptraceCaptureRequestBody:  uptraceCaptureRequestBody,
		UptraceRequestBodyMaxBytes: uptraceRequestBodyMaxBytes,
		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
		LogLevel:                   logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
	}
	cfg.FacebookRedirectURL = strings.TrimSpace(getEnv("FACEBOOK_REDIRECT_URL", cfg.PublicBaseURL+"/v1/auth/callback"))
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PprofEnabled && cfg.PprofAddr == "" {
		cfg.PprofAddr = ":6060"
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return cfg, nil
}

// FacebookEnabled reports whether OAuth login can be offered.
func (c Config) FacebookEnabled() bool {
	return c.FacebookClientID != "" && c.FacebookClientSecret != ""
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

	return strconv.Atoi(value)
}

func getEnvAsDuration(key, fallback string) (time.Duration, error) {
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
	for _, item := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			return strings.Trim(strings.TrimSpace(parts[1]), "\"'")
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
