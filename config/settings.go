package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/utils"
)

// Ownership store backends.
const (
	OwnershipBackendRedis    = "redis"
	OwnershipBackendPostgres = "postgres"
	OwnershipBackendMemory   = "memory"
)

// Settings holds all configuration for the airdrop signer service
type Settings struct {
	// Ledger RPC Configuration
	MainnetRPCURL  string
	TestnetRPCURL  string // Optional; testnet holdings are skipped when empty
	RPCRateLimit   float64
	RPCBurst       int
	RPCTimeout     time.Duration
	RPCPageSize    int
	ScanTimeout    time.Duration
	CityGameObject string // Shared game object holding accumulation parameters

	// Redis Configuration
	RedisHost     string
	RedisPort     string
	RedisDB       int
	RedisPassword string
	RedisPrefix   string

	// Ownership Store
	OwnershipBackend   string
	PostgresURL        string
	OwnershipCacheSize int

	// Signer
	SignerScheme     string
	SignerPrivateKey string // Hex-encoded, 32 bytes
	SignerPublicKey  string // Hex-encoded; derived from the private key when empty

	// Eligibility
	RulesPath     string
	AllowlistURLs map[string]string // list name -> URL
	AllowlistTTL  time.Duration

	// Events
	EventsEnabled bool

	// API Configuration
	APIHost string
	APIPort int

	// Monitoring & Debugging
	MetricsEnabled bool
	MetricsPort    int
	LogLevel       string
	DebugMode      bool
}

var (
	// SettingsObj is the global settings instance
	SettingsObj *Settings
)

// LoadConfig loads configuration from environment variables and, when
// CONFIG_FILE is set, from that file. Environment values win.
func LoadConfig() error {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if path := viper.GetString("CONFIG_FILE"); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	SettingsObj = &Settings{
		// Ledger RPC Configuration
		MainnetRPCURL:  getEnv("SUI_MAINNET_RPC_URL", "https://fullnode.mainnet.sui.io:443"),
		TestnetRPCURL:  getEnv("SUI_TESTNET_RPC_URL", ""),
		RPCRateLimit:   getEnvAsFloat("RPC_RATE_LIMIT", 20),
		RPCBurst:       getEnvAsInt("RPC_BURST", 40),
		RPCTimeout:     time.Duration(getEnvAsInt("RPC_TIMEOUT_SECONDS", 15)) * time.Second,
		RPCPageSize:    getEnvAsInt("RPC_PAGE_SIZE", 50),
		ScanTimeout:    time.Duration(getEnvAsInt("SCAN_TIMEOUT_SECONDS", 30)) * time.Second,
		CityGameObject: getEnv("CITY_GAME_OBJECT_ID", ""),

		// Redis Configuration
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisPrefix:   getEnv("REDIS_PREFIX", "suicity"),

		// Ownership Store
		OwnershipBackend:   strings.ToLower(getEnv("OWNERSHIP_BACKEND", OwnershipBackendRedis)),
		PostgresURL:        getEnv("POSTGRES_URL", ""),
		OwnershipCacheSize: getEnvAsInt("OWNERSHIP_CACHE_SIZE", 10000),

		// Signer
		SignerScheme:     strings.ToLower(getEnv("SIGNER_SCHEME", "ed25519")),
		SignerPrivateKey: getEnv("SIGNER_PRIVATE_KEY", ""),
		SignerPublicKey:  getEnv("SIGNER_PUBLIC_KEY", ""),

		// Eligibility
		RulesPath:    getEnv("RULES_PATH", ""),
		AllowlistTTL: time.Duration(getEnvAsInt("ALLOWLIST_TTL_SECONDS", 300)) * time.Second,

		// Events
		EventsEnabled: getBoolEnv("EVENTS_ENABLED", true),

		// API Configuration
		APIHost: getEnv("API_HOST", "0.0.0.0"),
		APIPort: getEnvAsInt("API_PORT", 8080),

		// Monitoring & Debugging
		MetricsEnabled: getBoolEnv("METRICS_ENABLED", true),
		MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DebugMode:      getBoolEnv("DEBUG_MODE", false),
	}

	if err := loadAllowlists(); err != nil {
		return fmt.Errorf("failed to load allow lists: %w", err)
	}

	// Configure logging
	configureLogging()

	// Validate configuration
	if err := validateConfig(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	// Log configuration summary
	logConfigSummary()

	return nil
}

// loadAllowlists parses ALLOWLIST_URLS, either a JSON object
// {"og":"https://..."} or comma-separated name=url pairs.
func loadAllowlists() error {
	SettingsObj.AllowlistURLs = map[string]string{}
	raw := strings.TrimSpace(getEnv("ALLOWLIST_URLS", ""))
	if raw == "" {
		return nil
	}

	if strings.HasPrefix(raw, "{") {
		if err := json.Unmarshal([]byte(raw), &SettingsObj.AllowlistURLs); err != nil {
			return fmt.Errorf("failed to parse ALLOWLIST_URLS as JSON object: %w", err)
		}
		return nil
	}

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(strings.Trim(pair, "\""))
		if pair == "" {
			continue
		}
		name, url, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(url) == "" {
			return fmt.Errorf("invalid ALLOWLIST_URLS entry %q, expected name=url", pair)
		}
		SettingsObj.AllowlistURLs[strings.TrimSpace(name)] = strings.TrimSpace(url)
	}
	return nil
}

// configureLogging sets up the logger based on configuration
func configureLogging() {
	// Set log level
	switch strings.ToLower(SettingsObj.LogLevel) {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn", "warning":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}

	// Override with debug mode
	if SettingsObj.DebugMode {
		log.SetLevel(log.DebugLevel)
	}

	// Set formatter
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
		ForceColors:   true,
	})
}

// validateConfig validates the loaded configuration
func validateConfig() error {
	if SettingsObj.MainnetRPCURL == "" {
		return fmt.Errorf("SUI_MAINNET_RPC_URL is required")
	}

	switch SettingsObj.OwnershipBackend {
	case OwnershipBackendRedis:
		if SettingsObj.RedisHost == "" {
			return fmt.Errorf("REDIS_HOST required for the redis ownership backend")
		}
	case OwnershipBackendPostgres:
		if SettingsObj.PostgresURL == "" {
			return fmt.Errorf("POSTGRES_URL required for the postgres ownership backend")
		}
	case OwnershipBackendMemory:
		log.Warn("In-memory ownership store configured - associations are lost on restart")
	default:
		return fmt.Errorf("unknown OWNERSHIP_BACKEND %q", SettingsObj.OwnershipBackend)
	}

	if SettingsObj.SignerPrivateKey == "" {
		// Not fatal: read-only endpoints keep working, signing refuses.
		log.Warn("SIGNER_PRIVATE_KEY not set - claim signing is disabled")
	}

	if SettingsObj.CityGameObject != "" {
		if _, err := utils.NormalizeAddress(SettingsObj.CityGameObject); err != nil {
			return fmt.Errorf("CITY_GAME_OBJECT_ID: %w", err)
		}
	}

	if SettingsObj.APIPort == SettingsObj.MetricsPort && SettingsObj.MetricsEnabled {
		return fmt.Errorf("API_PORT and METRICS_PORT must differ")
	}

	return nil
}

// logConfigSummary logs a summary of the configuration
func logConfigSummary() {
	log.Info("=== Configuration Loaded ===")
	log.Infof("Mainnet RPC: %s", SettingsObj.MainnetRPCURL)
	if SettingsObj.TestnetRPCURL != "" {
		log.Infof("Testnet RPC: %s", SettingsObj.TestnetRPCURL)
	}
	log.Infof("RPC limits: %.1f rps, burst %d, timeout %v", SettingsObj.RPCRateLimit, SettingsObj.RPCBurst, SettingsObj.RPCTimeout)
	log.Infof("Redis: %s:%s (DB %d, prefix %s)", SettingsObj.RedisHost, SettingsObj.RedisPort, SettingsObj.RedisDB, SettingsObj.RedisPrefix)
	log.Infof("Ownership backend: %s", SettingsObj.OwnershipBackend)
	log.Infof("Signer: scheme=%s, key configured=%v", SettingsObj.SignerScheme, SettingsObj.SignerPrivateKey != "")
	if SettingsObj.RulesPath != "" {
		log.Infof("Rules: %s", SettingsObj.RulesPath)
	}
	log.Infof("Allow lists: %d configured (TTL %v)", len(SettingsObj.AllowlistURLs), SettingsObj.AllowlistTTL)
	log.Infof("API: %s:%d, Metrics: enabled=%v port=%d", SettingsObj.APIHost, SettingsObj.APIPort, SettingsObj.MetricsEnabled, SettingsObj.MetricsPort)
	log.Info("============================")
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := viper.GetString(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := viper.GetString(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := viper.GetString(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := viper.GetString(key); value != "" {
		value = strings.ToLower(value)
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
