package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/tabwarden/internal/domain"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	RulesFile           string        // path to the rules YAML file (optional, empty = rules only via API)
	RulesReloadInterval time.Duration // how often the rules file is checked for changes
	CheckInterval       time.Duration // pause between eviction cycles (default: 60s)
	ReconcileInterval   time.Duration // how often the tab list is re-read from the bridge

	BridgeURL     string        // base URL of the browser bridge (optional, empty = log-only bridge)
	BridgeTimeout time.Duration // per-request timeout towards the bridge

	// Eviction defaults, used until options are saved through the API
	EvictionEnabled           bool
	MinInactivityMinutes      int
	MaxSuggestions            int
	IncludePinnedTabs         bool
	ExcludeWorkTabs           bool
	PrioritizeMemoryUsage     bool
	PrioritizeLowProductivity bool
	ShowNotifications         bool
	NotificationDelaySeconds  int
	DefaultTabLimit           int // 0 = unlimited
	PrivacyMode               bool

	// Redis (optional, empty address = no persistence)
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict access to specific IP (e.g. "127.0.0.1/32, 10.0.0.0/8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers

	// Rate limiting of tab event ingestion, per client IP
	EventsBurst        int
	EventsRefillPerMin int
}

func Load() *Config {
	defaults := domain.DefaultOptions()

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("TABWARDEN_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("TABWARDEN_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("TABWARDEN_LOG_LEVEL", "info"),
		PrettyLog: mustBool("TABWARDEN_PRETTY_LOG", false),

		// Rules and scheduling
		RulesFile:           getenv("TABWARDEN_RULES_FILE", ""),
		RulesReloadInterval: mustDuration("TABWARDEN_RULES_RELOAD_INTERVAL", 30*time.Second),
		CheckInterval:       mustDuration("TABWARDEN_CHECK_INTERVAL", 60*time.Second),
		ReconcileInterval:   mustDuration("TABWARDEN_RECONCILE_INTERVAL", 5*time.Minute),

		// Bridge
		BridgeURL:     strings.TrimRight(getenv("TABWARDEN_BRIDGE_URL", ""), "/"),
		BridgeTimeout: mustDuration("TABWARDEN_BRIDGE_TIMEOUT", 5*time.Second),

		// Eviction defaults
		EvictionEnabled:           mustBool("TABWARDEN_EVICTION_ENABLED", defaults.Enabled),
		MinInactivityMinutes:      getenvInt("TABWARDEN_MIN_INACTIVITY_MINUTES", defaults.MinInactivityMinutes),
		MaxSuggestions:            getenvInt("TABWARDEN_MAX_SUGGESTIONS", defaults.MaxSuggestions),
		IncludePinnedTabs:         mustBool("TABWARDEN_INCLUDE_PINNED_TABS", defaults.IncludePinnedTabs),
		ExcludeWorkTabs:           mustBool("TABWARDEN_EXCLUDE_WORK_TABS", defaults.ExcludeWorkTabs),
		PrioritizeMemoryUsage:     mustBool("TABWARDEN_PRIORITIZE_MEMORY_USAGE", defaults.PrioritizeMemoryUsage),
		PrioritizeLowProductivity: mustBool("TABWARDEN_PRIORITIZE_LOW_PRODUCTIVITY", defaults.PrioritizeLowProductivity),
		ShowNotifications:         mustBool("TABWARDEN_SHOW_NOTIFICATIONS", defaults.ShowNotifications),
		NotificationDelaySeconds:  getenvInt("TABWARDEN_NOTIFICATION_DELAY_SECONDS", defaults.NotificationDelaySeconds),
		DefaultTabLimit:           getenvInt("TABWARDEN_DEFAULT_TAB_LIMIT", defaults.DefaultTabLimit),
		PrivacyMode:               mustBool("TABWARDEN_PRIVACY_MODE", defaults.PrivacyMode),

		// Redis settings
		RedisAddr:             getenv("TABWARDEN_REDIS_ADDR", ""),
		RedisUser:             getenv("TABWARDEN_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("TABWARDEN_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("TABWARDEN_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("TABWARDEN_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("TABWARDEN_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("TABWARDEN_ALLOWED_CIDRS", "127.0.0.1/32,::1/128")),
		TrustProxy:   mustBool("TABWARDEN_TRUST_PROXY", false),

		EventsBurst:        getenvInt("TABWARDEN_EVENTS_BURST", 120),
		EventsRefillPerMin: getenvInt("TABWARDEN_EVENTS_REFILL_PER_MIN", 600),
	}

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// Validate rejects settings the daemon cannot run with
func (c *Config) Validate() error {
	if c.RedisAddr != "" && c.RedisPasswordRequired && c.RedisPassword == "" {
		return fmt.Errorf("TABWARDEN_REDIS_PASSWORD is required when TABWARDEN_REDIS_PASSWORD_REQUIRED=true")
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("TABWARDEN_CHECK_INTERVAL must be > 0, got %v", c.CheckInterval)
	}
	if c.BridgeURL != "" && !strings.HasPrefix(c.BridgeURL, "http://") && !strings.HasPrefix(c.BridgeURL, "https://") {
		return fmt.Errorf("TABWARDEN_BRIDGE_URL must be an http(s) URL, got %q", c.BridgeURL)
	}
	if err := c.DefaultOptions().Validate(); err != nil {
		return fmt.Errorf("eviction defaults: %w", err)
	}
	return nil
}

// DefaultOptions returns the eviction options configured through the environment
func (c *Config) DefaultOptions() domain.Options {
	return domain.Options{
		Enabled:                   c.EvictionEnabled,
		MinInactivityMinutes:      c.MinInactivityMinutes,
		MaxSuggestions:            c.MaxSuggestions,
		IncludePinnedTabs:         c.IncludePinnedTabs,
		ExcludeWorkTabs:           c.ExcludeWorkTabs,
		PrioritizeMemoryUsage:     c.PrioritizeMemoryUsage,
		PrioritizeLowProductivity: c.PrioritizeLowProductivity,
		ShowNotifications:         c.ShowNotifications,
		NotificationDelaySeconds:  c.NotificationDelaySeconds,
		DefaultTabLimit:           c.DefaultTabLimit,
		PrivacyMode:               c.PrivacyMode,
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
