package config

import (
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Redis
	RedisHost           string        // ex: "localhost"
	RedisPort           int           // ex: 6379
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB index
	RedisDT             time.Duration // dial timeout
	RedisRT             time.Duration // read timeout
	RedisWT             time.Duration // write timeout
	RedisPoolSize       int           // connection pool size
	RedisConnectTimeout time.Duration // total time spent retrying the first ping
	RedisRetryInterval  time.Duration // first wait between retries, doubles each attempt
	RedisMaxWait        time.Duration // cap for the wait between retries
	RedisPingTimeout    time.Duration // timeout for a single ping
	RedisWarnThreshold  int           // warn for this many attempts, then log errors

	// Coordination state
	FrontendEnabled   bool          // publish frontend:<domain> routing entries
	HostTaskTTL       time.Duration // lifetime of queue:<id> records
	ConsoleSessionTTL time.Duration // lifetime of console:<id> records

	// Topology snapshot
	InventoryFile       string        // path to the inventory yaml
	ResyncInterval      time.Duration // periodic frontend resync
	GCSchedule          string        // cron spec for the stale frontend collector
	AllowEmptyInventory bool          // let an empty inventory replace a populated one

	// Access restrictions
	AllowedHosts   []string // optional Host header allow-list
	AllowedCIDRS   []string // optional client IP allow-list
	TrustProxy     bool     // resolve client IP from proxy headers
	RateLimitRPS   float64  // requests per second per client IP
	RateLimitBurst int
}

// RedisAddr joins host and port the way go-redis expects.
func (c *Config) RedisAddr() string {
	return net.JoinHostPort(c.RedisHost, strconv.Itoa(c.RedisPort))
}

// Load reads the process environment. A .env file in the working directory,
// or the one named by HARBOR_ENV_FILE, is merged first without overriding
// variables that are already set.
func Load() *Config {
	loadDotEnv(getenv("HARBOR_ENV_FILE", ".env"))

	cfg := &Config{
		ListenPort:      getenv("HARBOR_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("HARBOR_SHUTDOWN_TIMEOUT", 5*time.Second),

		LogLevel:  getenv("HARBOR_LOG_LEVEL", "info"),
		PrettyLog: mustBool("HARBOR_PRETTY_LOG", true),

		RedisHost:           requireEnv("HARBOR_REDIS_HOST"),
		RedisPort:           getenvInt("HARBOR_REDIS_PORT", 6379),
		RedisUser:           getenv("HARBOR_REDIS_USERNAME", ""),
		RedisPassword:       getenv("HARBOR_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("HARBOR_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		FrontendEnabled:   mustBool("HARBOR_FRONTEND_ENABLED", false),
		HostTaskTTL:       mustDuration("HARBOR_HOST_TASK_TTL", time.Hour),
		ConsoleSessionTTL: mustDuration("HARBOR_CONSOLE_SESSION_TTL", 120*time.Second),

		InventoryFile:       getenv("HARBOR_INVENTORY_FILE", "/etc/harbor/inventory.yaml"),
		ResyncInterval:      mustDuration("HARBOR_RESYNC_INTERVAL", 5*time.Minute),
		GCSchedule:          getenv("HARBOR_GC_SCHEDULE", "@every 1h"),
		AllowEmptyInventory: mustBool("HARBOR_ALLOW_EMPTY_INVENTORY", false),

		AllowedHosts:   splitAndTrim(getenv("HARBOR_ALLOWED_HOSTS", "")),
		AllowedCIDRS:   splitAndTrim(getenv("HARBOR_ALLOWED_CIDRS", "")),
		TrustProxy:     mustBool("HARBOR_TRUST_PROXY", false),
		RateLimitRPS:   mustFloat("HARBOR_RATE_LIMIT_RPS", 20),
		RateLimitBurst: getenvInt("HARBOR_RATE_LIMIT_BURST", 40),
	}

	if cfg.HostTaskTTL < time.Second {
		panic(fmt.Sprintf("❌ FATAL: HARBOR_HOST_TASK_TTL must be at least 1s, got %v", cfg.HostTaskTTL))
	}
	if cfg.ConsoleSessionTTL < time.Second {
		panic(fmt.Sprintf("❌ FATAL: HARBOR_CONSOLE_SESSION_TTL must be at least 1s, got %v", cfg.ConsoleSessionTTL))
	}

	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfg.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		panic(fmt.Sprintf("❌ FATAL: cannot parse env file %s: %v", path, err))
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func mustFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
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

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.Trim(strings.TrimSpace(part), `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
