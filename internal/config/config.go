package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// Read path sources. A deployment reads from exactly one.
const (
	SourceArena = "arena" // upstream are.na channel
	SourceSQL   = "sql"   // local relational table
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	Source        string // SourceArena | SourceSQL
	PublicBaseURL string // absolute site root used in the RSS feed (ex: https://ingroup.news)
	SiteTitle     string // <title> and RSS channel title
	SiteMasthead  string // page header text
	Timezone      string // IANA zone for the page dateline and timestamps (default: America/New_York)

	// Upstream collection API
	ArenaChannel string        // channel name or slug (default: bookmarks-with-friends)
	ArenaToken   string        // optional personal access token
	ArenaBaseURL string        // ex: https://api.are.na/v2
	ArenaTimeout time.Duration // per request (default: 10s)

	// Write path
	APIKey            string // shared contributor key, empty => writes fail with an internal error
	DatabasePath      string // sqlite file (default: bookmarks.db)
	WriteBurst        int    // token bucket size per client IP
	WriteRefillPerMin int    // tokens added per minute per client IP

	// Cache
	CacheFreshness time.Duration // served without revalidation (default: 300s)
	CacheMaxStale  time.Duration // extra time a stale list may be served (default: 24h)
	WarmInterval   time.Duration // background warm period (default: 5m)

	// Redis snapshot persistence (optional, empty RedisAddr = disabled)
	RedisAddr           string        // ex: "localhost:6379" or "redis://..."
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts
	PruneInterval       time.Duration // snapshot cleanup period (default: 1h)

	AllowedHosts []string // optional, restrict /reload to specific Host headers
	AllowedCIDRS []string // optional, restrict ops endpoints to specific IPs (e.g. "1.2.3.4, 10.0.0.0/8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("BWF_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("BWF_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("BWF_LOG_LEVEL", "info"),
		PrettyLog: mustBool("BWF_PRETTY_LOG", false),

		// Site
		Source:        strings.ToLower(getenv("BWF_SOURCE", SourceArena)),
		PublicBaseURL: strings.TrimRight(getenv("BWF_PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		SiteTitle:     getenv("BWF_SITE_TITLE", "Bookmarks with Friends"),
		SiteMasthead:  getenv("BWF_SITE_MASTHEAD", "INGROUP.NEWS"),
		Timezone:      getenv("BWF_TIMEZONE", "America/New_York"),

		// Upstream
		ArenaChannel: getenv("BWF_ARENA_CHANNEL", "bookmarks-with-friends"),
		ArenaToken:   getenv("BWF_ARENA_TOKEN", ""),
		ArenaBaseURL: getenv("BWF_ARENA_BASE_URL", "https://api.are.na/v2"),
		ArenaTimeout: mustDuration("BWF_ARENA_TIMEOUT", 10*time.Second),

		// Write path
		APIKey:            getenv("BWF_API_KEY", ""),
		DatabasePath:      getenv("BWF_DATABASE_PATH", "bookmarks.db"),
		WriteBurst:        getenvInt("BWF_WRITE_BURST", 5),
		WriteRefillPerMin: getenvInt("BWF_WRITE_REFILL_PER_MIN", 10),

		// Cache
		CacheFreshness: mustDuration("BWF_CACHE_FRESHNESS", 300*time.Second),
		CacheMaxStale:  mustDuration("BWF_CACHE_MAX_STALE", 24*time.Hour),
		WarmInterval:   mustDuration("BWF_WARM_INTERVAL", 5*time.Minute),

		// Redis settings
		RedisAddr:           getenv("BWF_REDIS_ADDR", ""),
		RedisUser:           getenv("BWF_REDIS_USERNAME", ""),
		RedisPassword:       getenv("BWF_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("BWF_REDIS_DB", 0),
		RedisDT:             mustDuration("BWF_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("BWF_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("BWF_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("BWF_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("BWF_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("BWF_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("BWF_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("BWF_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("BWF_REDIS_WARN_THRESHOLD", 3),
		PruneInterval:       mustDuration("BWF_PRUNE_INTERVAL", time.Hour),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("BWF_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("BWF_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("BWF_TRUST_PROXY", false),
	}

	cfg.validate()

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// validate panics on settings the app cannot start with.
func (c *Config) validate() {
	switch c.Source {
	case SourceArena, SourceSQL:
	default:
		panic(fmt.Sprintf("❌ FATAL: BWF_SOURCE must be %q or %q, got %q", SourceArena, SourceSQL, c.Source))
	}
	if c.Source == SourceArena && strings.TrimSpace(c.ArenaChannel) == "" {
		panic("❌ FATAL: BWF_ARENA_CHANNEL is required when BWF_SOURCE=arena")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		panic(fmt.Sprintf("❌ FATAL: BWF_TIMEZONE %q: %v", c.Timezone, err))
	}
	if c.CacheFreshness <= 0 {
		panic(fmt.Sprintf("❌ FATAL: BWF_CACHE_FRESHNESS must be > 0, got %v", c.CacheFreshness))
	}
	if c.CacheMaxStale <= 0 {
		panic(fmt.Sprintf("❌ FATAL: BWF_CACHE_MAX_STALE must be > 0, got %v", c.CacheMaxStale))
	}
	if c.WarmInterval <= 0 {
		panic(fmt.Sprintf("❌ FATAL: BWF_WARM_INTERVAL must be > 0, got %v", c.WarmInterval))
	}
	if c.WriteBurst <= 0 || c.WriteRefillPerMin <= 0 {
		panic("❌ FATAL: BWF_WRITE_BURST and BWF_WRITE_REFILL_PER_MIN must be > 0")
	}
}

// Location is the page time zone. Valid after Load.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// RedisEnabled reports whether snapshot persistence is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// Redacted returns a copy safe to log.
func (c *Config) Redacted() Config {
	cp := *c
	for _, s := range []*string{&cp.APIKey, &cp.ArenaToken, &cp.RedisPassword, &cp.RedisUser} {
		if *s != "" {
			*s = "***REDACTED***"
		}
	}
	if strings.Contains(cp.RedisAddr, "@") {
		cp.RedisAddr = "***REDACTED***"
	}
	return cp
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
