package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// parseEnv overlays configuration from environment variables. Only set
// variables override the current values. Durations accept Go duration
// syntax ("7d" is not valid Go syntax, so lifetimes are given in hours or
// seconds, e.g. "168h", "300s").
//
// Variables:
//
//	ADDRESS          HTTP bind address
//	DATABASE_DSN     PostgreSQL DSN
//	REDIS_ADDR       redis host:port (empty disables the cache)
//	REDIS_PASSWORD   redis password
//	JWT_SECRET       token signing secret
//	JWT_EXPIRES_IN   token lifetime
//	ENCRYPTION_KEY   32-byte vault key
//	UPSTREAM_TIMEOUT upstream call deadline
//	LIVE_CACHE_TTL   live listing cache TTL
//	VOD_CACHE_TTL    VOD listing/detail cache TTL
//	ALLOWED_ORIGINS  comma-separated CORS origins
//	DEBUG            "true" enables debug mode
func parseEnv(config *Config) {
	if v, ok := os.LookupEnv("ADDRESS"); ok {
		config.EndpointAddrHTTP = v
	}
	if v, ok := os.LookupEnv("DATABASE_DSN"); ok {
		config.DatabaseDSN = v
	}
	if v, ok := os.LookupEnv("REDIS_ADDR"); ok {
		config.RedisAddr = v
	}
	if v, ok := os.LookupEnv("REDIS_PASSWORD"); ok {
		config.RedisPassword = v
	}
	if v, ok := os.LookupEnv("JWT_SECRET"); ok {
		config.JWTSecret = v
	}
	if v, ok := os.LookupEnv("JWT_EXPIRES_IN"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			config.TokenValidityDuration = d
		}
	}
	if v, ok := os.LookupEnv("ENCRYPTION_KEY"); ok {
		config.EncryptionKey = v
	}
	if v, ok := os.LookupEnv("UPSTREAM_TIMEOUT"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			config.UpstreamTimeout = d
		}
	}
	if v, ok := os.LookupEnv("LIVE_CACHE_TTL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			config.LiveCacheTTL = d
		}
	}
	if v, ok := os.LookupEnv("VOD_CACHE_TTL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			config.VodCacheTTL = d
		}
	}
	if v, ok := os.LookupEnv("ALLOWED_ORIGINS"); ok {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		config.AllowedOrigins = origins
	}
	if v, ok := os.LookupEnv("DEBUG"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Debug = b
		}
	}
}
