package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/avidalm/iptvgate/internal/flagx"
	"github.com/avidalm/iptvgate/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "10s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its fields are copied into the
// runtime Config struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddrHTTP      *string         `json:"endpoint_addr_http"`
	DatabaseDSN           *string         `json:"database_dsn"`
	RedisAddr             *string         `json:"redis_addr"`
	RedisPassword         *string         `json:"redis_password"`
	JWTSecret             *string         `json:"jwt_secret"`
	TokenValidityDuration *timex.Duration `json:"token_validity_duration"`
	EncryptionKey         *string         `json:"encryption_key"`
	UpstreamTimeout       *timex.Duration `json:"upstream_timeout"`
	LiveCacheTTL          *timex.Duration `json:"live_cache_ttl"`
	VodCacheTTL           *timex.Duration `json:"vod_cache_ttl"`
	AllowedOrigins        []string        `json:"allowed_origins"`
	Debug                 *bool           `json:"debug"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; if neither is set, no JSON file is loaded. Only fields present in
// the file override the current values. If the file cannot be read or
// contains invalid JSON, the function panics: a requested-but-broken config
// file is a startup error.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddrHTTP != nil {
		config.EndpointAddrHTTP = *c.EndpointAddrHTTP
	}
	if c.DatabaseDSN != nil {
		config.DatabaseDSN = *c.DatabaseDSN
	}
	if c.RedisAddr != nil {
		config.RedisAddr = *c.RedisAddr
	}
	if c.RedisPassword != nil {
		config.RedisPassword = *c.RedisPassword
	}
	if c.JWTSecret != nil {
		config.JWTSecret = *c.JWTSecret
	}
	if c.TokenValidityDuration != nil {
		config.TokenValidityDuration = time.Duration(c.TokenValidityDuration.Duration)
	}
	if c.EncryptionKey != nil {
		config.EncryptionKey = *c.EncryptionKey
	}
	if c.UpstreamTimeout != nil {
		config.UpstreamTimeout = time.Duration(c.UpstreamTimeout.Duration)
	}
	if c.LiveCacheTTL != nil {
		config.LiveCacheTTL = time.Duration(c.LiveCacheTTL.Duration)
	}
	if c.VodCacheTTL != nil {
		config.VodCacheTTL = time.Duration(c.VodCacheTTL.Duration)
	}
	if c.AllowedOrigins != nil {
		config.AllowedOrigins = c.AllowedOrigins
	}
	if c.Debug != nil {
		config.Debug = *c.Debug
	}
}
