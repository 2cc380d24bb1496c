package config

import (
	"flag"
	"os"
	"time"

	"github.com/avidalm/iptvgate/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-r string   redis address (host:port)
//	-s string   JWT signing secret
//	-k string   32-byte encryption key
//	-t int      token validity, hours
//	-u int      upstream timeout, seconds
//	-debug      enable debug mode
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Duration
// flags are accepted as integers and converted to time.Duration values.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-r", "-s", "-k", "-t", "-u", "-debug"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.JWTSecret, "s", config.JWTSecret, "JWT signing secret")
	fs.StringVar(&config.EncryptionKey, "k", config.EncryptionKey, "vault encryption key (32 bytes)")

	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Hours()), "token validity (in hours)")
	upstreamTimeout := fs.Int("u", int(config.UpstreamTimeout.Seconds()), "upstream timeout (in seconds)")

	fs.BoolVar(&config.Debug, "debug", config.Debug, "enable debug mode")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Hour
	config.UpstreamTimeout = time.Duration(*upstreamTimeout) * time.Second
}
