package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/gophblog/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     HTTP bind address (e.g. ":8080")
//	-b string     public base URL used in emails
//	-d string     PostgreSQL DSN
//	-s string     reset token signing key
//	-l string     log level
//	-i string     image backend ("local" or "s3")
//	-r duration   reset token validity (e.g. "30m")
//
// Arguments are filtered first with flagx.FilterArgs so that -c/-config
// and flags of other components do not cause parse errors.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-b", "-d", "-s", "-l", "-i", "-r"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.BaseURL, "b", config.BaseURL, "public base URL")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.ImageBackend, "i", config.ImageBackend, "image backend: local or s3")
	fs.DurationVar(&config.ResetTokenTTL, "r", config.ResetTokenTTL, "reset token validity")

	return fs.Parse(args)
}
