package config

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type lookuper = envconfig.Lookuper

// osEnv loads an optional .env file into the process environment and
// returns a lookuper over it. Variables already set are not replaced.
func osEnv() lookuper {
	_ = godotenv.Load()
	return envconfig.OsLookuper()
}

// parseEnv overlays variables named by the `env` struct tags. Unset
// variables keep whatever the earlier sources put in the field.
func parseEnv(ctx context.Context, cfg *Config, l lookuper) error {
	return envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:           cfg,
		Lookuper:         l,
		DefaultOverwrite: true,
	})
}
