package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "FRESHCART"

// dotenvFile is loaded before reading the environment. Variables already
// set in the process environment win over the file.
var dotenvFile = ".env"

// parseEnv overlays Config with FRESHCART_* environment variables. Unset
// variables keep the current value.
func parseEnv(cfg *Config) {
	if err := godotenv.Load(dotenvFile); err != nil && !os.IsNotExist(err) {
		panic(err)
	}

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		panic(err)
	}
}
