package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/freshcart/internal/flagx"
	"github.com/dmitrijs2005/freshcart/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify durations either as
// strings like "10s" or as integer nanoseconds. Missing keys leave the
// runtime Config untouched.
type JsonConfig struct {
	APIBaseURL     string         `json:"api_base_url"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	DatabasePath   string         `json:"database_path"`
	LogLevel       string         `json:"log_level"`
	PublicPaths    []string       `json:"public_paths"`
	LoginPath      string         `json:"login_path"`
	HomePath       string         `json:"home_path"`
	CookieTTL      timex.Duration `json:"cookie_ttl"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Without either flag nothing is loaded. Read or unmarshal
// errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigFile(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.APIBaseURL != "" {
		cfg.APIBaseURL = jc.APIBaseURL
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
	if len(jc.PublicPaths) > 0 {
		cfg.PublicPaths = jc.PublicPaths
	}
	if jc.LoginPath != "" {
		cfg.LoginPath = jc.LoginPath
	}
	if jc.HomePath != "" {
		cfg.HomePath = jc.HomePath
	}
	if jc.CookieTTL.Duration != 0 {
		cfg.CookieTTL = jc.CookieTTL.Duration
	}
}
