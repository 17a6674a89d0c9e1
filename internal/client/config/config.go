package config

import "time"

// Config holds runtime settings for the freshcart client.
//
// Units: RequestTimeout and CookieTTL are time.Duration values.
type Config struct {
	APIBaseURL     string        `envconfig:"API_URL"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT"`
	DatabasePath   string        `envconfig:"DB"`
	LogLevel       string        `envconfig:"LOG_LEVEL"`
	PublicPaths    []string      `envconfig:"PUBLIC_PATHS"`
	LoginPath      string        `envconfig:"LOGIN_PATH"`
	HomePath       string        `envconfig:"HOME_PATH"`
	CookieTTL      time.Duration `envconfig:"COOKIE_TTL"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:4000"
	c.RequestTimeout = 10 * time.Second
	c.DatabasePath = "freshcart.db"
	c.LogLevel = "info"
	c.PublicPaths = []string{"/", "/home", "/products", "/blogs"}
	c.LoginPath = "/login"
	c.HomePath = "/home"
	c.CookieTTL = 24 * time.Hour
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags (if present).
// Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
