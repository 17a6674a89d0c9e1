// Package config loads runtime configuration for the freshcart client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Environment (see parseEnv): an optional .env file in the working
//     directory, then FRESHCART_* variables.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   backend base URL
//	-t int      request timeout (seconds)
//	-d string   path of the local SQLite database
//	-l string   log level (debug, info, warn, error)
//
// Environment
//
//	FRESHCART_API_URL, FRESHCART_REQUEST_TIMEOUT ("10s"), FRESHCART_DB,
//	FRESHCART_LOG_LEVEL, FRESHCART_PUBLIC_PATHS ("/,/home,/products"),
//	FRESHCART_LOGIN_PATH, FRESHCART_HOME_PATH, FRESHCART_COOKIE_TTL ("24h")
//
// # JSON schema
//
// The JSON loader uses timex.Duration for durations, so values can be either
// strings like "10s" or integer nanoseconds:
//
//	{
//	  "api_base_url": "http://localhost:4000",
//	  "request_timeout": "10s",
//	  "database_path": "freshcart.db",
//	  "log_level": "info",
//	  "public_paths": ["/", "/home", "/products", "/blogs"],
//	  "cookie_ttl": "24h"
//	}
//
// Malformed JSON, environment values or flags panic at startup.
package config
