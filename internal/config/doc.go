// Package config loads the ReWear client settings.
//
// # Resolution Order
//
// Load builds a Config in layers, each overriding the previous one:
//
//  1. Built-in defaults (see Default)
//  2. The TOML file at the given path, or ~/.config/rewear/config.toml
//  3. A .env file in the working directory, if present
//  4. REWEAR_* environment variables
//
// A missing config file or .env file is not an error. Empty values in the
// file leave the default in place.
//
// # TOML Format
//
//	api_url = "http://localhost:8000/api"
//	data_dir = "~/.local/share/rewear"
//	log_level = "info"          # debug, info, warn, error
//	log_format = "console"      # console or json
//	page_size = 12
//	request_timeout_seconds = 10
//	demo_emails = ["demo@example.com", "demo@rewear.com"]
//	demo_user_id = 1
//	storage = "sqlite"          # sqlite or memory
//
// # Environment
//
// REWEAR_API_URL, REWEAR_DATA_DIR, REWEAR_LOG_LEVEL, REWEAR_LOG_FORMAT,
// REWEAR_PAGE_SIZE, REWEAR_REQUEST_TIMEOUT_SECONDS, REWEAR_DEMO_EMAILS
// (comma separated), REWEAR_DEMO_USER_ID and REWEAR_STORAGE. Numeric values
// that do not parse make Load fail rather than silently fall back.
//
// # Derived Paths
//
//   - Database: <data_dir>/rewear.db
//   - Log file: <data_dir>/rewear.log
//
// Tilde expansion is applied to the config path and data_dir.
package config
