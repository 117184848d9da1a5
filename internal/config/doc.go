// Package config loads meddesk's TOML configuration.
//
// # Overview
//
// The config file tells meddesk where the patient-management API lives, how
// long to wait for it, where to keep local state and which backend holds
// the authentication token.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/meddesk/config.toml (default)
//  3. If the config file doesn't exist, fall back to Default()
//  4. If the file exists but fields are missing/empty, use defaults
//
// # Default Values
//
//   - API: http://localhost:5000, login /users/login, info /users/info
//   - Request timeout: 10s
//   - State directory: ~/.local/share/meddesk
//   - Token backend: cookie (<state_dir>/cookies.json)
//   - Token expiry: none; JWT exp checks off
//   - Logging: info, text, <state_dir>/meddesk.log
//
// # TOML Format
//
//	api_url = "http://localhost:5000"
//	request_timeout = "10s"
//	state_dir = "~/.local/share/meddesk"
//	token_backend = "redis"   # cookie | file | redis
//	token_ttl = "168h"
//	jwt_expiry = true
//	redis_addr = "127.0.0.1:6379"
//	redis_db = 0
//	log_level = "debug"
//	log_format = "json"
//
// # Error Handling
//
// A missing file is not an error. Unreadable files, invalid TOML and
// invalid values (unknown backend, bad duration, negative numbers) are
// returned wrapped as "open config", "read config" or "parse config".
//
// # Path Expansion
//
// Paths beginning with ~ are expanded against the user's home directory and
// made absolute.
package config
