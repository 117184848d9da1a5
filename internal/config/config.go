package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Token backends.
const (
	BackendCookie = "cookie"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Config is meddesk's resolved configuration.
type Config struct {
	APIURL         string
	LoginPath      string
	InfoPath       string
	RequestTimeout time.Duration
	StateDir       string
	TokenBackend   string
	TokenTTL       time.Duration
	JWTExpiry      bool
	RedisAddr      string
	RedisDB        int
	LogLevel       string
	LogFormat      string
}

const (
	DefaultPath           = "~/.config/meddesk/config.toml"
	defaultAPIURL         = "http://localhost:5000"
	defaultLoginPath      = "/users/login"
	defaultInfoPath       = "/users/info"
	defaultRequestTimeout = 10 * time.Second
	defaultStateDir       = "~/.local/share/meddesk"
	defaultRedisAddr      = "127.0.0.1:6379"
	defaultLogLevel       = "info"
	defaultLogFormat      = "text"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:         defaultAPIURL,
		LoginPath:      defaultLoginPath,
		InfoPath:       defaultInfoPath,
		RequestTimeout: defaultRequestTimeout,
		StateDir:       mustExpand(defaultStateDir),
		TokenBackend:   BackendCookie,
		RedisAddr:      defaultRedisAddr,
		LogLevel:       defaultLogLevel,
		LogFormat:      defaultLogFormat,
	}
}

type rawConfig struct {
	APIURL         string `toml:"api_url"`
	LoginPath      string `toml:"login_path"`
	InfoPath       string `toml:"info_path"`
	RequestTimeout string `toml:"request_timeout"`
	StateDir       string `toml:"state_dir"`
	TokenBackend   string `toml:"token_backend"`
	TokenTTL       string `toml:"token_ttl"`
	JWTExpiry      bool   `toml:"jwt_expiry"`
	RedisAddr      string `toml:"redis_addr"`
	RedisDB        int    `toml:"redis_db"`
	LogLevel       string `toml:"log_level"`
	LogFormat      string `toml:"log_format"`
}

// Load reads the config at path (DefaultPath when empty). A missing file
// yields Default(); blank fields keep their defaults.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.apply(raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) apply(raw rawConfig) error {
	setString(&c.APIURL, raw.APIURL)
	setString(&c.LoginPath, raw.LoginPath)
	setString(&c.InfoPath, raw.InfoPath)
	setString(&c.RedisAddr, raw.RedisAddr)
	setString(&c.LogLevel, raw.LogLevel)
	setString(&c.LogFormat, raw.LogFormat)

	if dir := strings.TrimSpace(raw.StateDir); dir != "" {
		c.StateDir = mustExpand(dir)
	}

	if backend := strings.ToLower(strings.TrimSpace(raw.TokenBackend)); backend != "" {
		switch backend {
		case BackendCookie, BackendFile, BackendRedis:
			c.TokenBackend = backend
		default:
			return fmt.Errorf("token_backend %q: want cookie, file or redis", raw.TokenBackend)
		}
	}

	timeout, err := parseDuration("request_timeout", raw.RequestTimeout)
	if err != nil {
		return err
	}
	if timeout > 0 {
		c.RequestTimeout = timeout
	}
	if c.TokenTTL, err = parseDuration("token_ttl", raw.TokenTTL); err != nil {
		return err
	}

	c.JWTExpiry = raw.JWTExpiry
	if raw.RedisDB < 0 {
		return fmt.Errorf("redis_db %d: must not be negative", raw.RedisDB)
	}
	c.RedisDB = raw.RedisDB
	return nil
}

// CookiePath is where the cookie token backend persists.
func (c Config) CookiePath() string {
	return filepath.Join(c.stateDir(), "cookies.json")
}

// LocalPath is the local key-value file holding the doctor id, and the token
// when the file backend is selected.
func (c Config) LocalPath() string {
	return filepath.Join(c.stateDir(), "local.toml")
}

// LogPath is the client's own log file.
func (c Config) LogPath() string {
	return filepath.Join(c.stateDir(), "meddesk.log")
}

func (c Config) stateDir() string {
	if strings.TrimSpace(c.StateDir) == "" {
		return mustExpand(defaultStateDir)
	}
	return c.StateDir
}

func setString(dst *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*dst = v
	}
}

func parseDuration(key, value string) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s %q: must not be negative", key, value)
	}
	return d, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return ExpandPath(DefaultPath)
	}
	return ExpandPath(path)
}

func mustExpand(path string) string {
	expanded, err := ExpandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ to the home directory and returns an
// absolute path.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
