package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func mustAtoi(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}

// mustDuration accepts Go durations ("1500ms", "2s") or bare seconds ("5").
func mustDuration(s string) time.Duration {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second
	}
	return 0
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func LoadConfig() (*Config, error) {
	dataDir := getenv("DATA_DIR", "./data")

	cfg := &Config{
		RCONAddr:               getenv("RCON_ADDR", "127.0.0.1:21770"),
		RCONPassword:           getenv("RCON_PASSWORD", "nodejs"),
		RCONDialTimeout:        mustDuration(getenv("RCON_DIAL_TIMEOUT", "3s")),
		RetryInterval:          mustDuration(getenv("RETRY_INTERVAL", "5s")),
		KeepAliveInterval:      mustDuration(getenv("KEEPALIVE_INTERVAL", "3s")),
		KeepAliveCommand:       "+voicerecord",
		GameDir:                os.Getenv("GAME_DIR"),
		LogFile:                os.Getenv("LOG_FILE"),
		LedgerMode:             LedgerMode(getenv("LEDGER_MODE", string(LedgerOffset))),
		PollInterval:           mustDuration(getenv("POLL_INTERVAL", "1s")),
		SkipThreshold:          mustAtoi(getenv("SKIP_THRESHOLD", "4")),
		GracePeriod:            mustDuration(getenv("GRACE_PERIOD", "2s")),
		HostListen:             getenv("HOST_LISTEN", "127.0.0.1:21771"),
		HostAllowedOrigins:     splitList(os.Getenv("HOST_ALLOWED_ORIGINS")),
		NircmdPath:             os.Getenv("NIRCMD_PATH"),
		AudioDevice:            getenv("AUDIO_DEVICE", "CABLE Output"),
		SpotifyClientID:        os.Getenv("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret:    os.Getenv("SPOTIFY_CLIENT_SECRET"),
		EnableSponsorBlock:     getenv("ENABLE_SPONSORBLOCK", "false") == "true",
		SponsorBlockTimeoutMin: mustAtoi(getenv("SPONSORBLOCK_TIMEOUT", "5")),
		DataDir:                dataDir,
		LogLevel:               getenv("LOG_LEVEL", "info"),
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	_ = os.MkdirAll(cfg.DataDir, 0o755)
	return cfg, nil
}

// Finalize validates the config and resolves the console log path. It is
// called again by main after command-line overrides are applied.
func (c *Config) Finalize() error {
	if c.RCONAddr == "" {
		return ErrConfig("RCON_ADDR required")
	}
	if c.RetryInterval <= 0 {
		return ErrConfig("RETRY_INTERVAL must be positive")
	}
	if c.KeepAliveInterval <= 0 {
		return ErrConfig("KEEPALIVE_INTERVAL must be positive")
	}
	if c.SkipThreshold < 1 {
		return ErrConfig("SKIP_THRESHOLD must be at least 1")
	}
	if c.GracePeriod < 0 {
		return ErrConfig("GRACE_PERIOD must not be negative")
	}
	c.LedgerMode = LedgerMode(strings.ToLower(strings.TrimSpace(string(c.LedgerMode))))
	switch c.LedgerMode {
	case LedgerOffset, LedgerRewrite:
	default:
		return ErrConfig("LEDGER_MODE must be offset or rewrite")
	}
	if c.LogFile == "" {
		c.LogFile = ConsoleLogPath(c.GameDir)
	}
	if c.LogFile == "" {
		return ErrConfig("LOG_FILE or GAME_DIR required")
	}
	return nil
}

// ConsoleLogPath returns <gameDir>/tf/console.log. With no gameDir the game
// is looked up in the Steam libraries (see steamGameDir).
func ConsoleLogPath(gameDir string) string {
	if gameDir == "" {
		gameDir = steamGameDir(steamRoot())
	}
	if gameDir == "" {
		return ""
	}
	return filepath.Join(gameDir, "tf", "console.log")
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
