package config

import "time"

type LedgerMode string

const (
	LedgerOffset  LedgerMode = "offset"
	LedgerRewrite LedgerMode = "rewrite"
)

type Config struct {
	RCONAddr          string
	RCONPassword      string
	RCONDialTimeout   time.Duration
	RetryInterval     time.Duration
	KeepAliveInterval time.Duration
	KeepAliveCommand  string

	GameDir      string
	LogFile      string // console.log the game appends chat to
	LedgerMode   LedgerMode
	PollInterval time.Duration // 0 disables polling, fsnotify only

	SkipThreshold int
	GracePeriod   time.Duration

	HostListen         string
	HostAllowedOrigins []string
	NircmdPath         string // empty skips audio routing
	AudioDevice        string

	SpotifyClientID     string
	SpotifyClientSecret string

	EnableSponsorBlock     bool
	SponsorBlockTimeoutMin int

	DataDir  string
	LogLevel string // debug/info/warn/error
}
