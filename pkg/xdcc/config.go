package xdcc

import (
	"time"

	"github.com/pkg/errors"
)

const (
	DefaultPort    = 6667
	DefaultRetry   = 1
	DefaultTimeout = 30 * time.Second
)

// Config is the session configuration. It is copied into the session on
// construction and never changed afterwards.
type Config struct {
	Host string
	Port int
	// Nick is the nickname used on the network. A random one is generated when empty.
	Nick string
	// Channels are joined before the session reports ready. Some bots only
	// serve users that share a channel with them.
	Channels []string
	TLS      bool
	// Proxy is a socks5:// URL the IRC connection is dialed through.
	Proxy string

	// Retry is the number of additional attempts for a pack before it is skipped.
	Retry int
	// Timeout bounds both the wait for a DCC offer and the time a transfer may stall.
	Timeout time.Duration
	// Verbose enables transfer progress logging.
	Verbose bool
	// BotNameMatch requires DCC offers to come from the nick the pack was
	// requested from. When false, offers from other nicks are accepted.
	BotNameMatch bool
	// Path is the destination directory.
	Path string
}

// DefaultConfig returns a Config with library defaults applied.
func DefaultConfig() Config {
	return Config{
		Port:         DefaultPort,
		Retry:        DefaultRetry,
		Timeout:      DefaultTimeout,
		BotNameMatch: false,
		Path:         ".",
	}
}

func (c Config) Validate() error {
	if c.Host == "" {
		return ErrNoHost
	}
	if c.Port <= 0 || c.Port > 65535 {
		return errors.Errorf("invalid port: %d", c.Port)
	}
	if c.Retry < 0 {
		return errors.Errorf("invalid retry count: %d", c.Retry)
	}
	if c.Timeout <= 0 {
		return errors.Errorf("invalid timeout: %v", c.Timeout)
	}
	if c.Path == "" {
		return errors.New("no destination path configured")
	}
	return nil
}
