package domain

type IRCConfig struct {
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Nick     string   `mapstructure:"nick"`
	Channels []string `mapstructure:"channels"`
	TLS      bool     `mapstructure:"tls"`
	Proxy    string   `mapstructure:"proxy"`
}

type DownloadConfig struct {
	Bot          string `mapstructure:"bot"`
	Path         string `mapstructure:"path"`
	Retry        int    `mapstructure:"retry"`
	Timeout      int    `mapstructure:"timeout"`
	BotNameMatch bool   `mapstructure:"botNameMatch"`
	Extract      bool   `mapstructure:"extract"`
	ListFile     string `mapstructure:"listFile"`
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type AppConfig struct {
	Verbose  bool           `mapstructure:"verbose"`
	IRC      IRCConfig      `mapstructure:"irc"`
	Download DownloadConfig `mapstructure:"download"`
	History  HistoryConfig  `mapstructure:"history"`
}
