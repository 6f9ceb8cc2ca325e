package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ludviglundgren/xdcc-cli/internal/config"
	"github.com/ludviglundgren/xdcc-cli/internal/domain"
	fsutil "github.com/ludviglundgren/xdcc-cli/internal/fs"
	"github.com/ludviglundgren/xdcc-cli/internal/history"
	"github.com/ludviglundgren/xdcc-cli/internal/logging"
	"github.com/ludviglundgren/xdcc-cli/internal/orchestrator"
	"github.com/ludviglundgren/xdcc-cli/pkg/archive"
	"github.com/ludviglundgren/xdcc-cli/pkg/xdcc"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// downloadFlags are shared by the commands that start a session. Only flags
// set on the command line override the config file.
type downloadFlags struct {
	host         string
	port         int
	nick         string
	channels     []string
	tls          bool
	proxy        string
	bot          string
	path         string
	retry        int
	timeout      int
	verbose      bool
	botNameMatch bool
	extract      bool
	noHistory    bool
}

func (f *downloadFlags) register(command *cobra.Command) {
	command.Flags().StringVar(&f.host, "host", config.DefaultHost, "IRC server hostname")
	command.Flags().IntVar(&f.port, "port", config.DefaultPort, "IRC server port")
	command.Flags().StringVar(&f.nick, "nick", "", "Nickname to use (random if empty)")
	command.Flags().StringSliceVar(&f.channels, "channel", []string{}, "Channels to join before requesting. Separated by comma: \"#chan1,#chan2\"")
	command.Flags().BoolVar(&f.tls, "tls", false, "Connect using TLS")
	command.Flags().StringVar(&f.proxy, "proxy", "", "Connect through a SOCKS5 proxy, e.g. socks5://127.0.0.1:1080")
	command.Flags().StringVarP(&f.bot, "bot", "b", config.DefaultBot, "Bot nickname to request packs from")
	command.Flags().StringVarP(&f.path, "path", "p", "", "Download directory (default is the working directory)")
	command.Flags().IntVar(&f.retry, "retry", config.DefaultRetry, "Number of retries before a pack is skipped")
	command.Flags().IntVar(&f.timeout, "timeout", config.DefaultTimeout, "Seconds before a request or transfer is considered stalled")
	command.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Display download progress and job status")
	command.Flags().BoolVar(&f.botNameMatch, "bot-name-match", false, "Only accept files sent by the requested bot")
	command.Flags().BoolVar(&f.extract, "extract", false, "Extract downloaded archives")
	command.Flags().BoolVar(&f.noHistory, "no-history", false, "Do not record downloads in the history database")
}

// apply overrides cfg with the flags that were set explicitly.
func (f *downloadFlags) apply(command *cobra.Command, cfg *domain.AppConfig) {
	changed := command.Flags().Changed

	if changed("host") {
		cfg.IRC.Host = f.host
	}
	if changed("port") {
		cfg.IRC.Port = f.port
	}
	if changed("nick") {
		cfg.IRC.Nick = f.nick
	}
	if changed("channel") {
		cfg.IRC.Channels = f.channels
	}
	if changed("tls") {
		cfg.IRC.TLS = f.tls
	}
	if changed("proxy") {
		cfg.IRC.Proxy = f.proxy
	}
	if changed("bot") {
		cfg.Download.Bot = f.bot
	}
	if changed("path") {
		cfg.Download.Path = f.path
	}
	if changed("retry") {
		cfg.Download.Retry = f.retry
	}
	if changed("timeout") {
		cfg.Download.Timeout = f.timeout
	}
	if changed("verbose") {
		cfg.Verbose = f.verbose
	}
	if changed("bot-name-match") {
		cfg.Download.BotNameMatch = f.botNameMatch
	}
	if changed("extract") {
		cfg.Download.Extract = f.extract
	}
	if changed("no-history") {
		cfg.History.Enabled = !f.noHistory
	}
}

func sessionConfig(cfg domain.AppConfig) xdcc.Config {
	return xdcc.Config{
		Host:         cfg.IRC.Host,
		Port:         cfg.IRC.Port,
		Nick:         cfg.IRC.Nick,
		Channels:     cfg.IRC.Channels,
		TLS:          cfg.IRC.TLS,
		Proxy:        cfg.IRC.Proxy,
		Retry:        cfg.Download.Retry,
		Timeout:      time.Duration(cfg.Download.Timeout) * time.Second,
		Verbose:      cfg.Verbose,
		BotNameMatch: cfg.Download.BotNameMatch,
		Path:         cfg.Download.Path,
	}
}

// runDownloads connects, requests the identifiers from source and blocks
// until every job has finished.
func runDownloads(command *cobra.Command, f *downloadFlags, source func(cfg domain.AppConfig) orchestrator.Source, logTransfers bool) error {
	cfg, err := config.Load(config.CfgFile)
	if err != nil {
		return err
	}
	f.apply(command, &cfg)

	log := logging.New(cfg.Verbose)

	if err := fsutil.EnsureDir(cfg.Download.Path); err != nil {
		return errors.Wrapf(err, "could not create download dir: %s", cfg.Download.Path)
	}

	unlock, err := fsutil.LockDir(cfg.Download.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := unlock(); err != nil {
			log.Warn().Err(err).Msg("could not release download dir lock")
		}
	}()

	session, err := xdcc.NewSession(sessionConfig(cfg), xdcc.WithLogger(log))
	if err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	orc := orchestrator.New(session, orchestrator.Options{
		Bot:    cfg.Download.Bot,
		Source: source(cfg),
		Log:    log,
	})
	if logTransfers {
		orc.LogTransfers()
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		orc.On(xdcc.EventDownloaded, recordHistory(store, log))
	}

	if cfg.Download.Extract {
		orc.On(xdcc.EventDownloaded, extractArchive(log))
	}

	ctx, stop := signal.NotifyContext(command.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("server", cfg.IRC.Host).Int("port", cfg.IRC.Port).Str("bot", cfg.Download.Bot).Msg("connecting")

	errc := make(chan error, 1)
	go func() {
		errc <- session.Run(ctx)
	}()

	runErr := orc.Run(ctx)
	sessionErr := <-errc

	if runErr != nil {
		return runErr
	}
	return sessionErr
}

func recordHistory(store *history.Store, log zerolog.Logger) orchestrator.Handler {
	return func(ctx context.Context, ev xdcc.Event) error {
		if ev.File == nil {
			return nil
		}

		entry := history.Entry{
			JobID:    ev.File.JobID,
			Bot:      ev.File.Bot,
			Pack:     ev.File.Pack,
			FileName: ev.File.File,
			FilePath: ev.File.FilePath,
			Size:     ev.File.Length,
			Mime:     ev.File.Type,
		}
		if err := store.Record(ctx, entry); err != nil {
			log.Warn().Err(err).Msg("could not record history")
		}
		return nil
	}
}

func extractArchive(log zerolog.Logger) orchestrator.Handler {
	return func(ctx context.Context, ev xdcc.Event) error {
		if ev.File == nil || !archive.IsArchive(ev.File.FilePath) {
			return nil
		}

		target := strings.TrimSuffix(ev.File.FilePath, filepath.Ext(ev.File.FilePath))
		files, err := archive.Extract(ctx, ev.File.FilePath, target)
		if err != nil {
			log.Error().Err(err).Str("file", ev.File.File).Msg("could not extract archive")
			return nil
		}

		log.Info().
			Str("file", ev.File.File).
			Str("target", target).
			Int("files", len(files)).
			Str("size", humanize.Bytes(uint64(ev.File.Length))).
			Msg("extracted")
		return nil
	}
}
