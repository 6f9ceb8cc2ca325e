package xdcc

import (
	"context"
	"net"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lrstanley/girc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/net/proxy"
)

const (
	eventBuffer       = 64
	defaultRetryDelay = 2 * time.Second
	quitMessage       = "xdl: downloads finished"
)

// messenger sends PRIVMSGs. *girc.Commands satisfies it.
type messenger interface {
	Message(target, message string)
}

// Session is one connection to an IRC network serving XDCC requests.
type Session struct {
	cfg        Config
	log        zerolog.Logger
	irc        *girc.Client
	msg        messenger
	recv       *receiver
	retryDelay time.Duration
	connect    func() error

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	jobs    map[string]*job
	workers sync.WaitGroup

	events   chan Event
	emitMu   sync.RWMutex
	closed   bool
	readyOne sync.Once
	quitOnce sync.Once
	stopOnce sync.Once
	quitting atomic.Bool
	joined   map[string]bool
}

type Option func(*Session)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) {
		s.log = l
	}
}

// NewSession validates cfg and prepares a session. Nothing is sent until Run.
func NewSession(cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	nick := cfg.Nick
	if nick == "" {
		nick = randomNick()
	}

	client := girc.New(girc.Config{
		Server: cfg.Host,
		Port:   cfg.Port,
		Nick:   nick,
		User:   "xdl",
		Name:   "xdl",
		SSL:    cfg.TLS,
	})

	s := newSession(cfg, client.Cmd, opts...)
	s.irc = client
	s.connect = s.dial
	s.register(client)

	return s, nil
}

func newSession(cfg Config, msg messenger, opts ...Option) *Session {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		cfg:        cfg,
		log:        zerolog.Nop(),
		msg:        msg,
		retryDelay: defaultRetryDelay,
		ctx:        ctx,
		cancel:     cancel,
		jobs:       make(map[string]*job),
		events:     make(chan Event, eventBuffer),
		joined:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.recv = &receiver{
		dir:     cfg.Path,
		timeout: cfg.Timeout,
		verbose: cfg.Verbose,
		log:     s.log,
	}

	return s
}

func randomNick() string {
	return "xdl" + strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}

func (s *Session) register(client *girc.Client) {
	client.Handlers.Add(girc.CONNECTED, func(c *girc.Client, e girc.Event) {
		s.log.Info().Str("server", c.Server()).Str("nick", c.GetNick()).Msg("connected")

		if len(s.cfg.Channels) == 0 {
			s.ready()
			return
		}

		c.Cmd.Join(s.cfg.Channels...)
		// do not wait forever on a channel we are not allowed into
		time.AfterFunc(s.cfg.Timeout, func() {
			s.ready()
		})
	})

	client.Handlers.Add(girc.JOIN, func(c *girc.Client, e girc.Event) {
		if e.Source == nil || !strings.EqualFold(e.Source.Name, c.GetNick()) || len(e.Params) == 0 {
			return
		}
		s.log.Debug().Str("channel", e.Params[0]).Msg("joined")
		if s.markJoined(e.Params[0]) {
			s.ready()
		}
	})

	client.Handlers.Add(girc.NOTICE, func(c *girc.Client, e girc.Event) {
		if e.Source == nil || e.IsFromChannel() {
			return
		}
		s.handleNotice(e.Source.Name, e.Last())
	})

	client.CTCP.Set("DCC", func(c *girc.Client, ctcp girc.CTCPEvent) {
		if ctcp.Reply || ctcp.Source == nil {
			return
		}
		s.handleOffer(ctcp.Source.Name, ctcp.Text)
	})
}

// markJoined records a joined channel and reports whether all configured
// channels are joined.
func (s *Session) markJoined(channel string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.joined[strings.ToLower(channel)] = true
	for _, ch := range s.cfg.Channels {
		if !s.joined[strings.ToLower(ch)] {
			return false
		}
	}
	return true
}

func (s *Session) ready() {
	s.readyOne.Do(func() {
		s.emit(Event{Type: EventReady})
	})
}

// Events returns the event stream. It is closed once Run has returned and
// all jobs have stopped.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Run connects to the network and blocks until the session is quit, the
// connection drops or ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		s.Quit()
	})
	defer stop()
	defer s.shutdown()

	if s.quitting.Load() {
		return nil
	}

	err := s.connect()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if s.quitting.Load() {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "irc connection to %s:%d", s.cfg.Host, s.cfg.Port)
	}
	return nil
}

// dial connects the girc client, through the configured proxy if any. It
// returns once the connection is closed.
func (s *Session) dial() error {
	if s.cfg.Proxy == "" {
		return s.irc.Connect()
	}

	d, err := proxyDialer(s.cfg.Proxy, s.cfg.Timeout)
	if err != nil {
		return err
	}
	return s.irc.DialerConnect(d)
}

func proxyDialer(raw string, timeout time.Duration) (proxy.Dialer, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid proxy url: %s", raw)
	}

	d, err := proxy.FromURL(u, &net.Dialer{Timeout: timeout})
	if err != nil {
		return nil, errors.Wrapf(err, "unsupported proxy: %s", raw)
	}
	return d, nil
}

// Download queues ids for bot. Requests for a bot that already has an
// active job are appended to it.
func (s *Session) Download(bot string, ids ...string) (Job, error) {
	if bot == "" {
		return Job{}, errors.New("no bot nickname given")
	}

	var packs []string
	for _, id := range ids {
		p, err := ParsePackets(id)
		if err != nil {
			return Job{}, errors.Wrapf(err, "could not parse identifier %q", id)
		}
		packs = append(packs, p...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return Job{}, ErrClosed
	}

	j, ok := s.jobs[jobKey(bot)]
	if !ok {
		j = newJob(bot)
		s.jobs[jobKey(bot)] = j
		s.workers.Add(1)
		go s.runJob(j)
	}
	j.queue = append(j.queue, packs...)

	s.log.Debug().Str("job", j.id).Str("bot", bot).Strs("packs", packs).Msg("queued")

	return j.snapshot(), nil
}

// Quit disconnects from the network. Only the first call has any effect.
func (s *Session) Quit() error {
	s.quitOnce.Do(func() {
		s.quitting.Store(true)
		if s.irc == nil {
			s.shutdown()
			return
		}
		if s.irc.IsConnected() {
			s.irc.Quit(quitMessage)
		}
		s.irc.Close()
	})
	return nil
}

// shutdown stops all jobs and closes the event stream.
func (s *Session) shutdown() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.cancel()
		s.mu.Unlock()

		s.workers.Wait()

		s.emitMu.Lock()
		s.closed = true
		close(s.events)
		s.emitMu.Unlock()
	})
}

func (s *Session) emit(ev Event) {
	s.emitMu.RLock()
	defer s.emitMu.RUnlock()

	if s.closed {
		return
	}
	select {
	case s.events <- ev:
	case <-s.ctx.Done():
	}
}

func (s *Session) handleOffer(from, text string) {
	offer, err := ParseOffer(from, text)
	if err != nil {
		s.log.Warn().Err(err).Str("from", from).Msg("ignoring dcc")
		return
	}

	s.mu.Lock()
	j := s.matchJob(from)
	s.mu.Unlock()

	if j == nil {
		s.log.Warn().Str("from", from).Str("file", offer.FileName).Msg("ignoring unsolicited dcc offer")
		return
	}

	select {
	case j.offers <- offer:
	default:
		s.log.Warn().Str("from", from).Str("file", offer.FileName).Msg("dropping duplicate dcc offer")
	}
}

func (s *Session) handleNotice(from, text string) {
	s.log.Debug().Str("from", from).Msg(text)

	s.mu.Lock()
	j, ok := s.jobs[jobKey(from)]
	awaiting := ok && j.awaiting
	s.mu.Unlock()

	if !awaiting {
		return
	}
	select {
	case j.notices <- text:
	default:
	}
}

// matchJob finds the job an offer from nick belongs to. Must be called with
// s.mu held.
func (s *Session) matchJob(nick string) *job {
	if j, ok := s.jobs[jobKey(nick)]; ok && j.awaiting {
		return j
	}
	if s.cfg.BotNameMatch {
		return nil
	}

	var match *job
	for _, j := range s.jobs {
		if !j.awaiting {
			continue
		}
		if match == nil || j.since.Before(match.since) {
			match = j
		}
	}
	return match
}
