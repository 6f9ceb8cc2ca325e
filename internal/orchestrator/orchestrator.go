package orchestrator

import (
	"context"
	"sync"

	"github.com/ludviglundgren/xdcc-cli/pkg/xdcc"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// DefaultBot is the bot downloads are requested from unless configured otherwise.
const DefaultBot = "Ginpachi-Sensei"

// Client is the part of an XDCC session the orchestrator drives.
// *xdcc.Session implements it.
type Client interface {
	Events() <-chan xdcc.Event
	Download(bot string, ids ...string) (xdcc.Job, error)
	Quit() error
}

// Handler reacts to one client event. Returning an error stops the run.
type Handler func(ctx context.Context, ev xdcc.Event) error

type Options struct {
	Bot    string
	Source Source
	Log    zerolog.Logger
}

// Orchestrator issues download requests once the client is ready and
// dispatches client events to registered handlers, one at a time, in the
// order they arrive.
type Orchestrator struct {
	client   Client
	bot      string
	source   Source
	log      zerolog.Logger
	handlers map[xdcc.EventType][]Handler

	quitOnce sync.Once
	quitErr  error
}

// New returns an orchestrator with the ready, can-quit and error handlers
// registered.
func New(client Client, opts Options) *Orchestrator {
	bot := opts.Bot
	if bot == "" {
		bot = DefaultBot
	}

	o := &Orchestrator{
		client:   client,
		bot:      bot,
		source:   opts.Source,
		log:      opts.Log,
		handlers: make(map[xdcc.EventType][]Handler),
	}

	o.On(xdcc.EventReady, o.onReady)
	o.On(xdcc.EventCanQuit, o.onCanQuit)
	o.On(xdcc.EventError, o.onError)

	return o
}

// On registers h for events of type t. Handlers of one type run in
// registration order.
func (o *Orchestrator) On(t xdcc.EventType, h Handler) {
	o.handlers[t] = append(o.handlers[t], h)
}

// LogTransfers registers handlers that log every downloaded file and every
// finished job.
func (o *Orchestrator) LogTransfers() {
	o.On(xdcc.EventDownloaded, func(ctx context.Context, ev xdcc.Event) error {
		if ev.File == nil {
			return nil
		}
		o.log.Info().Str("path", ev.File.FilePath).Msg("downloaded")
		return nil
	})
	o.On(xdcc.EventDone, func(ctx context.Context, ev xdcc.Event) error {
		if ev.Job == nil {
			return nil
		}
		o.log.Info().
			Str("job", ev.Job.ID).
			Str("bot", ev.Job.Bot).
			Strs("success", ev.Job.Success).
			Strs("failed", ev.Job.Failed).
			Msg("job done")
		return nil
	})
}

// Run dispatches events until the client closes its event stream, a
// handler fails or ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) error {
	events := o.client.Events()

	for {
		select {
		case <-ctx.Done():
			o.quit()
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := o.dispatch(ctx, ev); err != nil {
				o.quit()
				return err
			}
		}
	}
}

func (o *Orchestrator) dispatch(ctx context.Context, ev xdcc.Event) error {
	o.log.Debug().Stringer("event", ev.Type).Msg("event")

	for _, h := range o.handlers[ev.Type] {
		if err := h(ctx, ev); err != nil {
			return errors.Wrapf(err, "%s handler", ev.Type)
		}
	}
	return nil
}

func (o *Orchestrator) onReady(ctx context.Context, ev xdcc.Event) error {
	if o.source == nil {
		return errors.New("no identifier source configured")
	}

	ids, err := o.source.Identifiers()
	if err != nil {
		return err
	}

	if len(ids) == 0 {
		o.log.Warn().Msg("nothing to download")
		return o.quit()
	}

	for _, id := range ids {
		job, err := o.client.Download(o.bot, id)
		if err != nil {
			return errors.Wrapf(err, "could not request %s from %s", id, o.bot)
		}
		o.log.Info().Str("bot", o.bot).Str("id", id).Str("job", job.ID).Msg("requested")
	}

	return nil
}

func (o *Orchestrator) onCanQuit(ctx context.Context, ev xdcc.Event) error {
	return o.quit()
}

func (o *Orchestrator) onError(ctx context.Context, ev xdcc.Event) error {
	o.log.Error().Err(ev.Err).Msg("download failed")
	return nil
}

// quit asks the client to disconnect. Only the first call reaches the client.
func (o *Orchestrator) quit() error {
	o.quitOnce.Do(func() {
		o.log.Debug().Msg("quitting")
		o.quitErr = o.client.Quit()
	})
	return o.quitErr
}
