package xdcc

import (
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type noticeKind int

const (
	noticeOther noticeKind = iota
	noticeQueued
	noticeInvalid
)

// job holds the packs requested from one bot. Fields are guarded by the
// session mutex.
type job struct {
	id      string
	bot     string
	queue   []string
	success []string
	failed  []string

	awaiting bool
	since    time.Time
	offers   chan Offer
	notices  chan string
}

func newJob(bot string) *job {
	return &job{
		id:      uuid.NewString(),
		bot:     bot,
		offers:  make(chan Offer, 1),
		notices: make(chan string, 8),
	}
}

func (j *job) snapshot() Job {
	return Job{
		ID:      j.id,
		Bot:     j.bot,
		Queue:   append([]string(nil), j.queue...),
		Success: append([]string(nil), j.success...),
		Failed:  append([]string(nil), j.failed...),
	}
}

func jobKey(nick string) string {
	return strings.ToLower(nick)
}

func classifyNotice(text string) noticeKind {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "invalid pack"):
		return noticeInvalid
	case strings.Contains(lower, "queue"):
		return noticeQueued
	}
	return noticeOther
}

// runJob processes the queue of j until it is empty or the session stops.
func (s *Session) runJob(j *job) {
	defer s.workers.Done()

	var remaining int
	for {
		pack, left, ok := s.nextPack(j)
		if !ok {
			remaining = left
			break
		}

		info, err := s.fetch(j, pack)
		if s.ctx.Err() != nil {
			return
		}

		s.mu.Lock()
		if err != nil {
			j.failed = append(j.failed, pack)
		} else {
			j.success = append(j.success, info.File)
		}
		s.mu.Unlock()

		if err != nil {
			s.log.Error().Err(err).Str("bot", j.bot).Str("pack", pack).Msg("pack skipped")
			s.emit(Event{Type: EventError, Err: &PackError{Bot: j.bot, Pack: pack, Err: err}})
			continue
		}

		s.emit(Event{Type: EventDownloaded, File: info})
	}

	s.mu.Lock()
	summary := j.snapshot()
	s.mu.Unlock()

	s.emit(Event{Type: EventDone, Job: &summary})
	if remaining == 0 {
		s.emit(Event{Type: EventCanQuit})
	}
}

// nextPack pops the next pack of j. When the queue is empty the job is
// removed from the session so later requests for the bot start a new one,
// and the number of jobs still active is returned.
func (s *Session) nextPack(j *job) (string, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(j.queue) == 0 || s.ctx.Err() != nil {
		if s.jobs[jobKey(j.bot)] == j {
			delete(s.jobs, jobKey(j.bot))
		}
		return "", len(s.jobs), false
	}

	pack := j.queue[0]
	j.queue = j.queue[1:]
	return pack, 0, true
}

func (s *Session) fetch(j *job, pack string) (*FileInfo, error) {
	var info *FileInfo

	err := retry.Do(
		func() error {
			offer, err := s.request(j, pack)
			if err != nil {
				return err
			}
			info, err = s.recv.receive(s.ctx, offer)
			return err
		},
		retry.Attempts(uint(s.cfg.Retry)+1),
		retry.Delay(s.retryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.Context(s.ctx),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, ErrInvalidPack) && !errors.Is(err, ErrPassiveDCC)
		}),
		retry.OnRetry(func(n uint, err error) {
			s.log.Warn().Err(err).Str("bot", j.bot).Str("pack", pack).Msgf("attempt %d/%d failed", n+1, s.cfg.Retry+1)
		}),
	)
	if err != nil {
		return nil, err
	}

	info.JobID = j.id
	info.Bot = j.bot
	info.Pack = pack
	return info, nil
}

// request asks the bot for pack and waits for its DCC offer.
func (s *Session) request(j *job, pack string) (Offer, error) {
	s.mu.Lock()
	j.awaiting = true
	j.since = time.Now()
	drain(j.offers)
	drain(j.notices)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		j.awaiting = false
		s.mu.Unlock()
	}()

	s.log.Debug().Str("bot", j.bot).Str("pack", pack).Msg("requesting pack")
	s.msg.Message(j.bot, requestMessage(pack))

	timer := time.NewTimer(s.cfg.Timeout)
	defer timer.Stop()

	for {
		select {
		case offer := <-j.offers:
			s.log.Debug().Str("bot", offer.From).Str("file", offer.FileName).Int64("size", offer.Size).Msg("offer received")
			return offer, nil

		case notice := <-j.notices:
			switch classifyNotice(notice) {
			case noticeInvalid:
				return Offer{}, errors.Wrapf(ErrInvalidPack, "%s: %s", pack, notice)
			case noticeQueued:
				s.log.Info().Str("bot", j.bot).Str("pack", pack).Msg(notice)
				timer.Reset(s.cfg.Timeout)
			}

		case <-timer.C:
			s.msg.Message(j.bot, cancelMessage())
			return Offer{}, errors.Wrapf(ErrOfferTimeout, "%s from %s", pack, j.bot)

		case <-s.ctx.Done():
			return Offer{}, ErrClosed
		}
	}
}

func drain[T any](ch chan T) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}
