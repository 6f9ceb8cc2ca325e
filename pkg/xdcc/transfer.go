package xdcc

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/h2non/filetype"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	partSuffix       = ".part"
	progressInterval = 5 * time.Second
)

type receiver struct {
	dir     string
	timeout time.Duration
	verbose bool
	log     zerolog.Logger
}

// receive connects to the sender of offer and writes the file into the
// destination directory. The transfer fails when no data arrives for the
// configured timeout.
func (r *receiver) receive(ctx context.Context, offer Offer) (*FileInfo, error) {
	if offer.Passive() {
		return nil, ErrPassiveDCC
	}

	dialer := net.Dialer{Timeout: r.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", offer.Addr())
	if err != nil {
		return nil, errors.Wrapf(err, "could not connect to %s", offer.Addr())
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	dst := filepath.Join(r.dir, offer.FileName)
	part := dst + partSuffix

	f, err := os.Create(part)
	if err != nil {
		return nil, errors.Wrapf(err, "could not create file: %s", part)
	}

	received, err := r.copy(ctx, conn, f, offer)
	if cerr := f.Close(); cerr != nil && err == nil {
		err = errors.Wrapf(cerr, "could not close file: %s", part)
	}
	if err != nil {
		os.Remove(part)
		return nil, err
	}

	if err := os.Rename(part, dst); err != nil {
		return nil, errors.Wrapf(err, "could not rename %s", part)
	}

	info := &FileInfo{
		Bot:      offer.From,
		File:     offer.FileName,
		FilePath: dst,
		Length:   received,
	}
	if kind, err := filetype.MatchFile(dst); err == nil && kind != filetype.Unknown {
		info.Type = kind.MIME.Value
	}

	return info, nil
}

func (r *receiver) copy(ctx context.Context, conn net.Conn, w io.Writer, offer Offer) (int64, error) {
	var (
		received int64
		buf      = make([]byte, 32*1024)
		ack      = make([]byte, 4)
		started  = time.Now()
		reported = started
	)

	for offer.Size == 0 || received < offer.Size {
		if err := conn.SetReadDeadline(time.Now().Add(r.timeout)); err != nil {
			return received, err
		}

		n, err := conn.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return received, errors.Wrap(werr, "could not write data")
			}
			received += int64(n)

			// acknowledge the low 32 bits of the running total, a sender
			// that went away shows up on the next read
			binary.BigEndian.PutUint32(ack, uint32(received))
			if _, werr := conn.Write(ack); werr != nil {
				r.log.Debug().Err(werr).Str("file", offer.FileName).Msg("could not send ack")
			}

			if r.verbose && time.Since(reported) >= progressInterval {
				reported = time.Now()
				r.logProgress(offer, received, started)
			}
		}

		if err != nil {
			if ctx.Err() != nil {
				return received, ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				if offer.Size == 0 || received >= offer.Size {
					break
				}
				return received, errors.Wrapf(ErrIncomplete, "%s: received %d of %d bytes", offer.FileName, received, offer.Size)
			}
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				return received, errors.Wrapf(ErrIncomplete, "%s: stalled after %s", offer.FileName, humanize.Bytes(uint64(received)))
			}
			return received, errors.Wrapf(ErrIncomplete, "%s: %v", offer.FileName, err)
		}
	}

	if r.verbose {
		r.logProgress(offer, received, started)
	}

	return received, nil
}

func (r *receiver) logProgress(offer Offer, received int64, started time.Time) {
	elapsed := time.Since(started).Seconds()
	var rate uint64
	if elapsed > 0 {
		rate = uint64(float64(received) / elapsed)
	}

	ev := r.log.Info().
		Str("file", offer.FileName).
		Str("received", humanize.Bytes(uint64(received))).
		Str("speed", humanize.Bytes(rate)+"/s")
	if offer.Size > 0 {
		ev = ev.Str("size", humanize.Bytes(uint64(offer.Size))).
			Float64("percent", float64(received)*100/float64(offer.Size))
	}
	ev.Msg("progress")
}
