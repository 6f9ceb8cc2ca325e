package xdcc

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSender accepts one connection and hands it to serve.
func fakeSender(t *testing.T, serve func(conn net.Conn)) Offer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		serve(conn)
	}()

	return Offer{
		From: "bot",
		IP:   net.IPv4(127, 0, 0, 1),
		Port: ln.Addr().(*net.TCPAddr).Port,
	}
}

func newTestReceiver(t *testing.T, timeout time.Duration) *receiver {
	return &receiver{dir: t.TempDir(), timeout: timeout, verbose: true, log: zerolog.Nop()}
}

func TestReceiver_Complete(t *testing.T) {
	content := []byte("%PDF-1.4 not really a pdf")
	acks := make(chan uint32, 16)

	offer := fakeSender(t, func(conn net.Conn) {
		conn.Write(content)
		buf := make([]byte, 4)
		for {
			if _, err := io.ReadFull(conn, buf); err != nil {
				close(acks)
				return
			}
			acks <- binary.BigEndian.Uint32(buf)
		}
	})
	offer.FileName = "doc.pdf"
	offer.Size = int64(len(content))

	r := newTestReceiver(t, time.Second)
	info, err := r.receive(context.Background(), offer)
	require.NoError(t, err)

	assert.Equal(t, "doc.pdf", info.File)
	assert.Equal(t, filepath.Join(r.dir, "doc.pdf"), info.FilePath)
	assert.Equal(t, int64(len(content)), info.Length)
	assert.Equal(t, "application/pdf", info.Type)

	data, err := os.ReadFile(info.FilePath)
	require.NoError(t, err)
	assert.Equal(t, content, data)

	var last uint32
	for ack := range acks {
		last = ack
	}
	assert.Equal(t, uint32(len(content)), last)

	_, err = os.Stat(info.FilePath + partSuffix)
	assert.True(t, os.IsNotExist(err))
}

func TestReceiver_ShortTransfer(t *testing.T) {
	offer := fakeSender(t, func(conn net.Conn) {
		conn.Write([]byte("half"))
	})
	offer.FileName = "short.bin"
	offer.Size = 8

	r := newTestReceiver(t, time.Second)
	_, err := r.receive(context.Background(), offer)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIncomplete))

	entries, err := os.ReadDir(r.dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "partial file should be removed")
}

func TestReceiver_Stalled(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	offer := fakeSender(t, func(conn net.Conn) {
		conn.Write([]byte("some"))
		<-release
	})
	offer.FileName = "stalled.bin"
	offer.Size = 1024

	r := newTestReceiver(t, 100*time.Millisecond)
	_, err := r.receive(context.Background(), offer)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIncomplete))
}

func TestReceiver_Cancelled(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	offer := fakeSender(t, func(conn net.Conn) {
		<-release
	})
	offer.FileName = "cancelled.bin"
	offer.Size = 1024

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	r := newTestReceiver(t, 5*time.Second)
	_, err := r.receive(ctx, offer)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestReceiver_Passive(t *testing.T) {
	r := newTestReceiver(t, time.Second)
	_, err := r.receive(context.Background(), Offer{FileName: "x", IP: net.IPv4(127, 0, 0, 1), Port: 0})
	assert.Equal(t, ErrPassiveDCC, err)
}
