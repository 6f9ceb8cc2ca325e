package xdcc

import (
	"fmt"
	"strings"
)

type EventType int

const (
	EventReady EventType = iota
	EventDownloaded
	EventDone
	EventCanQuit
	EventError
)

func (t EventType) String() string {
	switch t {
	case EventReady:
		return "ready"
	case EventDownloaded:
		return "downloaded"
	case EventDone:
		return "done"
	case EventCanQuit:
		return "can-quit"
	case EventError:
		return "error"
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// Event is emitted by a Session. File is set for EventDownloaded, Job for
// EventDone and Err for EventError.
type Event struct {
	Type EventType
	File *FileInfo
	Job  *Job
	Err  error
}

// FileInfo describes a completed transfer.
type FileInfo struct {
	JobID    string
	Bot      string
	Pack     string
	File     string
	FilePath string
	Length   int64
	Type     string
}

// Job is a snapshot of the work requested from one bot.
type Job struct {
	ID      string
	Bot     string
	Queue   []string
	Success []string
	Failed  []string
}

func (j Job) String() string {
	return fmt.Sprintf("job %s bot=%s success=[%s] failed=[%s] queued=%d",
		j.ID, j.Bot, strings.Join(j.Success, ","), strings.Join(j.Failed, ","), len(j.Queue))
}

// PackError reports a pack that was skipped after all attempts.
type PackError struct {
	Bot  string
	Pack string
	Err  error
}

func (e *PackError) Error() string {
	return fmt.Sprintf("bot %s pack %s: %v", e.Bot, e.Pack, e.Err)
}

func (e *PackError) Unwrap() error { return e.Err }
