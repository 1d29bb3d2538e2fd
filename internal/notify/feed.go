// Package notify turns flow outcomes into operator-visible notices.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fairyhunter13/product-catalog-editor/internal/obs"
)

// Level of a notice.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notice is one message shown to the operator.
type Notice struct {
	Seq     uint64    `json:"seq"`
	Flow    string    `json:"flow"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Detail  string    `json:"detail,omitempty"`
	At      time.Time `json:"at"`
}

// Feed keeps the most recent notices for polling.
type Feed struct {
	seq Sequencer
	max int
	log *slog.Logger

	mu  sync.Mutex
	buf []Notice
}

// NewFeed returns a Feed keeping at most backlog notices.
func NewFeed(backlog int, log *slog.Logger) *Feed {
	if backlog <= 0 {
		backlog = 100
	}
	if log == nil {
		log = obs.Logger
	}
	return &Feed{max: backlog, log: log}
}

// Notify stamps n and appends it, dropping the oldest notice when full.
func (f *Feed) Notify(n Notice) {
	if n.At.IsZero() {
		n.At = time.Now().UTC()
	}
	f.mu.Lock()
	n.Seq = f.seq.Next()
	f.buf = append(f.buf, n)
	if over := len(f.buf) - f.max; over > 0 {
		f.buf = append([]Notice(nil), f.buf[over:]...)
	}
	f.mu.Unlock()

	lvl := slog.LevelInfo
	if n.Level == LevelError {
		lvl = slog.LevelWarn
	}
	f.log.Log(context.Background(), lvl, "notice", "seq", n.Seq, "flow", n.Flow, "message", n.Message, "detail", n.Detail)
}

// Since returns the notices with a sequence greater than seq, oldest first.
func (f *Feed) Since(seq uint64) []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []Notice{}
	for _, n := range f.buf {
		if n.Seq > seq {
			out = append(out, n)
		}
	}
	return out
}

// Last returns the newest notice.
func (f *Feed) Last() (Notice, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.buf) == 0 {
		return Notice{}, false
	}
	return f.buf[len(f.buf)-1], true
}

// Cursor returns the sequence of the newest notice ever issued.
func (f *Feed) Cursor() uint64 { return f.seq.Current() }
