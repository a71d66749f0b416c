// Package notify carries user-facing messages (toasts) out of the client
// layers. The gateway drains them for the UI; the CLI prints them.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Level of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notification is one message for the user.
type Notification struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier receives user-facing messages.
type Notifier interface {
	Notify(level Level, message string)
}

// Func adapts a function to Notifier.
type Func func(level Level, message string)

func (f Func) Notify(level Level, message string) { f(level, message) }

// Discard drops every message.
var Discard Notifier = Func(func(Level, string) {})

// Log writes notifications to a structured logger.
type Log struct{ Logger *slog.Logger }

func (l Log) Notify(level Level, message string) {
	lvl := slog.LevelInfo
	if level == LevelError {
		lvl = slog.LevelWarn
	}
	l.Logger.Log(context.Background(), lvl, "notification",
		slog.String("level", string(level)),
		slog.String("message", message),
	)
}

// Buffer keeps the most recent notifications until drained.
type Buffer struct {
	mu    sync.Mutex
	items []Notification
	limit int
	now   func() time.Time
}

// NewBuffer keeps at most limit pending notifications (oldest dropped).
func NewBuffer(limit int) *Buffer {
	if limit <= 0 {
		limit = 50
	}
	return &Buffer{limit: limit, now: time.Now}
}

func (b *Buffer) Notify(level Level, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items = append(b.items, Notification{Level: level, Message: message, At: b.now()})
	if over := len(b.items) - b.limit; over > 0 {
		b.items = append([]Notification(nil), b.items[over:]...)
	}
}

// Drain returns and clears pending notifications, oldest first.
func (b *Buffer) Drain() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.items
	b.items = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}

// Multi fans out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(level Level, message string) {
	for _, n := range m {
		if n != nil {
			n.Notify(level, message)
		}
	}
}
