package logger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"vidgate/bot"
)

// AdminNotifier delivers an operator message to the admin chat.
// Implemented by bot.TgBot; a test may substitute a stub.
type AdminNotifier interface {
	NotifyAdmin(msg string)
}

// tgTarget is shared by every clone of a TelegramHandler so that SetBot
// reaches loggers derived with With()/WithGroup() before the bot existed.
//
// The notifying flag is an in-flight guard: the bot logs its own send
// failures through this same handler, and without the guard a persistently
// failing admin chat would recurse Handle → NotifyAdmin → Handle without
// bound. While a notification is in flight, records are written to the
// underlying handler only.
type tgTarget struct {
	mu        sync.Mutex
	notifier  AdminNotifier
	minLevel  slog.Level
	notifying bool
}

// TelegramHandler is a slog.Handler that forwards records at or above the
// configured level to the bot admin chat. It is the operator notification
// channel: delivery is best-effort and never fails the logging call.
type TelegramHandler struct {
	handler slog.Handler
	target  *tgTarget
	attrs   []slog.Attr
	group   string
}

func NewTelegramHandler(handler slog.Handler, minLevel slog.Level) *TelegramHandler {
	return &TelegramHandler{
		handler: handler,
		target:  &tgTarget{minLevel: minLevel},
		attrs:   make([]slog.Attr, 0),
	}
}

// SetBot attaches the notifier once the bot is constructed. Records logged
// before that only reach the underlying handler.
func (h *TelegramHandler) SetBot(notifier AdminNotifier) {
	h.target.mu.Lock()
	defer h.target.mu.Unlock()
	h.target.notifier = notifier
}

// Enabled implements slog.Handler.Enabled
func (h *TelegramHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle implements slog.Handler.Handle
func (h *TelegramHandler) Handle(ctx context.Context, record slog.Record) error {
	err := h.handler.Handle(ctx, record)
	if err != nil {
		return err
	}

	if record.Level < h.target.minLevel {
		return nil
	}

	h.target.mu.Lock()
	notifier := h.target.notifier
	busy := h.target.notifying
	if notifier != nil && !busy {
		h.target.notifying = true
	}
	h.target.mu.Unlock()
	if notifier == nil || busy {
		return nil
	}
	defer func() {
		h.target.mu.Lock()
		h.target.notifying = false
		h.target.mu.Unlock()
	}()

	var msg string
	if h.group != "" {
		msg = fmt.Sprintf("*%s* `%s.%s`", record.Level.String(), h.group, record.Message)
	} else {
		msg = fmt.Sprintf("*%s* `%s`", record.Level.String(), record.Message)
	}

	for _, attr := range h.attrs {
		if attr.Key == "error" {
			msg += fmt.Sprintf("\n%s: ```error %v ```", attr.Key, attr.Value)
		} else {
			msg += bot.Sanitize(fmt.Sprintf("\n%s: %v", attr.Key, attr.Value))
		}
	}
	record.Attrs(func(attr slog.Attr) bool {
		msg += bot.Sanitize(fmt.Sprintf("\n%s: %v", attr.Key, attr.Value))
		return true
	})

	notifier.NotifyAdmin(msg)
	return nil
}

// WithAttrs implements slog.Handler.WithAttrs
func (h *TelegramHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)

	return &TelegramHandler{
		handler: h.handler.WithAttrs(attrs),
		target:  h.target,
		attrs:   newAttrs,
		group:   h.group,
	}
}

// WithGroup implements slog.Handler.WithGroup
func (h *TelegramHandler) WithGroup(name string) slog.Handler {
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}

	return &TelegramHandler{
		handler: h.handler.WithGroup(name),
		target:  h.target,
		attrs:   h.attrs,
		group:   group,
	}
}
