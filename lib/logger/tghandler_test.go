package logger

import (
	"io"
	"log/slog"
	"strings"
	"testing"
)

type stubNotifier struct {
	messages []string
	onNotify func(msg string)
}

func (s *stubNotifier) NotifyAdmin(msg string) {
	s.messages = append(s.messages, msg)
	if s.onNotify != nil {
		s.onNotify(msg)
	}
}

func newTestHandler(minLevel slog.Level) *TelegramHandler {
	base := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewTelegramHandler(base, minLevel)
}

func TestTelegramHandlerForwardsErrors(t *testing.T) {
	handler := newTestHandler(slog.LevelError)
	notifier := &stubNotifier{}
	handler.SetBot(notifier)
	log := slog.New(handler)

	log.Error("fetch failed", slog.String("url", "https://example.com/v"))

	if len(notifier.messages) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.messages))
	}
	msg := notifier.messages[0]
	if !strings.Contains(msg, "ERROR") || !strings.Contains(msg, "fetch failed") {
		t.Fatalf("notification missing level or message: %q", msg)
	}
	if !strings.Contains(msg, "url") {
		t.Fatalf("notification missing record attr: %q", msg)
	}
}

func TestTelegramHandlerLevelFilter(t *testing.T) {
	handler := newTestHandler(slog.LevelError)
	notifier := &stubNotifier{}
	handler.SetBot(notifier)
	log := slog.New(handler)

	log.Info("bot started")
	log.Warn("journal write failed")

	if len(notifier.messages) != 0 {
		t.Fatalf("records below the threshold were forwarded: %v", notifier.messages)
	}
}

func TestTelegramHandlerNoNotifier(t *testing.T) {
	handler := newTestHandler(slog.LevelError)
	log := slog.New(handler)

	// Must not panic before SetBot.
	log.Error("startup failure")
}

func TestTelegramHandlerClonesShareNotifier(t *testing.T) {
	handler := newTestHandler(slog.LevelError)
	// Derived before the bot exists, as module loggers are in main.
	child := slog.New(handler).With(slog.String("mod", "fetch")).WithGroup("engine")

	notifier := &stubNotifier{}
	handler.SetBot(notifier)

	child.Error("probe failed")

	if len(notifier.messages) != 1 {
		t.Fatalf("expected the derived logger to forward, got %d messages", len(notifier.messages))
	}
	msg := notifier.messages[0]
	if !strings.Contains(msg, "engine.probe failed") {
		t.Fatalf("group prefix missing: %q", msg)
	}
	if !strings.Contains(msg, "mod") || !strings.Contains(msg, "fetch") {
		t.Fatalf("WithAttrs attr missing: %q", msg)
	}
}

func TestTelegramHandlerSendFailureDoesNotRecurse(t *testing.T) {
	handler := newTestHandler(slog.LevelError)
	log := slog.New(handler)

	// A notifier whose delivery fails and reports the failure through the
	// same logger, as plainResponse does when the admin chat rejects sends.
	notifier := &stubNotifier{}
	notifier.onNotify = func(string) {
		log.Error("sending safe message")
	}
	handler.SetBot(notifier)

	log.Error("download failed")

	if len(notifier.messages) != 1 {
		t.Fatalf("expected a single bounded notification attempt, got %d", len(notifier.messages))
	}
}
