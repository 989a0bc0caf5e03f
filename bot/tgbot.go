// Package bot implements the Telegram front end of the video download
// service.
//
// Architecture overview:
//   - tgbot.go      — TgBot struct, lifecycle (Start/Stop), handler wiring
//   - commands.go   — User commands: /start, /help, /quota; admin /stats
//   - callbacks.go  — Inline keyboards and callback handlers (verify, quality)
//   - membership.go — MemberGate: channel membership checks via GetChatMember
//   - helpers.go    — Sanitize, plainResponse, sendWithKeyboard, admin notify
//
// Data flow for a download: text message → URL normalize → Coordinator.Submit
// (subscription gate, token issue) → quality keyboard → "q:" callback →
// Coordinator.Download (quota, admission, fetch) → SendVideo → discard file.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"vidgate/entity"
	"vidgate/internal/coordinator"
	"vidgate/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/callbackquery"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/message"
)

// BotConfig holds the Telegram-specific configuration.
type BotConfig struct {
	AdminId  int64
	Channels []entity.Channel
}

// QualityProber reports which vertical resolutions a URL offers.
// Implemented by the fetch engine.
type QualityProber interface {
	Qualities(ctx context.Context, url string) []int
}

// TgBot is the central Telegram bot instance. All session, quota and
// analytics state lives in the coordinator; the bot only translates updates
// into coordinator calls and results into messages.
type TgBot struct {
	log     *slog.Logger
	api     *tgbotapi.Bot
	core    *coordinator.Coordinator
	prober  QualityProber
	updater *ext.Updater
	config  BotConfig
}

func NewTgBot(api *tgbotapi.Bot, core *coordinator.Coordinator, prober QualityProber, log *slog.Logger, cfg BotConfig) *TgBot {
	return &TgBot{
		log:    log.With(sl.Module("tgbot")),
		api:    api,
		core:   core,
		prober: prober,
		config: cfg,
	}
}

func (t *TgBot) Start() error {
	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(b *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			t.log.Error("handling update:", sl.Err(err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	t.updater = ext.NewUpdater(dispatcher, nil)

	// Commands must register before the plain text handler: within one
	// dispatcher group only the first matching handler runs.
	dispatcher.AddHandler(handlers.NewCommand("start", t.start))
	dispatcher.AddHandler(handlers.NewCommand("help", t.help))
	dispatcher.AddHandler(handlers.NewCommand("quota", t.quotaCmd))
	dispatcher.AddHandler(handlers.NewCommand("stats", t.statsCmd))

	dispatcher.AddHandler(handlers.NewMessage(message.Text, t.onMessage))

	dispatcher.AddHandler(handlers.NewCallback(callbackquery.Equal(cbVerify), t.onVerifyCallback))
	dispatcher.AddHandler(handlers.NewCallback(callbackquery.Prefix(cbQuality), t.onQualityCallback))

	err := t.updater.StartPolling(t.api, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}

	t.log.Info("bot started", slog.String("username", t.api.User.Username))
	t.updater.Idle()
	return nil
}

func (t *TgBot) Stop() {
	if t.updater != nil {
		t.log.Info("stopping telegram bot")
		t.updater.Stop()
	}
}
