package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"vidgate/bot"
	"vidgate/internal/config"
	"vidgate/internal/coordinator"
	"vidgate/internal/fetch"
	"vidgate/internal/http-server/api"
	"vidgate/internal/journal"
	"vidgate/lib/logger"
	"vidgate/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/lrstanley/go-ytdlp"
)

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)

	base := logger.SetupLogger(conf.Env, *logPath)
	tgHandler := logger.NewTelegramHandler(base.Handler(), slog.LevelError)
	log := slog.New(tgHandler)
	log.Info("starting vidgate", slog.String("config", *configPath), slog.String("env", conf.Env))

	// Make sure the yt-dlp binary is available before serving requests.
	ytdlp.MustInstall(context.Background(), nil)

	engine, err := fetch.New(conf.Downloads.Dir, conf.MaxFileSizeBytes(), log)
	if err != nil {
		log.Error("setting up fetch engine", sl.Err(err))
		os.Exit(1)
	}

	tgApi, err := tgbotapi.NewBot(conf.Telegram.ApiKey, nil)
	if err != nil {
		log.Error("creating telegram api instance", sl.Err(err))
		os.Exit(1)
	}

	var eventJournal coordinator.Journal
	if m := journal.New(conf); m != nil {
		eventJournal = m
		log.Info("download journal enabled", slog.String("database", conf.Mongo.Database))
	}

	core := coordinator.New(coordinator.Config{
		MaxConcurrent: conf.Downloads.MaxConcurrent,
		DailyLimit:    conf.Downloads.DailyLimit,
		CacheTTL:      conf.CacheTTL(),
		TokenTTL:      conf.TokenTTL(),
		FetchTimeout:  conf.FetchTimeout(),
		MaxFileSize:   conf.MaxFileSizeBytes(),
		Channels:      conf.Telegram.Channels,
	}, bot.NewMemberGate(tgApi, log), engine, eventJournal, log)
	core.Start()
	defer core.Stop()

	tgBot := bot.NewTgBot(tgApi, core, engine, log, bot.BotConfig{
		AdminId:  conf.Telegram.AdminId,
		Channels: conf.Telegram.Channels,
	})
	tgHandler.SetBot(tgBot)

	go func() {
		if err := api.New(conf, log, core); err != nil {
			log.Error("api server stopped", sl.Err(err))
		}
	}()

	if err := tgBot.Start(); err != nil {
		log.Error("starting bot", sl.Err(err))
		os.Exit(1)
	}
}
