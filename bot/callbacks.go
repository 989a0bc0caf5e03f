package bot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"vidgate/internal/coordinator"
	"vidgate/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

// Callback data prefixes for inline keyboard buttons.
// Telegram limits callback data to 64 bytes; full URLs do not fit, which is
// why quality buttons carry an 8-character vault token instead.
// Format: "q:<height>:<token>", e.g. "q:720:a1b2c3d4".
const (
	cbQuality = "q:"
	cbVerify  = "sub"
)

// --- Keyboard builders ---

// buildSubscriptionKeyboard lists join links for every required channel plus
// a verification button.
func (t *TgBot) buildSubscriptionKeyboard() tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(t.config.Channels)+1)
	for _, channel := range t.config.Channels {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			{Text: "🔔 @" + channel.Tag, Url: channel.Link()},
		})
	}
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		{Text: "✅ I subscribed", CallbackData: cbVerify},
	})
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// buildQualityKeyboard creates quality buttons in rows of two.
func buildQualityKeyboard(token string, qualities []int) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for i, quality := range qualities {
		row = append(row, tgbotapi.InlineKeyboardButton{
			Text:         fmt.Sprintf("%dp", quality),
			CallbackData: fmt.Sprintf("%s%d:%s", cbQuality, quality, token),
		})
		if len(row) == 2 || i == len(qualities)-1 {
			rows = append(rows, row)
			row = nil
		}
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// --- Callback handlers ---

// onVerifyCallback handles the "I subscribed" button. It forces a fresh
// membership check so a cached denial cannot block a user who just joined.
func (t *TgBot) onVerifyCallback(_ *tgbotapi.Bot, ctx *ext.Context) error {
	cq := ctx.CallbackQuery

	if t.core.Refresh(context.Background(), cq.From.Id) {
		t.editMessage(cq, "✅ *Subscription confirmed\\!*\n\nSend a video link:")
		_, _ = cq.Answer(t.api, nil)
		return nil
	}

	_, _ = cq.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{
		Text:      "❌ You are not subscribed to all channels!",
		ShowAlert: true,
	})
	return nil
}

// onQualityCallback drives the actual download for a quality selection.
func (t *TgBot) onQualityCallback(_ *tgbotapi.Bot, ctx *ext.Context) error {
	cq := ctx.CallbackQuery
	chatId := cq.From.Id

	parts := strings.SplitN(strings.TrimPrefix(cq.Data, cbQuality), ":", 2)
	if len(parts) != 2 {
		_, _ = cq.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{Text: "Invalid selection"})
		return nil
	}
	height, err := strconv.Atoi(parts[0])
	if err != nil {
		_, _ = cq.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{Text: "Invalid selection"})
		return nil
	}
	token := parts[1]

	_, _ = cq.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{Text: "⏳ Starting download..."})
	t.editMessage(cq, fmt.Sprintf("🔄 *Downloading %dp video\\.\\.\\.*", height))

	result, err := t.core.Download(context.Background(), chatId, token, height)
	if err != nil {
		t.reportDownloadError(cq, chatId, err)
		return nil
	}
	defer result.Discard()

	if err := t.sendVideo(chatId, result); err != nil {
		t.log.Error("sending video", sl.Err(err))
		t.editMessage(cq, "❌ Failed to deliver the video\\. Please try again\\.")
		return nil
	}
	t.editMessage(cq, fmt.Sprintf("✅ Video %dp delivered\\!", height))
	return nil
}

// reportDownloadError maps a coordinator error kind to the user-facing text.
// Transient conditions (busy, quota) cost the user nothing but time.
func (t *TgBot) reportDownloadError(cq *tgbotapi.CallbackQuery, chatId int64, err error) {
	switch {
	case errors.Is(err, coordinator.ErrTokenNotFound):
		t.editMessage(cq, "⌛ Session expired\\. Send the link again\\.")
	case errors.Is(err, coordinator.ErrGateDenied):
		t.editMessage(cq, "❌ You unsubscribed from the channels\\!")
	case errors.Is(err, coordinator.ErrQuotaExceeded):
		t.editMessage(cq, fmt.Sprintf(
			"🚫 Daily limit reached\\. Resets in %s\\.",
			Sanitize(formatDuration(t.core.QuotaResetIn()))))
	case errors.Is(err, coordinator.ErrSystemBusy):
		t.editMessage(cq, "⏳ All download slots are busy\\. Try again in a minute\\.")
	case errors.Is(err, coordinator.ErrOversize):
		t.editMessage(cq, "❌ The video exceeds the file size limit\\. Try a lower quality\\.")
	default:
		t.editMessage(cq, "❌ Download failed\\. Please try again later\\.")
		t.notifyAdmin(fmt.Sprintf(
			"Download failed for user `%d`:\n```error %s ```",
			chatId, Sanitize(err.Error())))
	}
}

func (t *TgBot) sendVideo(chatId int64, result *coordinator.Result) error {
	file, err := os.Open(result.Path)
	if err != nil {
		return fmt.Errorf("opening result file: %w", err)
	}
	defer func() { _ = file.Close() }()

	_, err = t.api.SendVideo(chatId,
		tgbotapi.InputFileByReader(filepath.Base(result.Path), file),
		&tgbotapi.SendVideoOpts{
			Caption:           fmt.Sprintf("✅ Video %dp downloaded!", result.Height),
			SupportsStreaming: true,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Minute,
			},
		})
	return err
}

// editTarget resolves the chat and message the callback button is attached
// to. The message's own chat id is used, not the sender's: they differ
// outside private chats.
func editTarget(cq *tgbotapi.CallbackQuery) (int64, int64, bool) {
	msg := cq.Message
	if msg == nil {
		return 0, 0, false
	}
	im, ok := msg.(tgbotapi.Message)
	if !ok {
		return 0, 0, false
	}
	return im.Chat.Id, im.MessageId, true
}

// editMessage updates the message the callback button was attached to.
func (t *TgBot) editMessage(cq *tgbotapi.CallbackQuery, text string) {
	chatId, messageId, ok := editTarget(cq)
	if !ok {
		return
	}
	_, _, err := t.api.EditMessageText(text, &tgbotapi.EditMessageTextOpts{
		ChatId:    chatId,
		MessageId: messageId,
		ParseMode: "MarkdownV2",
	})
	if err != nil {
		// Fallback: try without markdown
		_, _, _ = t.api.EditMessageText(text, &tgbotapi.EditMessageTextOpts{
			ChatId:    chatId,
			MessageId: messageId,
		})
	}
}
