package bot

import (
	"context"
	"fmt"
	"strings"
	"vidgate/internal/media"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

func (t *TgBot) start(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id

	if !t.core.Allowed(context.Background(), chatId) {
		t.sendWithKeyboard(chatId,
			"To use the bot, subscribe to our channels:",
			t.buildSubscriptionKeyboard())
		return nil
	}

	t.plainResponse(chatId,
		"*Welcome to the video bot\\!*\n\n"+
			"Send a video link from a supported platform:\n"+
			"YouTube, TikTok, Instagram, VK, Dailymotion, Vimeo\n\n"+
			"*Examples:*\n"+
			"• YouTube: https://youtube\\.com/watch?v\\=\\.\\.\\.\n"+
			"• TikTok: https://tiktok\\.com/@user/video/123\\.\\.\\.\n"+
			"• Instagram: https://instagram\\.com/p/\\.\\.\\.")
	return nil
}

func (t *TgBot) help(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	t.plainResponse(chatId,
		"Send a video link and pick a quality\\.\n\n"+
			"/quota — downloads left today\n"+
			"/help — this message\n\n"+
			"*Supported:* YouTube, TikTok, Instagram, VK, Dailymotion, Vimeo\\.\n"+
			"Home pages, profiles and search links are not accepted\\.")
	return nil
}

func (t *TgBot) quotaCmd(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	remaining := t.core.Remaining(chatId)
	if remaining == 0 {
		t.plainResponse(chatId, fmt.Sprintf(
			"Daily limit reached\\. Resets in %s\\.",
			Sanitize(formatDuration(t.core.QuotaResetIn()))))
		return nil
	}
	t.plainResponse(chatId, fmt.Sprintf("Downloads left today: *%d*", remaining))
	return nil
}

// statsCmd reports usage analytics and current load. Admin only.
func (t *TgBot) statsCmd(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	if chatId != t.config.AdminId {
		return nil
	}

	summary := t.core.Summary()
	load := t.core.LoadSnapshot()

	var sb strings.Builder
	sb.WriteString("*Usage*\n")
	sb.WriteString(fmt.Sprintf("Users: %d \\(subscribed: %d, %s%%\\)\n",
		summary.TotalUsers, summary.SubscribedUsers,
		Sanitize(fmt.Sprintf("%.1f", summary.SubscriptionRate))))
	sb.WriteString(fmt.Sprintf("Active today: %d\n", summary.ActiveUsersToday))
	sb.WriteString(fmt.Sprintf("Downloads today: %d, total: %d\n",
		summary.TodayDownloads, summary.TotalDownloads))
	sb.WriteString(fmt.Sprintf("Load: %d/%d slots\n", load.Active, load.Max))

	t.plainResponse(chatId, sb.String())
	return nil
}

// onMessage treats any plain text as a potential video link.
func (t *TgBot) onMessage(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	text := strings.TrimSpace(ctx.EffectiveMessage.Text)
	if text == "" || strings.HasPrefix(text, "/") {
		return nil
	}

	url, ok := media.Normalize(text)
	if !ok {
		t.plainResponse(chatId,
			"*Invalid link\\!*\n\n"+
				"*Supported formats:*\n"+
				"• YouTube: https://youtube\\.com/watch?v\\=\\.\\.\\.\n"+
				"• TikTok: https://tiktok\\.com/@user/video/123\\.\\.\\.\n"+
				"• Instagram: https://instagram\\.com/p/\\.\\.\\.\n\n"+
				"*Not accepted:* home pages, profiles, search\\.")
		return nil
	}

	token, err := t.core.Submit(context.Background(), chatId, url)
	if err != nil {
		t.sendWithKeyboard(chatId,
			"*Access denied\\!*\n\nSubscribe to all channels to use the bot:",
			t.buildSubscriptionKeyboard())
		return nil
	}

	qualities := t.prober.Qualities(context.Background(), url)
	t.sendWithKeyboard(chatId,
		"*Pick the video quality:*",
		buildQualityKeyboard(token, qualities))
	return nil
}
