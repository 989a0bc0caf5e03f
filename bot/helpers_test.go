package bot

import (
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

func TestEditTarget(t *testing.T) {
	cq := &tgbotapi.CallbackQuery{
		From: tgbotapi.User{Id: 42},
		Message: tgbotapi.Message{
			MessageId: 7,
			Chat:      tgbotapi.Chat{Id: -1009876},
		},
	}

	chatId, messageId, ok := editTarget(cq)
	if !ok {
		t.Fatal("editTarget rejected a regular message")
	}
	if chatId != -1009876 {
		t.Fatalf("edit addressed to chat %d, want the message's chat -1009876", chatId)
	}
	if messageId != 7 {
		t.Fatalf("messageId = %d, want 7", messageId)
	}
}

func TestEditTargetNoMessage(t *testing.T) {
	cq := &tgbotapi.CallbackQuery{From: tgbotapi.User{Id: 42}}
	if _, _, ok := editTarget(cq); ok {
		t.Fatal("editTarget accepted a callback without a message")
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"1.5 MB (limit!)", "1\\.5 MB \\(limit\\!\\)"},
		{"a_b*c", "a\\_b\\*c"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := Sanitize(tc.in); got != tc.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{2*time.Hour + 13*time.Minute, "2h 13m"},
		{45 * time.Minute, "45m"},
		{30 * time.Second, "1m"},
		{0, "0m"},
	}
	for _, tc := range tests {
		if got := formatDuration(tc.d); got != tc.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}

func TestBuildQualityKeyboard(t *testing.T) {
	keyboard := buildQualityKeyboard("a1b2c3d4", []int{360, 720, 1080})

	if len(keyboard.InlineKeyboard) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(keyboard.InlineKeyboard))
	}
	if len(keyboard.InlineKeyboard[0]) != 2 || len(keyboard.InlineKeyboard[1]) != 1 {
		t.Fatal("expected rows of 2 then 1 buttons")
	}

	first := keyboard.InlineKeyboard[0][0]
	if first.Text != "360p" {
		t.Fatalf("unexpected button text %q", first.Text)
	}
	if first.CallbackData != "q:360:a1b2c3d4" {
		t.Fatalf("unexpected callback data %q", first.CallbackData)
	}

	for _, row := range keyboard.InlineKeyboard {
		for _, button := range row {
			if !strings.HasPrefix(button.CallbackData, cbQuality) {
				t.Fatalf("callback data %q missing the quality prefix", button.CallbackData)
			}
			if len(button.CallbackData) > 64 {
				t.Fatalf("callback data %q exceeds the Telegram 64-byte limit", button.CallbackData)
			}
		}
	}
}
