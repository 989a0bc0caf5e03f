package bot

import (
	"context"
	"log/slog"
	"vidgate/entity"
	"vidgate/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

// MemberGate answers channel membership queries against the Telegram API.
// It implements coordinator.MembershipChecker; the coordinator applies the
// fail-closed policy, the gate only translates statuses.
type MemberGate struct {
	api *tgbotapi.Bot
	log *slog.Logger
}

func NewMemberGate(api *tgbotapi.Bot, log *slog.Logger) *MemberGate {
	return &MemberGate{
		api: api,
		log: log.With(sl.Module("membergate")),
	}
}

func (g *MemberGate) IsChannelMember(_ context.Context, channelId int64, userId int64) (entity.MemberStatus, error) {
	member, err := g.api.GetChatMember(channelId, userId, nil)
	if err != nil {
		g.log.Warn("get chat member",
			slog.Int64("channel", channelId),
			sl.User(userId),
			sl.Err(err),
		)
		return entity.StatusOther, err
	}
	return entity.ParseMemberStatus(member.GetStatus()), nil
}
