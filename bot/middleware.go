package bot

import (
	"errors"
	"fmt"
	"log/slog"

	t "github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

var ErrNotAuthorized = errors.New("not authorized")

// isOwner reports whether the user is the configured owner or a sudo user.
func (b *Bot) isOwner(userID int64) bool {
	if userID == b.cfg.OwnerID {
		return true
	}
	_, ok := b.sudo[userID]
	return ok
}

// isChatAdmin reports whether the user is a creator or administrator of the
// chat. The owner and sudo users pass everywhere. In private chats everyone
// is their own admin.
func (b *Bot) isChatAdmin(chat t.Chat, userID int64) (bool, error) {
	if b.isOwner(userID) {
		return true, nil
	}
	if chat.Type == t.ChatTypePrivate {
		return true, nil
	}

	member, err := b.api.GetChatMember(&t.GetChatMemberParams{
		ChatID: tu.ID(chat.ID),
		UserID: userID,
	})
	if err != nil {
		return false, fmt.Errorf("cannot fetch chat member: %w", err)
	}

	status := member.MemberStatus()

	return status == t.MemberStatusCreator || status == t.MemberStatusAdministrator, nil
}

// isBotAdmin reports whether the bot itself is an administrator of the chat.
func (b *Bot) isBotAdmin(chat t.Chat) (bool, error) {
	if chat.Type == t.ChatTypePrivate {
		return true, nil
	}

	member, err := b.api.GetChatMember(&t.GetChatMemberParams{
		ChatID: tu.ID(chat.ID),
		UserID: b.me.ID,
	})
	if err != nil {
		return false, fmt.Errorf("cannot fetch own chat member: %w", err)
	}

	status := member.MemberStatus()

	return status == t.MemberStatusCreator || status == t.MemberStatusAdministrator, nil
}

// userAdmin admits only chat administrators. Everyone else gets a refusal
// reply and the handler never runs.
func (b *Bot) userAdmin(next Handler) Handler {
	return func(c *Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		admin, err := b.isChatAdmin(c.Chat(), sender.ID)
		if err != nil {
			slog.Error("Admin check failed", "chat_id", c.Chat().ID, "user_id", sender.ID, "error", err)
			return err
		}
		if !admin {
			_ = c.Reply("This command is restricted to chat administrators.")
			return ErrNotAuthorized
		}

		return next(c)
	}
}

// botAdmin runs the handler only when the bot has administrator rights in the
// chat, since the handler is about to call a privileged Bot API method.
func (b *Bot) botAdmin(next Handler) Handler {
	return func(c *Context) error {
		admin, err := b.isBotAdmin(c.Chat())
		if err != nil {
			slog.Error("Bot admin check failed", "chat_id", c.Chat().ID, "error", err)
			return err
		}
		if !admin {
			_ = c.Reply("I need administrator rights in this chat to do that.")
			return ErrNotAuthorized
		}

		return next(c)
	}
}

// ownerOnly admits only the configured owner and sudo users.
func (b *Bot) ownerOnly(next Handler) Handler {
	return func(c *Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}
		if !b.isOwner(sender.ID) {
			_ = c.Reply("This command is restricted to the bot owner.")
			return ErrNotAuthorized
		}

		return next(c)
	}
}
