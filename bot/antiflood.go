package bot

import (
	"log/slog"
	"strconv"

	t "github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// floodCheckHandler counts consecutive messages per sender and bans at the
// limit. Admin messages reset the run instead of counting toward it.
func (b *Bot) floodCheckHandler(c *Context) error {
	msg := c.Message()
	if msg.From == nil {
		return nil
	}

	chatID := c.Chat().ID
	userID := msg.From.ID

	limit, err := b.store.FloodLimit(c.Ctx(), chatID)
	if err != nil {
		return err
	}
	if limit <= 0 {
		return nil
	}

	admin, err := b.isChatAdmin(c.Chat(), userID)
	if err != nil {
		return err
	}
	if admin {
		return b.store.ResetFlood(c.Ctx(), chatID)
	}

	breached, err := b.store.RecordFloodMessage(c.Ctx(), chatID, userID)
	if err != nil {
		return err
	}
	if !breached {
		return nil
	}

	banErr := b.api.BanChatMember(&t.BanChatMemberParams{
		ChatID: tu.ID(chatID),
		UserID: userID,
	})
	if banErr != nil {
		slog.Error("Cannot ban flooding user", "chat_id", chatID, "user_id", userID, "error", banErr)
		return banErr
	}

	slog.Info("User banned for flooding", "chat_id", chatID, "user_id", userID, "limit", limit)
	b.logToChannel(c, "Banned "+displayName(msg.From)+" in "+c.Chat().Title+" for flooding")

	_ = c.Replyf("%s was banned for flooding.", displayName(msg.From))

	return ErrStopPropagation
}

func (b *Bot) setFloodHandler(c *Context) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Reply("Usage: /setflood <number> (0 turns anti-flood off)")
	}

	limit, err := strconv.Atoi(args[0])
	if err != nil || limit < 0 {
		return c.Reply("The flood limit must be a non-negative number.")
	}

	if err := b.store.SetFloodLimit(c.Ctx(), c.Chat().ID, limit); err != nil {
		return err
	}

	if limit == 0 {
		return c.Reply("Anti-flood is now off.")
	}
	return c.Replyf("Users will now be banned after %d consecutive messages.", limit)
}

func (b *Bot) floodHandler(c *Context) error {
	limit, err := b.store.FloodLimit(c.Ctx(), c.Chat().ID)
	if err != nil {
		return err
	}

	if limit <= 0 {
		return c.Reply("Anti-flood is off in this chat.")
	}
	return c.Replyf("Anti-flood bans after %d consecutive messages.", limit)
}
