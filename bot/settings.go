package bot

import (
	"log/slog"
	"strconv"
)

func (b *Bot) setRulesHandler(c *Context) error {
	rules := c.ArgText()
	if rules == "" {
		return c.Reply("Usage: /setrules <text>")
	}

	if err := b.store.SetSetting(c.Ctx(), c.Chat().ID, "rules", rules); err != nil {
		return err
	}

	return c.Reply("Rules updated. Members can read them with /rules.")
}

func (b *Bot) rulesHandler(c *Context) error {
	rules, err := b.store.GetSetting(c.Ctx(), c.Chat().ID, "rules")
	if err != nil {
		return err
	}

	if rules == "" {
		return c.Reply("No rules have been set for this chat.")
	}
	return c.Reply(rules)
}

func (b *Bot) setLogHandler(c *Context) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Reply("Usage: /setlog <channel id>")
	}

	channelID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || channelID == 0 {
		return c.Reply("The channel ID must be a number, e.g. -1001234567890.")
	}

	if err := b.store.SetSetting(c.Ctx(), c.Chat().ID, "log_channel", args[0]); err != nil {
		return err
	}

	return c.Reply("Moderation actions in this chat will be reported to the log channel.")
}

func (b *Bot) unsetLogHandler(c *Context) error {
	removed, err := b.store.DeleteSetting(c.Ctx(), c.Chat().ID, "log_channel")
	if err != nil {
		return err
	}

	if !removed {
		return c.Reply("This chat has no log channel configured.")
	}
	return c.Reply("Log channel removed.")
}

// migrationHandler rewrites every chat-keyed row when Telegram upgrades a
// group to a supergroup and assigns it a new chat id.
func (b *Bot) migrationHandler(c *Context) error {
	oldID := c.Chat().ID
	newID := c.Message().MigrateToChatID

	if err := b.store.MigrateChat(c.Ctx(), oldID, newID); err != nil {
		slog.Error("Chat migration failed", "old_chat_id", oldID, "new_chat_id", newID, "error", err)
		return err
	}

	slog.Info("Chat migrated", "old_chat_id", oldID, "new_chat_id", newID)

	return ErrStopPropagation
}
