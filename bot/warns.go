package bot

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	t "github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// warnHandler records a warning. Reaching the chat's warn limit bans the
// user and resets their counter so a later unban starts from a clean slate.
func (b *Bot) warnHandler(c *Context) error {
	target, reasonArgs, ok := extractTargetUser(c)
	if !ok {
		return c.Reply("Reply to a message or pass @username or a user ID to warn.")
	}
	if err := b.resolveTargetID(target); err != nil {
		return c.Replyf("Cannot find that user: %v", err)
	}
	if target.ID == b.me.ID {
		return c.Reply("No, I will not warn myself.")
	}

	admin, err := b.isChatAdmin(c.Chat(), target.ID)
	if err != nil {
		return err
	}
	if admin {
		return c.Reply("I cannot warn an administrator.")
	}

	chatID := c.Chat().ID
	reason := strings.Join(reasonArgs, " ")

	count, err := b.store.AddWarn(c.Ctx(), chatID, target.ID, reason)
	if err != nil {
		return err
	}

	limit, err := b.store.WarnLimit(c.Ctx(), chatID)
	if err != nil {
		return err
	}

	if count >= limit {
		banErr := b.api.BanChatMember(&t.BanChatMemberParams{
			ChatID: tu.ID(chatID),
			UserID: target.ID,
		})
		if banErr != nil {
			return c.Replyf("%s reached %d warnings but I failed to ban them: %v",
				target.Name, count, banErr)
		}

		if resetErr := b.store.ResetWarns(c.Ctx(), chatID, target.ID); resetErr != nil {
			slog.Error("Cannot reset warnings after ban", "chat_id", chatID, "user_id", target.ID, "error", resetErr)
		}

		slog.Info("User banned at warn limit", "chat_id", chatID, "user_id", target.ID, "limit", limit)
		b.logToChannel(c, fmt.Sprintf("Banned %s in %s: reached %d warnings", target.Name, c.Chat().Title, limit))

		return c.Replyf("That was %d/%d warnings. %s has been banned.", count, limit, target.Name)
	}

	if reason != "" {
		return c.Replyf("Warned %s (%d/%d). Reason: %s", target.Name, count, limit, reason)
	}
	return c.Replyf("Warned %s (%d/%d).", target.Name, count, limit)
}

func (b *Bot) rmWarnHandler(c *Context) error {
	target, _, ok := extractTargetUser(c)
	if !ok {
		return c.Reply("Reply to a message or pass @username or a user ID.")
	}
	if err := b.resolveTargetID(target); err != nil {
		return c.Replyf("Cannot find that user: %v", err)
	}

	removed, err := b.store.RemoveWarn(c.Ctx(), c.Chat().ID, target.ID)
	if err != nil {
		return err
	}
	if !removed {
		return c.Replyf("%s has no warnings.", target.Name)
	}

	return c.Replyf("Removed one warning from %s.", target.Name)
}

func (b *Bot) resetWarnsHandler(c *Context) error {
	target, _, ok := extractTargetUser(c)
	if !ok {
		return c.Reply("Reply to a message or pass @username or a user ID.")
	}
	if err := b.resolveTargetID(target); err != nil {
		return c.Replyf("Cannot find that user: %v", err)
	}

	if err := b.store.ResetWarns(c.Ctx(), c.Chat().ID, target.ID); err != nil {
		return err
	}

	return c.Replyf("Warnings for %s have been reset.", target.Name)
}

// warnsHandler shows the caller's own warnings, or the target's when one is
// given. Reading warnings needs no admin rights.
func (b *Bot) warnsHandler(c *Context) error {
	target, _, ok := extractTargetUser(c)
	if !ok {
		sender := c.Sender()
		if sender == nil {
			return nil
		}
		target = &targetUser{ID: sender.ID, Name: displayName(sender)}
	}
	if err := b.resolveTargetID(target); err != nil {
		return c.Replyf("Cannot find that user: %v", err)
	}

	count, reasons, err := b.store.Warns(c.Ctx(), c.Chat().ID, target.ID)
	if err != nil {
		return err
	}

	limit, err := b.store.WarnLimit(c.Ctx(), c.Chat().ID)
	if err != nil {
		return err
	}

	if count == 0 {
		return c.Replyf("%s has no warnings.", target.Name)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s has %d/%d warnings.", target.Name, count, limit)
	if len(reasons) > 0 {
		sb.WriteString("\nReasons:")
		for _, r := range reasons {
			sb.WriteString("\n- ")
			sb.WriteString(r)
		}
	}

	return c.Reply(sb.String())
}

func (b *Bot) setWarnLimitHandler(c *Context) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Reply("Usage: /setwarnlimit <number>")
	}

	limit, err := strconv.Atoi(args[0])
	if err != nil || limit < 1 {
		return c.Reply("The warn limit must be a positive number.")
	}

	if err := b.store.SetWarnLimit(c.Ctx(), c.Chat().ID, limit); err != nil {
		return err
	}

	return c.Replyf("Users will now be banned after %d warnings.", limit)
}
