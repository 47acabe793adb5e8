package bot

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

func (b *Bot) addBlacklistHandler(c *Context) error {
	text := c.ArgText()
	if text == "" {
		return c.Reply("Usage: /addblacklist <trigger>\nSeveral triggers can be given one per line.")
	}

	added := 0
	for _, line := range strings.Split(text, "\n") {
		trigger := strings.ToLower(strings.TrimSpace(line))
		if trigger == "" {
			continue
		}
		if err := b.store.AddBlacklistTrigger(c.Ctx(), c.Chat().ID, trigger); err != nil {
			return err
		}
		added++
	}

	if added == 0 {
		return c.Reply("Nothing to blacklist.")
	}
	if added == 1 {
		return c.Reply("Added 1 trigger to the blacklist.")
	}
	return c.Replyf("Added %d triggers to the blacklist.", added)
}

func (b *Bot) rmBlacklistHandler(c *Context) error {
	text := c.ArgText()
	if text == "" {
		return c.Reply("Usage: /rmblacklist <trigger>")
	}

	removed := 0
	for _, line := range strings.Split(text, "\n") {
		trigger := strings.ToLower(strings.TrimSpace(line))
		if trigger == "" {
			continue
		}
		ok, err := b.store.RemoveBlacklistTrigger(c.Ctx(), c.Chat().ID, trigger)
		if err != nil {
			return err
		}
		if ok {
			removed++
		}
	}

	if removed == 0 {
		return c.Reply("None of those triggers were blacklisted.")
	}
	return c.Replyf("Removed %d trigger(s) from the blacklist.", removed)
}

func (b *Bot) blacklistHandler(c *Context) error {
	triggers, err := b.store.BlacklistTriggers(c.Ctx(), c.Chat().ID)
	if err != nil {
		return err
	}

	if len(triggers) == 0 {
		return c.Reply("The blacklist is empty.")
	}

	var sb strings.Builder
	sb.WriteString("Blacklisted triggers:")
	for _, trigger := range triggers {
		sb.WriteString("\n- ")
		sb.WriteString(trigger)
	}

	return c.Reply(sb.String())
}

// blacklistScanHandler deletes messages containing a blacklisted trigger as
// a whole word. Admin messages are exempt. A hit consumes the update.
func (b *Bot) blacklistScanHandler(c *Context) error {
	msg := c.Message()
	if msg.Text == "" || msg.From == nil {
		return nil
	}

	triggers, err := b.store.BlacklistTriggers(c.Ctx(), c.Chat().ID)
	if err != nil {
		return err
	}
	if len(triggers) == 0 {
		return nil
	}

	trigger, matched := matchBlacklist(msg.Text, triggers)
	if !matched {
		return nil
	}

	admin, err := b.isChatAdmin(c.Chat(), msg.From.ID)
	if err != nil {
		return err
	}
	if admin {
		return nil
	}

	if err := c.DeleteMessage(); err != nil {
		slog.Error("Cannot delete blacklisted message", "chat_id", c.Chat().ID, "error", err)
		return err
	}

	slog.Info("Blacklisted message deleted",
		"chat_id", c.Chat().ID, "user_id", msg.From.ID, "trigger", trigger)

	return ErrStopPropagation
}

// matchBlacklist reports the first trigger appearing in text as a whole
// word. Matching is case-insensitive; word boundaries are non-word
// characters or the ends of the text, so "spam" does not match "spammer".
func matchBlacklist(text string, triggers []string) (string, bool) {
	for _, trigger := range triggers {
		pattern := fmt.Sprintf(`(?i)( |^|[^\w])%s( |$|[^\w])`, regexp.QuoteMeta(trigger))
		re, err := regexp.Compile(pattern)
		if err != nil {
			continue
		}
		if re.MatchString(text) {
			return trigger, true
		}
	}
	return "", false
}
