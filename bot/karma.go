package bot

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const karmaCooldown = 30 * time.Second

var karmaVoteRe = regexp.MustCompile(`(?i)^\s*(\+1?|-1?|thanks|thank you|ty)\s*$`)

// karmaDelta maps vote messages to their karma change. Only exact matches
// count, so ordinary sentences never move karma.
func karmaDelta(text string) int {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "+", "+1", "thanks", "thank you", "ty":
		return 1
	case "-", "-1":
		return -1
	default:
		return 0
	}
}

// karmaVoteHandler applies a karma vote from a reply. Self-votes, votes for
// bots and votes inside the per-voter cooldown are ignored.
func (b *Bot) karmaVoteHandler(c *Context) error {
	msg := c.Message()
	if msg.From == nil || msg.ReplyToMessage == nil || msg.ReplyToMessage.From == nil {
		return nil
	}

	delta := karmaDelta(msg.Text)
	if delta == 0 {
		return nil
	}

	voter := msg.From
	recipient := msg.ReplyToMessage.From

	if recipient.ID == voter.ID || recipient.IsBot {
		return nil
	}

	if !b.karmaVoteAllowed(c.Chat().ID, voter.ID) {
		return nil
	}

	count, err := b.store.AdjustKarma(c.Ctx(), c.Chat().ID, recipient.ID, delta)
	if err != nil {
		return err
	}

	return c.Replyf("%s now has %d karma.", displayName(recipient), count)
}

// karmaVoteAllowed enforces one vote per voter per chat per cooldown window.
func (b *Bot) karmaVoteAllowed(chatID, voterID int64) bool {
	key := fmt.Sprintf("%d:%d", chatID, voterID)
	now := time.Now()

	b.karmaMu.Lock()
	defer b.karmaMu.Unlock()

	if last, ok := b.karmaLast[key]; ok && now.Sub(last) < karmaCooldown {
		return false
	}
	b.karmaLast[key] = now

	return true
}

func (b *Bot) karmaHandler(c *Context) error {
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

	count, err := b.store.Karma(c.Ctx(), c.Chat().ID, target.ID)
	if err != nil {
		return err
	}

	return c.Replyf("%s has %d karma.", target.Name, count)
}

func (b *Bot) karmaTopHandler(c *Context) error {
	top, err := b.store.KarmaTop(c.Ctx(), c.Chat().ID, 10)
	if err != nil {
		return err
	}

	if len(top) == 0 {
		return c.Reply("Nobody has karma in this chat yet.")
	}

	var sb strings.Builder
	sb.WriteString("Karma leaderboard:")
	for i, record := range top {
		fmt.Fprintf(&sb, "\n%d. user %d: %d", i+1, record.UserID, record.Count)
	}

	return c.Reply(sb.String())
}
