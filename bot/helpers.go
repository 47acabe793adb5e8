package bot

import (
	"fmt"
	"strconv"
	"strings"

	t "github.com/mymmrac/telego"
)

// targetUser identifies the user a moderation command acts on. Username is
// empty when the target was resolved from a reply or a numeric ID.
type targetUser struct {
	ID       int64
	Username string
	Name     string
}

// extractTargetUser resolves the target of a moderation command, preferring
// the replied-to message's author, then the first argument as @username or a
// numeric user ID. The remaining arguments are returned as the reason.
func extractTargetUser(c *Context) (*targetUser, []string, bool) {
	msg := c.Message()
	if msg == nil {
		return nil, nil, false
	}

	args := c.Args()

	if msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil {
		from := msg.ReplyToMessage.From
		return &targetUser{
			ID:       from.ID,
			Username: from.Username,
			Name:     displayName(from),
		}, args, true
	}

	if len(args) == 0 {
		return nil, nil, false
	}

	first := args[0]
	if strings.HasPrefix(first, "@") {
		username := strings.TrimPrefix(first, "@")
		if username == "" {
			return nil, nil, false
		}
		return &targetUser{Username: username, Name: "@" + username}, args[1:], true
	}

	id, err := strconv.ParseInt(first, 10, 64)
	if err != nil || id <= 0 {
		return nil, nil, false
	}

	return &targetUser{ID: id, Name: first}, args[1:], true
}

// resolveTargetID fills in the numeric ID for a username-only target by
// asking the Bot API about the chat behind the username.
func (b *Bot) resolveTargetID(target *targetUser) error {
	if target.ID != 0 {
		return nil
	}

	chat, err := b.api.GetChat(&t.GetChatParams{
		ChatID: t.ChatID{Username: "@" + target.Username},
	})
	if err != nil {
		return fmt.Errorf("cannot resolve @%s: %w", target.Username, err)
	}

	target.ID = chat.ID

	return nil
}

func displayName(user *t.User) string {
	if user == nil {
		return ""
	}
	if user.LastName != "" {
		return user.FirstName + " " + user.LastName
	}
	if user.FirstName != "" {
		return user.FirstName
	}
	if user.Username != "" {
		return "@" + user.Username
	}
	return strconv.FormatInt(user.ID, 10)
}

// mentionMarkdown formats an inline mention for MarkdownV2 messages.
func mentionMarkdown(userID int64, name string) string {
	return fmt.Sprintf("[%s](tg://user?id=%d)", escapeMarkdownV2(name), userID)
}

func parseInt64(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}

func escapeMarkdownV2(text string) string {
	specialChars := []string{
		"_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!", "&", "<",
	}

	for _, char := range specialChars {
		text = strings.ReplaceAll(text, char, "\\"+char)
	}
	return text
}
