package bot

import (
	"fmt"
	"log/slog"
	"strings"
)

func (b *Bot) setWelcomeHandler(c *Context) error {
	text := c.ArgText()
	if text == "" {
		return c.Reply("Usage: /setwelcome <message>\n{name} and {chat} are replaced when greeting.")
	}

	if err := b.store.SetWelcomeMessage(c.Ctx(), c.Chat().ID, text); err != nil {
		return err
	}

	return c.Reply("Welcome message updated.")
}

func (b *Bot) getWelcomeHandler(c *Context) error {
	enabled, custom, err := b.store.WelcomeSettings(c.Ctx(), c.Chat().ID)
	if err != nil {
		return err
	}

	state := "on"
	if !enabled {
		state = "off"
	}

	if custom == "" {
		return c.Replyf("Welcome messages are %s. The default greeting is used.", state)
	}
	return c.Replyf("Welcome messages are %s. Current message:\n%s", state, custom)
}

func (b *Bot) welcomeToggleHandler(c *Context) error {
	args := c.Args()
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		return c.Reply("Usage: /welcome on|off")
	}

	enabled := args[0] == "on"

	if err := b.store.SetWelcomeEnabled(c.Ctx(), c.Chat().ID, enabled); err != nil {
		return err
	}

	if enabled {
		return c.Reply("I will greet new members.")
	}
	return c.Reply("I will not greet new members.")
}

// newMembersHandler greets members joining the chat. The bot being added
// itself is not greeted.
func (b *Bot) newMembersHandler(c *Context) error {
	enabled, custom, err := b.store.WelcomeSettings(c.Ctx(), c.Chat().ID)
	if err != nil {
		return err
	}
	if !enabled {
		return nil
	}

	for _, member := range c.Message().NewChatMembers {
		if member.ID == b.me.ID {
			continue
		}

		var err error
		if greeting, ok := b.aiGreeting(c, displayName(&member)); ok {
			err = c.Reply(greeting)
		} else if custom == "" {
			// The default greeting mentions the member inline.
			err = c.ReplyMarkdown("Welcome, " + mentionMarkdown(member.ID, displayName(&member)) + "\\!")
		} else {
			err = c.Reply(renderWelcome(custom, displayName(&member), c.Chat().Title))
		}
		if err != nil {
			slog.Error("Cannot send welcome message", "chat_id", c.Chat().ID, "user_id", member.ID, "error", err)
		}
	}

	return nil
}

// aiGreeting asks the AI backend for a personalized greeting when AI replies
// are enabled in the chat. Any failure falls back to the static greeting.
func (b *Bot) aiGreeting(c *Context, name string) (string, bool) {
	if b.ai == nil {
		return "", false
	}

	enabled, prompt, err := b.store.AISettings(c.Ctx(), c.Chat().ID)
	if err != nil || !enabled {
		return "", false
	}
	if prompt == "" {
		prompt = defaultAIPrompt
	}

	request := fmt.Sprintf("Write a short, friendly welcome message for %s who just joined the group %q.",
		name, c.Chat().Title)

	greeting, err := b.ai.Complete(c.Ctx(), prompt, request)
	if err != nil {
		slog.Error("AI greeting failed", "chat_id", c.Chat().ID, "error", err)
		return "", false
	}

	return greeting, true
}

func renderWelcome(custom, name, chatTitle string) string {
	if custom == "" {
		return "Welcome, " + name + "!"
	}

	greeting := strings.ReplaceAll(custom, "{name}", name)
	greeting = strings.ReplaceAll(greeting, "{chat}", chatTitle)

	return greeting
}
