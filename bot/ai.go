package bot

import (
	"log/slog"
	"strings"
)

const defaultAIPrompt = "You are a helpful, concise assistant living in a Telegram group chat. " +
	"Answer briefly and stay on topic."

func (b *Bot) gaiHandler(c *Context) error {
	args := c.Args()
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		return c.Reply("Usage: /gai on|off")
	}

	if b.ai == nil {
		return c.Reply("No AI backend is configured.")
	}

	enabled := args[0] == "on"

	if err := b.store.SetAIEnabled(c.Ctx(), c.Chat().ID, enabled); err != nil {
		return err
	}

	slog.Info("AI toggled", "chat_id", c.Chat().ID, "enabled", enabled)

	if enabled {
		return c.Reply("AI replies are now on in this chat.")
	}
	return c.Reply("AI replies are now off in this chat.")
}

func (b *Bot) gaiPromptHandler(c *Context) error {
	prompt := c.ArgText()
	if prompt == "" {
		return c.Reply("Usage: /gaiprompt <system prompt>")
	}

	if err := b.store.SetAIPrompt(c.Ctx(), c.Chat().ID, prompt); err != nil {
		return err
	}

	return c.Reply("AI prompt updated for this chat.")
}

// gchatHandler sends one message to the AI backend and replies with the
// completion. It works regardless of the per-chat AI toggle.
func (b *Bot) gchatHandler(c *Context) error {
	if b.ai == nil {
		return c.Reply("No AI backend is configured.")
	}

	message := c.ArgText()
	if message == "" {
		return c.Reply("Usage: /gchat <message>")
	}

	_, prompt, err := b.store.AISettings(c.Ctx(), c.Chat().ID)
	if err != nil {
		return err
	}
	if prompt == "" {
		prompt = defaultAIPrompt
	}

	answer, err := b.ai.Complete(c.Ctx(), prompt, message)
	if err != nil {
		slog.Error("AI completion failed", "chat_id", c.Chat().ID, "error", err)
		return c.Reply("The AI backend did not answer. Try again later.")
	}

	return c.Reply(answer)
}

// aiReplyHandler continues a conversation when a user replies to one of the
// bot's own messages and AI replies are enabled in the chat.
func (b *Bot) aiReplyHandler(c *Context) error {
	if b.ai == nil {
		return nil
	}

	msg := c.Message()
	if msg.Text == "" || strings.HasPrefix(msg.Text, "/") {
		return nil
	}

	reply := msg.ReplyToMessage
	if reply == nil || reply.From == nil || reply.From.ID != b.me.ID {
		return nil
	}

	enabled, prompt, err := b.store.AISettings(c.Ctx(), c.Chat().ID)
	if err != nil {
		return err
	}
	if !enabled {
		return nil
	}
	if prompt == "" {
		prompt = defaultAIPrompt
	}

	message := msg.Text
	if reply.Text != "" {
		message = "Earlier you said:\n" + reply.Text + "\n\nThe user replies:\n" + msg.Text
	}

	answer, err := b.ai.Complete(c.Ctx(), prompt, message)
	if err != nil {
		slog.Error("AI completion failed", "chat_id", c.Chat().ID, "error", err)
		return nil
	}

	return c.Reply(answer)
}
