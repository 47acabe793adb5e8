package bot

import (
	"context"
	"strings"

	t "github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// Context carries one update through a handler, with accessors for the parts
// handlers care about and reply helpers that send to the originating chat.
type Context struct {
	bot    *Bot
	update t.Update
}

func newContext(b *Bot, u t.Update) *Context {
	return &Context{bot: b, update: u}
}

func (c *Context) Ctx() context.Context {
	return context.Background()
}

func (c *Context) Update() t.Update {
	return c.update
}

func (c *Context) Message() *t.Message {
	return c.update.Message
}

func (c *Context) Chat() t.Chat {
	if c.update.Message == nil {
		return t.Chat{}
	}
	return c.update.Message.Chat
}

func (c *Context) Sender() *t.User {
	if c.update.Message == nil {
		return nil
	}
	return c.update.Message.From
}

// Args returns the whitespace-split arguments after the command.
func (c *Context) Args() []string {
	if c.update.Message == nil {
		return nil
	}
	fields := strings.Fields(c.update.Message.Text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return nil
	}
	return fields[1:]
}

// ArgText returns everything after the command, with surrounding whitespace
// trimmed but inner newlines preserved.
func (c *Context) ArgText() string {
	if c.update.Message == nil {
		return ""
	}
	text := c.update.Message.Text
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	// The payload starts after the first space or newline.
	idx := strings.IndexAny(text, " \n")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(text[idx+1:])
}

// Reply sends a plain-text message to the originating chat.
func (c *Context) Reply(text string) error {
	_, err := c.bot.api.SendMessage(tu.Message(tu.ID(c.Chat().ID), text))
	return err
}

// Replyf formats and sends a plain-text message to the originating chat.
func (c *Context) Replyf(format string, args ...any) error {
	_, err := c.bot.api.SendMessage(tu.Messagef(tu.ID(c.Chat().ID), format, args...))
	return err
}

// ReplyMarkdown sends a MarkdownV2 message; the caller escapes user content.
func (c *Context) ReplyMarkdown(text string) error {
	params := tu.Message(tu.ID(c.Chat().ID), text)
	params.ParseMode = t.ModeMarkdownV2
	_, err := c.bot.api.SendMessage(params)
	return err
}

// DeleteMessage removes the triggering message.
func (c *Context) DeleteMessage() error {
	if c.update.Message == nil {
		return nil
	}
	return c.bot.api.DeleteMessage(&t.DeleteMessageParams{
		ChatID:    tu.ID(c.Chat().ID),
		MessageID: c.update.Message.MessageID,
	})
}
