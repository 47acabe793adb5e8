package bot

import (
	"strings"
)

// saveNoteHandler stores a note under a case-insensitive name. Saving an
// existing name overwrites it.
func (b *Bot) saveNoteHandler(c *Context) error {
	args := c.Args()
	if len(args) < 1 {
		return c.Reply("Usage: /save <name> <content> (or reply to a message with /save <name>)")
	}

	name := strings.ToLower(args[0])

	var value string
	if len(args) > 1 {
		value = strings.TrimSpace(strings.TrimPrefix(c.ArgText(), args[0]))
	} else if reply := c.Message().ReplyToMessage; reply != nil && reply.Text != "" {
		value = reply.Text
	}

	if value == "" {
		return c.Reply("There is nothing to save. Give content after the name or reply to a text message.")
	}

	if err := b.store.SaveNote(c.Ctx(), c.Chat().ID, name, value); err != nil {
		return err
	}

	return c.Replyf("Saved note '%s'.", name)
}

func (b *Bot) getNoteHandler(c *Context) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Reply("Usage: /get <name>")
	}

	name := strings.ToLower(args[0])

	note, found, err := b.store.GetNote(c.Ctx(), c.Chat().ID, name)
	if err != nil {
		return err
	}
	if !found {
		return c.Replyf("There is no note named '%s'.", name)
	}

	return c.Reply(note.Value)
}

func (b *Bot) clearNoteHandler(c *Context) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Reply("Usage: /clear <name>")
	}

	name := strings.ToLower(args[0])

	removed, err := b.store.DeleteNote(c.Ctx(), c.Chat().ID, name)
	if err != nil {
		return err
	}
	if !removed {
		return c.Replyf("There is no note named '%s'.", name)
	}

	return c.Replyf("Removed note '%s'.", name)
}

func (b *Bot) notesHandler(c *Context) error {
	notes, err := b.store.Notes(c.Ctx(), c.Chat().ID)
	if err != nil {
		return err
	}

	if len(notes) == 0 {
		return c.Reply("There are no notes in this chat.")
	}

	var sb strings.Builder
	sb.WriteString("Notes in this chat:")
	for _, note := range notes {
		sb.WriteString("\n- ")
		sb.WriteString(note.Name)
	}
	sb.WriteString("\nUse /get <name> to fetch one.")

	return c.Reply(sb.String())
}
