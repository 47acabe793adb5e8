package bot

import (
	"errors"
	"log/slog"
	"strings"

	t "github.com/mymmrac/telego"

	"telegram-group-guard-bot/storage"
)

func (b *Bot) lockHandler(c *Context) error {
	return b.setLockState(c, true)
}

func (b *Bot) unlockHandler(c *Context) error {
	return b.setLockState(c, false)
}

func (b *Bot) setLockState(c *Context, locked bool) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Replyf("Usage: /%s <type>\nTypes: %s",
			map[bool]string{true: "lock", false: "unlock"}[locked],
			strings.Join(storage.LockTypes(), ", "))
	}

	lockType := strings.ToLower(args[0])

	err := b.store.SetLock(c.Ctx(), c.Chat().ID, lockType, locked)
	if errors.Is(err, storage.ErrUnknownLockType) {
		return c.Replyf("Unknown lock type '%s'. Types: %s", lockType, strings.Join(storage.LockTypes(), ", "))
	}
	if err != nil {
		return err
	}

	if locked {
		return c.Replyf("Locked %s messages in this chat.", lockType)
	}
	return c.Replyf("Unlocked %s messages in this chat.", lockType)
}

func (b *Bot) locksHandler(c *Context) error {
	locks, err := b.store.Locks(c.Ctx(), c.Chat().ID)
	if err != nil {
		return err
	}

	active := locks.Active()
	if len(active) == 0 {
		return c.Reply("Nothing is locked in this chat.")
	}

	return c.Replyf("Currently locked: %s", strings.Join(active, ", "))
}

// locksScanHandler deletes messages whose content type is locked. Admins are
// exempt. A deletion consumes the update.
func (b *Bot) locksScanHandler(c *Context) error {
	msg := c.Message()
	if msg.From == nil {
		return nil
	}

	locks, err := b.store.Locks(c.Ctx(), c.Chat().ID)
	if err != nil {
		return err
	}

	lockType, violated := violatedLock(msg, locks)
	if !violated {
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
		slog.Error("Cannot delete locked message", "chat_id", c.Chat().ID, "error", err)
		return err
	}

	slog.Info("Locked message deleted",
		"chat_id", c.Chat().ID, "user_id", msg.From.ID, "lock", lockType)

	return ErrStopPropagation
}

// violatedLock reports the first active lock the message violates.
func violatedLock(msg *t.Message, locks storage.Lock) (string, bool) {
	switch {
	case locks.Sticker && msg.Sticker != nil:
		return "sticker", true
	case locks.Audio && msg.Audio != nil:
		return "audio", true
	case locks.Voice && msg.Voice != nil:
		return "voice", true
	case locks.Document && msg.Document != nil && msg.Animation == nil:
		return "document", true
	case locks.Video && msg.Video != nil:
		return "video", true
	case locks.Photo && len(msg.Photo) > 0:
		return "photo", true
	case locks.GIF && msg.Animation != nil:
		return "gif", true
	case locks.URL && containsURL(msg):
		return "url", true
	case locks.Contact && msg.Contact != nil:
		return "contact", true
	case locks.Location && (msg.Location != nil || msg.Venue != nil):
		return "location", true
	case locks.Forward && msg.ForwardOrigin != nil:
		return "forward", true
	case locks.Game && msg.Game != nil:
		return "game", true
	case locks.Bot && msg.ViaBot != nil:
		return "bot", true
	}
	return "", false
}

func containsURL(msg *t.Message) bool {
	for _, entity := range append(msg.Entities, msg.CaptionEntities...) {
		if entity.Type == t.EntityTypeURL || entity.Type == t.EntityTypeTextLink {
			return true
		}
	}
	return false
}
