package bot

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	t "github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"telegram-group-guard-bot/storage"
)

// newFedHandler creates a federation owned by the caller. It only works in
// private chats so the federation id is not leaked to a group.
func (b *Bot) newFedHandler(c *Context) error {
	name := c.ArgText()
	if name == "" {
		return c.Reply("Usage: /newfed <name>")
	}

	sender := c.Sender()
	if sender == nil {
		return nil
	}

	fed := storage.Federation{
		FedID:   uuid.NewString(),
		OwnerID: sender.ID,
		Name:    name,
	}

	if err := b.store.CreateFederation(c.Ctx(), fed); err != nil {
		return err
	}

	slog.Info("Federation created", "fed_id", fed.FedID, "owner_id", sender.ID)

	return c.Replyf("Created federation '%s'.\nID: %s\nUse /joinfed %s in a group to join it.",
		name, fed.FedID, fed.FedID)
}

func (b *Bot) joinFedHandler(c *Context) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Reply("Usage: /joinfed <federation id>")
	}

	fedID := args[0]

	fed, found, err := b.store.Federation(c.Ctx(), fedID)
	if err != nil {
		return err
	}
	if !found {
		return c.Reply("There is no federation with that ID.")
	}

	if err := b.store.JoinFederation(c.Ctx(), c.Chat().ID, fedID); err != nil {
		return err
	}

	slog.Info("Chat joined federation", "chat_id", c.Chat().ID, "fed_id", fedID)

	return c.Replyf("This chat has joined the federation '%s'.", fed.Name)
}

func (b *Bot) leaveFedHandler(c *Context) error {
	left, err := b.store.LeaveFederation(c.Ctx(), c.Chat().ID)
	if err != nil {
		return err
	}
	if !left {
		return c.Reply("This chat is not part of any federation.")
	}

	slog.Info("Chat left federation", "chat_id", c.Chat().ID)

	return c.Reply("This chat has left its federation.")
}

// fbanHandler bans a user from every chat in the federation. Per-chat ban
// failures are counted and reported, never aborting the sweep.
func (b *Bot) fbanHandler(c *Context) error {
	fedID, inFed, err := b.store.FederationForChat(c.Ctx(), c.Chat().ID)
	if err != nil {
		return err
	}
	if !inFed {
		return c.Reply("This chat is not part of any federation.")
	}

	sender := c.Sender()
	if sender == nil {
		return nil
	}

	fedAdmin, err := b.store.IsFedAdmin(c.Ctx(), fedID, sender.ID)
	if err != nil {
		return err
	}
	if !fedAdmin && !b.isOwner(sender.ID) {
		return c.Reply("Only federation admins can use /fban.")
	}

	target, reasonArgs, ok := extractTargetUser(c)
	if !ok {
		return c.Reply("Reply to a message or pass @username or a user ID to fban.")
	}
	if err := b.resolveTargetID(target); err != nil {
		return c.Replyf("Cannot find that user: %v", err)
	}

	reason := strings.Join(reasonArgs, " ")

	if err := b.store.AddFedBan(c.Ctx(), fedID, target.ID, reason); err != nil {
		return err
	}

	chats, err := b.store.FederationChats(c.Ctx(), fedID)
	if err != nil {
		return err
	}

	banned := 0
	failed := 0
	for _, chatID := range chats {
		err := b.api.BanChatMember(&t.BanChatMemberParams{
			ChatID: tu.ID(chatID),
			UserID: target.ID,
		})
		if err != nil {
			failed++
			slog.Error("Federation ban failed in chat",
				"fed_id", fedID, "chat_id", chatID, "user_id", target.ID, "error", err)
			continue
		}
		banned++
	}

	slog.Info("Federation ban applied",
		"fed_id", fedID, "user_id", target.ID, "banned", banned, "failed", failed)
	b.logToChannel(c, fmt.Sprintf("Federation-banned %s: %d chats banned, %d failed", target.Name, banned, failed))

	if failed > 0 {
		return c.Replyf("Federation-banned %s in %d chats, failed in %d.", target.Name, banned, failed)
	}
	return c.Replyf("Federation-banned %s in %d chats.", target.Name, banned)
}

func (b *Bot) fedInfoHandler(c *Context) error {
	args := c.Args()

	var fedID string
	if len(args) == 1 {
		fedID = args[0]
	} else {
		id, inFed, err := b.store.FederationForChat(c.Ctx(), c.Chat().ID)
		if err != nil {
			return err
		}
		if !inFed {
			return c.Reply("This chat is not part of any federation. Usage: /fedinfo [federation id]")
		}
		fedID = id
	}

	fed, found, err := b.store.Federation(c.Ctx(), fedID)
	if err != nil {
		return err
	}
	if !found {
		return c.Reply("There is no federation with that ID.")
	}

	chats, err := b.store.FederationChats(c.Ctx(), fedID)
	if err != nil {
		return err
	}

	bans, err := b.store.FedBans(c.Ctx(), fedID)
	if err != nil {
		return err
	}

	return c.Replyf("Federation '%s'\nID: %s\nChats: %d\nBanned users: %d",
		fed.Name, fed.FedID, len(chats), len(bans))
}
