package bot

import (
	"log/slog"
	"strconv"
	"strings"

	t "github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

func (b *Bot) banHandler(c *Context) error {
	target, reason, ok := extractTargetUser(c)
	if !ok {
		return c.Reply("Reply to a message or pass @username or a user ID to ban.")
	}
	if err := b.resolveTargetID(target); err != nil {
		return c.Replyf("Cannot find that user: %v", err)
	}
	if target.ID == b.me.ID {
		return c.Reply("I am not going to ban myself.")
	}

	err := b.api.BanChatMember(&t.BanChatMemberParams{
		ChatID: tu.ID(c.Chat().ID),
		UserID: target.ID,
	})
	if err != nil {
		return c.Replyf("Failed to ban %s: %v", target.Name, err)
	}

	slog.Info("User banned", "chat_id", c.Chat().ID, "user_id", target.ID)
	b.logToChannel(c, "Banned "+target.Name+" in "+c.Chat().Title)

	if len(reason) > 0 {
		return c.Replyf("Banned %s. Reason: %s", target.Name, strings.Join(reason, " "))
	}
	return c.Replyf("Banned %s.", target.Name)
}

// kickHandler bans and immediately unbans, so the user can rejoin.
func (b *Bot) kickHandler(c *Context) error {
	target, _, ok := extractTargetUser(c)
	if !ok {
		return c.Reply("Reply to a message or pass @username or a user ID to kick.")
	}
	if err := b.resolveTargetID(target); err != nil {
		return c.Replyf("Cannot find that user: %v", err)
	}
	if target.ID == b.me.ID {
		return c.Reply("I am not going to kick myself.")
	}

	chatID := tu.ID(c.Chat().ID)

	if err := b.api.BanChatMember(&t.BanChatMemberParams{ChatID: chatID, UserID: target.ID}); err != nil {
		return c.Replyf("Failed to kick %s: %v", target.Name, err)
	}
	if err := b.api.UnbanChatMember(&t.UnbanChatMemberParams{ChatID: chatID, UserID: target.ID, OnlyIfBanned: true}); err != nil {
		slog.Error("Cannot unban after kick", "chat_id", c.Chat().ID, "user_id", target.ID, "error", err)
	}

	slog.Info("User kicked", "chat_id", c.Chat().ID, "user_id", target.ID)
	b.logToChannel(c, "Kicked "+target.Name+" from "+c.Chat().Title)

	return c.Replyf("Kicked %s.", target.Name)
}

func (b *Bot) muteHandler(c *Context) error {
	target, _, ok := extractTargetUser(c)
	if !ok {
		return c.Reply("Reply to a message or pass @username or a user ID to mute.")
	}
	if err := b.resolveTargetID(target); err != nil {
		return c.Replyf("Cannot find that user: %v", err)
	}
	if target.ID == b.me.ID {
		return c.Reply("I am not going to mute myself.")
	}

	admin, err := b.isChatAdmin(c.Chat(), target.ID)
	if err != nil {
		return err
	}
	if admin {
		return c.Reply("I cannot mute an administrator.")
	}

	err = b.api.RestrictChatMember(&t.RestrictChatMemberParams{
		ChatID:      tu.ID(c.Chat().ID),
		UserID:      target.ID,
		Permissions: mutedPermissions,
	})
	if err != nil {
		return c.Replyf("Failed to mute %s: %v", target.Name, err)
	}

	slog.Info("User muted", "chat_id", c.Chat().ID, "user_id", target.ID)

	return c.Replyf("Muted %s.", target.Name)
}

func (b *Bot) unmuteHandler(c *Context) error {
	target, _, ok := extractTargetUser(c)
	if !ok {
		return c.Reply("Reply to a message or pass @username or a user ID to unmute.")
	}
	if err := b.resolveTargetID(target); err != nil {
		return c.Replyf("Cannot find that user: %v", err)
	}

	err := b.api.RestrictChatMember(&t.RestrictChatMemberParams{
		ChatID:      tu.ID(c.Chat().ID),
		UserID:      target.ID,
		Permissions: unmutedPermissions,
	})
	if err != nil {
		return c.Replyf("Failed to unmute %s: %v", target.Name, err)
	}

	slog.Info("User unmuted", "chat_id", c.Chat().ID, "user_id", target.ID)

	return c.Replyf("Unmuted %s.", target.Name)
}

func (b *Bot) promoteHandler(c *Context) error {
	target, _, ok := extractTargetUser(c)
	if !ok {
		return c.Reply("Reply to a message or pass @username or a user ID to promote.")
	}
	if err := b.resolveTargetID(target); err != nil {
		return c.Replyf("Cannot find that user: %v", err)
	}
	if target.ID == b.me.ID {
		return c.Reply("I am not going to promote myself.")
	}

	admin, err := b.isChatAdmin(c.Chat(), target.ID)
	if err != nil {
		return err
	}
	if admin {
		return c.Replyf("%s is already an administrator.", target.Name)
	}

	err = b.api.PromoteChatMember(&t.PromoteChatMemberParams{
		ChatID:             tu.ID(c.Chat().ID),
		UserID:             target.ID,
		CanDeleteMessages:  boolPtr(true),
		CanRestrictMembers: boolPtr(true),
		CanPinMessages:     boolPtr(true),
		CanInviteUsers:     boolPtr(true),
	})
	if err != nil {
		return c.Replyf("Failed to promote %s: %v", target.Name, err)
	}

	slog.Info("User promoted", "chat_id", c.Chat().ID, "user_id", target.ID)

	return c.Replyf("Promoted %s.", target.Name)
}

// demoteHandler strips every admin right by promoting with all flags false.
func (b *Bot) demoteHandler(c *Context) error {
	target, _, ok := extractTargetUser(c)
	if !ok {
		return c.Reply("Reply to a message or pass @username or a user ID to demote.")
	}
	if err := b.resolveTargetID(target); err != nil {
		return c.Replyf("Cannot find that user: %v", err)
	}

	err := b.api.PromoteChatMember(&t.PromoteChatMemberParams{
		ChatID: tu.ID(c.Chat().ID),
		UserID: target.ID,
	})
	if err != nil {
		return c.Replyf("Failed to demote %s: %v", target.Name, err)
	}

	slog.Info("User demoted", "chat_id", c.Chat().ID, "user_id", target.ID)

	return c.Replyf("Demoted %s.", target.Name)
}

func (b *Bot) pinHandler(c *Context) error {
	silent := len(c.Args()) > 0 && strings.EqualFold(c.Args()[0], "silent")

	err := b.api.PinChatMessage(&t.PinChatMessageParams{
		ChatID:              tu.ID(c.Chat().ID),
		MessageID:           c.Message().ReplyToMessage.MessageID,
		DisableNotification: silent,
	})
	if err != nil {
		return c.Replyf("Failed to pin: %v", err)
	}

	return nil
}

// adminListHandler lists the chat's administrators, creator first.
func (b *Bot) adminListHandler(c *Context) error {
	admins, err := b.api.GetChatAdministrators(&t.GetChatAdministratorsParams{
		ChatID: tu.ID(c.Chat().ID),
	})
	if err != nil {
		return c.Replyf("Failed to fetch the admin list: %v", err)
	}

	var creator string
	var names []string
	for _, admin := range admins {
		user := admin.MemberUser()
		if user.IsBot {
			continue
		}
		if admin.MemberStatus() == t.MemberStatusCreator {
			creator = displayName(&user)
			continue
		}
		names = append(names, displayName(&user))
	}

	var sb strings.Builder
	sb.WriteString("Administrators:")
	if creator != "" {
		sb.WriteString("\n- " + creator + " (creator)")
	}
	for _, name := range names {
		sb.WriteString("\n- " + name)
	}

	return c.Reply(sb.String())
}

// purgeHandler deletes every message from the replied-to one up to the
// command itself. Gaps from already-deleted messages are skipped silently.
func (b *Bot) purgeHandler(c *Context) error {
	chatID := tu.ID(c.Chat().ID)
	from := c.Message().ReplyToMessage.MessageID
	to := c.Message().MessageID

	deleted := 0
	for id := from; id <= to; id++ {
		err := b.api.DeleteMessage(&t.DeleteMessageParams{ChatID: chatID, MessageID: id})
		if err != nil {
			continue
		}
		deleted++
	}

	slog.Info("Messages purged", "chat_id", c.Chat().ID, "count", deleted)
	b.logToChannel(c, "Purged "+strconv.Itoa(deleted)+" messages in "+c.Chat().Title)

	return nil
}
