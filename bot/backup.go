package bot

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"telegram-group-guard-bot/storage"
)

// chatBackup is the JSON snapshot of a chat's configuration. Moderation
// state like warning counters and karma stays out on purpose; restoring a
// config snapshot must not resurrect old punishments.
type chatBackup struct {
	Settings   map[string]string `json:"settings"`
	Blacklist  []string          `json:"blacklist"`
	Locks      storage.Lock      `json:"locks"`
	Notes      map[string]string `json:"notes"`
	WarnLimit  int               `json:"warn_limit"`
	FloodLimit int               `json:"flood_limit"`
	Welcome    welcomeBackup     `json:"welcome"`
	AI         aiBackup          `json:"ai"`
}

type welcomeBackup struct {
	Enabled bool   `json:"enabled"`
	Custom  string `json:"custom"`
}

type aiBackup struct {
	Enabled bool   `json:"enabled"`
	Prompt  string `json:"prompt"`
}

func (b *Bot) backupHandler(c *Context) error {
	args := c.Args()
	if len(args) > 1 {
		return c.Reply("Usage: /backup [name]")
	}

	// Without a name the snapshot goes to the default slot.
	name := "default"
	if len(args) == 1 {
		name = strings.ToLower(args[0])
	}
	chatID := c.Chat().ID
	ctx := c.Ctx()

	snapshot := chatBackup{
		Settings: make(map[string]string),
		Notes:    make(map[string]string),
	}

	settings, err := b.store.ChatSettings(ctx, chatID)
	if err != nil {
		return err
	}
	for _, setting := range settings {
		snapshot.Settings[setting.Name] = setting.Value
	}

	snapshot.Blacklist, err = b.store.BlacklistTriggers(ctx, chatID)
	if err != nil {
		return err
	}

	snapshot.Locks, err = b.store.Locks(ctx, chatID)
	if err != nil {
		return err
	}

	notes, err := b.store.Notes(ctx, chatID)
	if err != nil {
		return err
	}
	for _, note := range notes {
		snapshot.Notes[note.Name] = note.Value
	}

	snapshot.WarnLimit, err = b.store.WarnLimit(ctx, chatID)
	if err != nil {
		return err
	}

	snapshot.FloodLimit, err = b.store.FloodLimit(ctx, chatID)
	if err != nil {
		return err
	}

	snapshot.Welcome.Enabled, snapshot.Welcome.Custom, err = b.store.WelcomeSettings(ctx, chatID)
	if err != nil {
		return err
	}

	snapshot.AI.Enabled, snapshot.AI.Prompt, err = b.store.AISettings(ctx, chatID)
	if err != nil {
		return err
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("cannot serialize backup: %w", err)
	}

	if err := b.store.SaveBackup(ctx, chatID, name, string(data)); err != nil {
		return err
	}

	slog.Info("Backup saved", "chat_id", chatID, "name", name)

	return c.Replyf("Backup '%s' saved.", name)
}

// restoreHandler applies a named backup section by section. A failing
// section is reported and skipped; the rest is still applied.
func (b *Bot) restoreHandler(c *Context) error {
	args := c.Args()
	if len(args) != 1 {
		backups, err := b.store.ListBackups(c.Ctx(), c.Chat().ID)
		if err != nil {
			return err
		}
		if len(backups) == 0 {
			return c.Reply("Usage: /restore <name>\nThis chat has no backups yet.")
		}
		names := make([]string, 0, len(backups))
		for _, backup := range backups {
			names = append(names, backup.Name)
		}
		return c.Replyf("Usage: /restore <name>\nAvailable: %s", strings.Join(names, ", "))
	}

	name := strings.ToLower(args[0])
	chatID := c.Chat().ID
	ctx := c.Ctx()

	data, found, err := b.store.GetBackup(ctx, chatID, name)
	if err != nil {
		return err
	}
	if !found {
		return c.Replyf("There is no backup named '%s'.", name)
	}

	var snapshot chatBackup
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return c.Replyf("Backup '%s' is corrupted and cannot be restored.", name)
	}

	var failed []string

	for key, value := range snapshot.Settings {
		if err := b.store.SetSetting(ctx, chatID, key, value); err != nil {
			failed = append(failed, "settings")
			break
		}
	}

	for _, trigger := range snapshot.Blacklist {
		if err := b.store.AddBlacklistTrigger(ctx, chatID, trigger); err != nil {
			failed = append(failed, "blacklist")
			break
		}
	}

	if err := b.restoreLocks(c, snapshot.Locks); err != nil {
		failed = append(failed, "locks")
	}

	for noteName, value := range snapshot.Notes {
		if err := b.store.SaveNote(ctx, chatID, noteName, value); err != nil {
			failed = append(failed, "notes")
			break
		}
	}

	if snapshot.WarnLimit > 0 {
		if err := b.store.SetWarnLimit(ctx, chatID, snapshot.WarnLimit); err != nil {
			failed = append(failed, "warn limit")
		}
	}

	if err := b.store.SetFloodLimit(ctx, chatID, snapshot.FloodLimit); err != nil {
		failed = append(failed, "flood limit")
	}

	if snapshot.Welcome.Custom != "" {
		if err := b.store.SetWelcomeMessage(ctx, chatID, snapshot.Welcome.Custom); err != nil {
			failed = append(failed, "welcome")
		}
	}
	if err := b.store.SetWelcomeEnabled(ctx, chatID, snapshot.Welcome.Enabled); err != nil {
		failed = append(failed, "welcome")
	}

	if snapshot.AI.Prompt != "" {
		if err := b.store.SetAIPrompt(ctx, chatID, snapshot.AI.Prompt); err != nil {
			failed = append(failed, "ai")
		}
	}
	if err := b.store.SetAIEnabled(ctx, chatID, snapshot.AI.Enabled); err != nil {
		failed = append(failed, "ai")
	}

	slog.Info("Backup restored", "chat_id", chatID, "name", name, "failed_sections", len(failed))

	if len(failed) > 0 {
		return c.Replyf("Restored backup '%s', but these sections failed: %s",
			name, strings.Join(dedupe(failed), ", "))
	}
	return c.Replyf("Restored backup '%s'.", name)
}

func (b *Bot) restoreLocks(c *Context, locks storage.Lock) error {
	for _, lockType := range storage.LockTypes() {
		if err := b.store.SetLock(c.Ctx(), c.Chat().ID, lockType, locks.IsLocked(lockType)); err != nil {
			return err
		}
	}
	return nil
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
