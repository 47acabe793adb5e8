package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	tu "github.com/mymmrac/telego/telegoutil"

	"telegram-group-guard-bot/storage"
)

var errBadDuration = errors.New("cannot parse duration")

var durationRe = regexp.MustCompile(`^(?:(\d+)d)?(?:(\d+)h)?(?:(\d+)m)?(?:(\d+)s)?$`)

// parseReminderDelay accepts compact durations like 1d2h30m or 45s, and
// clock times like 15:04 or 15:04:05 meaning the next occurrence of that
// wall-clock time.
func parseReminderDelay(arg string, now time.Time) (time.Time, error) {
	if strings.Contains(arg, ":") {
		return parseClockTime(arg, now)
	}

	match := durationRe.FindStringSubmatch(arg)
	if match == nil || match[0] == "" {
		return time.Time{}, fmt.Errorf("%w: %q", errBadDuration, arg)
	}

	var total time.Duration
	units := []time.Duration{24 * time.Hour, time.Hour, time.Minute, time.Second}
	for i, unit := range units {
		if match[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(match[i+1])
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", errBadDuration, arg)
		}
		total += time.Duration(n) * unit
	}

	if total <= 0 {
		return time.Time{}, fmt.Errorf("%w: %q", errBadDuration, arg)
	}

	return now.Add(total), nil
}

func parseClockTime(arg string, now time.Time) (time.Time, error) {
	layout := "15:04"
	if strings.Count(arg, ":") == 2 {
		layout = "15:04:05"
	}

	clock, err := time.Parse(layout, arg)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", errBadDuration, arg)
	}

	due := time.Date(now.Year(), now.Month(), now.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, now.Location())
	if !due.After(now) {
		due = due.Add(24 * time.Hour)
	}

	return due, nil
}

// remindHandler schedules a reminder. "every" before the time makes it
// recurring with that period.
func (b *Bot) remindHandler(c *Context) error {
	args := c.Args()

	usage := "Usage: /remind <1d2h3m4s | HH:MM[:SS]> <text>\n" +
		"Prefix the time with 'every' for a recurring reminder."
	if len(args) < 2 {
		return c.Reply(usage)
	}

	sender := c.Sender()
	if sender == nil {
		return nil
	}

	now := time.Now()

	recurring := strings.EqualFold(args[0], "every")
	if recurring {
		args = args[1:]
		if len(args) < 2 {
			return c.Reply(usage)
		}
	}

	due, err := parseReminderDelay(args[0], now)
	if err != nil {
		return c.Reply(usage)
	}

	reminder := storage.Reminder{
		ChatID: c.Chat().ID,
		UserID: sender.ID,
		Text:   strings.Join(args[1:], " "),
		DueAt:  due,
	}
	if recurring {
		reminder.RepeatEvery = int64(due.Sub(now) / time.Second)
		if reminder.RepeatEvery < 60 {
			return c.Reply("Recurring reminders need a period of at least one minute.")
		}
	}

	id, err := b.store.AddReminder(c.Ctx(), reminder)
	if err != nil {
		return err
	}

	if recurring {
		return c.Replyf("Reminder #%d set, repeating every %s.", id, due.Sub(now).Round(time.Second))
	}
	return c.Replyf("Reminder #%d set for %s.", id, due.Format("2006-01-02 15:04:05"))
}

func (b *Bot) remindersHandler(c *Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	reminders, err := b.store.UserReminders(c.Ctx(), sender.ID)
	if err != nil {
		return err
	}

	if len(reminders) == 0 {
		return c.Reply("You have no reminders.")
	}

	var sb strings.Builder
	sb.WriteString("Your reminders:")
	for _, r := range reminders {
		fmt.Fprintf(&sb, "\n#%d at %s: %s", r.ID, r.DueAt.Format("2006-01-02 15:04"), r.Text)
		if r.RepeatEvery > 0 {
			fmt.Fprintf(&sb, " (every %s)", (time.Duration(r.RepeatEvery) * time.Second).String())
		}
	}

	return c.Reply(sb.String())
}

func (b *Bot) delReminderHandler(c *Context) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Reply("Usage: /delreminder <id>")
	}

	sender := c.Sender()
	if sender == nil {
		return nil
	}

	id, err := strconv.ParseUint(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil {
		return c.Reply("Usage: /delreminder <id>")
	}

	deleted, err := b.store.DeleteReminder(c.Ctx(), uint(id), sender.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return c.Reply("You have no reminder with that ID.")
	}

	return c.Replyf("Reminder #%d deleted.", id)
}

// DeliverDueReminders sends every due reminder to its chat, then deletes
// one-shot reminders and re-arms recurring ones. Meant to run on a schedule.
func (b *Bot) DeliverDueReminders() {
	ctx := context.Background()
	now := time.Now()

	due, err := b.store.DueReminders(ctx, now)
	if err != nil {
		slog.Error("Cannot load due reminders", "error", err)
		return
	}

	for _, reminder := range due {
		_, err := b.api.SendMessage(tu.Messagef(tu.ID(reminder.ChatID), "Reminder: %s", reminder.Text))
		if err != nil {
			slog.Error("Cannot deliver reminder",
				"reminder_id", reminder.ID, "chat_id", reminder.ChatID, "error", err)
			continue
		}

		if err := b.store.CompleteReminder(ctx, reminder, now); err != nil {
			slog.Error("Cannot complete reminder", "reminder_id", reminder.ID, "error", err)
		}
	}
}
