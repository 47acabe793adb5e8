package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// AddReminder stores a reminder and returns its id.
func (s *Storage) AddReminder(ctx context.Context, reminder Reminder) (uint, error) {
	s.remindersMu.Lock()
	defer s.remindersMu.Unlock()

	result := s.db.WithContext(ctx).Create(&reminder)
	if result.Error != nil {
		slog.Error("storage: Failed to add reminder", "error", result.Error,
			"chat_id", reminder.ChatID, "user_id", reminder.UserID)
		return 0, fmt.Errorf("failed to add reminder: %w", result.Error)
	}
	return reminder.ID, nil
}

// DueReminders returns every reminder due at or before now.
func (s *Storage) DueReminders(ctx context.Context, now time.Time) ([]Reminder, error) {
	var reminders []Reminder
	result := s.db.WithContext(ctx).
		Where("due_at <= ?", now).
		Order("due_at asc").
		Find(&reminders)
	if result.Error != nil {
		slog.Error("storage: Failed to get due reminders", "error", result.Error)
		return nil, fmt.Errorf("failed to get due reminders: %w", result.Error)
	}
	return reminders, nil
}

// CompleteReminder finishes a delivered reminder: one-shot reminders are
// deleted, recurring ones are re-armed one interval past now.
func (s *Storage) CompleteReminder(ctx context.Context, reminder Reminder, now time.Time) error {
	s.remindersMu.Lock()
	defer s.remindersMu.Unlock()

	if reminder.RepeatEvery <= 0 {
		result := s.db.WithContext(ctx).Delete(&Reminder{}, reminder.ID)
		if result.Error != nil {
			slog.Error("storage: Failed to delete reminder", "error", result.Error, "id", reminder.ID)
			return fmt.Errorf("failed to delete reminder: %w", result.Error)
		}
		return nil
	}

	next := now.Add(time.Duration(reminder.RepeatEvery) * time.Second)
	result := s.db.WithContext(ctx).
		Model(&Reminder{}).
		Where("id = ?", reminder.ID).
		Update("due_at", next)
	if result.Error != nil {
		slog.Error("storage: Failed to re-arm reminder", "error", result.Error, "id", reminder.ID)
		return fmt.Errorf("failed to re-arm reminder: %w", result.Error)
	}
	return nil
}

// UserReminders returns pending reminders created by a user.
func (s *Storage) UserReminders(ctx context.Context, userID int64) ([]Reminder, error) {
	var reminders []Reminder
	result := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("due_at asc").
		Find(&reminders)
	if result.Error != nil {
		slog.Error("storage: Failed to list user reminders", "error", result.Error, "user_id", userID)
		return nil, fmt.Errorf("failed to list user reminders: %w", result.Error)
	}
	return reminders, nil
}

// DeleteReminder removes a reminder owned by userID and reports whether one
// was removed.
func (s *Storage) DeleteReminder(ctx context.Context, id uint, userID int64) (bool, error) {
	s.remindersMu.Lock()
	defer s.remindersMu.Unlock()

	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&Reminder{})
	if result.Error != nil {
		slog.Error("storage: Failed to delete reminder", "error", result.Error,
			"id", id, "user_id", userID)
		return false, fmt.Errorf("failed to delete reminder: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
