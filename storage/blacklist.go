package storage

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm/clause"
)

// AddBlacklistTrigger stores a trigger for a chat. Triggers are expected to
// arrive already case-folded; re-adding an existing trigger is a no-op.
func (s *Storage) AddBlacklistTrigger(ctx context.Context, chatID int64, trigger string) error {
	s.blacklistMu.Lock()
	defer s.blacklistMu.Unlock()

	row := BlacklistTrigger{ChatID: chatID, Trigger: trigger}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if result.Error != nil {
		slog.Error("storage: Failed to add blacklist trigger", "error", result.Error,
			"chat_id", chatID, "trigger", trigger)
		return fmt.Errorf("failed to add blacklist trigger: %w", result.Error)
	}
	return nil
}

// RemoveBlacklistTrigger deletes a trigger and reports whether it existed.
func (s *Storage) RemoveBlacklistTrigger(ctx context.Context, chatID int64, trigger string) (bool, error) {
	s.blacklistMu.Lock()
	defer s.blacklistMu.Unlock()

	result := s.db.WithContext(ctx).
		Where("chat_id = ? AND phrase = ?", chatID, trigger).
		Delete(&BlacklistTrigger{})
	if result.Error != nil {
		slog.Error("storage: Failed to remove blacklist trigger", "error", result.Error,
			"chat_id", chatID, "trigger", trigger)
		return false, fmt.Errorf("failed to remove blacklist trigger: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// BlacklistTriggers returns every active trigger for a chat.
func (s *Storage) BlacklistTriggers(ctx context.Context, chatID int64) ([]string, error) {
	var rows []BlacklistTrigger
	result := s.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("phrase asc").
		Find(&rows)
	if result.Error != nil {
		slog.Error("storage: Failed to list blacklist triggers", "error", result.Error, "chat_id", chatID)
		return nil, fmt.Errorf("failed to list blacklist triggers: %w", result.Error)
	}

	triggers := make([]string, 0, len(rows))
	for _, row := range rows {
		triggers = append(triggers, row.Trigger)
	}
	return triggers, nil
}
