package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetSetting returns the value stored for (chatID, name), or "" when the
// setting was never set.
func (s *Storage) GetSetting(ctx context.Context, chatID int64, name string) (string, error) {
	var setting ChatSetting
	result := s.db.WithContext(ctx).
		Where("chat_id = ? AND name = ?", chatID, name).
		First(&setting)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if result.Error != nil {
		slog.Error("storage: Failed to get setting", "error", result.Error,
			"chat_id", chatID, "name", name)
		return "", fmt.Errorf("failed to get setting: %w", result.Error)
	}
	return setting.Value, nil
}

// SetSetting stores value for (chatID, name), creating the row on first write.
func (s *Storage) SetSetting(ctx context.Context, chatID int64, name, value string) error {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	setting := ChatSetting{ChatID: chatID, Name: name, Value: value}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting)
	if result.Error != nil {
		slog.Error("storage: Failed to set setting", "error", result.Error,
			"chat_id", chatID, "name", name)
		return fmt.Errorf("failed to set setting: %w", result.Error)
	}
	return nil
}

// DeleteSetting removes the row for (chatID, name) and reports whether one
// existed.
func (s *Storage) DeleteSetting(ctx context.Context, chatID int64, name string) (bool, error) {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	result := s.db.WithContext(ctx).
		Where("chat_id = ? AND name = ?", chatID, name).
		Delete(&ChatSetting{})
	if result.Error != nil {
		slog.Error("storage: Failed to delete setting", "error", result.Error,
			"chat_id", chatID, "name", name)
		return false, fmt.Errorf("failed to delete setting: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ChatSettings returns every setting row for a chat, used by backups.
func (s *Storage) ChatSettings(ctx context.Context, chatID int64) ([]ChatSetting, error) {
	var settings []ChatSetting
	result := s.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("name asc").
		Find(&settings)
	if result.Error != nil {
		slog.Error("storage: Failed to list settings", "error", result.Error, "chat_id", chatID)
		return nil, fmt.Errorf("failed to list settings: %w", result.Error)
	}
	return settings, nil
}
