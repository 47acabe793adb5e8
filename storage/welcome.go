package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WelcomeSettings returns whether welcoming is enabled and the custom message
// for a chat. Chats without a row welcome with the default message.
func (s *Storage) WelcomeSettings(ctx context.Context, chatID int64) (bool, string, error) {
	var row WelcomeSetting
	result := s.db.WithContext(ctx).Where("chat_id = ?", chatID).First(&row)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return true, "", nil
	}
	if result.Error != nil {
		slog.Error("storage: Failed to get welcome settings", "error", result.Error, "chat_id", chatID)
		return false, "", fmt.Errorf("failed to get welcome settings: %w", result.Error)
	}
	return row.Enabled, row.Custom, nil
}

// SetWelcomeMessage stores the custom welcome text and enables welcoming.
func (s *Storage) SetWelcomeMessage(ctx context.Context, chatID int64, text string) error {
	return s.saveWelcome(ctx, WelcomeSetting{ChatID: chatID, Enabled: true, Custom: text})
}

// SetWelcomeEnabled toggles welcoming, keeping any custom message.
func (s *Storage) SetWelcomeEnabled(ctx context.Context, chatID int64, enabled bool) error {
	s.welcomeMu.Lock()
	defer s.welcomeMu.Unlock()

	_, custom, err := s.WelcomeSettings(ctx, chatID)
	if err != nil {
		return err
	}
	return s.upsertWelcome(ctx, WelcomeSetting{ChatID: chatID, Enabled: enabled, Custom: custom})
}

func (s *Storage) saveWelcome(ctx context.Context, row WelcomeSetting) error {
	s.welcomeMu.Lock()
	defer s.welcomeMu.Unlock()
	return s.upsertWelcome(ctx, row)
}

func (s *Storage) upsertWelcome(ctx context.Context, row WelcomeSetting) error {
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"enabled", "custom"}),
	}).Create(&row)
	if result.Error != nil {
		slog.Error("storage: Failed to save welcome settings", "error", result.Error, "chat_id", row.ChatID)
		return fmt.Errorf("failed to save welcome settings: %w", result.Error)
	}
	return nil
}
