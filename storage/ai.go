package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AISettings returns whether the AI passthrough is enabled for a chat and the
// chat's custom prompt, if any. Absence means disabled with the default
// prompt.
func (s *Storage) AISettings(ctx context.Context, chatID int64) (bool, string, error) {
	var row AISetting
	result := s.db.WithContext(ctx).Where("chat_id = ?", chatID).First(&row)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return false, "", nil
	}
	if result.Error != nil {
		slog.Error("storage: Failed to get AI settings", "error", result.Error, "chat_id", chatID)
		return false, "", fmt.Errorf("failed to get AI settings: %w", result.Error)
	}
	return row.Enabled, row.Prompt, nil
}

// SetAIEnabled toggles the AI passthrough, keeping any custom prompt.
func (s *Storage) SetAIEnabled(ctx context.Context, chatID int64, enabled bool) error {
	s.aiMu.Lock()
	defer s.aiMu.Unlock()

	_, prompt, err := s.AISettings(ctx, chatID)
	if err != nil {
		return err
	}
	return s.upsertAISetting(ctx, AISetting{ChatID: chatID, Enabled: enabled, Prompt: prompt})
}

// SetAIPrompt stores a custom system prompt for the chat.
func (s *Storage) SetAIPrompt(ctx context.Context, chatID int64, prompt string) error {
	s.aiMu.Lock()
	defer s.aiMu.Unlock()

	enabled, _, err := s.AISettings(ctx, chatID)
	if err != nil {
		return err
	}
	return s.upsertAISetting(ctx, AISetting{ChatID: chatID, Enabled: enabled, Prompt: prompt})
}

func (s *Storage) upsertAISetting(ctx context.Context, row AISetting) error {
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"enabled", "prompt"}),
	}).Create(&row)
	if result.Error != nil {
		slog.Error("storage: Failed to save AI settings", "error", result.Error, "chat_id", row.ChatID)
		return fmt.Errorf("failed to save AI settings: %w", result.Error)
	}
	return nil
}
