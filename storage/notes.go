package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaveNote stores a note under a case-folded name, overwriting any previous
// value for that name.
func (s *Storage) SaveNote(ctx context.Context, chatID int64, name, value string) error {
	s.notesMu.Lock()
	defer s.notesMu.Unlock()

	note := Note{ChatID: chatID, Name: name, Value: value}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&note)
	if result.Error != nil {
		slog.Error("storage: Failed to save note", "error", result.Error,
			"chat_id", chatID, "name", name)
		return fmt.Errorf("failed to save note: %w", result.Error)
	}
	return nil
}

// GetNote returns the note and whether it exists.
func (s *Storage) GetNote(ctx context.Context, chatID int64, name string) (Note, bool, error) {
	var note Note
	result := s.db.WithContext(ctx).
		Where("chat_id = ? AND name = ?", chatID, name).
		First(&note)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return Note{}, false, nil
	}
	if result.Error != nil {
		slog.Error("storage: Failed to get note", "error", result.Error,
			"chat_id", chatID, "name", name)
		return Note{}, false, fmt.Errorf("failed to get note: %w", result.Error)
	}
	return note, true, nil
}

// DeleteNote removes a note and reports whether it existed.
func (s *Storage) DeleteNote(ctx context.Context, chatID int64, name string) (bool, error) {
	s.notesMu.Lock()
	defer s.notesMu.Unlock()

	result := s.db.WithContext(ctx).
		Where("chat_id = ? AND name = ?", chatID, name).
		Delete(&Note{})
	if result.Error != nil {
		slog.Error("storage: Failed to delete note", "error", result.Error,
			"chat_id", chatID, "name", name)
		return false, fmt.Errorf("failed to delete note: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Notes returns every note in a chat ordered by name.
func (s *Storage) Notes(ctx context.Context, chatID int64) ([]Note, error) {
	var notes []Note
	result := s.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("name asc").
		Find(&notes)
	if result.Error != nil {
		slog.Error("storage: Failed to list notes", "error", result.Error, "chat_id", chatID)
		return nil, fmt.Errorf("failed to list notes: %w", result.Error)
	}
	return notes, nil
}
