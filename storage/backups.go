package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaveBackup stores an opaque serialized snapshot under (chatID, name),
// overwriting any previous backup with the same name.
func (s *Storage) SaveBackup(ctx context.Context, chatID int64, name, data string) error {
	s.backupsMu.Lock()
	defer s.backupsMu.Unlock()

	backup := Backup{ChatID: chatID, Name: name, Data: data, CreatedAt: time.Now()}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "created_at"}),
	}).Create(&backup)
	if result.Error != nil {
		slog.Error("storage: Failed to save backup", "error", result.Error,
			"chat_id", chatID, "name", name)
		return fmt.Errorf("failed to save backup: %w", result.Error)
	}
	return nil
}

// GetBackup returns the stored blob and whether it exists.
func (s *Storage) GetBackup(ctx context.Context, chatID int64, name string) (string, bool, error) {
	var backup Backup
	result := s.db.WithContext(ctx).
		Where("chat_id = ? AND name = ?", chatID, name).
		First(&backup)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if result.Error != nil {
		slog.Error("storage: Failed to get backup", "error", result.Error,
			"chat_id", chatID, "name", name)
		return "", false, fmt.Errorf("failed to get backup: %w", result.Error)
	}
	return backup.Data, true, nil
}

// ListBackups returns the chat's backups, newest first.
func (s *Storage) ListBackups(ctx context.Context, chatID int64) ([]Backup, error) {
	var backups []Backup
	result := s.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at desc").
		Find(&backups)
	if result.Error != nil {
		slog.Error("storage: Failed to list backups", "error", result.Error, "chat_id", chatID)
		return nil, fmt.Errorf("failed to list backups: %w", result.Error)
	}
	return backups, nil
}
