package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AdjustKarma applies delta to the user's karma in a chat and returns the new
// total. The update uses a database-side increment so two concurrent
// adjustments can never read the same base value.
func (s *Storage) AdjustKarma(ctx context.Context, chatID, userID int64, delta int) (int, error) {
	s.karmaMu.Lock()
	defer s.karmaMu.Unlock()

	record := KarmaRecord{ChatID: chatID, UserID: userID, Count: delta}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "chat_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"count": gorm.Expr("count + ?", delta),
		}),
	}).Create(&record)
	if result.Error != nil {
		slog.Error("storage: Failed to adjust karma", "error", result.Error,
			"chat_id", chatID, "user_id", userID)
		return 0, fmt.Errorf("failed to adjust karma: %w", result.Error)
	}

	return s.Karma(ctx, chatID, userID)
}

// Karma returns the user's karma in a chat, zero when no record exists.
func (s *Storage) Karma(ctx context.Context, chatID, userID int64) (int, error) {
	var record KarmaRecord
	result := s.db.WithContext(ctx).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		First(&record)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if result.Error != nil {
		slog.Error("storage: Failed to get karma", "error", result.Error,
			"chat_id", chatID, "user_id", userID)
		return 0, fmt.Errorf("failed to get karma: %w", result.Error)
	}
	return record.Count, nil
}

// KarmaTop returns up to limit records for a chat ordered by karma descending.
func (s *Storage) KarmaTop(ctx context.Context, chatID int64, limit int) ([]KarmaRecord, error) {
	var records []KarmaRecord
	result := s.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("count desc").
		Limit(limit).
		Find(&records)
	if result.Error != nil {
		slog.Error("storage: Failed to get karma leaderboard", "error", result.Error, "chat_id", chatID)
		return nil, fmt.Errorf("failed to get karma leaderboard: %w", result.Error)
	}
	return records, nil
}
