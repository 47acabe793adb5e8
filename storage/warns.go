package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultWarnLimit = 3

// AddWarn increments the warn count for (chatID, userID), appending the
// reason when given, and returns the new count. The caller compares the
// count against the chat's warn limit and performs the ban side effect.
func (s *Storage) AddWarn(ctx context.Context, chatID, userID int64, reason string) (int, error) {
	s.warnsMu.Lock()
	defer s.warnsMu.Unlock()

	record, err := s.warnRecord(ctx, chatID, userID)
	if err != nil {
		return 0, err
	}

	record.Count++
	if reason != "" {
		record.Reasons = strings.TrimSpace(
			record.Reasons + "\n" + fmt.Sprintf("%d: %s", record.Count, reason),
		)
	}

	if err := s.saveWarnRecord(ctx, record); err != nil {
		return 0, err
	}
	return record.Count, nil
}

// RemoveWarn decrements the warn count, flooring at zero. It reports false
// when the user had no warns to remove.
func (s *Storage) RemoveWarn(ctx context.Context, chatID, userID int64) (bool, error) {
	s.warnsMu.Lock()
	defer s.warnsMu.Unlock()

	record, err := s.warnRecord(ctx, chatID, userID)
	if err != nil {
		return false, err
	}
	if record.Count == 0 {
		return false, nil
	}

	record.Count--
	if err := s.saveWarnRecord(ctx, record); err != nil {
		return false, err
	}
	return true, nil
}

// ResetWarns clears the count and reasons for (chatID, userID).
func (s *Storage) ResetWarns(ctx context.Context, chatID, userID int64) error {
	s.warnsMu.Lock()
	defer s.warnsMu.Unlock()

	record := WarnRecord{ChatID: chatID, UserID: userID, Count: 0, Reasons: ""}
	return s.saveWarnRecord(ctx, record)
}

// Warns returns the current count and recorded reasons for (chatID, userID).
func (s *Storage) Warns(ctx context.Context, chatID, userID int64) (int, []string, error) {
	record, err := s.warnRecord(ctx, chatID, userID)
	if err != nil {
		return 0, nil, err
	}
	if record.Reasons == "" {
		return record.Count, nil, nil
	}
	return record.Count, strings.Split(record.Reasons, "\n"), nil
}

// SetWarnLimit sets the number of warns that triggers a ban in the chat.
func (s *Storage) SetWarnLimit(ctx context.Context, chatID int64, limit int) error {
	s.warnsMu.Lock()
	defer s.warnsMu.Unlock()

	setting := WarnSetting{ChatID: chatID, Limit: limit}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"warn_limit"}),
	}).Create(&setting)
	if result.Error != nil {
		slog.Error("storage: Failed to set warn limit", "error", result.Error, "chat_id", chatID)
		return fmt.Errorf("failed to set warn limit: %w", result.Error)
	}
	return nil
}

// WarnLimit returns the chat's warn limit, or DefaultWarnLimit when unset.
func (s *Storage) WarnLimit(ctx context.Context, chatID int64) (int, error) {
	var setting WarnSetting
	result := s.db.WithContext(ctx).Where("chat_id = ?", chatID).First(&setting)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return DefaultWarnLimit, nil
	}
	if result.Error != nil {
		slog.Error("storage: Failed to get warn limit", "error", result.Error, "chat_id", chatID)
		return 0, fmt.Errorf("failed to get warn limit: %w", result.Error)
	}
	return setting.Limit, nil
}

func (s *Storage) warnRecord(ctx context.Context, chatID, userID int64) (WarnRecord, error) {
	var record WarnRecord
	result := s.db.WithContext(ctx).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		First(&record)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return WarnRecord{ChatID: chatID, UserID: userID}, nil
	}
	if result.Error != nil {
		slog.Error("storage: Failed to get warn record", "error", result.Error,
			"chat_id", chatID, "user_id", userID)
		return WarnRecord{}, fmt.Errorf("failed to get warn record: %w", result.Error)
	}
	return record, nil
}

func (s *Storage) saveWarnRecord(ctx context.Context, record WarnRecord) error {
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"count", "reasons"}),
	}).Create(&record)
	if result.Error != nil {
		slog.Error("storage: Failed to save warn record", "error", result.Error,
			"chat_id", record.ChatID, "user_id", record.UserID)
		return fmt.Errorf("failed to save warn record: %w", result.Error)
	}
	return nil
}
