package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecordFloodMessage applies one non-admin message to the chat's flood
// counter and reports whether the flood limit was breached. A message from a
// new sender restarts the run at one; a breach clears the tracked run so the
// banned user starts fresh if they rejoin.
func (s *Storage) RecordFloodMessage(ctx context.Context, chatID, userID int64) (bool, error) {
	s.floodMu.Lock()
	defer s.floodMu.Unlock()

	counter, found, err := s.floodCounter(ctx, chatID)
	if err != nil {
		return false, err
	}
	if !found || counter.Limit <= 0 {
		return false, nil
	}

	if counter.LastUserID == userID {
		counter.Count++
	} else {
		counter.LastUserID = userID
		counter.Count = 1
	}

	breached := counter.Count > counter.Limit
	if breached {
		counter.LastUserID = 0
		counter.Count = 0
	}

	if err := s.saveFloodCounter(ctx, counter); err != nil {
		return false, err
	}
	return breached, nil
}

// ResetFlood clears the tracked run for a chat without counting, used when an
// admin message interrupts a flood.
func (s *Storage) ResetFlood(ctx context.Context, chatID int64) error {
	s.floodMu.Lock()
	defer s.floodMu.Unlock()

	counter, found, err := s.floodCounter(ctx, chatID)
	if err != nil || !found {
		return err
	}
	if counter.Count == 0 && counter.LastUserID == 0 {
		return nil
	}

	counter.LastUserID = 0
	counter.Count = 0
	return s.saveFloodCounter(ctx, counter)
}

// SetFloodLimit sets the chat's flood limit; zero disables flood control.
func (s *Storage) SetFloodLimit(ctx context.Context, chatID int64, limit int) error {
	s.floodMu.Lock()
	defer s.floodMu.Unlock()

	counter, _, err := s.floodCounter(ctx, chatID)
	if err != nil {
		return err
	}
	counter.Limit = limit
	counter.LastUserID = 0
	counter.Count = 0
	return s.saveFloodCounter(ctx, counter)
}

// FloodLimit returns the chat's flood limit, zero when disabled or unset.
func (s *Storage) FloodLimit(ctx context.Context, chatID int64) (int, error) {
	counter, _, err := s.floodCounter(ctx, chatID)
	if err != nil {
		return 0, err
	}
	return counter.Limit, nil
}

func (s *Storage) floodCounter(ctx context.Context, chatID int64) (FloodCounter, bool, error) {
	var counter FloodCounter
	result := s.db.WithContext(ctx).Where("chat_id = ?", chatID).First(&counter)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return FloodCounter{ChatID: chatID}, false, nil
	}
	if result.Error != nil {
		slog.Error("storage: Failed to get flood counter", "error", result.Error, "chat_id", chatID)
		return FloodCounter{}, false, fmt.Errorf("failed to get flood counter: %w", result.Error)
	}
	return counter, true, nil
}

func (s *Storage) saveFloodCounter(ctx context.Context, counter FloodCounter) error {
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_user_id", "count", "flood_limit"}),
	}).Create(&counter)
	if result.Error != nil {
		slog.Error("storage: Failed to save flood counter", "error", result.Error, "chat_id", counter.ChatID)
		return fmt.Errorf("failed to save flood counter: %w", result.Error)
	}
	return nil
}
