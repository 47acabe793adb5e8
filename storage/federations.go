package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateFederation stores a new federation row. The fed id is generated by
// the caller and globally unique.
func (s *Storage) CreateFederation(ctx context.Context, fed Federation) error {
	s.fedsMu.Lock()
	defer s.fedsMu.Unlock()

	result := s.db.WithContext(ctx).Create(&fed)
	if result.Error != nil {
		slog.Error("storage: Failed to create federation", "error", result.Error,
			"fed_id", fed.FedID, "owner_id", fed.OwnerID)
		return fmt.Errorf("failed to create federation: %w", result.Error)
	}
	return nil
}

// Federation returns the federation and whether it exists.
func (s *Storage) Federation(ctx context.Context, fedID string) (Federation, bool, error) {
	var fed Federation
	result := s.db.WithContext(ctx).Where("fed_id = ?", fedID).First(&fed)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return Federation{}, false, nil
	}
	if result.Error != nil {
		slog.Error("storage: Failed to get federation", "error", result.Error, "fed_id", fedID)
		return Federation{}, false, fmt.Errorf("failed to get federation: %w", result.Error)
	}
	return fed, true, nil
}

// JoinFederation attaches a chat to a federation, replacing any previous
// membership: a chat belongs to at most one federation.
func (s *Storage) JoinFederation(ctx context.Context, chatID int64, fedID string) error {
	s.fedsMu.Lock()
	defer s.fedsMu.Unlock()

	row := FedChat{ChatID: chatID, FedID: fedID}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"fed_id"}),
	}).Create(&row)
	if result.Error != nil {
		slog.Error("storage: Failed to join federation", "error", result.Error,
			"chat_id", chatID, "fed_id", fedID)
		return fmt.Errorf("failed to join federation: %w", result.Error)
	}
	return nil
}

// LeaveFederation detaches a chat and reports whether it was a member.
func (s *Storage) LeaveFederation(ctx context.Context, chatID int64) (bool, error) {
	s.fedsMu.Lock()
	defer s.fedsMu.Unlock()

	result := s.db.WithContext(ctx).Where("chat_id = ?", chatID).Delete(&FedChat{})
	if result.Error != nil {
		slog.Error("storage: Failed to leave federation", "error", result.Error, "chat_id", chatID)
		return false, fmt.Errorf("failed to leave federation: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// FederationForChat returns the fed id the chat belongs to, if any.
func (s *Storage) FederationForChat(ctx context.Context, chatID int64) (string, bool, error) {
	var row FedChat
	result := s.db.WithContext(ctx).Where("chat_id = ?", chatID).First(&row)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if result.Error != nil {
		slog.Error("storage: Failed to get chat federation", "error", result.Error, "chat_id", chatID)
		return "", false, fmt.Errorf("failed to get chat federation: %w", result.Error)
	}
	return row.FedID, true, nil
}

// FederationChats returns every member chat of a federation.
func (s *Storage) FederationChats(ctx context.Context, fedID string) ([]int64, error) {
	var rows []FedChat
	result := s.db.WithContext(ctx).Where("fed_id = ?", fedID).Find(&rows)
	if result.Error != nil {
		slog.Error("storage: Failed to list federation chats", "error", result.Error, "fed_id", fedID)
		return nil, fmt.Errorf("failed to list federation chats: %w", result.Error)
	}

	chats := make([]int64, 0, len(rows))
	for _, row := range rows {
		chats = append(chats, row.ChatID)
	}
	return chats, nil
}

// AddFedAdmin grants federation admin rights to a user.
func (s *Storage) AddFedAdmin(ctx context.Context, fedID string, userID int64) error {
	s.fedsMu.Lock()
	defer s.fedsMu.Unlock()

	row := FedAdmin{FedID: fedID, UserID: userID}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if result.Error != nil {
		slog.Error("storage: Failed to add fed admin", "error", result.Error,
			"fed_id", fedID, "user_id", userID)
		return fmt.Errorf("failed to add fed admin: %w", result.Error)
	}
	return nil
}

// IsFedAdmin reports whether the user owns or administers the federation.
func (s *Storage) IsFedAdmin(ctx context.Context, fedID string, userID int64) (bool, error) {
	fed, found, err := s.Federation(ctx, fedID)
	if err != nil {
		return false, err
	}
	if found && fed.OwnerID == userID {
		return true, nil
	}

	var count int64
	result := s.db.WithContext(ctx).
		Model(&FedAdmin{}).
		Where("fed_id = ? AND user_id = ?", fedID, userID).
		Count(&count)
	if result.Error != nil {
		slog.Error("storage: Failed to check fed admin", "error", result.Error,
			"fed_id", fedID, "user_id", userID)
		return false, fmt.Errorf("failed to check fed admin: %w", result.Error)
	}
	return count > 0, nil
}

// AddFedBan records a federation ban, overwriting the reason on re-ban.
func (s *Storage) AddFedBan(ctx context.Context, fedID string, userID int64, reason string) error {
	s.fedsMu.Lock()
	defer s.fedsMu.Unlock()

	row := FedBan{FedID: fedID, UserID: userID, Reason: reason}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "fed_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"reason"}),
	}).Create(&row)
	if result.Error != nil {
		slog.Error("storage: Failed to add fed ban", "error", result.Error,
			"fed_id", fedID, "user_id", userID)
		return fmt.Errorf("failed to add fed ban: %w", result.Error)
	}
	return nil
}

// FedBans returns every recorded ban for a federation.
func (s *Storage) FedBans(ctx context.Context, fedID string) ([]FedBan, error) {
	var bans []FedBan
	result := s.db.WithContext(ctx).Where("fed_id = ?", fedID).Find(&bans)
	if result.Error != nil {
		slog.Error("storage: Failed to list fed bans", "error", result.Error, "fed_id", fedID)
		return nil, fmt.Errorf("failed to list fed bans: %w", result.Error)
	}
	return bans, nil
}
