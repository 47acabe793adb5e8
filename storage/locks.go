package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockColumns maps user-facing lock type names to their columns. The map is
// the single source of truth for which lock types exist.
var lockColumns = map[string]string{
	"sticker":  "sticker",
	"audio":    "audio",
	"voice":    "voice",
	"document": "document",
	"video":    "video",
	"photo":    "photo",
	"gif":      "gif",
	"url":      "url",
	"contact":  "contact",
	"location": "location",
	"forward":  "forward",
	"game":     "game",
	"bot":      "bot",
}

var ErrUnknownLockType = errors.New("unknown lock type")

// LockTypes returns the valid lock type names in alphabetical order.
func LockTypes() []string {
	types := make([]string, 0, len(lockColumns))
	for name := range lockColumns {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}

// SetLock flips one content-type lock for a chat, creating the row lazily.
func (s *Storage) SetLock(ctx context.Context, chatID int64, lockType string, locked bool) error {
	column, ok := lockColumns[lockType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLockType, lockType)
	}

	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	row := Lock{ChatID: chatID}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if result.Error != nil {
		slog.Error("storage: Failed to init locks row", "error", result.Error, "chat_id", chatID)
		return fmt.Errorf("failed to init locks: %w", result.Error)
	}

	result = s.db.WithContext(ctx).
		Model(&Lock{}).
		Where("chat_id = ?", chatID).
		Update(column, locked)
	if result.Error != nil {
		slog.Error("storage: Failed to update lock", "error", result.Error,
			"chat_id", chatID, "lock_type", lockType)
		return fmt.Errorf("failed to update lock: %w", result.Error)
	}
	return nil
}

// Locks returns the lock flags for a chat; a chat without a row has
// everything unlocked.
func (s *Storage) Locks(ctx context.Context, chatID int64) (Lock, error) {
	var row Lock
	result := s.db.WithContext(ctx).Where("chat_id = ?", chatID).First(&row)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return Lock{ChatID: chatID}, nil
	}
	if result.Error != nil {
		slog.Error("storage: Failed to get locks", "error", result.Error, "chat_id", chatID)
		return Lock{}, fmt.Errorf("failed to get locks: %w", result.Error)
	}
	return row, nil
}

// IsLocked reports whether the given lock type is active. Unknown types are
// treated as unlocked.
func (l Lock) IsLocked(lockType string) bool {
	switch lockType {
	case "sticker":
		return l.Sticker
	case "audio":
		return l.Audio
	case "voice":
		return l.Voice
	case "document":
		return l.Document
	case "video":
		return l.Video
	case "photo":
		return l.Photo
	case "gif":
		return l.GIF
	case "url":
		return l.URL
	case "contact":
		return l.Contact
	case "location":
		return l.Location
	case "forward":
		return l.Forward
	case "game":
		return l.Game
	case "bot":
		return l.Bot
	}
	return false
}

// Active returns the lock types currently enabled, in alphabetical order.
func (l Lock) Active() []string {
	var active []string
	for _, name := range LockTypes() {
		if l.IsLocked(name) {
			active = append(active, name)
		}
	}
	return active
}
