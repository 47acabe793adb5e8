package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	ErrOpenDatabase    = errors.New("cannot open database")
	ErrMigrationFailed = errors.New("failed to migrate schema")
)

// Storage is the per-chat state store backing every bot feature. All
// read-modify-write operations are serialized per table so that concurrent
// handler invocations cannot lose updates; plain reads go straight to the
// database.
type Storage struct {
	db *gorm.DB

	settingsMu  sync.Mutex
	locksMu     sync.Mutex
	warnsMu     sync.Mutex
	blacklistMu sync.Mutex
	karmaMu     sync.Mutex
	notesMu     sync.Mutex
	floodMu     sync.Mutex
	fedsMu      sync.Mutex
	welcomeMu   sync.Mutex
	aiMu        sync.Mutex
	backupsMu   sync.Mutex
	remindersMu sync.Mutex
}

// New opens the database behind dsn and migrates the schema. A dsn starting
// with postgres:// or postgresql:// selects the postgres driver, anything
// else is treated as a sqlite file path.
func New(dsn string) (*Storage, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		slog.Error("storage: Failed to connect to database", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrOpenDatabase, err)
	}

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Storage) migrate() error {
	err := s.db.AutoMigrate(allModels()...)
	if err != nil {
		slog.Error("storage: Failed to migrate database", "error", err)
		return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
	}

	return nil
}

func allModels() []any {
	return []any{
		&ChatSetting{},
		&Lock{},
		&WarnRecord{},
		&WarnSetting{},
		&BlacklistTrigger{},
		&KarmaRecord{},
		&Note{},
		&FloodCounter{},
		&Federation{},
		&FedChat{},
		&FedAdmin{},
		&FedBan{},
		&WelcomeSetting{},
		&AISetting{},
		&Backup{},
		&Reminder{},
	}
}

// chatKeyedModels lists every model keyed by chat_id, for chat migration.
// Federations themselves are keyed by fed id and stay put; the FedChat
// membership row carries the chat id and is re-keyed.
func chatKeyedModels() []any {
	return []any{
		&ChatSetting{},
		&Lock{},
		&WarnRecord{},
		&WarnSetting{},
		&BlacklistTrigger{},
		&KarmaRecord{},
		&Note{},
		&FloodCounter{},
		&FedChat{},
		&WelcomeSetting{},
		&AISetting{},
		&Backup{},
		&Reminder{},
	}
}

// MigrateChat re-keys every row belonging to oldChatID to newChatID in one
// transaction, so all state for a chat moves together or not at all.
func (s *Storage) MigrateChat(ctx context.Context, oldChatID, newChatID int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range chatKeyedModels() {
			result := tx.Model(model).Where("chat_id = ?", oldChatID).Update("chat_id", newChatID)
			if result.Error != nil {
				return result.Error
			}
		}
		return nil
	})
	if err != nil {
		slog.Error("storage: Failed to migrate chat", "error", err,
			"old_chat_id", oldChatID, "new_chat_id", newChatID)
		return fmt.Errorf("failed to migrate chat: %w", err)
	}
	return nil
}
