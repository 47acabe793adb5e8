package storage

import "time"

// ChatSetting is one named configuration value for a chat. Absence of a row
// means the feature's default applies.
type ChatSetting struct {
	ChatID    int64  `gorm:"primaryKey;autoIncrement:false"`
	Name      string `gorm:"primaryKey;size:64"`
	Value     string
	UpdatedAt time.Time
}

// Lock holds the per-content-type lock flags for a chat. A flag set to true
// means that content type is locked; a missing row means nothing is locked.
type Lock struct {
	ChatID   int64 `gorm:"primaryKey;autoIncrement:false"`
	Sticker  bool
	Audio    bool
	Voice    bool
	Document bool
	Video    bool
	Photo    bool
	GIF      bool
	URL      bool
	Contact  bool
	Location bool
	Forward  bool
	Game     bool
	Bot      bool
}

type WarnRecord struct {
	ChatID  int64 `gorm:"primaryKey;autoIncrement:false"`
	UserID  int64 `gorm:"primaryKey;autoIncrement:false"`
	Count   int
	Reasons string
}

type WarnSetting struct {
	ChatID int64 `gorm:"primaryKey;autoIncrement:false"`
	Limit  int   `gorm:"column:warn_limit"`
}

// BlacklistTrigger stores one case-folded trigger for a chat.
type BlacklistTrigger struct {
	ChatID  int64  `gorm:"primaryKey;autoIncrement:false"`
	Trigger string `gorm:"primaryKey;size:512;column:phrase"`
}

type KarmaRecord struct {
	ChatID int64 `gorm:"primaryKey;autoIncrement:false"`
	UserID int64 `gorm:"primaryKey;autoIncrement:false"`
	Count  int
}

// Note is a named saved text for a chat. Names are stored case-folded and
// re-saving a name overwrites the previous value.
type Note struct {
	ChatID    int64  `gorm:"primaryKey;autoIncrement:false"`
	Name      string `gorm:"primaryKey;size:512"`
	Value     string
	UpdatedAt time.Time
}

// FloodCounter tracks the current run of consecutive messages by one sender.
// Limit 0 disables flood control for the chat.
type FloodCounter struct {
	ChatID     int64 `gorm:"primaryKey;autoIncrement:false"`
	LastUserID int64
	Count      int
	Limit      int `gorm:"column:flood_limit"`
}

type Federation struct {
	FedID   string `gorm:"primaryKey;size:36"`
	OwnerID int64
	Name    string
	Rules   string
}

// FedChat maps a chat to the single federation it belongs to.
type FedChat struct {
	ChatID int64  `gorm:"primaryKey;autoIncrement:false"`
	FedID  string `gorm:"size:36;index"`
}

type FedAdmin struct {
	FedID  string `gorm:"primaryKey;size:36"`
	UserID int64  `gorm:"primaryKey;autoIncrement:false"`
}

type FedBan struct {
	FedID  string `gorm:"primaryKey;size:36"`
	UserID int64  `gorm:"primaryKey;autoIncrement:false"`
	Reason string
}

// WelcomeSetting controls greeting of new members. A missing row means
// welcoming is on with the default message.
type WelcomeSetting struct {
	ChatID  int64 `gorm:"primaryKey;autoIncrement:false"`
	Enabled bool
	Custom  string
}

// AISetting controls the AI chat passthrough. A missing row means disabled
// with the default prompt.
type AISetting struct {
	ChatID  int64 `gorm:"primaryKey;autoIncrement:false"`
	Enabled bool
	Prompt  string
}

// Backup is an opaque serialized snapshot of a chat's settings, overwritten
// on re-save under the same name.
type Backup struct {
	ChatID    int64  `gorm:"primaryKey;autoIncrement:false"`
	Name      string `gorm:"primaryKey;size:100"`
	Data      string
	CreatedAt time.Time
}

type Reminder struct {
	ID     uint  `gorm:"primaryKey"`
	ChatID int64 `gorm:"index"`
	UserID int64
	Text   string
	DueAt  time.Time `gorm:"index"`
	// RepeatEvery is the re-arm interval in seconds, 0 for one-shot.
	RepeatEvery int64
}
