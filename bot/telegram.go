package bot

import (
	t "github.com/mymmrac/telego"
)

// API is the slice of the Telegram Bot API surface the handlers use.
// *telego.Bot satisfies it; tests substitute a fake.
type API interface {
	GetMe() (*t.User, error)
	SendMessage(params *t.SendMessageParams) (*t.Message, error)
	DeleteMessage(params *t.DeleteMessageParams) error
	BanChatMember(params *t.BanChatMemberParams) error
	UnbanChatMember(params *t.UnbanChatMemberParams) error
	RestrictChatMember(params *t.RestrictChatMemberParams) error
	PromoteChatMember(params *t.PromoteChatMemberParams) error
	PinChatMessage(params *t.PinChatMessageParams) error
	GetChat(params *t.GetChatParams) (*t.Chat, error)
	GetChatMember(params *t.GetChatMemberParams) (t.ChatMember, error)
	GetChatAdministrators(params *t.GetChatAdministratorsParams) ([]t.ChatMember, error)
}

func boolPtr(b bool) *bool { return &b }

// mutedPermissions revokes everything a restricted member could do.
var mutedPermissions = t.ChatPermissions{
	CanSendMessages:       boolPtr(false),
	CanSendAudios:         boolPtr(false),
	CanSendDocuments:      boolPtr(false),
	CanSendPhotos:         boolPtr(false),
	CanSendVideos:         boolPtr(false),
	CanSendVideoNotes:     boolPtr(false),
	CanSendVoiceNotes:     boolPtr(false),
	CanSendPolls:          boolPtr(false),
	CanSendOtherMessages:  boolPtr(false),
	CanAddWebPagePreviews: boolPtr(false),
}

// unmutedPermissions restores the default member permissions.
var unmutedPermissions = t.ChatPermissions{
	CanSendMessages:       boolPtr(true),
	CanSendAudios:         boolPtr(true),
	CanSendDocuments:      boolPtr(true),
	CanSendPhotos:         boolPtr(true),
	CanSendVideos:         boolPtr(true),
	CanSendVideoNotes:     boolPtr(true),
	CanSendVoiceNotes:     boolPtr(true),
	CanSendPolls:          boolPtr(true),
	CanSendOtherMessages:  boolPtr(true),
	CanAddWebPagePreviews: boolPtr(true),
}
