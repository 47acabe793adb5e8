package bot

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	telego "github.com/mymmrac/telego"

	"telegram-group-guard-bot/storage"
)

// fakeAPI records calls instead of talking to Telegram. Member statuses are
// looked up in the admins map; everyone else is a plain member.
type fakeAPI struct {
	admins map[int64]bool

	sent       []*telego.SendMessageParams
	deleted    []*telego.DeleteMessageParams
	banned     []*telego.BanChatMemberParams
	unbanned   []*telego.UnbanChatMemberParams
	restricted []*telego.RestrictChatMemberParams
	promoted   []*telego.PromoteChatMemberParams

	banErr  error
	banErrs map[int64]error
}

func newFakeAPI() *fakeAPI {
	// The bot itself is an admin, as it would be in a configured chat.
	return &fakeAPI{admins: map[int64]bool{999: true}}
}

func (f *fakeAPI) GetMe() (*telego.User, error) {
	return &telego.User{ID: 999, IsBot: true, Username: "guardbot"}, nil
}

func (f *fakeAPI) SendMessage(params *telego.SendMessageParams) (*telego.Message, error) {
	f.sent = append(f.sent, params)
	return &telego.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeAPI) DeleteMessage(params *telego.DeleteMessageParams) error {
	f.deleted = append(f.deleted, params)
	return nil
}

func (f *fakeAPI) BanChatMember(params *telego.BanChatMemberParams) error {
	if f.banErr != nil {
		return f.banErr
	}
	if err, ok := f.banErrs[params.ChatID.ID]; ok {
		return err
	}
	f.banned = append(f.banned, params)
	return nil
}

func (f *fakeAPI) UnbanChatMember(params *telego.UnbanChatMemberParams) error {
	f.unbanned = append(f.unbanned, params)
	return nil
}

func (f *fakeAPI) RestrictChatMember(params *telego.RestrictChatMemberParams) error {
	f.restricted = append(f.restricted, params)
	return nil
}

func (f *fakeAPI) PromoteChatMember(params *telego.PromoteChatMemberParams) error {
	f.promoted = append(f.promoted, params)
	return nil
}

func (f *fakeAPI) PinChatMessage(params *telego.PinChatMessageParams) error { return nil }

func (f *fakeAPI) GetChat(params *telego.GetChatParams) (*telego.Chat, error) {
	return nil, errors.New("unknown chat")
}

func (f *fakeAPI) GetChatMember(params *telego.GetChatMemberParams) (telego.ChatMember, error) {
	if f.admins[params.UserID] {
		return &telego.ChatMemberAdministrator{User: telego.User{ID: params.UserID}}, nil
	}
	return &telego.ChatMemberMember{User: telego.User{ID: params.UserID}}, nil
}

func (f *fakeAPI) GetChatAdministrators(params *telego.GetChatAdministratorsParams) ([]telego.ChatMember, error) {
	var members []telego.ChatMember
	for id := range f.admins {
		members = append(members, &telego.ChatMemberAdministrator{User: telego.User{ID: id}})
	}
	return members, nil
}

func newTestBot(t *testing.T, api *fakeAPI, cfg Config) *Bot {
	t.Helper()

	store, err := storage.New(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("storage.New() failed: %v", err)
	}

	b := New(api, store, nil, cfg)

	me, err := api.GetMe()
	if err != nil {
		t.Fatalf("GetMe() failed: %v", err)
	}
	b.me = me

	return b
}

func groupMessage(chatID, userID int64, text string) telego.Update {
	return telego.Update{Message: &telego.Message{
		MessageID: 1,
		Chat:      telego.Chat{ID: chatID, Type: telego.ChatTypeSupergroup, Title: "Test Group"},
		From:      &telego.User{ID: userID, FirstName: "User"},
		Text:      text,
	}}
}

func replyMessage(chatID, userID, targetID int64, text string) telego.Update {
	u := groupMessage(chatID, userID, text)
	u.Message.ReplyToMessage = &telego.Message{
		MessageID: 2,
		Chat:      u.Message.Chat,
		From:      &telego.User{ID: targetID, FirstName: "Target"},
	}
	return u
}

func lastText(t *testing.T, api *fakeAPI) string {
	t.Helper()
	if len(api.sent) == 0 {
		t.Fatal("no message was sent")
	}
	return api.sent[len(api.sent)-1].Text
}

func TestAdminCommandRejectedForNonAdmin(t *testing.T) {
	api := newFakeAPI()
	b := newTestBot(t, api, Config{})

	b.dispatcher.Dispatch(b, replyMessage(-1, 50, 60, "/ban"))

	if len(api.banned) != 0 {
		t.Errorf("non-admin triggered a ban: %+v", api.banned)
	}
	if got := lastText(t, api); got != "This command is restricted to chat administrators." {
		t.Errorf("unexpected refusal text: %q", got)
	}
}

func TestBanByAdmin(t *testing.T) {
	api := newFakeAPI()
	api.admins[50] = true
	b := newTestBot(t, api, Config{})

	b.dispatcher.Dispatch(b, replyMessage(-1, 50, 60, "/ban being rude"))

	if len(api.banned) != 1 {
		t.Fatalf("expected 1 ban, got %d", len(api.banned))
	}
	if api.banned[0].UserID != 60 {
		t.Errorf("banned the wrong user: %d", api.banned[0].UserID)
	}
}

func TestSudoUserPassesAdminGate(t *testing.T) {
	api := newFakeAPI()
	b := newTestBot(t, api, Config{OwnerID: 1, SudoUsers: []int64{70}})

	b.dispatcher.Dispatch(b, replyMessage(-1, 70, 60, "/ban"))

	if len(api.banned) != 1 {
		t.Errorf("sudo user could not ban, bans: %d", len(api.banned))
	}
}

func TestWarnEscalationBansExactlyOnce(t *testing.T) {
	api := newFakeAPI()
	api.admins[50] = true
	b := newTestBot(t, api, Config{})

	for i := 0; i < 3; i++ {
		b.dispatcher.Dispatch(b, replyMessage(-1, 50, 60, "/warn spam"))
	}

	if len(api.banned) != 1 {
		t.Fatalf("expected exactly 1 ban at the warn limit, got %d", len(api.banned))
	}

	// The counter was reset on ban, so the next warn starts over.
	count, _, err := b.store.Warns(context.Background(), -1, 60)
	if err != nil {
		t.Fatalf("Warns() failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected warn count reset to 0 after ban, got %d", count)
	}

	b.dispatcher.Dispatch(b, replyMessage(-1, 50, 60, "/warn again"))
	if len(api.banned) != 1 {
		t.Errorf("a fresh warn after the ban triggered another ban")
	}
}

func TestWarnRefusedForAdminTarget(t *testing.T) {
	api := newFakeAPI()
	api.admins[50] = true
	api.admins[60] = true
	b := newTestBot(t, api, Config{})

	b.dispatcher.Dispatch(b, replyMessage(-1, 50, 60, "/warn"))

	count, _, err := b.store.Warns(context.Background(), -1, 60)
	if err != nil {
		t.Fatalf("Warns() failed: %v", err)
	}
	if count != 0 {
		t.Errorf("an admin was warned, count %d", count)
	}
}

func TestBlacklistedMessageDeleted(t *testing.T) {
	api := newFakeAPI()
	api.admins[50] = true
	b := newTestBot(t, api, Config{})

	b.dispatcher.Dispatch(b, groupMessage(-1, 50, "/addblacklist badword"))

	b.dispatcher.Dispatch(b, groupMessage(-1, 60, "that is a BadWord indeed"))
	if len(api.deleted) != 1 {
		t.Fatalf("expected the message to be deleted, deletions: %d", len(api.deleted))
	}

	// Substrings inside longer words are not triggers.
	b.dispatcher.Dispatch(b, groupMessage(-1, 60, "badwordish things"))
	if len(api.deleted) != 1 {
		t.Errorf("a non-word match was deleted")
	}

	// Admins are exempt.
	b.dispatcher.Dispatch(b, groupMessage(-1, 50, "badword from an admin"))
	if len(api.deleted) != 1 {
		t.Errorf("an admin message was deleted")
	}
}

func TestFloodBan(t *testing.T) {
	api := newFakeAPI()
	api.admins[50] = true
	b := newTestBot(t, api, Config{})

	b.dispatcher.Dispatch(b, groupMessage(-1, 50, "/setflood 3"))

	for i := 0; i < 4; i++ {
		b.dispatcher.Dispatch(b, groupMessage(-1, 60, "hi"))
	}

	if len(api.banned) != 1 {
		t.Fatalf("expected 1 flood ban, got %d", len(api.banned))
	}
	if api.banned[0].UserID != 60 {
		t.Errorf("banned the wrong user: %d", api.banned[0].UserID)
	}
}

func TestNotesLifecycle(t *testing.T) {
	api := newFakeAPI()
	api.admins[50] = true
	b := newTestBot(t, api, Config{})

	b.dispatcher.Dispatch(b, groupMessage(-1, 50, "/save FAQ read the pinned message"))
	b.dispatcher.Dispatch(b, groupMessage(-1, 60, "/get faq"))

	if got := lastText(t, api); got != "read the pinned message" {
		t.Errorf("unexpected note content: %q", got)
	}

	b.dispatcher.Dispatch(b, groupMessage(-1, 50, "/clear faq"))
	b.dispatcher.Dispatch(b, groupMessage(-1, 60, "/get faq"))

	if got := lastText(t, api); got != "There is no note named 'faq'." {
		t.Errorf("unexpected reply after clearing: %q", got)
	}
}

func TestKarmaVoteFlow(t *testing.T) {
	api := newFakeAPI()
	b := newTestBot(t, api, Config{})

	b.dispatcher.Dispatch(b, replyMessage(-1, 50, 60, "+1"))

	count, err := b.store.Karma(context.Background(), -1, 60)
	if err != nil {
		t.Fatalf("Karma() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected karma 1, got %d", count)
	}

	// A second vote inside the cooldown is ignored.
	b.dispatcher.Dispatch(b, replyMessage(-1, 50, 60, "+1"))
	count, err = b.store.Karma(context.Background(), -1, 60)
	if err != nil {
		t.Fatalf("Karma() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("cooldown did not hold, karma %d", count)
	}

	// Self-votes never count.
	b.dispatcher.Dispatch(b, replyMessage(-1, 70, 70, "+1"))
	count, err = b.store.Karma(context.Background(), -1, 70)
	if err != nil {
		t.Fatalf("Karma() failed: %v", err)
	}
	if count != 0 {
		t.Errorf("self-vote counted, karma %d", count)
	}
}

func TestFederationBanBestEffort(t *testing.T) {
	api := newFakeAPI()
	api.banErrs = map[int64]error{-3: errors.New("not enough rights")}
	b := newTestBot(t, api, Config{})
	ctx := context.Background()

	fed := storage.Federation{FedID: "fed-1", OwnerID: 50, Name: "my fed"}
	if err := b.store.CreateFederation(ctx, fed); err != nil {
		t.Fatalf("CreateFederation() failed: %v", err)
	}
	for _, chatID := range []int64{-1, -2, -3} {
		if err := b.store.JoinFederation(ctx, chatID, "fed-1"); err != nil {
			t.Fatalf("JoinFederation() failed: %v", err)
		}
	}

	b.dispatcher.Dispatch(b, replyMessage(-1, 50, 60, "/fban spamming everywhere"))

	if len(api.banned) != 2 {
		t.Fatalf("expected bans in 2 of 3 chats, got %d", len(api.banned))
	}

	bans, err := b.store.FedBans(ctx, "fed-1")
	if err != nil {
		t.Fatalf("FedBans() failed: %v", err)
	}
	if len(bans) != 1 || bans[0].UserID != 60 {
		t.Errorf("federation ban not recorded: %+v", bans)
	}

	// A non-admin member of the federation cannot fban.
	before := len(api.banned)
	b.dispatcher.Dispatch(b, replyMessage(-1, 77, 88, "/fban"))
	if len(api.banned) != before {
		t.Error("a non-admin issued a federation ban")
	}
}

func TestEnforcementSkippedForCommands(t *testing.T) {
	api := newFakeAPI()
	api.admins[50] = true
	b := newTestBot(t, api, Config{})

	// A locked chat still accepts admin commands.
	b.dispatcher.Dispatch(b, groupMessage(-1, 50, "/lock url"))
	b.dispatcher.Dispatch(b, groupMessage(-1, 50, "/locks"))

	if got := lastText(t, api); got != "Currently locked: url" {
		t.Errorf("unexpected locks listing: %q", got)
	}
}

// stubAI returns a canned completion or a canned error.
type stubAI struct {
	reply string
	err   error
}

func (s stubAI) Complete(ctx context.Context, prompt, message string) (string, error) {
	return s.reply, s.err
}

func newMemberUpdate(chatID int64, member telego.User) telego.Update {
	u := groupMessage(chatID, member.ID, "")
	u.Message.NewChatMembers = []telego.User{member}
	return u
}

func TestOwnerCommandRefusedForNonOwner(t *testing.T) {
	api := newFakeAPI()
	api.admins[50] = true
	b := newTestBot(t, api, Config{OwnerID: 1})
	b.ai = stubAI{reply: "hello"}

	b.dispatcher.Dispatch(b, groupMessage(-1, 50, "/gai on"))

	if got := lastText(t, api); got != "This command is restricted to the bot owner." {
		t.Errorf("unexpected refusal text: %q", got)
	}

	enabled, _, err := b.store.AISettings(context.Background(), -1)
	if err != nil {
		t.Fatalf("AISettings() failed: %v", err)
	}
	if enabled {
		t.Error("a non-owner toggled AI on")
	}
}

func TestMuteRestrictsPermissions(t *testing.T) {
	api := newFakeAPI()
	api.admins[50] = true
	b := newTestBot(t, api, Config{})

	b.dispatcher.Dispatch(b, replyMessage(-1, 50, 60, "/mute"))

	if len(api.restricted) != 1 {
		t.Fatalf("expected 1 restriction, got %d", len(api.restricted))
	}
	perms := api.restricted[0].Permissions
	if perms.CanSendMessages == nil || *perms.CanSendMessages {
		t.Errorf("mute did not revoke message permission: %+v", perms)
	}
	if perms.CanSendOtherMessages == nil || *perms.CanSendOtherMessages {
		t.Errorf("mute did not revoke media permission: %+v", perms)
	}

	b.dispatcher.Dispatch(b, replyMessage(-1, 50, 60, "/unmute"))

	if len(api.restricted) != 2 {
		t.Fatalf("expected 2 restrictions, got %d", len(api.restricted))
	}
	perms = api.restricted[1].Permissions
	if perms.CanSendMessages == nil || !*perms.CanSendMessages {
		t.Errorf("unmute did not restore message permission: %+v", perms)
	}
}

func TestMuteRefusedForBotAndAdmins(t *testing.T) {
	api := newFakeAPI()
	api.admins[50] = true
	api.admins[60] = true
	b := newTestBot(t, api, Config{})

	b.dispatcher.Dispatch(b, replyMessage(-1, 50, 999, "/mute"))
	if got := lastText(t, api); got != "I am not going to mute myself." {
		t.Errorf("unexpected self-mute reply: %q", got)
	}

	b.dispatcher.Dispatch(b, replyMessage(-1, 50, 60, "/mute"))
	if got := lastText(t, api); got != "I cannot mute an administrator." {
		t.Errorf("unexpected admin-mute reply: %q", got)
	}

	if len(api.restricted) != 0 {
		t.Errorf("a protected user was restricted: %+v", api.restricted)
	}
}

func TestPromoteGuards(t *testing.T) {
	api := newFakeAPI()
	api.admins[50] = true
	api.admins[60] = true
	b := newTestBot(t, api, Config{})

	b.dispatcher.Dispatch(b, replyMessage(-1, 50, 999, "/promote"))
	if got := lastText(t, api); got != "I am not going to promote myself." {
		t.Errorf("unexpected self-promote reply: %q", got)
	}

	b.dispatcher.Dispatch(b, replyMessage(-1, 50, 60, "/promote"))
	if got := lastText(t, api); got != "Target is already an administrator." {
		t.Errorf("unexpected admin-promote reply: %q", got)
	}

	if len(api.promoted) != 0 {
		t.Errorf("a guarded promotion went through: %+v", api.promoted)
	}

	b.dispatcher.Dispatch(b, replyMessage(-1, 50, 70, "/promote"))
	if len(api.promoted) != 1 {
		t.Fatalf("expected 1 promotion, got %d", len(api.promoted))
	}
	if api.promoted[0].CanDeleteMessages == nil || !*api.promoted[0].CanDeleteMessages {
		t.Errorf("promotion missing delete permission: %+v", api.promoted[0])
	}
}

func TestAIWelcomeGreeting(t *testing.T) {
	api := newFakeAPI()
	b := newTestBot(t, api, Config{})
	b.ai = stubAI{reply: "Glad to have you here, Newbie!"}

	if err := b.store.SetAIEnabled(context.Background(), -1, true); err != nil {
		t.Fatalf("SetAIEnabled() failed: %v", err)
	}

	b.dispatcher.Dispatch(b, newMemberUpdate(-1, telego.User{ID: 123, FirstName: "Newbie"}))

	if got := lastText(t, api); got != "Glad to have you here, Newbie!" {
		t.Errorf("expected the generated greeting, got %q", got)
	}
}

func TestAIWelcomeFallsBackOnError(t *testing.T) {
	api := newFakeAPI()
	b := newTestBot(t, api, Config{})
	b.ai = stubAI{err: errors.New("backend down")}

	if err := b.store.SetAIEnabled(context.Background(), -1, true); err != nil {
		t.Fatalf("SetAIEnabled() failed: %v", err)
	}

	b.dispatcher.Dispatch(b, newMemberUpdate(-1, telego.User{ID: 123, FirstName: "Newbie"}))

	if len(api.sent) != 1 {
		t.Fatalf("expected a fallback greeting, sent: %d", len(api.sent))
	}
	if got := lastText(t, api); got == "" || got == "backend down" {
		t.Errorf("unexpected fallback greeting: %q", got)
	}
}

func TestBackupWithoutNameUsesDefaultSlot(t *testing.T) {
	api := newFakeAPI()
	api.admins[50] = true
	b := newTestBot(t, api, Config{})
	ctx := context.Background()

	if err := b.store.SetSetting(ctx, -1, "rules", "be nice"); err != nil {
		t.Fatalf("SetSetting() failed: %v", err)
	}

	b.dispatcher.Dispatch(b, groupMessage(-1, 50, "/backup"))

	_, found, err := b.store.GetBackup(ctx, -1, "default")
	if err != nil {
		t.Fatalf("GetBackup() failed: %v", err)
	}
	if !found {
		t.Error("backup without a name did not land in the default slot")
	}
}
