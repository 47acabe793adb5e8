package bot

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	t "github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"telegram-group-guard-bot/ai"
	"telegram-group-guard-bot/storage"
)

// Config carries the authorization and logging settings that do not live in
// the per-chat settings store.
type Config struct {
	OwnerID      int64
	SudoUsers    []int64
	LogChannelID int64
}

type Bot struct {
	api        API
	store      *storage.Storage
	ai         ai.Client
	cfg        Config
	dispatcher *Dispatcher
	me         *t.User
	sudo       map[int64]struct{}

	karmaMu   sync.Mutex
	karmaLast map[string]time.Time
}

func New(api API, store *storage.Storage, aiClient ai.Client, cfg Config) *Bot {
	b := &Bot{
		api:        api,
		store:      store,
		ai:         aiClient,
		cfg:        cfg,
		dispatcher: NewDispatcher(),
		sudo:       make(map[int64]struct{}, len(cfg.SudoUsers)),
		karmaLast:  make(map[string]time.Time),
	}

	for _, id := range cfg.SudoUsers {
		b.sudo[id] = struct{}{}
	}

	b.registerRoutes()

	return b
}

// registerRoutes wires every handler into the dispatcher. Lower groups run
// first: chat migration must rewrite the settings key before anything reads
// it, the flood counter has to see every message before commands consume
// them, and content enforcement runs last so admin commands always work even
// in a locked-down chat.
func (b *Bot) registerRoutes() {
	d := b.dispatcher

	d.Handle("migration", 0, Migration(), b.migrationHandler)

	d.Handle("flood-check", 1, And(HasMessage(), GroupChat()), b.floodCheckHandler)

	d.Handle("start", 2, Command("start"), b.startHandler)
	d.Handle("help", 2, Command("help"), b.helpHandler)

	d.Handle("ban", 2, And(Command("ban"), GroupChat()), b.userAdmin(b.botAdmin(b.banHandler)))
	d.Handle("kick", 2, And(Command("kick"), GroupChat()), b.userAdmin(b.botAdmin(b.kickHandler)))
	d.Handle("mute", 2, And(Command("mute"), GroupChat()), b.userAdmin(b.botAdmin(b.muteHandler)))
	d.Handle("unmute", 2, And(Command("unmute"), GroupChat()), b.userAdmin(b.botAdmin(b.unmuteHandler)))
	d.Handle("promote", 2, And(Command("promote"), GroupChat()), b.userAdmin(b.botAdmin(b.promoteHandler)))
	d.Handle("demote", 2, And(Command("demote"), GroupChat()), b.userAdmin(b.botAdmin(b.demoteHandler)))
	d.Handle("adminlist", 2, And(Command("adminlist", "admins"), GroupChat()), b.adminListHandler)
	d.Handle("pin", 2, And(Command("pin"), GroupChat(), IsReply()), b.userAdmin(b.botAdmin(b.pinHandler)))
	d.Handle("purge", 2, And(Command("purge"), GroupChat(), IsReply()), b.userAdmin(b.botAdmin(b.purgeHandler)))

	d.Handle("warn", 2, And(Command("warn"), GroupChat()), b.userAdmin(b.warnHandler))
	d.Handle("rmwarn", 2, And(Command("rmwarn"), GroupChat()), b.userAdmin(b.rmWarnHandler))
	d.Handle("resetwarns", 2, And(Command("resetwarns"), GroupChat()), b.userAdmin(b.resetWarnsHandler))
	d.Handle("warns", 2, And(Command("warns"), GroupChat()), b.warnsHandler)
	d.Handle("setwarnlimit", 2, And(Command("setwarnlimit"), GroupChat()), b.userAdmin(b.setWarnLimitHandler))

	d.Handle("addblacklist", 2, And(Command("addblacklist"), GroupChat()), b.userAdmin(b.addBlacklistHandler))
	d.Handle("rmblacklist", 2, And(Command("rmblacklist", "unblacklist"), GroupChat()), b.userAdmin(b.rmBlacklistHandler))
	d.Handle("blacklist", 2, And(Command("blacklist"), GroupChat()), b.blacklistHandler)

	d.Handle("setflood", 2, And(Command("setflood"), GroupChat()), b.userAdmin(b.setFloodHandler))
	d.Handle("flood", 2, And(Command("flood"), GroupChat()), b.floodHandler)

	d.Handle("lock", 2, And(Command("lock"), GroupChat()), b.userAdmin(b.lockHandler))
	d.Handle("unlock", 2, And(Command("unlock"), GroupChat()), b.userAdmin(b.unlockHandler))
	d.Handle("locks", 2, And(Command("locks"), GroupChat()), b.locksHandler)

	d.Handle("karma", 2, And(Command("karma"), GroupChat()), b.karmaHandler)
	d.Handle("karmatop", 2, And(Command("karmatop"), GroupChat()), b.karmaTopHandler)

	d.Handle("save", 2, And(Command("save"), GroupChat()), b.userAdmin(b.saveNoteHandler))
	d.Handle("get", 2, And(Command("get", "note"), GroupChat()), b.getNoteHandler)
	d.Handle("clear", 2, And(Command("clear"), GroupChat()), b.userAdmin(b.clearNoteHandler))
	d.Handle("notes", 2, And(Command("notes", "saved"), GroupChat()), b.notesHandler)

	d.Handle("setwelcome", 2, And(Command("setwelcome"), GroupChat()), b.userAdmin(b.setWelcomeHandler))
	d.Handle("getwelcome", 2, And(Command("getwelcome"), GroupChat()), b.userAdmin(b.getWelcomeHandler))
	d.Handle("welcome", 2, And(Command("welcome"), GroupChat()), b.userAdmin(b.welcomeToggleHandler))
	d.Handle("new-members", 2, NewMembers(), b.newMembersHandler)

	d.Handle("setrules", 2, And(Command("setrules"), GroupChat()), b.userAdmin(b.setRulesHandler))
	d.Handle("rules", 2, And(Command("rules"), GroupChat()), b.rulesHandler)
	d.Handle("setlog", 2, And(Command("setlog"), GroupChat()), b.userAdmin(b.setLogHandler))
	d.Handle("unsetlog", 2, And(Command("unsetlog"), GroupChat()), b.userAdmin(b.unsetLogHandler))

	d.Handle("newfed", 2, And(Command("newfed"), PrivateChat()), b.newFedHandler)
	d.Handle("joinfed", 2, And(Command("joinfed"), GroupChat()), b.userAdmin(b.joinFedHandler))
	d.Handle("leavefed", 2, And(Command("leavefed"), GroupChat()), b.userAdmin(b.leaveFedHandler))
	d.Handle("fban", 2, Command("fban"), b.fbanHandler)
	d.Handle("fedinfo", 2, Command("fedinfo"), b.fedInfoHandler)

	d.Handle("gai", 2, Command("gai"), b.ownerOnly(b.gaiHandler))
	d.Handle("gaiprompt", 2, And(Command("gaiprompt"), GroupChat()), b.userAdmin(b.gaiPromptHandler))
	d.Handle("gchat", 2, Command("gchat"), b.gchatHandler)
	d.Handle("ai-reply", 2, And(HasMessage(), IsReply()), b.aiReplyHandler)

	d.Handle("backup", 2, And(Command("backup"), GroupChat()), b.userAdmin(b.backupHandler))
	d.Handle("restore", 2, And(Command("restore"), GroupChat()), b.userAdmin(b.restoreHandler))

	d.Handle("remind", 2, Command("remind"), b.remindHandler)
	d.Handle("reminders", 2, Command("reminders"), b.remindersHandler)
	d.Handle("delreminder", 2, Command("delreminder"), b.delReminderHandler)

	d.Handle("karma-vote", 2, And(GroupChat(), IsReply(), TextRegex(karmaVoteRe)), b.karmaVoteHandler)

	d.Handle("blacklist-scan", 3, And(HasMessage(), GroupChat()), b.blacklistScanHandler)
	d.Handle("locks-scan", 3, And(HasMessage(), GroupChat()), b.locksScanHandler)
}

// Run consumes updates from the channel until it is closed. It fetches the
// bot's own identity first, which the admin checks need.
func (b *Bot) Run(updates <-chan t.Update) error {
	me, err := b.api.GetMe()
	if err != nil {
		return fmt.Errorf("cannot fetch bot identity: %w", err)
	}
	b.me = me

	slog.Info("Bot started", "id", me.ID, "username", me.Username)

	for update := range updates {
		b.dispatcher.Dispatch(b, update)
	}

	return nil
}

func (b *Bot) startHandler(c *Context) error {
	return c.Reply("Hello! I keep groups tidy: warnings, locks, anti-flood, " +
		"blacklists, notes, karma and federated bans. Send /help for the command list.")
}

func (b *Bot) helpHandler(c *Context) error {
	return c.Reply(helpText)
}

const helpText = `Moderation:
/ban /kick /mute /unmute /promote /demote /pin /purge (admins)
/adminlist
/warn /rmwarn /resetwarns /warns /setwarnlimit

Content filters:
/addblacklist /rmblacklist /blacklist
/lock /unlock /locks
/setflood /flood

Community:
/save /get /clear /notes
/karma /karmatop (reply with + or - to vote)
/setwelcome /getwelcome /welcome on|off
/setrules /rules

Federations:
/newfed (in private) /joinfed /leavefed /fban /fedinfo

Misc:
/remind /reminders /delreminder
/backup /restore
/setlog /unsetlog
/gai on|off (owner) /gaiprompt /gchat`

// logToChannel reports a moderation action to the chat's configured log
// channel, falling back to the global one. Failures are logged and swallowed
// since reporting must never break the action itself.
func (b *Bot) logToChannel(c *Context, text string) {
	channelID := b.cfg.LogChannelID

	if value, err := b.store.GetSetting(c.Ctx(), c.Chat().ID, "log_channel"); err == nil && value != "" {
		if id, perr := parseInt64(value); perr == nil {
			channelID = id
		}
	}

	if channelID == 0 {
		return
	}

	if _, err := b.api.SendMessage(tu.Message(tu.ID(channelID), text)); err != nil {
		slog.Error("Cannot send to log channel", "channel_id", channelID, "error", err)
	}
}
