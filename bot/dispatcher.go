package bot

import (
	"errors"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	t "github.com/mymmrac/telego"
)

// ErrStopPropagation is returned by a handler that consumed the update, e.g.
// by deleting the message; no later group gets to see it.
var ErrStopPropagation = errors.New("stop update propagation")

// Handler processes one matched update.
type Handler func(c *Context) error

// Predicate decides whether a route fires for an update.
type Predicate func(u t.Update) bool

type route struct {
	name      string
	group     int
	predicate Predicate
	handler   Handler
}

// Dispatcher routes updates through an explicit registry of
// (predicate, group, handler) routes. Groups run in ascending order,
// routes within a group in registration order. Every matching route runs
// unless one of them stops propagation; a route's error or panic is logged
// and never affects the others.
type Dispatcher struct {
	routes []route
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Handle registers a route. Smaller group values run earlier.
func (d *Dispatcher) Handle(name string, group int, predicate Predicate, handler Handler) {
	d.routes = append(d.routes, route{
		name:      name,
		group:     group,
		predicate: predicate,
		handler:   handler,
	})
	sort.SliceStable(d.routes, func(i, j int) bool {
		return d.routes[i].group < d.routes[j].group
	})
}

// Dispatch runs every matching route for the update.
func (d *Dispatcher) Dispatch(b *Bot, u t.Update) {
	for _, r := range d.routes {
		if !r.predicate(u) {
			continue
		}
		if stop := d.run(b, r, u); stop {
			return
		}
	}
}

func (d *Dispatcher) run(b *Bot, r route, u t.Update) (stop bool) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("dispatcher: Handler panicked", "handler", r.name, "panic", rec,
				"chat_id", updateChatID(u), "user_id", updateUserID(u))
		}
	}()

	err := r.handler(newContext(b, u))
	if errors.Is(err, ErrStopPropagation) {
		return true
	}
	if err != nil {
		slog.Error("dispatcher: Handler failed", "error", err, "handler", r.name,
			"chat_id", updateChatID(u), "user_id", updateUserID(u))
	}
	return false
}

func updateChatID(u t.Update) int64 {
	if u.Message != nil {
		return u.Message.Chat.ID
	}
	return 0
}

func updateUserID(u t.Update) int64 {
	if u.Message != nil && u.Message.From != nil {
		return u.Message.From.ID
	}
	return 0
}

// Command matches /name or /name@anything at the start of the message text.
func Command(names ...string) Predicate {
	return func(u t.Update) bool {
		cmd := commandName(u)
		if cmd == "" {
			return false
		}
		for _, name := range names {
			if cmd == name {
				return true
			}
		}
		return false
	}
}

// commandName extracts the slash command from a message, without the leading
// slash or a trailing @botname mention.
func commandName(u t.Update) string {
	if u.Message == nil || !strings.HasPrefix(u.Message.Text, "/") {
		return ""
	}
	first := strings.Fields(u.Message.Text)[0]
	first = strings.TrimPrefix(first, "/")
	if at := strings.IndexByte(first, '@'); at >= 0 {
		first = first[:at]
	}
	return strings.ToLower(first)
}

// TextRegex matches the full message text against re.
func TextRegex(re *regexp.Regexp) Predicate {
	return func(u t.Update) bool {
		return u.Message != nil && u.Message.Text != "" && re.MatchString(u.Message.Text)
	}
}

// HasMessage matches any update carrying a message.
func HasMessage() Predicate {
	return func(u t.Update) bool {
		return u.Message != nil
	}
}

// IsReply matches messages that reply to another message.
func IsReply() Predicate {
	return func(u t.Update) bool {
		return u.Message != nil && u.Message.ReplyToMessage != nil
	}
}

// GroupChat matches messages in group or supergroup chats.
func GroupChat() Predicate {
	return func(u t.Update) bool {
		if u.Message == nil {
			return false
		}
		chatType := u.Message.Chat.Type
		return chatType == t.ChatTypeGroup || chatType == t.ChatTypeSupergroup
	}
}

// PrivateChat matches messages in private chats.
func PrivateChat() Predicate {
	return func(u t.Update) bool {
		return u.Message != nil && u.Message.Chat.Type == t.ChatTypePrivate
	}
}

// NewMembers matches service messages announcing new chat members.
func NewMembers() Predicate {
	return func(u t.Update) bool {
		return u.Message != nil && len(u.Message.NewChatMembers) > 0
	}
}

// Migration matches the service message Telegram sends when a group is
// upgraded to a supergroup and its chat id changes.
func Migration() Predicate {
	return func(u t.Update) bool {
		return u.Message != nil && u.Message.MigrateToChatID != 0
	}
}

// And composes predicates; all must match.
func And(predicates ...Predicate) Predicate {
	return func(u t.Update) bool {
		for _, p := range predicates {
			if !p(u) {
				return false
			}
		}
		return true
	}
}
