package bot

import (
	"sync"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"card-game-bot/internal/config"
)

// PrivateAccess remembers users seen in whitelisted groups. Only they may
// talk to the bot privately, where hands and game decisions are sent.
type PrivateAccess struct {
	mu    sync.RWMutex
	users map[int64]struct{}
}

// NewPrivateAccess creates an empty PrivateAccess.
func NewPrivateAccess() *PrivateAccess {
	return &PrivateAccess{users: make(map[int64]struct{})}
}

// Allow lets userID use private chat.
func (a *PrivateAccess) Allow(userID int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.users[userID] = struct{}{}
}

// Allowed reports whether userID may use private chat.
func (a *PrivateAccess) Allowed(userID int64) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.users[userID]
	return ok
}

// WhitelistMiddleware drops updates from chats that are not whitelisted.
// An empty whitelist opens private chats to everyone.
func WhitelistMiddleware(cfg *config.Config, access *PrivateAccess) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chat := c.Chat()
			sender := c.Sender()
			if chat == nil || sender == nil {
				return nil
			}

			if chat.Type == tele.ChatPrivate {
				if len(cfg.Whitelist.Chats) == 0 || access.Allowed(sender.ID) {
					return next(c)
				}
				log.Debug().
					Int64("user_id", sender.ID).
					Msg("Ignoring private chat from user never seen in a whitelisted group")
				return nil
			}

			if !cfg.IsChatAllowed(chat.ID) {
				log.Debug().
					Int64("chat_id", chat.ID).
					Msg("Ignoring update from non-whitelisted chat")
				return nil
			}

			access.Allow(sender.ID)
			return next(c)
		}
	}
}

// AdminMiddleware creates a middleware that checks if the user is an admin.
func AdminMiddleware(cfg *config.Config) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return nil
			}

			if !cfg.IsAdmin(sender.ID) {
				log.Warn().
					Int64("user_id", sender.ID).
					Str("command", c.Text()).
					Msg("Non-admin attempted admin command")
				return c.Reply("❌ Permission denied: admins only")
			}

			return next(c)
		}
	}
}

// LoggingMiddleware logs every update at debug level.
func LoggingMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			logEvent := log.Debug()
			if sender := c.Sender(); sender != nil {
				logEvent = logEvent.
					Int64("user_id", sender.ID).
					Str("username", sender.Username)
			}
			if chat := c.Chat(); chat != nil {
				logEvent = logEvent.
					Int64("chat_id", chat.ID).
					Str("chat_type", string(chat.Type))
			}
			if cb := c.Callback(); cb != nil {
				logEvent = logEvent.Str("callback", cb.Data)
			} else {
				logEvent = logEvent.Str("text", c.Text())
			}
			logEvent.Msg("Received update")

			return next(c)
		}
	}
}

// RecoveryMiddleware turns a handler panic into an error message. Button
// presses get an alert, everything else a reply.
func RecoveryMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				log.Error().
					Interface("panic", r).
					Msg("Recovered from panic in handler")
				if c.Callback() != nil {
					_ = c.Respond(&tele.CallbackResponse{Text: "❌ Internal error, please try again later", ShowAlert: true})
					return
				}
				_ = c.Reply("❌ Internal error, please try again later")
			}()
			return next(c)
		}
	}
}
