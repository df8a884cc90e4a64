package notify

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramSender is the subset of the bot API the notifier uses.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier pushes short notices about new orders to the staff
// chat. It is optional; a nil notifier disables the path.
type TelegramNotifier struct {
	bot    TelegramSender
	chatID int64
	log    zerolog.Logger
}

func NewTelegramNotifier(token string, chatID int64, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	var log zerolog.Logger
	if logger != nil {
		log = logger.With().Str("component", "telegram").Logger()
	}
	return &TelegramNotifier{bot: bot, chatID: chatID, log: log}, nil
}

// NotifyStaff sends fire-and-forget; a delivery failure is logged and
// swallowed so it never blocks an order commit.
func (n *TelegramNotifier) NotifyStaff(text string) {
	if n == nil || n.bot == nil {
		return
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		n.log.Warn().Err(err).Msg("staff notification failed")
	}
}
