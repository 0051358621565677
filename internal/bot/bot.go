package bot

import (
	"fmt"

	"gatekeeper-bot/internal/config"
	"gatekeeper-bot/internal/database"
	"gatekeeper-bot/internal/email"
	"gatekeeper-bot/internal/session"
	"gatekeeper-bot/internal/throttle"
	"gatekeeper-bot/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type Bot struct {
	API      *tgbotapi.BotAPI
	DB       *database.DB
	Config   *config.Config
	Sessions *session.Store
	Notices  *throttle.Throttle
	Emails   *email.Validator
}

func New(cfg *config.Config, db *database.DB) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	zap.L().Info("Authorized on Telegram", zap.String("username", api.Self.UserName))

	return &Bot{
		API:      api,
		DB:       db,
		Config:   cfg,
		Sessions: session.NewStore(),
		Notices:  throttle.New(cfg.NoticeCooldown, cfg.NoticeBatch),
		Emails:   email.NewValidator(cfg.EmailDomain),
	}, nil
}

func (b *Bot) IsOperator(userID int64) bool {
	return b.Config.IsOperator(userID)
}

// SendMessage sends an HTML-formatted message. Delivery failures bubble
// up so callers can decide whether a closed DM matters.
func (b *Bot) SendMessage(chatID int64, text string, replyMarkup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if replyMarkup != nil {
		msg.ReplyMarkup = replyMarkup
	}

	_, err := b.API.Send(msg)
	return err
}

// SendAndForget sends a message where delivery is best-effort; failures
// are logged at warn and dropped.
func (b *Bot) SendAndForget(chatID int64, text string, replyMarkup interface{}) {
	if err := b.SendMessage(chatID, text, replyMarkup); err != nil {
		zap.L().Warn("send failed", zap.Int64(logger.FieldChatID, chatID), zap.Error(err))
	}
}

func (b *Bot) AnswerCallback(callbackID string, text string) {
	callback := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.API.Request(callback); err != nil {
		zap.L().Warn("answer callback failed", zap.Error(err))
	}
}

// RestrictUser applies a permission bitset to a group member.
func (b *Bot) RestrictUser(chatID, userID int64, perms tgbotapi.ChatPermissions) error {
	restrict := tgbotapi.RestrictChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: chatID,
			UserID: userID,
		},
		Permissions: &perms,
	}

	_, err := b.API.Request(restrict)
	return err
}

func (b *Bot) DeleteMessage(chatID int64, messageID int) error {
	_, err := b.API.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

func (b *Bot) PinMessage(chatID int64, messageID int) error {
	pin := tgbotapi.PinChatMessageConfig{
		ChatID:              chatID,
		MessageID:           messageID,
		DisableNotification: true,
	}

	_, err := b.API.Request(pin)
	return err
}

// IsChatAdmin queries live membership status; any API failure counts as
// not an admin.
func (b *Bot) IsChatAdmin(chatID, userID int64) bool {
	member, err := b.API.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: chatID,
			UserID: userID,
		},
	})
	if err != nil {
		return false
	}

	return member.Status == "creator" || member.Status == "administrator"
}

// StartLink builds a deep link that opens the bot in private with a
// verify payload for the given chat.
func (b *Bot) StartLink(chatID int64) string {
	return fmt.Sprintf("https://t.me/%s?start=verify_%d", b.API.Self.UserName, chatID)
}

// Keyboard builders

func (b *Bot) ConfirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Подтвердить", "confirm"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ Изменить имя", "edit_first"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ Изменить фамилию", "edit_last"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ Изменить класс", "edit_class"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ Изменить почту", "edit_email"),
		),
	)
}

func (b *Bot) SetupKeyboard(link string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("Открыть форму регистрации", link),
		),
	)
}
