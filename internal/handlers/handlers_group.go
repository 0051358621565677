package handlers

import (
	"fmt"

	"gatekeeper-bot/internal/bot"
	"gatekeeper-bot/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// HandleChatMemberUpdate reacts to membership changes in monitored
// groups and gates newly joined unregistered users.
func HandleChatMemberUpdate(b *bot.Bot, update *tgbotapi.ChatMemberUpdated) {
	chat := update.Chat
	if !chat.IsGroup() && !chat.IsSuperGroup() {
		return
	}

	member := update.NewChatMember
	if member.Status != "member" || member.User == nil || member.User.IsBot {
		return
	}

	gateOnJoin(b, chat.ID, member.User.ID)
}

// HandleGroupMessage routes group traffic: service messages about new
// members, the guard, and the few group commands for registered users.
func HandleGroupMessage(b *bot.Bot, message *tgbotapi.Message) {
	if message.NewChatMembers != nil {
		for _, member := range message.NewChatMembers {
			if !member.IsBot {
				gateOnJoin(b, message.Chat.ID, member.ID)
			}
		}
		return
	}

	if message.From == nil || message.From.IsBot {
		return
	}

	registered, err := b.DB.IsRegistered(message.From.ID)
	if err != nil {
		zap.L().Error("registration lookup failed", zap.Int64(logger.FieldUserID, message.From.ID), zap.Error(err))
		return
	}

	// The guard runs before command dispatch: a command-shaped message
	// from an unregistered user is still just a message in a locked chat.
	if !registered {
		guardGroupMessage(b, message)
		return
	}

	if message.IsCommand() {
		switch message.Command() {
		case "export":
			HandleExport(b, message)
		case "setup_instructions":
			HandleSetupInstructions(b, message)
		case "info":
			HandleInfo(b, message)
		}
	}
}

// gateOnJoin mutes an unregistered newcomer, records the pending unlock
// and tries a quiet DM. A closed DM is left alone here; the message
// guard batches a group notice when the user actually tries to write.
func gateOnJoin(b *bot.Bot, chatID, userID int64) {
	registered, err := b.DB.IsRegistered(userID)
	if err != nil {
		zap.L().Error("registration lookup failed", zap.Int64(logger.FieldUserID, userID), zap.Error(err))
		return
	}
	if registered {
		return
	}

	if err := b.RestrictUser(chatID, userID, bot.LockedPermissions()); err != nil {
		zap.L().Warn("restrict failed",
			zap.Int64(logger.FieldChatID, chatID),
			zap.Int64(logger.FieldUserID, userID),
			zap.Error(err))
	}

	if err := b.DB.AddPending(userID, chatID); err != nil {
		zap.L().Error("add pending failed",
			zap.Int64(logger.FieldUserID, userID),
			zap.Int64(logger.FieldChatID, chatID),
			zap.Error(err))
	}

	if err := b.SendMessage(userID, registrationDM(b, chatID), nil); err != nil {
		zap.L().Debug("registration DM not delivered", zap.Int64(logger.FieldUserID, userID), zap.Error(err))
	}
}

// guardGroupMessage handles a message from an unregistered member:
// mute, record pending, delete the message, and try a DM. When the DM
// is closed the throttled group notice kicks in.
func guardGroupMessage(b *bot.Bot, message *tgbotapi.Message) {
	userID := message.From.ID
	chatID := message.Chat.ID

	if err := b.DB.AddPending(userID, chatID); err != nil {
		zap.L().Error("add pending failed",
			zap.Int64(logger.FieldUserID, userID),
			zap.Int64(logger.FieldChatID, chatID),
			zap.Error(err))
	}

	if err := b.RestrictUser(chatID, userID, bot.LockedPermissions()); err != nil {
		zap.L().Warn("restrict failed",
			zap.Int64(logger.FieldChatID, chatID),
			zap.Int64(logger.FieldUserID, userID),
			zap.Error(err))
	}

	if err := b.DeleteMessage(chatID, message.MessageID); err != nil {
		zap.L().Warn("delete message failed", zap.Int64(logger.FieldChatID, chatID), zap.Error(err))
	}

	if err := b.SendMessage(userID, registrationDM(b, chatID), nil); err == nil {
		return
	}

	// DM closed. Post at most one group notice per cooldown window,
	// or earlier when enough affected users pile up.
	if b.Notices.Record(chatID, userID) {
		notice := fmt.Sprintf(
			"⚠️ Некоторые участники не могут получить доступ в чат, т.к. у них закрыты ЛС с ботом.\n"+
				"Откройте личные сообщения и напишите боту @%s, затем нажмите /start, чтобы пройти подтверждение.",
			b.API.Self.UserName)
		b.SendAndForget(chatID, notice, nil)
	}
}

func registrationDM(b *bot.Bot, chatID int64) string {
	return fmt.Sprintf(
		"Привет! Чтобы получить доступ к сообщениям в чате, заполните короткую анкету "+
			"(Имя, Фамилия, Класс и школьную почту @%s).\n"+
			"Откройте форму по ссылке: %s",
		b.Emails.Domain(), b.StartLink(chatID))
}
