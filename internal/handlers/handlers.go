package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gatekeeper-bot/internal/bot"
	"gatekeeper-bot/internal/database"
	"gatekeeper-bot/internal/models"
	"gatekeeper-bot/internal/session"
	"gatekeeper-bot/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// HandleStart handles /start in private chat. The optional payload is a
// deep link minted when the user was muted in a group.
func HandleStart(b *bot.Bot, message *tgbotapi.Message) {
	userID := message.From.ID

	registered, err := b.DB.IsRegistered(userID)
	if err != nil {
		zap.L().Error("registration lookup failed", zap.Int64(logger.FieldUserID, userID), zap.Error(err))
		b.SendAndForget(message.Chat.ID, "Произошла ошибка. Попробуйте ещё раз позже.", nil)
		return
	}

	if registered {
		text := "Вы уже зарегистрированы."
		if chatID, ok := consumePending(b, userID); ok {
			unlockUser(b, chatID, userID)
			text += " Доступ в сообществе восстановлен."
		}
		b.SendAndForget(message.Chat.ID, text, nil)
		return
	}

	if chatID, ok := parseVerifyPayload(message.CommandArguments()); ok {
		if err := b.DB.AddPending(userID, chatID); err != nil {
			zap.L().Warn("add pending failed",
				zap.Int64(logger.FieldUserID, userID),
				zap.Int64(logger.FieldChatID, chatID),
				zap.Error(err))
		}
	}

	b.Sessions.Start(userID)
	b.SendAndForget(message.Chat.ID,
		"Привет! Давай зарегистрируемся.\n<b>1/4. Введите имя</b> (как в школе):", nil)
}

// HandleMessage drives the registration form for private text messages.
func HandleMessage(b *bot.Bot, message *tgbotapi.Message) {
	sess := b.Sessions.Get(message.From.ID)
	if sess == nil {
		return
	}

	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)

	switch sess.Step {
	case session.StepFirstName:
		if text == "" {
			b.SendAndForget(chatID, "Пожалуйста, введите имя текстом:", nil)
			return
		}
		sess.FirstName = text
		sess.Step = session.StepLastName
		b.SendAndForget(chatID, "<b>2/4. Введите фамилию</b>:", nil)

	case session.StepLastName:
		if text == "" {
			b.SendAndForget(chatID, "Пожалуйста, введите фамилию текстом:", nil)
			return
		}
		sess.LastName = text
		sess.Step = session.StepClass
		b.SendAndForget(chatID, "<b>3/4. Введите класс</b> (например: 9A, 10B, 11):", nil)

	case session.StepClass:
		if text == "" {
			b.SendAndForget(chatID, "Пожалуйста, введите класс текстом:", nil)
			return
		}
		sess.SchoolClass = text
		sess.Step = session.StepEmail
		b.SendAndForget(chatID,
			fmt.Sprintf("<b>4/4. Введите школьную почту</b> (только @%s):", b.Emails.Domain()), nil)

	case session.StepEmail:
		if !b.Emails.Valid(text) {
			b.SendAndForget(chatID, fmt.Sprintf(
				"⚠️ Неверный формат. Укажите почту вида <code>name@%s</code>.\n"+
					"Другие домены не принимаются.", b.Emails.Domain()), nil)
			return
		}
		sess.Email = b.Emails.Normalize(text)
		sess.Step = session.StepConfirm
		keyboard := b.ConfirmKeyboard()
		b.SendAndForget(chatID, summaryText(sess), keyboard)

	case session.StepConfirm:
		// Waiting for a button press; show the summary again.
		keyboard := b.ConfirmKeyboard()
		b.SendAndForget(chatID, summaryText(sess), keyboard)
	}
}

// HandleCallbackQuery handles the confirm/edit buttons under the form
// summary.
func HandleCallbackQuery(b *bot.Bot, callback *tgbotapi.CallbackQuery) {
	userID := callback.From.ID
	sess := b.Sessions.Get(userID)
	if sess == nil || sess.Step != session.StepConfirm || callback.Message == nil {
		b.AnswerCallback(callback.ID, "")
		return
	}

	chatID := callback.Message.Chat.ID

	switch callback.Data {
	case "confirm":
		confirmRegistration(b, chatID, sess)
	case "edit_first":
		sess.Step = session.StepFirstName
		b.SendAndForget(chatID, "Введите имя заново:", nil)
	case "edit_last":
		sess.Step = session.StepLastName
		b.SendAndForget(chatID, "Введите фамилию заново:", nil)
	case "edit_class":
		sess.Step = session.StepClass
		b.SendAndForget(chatID, "Введите класс заново:", nil)
	case "edit_email":
		sess.Step = session.StepEmail
		b.SendAndForget(chatID,
			fmt.Sprintf("Введите школьную почту заново (только @%s):", b.Emails.Domain()), nil)
	}

	b.AnswerCallback(callback.ID, "")
}

func confirmRegistration(b *bot.Bot, chatID int64, sess *session.Session) {
	// The domain is re-checked at commit time; the session could have
	// been collected against an older validator configuration.
	if !b.Emails.Valid(sess.Email) {
		sess.Step = session.StepEmail
		b.SendAndForget(chatID,
			fmt.Sprintf("⚠️ Почта должна быть в домене @%s. Попробуйте ещё раз.", b.Emails.Domain()), nil)
		return
	}

	profile := &models.Profile{
		UserID:      sess.UserID,
		FirstName:   sess.FirstName,
		LastName:    sess.LastName,
		SchoolClass: sess.SchoolClass,
		Email:       b.Emails.Normalize(sess.Email),
	}

	err := b.DB.SaveProfile(profile)
	if errors.Is(err, database.ErrEmailTaken) {
		sess.Step = session.StepEmail
		b.SendAndForget(chatID, "⚠️ Эта почта уже используется другим участником. Укажите другую:", nil)
		return
	}
	if err != nil {
		zap.L().Error("save profile failed", zap.Int64(logger.FieldUserID, sess.UserID), zap.Error(err))
		b.SendAndForget(chatID, "Произошла ошибка при сохранении. Попробуйте ещё раз.", nil)
		return
	}

	b.Sessions.Clear(sess.UserID)
	zap.L().Info("profile registered",
		zap.Int64(logger.FieldUserID, sess.UserID),
		zap.String(logger.FieldEmail, profile.Email))

	if pendingChatID, ok := consumePending(b, sess.UserID); ok {
		unlockUser(b, pendingChatID, sess.UserID)
		b.SendAndForget(chatID, "Готово! Доступ в сообществе открыт. Можете писать сообщения.", nil)
	} else {
		b.SendAndForget(chatID, "Регистрация завершена! Когда зайдёте в чат, доступ откроется автоматически.", nil)
	}
}

// consumePending pops the most recent pending entry, logging failures.
func consumePending(b *bot.Bot, userID int64) (int64, bool) {
	chatID, ok, err := b.DB.ConsumePending(userID)
	if err != nil {
		zap.L().Error("consume pending failed", zap.Int64(logger.FieldUserID, userID), zap.Error(err))
		return 0, false
	}
	return chatID, ok
}

// unlockUser lifts restrictions in one chat and announces the member.
func unlockUser(b *bot.Bot, chatID, userID int64) {
	if err := b.RestrictUser(chatID, userID, bot.OpenPermissions()); err != nil {
		zap.L().Warn("unlock failed",
			zap.Int64(logger.FieldChatID, chatID),
			zap.Int64(logger.FieldUserID, userID),
			zap.Error(err))
		return
	}

	b.SendAndForget(chatID,
		fmt.Sprintf("✅ Пользователь <a href=\"tg://user?id=%d\">разрешён</a> к участию.", userID), nil)
}

// parseVerifyPayload extracts the chat ID from a "verify_<chat_id>"
// deep-link payload.
func parseVerifyPayload(payload string) (int64, bool) {
	rest, found := strings.CutPrefix(strings.TrimSpace(payload), "verify_")
	if !found {
		return 0, false
	}
	chatID, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return chatID, true
}

func summaryText(sess *session.Session) string {
	return fmt.Sprintf(
		"Проверьте данные:\n"+
			"• Имя: <b>%s</b>\n"+
			"• Фамилия: <b>%s</b>\n"+
			"• Класс: <b>%s</b>\n"+
			"• Почта: <b>%s</b>",
		sess.FirstName, sess.LastName, sess.SchoolClass, sess.Email,
	)
}
