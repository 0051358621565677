package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gatekeeper-bot/internal/bot"
	"gatekeeper-bot/internal/models"
	"gatekeeper-bot/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const ephemeralNoticeTTL = 8 * time.Second

// HandleWho shows the stored profile for a user ID. Private chat only.
func HandleWho(b *bot.Bot, message *tgbotapi.Message) {
	if !b.IsOperator(message.From.ID) {
		b.SendAndForget(message.Chat.ID, "⛔ Команда /who доступна только администраторам.", nil)
		return
	}

	targetID, ok := parseIDArgument(message)
	if !ok {
		b.SendAndForget(message.Chat.ID, "ℹ️ Использование: /who &lt;user_id&gt;", nil)
		return
	}

	profile, err := b.DB.GetProfile(targetID)
	if err != nil {
		zap.L().Error("profile lookup failed", zap.Int64(logger.FieldUserID, targetID), zap.Error(err))
		b.SendAndForget(message.Chat.ID, "Произошла ошибка. Попробуйте ещё раз.", nil)
		return
	}

	if profile == nil {
		b.SendAndForget(message.Chat.ID, "<b>Профиль не найден</b> — пользователь ещё не регистрировался.", nil)
		return
	}

	email := profile.Email
	if email == "" {
		email = "—"
	}
	text := fmt.Sprintf(
		"<b>Профиль участника</b>\n"+
			"ID: <code>%d</code>\n"+
			"Имя: <b>%s</b>\n"+
			"Фамилия: <b>%s</b>\n"+
			"Класс: <b>%s</b>\n"+
			"Почта: <b>%s</b>\n"+
			"Регистрация (UTC): %s",
		profile.UserID, profile.FirstName, profile.LastName,
		profile.SchoolClass, email, profile.CreatedAt.UTC().Format(time.RFC3339),
	)
	b.SendAndForget(message.Chat.ID, text, nil)
}

// HandleRemove deletes a profile by user ID. Private chat only.
func HandleRemove(b *bot.Bot, message *tgbotapi.Message) {
	if !b.IsOperator(message.From.ID) {
		b.SendAndForget(message.Chat.ID, "⛔ Доступно только администраторам.", nil)
		return
	}

	targetID, ok := parseIDArgument(message)
	if !ok {
		b.SendAndForget(message.Chat.ID, "ℹ️ Использование: /remove &lt;user_id&gt;", nil)
		return
	}

	if err := b.DB.DeleteProfile(targetID); err != nil {
		zap.L().Error("profile delete failed", zap.Int64(logger.FieldUserID, targetID), zap.Error(err))
		b.SendAndForget(message.Chat.ID, "Произошла ошибка при удалении.", nil)
		return
	}

	zap.L().Info("profile removed",
		zap.Int64(logger.FieldUserID, targetID),
		zap.Int64("removed_by", message.From.ID))
	b.SendAndForget(message.Chat.ID, fmt.Sprintf("✅ Пользователь %d удалён из базы.", targetID), nil)
}

// HandleExport sends all profiles as a CSV document. In private it is
// restricted to operators, in groups to chat admins.
func HandleExport(b *bot.Bot, message *tgbotapi.Message) {
	if message.Chat.IsPrivate() {
		if !b.IsOperator(message.From.ID) {
			b.SendAndForget(message.Chat.ID, "⛔ Доступно только администраторам.", nil)
			return
		}
	} else if !b.IsChatAdmin(message.Chat.ID, message.From.ID) {
		sendEphemeralNotice(b, message.Chat.ID, "⛔ Доступно только в ЛС или администраторам.")
		return
	}

	profiles, err := b.DB.ListProfiles()
	if err != nil {
		zap.L().Error("profile export failed", zap.Error(err))
		b.SendAndForget(message.Chat.ID, "Произошла ошибка при экспорте.", nil)
		return
	}

	path := fmt.Sprintf("profiles_%d.csv", time.Now().UTC().Unix())
	f, err := os.Create(path)
	if err != nil {
		zap.L().Error("export file create failed", zap.String("path", path), zap.Error(err))
		return
	}
	err = writeProfilesCSV(f, profiles)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		zap.L().Error("export write failed", zap.String("path", path), zap.Error(err))
		return
	}

	doc := tgbotapi.NewDocument(message.Chat.ID, tgbotapi.FilePath(path))
	doc.Caption = "Экспорт анкет"
	if _, err := b.API.Send(doc); err != nil {
		zap.L().Warn("export send failed", zap.Int64(logger.FieldChatID, message.Chat.ID), zap.Error(err))
	}
}

// HandleSetupInstructions posts pinned onboarding instructions with a
// deep-link button. Group chats only, chat admins only.
func HandleSetupInstructions(b *bot.Bot, message *tgbotapi.Message) {
	if message.Chat.IsPrivate() {
		b.SendAndForget(message.Chat.ID, "Эту команду следует вызывать в группе.", nil)
		return
	}
	if !b.IsChatAdmin(message.Chat.ID, message.From.ID) {
		sendEphemeralNotice(b, message.Chat.ID, "⛔ Только для администраторов.")
		return
	}

	chatID := message.Chat.ID
	text := fmt.Sprintf(
		"🔒 Доступ в чат только после короткой регистрации в ЛС с ботом.\n"+
			"1) Откройте личные сообщения и напишите боту.\n"+
			"2) Нажмите /start и заполните форму (Имя, Фамилия, Класс, @%s).\n"+
			"3) Доступ откроется автоматически.",
		b.Emails.Domain())

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = b.SetupKeyboard(b.StartLink(chatID))
	sent, err := b.API.Send(msg)
	if err != nil {
		zap.L().Warn("setup instructions send failed", zap.Int64(logger.FieldChatID, chatID), zap.Error(err))
		return
	}

	if err := b.PinMessage(chatID, sent.MessageID); err != nil {
		zap.L().Warn("pin failed", zap.Int64(logger.FieldChatID, chatID), zap.Error(err))
	}
}

// HandleInfo replies with a short about text. Allowed anywhere.
func HandleInfo(b *bot.Bot, message *tgbotapi.Message) {
	b.SendAndForget(message.Chat.ID,
		"<b>ℹ️ О боте</b>\n"+
			"Бот-привратник: пускает в чат после короткой регистрации "+
			"(Имя, Фамилия, Класс, школьная почта).", nil)
}

// sendEphemeralNotice posts a group notice that deletes itself shortly
// after.
func sendEphemeralNotice(b *bot.Bot, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	sent, err := b.API.Send(msg)
	if err != nil {
		return
	}

	time.AfterFunc(ephemeralNoticeTTL, func() {
		if err := b.DeleteMessage(chatID, sent.MessageID); err != nil {
			zap.L().Debug("ephemeral notice delete failed", zap.Int64(logger.FieldChatID, chatID), zap.Error(err))
		}
	})
}

func parseIDArgument(message *tgbotapi.Message) (int64, bool) {
	parts := strings.Fields(message.CommandArguments())
	if len(parts) != 1 {
		return 0, false
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func writeProfilesCSV(w io.Writer, profiles []models.Profile) error {
	writer := csv.NewWriter(w)

	header := []string{"user_id", "first_name", "last_name", "class", "email", "created_at_utc"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, p := range profiles {
		record := []string{
			strconv.FormatInt(p.UserID, 10),
			p.FirstName,
			p.LastName,
			p.SchoolClass,
			p.Email,
			p.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
