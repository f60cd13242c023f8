package telegram

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	app "thermo-inspector/internal/application"
	"thermo-inspector/internal/domain/entity"
	"thermo-inspector/internal/infrastructure/describer"
	"thermo-inspector/internal/infrastructure/imageio"
	"thermo-inspector/internal/logger"
)

const (
	msgStart = `👋 Привет! Я сравниваю тепловизионные снимки трансформаторов.

📸 Пришлите эталонный снимок, затем снимок после обслуживания, и я отмечу места перегрева.

📋 Команды:
/check <объект> [чувствительность] — начать проверку
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ /check T-101 или /check T-101 70
2️⃣ Отправьте эталонный снимок объекта
3️⃣ Отправьте снимок после обслуживания (в подписи можно указать чувствительность, например 80%)
4️⃣ Вы получите снимок с рамками и сводку

💡 Рекомендации:
• Снимайте с той же точки и с той же палитрой
• Чувствительность 0..100: чем больше, тем ниже пороги
• Лучше отправлять снимок файлом, без сжатия

📋 Команды:
/check — начать проверку
/cancel — отменить операцию`

	msgCheckUsage          = "ℹ️ Укажите объект: /check <объект> [чувствительность]"
	msgAwaitingBaseline    = "📸 Объект %s. Отправьте эталонный снимок."
	msgAwaitingMaintenance = "📸 Эталон получен. Отправьте снимок после обслуживания."
	msgCancelled           = "❌ Операция отменена. Отправьте /check для новой проверки."
	msgSendPhoto           = "📸 Пожалуйста, отправьте снимок."
	msgCheckFirst          = "ℹ️ Сначала начните проверку: /check <объект>"
	msgUnknownCommand      = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing          = "⏳ Сравниваю снимки..."
	msgBusy                = "⏳ Предыдущая пара ещё обрабатывается."
	msgBadImage            = "⚠️ Не удалось прочитать изображение. Отправьте JPEG, PNG, TIFF или WebP."
	msgBaselineMissing     = "⚠️ Эталон не найден. Начните заново: /check <объект>"
	msgProcessingError     = "⚠️ Не удалось обработать снимки. Попробуйте ещё раз."

	captionLimit = 1024
)

// botAPI часть tgbotapi.BotAPI, которой пользуется бот.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot представляет Telegram-бота
type Bot struct {
	api         botAPI
	users       *app.UserService
	inspections *app.InspectionService
	http        *http.Client
	log         zerolog.Logger
}

// NewBot создаёт нового бота
func NewBot(token string, users *app.UserService, inspections *app.InspectionService, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log = logger.Component(log, "bot")
	log.Info().Str("account", api.Self.UserName).Msg("authorized")

	return newBot(api, users, inspections, log), nil
}

func newBot(api botAPI, users *app.UserService, inspections *app.InspectionService, log zerolog.Logger) *Bot {
	return &Bot{
		api:         api,
		users:       users,
		inspections: inspections,
		http:        http.DefaultClient,
		log:         log,
	}
}

// Run запускает основной цикл обработки сообщений до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	user, err := b.users.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.log.Error().Err(err).Int64("user", msg.From.ID).Msg("get user")
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	// Обработка снимка: фото или файл-картинка
	if fileID, ok := imageFileID(msg); ok {
		b.handleImage(ctx, msg, user, fileID)
		return
	}

	// Текстовое сообщение (не команда)
	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID, chatID := msg.From.ID, msg.Chat.ID
	switch msg.Command() {
	case "start":
		if _, err := b.inspections.Cancel(ctx, userID, chatID); err != nil {
			b.log.Error().Err(err).Msg("reset user")
		}
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "check":
		args := strings.Fields(msg.CommandArguments())
		if len(args) == 0 {
			b.sendMessage(chatID, msgCheckUsage)
			return
		}
		var sens *float64
		if len(args) > 1 {
			sens = entity.ParseSensitivity(args[1])
		}
		if _, err := b.users.BeginCheck(ctx, userID, chatID, args[0], sens); err != nil {
			b.log.Error().Err(err).Msg("begin check")
			b.sendMessage(chatID, msgProcessingError)
			return
		}
		b.sendMessage(chatID, fmt.Sprintf(msgAwaitingBaseline, args[0]))

	case "cancel":
		if _, err := b.inspections.Cancel(ctx, userID, chatID); err != nil {
			b.log.Error().Err(err).Msg("cancel")
		}
		b.sendMessage(chatID, msgCancelled)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

// handleImage ведёт пользователя по шагам: эталон, затем снимок обслуживания
func (b *Bot) handleImage(ctx context.Context, msg *tgbotapi.Message, user *entity.User, fileID string) {
	chatID := msg.Chat.ID
	switch user.State {
	case entity.StateAwaitingBaseline, entity.StateAwaitingMaintenance:
	case entity.StateProcessing:
		b.sendMessage(chatID, msgBusy)
		return
	default:
		b.sendMessage(chatID, msgCheckFirst)
		return
	}

	img, err := b.downloadImage(ctx, fileID)
	if err != nil {
		b.log.Warn().Err(err).Int64("user", user.ID).Msg("download image")
		b.sendMessage(chatID, msgBadImage)
		return
	}

	if user.State == entity.StateAwaitingBaseline {
		if _, err := b.inspections.AcceptBaseline(ctx, user.ID, chatID, img); err != nil {
			b.log.Error().Err(err).Msg("accept baseline")
			b.sendMessage(chatID, msgProcessingError)
			return
		}
		b.sendMessage(chatID, msgAwaitingMaintenance)
		return
	}

	b.sendMessage(chatID, msgProcessing)
	out, err := b.inspections.Inspect(ctx, user.ID, chatID, img, entity.ParseSensitivity(msg.Caption))
	switch {
	case errors.Is(err, app.ErrBaselineMissing):
		b.sendMessage(chatID, msgBaselineMissing)
		return
	case err != nil:
		b.log.Error().Err(err).Int64("user", user.ID).Msg("inspect")
		b.sendMessage(chatID, msgProcessingError)
		return
	}
	b.sendResult(chatID, out)
}

// sendResult отправляет разметку со сводкой и, если есть, описание от модели
func (b *Bot) sendResult(chatID int64, out *app.InspectionOutput) {
	summary := describer.Summary(out.Report)
	text := summary
	if out.Description != nil && out.Description.Text != summary {
		text = out.Description.Text
	}

	if len(out.Overlay) == 0 {
		b.sendMessage(chatID, summary)
		return
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: out.RequestID + ".png", Bytes: out.Overlay})
	photo.Caption = truncate(summary, captionLimit)
	if _, err := b.api.Send(photo); err != nil {
		b.log.Error().Err(err).Msg("send overlay")
		b.sendMessage(chatID, summary)
	}
	if text != summary {
		b.sendMessage(chatID, text)
	}
}

// imageFileID находит снимок в сообщении: самое крупное фото или документ-картинку
func imageFileID(msg *tgbotapi.Message) (string, bool) {
	if len(msg.Photo) > 0 {
		return msg.Photo[len(msg.Photo)-1].FileID, true
	}
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		return msg.Document.FileID, true
	}
	return "", false
}

// downloadImage скачивает файл из Telegram и декодирует его
func (b *Bot) downloadImage(ctx context.Context, fileID string) (image.Image, error) {
	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return imageio.Decode(data)
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error().Err(err).Msg("send message")
	}
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit-1]) + "…"
}
