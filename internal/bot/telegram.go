package bot

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"spendbot/internal/log"
)

// maxConcurrentUpdates bounds how many updates are processed at once.
// Messages from the same chat are additionally serialized so dialog
// state never races with itself.
const maxConcurrentUpdates = 16

// Bot is the Telegram edge of the Dispatcher: it long-polls for
// updates, feeds message text in and sends the resulting replies out.
type Bot struct {
	api        *tgbotapi.BotAPI
	dispatcher *Dispatcher
	logger     *log.Logger

	pollTimeout int

	mu        sync.Mutex
	chatLocks map[int64]*sync.Mutex
}

func New(token string, pollTimeoutSeconds int, dispatcher *Dispatcher, logger *log.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram api: %w", err)
	}

	return &Bot{
		api:         api,
		dispatcher:  dispatcher,
		logger:      logger.WithComponent(log.ComponentBot),
		pollTimeout: pollTimeoutSeconds,
		chatLocks:   make(map[int64]*sync.Mutex),
	}, nil
}

// Run long-polls until ctx is cancelled, then stops the update stream
// and waits for in-flight handlers to drain.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Bot started", "username", b.api.Self.UserName)

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(cfg)

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	var g errgroup.Group
	g.SetLimit(maxConcurrentUpdates)

	for update := range updates {
		if update.Message == nil || update.Message.Text == "" {
			continue
		}
		msg := update.Message
		g.Go(func() error {
			b.handleMessage(ctx, msg)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	b.logger.Info("Bot stopped")
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	lock := b.chatLock(chatID)
	lock.Lock()
	defer lock.Unlock()

	text := msg.Text
	if msg.IsCommand() {
		// Command() strips a trailing @botname mention.
		text = "/" + msg.Command()
	}

	replies, err := b.dispatcher.Handle(ctx, chatID, text)
	if err != nil {
		b.logger.ErrorContext(ctx, "Dispatch failed", log.FieldChatID, chatID, log.FieldError, err)
	}

	for _, reply := range replies {
		b.send(ctx, chatID, reply)
	}
}

func (b *Bot) chatLock(chatID int64) *sync.Mutex {
	b.mu.Lock()
	defer b.mu.Unlock()
	lock, ok := b.chatLocks[chatID]
	if !ok {
		lock = &sync.Mutex{}
		b.chatLocks[chatID] = lock
	}
	return lock
}

func (b *Bot) send(ctx context.Context, chatID int64, reply Reply) {
	var msg tgbotapi.Chattable
	if reply.Photo != nil {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{
			Name:  "report.png",
			Bytes: reply.Photo,
		})
		photo.Caption = reply.PhotoCaption
		msg = photo
	} else {
		text := tgbotapi.NewMessage(chatID, reply.Text)
		if reply.Keyboard != nil {
			text.ReplyMarkup = replyMarkup(reply.Keyboard)
		}
		msg = text
	}

	if _, err := b.api.Send(msg); err != nil {
		b.logger.WarnContext(ctx, "Send failed", log.FieldChatID, chatID, log.FieldError, err)
	}
}

func replyMarkup(rows [][]string) tgbotapi.ReplyKeyboardMarkup {
	buttonRows := make([][]tgbotapi.KeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
		}
		buttonRows = append(buttonRows, buttons)
	}

	markup := tgbotapi.NewReplyKeyboard(buttonRows...)
	markup.ResizeKeyboard = true
	return markup
}
