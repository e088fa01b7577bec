// Package telegram connects the service to an admin Telegram chat: lifecycle
// events are pushed to the chat, and admins can query workload with bot commands.
package telegram

import (
	"context"
	"fmt"
	"time"

	"resolvenow/backend/internal/chathub"
	"resolvenow/backend/internal/config"
	"resolvenow/backend/internal/localization"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// notifierRetry is the pause before a dropped notifier is registered again.
const notifierRetry = 5 * time.Second

// BotService owns the bot connection, the hub notifier and the command loop.
type BotService struct {
	BotAPI *tgbotapi.BotAPI
	Hub    *chathub.ManagerService
	// NewNotifier builds the hub client that forwards events to the admin chat.
	NewNotifier func() *Client
	Commands    *CommandHandler
	log         *zap.Logger
}

// NewBotService authorizes the bot and prepares the notifier and command handler.
func NewBotService(cfg config.TelegramConfig, hub *chathub.ManagerService, s CommandStorage, log *zap.Logger) (*BotService, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	bot.Debug = false
	log = log.Named("telegram")
	log.Info("authorized on telegram", zap.String("account", bot.Self.UserName))

	localizer, err := localization.NewLocalizer(cfg.LocalesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create localizer: %w", err)
	}

	return &BotService{
		BotAPI: bot,
		Hub:    hub,
		NewNotifier: func() *Client {
			return NewClient(bot, cfg.AdminChatID, localizer, cfg.Language, log)
		},
		Commands: &CommandHandler{
			AdminChatID: cfg.AdminChatID,
			Lang:        cfg.Language,
			Storage:     s,
			Bot:         bot,
			Localizer:   localizer,
			log:         log,
		},
		log: log,
	}, nil
}

// Run keeps the notifier registered with the hub and serves commands until ctx is cancelled.
func (s *BotService) Run(ctx context.Context) {
	go superviseNotifier(ctx, s.Hub, s.NewNotifier, notifierRetry, s.log)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.BotAPI.GetUpdatesChan(u)
	defer s.BotAPI.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			s.Commands.HandleCommand(ctx, &update)
		}
	}
}

// superviseNotifier registers a notifier and replaces it whenever the hub
// drops it for falling behind. It returns when ctx is done or the hub stops.
func superviseNotifier(ctx context.Context, hub *chathub.ManagerService, newClient func() *Client, retry time.Duration, log *zap.Logger) {
	for {
		client := newClient()
		if !hub.Register(client) {
			return
		}
		client.Run()

		select {
		case <-ctx.Done():
			return
		case <-client.Done():
		}
		if ctx.Err() != nil {
			return
		}
		log.Warn("notifier dropped by hub, registering a new one", zap.Duration("retry", retry))

		select {
		case <-ctx.Done():
			return
		case <-time.After(retry):
		}
	}
}
