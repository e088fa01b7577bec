package telegram

import (
	"encoding/json"
	"sync"

	"resolvenow/backend/internal/localization"
	"resolvenow/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sender is the part of tgbotapi.BotAPI the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client implements chathub.Client and forwards complaint lifecycle events to the admin chat.
// Chat messages are not forwarded.
type Client struct {
	ID        string
	ChatID    int64
	Lang      string
	Send      chan models.Event
	Bot       Sender
	Localizer *localization.Localizer

	closeOnce sync.Once
	done      chan struct{}
	log       *zap.Logger
}

func NewClient(bot Sender, chatID int64, loc *localization.Localizer, lang string, log *zap.Logger) *Client {
	return &Client{
		ID:        "telegram-" + uuid.NewString(),
		ChatID:    chatID,
		Lang:      lang,
		Send:      make(chan models.Event, 256),
		Bot:       bot,
		Localizer: loc,
		done:      make(chan struct{}),
		log:       log.Named("telegram"),
	}
}

func (c *Client) GetID() string                       { return c.ID }
func (c *Client) GetUserID() string                   { return "" }
func (c *Client) GetSendChannel() chan<- models.Event { return c.Send }

// Run starts the write pump. Updates from Telegram are handled by BotService.
func (c *Client) Run() {
	go c.writePump()
}

func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.Send) })
}

// Done is closed when the write pump has exited.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) writePump() {
	defer close(c.done)

	for ev := range c.Send {
		text, ok := c.render(ev)
		if !ok {
			continue
		}
		msg := tgbotapi.NewMessage(c.ChatID, text)
		if _, err := c.Bot.Send(msg); err != nil {
			c.log.Warn("send to admin chat failed", zap.String("event", string(ev.Type)), zap.Error(err))
		}
	}
}

// render turns a lifecycle event into the admin chat text.
func (c *Client) render(ev models.Event) (string, bool) {
	args := map[string]string{"id": ev.ComplaintID}

	switch ev.Type {
	case models.EventComplaintCreated, models.EventComplaintUpdated:
		var cmp models.Complaint
		if err := json.Unmarshal(ev.Data, &cmp); err != nil {
			c.log.Warn("bad complaint payload", zap.Error(err))
			return "", false
		}
		args["name"] = cmp.Name
		args["city"] = cmp.City
		args["comment"] = cmp.Comment
		args["status"] = string(cmp.Status)
		key := "event_complaint_created"
		if ev.Type == models.EventComplaintUpdated {
			key = "event_complaint_updated"
		}
		return c.Localizer.Format(c.Lang, key, args), true

	case models.EventComplaintDeleted:
		return c.Localizer.Format(c.Lang, "event_complaint_deleted", args), true
	}
	return "", false
}
