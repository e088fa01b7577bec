package telegram

import (
	"context"
	"strconv"
	"strings"

	"resolvenow/backend/internal/config"
	"resolvenow/backend/internal/localization"
	"resolvenow/backend/internal/models"
	"resolvenow/backend/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// CommandStorage defines the storage methods the admin commands read.
type CommandStorage interface {
	AgentLoads(ctx context.Context) ([]models.AgentLoad, error)
	ListComplaints(ctx context.Context, scope storage.ComplaintScope) ([]models.Complaint, error)
}

// CommandHandler answers /help, /agents and /pending in the admin chat.
type CommandHandler struct {
	AdminChatID int64
	Lang        string
	Storage     CommandStorage
	Bot         Sender
	Localizer   *localization.Localizer
	log         *zap.Logger
}

// HandleCommand processes one update. Non-command updates are ignored,
// and commands from any other chat get a refusal.
func (h *CommandHandler) HandleCommand(ctx context.Context, update *tgbotapi.Update) {
	if update.Message == nil || !update.Message.IsCommand() {
		return
	}
	chatID := update.Message.Chat.ID
	if chatID != h.AdminChatID {
		h.reply(chatID, h.Localizer.GetString(h.Lang, "cmd_forbidden"))
		return
	}

	var text string
	var err error
	switch update.Message.Command() {
	case "agents":
		text, err = h.agents(ctx)
	case "pending":
		text, err = h.pending(ctx)
	default:
		text = h.Localizer.GetString(h.Lang, "cmd_help")
	}
	if err != nil {
		h.log.Error("admin command failed", zap.String("command", update.Message.Command()), zap.Error(err))
		text = h.Localizer.GetString(h.Lang, "cmd_error")
	}
	h.reply(chatID, text)
}

func (h *CommandHandler) agents(ctx context.Context) (string, error) {
	loads, err := h.Storage.AgentLoads(ctx)
	if err != nil {
		return "", err
	}
	if len(loads) == 0 {
		return h.Localizer.GetString(h.Lang, "cmd_agents_empty"), nil
	}
	lines := []string{h.Localizer.GetString(h.Lang, "cmd_agents_header")}
	for _, a := range loads {
		lines = append(lines, h.Localizer.Format(h.Lang, "cmd_agents_line", map[string]string{
			"name": a.Name,
			"load": strconv.Itoa(a.ActiveAssignments),
			"max":  strconv.Itoa(config.MaxActiveAssignments),
		}))
	}
	return strings.Join(lines, "\n"), nil
}

func (h *CommandHandler) pending(ctx context.Context) (string, error) {
	all, err := h.Storage.ListComplaints(ctx, storage.ComplaintScope{})
	if err != nil {
		return "", err
	}
	var lines []string
	for _, c := range all {
		if c.Status != models.StatusPending {
			continue
		}
		lines = append(lines, h.Localizer.Format(h.Lang, "cmd_pending_line", map[string]string{
			"id": c.ID, "name": c.Name, "city": c.City,
		}))
	}
	header := h.Localizer.Format(h.Lang, "cmd_pending_header", map[string]string{"count": strconv.Itoa(len(lines))})
	return strings.Join(append([]string{header}, lines...), "\n"), nil
}

func (h *CommandHandler) reply(chatID int64, text string) {
	if _, err := h.Bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		h.log.Warn("reply failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
