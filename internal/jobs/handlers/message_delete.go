package handlers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	telebot "gopkg.in/telebot.v3"

	"github.com/stratuswap/stratus-bot/internal/jobs"
)

// MessageDeleter is the subset of the Telegram API needed to expire a
// message.
type MessageDeleter interface {
	Delete(msg telebot.Editable) error
}

// MessageDeleteHandler removes chat messages whose retention window has
// passed. Messages carrying wallet credentials are scheduled through this
// handler so private keys do not linger in chat history.
type MessageDeleteHandler struct {
	bot MessageDeleter
	log *slog.Logger
}

func NewMessageDeleteHandler(bot MessageDeleter, log *slog.Logger) *MessageDeleteHandler {
	if log == nil {
		log = slog.Default()
	}

	return &MessageDeleteHandler{bot: bot, log: log}
}

func (h *MessageDeleteHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.MessageDeletePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.log.ErrorContext(ctx, "message delete: failed to decode payload",
			slog.String("task_type", t.Type()), slog.String("error", err.Error()))
		return err
	}

	msg := &telebot.Message{ID: payload.MessageID, Chat: &telebot.Chat{ID: payload.ChatID}}
	if err := h.bot.Delete(msg); err != nil {
		// The user may have deleted the message themselves; nothing left
		// to protect in that case.
		h.log.WarnContext(ctx, "message delete: telegram rejected deletion",
			slog.Int64("chat_id", payload.ChatID),
			slog.Int("message_id", payload.MessageID),
			slog.String("error", err.Error()))
		return nil
	}

	h.log.InfoContext(ctx, "expired credential message",
		slog.Int64("chat_id", payload.ChatID),
		slog.Int("message_id", payload.MessageID))

	return nil
}
