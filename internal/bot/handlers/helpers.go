package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	telebot "gopkg.in/telebot.v3"

	"github.com/stratuswap/stratus-bot/internal/flow"
	"github.com/stratuswap/stratus-bot/internal/jobs"
)

const nativeSymbol = "HBAR"

// minNativeAmount is the floor for withdrawals and buys; dust-sized
// submissions only burn fees.
var minNativeAmount = decimal.RequireFromString("0.1")

const handlerTimeout = 30 * time.Second

func handlerContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), handlerTimeout)
}

func senderID(c telebot.Context) (int64, bool) {
	if c == nil || c.Sender() == nil {
		return 0, false
	}

	return c.Sender().ID, true
}

// formatTokenAmount renders raw base units at the token's scale with three
// visible decimals, e.g. 2500000 at 6 decimals renders as "2.500".
func formatTokenAmount(raw int64, decimals int32) string {
	return decimal.New(raw, -decimals).StringFixed(3)
}

func sessionDecimals(s *flow.Session) int32 {
	d, err := strconv.ParseInt(s.Field(flow.FieldDecimals), 10, 32)
	if err != nil {
		return 0
	}

	return int32(d)
}

// endFlow tears down the user's active flow. An already expired session is
// not an error here; the user just sees the cancellation text.
func endFlow(ctx context.Context, machine flow.Machine, userID int64, log *slog.Logger) {
	if err := machine.Clear(ctx, userID); err != nil && !errors.Is(err, flow.ErrSessionNotFound) {
		log.Error("failed to clear flow", slog.Int64("user_id", userID), slog.Any("error", err))
	}
}

// scheduleDeletion enqueues removal of a credential-bearing message once
// the retention window passes. The content is already on screen, so an
// enqueue failure is logged loudly rather than surfaced to the user.
func scheduleDeletion(queue jobs.Manager, log *slog.Logger, chatID int64, messageID int) {
	task, err := jobs.NewMessageDeleteTask(chatID, messageID)
	if err != nil {
		log.Error("failed to build credential deletion task",
			slog.Int64("chat_id", chatID), slog.Int("message_id", messageID), slog.Any("error", err))
		return
	}

	ctx, cancel := handlerContext()
	defer cancel()

	if _, err := queue.Enqueue(ctx, task, asynq.ProcessIn(jobs.CredentialTTL)); err != nil {
		log.Error("failed to schedule credential message deletion",
			slog.Int64("chat_id", chatID),
			slog.Int("message_id", messageID),
			slog.Any("error", err))
	}
}

// sendEphemeral delivers a message and schedules its deletion once the
// credential retention window passes. Used for anything that carries a
// private key.
func sendEphemeral(c telebot.Context, queue jobs.Manager, log *slog.Logger, text string, opts ...interface{}) error {
	sendOpts := append([]interface{}{telebot.ModeMarkdown}, opts...)
	msg, err := c.Bot().Send(c.Recipient(), text, sendOpts...)
	if err != nil {
		return err
	}

	scheduleDeletion(queue, log, msg.Chat.ID, msg.ID)

	return nil
}
