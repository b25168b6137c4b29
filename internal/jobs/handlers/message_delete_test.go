package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/stratuswap/stratus-bot/internal/jobs"
)

type fakeDeleter struct {
	deleted []telebot.Editable
	err     error
}

func (f *fakeDeleter) Delete(msg telebot.Editable) error {
	f.deleted = append(f.deleted, msg)
	return f.err
}

func testLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMessageDeleteHandler_DeletesMessage(t *testing.T) {
	deleter := &fakeDeleter{}
	h := NewMessageDeleteHandler(deleter, testLog())

	task, err := jobs.NewMessageDeleteTask(12345, 678)
	require.NoError(t, err)

	require.NoError(t, h.ProcessTask(context.Background(), task))
	require.Len(t, deleter.deleted, 1)

	msg, ok := deleter.deleted[0].(*telebot.Message)
	require.True(t, ok)
	assert.Equal(t, 678, msg.ID)
	assert.Equal(t, int64(12345), msg.Chat.ID)
}

func TestMessageDeleteHandler_ToleratesMissingMessage(t *testing.T) {
	deleter := &fakeDeleter{err: errors.New("message to delete not found")}
	h := NewMessageDeleteHandler(deleter, testLog())

	task, err := jobs.NewMessageDeleteTask(1, 2)
	require.NoError(t, err)

	// Already-gone messages must not park the task in the retry queue.
	assert.NoError(t, h.ProcessTask(context.Background(), task))
}

func TestMessageDeleteHandler_RejectsMalformedPayload(t *testing.T) {
	h := NewMessageDeleteHandler(&fakeDeleter{}, testLog())

	task := asynq.NewTask(jobs.TaskTypeMessageDelete, []byte("{not json"))
	assert.Error(t, h.ProcessTask(context.Background(), task))
}
