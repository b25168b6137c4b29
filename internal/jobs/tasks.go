package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TaskTypeMessageDelete removes a previously sent chat message, used to
	// expire messages that carried wallet credentials.
	TaskTypeMessageDelete = "message:delete"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// CredentialTTL is how long a message containing a private key stays
// visible before the deferred delete fires.
const CredentialTTL = 5 * time.Minute

type MessageDeletePayload struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int   `json:"message_id"`
}

// NewMessageDeleteTask builds a deferred-delete task for one chat message.
func NewMessageDeleteTask(chatID int64, messageID int) (*asynq.Task, error) {
	payload, err := json.Marshal(MessageDeletePayload{ChatID: chatID, MessageID: messageID})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeMessageDelete, payload, asynq.Queue(QueueCritical)), nil
}
