package flow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedisStorage_SetAndGet(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	storage := NewRedisStorage(client, testLogger())

	ctx := context.Background()
	session := &Session{
		UserID: 123,
		Kind:   KindBuy,
		Step:   StepAwaitingAmount,
		Fields: map[string]string{
			FieldToken: "0.0.4321",
		},
	}

	err := storage.SetSession(ctx, session.UserID, session)
	assert.NoError(t, err)

	result, err := storage.GetSession(ctx, session.UserID)
	assert.NoError(t, err)
	if assert.NotNil(t, result) {
		assert.Equal(t, session.UserID, result.UserID)
		assert.Equal(t, session.Kind, result.Kind)
		assert.Equal(t, session.Step, result.Step)
		assert.Equal(t, session.Fields, result.Fields)
		assert.False(t, result.UpdatedAt.IsZero())
	}
}

func TestRedisStorage_GetNotFound(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	storage := NewRedisStorage(client, testLogger())

	session, err := storage.GetSession(context.Background(), 999)
	assert.Nil(t, session)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStorage_Clear(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	storage := NewRedisStorage(client, testLogger())
	ctx := context.Background()

	session := &Session{UserID: 55, Kind: KindWithdraw, Step: StepAwaitingDestination}
	assert.NoError(t, storage.SetSession(ctx, session.UserID, session))
	assert.NoError(t, storage.ClearSession(ctx, session.UserID))

	_, err := storage.GetSession(ctx, session.UserID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStorage_ClearMissingIsNoop(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	storage := NewRedisStorage(client, testLogger())
	assert.NoError(t, storage.ClearSession(context.Background(), 31337))
}
