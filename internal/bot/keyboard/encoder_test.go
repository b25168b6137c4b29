package keyboard_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratuswap/stratus-bot/internal/bot/keyboard"
)

func TestEncodeCallback(t *testing.T) {
	payload, err := keyboard.EncodeCallback("sell_token", "0.0.4321")
	require.NoError(t, err)
	assert.Equal(t, "sell_token:0.0.4321", payload)

	payload, err = keyboard.EncodeCallback("flow_abort", "")
	require.NoError(t, err)
	assert.Equal(t, "flow_abort", payload)
}

func TestEncodeCallback_EnforcesTelegramLimit(t *testing.T) {
	_, err := keyboard.EncodeCallback("prefix", strings.Repeat("x", keyboard.CallbackDataLimitBytes))
	require.Error(t, err)

	_, err = keyboard.EncodeCallback(strings.Repeat("x", keyboard.CallbackDataLimitBytes+1), "")
	require.Error(t, err)
}

func TestDecodeCallback(t *testing.T) {
	unique, data, err := keyboard.DecodeCallback("sell_token:0.0.4321")
	require.NoError(t, err)
	assert.Equal(t, "sell_token", unique)
	assert.Equal(t, "0.0.4321", data)

	unique, data, err = keyboard.DecodeCallback("flow_confirm")
	require.NoError(t, err)
	assert.Equal(t, "flow_confirm", unique)
	assert.Empty(t, data)

	_, _, err = keyboard.DecodeCallback("")
	require.Error(t, err)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload, err := keyboard.EncodeCallback("menu_buy", "0.0.99")
	require.NoError(t, err)

	unique, data, err := keyboard.DecodeCallback(payload)
	require.NoError(t, err)
	assert.Equal(t, "menu_buy", unique)
	assert.Equal(t, "0.0.99", data)
}
