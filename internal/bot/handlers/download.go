package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/stratuswap/stratus-bot/internal/bot/keyboard"
	"github.com/stratuswap/stratus-bot/internal/jobs"
	"github.com/stratuswap/stratus-bot/internal/wallet"
)

const keyFileName = "hedera_wallet.json"

type keyFile struct {
	PrivateKey string `json:"privateKey"`
}

// NewDownloadKeyHandler replaces the credential prompt with a JSON key file.
// The prompt message is removed right away; the document itself lives for
// the credential retention window and is then deleted by a queued job.
func NewDownloadKeyHandler(wallets *wallet.Service, queue jobs.Manager, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	return func(c telebot.Context) error {
		userID, ok := senderID(c)
		if !ok {
			return nil
		}

		ctx, cancel := handlerContext()
		defer cancel()

		w, err := wallets.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		if !w.Activated() {
			return c.Send("Your wallet is not set up yet. Send /start first.")
		}

		if err := c.Delete(); err != nil {
			// The scheduled cleanup will still remove the prompt.
			log.Warn("failed to delete credential prompt", slog.Int64("user_id", userID), slog.Any("error", err))
		}

		doc, err := buildKeyDocument(w.KeySuffix)
		if err != nil {
			return err
		}

		msg, err := c.Bot().Send(c.Recipient(), doc)
		if err != nil {
			return err
		}

		log.Info("delivered wallet key file", slog.Int64("user_id", userID))
		scheduleDeletion(queue, log, msg.Chat.ID, msg.ID)

		return c.Send("What would you like to do next?", kb.MainMenu())
	}
}

// buildKeyDocument wraps the signing key in a JSON file suitable for
// import elsewhere.
func buildKeyDocument(keySuffix string) (*telebot.Document, error) {
	payload, err := json.MarshalIndent(keyFile{PrivateKey: keySuffix}, "", "  ")
	if err != nil {
		return nil, err
	}

	return &telebot.Document{
		File:     telebot.FromReader(bytes.NewReader(payload)),
		FileName: keyFileName,
		MIME:     "application/json",
		Caption:  "🔐 Here is your wallet information. Store it securely! This file self-destructs in 5 minutes.",
	}, nil
}
