package handlers

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/stratuswap/stratus-bot/internal/bot/keyboard"
	"github.com/stratuswap/stratus-bot/internal/jobs"
	"github.com/stratuswap/stratus-bot/internal/wallet"
)

// NewExportKeyHandler re-sends the stored private key in an ephemeral
// message with the key-file download button.
func NewExportKeyHandler(wallets *wallet.Service, queue jobs.Manager, kb *keyboard.Builder, log *slog.Logger) Handler {
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

		log.Info("exported wallet key", slog.Int64("user_id", userID))

		text := fmt.Sprintf(
			"🔑 Account: `%s`\nPrivate key: `%s`\n\n⚠️ This message self-destructs in 5 minutes.",
			w.AccountID, w.KeySuffix)
		return sendEphemeral(c, queue, log, text, kb.DownloadKeyButton())
	}
}
