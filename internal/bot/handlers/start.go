package handlers

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/stratuswap/stratus-bot/internal/bot/keyboard"
	"github.com/stratuswap/stratus-bot/internal/jobs"
	"github.com/stratuswap/stratus-bot/internal/ledger"
	"github.com/stratuswap/stratus-bot/internal/wallet"
)

const keySuffixLen = 64

// NewStartHandler greets returning users with their balance and walks new
// users through custodial account creation. The private key is shown once
// in an ephemeral message and never again by this handler.
func NewStartHandler(wallets *wallet.Service, ledgerClient ledger.Client, queue jobs.Manager, kb *keyboard.Builder, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		userID, ok := senderID(c)
		if !ok {
			log.Warn("start handler invoked without sender")
			return nil
		}

		ctx, cancel := handlerContext()
		defer cancel()

		w, err := wallets.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}

		if w.Activated() {
			balance, err := ledgerClient.Balance(ctx, w.AccountID)
			if err != nil {
				return err
			}

			text := fmt.Sprintf("👋 Welcome back!\n\nAccount: `%s`\nBalance: %s %s",
				w.AccountID, balance.StringFixed(4), nativeSymbol)
			return c.Send(text, telebot.ModeMarkdown, kb.MainMenu())
		}

		if err := c.Send("⏳ Creating your wallet, one moment..."); err != nil {
			return err
		}

		info, err := ledgerClient.CreateAccount(ctx)
		if err != nil {
			return err
		}

		suffix := info.PrivateKey
		if len(suffix) > keySuffixLen {
			suffix = suffix[len(suffix)-keySuffixLen:]
		}

		if _, err := wallets.Activate(ctx, userID, info.AccountID, suffix); err != nil {
			return err
		}

		log.Info("activated wallet", slog.Int64("user_id", userID), slog.String("account_id", info.AccountID))

		credentials := fmt.Sprintf(
			"🔐 *Your wallet is ready.*\n\nAccount: `%s`\nPrivate key: `%s`\n\n"+
				"⚠️ Save this key now. This message self-destructs in 5 minutes.",
			info.AccountID, suffix)
		if err := sendEphemeral(c, queue, log, credentials, kb.DownloadKeyButton()); err != nil {
			return err
		}

		return c.Send("What would you like to do?", kb.MainMenu())
	}
}
