package handlers

import (
	"bytes"
	"fmt"
	"log/slog"

	qrcode "github.com/skip2/go-qrcode"
	telebot "gopkg.in/telebot.v3"

	"github.com/stratuswap/stratus-bot/internal/bot/keyboard"
	"github.com/stratuswap/stratus-bot/internal/ledger"
	"github.com/stratuswap/stratus-bot/internal/wallet"
)

const qrSizePixels = 256

// NewDepositHandler shows the deposit address, the current balance, and
// funding instructions, followed by a QR code for wallet apps.
func NewDepositHandler(wallets *wallet.Service, ledgerClient ledger.Client, kb *keyboard.Builder, log *slog.Logger) Handler {
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

		balance, err := ledgerClient.Balance(ctx, w.AccountID)
		if err != nil {
			return err
		}

		text := fmt.Sprintf(
			"💰 *Deposit %s*\n\nYour account ID:\n`%s`\n\nYour balance: %s %s\n\n"+
				"Instructions:\n"+
				"1. Copy your account ID above\n"+
				"2. Send %s from your wallet or exchange to this account\n"+
				"3. Wait for the transaction to be confirmed\n\n"+
				"⚠️ Transactions are irreversible.",
			nativeSymbol, w.AccountID, balance.StringFixed(4), nativeSymbol, nativeSymbol)
		if err := c.Send(text, telebot.ModeMarkdown, kb.MainMenu()); err != nil {
			return err
		}

		png, err := qrcode.Encode(w.AccountID, qrcode.Medium, qrSizePixels)
		if err != nil {
			// The address is already on screen as text.
			log.Error("failed to render deposit qr code",
				slog.String("account_id", w.AccountID), slog.Any("error", err))
			return nil
		}

		photo := &telebot.Photo{
			File:    telebot.FromReader(bytes.NewReader(png)),
			Caption: "📱 Scan this QR code to copy your account ID",
		}

		return c.Send(photo)
	}
}
