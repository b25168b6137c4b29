package handlers

import (
	"errors"
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/stratuswap/stratus-bot/internal/bot/keyboard"
	apperrors "github.com/stratuswap/stratus-bot/internal/errors"
	"github.com/stratuswap/stratus-bot/internal/flow"
	"github.com/stratuswap/stratus-bot/internal/ledger"
	"github.com/stratuswap/stratus-bot/internal/pricing"
	"github.com/stratuswap/stratus-bot/internal/swap"
	"github.com/stratuswap/stratus-bot/internal/wallet"
)

// NewSellStartHandler opens a sell flow and asks which token to sell.
func NewSellStartHandler(machine flow.Machine, wallets *wallet.Service, kb *keyboard.Builder, log *slog.Logger) Handler {
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

		if _, err := machine.Begin(ctx, userID, flow.KindSell); err != nil {
			return err
		}

		return c.Send("📉 Enter the token ID you want to sell (e.g. 0.0.4321):", kb.CancelButton())
	}
}

// NewSellTokenHandler checks the holding, resolves the quote, and offers
// the sell-everything and exact-amount modes.
func NewSellTokenHandler(machine flow.Machine, wallets *wallet.Service, ledgerClient ledger.Client, quotes *pricing.Service, kb *keyboard.Builder, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		userID, ok := senderID(c)
		if !ok {
			return nil
		}

		ctx, cancel := handlerContext()
		defer cancel()

		token := c.Text()
		if !flow.ValidAccountID(token) {
			endFlow(ctx, machine, userID, log)
			return c.Send("❌ Invalid token ID format. Please use the format: 0.0.1234\n\nSale cancelled.")
		}

		quote, err := quotes.GetQuote(ctx, token)
		if err != nil {
			endFlow(ctx, machine, userID, log)
			return err
		}

		w, err := wallets.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}

		held, err := ledgerClient.TokenBalance(ctx, w.AccountID, token)
		if err != nil {
			return err
		}
		if held <= 0 {
			endFlow(ctx, machine, userID, log)
			return apperrors.NewInsufficientBalanceError(quote.Symbol)
		}

		if _, err := machine.Advance(ctx, userID, flow.StepAwaitingMode, map[string]string{
			flow.FieldToken:    token,
			flow.FieldSymbol:   quote.Symbol,
			flow.FieldDecimals: fmt.Sprintf("%d", quote.Decimals),
			flow.FieldPrice:    quote.PriceUSD.String(),
		}); err != nil {
			return err
		}

		text := fmt.Sprintf("You hold *%s %s*. How much would you like to sell?",
			formatTokenAmount(held, quote.Decimals), quote.Symbol)
		return c.Send(text, telebot.ModeMarkdown, kb.SellModeButtons())
	}
}

// NewSellAllHandler executes the sell immediately for the full holding; no
// extra confirmation round.
func NewSellAllHandler(machine flow.Machine, wallets *wallet.Service, sequencer *swap.Sequencer, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	return func(c telebot.Context) error {
		userID, ok := senderID(c)
		if !ok {
			return nil
		}

		ctx, cancel := handlerContext()
		defer cancel()

		session, err := machine.Refine(ctx, userID, flow.KindSellAll, flow.StepAwaitingMode)
		if err != nil {
			if errors.Is(err, flow.ErrSessionNotFound) {
				return c.Send("This action has expired. Start again from the menu.", kb.MainMenu())
			}
			return err
		}

		w, err := wallets.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}

		token := session.Field(flow.FieldToken)
		symbol := session.Field(flow.FieldSymbol)
		decimals := sessionDecimals(session)

		receipt, sold, err := sequencer.SellAll(ctx, w, token, symbol)

		endFlow(ctx, machine, userID, log)

		if err != nil {
			return err
		}

		text := fmt.Sprintf("✅ Sold *%s %s*.\nTransaction: `%s`",
			formatTokenAmount(sold, decimals), symbol, receipt.TransactionID)
		if sendErr := c.Send(text, telebot.ModeMarkdown); sendErr != nil {
			return sendErr
		}

		return c.Send("What would you like to do next?", kb.MainMenu())
	}
}

// NewSellCustomHandler switches the flow into exact-amount mode.
func NewSellCustomHandler(machine flow.Machine, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	return func(c telebot.Context) error {
		userID, ok := senderID(c)
		if !ok {
			return nil
		}

		ctx, cancel := handlerContext()
		defer cancel()

		session, err := machine.Refine(ctx, userID, flow.KindSellManual, flow.StepAwaitingAmount)
		if err != nil {
			if errors.Is(err, flow.ErrSessionNotFound) {
				return c.Send("This action has expired. Start again from the menu.", kb.MainMenu())
			}
			return err
		}

		return c.Send(fmt.Sprintf("How much %s would you like to sell?", session.Field(flow.FieldSymbol)), kb.CancelButton())
	}
}

// NewSellAmountHandler validates the token amount against the holding and
// asks for confirmation.
func NewSellAmountHandler(machine flow.Machine, wallets *wallet.Service, ledgerClient ledger.Client, kb *keyboard.Builder, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		userID, ok := senderID(c)
		if !ok {
			return nil
		}

		ctx, cancel := handlerContext()
		defer cancel()

		amount, err := flow.ParseAmount(c.Text())
		if err != nil {
			endFlow(ctx, machine, userID, log)
			return c.Send("❌ Invalid amount. Please enter a positive number.\n\nSale cancelled.")
		}

		session, err := machine.Session(ctx, userID)
		if err != nil {
			return err
		}

		symbol := session.Field(flow.FieldSymbol)
		decimals := sessionDecimals(session)
		raw := swap.TokenMinorUnits(amount, decimals)
		if raw == 0 {
			endFlow(ctx, machine, userID, log)
			return c.Send(fmt.Sprintf("❌ That amount is below the smallest unit of %s.\n\nSale cancelled.", symbol))
		}

		w, err := wallets.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}

		held, err := ledgerClient.TokenBalance(ctx, w.AccountID, session.Field(flow.FieldToken))
		if err != nil {
			return err
		}
		if held <= 0 || uint64(held) < raw {
			endFlow(ctx, machine, userID, log)
			return apperrors.NewInsufficientBalanceError(symbol)
		}

		if _, err := machine.Advance(ctx, userID, flow.StepAwaitingConfirmation, map[string]string{
			flow.FieldAmount: amount.String(),
		}); err != nil {
			return err
		}

		summary := fmt.Sprintf("You are about to sell *%s %s*.", amount, symbol)
		return c.Send(summary, telebot.ModeMarkdown, kb.ConfirmButtons())
	}
}
