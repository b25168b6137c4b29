package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	telebot "gopkg.in/telebot.v3"

	"github.com/stratuswap/stratus-bot/internal/bot/keyboard"
	apperrors "github.com/stratuswap/stratus-bot/internal/errors"
	"github.com/stratuswap/stratus-bot/internal/flow"
	"github.com/stratuswap/stratus-bot/internal/ledger"
	"github.com/stratuswap/stratus-bot/internal/pricing"
	"github.com/stratuswap/stratus-bot/internal/wallet"
)

// NewBuyStartHandler opens a buy flow and asks which token to buy. Accounts
// below the native minimum never get a flow.
func NewBuyStartHandler(machine flow.Machine, wallets *wallet.Service, ledgerClient ledger.Client, kb *keyboard.Builder, log *slog.Logger) Handler {
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
		if balance.LessThan(minNativeAmount) {
			return apperrors.NewInsufficientBalanceError(nativeSymbol)
		}

		if _, err := machine.Begin(ctx, userID, flow.KindBuy); err != nil {
			return err
		}

		return c.Send("💰 Enter the token ID you want to buy (e.g. 0.0.4321):", kb.CancelButton())
	}
}

// NewBuyTokenHandler resolves the token's quote and moves the flow on to
// amount collection. Unlisted tokens trade at the provisional price; a
// malformed token ID or an unreachable oracle ends the flow.
func NewBuyTokenHandler(machine flow.Machine, quotes *pricing.Service, kb *keyboard.Builder, log *slog.Logger) Handler {
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
			return c.Send("❌ Invalid token ID format. Please use the format: 0.0.1234\n\nPurchase cancelled.")
		}

		quote, err := quotes.GetQuote(ctx, token)
		if err != nil {
			endFlow(ctx, machine, userID, log)
			return err
		}

		if _, err := machine.Advance(ctx, userID, flow.StepAwaitingAmount, map[string]string{
			flow.FieldToken:    token,
			flow.FieldSymbol:   quote.Symbol,
			flow.FieldDecimals: fmt.Sprintf("%d", quote.Decimals),
			flow.FieldPrice:    quote.PriceUSD.String(),
		}); err != nil {
			return err
		}

		prompt := fmt.Sprintf("How much %s would you like to spend on %s? (min %s)", nativeSymbol, quote.Symbol, minNativeAmount)
		if quote.Source == pricing.SourceFallback {
			prompt = fmt.Sprintf("⚠️ %s is not listed on the oracle yet; a provisional price will be used.\n\n%s", token, prompt)
		}

		return c.Send(prompt, kb.CancelButton())
	}
}

// NewBuyAmountHandler validates the spend amount, estimates the tokens
// received, and asks for confirmation. Anything that is not a usable amount
// ends the flow.
func NewBuyAmountHandler(machine flow.Machine, wallets *wallet.Service, ledgerClient ledger.Client, quotes *pricing.Service, wrappedNative string, kb *keyboard.Builder, log *slog.Logger) Handler {
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
			return c.Send("❌ Invalid amount. Please enter a positive number.\n\nPurchase cancelled.")
		}
		if amount.LessThan(minNativeAmount) {
			endFlow(ctx, machine, userID, log)
			return c.Send(fmt.Sprintf("❌ The minimum buy is %s %s.\n\nPurchase cancelled.", minNativeAmount, nativeSymbol))
		}

		w, err := wallets.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}

		balance, err := ledgerClient.Balance(ctx, w.AccountID)
		if err != nil {
			return err
		}
		if balance.LessThan(amount) {
			endFlow(ctx, machine, userID, log)
			return apperrors.NewInsufficientBalanceError(nativeSymbol)
		}

		session, err := machine.Session(ctx, userID)
		if err != nil {
			return err
		}

		cost := estimateTokensOut(ctx, quotes, wrappedNative, session, amount, log)
		fields := map[string]string{flow.FieldAmount: amount.String()}
		if !cost.IsZero() {
			fields[flow.FieldCost] = cost.String()
		}

		session, err = machine.Advance(ctx, userID, flow.StepAwaitingConfirmation, fields)
		if err != nil {
			return err
		}

		symbol := session.Field(flow.FieldSymbol)
		summary := fmt.Sprintf("You are about to swap *%s %s* for %s.", amount, nativeSymbol, symbol)
		if !cost.IsZero() {
			summary = fmt.Sprintf("You are about to swap *%s %s* for ~*%s %s*.",
				amount, nativeSymbol, cost.StringFixed(3), symbol)
		}

		return c.Send(summary, telebot.ModeMarkdown, kb.ConfirmButtons())
	}
}

// estimateTokensOut prices the swap through USD using the stored token
// quote and a fresh wrapped-native quote. A zero result means no estimate
// could be produced; the swap itself does not depend on it.
func estimateTokensOut(ctx context.Context, quotes *pricing.Service, wrappedNative string, session *flow.Session, amount decimal.Decimal, log *slog.Logger) decimal.Decimal {
	tokenPrice, err := decimal.NewFromString(session.Field(flow.FieldPrice))
	if err != nil || !tokenPrice.IsPositive() {
		return decimal.Zero
	}

	nativeQuote, err := quotes.GetQuote(ctx, wrappedNative)
	if err != nil {
		log.Warn("could not price native asset for estimate", slog.Any("error", err))
		return decimal.Zero
	}

	tokenQuote := pricing.Quote{
		AssetID:  session.Field(flow.FieldToken),
		PriceUSD: tokenPrice,
		Decimals: sessionDecimals(session),
		Symbol:   session.Field(flow.FieldSymbol),
	}

	out, err := pricing.CrossAmount(nativeQuote, tokenQuote, amount)
	if err != nil {
		return decimal.Zero
	}

	return out
}
