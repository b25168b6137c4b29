package handlers

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/stratuswap/stratus-bot/internal/bot/keyboard"
	apperrors "github.com/stratuswap/stratus-bot/internal/errors"
	"github.com/stratuswap/stratus-bot/internal/flow"
	"github.com/stratuswap/stratus-bot/internal/ledger"
	"github.com/stratuswap/stratus-bot/internal/wallet"
)

// NewWithdrawStartHandler opens a withdrawal flow and asks for the
// destination account. Accounts below the native minimum never get a flow;
// they get the insufficient-balance message instead.
func NewWithdrawStartHandler(machine flow.Machine, wallets *wallet.Service, ledgerClient ledger.Client, kb *keyboard.Builder, log *slog.Logger) Handler {
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

		if _, err := machine.Begin(ctx, userID, flow.KindWithdraw); err != nil {
			return err
		}

		prompt := fmt.Sprintf("📤 *Withdraw %s*\n\nYour current balance: %s %s\n\nEnter the destination account ID (shard.realm.num, e.g. 0.0.1234):",
			nativeSymbol, balance.StringFixed(4), nativeSymbol)
		return c.Send(prompt, telebot.ModeMarkdown, kb.CancelButton())
	}
}

// NewWithdrawDestinationHandler validates the destination reply and moves
// the flow on to amount collection. A malformed destination ends the flow.
func NewWithdrawDestinationHandler(machine flow.Machine, kb *keyboard.Builder, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		userID, ok := senderID(c)
		if !ok {
			return nil
		}

		ctx, cancel := handlerContext()
		defer cancel()

		destination := c.Text()
		if !flow.ValidAccountID(destination) {
			endFlow(ctx, machine, userID, log)
			return c.Send("❌ Invalid account ID format. Please use the format: 0.0.1234\n\nWithdrawal cancelled.")
		}

		if _, err := machine.Advance(ctx, userID, flow.StepAwaitingAmount, map[string]string{
			flow.FieldDestination: destination,
		}); err != nil {
			return err
		}

		return c.Send(fmt.Sprintf("How much %s would you like to withdraw? (min %s)", nativeSymbol, minNativeAmount), kb.CancelButton())
	}
}

// NewWithdrawAmountHandler validates the amount against the minimum and the
// user's live balance, then asks for confirmation. Anything that is not a
// usable amount ends the flow.
func NewWithdrawAmountHandler(machine flow.Machine, wallets *wallet.Service, ledgerClient ledger.Client, kb *keyboard.Builder, log *slog.Logger) Handler {
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
			return c.Send("❌ Invalid amount. Please enter a positive number.\n\nWithdrawal cancelled.")
		}
		if amount.LessThan(minNativeAmount) {
			endFlow(ctx, machine, userID, log)
			return c.Send(fmt.Sprintf("❌ The minimum withdrawal is %s %s.\n\nWithdrawal cancelled.", minNativeAmount, nativeSymbol))
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

		session, err := machine.Advance(ctx, userID, flow.StepAwaitingConfirmation, map[string]string{
			flow.FieldAmount: amount.String(),
		})
		if err != nil {
			return err
		}

		summary := fmt.Sprintf("You are about to withdraw *%s %s* to `%s`.",
			amount, nativeSymbol, session.Field(flow.FieldDestination))
		return c.Send(summary, telebot.ModeMarkdown, kb.ConfirmButtons())
	}
}
