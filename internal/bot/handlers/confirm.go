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
	"github.com/stratuswap/stratus-bot/internal/swap"
	"github.com/stratuswap/stratus-bot/internal/wallet"
)

// NewConfirmHandler executes the pending operation once the user presses
// Confirm. The session is cleared whether the submission succeeds or not;
// a failed operation is restarted from the menu, never resumed.
func NewConfirmHandler(machine flow.Machine, wallets *wallet.Service, sequencer *swap.Sequencer, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	return func(c telebot.Context) error {
		userID, ok := senderID(c)
		if !ok {
			return nil
		}

		ctx, cancel := handlerContext()
		defer cancel()

		session, err := machine.Session(ctx, userID)
		if err != nil {
			if errors.Is(err, flow.ErrSessionNotFound) {
				return c.Send("Nothing to confirm. Start from the menu.", kb.MainMenu())
			}
			return err
		}
		if session.Step != flow.StepAwaitingConfirmation {
			return c.Send("Nothing to confirm yet. Finish the current step first.")
		}

		w, err := wallets.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}

		amount, err := flow.ParseAmount(session.Field(flow.FieldAmount))
		if err != nil {
			return apperrors.NewStateError(fmt.Sprintf("session %d has unparseable amount", userID))
		}

		var (
			receipt *ledger.Receipt
			summary string
		)

		switch session.Kind {
		case flow.KindWithdraw:
			destination := session.Field(flow.FieldDestination)
			receipt, err = sequencer.Withdraw(ctx, w, destination, amount)
			summary = fmt.Sprintf("✅ Withdrew *%s %s* to `%s`.", amount, nativeSymbol, destination)
		case flow.KindBuy:
			token := session.Field(flow.FieldToken)
			receipt, err = sequencer.Buy(ctx, w, token, amount)
			summary = fmt.Sprintf("✅ Swapped *%s %s* for %s.", amount, nativeSymbol, session.Field(flow.FieldSymbol))
		case flow.KindSellManual:
			token := session.Field(flow.FieldToken)
			raw := swap.TokenMinorUnits(amount, sessionDecimals(session))
			receipt, err = sequencer.Sell(ctx, w, token, raw)
			summary = fmt.Sprintf("✅ Sold *%s %s*.", amount, session.Field(flow.FieldSymbol))
		default:
			err = apperrors.NewStateError(fmt.Sprintf("kind %q cannot be confirmed", session.Kind))
		}

		if clearErr := machine.Clear(ctx, userID); clearErr != nil && !errors.Is(clearErr, flow.ErrSessionNotFound) {
			log.Error("failed to clear flow after confirmation", slog.Int64("user_id", userID), slog.Any("error", clearErr))
		}

		if err != nil {
			return err
		}

		text := fmt.Sprintf("%s\nTransaction: `%s`", summary, receipt.TransactionID)
		if sendErr := c.Send(text, telebot.ModeMarkdown); sendErr != nil {
			return sendErr
		}

		return c.Send("What would you like to do next?", kb.MainMenu())
	}
}

// NewAbortHandler backs out of whatever flow is active and returns to the
// menu. Serves both the inline Cancel buttons and the /cancel command.
func NewAbortHandler(machine flow.Machine, kb *keyboard.Builder, log *slog.Logger) Handler {
	return func(c telebot.Context) error {
		userID, ok := senderID(c)
		if !ok {
			log.Warn("abort handler invoked without sender")
			return nil
		}

		ctx, cancel := handlerContext()
		defer cancel()

		if err := machine.Clear(ctx, userID); err != nil && !errors.Is(err, flow.ErrSessionNotFound) {
			return err
		}

		return c.Send("Operation cancelled.", kb.MainMenu())
	}
}
