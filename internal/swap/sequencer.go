package swap

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/stratuswap/stratus-bot/internal/domain"
	apperrors "github.com/stratuswap/stratus-bot/internal/errors"
	"github.com/stratuswap/stratus-bot/internal/ledger"
	"github.com/stratuswap/stratus-bot/pkg/metrics"
)

// Sequencer executes plans step by step under one signing session per
// operation. Steps are single-attempt: a failed submission is never
// retried, and any non-optional failure aborts the remainder of the plan.
type Sequencer struct {
	client  ledger.Client
	builder *Builder
	log     *slog.Logger
}

func NewSequencer(client ledger.Client, builder *Builder, log *slog.Logger) *Sequencer {
	return &Sequencer{client: client, builder: builder, log: log}
}

// Withdraw sends native asset from the user's account to a destination
// account.
func (s *Sequencer) Withdraw(ctx context.Context, w *domain.UserWallet, destination string, amount decimal.Decimal) (*ledger.Receipt, error) {
	plan := s.builder.BuildTransferPlan(operatorFor(w), destination, amount)
	return s.Execute(ctx, plan)
}

// Buy spends native asset for a token. When the account holds none of the
// token yet, an association attempt precedes the swap.
func (s *Sequencer) Buy(ctx context.Context, w *domain.UserWallet, tokenID string, amount decimal.Decimal) (*ledger.Receipt, error) {
	held, err := s.client.TokenBalance(ctx, w.AccountID, tokenID)
	if err != nil {
		return nil, apperrors.NewLedgerError("token balance", "", err)
	}

	plan, err := s.builder.BuildBuyPlan(operatorFor(w), tokenID, amount, held == 0)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	return s.Execute(ctx, plan)
}

// Sell trades amountRaw base units of the token back to native asset.
func (s *Sequencer) Sell(ctx context.Context, w *domain.UserWallet, tokenID string, amountRaw uint64) (*ledger.Receipt, error) {
	plan, err := s.builder.BuildSellPlan(operatorFor(w), tokenID, amountRaw)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	return s.Execute(ctx, plan)
}

// SellAll trades the account's entire raw token balance as reported by the
// ledger, and returns the base-unit amount that was sold.
func (s *Sequencer) SellAll(ctx context.Context, w *domain.UserWallet, tokenID, symbol string) (*ledger.Receipt, int64, error) {
	held, err := s.client.TokenBalance(ctx, w.AccountID, tokenID)
	if err != nil {
		return nil, 0, apperrors.NewLedgerError("token balance", "", err)
	}
	if held <= 0 {
		return nil, 0, apperrors.NewInsufficientBalanceError(symbol)
	}

	receipt, err := s.Sell(ctx, w, tokenID, uint64(held))
	if err != nil {
		return nil, 0, err
	}

	return receipt, held, nil
}

// Execute runs the plan's steps in order and returns the receipt of the
// last successful step.
func (s *Sequencer) Execute(ctx context.Context, plan *Plan) (*ledger.Receipt, error) {
	session := s.client.Session(plan.Operator)

	var last *ledger.Receipt
	for _, step := range plan.Steps {
		receipt, err := s.submit(ctx, session, step)

		switch {
		case err != nil:
			metrics.RecordLedgerSubmission(plan.Operation, "error")
		case receipt.Succeeded():
			metrics.RecordLedgerSubmission(plan.Operation, "success")
		default:
			metrics.RecordLedgerSubmission(plan.Operation, receipt.Status)
		}

		switch {
		case err != nil && step.Optional:
			s.log.Warn("optional step failed, continuing",
				"operation", plan.Operation,
				"step", string(step.Kind),
				"error", err)
			continue
		case err != nil:
			return nil, apperrors.NewLedgerError(string(step.Kind), "", err)
		case !receipt.Succeeded() && step.Optional:
			s.log.Warn("optional step rejected, continuing",
				"operation", plan.Operation,
				"step", string(step.Kind),
				"status", receipt.Status)
			continue
		case !receipt.Succeeded():
			return nil, apperrors.NewLedgerError(string(step.Kind), receipt.Status, nil)
		}

		s.log.Info("step submitted",
			"operation", plan.Operation,
			"step", string(step.Kind),
			"transaction_id", receipt.TransactionID)
		last = receipt
	}

	return last, nil
}

func (s *Sequencer) submit(ctx context.Context, session ledger.Session, step Step) (*ledger.Receipt, error) {
	switch step.Kind {
	case StepTransfer:
		return session.Transfer(ctx, *step.Transfer)
	case StepAssociate:
		return session.AssociateToken(ctx, step.TokenID)
	default:
		return session.ExecuteContract(ctx, *step.Call)
	}
}

func operatorFor(w *domain.UserWallet) ledger.Operator {
	return ledger.Operator{
		AccountID:  w.AccountID,
		PrivateKey: w.KeySuffix,
	}
}
