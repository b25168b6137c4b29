package swap

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stratuswap/stratus-bot/internal/ledger"
)

// swapDeadline bounds how long a routed swap may sit in the mempool before
// the router rejects it.
const swapDeadline = 20 * time.Minute

// BuilderConfig carries the routed-exchange contracts and gas ceilings.
type BuilderConfig struct {
	RouterContract string
	WrappedNative  string
	SwapGas        uint64
	ApproveGas     uint64
}

// Builder turns operation parameters into executable plans. It performs no
// I/O; all ledger reads happen in the sequencer before planning.
type Builder struct {
	cfg BuilderConfig
	now func() time.Time
}

func NewBuilder(cfg BuilderConfig) *Builder {
	return &Builder{cfg: cfg, now: time.Now}
}

// NativeMinorUnits converts a human amount of the native asset to integer
// minor units, truncating anything below the minor-unit scale.
func NativeMinorUnits(amount decimal.Decimal) uint64 {
	u := amount.Shift(ledger.NativeDecimals).Floor().IntPart()
	if u < 0 {
		return 0
	}
	return uint64(u)
}

// TokenMinorUnits converts a human token amount to integer base units at
// the token's own scale, truncating anything below it.
func TokenMinorUnits(amount decimal.Decimal, decimals int32) uint64 {
	u := amount.Shift(decimals).Floor().IntPart()
	if u < 0 {
		return 0
	}
	return uint64(u)
}

// BuildTransferPlan moves native-asset value from the operator's account to
// an external destination.
func (b *Builder) BuildTransferPlan(op ledger.Operator, destination string, amount decimal.Decimal) *Plan {
	return &Plan{
		Operation: "withdraw",
		Operator:  op,
		Steps: []Step{
			{
				Kind: StepTransfer,
				Transfer: &ledger.TransferRequest{
					From:   op.AccountID,
					To:     destination,
					Amount: amount,
					Memo:   "withdrawal",
				},
			},
		},
	}
}

// BuildBuyPlan spends native asset for a token via the router. When
// associate is set, an association step precedes the swap; its failure does
// not abort the plan, since the account may already be associated.
func (b *Builder) BuildBuyPlan(op ledger.Operator, tokenID string, amount decimal.Decimal, associate bool) (*Plan, error) {
	wrapped, err := ledger.EvmAddress(b.cfg.WrappedNative)
	if err != nil {
		return nil, fmt.Errorf("wrapped native: %w", err)
	}
	token, err := ledger.EvmAddress(tokenID)
	if err != nil {
		return nil, fmt.Errorf("token: %w", err)
	}
	recipient, err := ledger.EvmAddress(op.AccountID)
	if err != nil {
		return nil, fmt.Errorf("recipient: %w", err)
	}

	plan := &Plan{Operation: "buy", Operator: op}
	if associate {
		plan.Steps = append(plan.Steps, Step{
			Kind:     StepAssociate,
			Optional: true,
			TokenID:  tokenID,
		})
	}

	// Re-quantize to the exact minor units that will be attached, so the
	// payable value and the truncation rule cannot drift apart.
	payable := decimal.New(int64(NativeMinorUnits(amount)), -ledger.NativeDecimals)

	plan.Steps = append(plan.Steps, Step{
		Kind: StepSwap,
		Call: &ledger.ContractCall{
			ContractID: b.cfg.RouterContract,
			Function:   "swapExactETHForTokens",
			Params: []ledger.Param{
				ledger.Uint256(0),
				ledger.AddressArray(wrapped, token),
				ledger.Address(recipient),
				ledger.Uint256(b.deadline()),
			},
			Gas:           b.cfg.SwapGas,
			PayableAmount: payable,
		},
	})

	return plan, nil
}

// BuildSellPlan sells amountRaw base units of a token for native asset via
// the router. The approval step comes strictly before the swap and is
// fatal: without a live allowance the router call can only revert.
func (b *Builder) BuildSellPlan(op ledger.Operator, tokenID string, amountRaw uint64) (*Plan, error) {
	wrapped, err := ledger.EvmAddress(b.cfg.WrappedNative)
	if err != nil {
		return nil, fmt.Errorf("wrapped native: %w", err)
	}
	token, err := ledger.EvmAddress(tokenID)
	if err != nil {
		return nil, fmt.Errorf("token: %w", err)
	}
	router, err := ledger.EvmAddress(b.cfg.RouterContract)
	if err != nil {
		return nil, fmt.Errorf("router: %w", err)
	}
	recipient, err := ledger.EvmAddress(op.AccountID)
	if err != nil {
		return nil, fmt.Errorf("recipient: %w", err)
	}

	return &Plan{
		Operation: "sell",
		Operator:  op,
		Steps: []Step{
			{
				Kind: StepApprove,
				Call: &ledger.ContractCall{
					ContractID: tokenID,
					Function:   "approve",
					Params: []ledger.Param{
						ledger.Address(router),
						ledger.Uint256(amountRaw),
					},
					Gas: b.cfg.ApproveGas,
				},
			},
			{
				Kind: StepSwap,
				Call: &ledger.ContractCall{
					ContractID: b.cfg.RouterContract,
					Function:   "swapExactTokensForETH",
					Params: []ledger.Param{
						ledger.Uint256(amountRaw),
						ledger.Uint256(0),
						ledger.AddressArray(token, wrapped),
						ledger.Address(recipient),
						ledger.Uint256(b.deadline()),
					},
					Gas: b.cfg.SwapGas,
				},
			},
		},
	}, nil
}

func (b *Builder) deadline() uint64 {
	return uint64(b.now().Add(swapDeadline).Unix())
}
