package swap

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratuswap/stratus-bot/internal/ledger"
)

var testConfig = BuilderConfig{
	RouterContract: "0.0.3045981",
	WrappedNative:  "0.0.1456986",
	SwapGas:        1120000,
	ApproveGas:     854241,
}

func frozenBuilder(t *testing.T) (*Builder, time.Time) {
	t.Helper()

	b := NewBuilder(testConfig)
	fixed := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return fixed }

	return b, fixed
}

func TestNativeMinorUnits_Truncates(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
	}{
		{"0.1", 10000000},
		{"1.234567899", 123456789},
		{"2.5", 250000000},
		{"0.000000001", 0},
	}

	for _, tc := range cases {
		got := NativeMinorUnits(decimal.RequireFromString(tc.in))
		assert.Equal(t, tc.want, got, "amount %s", tc.in)
	}
}

func TestTokenMinorUnits_Truncates(t *testing.T) {
	assert.Equal(t, uint64(2500000), TokenMinorUnits(decimal.RequireFromString("2.5"), 6))
	assert.Equal(t, uint64(123), TokenMinorUnits(decimal.RequireFromString("1.239"), 2))
	assert.Equal(t, uint64(7), TokenMinorUnits(decimal.RequireFromString("7"), 0))
}

func TestBuildBuyPlan_SwapCall(t *testing.T) {
	b, fixed := frozenBuilder(t)
	op := ledger.Operator{AccountID: "0.0.1234", PrivateKey: "k"}

	plan, err := b.BuildBuyPlan(op, "0.0.4321", decimal.RequireFromString("2.5"), false)
	require.NoError(t, err)
	require.Len(t, plan.Steps, 1)

	step := plan.Steps[0]
	assert.Equal(t, StepSwap, step.Kind)
	assert.False(t, step.Optional)

	call := step.Call
	assert.Equal(t, "0.0.3045981", call.ContractID)
	assert.Equal(t, "swapExactETHForTokens", call.Function)
	assert.Equal(t, uint64(1120000), call.Gas)
	assert.True(t, call.PayableAmount.Equal(decimal.RequireFromString("2.5")))

	require.Len(t, call.Params, 4)
	assert.Equal(t, ledger.Uint256(0), call.Params[0])

	wrapped, _ := ledger.EvmAddress("0.0.1456986")
	token, _ := ledger.EvmAddress("0.0.4321")
	recipient, _ := ledger.EvmAddress("0.0.1234")
	assert.Equal(t, ledger.AddressArray(wrapped, token), call.Params[1])
	assert.Equal(t, ledger.Address(recipient), call.Params[2])

	deadline := uint64(fixed.Add(20 * time.Minute).Unix())
	assert.Equal(t, ledger.Uint256(deadline), call.Params[3])
}

func TestBuildBuyPlan_AssociationPrecedesSwap(t *testing.T) {
	b, _ := frozenBuilder(t)
	op := ledger.Operator{AccountID: "0.0.1234"}

	plan, err := b.BuildBuyPlan(op, "0.0.4321", decimal.RequireFromString("1"), true)
	require.NoError(t, err)
	require.Len(t, plan.Steps, 2)

	assert.Equal(t, StepAssociate, plan.Steps[0].Kind)
	assert.True(t, plan.Steps[0].Optional)
	assert.Equal(t, "0.0.4321", plan.Steps[0].TokenID)
	assert.Equal(t, StepSwap, plan.Steps[1].Kind)
}

func TestBuildBuyPlan_PayableMatchesMinorUnits(t *testing.T) {
	b, _ := frozenBuilder(t)

	// Anything below the minor-unit scale is dropped before attaching
	// value to the call.
	plan, err := b.BuildBuyPlan(ledger.Operator{AccountID: "0.0.1"}, "0.0.2", decimal.RequireFromString("1.000000009"), false)
	require.NoError(t, err)

	assert.True(t, plan.Steps[0].Call.PayableAmount.Equal(decimal.RequireFromString("1")))
}

func TestBuildSellPlan_ApproveBeforeSwap(t *testing.T) {
	b, fixed := frozenBuilder(t)
	op := ledger.Operator{AccountID: "0.0.1234"}

	plan, err := b.BuildSellPlan(op, "0.0.4321", 2500000)
	require.NoError(t, err)
	require.Len(t, plan.Steps, 2)

	approve := plan.Steps[0]
	assert.Equal(t, StepApprove, approve.Kind)
	assert.False(t, approve.Optional, "a dead allowance guarantees a revert, so approval failure must abort")
	assert.Equal(t, "0.0.4321", approve.Call.ContractID)
	assert.Equal(t, "approve", approve.Call.Function)
	assert.Equal(t, uint64(854241), approve.Call.Gas)

	router, _ := ledger.EvmAddress("0.0.3045981")
	require.Len(t, approve.Call.Params, 2)
	assert.Equal(t, ledger.Address(router), approve.Call.Params[0])
	assert.Equal(t, ledger.Uint256(2500000), approve.Call.Params[1])

	sell := plan.Steps[1]
	assert.Equal(t, StepSwap, sell.Kind)
	assert.Equal(t, "0.0.3045981", sell.Call.ContractID)
	assert.Equal(t, "swapExactTokensForETH", sell.Call.Function)
	assert.Equal(t, uint64(1120000), sell.Call.Gas)
	assert.True(t, sell.Call.PayableAmount.IsZero())

	require.Len(t, sell.Call.Params, 5)
	assert.Equal(t, ledger.Uint256(2500000), sell.Call.Params[0])
	assert.Equal(t, ledger.Uint256(0), sell.Call.Params[1])

	token, _ := ledger.EvmAddress("0.0.4321")
	wrapped, _ := ledger.EvmAddress("0.0.1456986")
	assert.Equal(t, ledger.AddressArray(token, wrapped), sell.Call.Params[2])

	deadline := uint64(fixed.Add(20 * time.Minute).Unix())
	assert.Equal(t, ledger.Uint256(deadline), sell.Call.Params[4])
}

func TestBuildPlans_RejectMalformedIDs(t *testing.T) {
	b, _ := frozenBuilder(t)

	_, err := b.BuildBuyPlan(ledger.Operator{AccountID: "0.0.1"}, "not-an-id", decimal.New(1, 0), false)
	require.Error(t, err)

	_, err = b.BuildSellPlan(ledger.Operator{AccountID: "garbage"}, "0.0.2", 1)
	require.Error(t, err)
}
