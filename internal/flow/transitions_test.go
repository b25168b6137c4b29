package flow

import "testing"

func TestIsTransitionAllowed(t *testing.T) {
	testCases := []struct {
		name     string
		kind     Kind
		from     Step
		to       Step
		expected bool
	}{
		{name: "withdraw destination to amount", kind: KindWithdraw, from: StepAwaitingDestination, to: StepAwaitingAmount, expected: true},
		{name: "withdraw amount to confirmation", kind: KindWithdraw, from: StepAwaitingAmount, to: StepAwaitingConfirmation, expected: true},
		{name: "withdraw destination straight to confirmation invalid", kind: KindWithdraw, from: StepAwaitingDestination, to: StepAwaitingConfirmation, expected: false},
		{name: "withdraw cannot step backwards", kind: KindWithdraw, from: StepAwaitingAmount, to: StepAwaitingDestination, expected: false},
		{name: "buy token to amount", kind: KindBuy, from: StepAwaitingToken, to: StepAwaitingAmount, expected: true},
		{name: "buy amount to confirmation", kind: KindBuy, from: StepAwaitingAmount, to: StepAwaitingConfirmation, expected: true},
		{name: "buy token to confirmation invalid", kind: KindBuy, from: StepAwaitingToken, to: StepAwaitingConfirmation, expected: false},
		{name: "sell token to mode", kind: KindSell, from: StepAwaitingToken, to: StepAwaitingMode, expected: true},
		{name: "sell token to amount invalid", kind: KindSell, from: StepAwaitingToken, to: StepAwaitingAmount, expected: false},
		{name: "sell manual mode to amount", kind: KindSellManual, from: StepAwaitingMode, to: StepAwaitingAmount, expected: true},
		{name: "sell all has no further steps", kind: KindSellAll, from: StepAwaitingMode, to: StepAwaitingAmount, expected: false},
		{name: "unknown kind", kind: Kind("stake"), from: StepAwaitingToken, to: StepAwaitingAmount, expected: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if actual := IsTransitionAllowed(tc.kind, tc.from, tc.to); actual != tc.expected {
				t.Errorf("IsTransitionAllowed(%s: %s -> %s) = %t, expected %t", tc.kind, tc.from, tc.to, actual, tc.expected)
			}
		})
	}
}

func TestIsRefinementAllowed(t *testing.T) {
	testCases := []struct {
		name     string
		from     Kind
		to       Kind
		expected bool
	}{
		{name: "sell to sell all", from: KindSell, to: KindSellAll, expected: true},
		{name: "sell to sell manual", from: KindSell, to: KindSellManual, expected: true},
		{name: "sell to buy invalid", from: KindSell, to: KindBuy, expected: false},
		{name: "buy refines nothing", from: KindBuy, to: KindSellAll, expected: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if actual := IsRefinementAllowed(tc.from, tc.to); actual != tc.expected {
				t.Errorf("IsRefinementAllowed(%s -> %s) = %t, expected %t", tc.from, tc.to, actual, tc.expected)
			}
		})
	}
}

func TestInitialStep(t *testing.T) {
	testCases := []struct {
		kind     Kind
		expected Step
	}{
		{kind: KindWithdraw, expected: StepAwaitingDestination},
		{kind: KindBuy, expected: StepAwaitingToken},
		{kind: KindSell, expected: StepAwaitingToken},
		{kind: KindSellAll, expected: StepIdle},
		{kind: KindSellManual, expected: StepIdle},
	}

	for _, tc := range testCases {
		if actual := InitialStep(tc.kind); actual != tc.expected {
			t.Errorf("InitialStep(%s) = %s, expected %s", tc.kind, actual, tc.expected)
		}
	}
}
