// Package swap sequences the multi-step ledger submissions behind
// withdrawals and trades. Plans are built up front, then executed one
// submission at a time under a single per-operation signing session.
package swap

import (
	"github.com/stratuswap/stratus-bot/internal/ledger"
)

// StepKind names a submission type within a plan.
type StepKind string

const (
	StepTransfer  StepKind = "transfer"
	StepAssociate StepKind = "associate"
	StepApprove   StepKind = "approve"
	StepSwap      StepKind = "swap"
)

// Step is one submission in a plan. Exactly one of Transfer, Call, or
// TokenID is populated depending on the kind. Optional steps may fail
// without aborting the remaining steps.
type Step struct {
	Kind     StepKind
	Optional bool

	Transfer *ledger.TransferRequest
	Call     *ledger.ContractCall
	TokenID  string
}

// Plan is an ordered sequence of submissions, all signed by one operator.
type Plan struct {
	Operation string
	Operator  ledger.Operator
	Steps     []Step
}
