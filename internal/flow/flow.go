// Package flow tracks the per-user conversational session: which operation
// the user started and which reply the bot is waiting for next.
package flow

import "time"

// Kind identifies the logical operation a session is collecting input for.
type Kind string

const (
	KindWithdraw Kind = "withdraw"
	KindBuy      Kind = "buy"
	// KindSell is the entry point of the sell flow before the user picks a
	// mode; it refines into KindSellAll or KindSellManual.
	KindSell       Kind = "sell"
	KindSellAll    Kind = "sell_all"
	KindSellManual Kind = "sell_manual"
)

// Step is the position within a flow: the event the bot expects next.
type Step string

const (
	StepIdle                 Step = "idle"
	StepAwaitingDestination  Step = "awaiting_destination"
	StepAwaitingToken        Step = "awaiting_token"
	StepAwaitingMode         Step = "awaiting_mode"
	StepAwaitingAmount       Step = "awaiting_amount"
	StepAwaitingConfirmation Step = "awaiting_confirmation"
)

// Field keys collected across steps.
const (
	FieldDestination = "destination"
	FieldToken       = "token"
	FieldAmount      = "amount"
	FieldCost        = "cost"
	FieldSymbol      = "symbol"
	FieldDecimals    = "decimals"
	FieldPrice       = "price"
)

// Session is the active conversational flow for one user. At most one
// session exists per user at a time.
type Session struct {
	UserID    int64             `json:"user_id"`
	Kind      Kind              `json:"kind"`
	Step      Step              `json:"step"`
	Fields    map[string]string `json:"fields"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Field returns the collected value for key, or "" when absent.
func (s *Session) Field(key string) string {
	if s == nil || s.Fields == nil {
		return ""
	}

	return s.Fields[key]
}
