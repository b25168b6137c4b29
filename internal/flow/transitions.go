package flow

// initialSteps maps each flow kind to the step it starts in.
var initialSteps = map[Kind]Step{
	KindWithdraw: StepAwaitingDestination,
	KindBuy:      StepAwaitingToken,
	KindSell:     StepAwaitingToken,
}

// validTransitions contains the permitted step sequences per flow kind.
// A flow only ever moves forward; invalid input clears the session instead
// of stepping back.
var validTransitions = map[Kind]map[Step][]Step{
	KindWithdraw: {
		StepAwaitingDestination: {StepAwaitingAmount},
		StepAwaitingAmount:      {StepAwaitingConfirmation},
	},
	KindBuy: {
		StepAwaitingToken:  {StepAwaitingAmount},
		StepAwaitingAmount: {StepAwaitingConfirmation},
	},
	KindSell: {
		StepAwaitingToken: {StepAwaitingMode},
	},
	KindSellManual: {
		StepAwaitingMode:   {StepAwaitingAmount},
		StepAwaitingAmount: {StepAwaitingConfirmation},
	},
	// Sell-all executes straight from mode selection; it has no further
	// input-collection steps.
	KindSellAll: {},
}

// refinements lists the kinds a parent flow may switch into.
var refinements = map[Kind][]Kind{
	KindSell: {KindSellAll, KindSellManual},
}

// InitialStep returns the first step of the given flow kind, or StepIdle for
// kinds that cannot start a session directly.
func InitialStep(kind Kind) Step {
	if s, ok := initialSteps[kind]; ok {
		return s
	}

	return StepIdle
}

// IsTransitionAllowed reports whether a session of the given kind may move
// from one step to another.
func IsTransitionAllowed(kind Kind, from, to Step) bool {
	steps, ok := validTransitions[kind]
	if !ok {
		return false
	}

	for _, next := range steps[from] {
		if next == to {
			return true
		}
	}

	return false
}

// IsRefinementAllowed reports whether a session may switch from one kind to
// another mid-flow.
func IsRefinementAllowed(from, to Kind) bool {
	for _, kind := range refinements[from] {
		if kind == to {
			return true
		}
	}

	return false
}
