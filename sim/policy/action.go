package policy

import "fmt"

// ActionKind tags which action variant an Action carries. The valid set is
// scoped per TreeKind (spec §4.2 "Action kinds are tree-scoped") — Validate
// rejects an Action whose Kind does not belong to its tree.
type ActionKind uint8

const (
	// payment_tree actions
	ActionRelease ActionKind = iota
	ActionHold
	ActionDrop
	ActionSplit
	ActionStaggerSplit
	ActionPaceAndRelease
	ActionReprioritize

	// bank_tree actions
	ActionSetReleaseBudget
	ActionSetState
	ActionAddState
	ActionNoAction

	// collateral tree actions
	ActionPostCollateral
	ActionWithdrawCollateral
	ActionHoldCollateral
)

func (k ActionKind) String() string {
	switch k {
	case ActionRelease:
		return "Release"
	case ActionHold:
		return "Hold"
	case ActionDrop:
		return "Drop"
	case ActionSplit:
		return "Split"
	case ActionStaggerSplit:
		return "StaggerSplit"
	case ActionPaceAndRelease:
		return "PaceAndRelease"
	case ActionReprioritize:
		return "Reprioritize"
	case ActionSetReleaseBudget:
		return "SetReleaseBudget"
	case ActionSetState:
		return "SetState"
	case ActionAddState:
		return "AddState"
	case ActionNoAction:
		return "NoAction"
	case ActionPostCollateral:
		return "PostCollateral"
	case ActionWithdrawCollateral:
		return "WithdrawCollateral"
	case ActionHoldCollateral:
		return "HoldCollateral"
	default:
		return fmt.Sprintf("ActionKind(%d)", uint8(k))
	}
}

// treeForAction reports which TreeKind an ActionKind is scoped to.
// ActionHold/Hold-like actions are shared between payment_tree only;
// collateral actions are shared between the two collateral trees.
func treeForAction(k ActionKind) (kinds []TreeKind) {
	switch k {
	case ActionRelease, ActionHold, ActionDrop, ActionSplit, ActionStaggerSplit, ActionPaceAndRelease, ActionReprioritize:
		return []TreeKind{PaymentTree}
	case ActionSetReleaseBudget, ActionSetState, ActionAddState, ActionNoAction:
		return []TreeKind{BankTree}
	case ActionPostCollateral, ActionWithdrawCollateral, ActionHoldCollateral:
		return []TreeKind{StrategicCollateralTree, EndOfTickCollateralTree}
	default:
		return nil
	}
}

// belongsToTree reports whether ActionKind k is valid within TreeKind t.
func belongsToTree(k ActionKind, t TreeKind) bool {
	for _, kind := range treeForAction(k) {
		if kind == t {
			return true
		}
	}
	return false
}

// Action is a tagged action variant. Only the fields relevant to Kind are
// populated (spec §9's closed-sum-type convention).
type Action struct {
	Kind ActionKind

	// ActionSplit / ActionStaggerSplit / ActionPaceAndRelease
	NumSplits     int
	IntervalTicks uint64 // StaggerSplit only; PaceAndRelease implies 1

	// ActionReprioritize
	NewPriority int

	// ActionSetReleaseBudget
	Budget int64 // cents

	// ActionSetState / ActionAddState
	StateKey   string
	StateValue BankScratchValue // SetState
	StateDelta int64            // AddState

	// ActionPostCollateral / ActionWithdrawCollateral
	CollateralAmount int64 // cents
	Reason           string
}

// BankScratchValue mirrors agent.BankValue's shape without importing the
// agent package (policy stays a leaf dependency); the engine translates
// between the two when applying an action.
type BankScratchValue struct {
	IsString bool
	Int      int64
	Str      string
}
