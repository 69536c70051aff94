package policy

// TreeKind identifies which of the four trees is being evaluated, since
// the field set and action-kind set both depend on it (spec §4.2).
type TreeKind uint8

const (
	PaymentTree TreeKind = iota
	BankTree
	StrategicCollateralTree
	EndOfTickCollateralTree
)

func (k TreeKind) String() string {
	switch k {
	case PaymentTree:
		return "payment_tree"
	case BankTree:
		return "bank_tree"
	case StrategicCollateralTree:
		return "strategic_collateral_tree"
	case EndOfTickCollateralTree:
		return "end_of_tick_collateral_tree"
	default:
		return "unknown_tree"
	}
}

// AgentFields carries the agent/time fields exposed to every tree kind
// (spec §4.2 "Agent/time fields (all trees)").
type AgentFields struct {
	Balance                   int64
	EffectiveLiquidity        int64
	CreditLimit               int64 // == unsecured_cap
	PostedCollateral          int64
	MaxCollateralCapacity     int64
	RemainingCollateralCapacity int64
	UnsecuredCap              int64
	Queue1Size                int64
	Queue1Value               int64
	Queue1TotalValue          int64
	Queue2Size                int64
	Queue2Value               int64
	OutgoingQueueSize         int64
	CurrentTick               int64
	TicksPerDay               int64
	TicksToEOD                int64
	SystemTickInDay           int64
	TicksRemainingInDay       int64
}

// TxFields carries the transaction fields exposed only to payment_tree
// (spec §4.2 "Transaction fields (payment_tree only)").
type TxFields struct {
	Amount                          int64
	RemainingAmount                 int64
	Priority                        int64
	TicksToDeadline                 int64
	IsOverdue                       int64 // 0/1
	TicksOverdue                    int64
	IsDivisible                     int64 // 0/1
	ArrivalTick                     int64
	DeadlineTick                    int64
	CostDelayThisTxOneTick          int64
	CostOverdraftThisAmountOneTick  int64
	CostDeadlinePenalty             int64
}

// Context is the typed, read-only evaluation environment a tree is
// evaluated against. Eval never mutates it (spec §4.2 evaluation
// contract is pure).
type Context struct {
	Kind   TreeKind
	Agent  AgentFields
	Tx     TxFields
	HasTx  bool // false for bank_tree/collateral trees

	// BankState backs bank_state_<key> field resolution; missing keys
	// yield 0 per spec §4.2.
	BankState map[string]int64

	// Parameters backs {param: name} leaves, from the policy's flat
	// parameters map.
	Parameters map[string]Scalar
}

// Field resolves a named field against the active context, returning
// false if name is not a recognized field for this Kind.
func (c *Context) Field(name string) (Scalar, bool) {
	if v, ok := agentField(c.Agent, name); ok {
		return IntScalar(v), true
	}
	if c.HasTx {
		if v, ok := txField(c.Tx, name); ok {
			return IntScalar(v), true
		}
	}
	if v, ok := bankStateField(c.BankState, name); ok {
		return IntScalar(v), true
	}
	return Scalar{}, false
}

// Param resolves {param: name} against the policy's parameters map.
func (c *Context) Param(name string) (Scalar, bool) {
	v, ok := c.Parameters[name]
	return v, ok
}

func agentField(a AgentFields, name string) (int64, bool) {
	switch name {
	case "balance":
		return a.Balance, true
	case "effective_liquidity":
		return a.EffectiveLiquidity, true
	case "credit_limit":
		return a.CreditLimit, true
	case "posted_collateral":
		return a.PostedCollateral, true
	case "max_collateral_capacity":
		return a.MaxCollateralCapacity, true
	case "remaining_collateral_capacity":
		return a.RemainingCollateralCapacity, true
	case "unsecured_cap":
		return a.UnsecuredCap, true
	case "queue1_size":
		return a.Queue1Size, true
	case "queue1_value":
		return a.Queue1Value, true
	case "queue1_total_value":
		return a.Queue1TotalValue, true
	case "queue2_size":
		return a.Queue2Size, true
	case "queue2_value":
		return a.Queue2Value, true
	case "outgoing_queue_size":
		return a.OutgoingQueueSize, true
	case "current_tick":
		return a.CurrentTick, true
	case "ticks_per_day":
		return a.TicksPerDay, true
	case "ticks_to_eod":
		return a.TicksToEOD, true
	case "system_tick_in_day":
		return a.SystemTickInDay, true
	case "ticks_remaining_in_day":
		return a.TicksRemainingInDay, true
	default:
		return 0, false
	}
}

func txField(t TxFields, name string) (int64, bool) {
	switch name {
	case "amount":
		return t.Amount, true
	case "remaining_amount":
		return t.RemainingAmount, true
	case "priority":
		return t.Priority, true
	case "ticks_to_deadline":
		return t.TicksToDeadline, true
	case "is_overdue":
		return t.IsOverdue, true
	case "ticks_overdue":
		return t.TicksOverdue, true
	case "is_divisible":
		return t.IsDivisible, true
	case "arrival_tick":
		return t.ArrivalTick, true
	case "deadline_tick":
		return t.DeadlineTick, true
	case "cost_delay_this_tx_one_tick":
		return t.CostDelayThisTxOneTick, true
	case "cost_overdraft_this_amount_one_tick":
		return t.CostOverdraftThisAmountOneTick, true
	case "cost_deadline_penalty":
		return t.CostDeadlinePenalty, true
	default:
		return 0, false
	}
}

const bankStatePrefix = "bank_state_"

func bankStateField(bankState map[string]int64, name string) (int64, bool) {
	if len(name) <= len(bankStatePrefix) || name[:len(bankStatePrefix)] != bankStatePrefix {
		return 0, false
	}
	key := name[len(bankStatePrefix):]
	// A missing key still resolves (to 0), since bank_state_<key> is a
	// recognized field family regardless of whether key has been set.
	return bankState[key], true
}
