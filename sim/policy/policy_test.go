package policy

import "testing"

func leaf(action Action) *Node {
	return &Node{Kind: NodeAction, Action: action}
}

func cond(id NodeID, expr *Expr, onTrue, onFalse NodeID) *Node {
	return &Node{ID: id, Kind: NodeCondition, Condition: expr, OnTrue: onTrue, OnFalse: onFalse}
}

func TestEvalTreeDeterministicRelease(t *testing.T) {
	tree := NewTree(PaymentTree)
	tree.Nodes[0] = cond(0, &Expr{Kind: ExprCompare, CompareOp: OpGt,
		Left:  &Expr{Kind: ExprField, Name: "balance"},
		Right: &Expr{Kind: ExprValue, Value: IntScalar(0)},
	}, 1, 2)
	tree.Nodes[1] = &Node{ID: 1, Kind: NodeAction, Action: Action{Kind: ActionRelease}}
	tree.Nodes[2] = &Node{ID: 2, Kind: NodeAction, Action: Action{Kind: ActionHold}}
	tree.Root = 0

	ctx := &Context{Kind: PaymentTree, Agent: AgentFields{Balance: 100}, HasTx: true}
	act, err := EvalTree(tree, ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if act.Kind != ActionRelease {
		t.Fatalf("expected Release, got %v", act.Kind)
	}

	ctx2 := &Context{Kind: PaymentTree, Agent: AgentFields{Balance: -1}, HasTx: true}
	act2, err := EvalTree(tree, ctx2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if act2.Kind != ActionHold {
		t.Fatalf("expected Hold, got %v", act2.Kind)
	}
}

func TestEvalTreeTypeMismatchCoercesToOnFalse(t *testing.T) {
	tree := NewTree(PaymentTree)
	tree.Nodes[0] = cond(0, &Expr{Kind: ExprCompare, CompareOp: OpEq,
		Left:  &Expr{Kind: ExprValue, Value: IntScalar(1)},
		Right: &Expr{Kind: ExprValue, Value: StrScalar("x")},
	}, 1, 2)
	tree.Nodes[1] = &Node{ID: 1, Kind: NodeAction, Action: Action{Kind: ActionRelease}}
	tree.Nodes[2] = &Node{ID: 2, Kind: NodeAction, Action: Action{Kind: ActionHold}}
	tree.Root = 0

	act, err := EvalTree(tree, &Context{Kind: PaymentTree})
	if err == nil {
		t.Fatalf("expected an evaluation error for type mismatch")
	}
	if act.Kind != ActionHold {
		t.Fatalf("type mismatch must coerce to on_false action, got %v", act.Kind)
	}
}

func TestEvalTreeDivideByZeroCoercesToOnFalse(t *testing.T) {
	tree := NewTree(PaymentTree)
	tree.Nodes[0] = cond(0, &Expr{Kind: ExprCompare, CompareOp: OpGt,
		Left: &Expr{Kind: ExprCompute, ComputeOp: OpDiv,
			Left:  &Expr{Kind: ExprValue, Value: IntScalar(10)},
			Right: &Expr{Kind: ExprValue, Value: IntScalar(0)},
		},
		Right: &Expr{Kind: ExprValue, Value: IntScalar(0)},
	}, 1, 2)
	tree.Nodes[1] = &Node{ID: 1, Kind: NodeAction, Action: Action{Kind: ActionRelease}}
	tree.Nodes[2] = &Node{ID: 2, Kind: NodeAction, Action: Action{Kind: ActionHold}}
	tree.Root = 0

	act, err := EvalTree(tree, &Context{Kind: PaymentTree})
	if err == nil {
		t.Fatalf("expected divide-by-zero error")
	}
	if act.Kind != ActionHold {
		t.Fatalf("divide-by-zero must coerce to on_false action, got %v", act.Kind)
	}
}

func TestSafeDivReturnsZeroOnDivideByZero(t *testing.T) {
	expr := &Expr{Kind: ExprCompute, ComputeOp: OpSafeDiv,
		Left:  &Expr{Kind: ExprValue, Value: IntScalar(10)},
		Right: &Expr{Kind: ExprValue, Value: IntScalar(0)},
	}
	v, err := Eval(expr, &Context{})
	if err != nil {
		t.Fatalf("safediv must not error, got %v", err)
	}
	if v.I != 0 {
		t.Fatalf("safediv by zero must yield 0, got %v", v.I)
	}
}

func TestBankStateFieldMissingKeyResolvesToZero(t *testing.T) {
	ctx := &Context{BankState: map[string]int64{}}
	v, ok := ctx.Field("bank_state_nonexistent")
	if !ok {
		t.Fatalf("bank_state_<key> fields must always resolve")
	}
	if v.I != 0 {
		t.Fatalf("missing bank_state key must yield 0, got %v", v.I)
	}
}

func TestValidateRejectsDuplicateNodeIDMismatch(t *testing.T) {
	tree := NewTree(PaymentTree)
	tree.Nodes[0] = &Node{ID: 5, Kind: NodeAction, Action: Action{Kind: ActionRelease}}
	tree.Root = 0
	if err := tree.Validate(); err == nil {
		t.Fatalf("expected error for mismatched node key/ID")
	}
}

func TestValidateRejectsActionInWrongTree(t *testing.T) {
	tree := NewTree(BankTree)
	tree.Nodes[0] = &Node{ID: 0, Kind: NodeAction, Action: Action{Kind: ActionRelease}}
	tree.Root = 0
	if err := tree.Validate(); err == nil {
		t.Fatalf("expected error: Release is not valid in bank_tree")
	}
}

func TestValidateRejectsExcessiveDepth(t *testing.T) {
	tree := NewTree(PaymentTree)
	tree.Nodes[MaxTreeDepth+2] = leafWithID(NodeID(MaxTreeDepth + 2))
	for i := MaxTreeDepth + 1; i >= 0; i-- {
		tree.Nodes[NodeID(i)] = cond(NodeID(i),
			&Expr{Kind: ExprValue, Value: IntScalar(1)},
			NodeID(i+1), NodeID(i+1))
	}
	tree.Root = 0
	if err := tree.Validate(); err == nil {
		t.Fatalf("expected depth limit error")
	}
}

func leafWithID(id NodeID) *Node {
	return &Node{ID: id, Kind: NodeAction, Action: Action{Kind: ActionHold}}
}

func TestValidateParamsRejectsUndefinedParam(t *testing.T) {
	tree := NewTree(PaymentTree)
	tree.Nodes[0] = cond(0, &Expr{Kind: ExprCompare, CompareOp: OpGt,
		Left:  &Expr{Kind: ExprParam, Name: "missing_param"},
		Right: &Expr{Kind: ExprValue, Value: IntScalar(0)},
	}, 1, 2)
	tree.Nodes[1] = leafWithID(1)
	tree.Nodes[2] = leafWithID(2)
	tree.Root = 0

	if err := ValidateParams(tree, map[string]Scalar{}); err == nil {
		t.Fatalf("expected undefined parameter error")
	}
	if err := ValidateParams(tree, map[string]Scalar{"missing_param": IntScalar(1)}); err != nil {
		t.Fatalf("unexpected error once parameter is defined: %v", err)
	}
}

// TestCompareIntNeverLosesPrecisionThroughFloat64 grounds on spec §3/§9:
// money comparisons must never round-trip through float64, which cannot
// represent every int64 exactly. 1<<53 and (1<<53)+1 are adjacent
// integers that float64 cannot distinguish once converted.
func TestCompareIntNeverLosesPrecisionThroughFloat64(t *testing.T) {
	a := int64(1) << 53
	b := a + 1
	if float64(a) != float64(b) {
		t.Fatalf("test setup invalid: float64 must collide these two values")
	}
	expr := &Expr{Kind: ExprCompare, CompareOp: OpEq,
		Left:  &Expr{Kind: ExprValue, Value: IntScalar(a)},
		Right: &Expr{Kind: ExprValue, Value: IntScalar(b)},
	}
	v, err := Eval(expr, &Context{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if isTruthy(v) {
		t.Fatalf("int64 comparison must not treat %d and %d as equal", a, b)
	}
}

func TestAndShortCircuitsLeftToRight(t *testing.T) {
	expr := &Expr{Kind: ExprAnd, Conditions: []*Expr{
		{Kind: ExprValue, Value: IntScalar(0)}, // false
		{Kind: ExprCompute, ComputeOp: OpDiv, // would error, must not be reached
			Left:  &Expr{Kind: ExprValue, Value: IntScalar(1)},
			Right: &Expr{Kind: ExprValue, Value: IntScalar(0)}},
	}}
	v, err := Eval(expr, &Context{})
	if err != nil {
		t.Fatalf("short-circuit and must not evaluate the second operand: %v", err)
	}
	if isTruthy(v) {
		t.Fatalf("expected false")
	}
}
