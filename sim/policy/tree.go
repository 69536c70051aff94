package policy

import "fmt"

// NodeKind tags a Node as either a condition branch or a terminal action.
type NodeKind uint8

const (
	NodeCondition NodeKind = iota
	NodeAction
)

// MaxTreeDepth is the bound spec §4.2 fixes: "reject on load any tree...
// exceeding a depth of 100".
const MaxTreeDepth = 100

// Node is one entry in a Tree's flat arena, referenced by NodeID — never
// by pointer — so the tree is a plain NodeID-keyed map with no
// owning cyclic references (spec §9 "Ownership of graph-like structures").
type Node struct {
	ID NodeID

	Kind NodeKind

	// NodeCondition
	Condition *Expr
	OnTrue    NodeID
	OnFalse   NodeID

	// NodeAction
	Action Action
}

// NodeID keys a Tree's Nodes map.
type NodeID int

// Tree is a validated DAG of Nodes rooted at Root, scoped to Kind.
type Tree struct {
	Kind  TreeKind
	Root  NodeID
	Nodes map[NodeID]*Node
}

// NewTree constructs an empty tree of the given kind.
func NewTree(kind TreeKind) *Tree {
	return &Tree{Kind: kind, Nodes: make(map[NodeID]*Node)}
}

// node looks up id, returning an error if it is undefined.
func (t *Tree) node(id NodeID) (*Node, error) {
	n, ok := t.Nodes[id]
	if !ok {
		return nil, fmt.Errorf("undefined node id %d", id)
	}
	return n, nil
}

// Validate enforces the load-time ConfigError checks spec §4.2 and §7
// require: unique node IDs (guaranteed by the map keying, but we still
// check Node.ID matches its key to catch construction bugs), depth ≤100,
// every action belongs to this tree's scoped action-kind set, and every
// referenced node ID (root, on_true, on_false) resolves within the tree.
func (t *Tree) Validate() error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	for id, n := range t.Nodes {
		if n.ID != id {
			return fmt.Errorf("node stored at key %d has mismatched ID %d", id, n.ID)
		}
		if n.Kind == NodeAction && !belongsToTree(n.Action.Kind, t.Kind) {
			return fmt.Errorf("action %s is not valid in %s", n.Action.Kind, t.Kind)
		}
	}
	if _, err := t.node(t.Root); err != nil {
		return fmt.Errorf("root: %w", err)
	}
	return t.validateDepth(t.Root, 0, make(map[NodeID]bool))
}

func (t *Tree) validateDepth(id NodeID, depth int, visiting map[NodeID]bool) error {
	if depth > MaxTreeDepth {
		return fmt.Errorf("tree exceeds max depth %d", MaxTreeDepth)
	}
	n, err := t.node(id)
	if err != nil {
		return err
	}
	if n.Kind == NodeAction {
		return nil
	}
	if visiting[id] {
		return fmt.Errorf("cycle detected at node %d", id)
	}
	visiting[id] = true
	defer delete(visiting, id)

	if err := t.validateDepth(n.OnTrue, depth+1, visiting); err != nil {
		return err
	}
	return t.validateDepth(n.OnFalse, depth+1, visiting)
}

// EvalTree walks the tree from its root, evaluating Condition nodes
// against ctx and following OnTrue/OnFalse, until it reaches an Action
// node. Any EvalError encountered at a Condition coerces that branch to
// OnFalse (spec §4.2: "coerces the containing branch to its on_false"),
// and the error is returned alongside the best-effort Action so the
// caller can emit a PolicyEvaluationWarning event without losing the
// deterministic fallback decision.
func EvalTree(t *Tree, ctx *Context) (Action, error) {
	return evalNode(t, t.Root, ctx, 0)
}

func evalNode(t *Tree, id NodeID, ctx *Context, depth int) (Action, error) {
	if depth > MaxTreeDepth {
		return Action{Kind: ActionHold}, fmt.Errorf("tree exceeds max depth %d during evaluation", MaxTreeDepth)
	}
	n, err := t.node(id)
	if err != nil {
		return Action{Kind: ActionHold}, err
	}
	if n.Kind == NodeAction {
		return n.Action, nil
	}

	result, err := Eval(n.Condition, ctx)
	if err != nil {
		// Coerce to on_false, but surface the error for an emitted warning.
		act, _ := evalNode(t, n.OnFalse, ctx, depth+1)
		return act, err
	}
	if isTruthy(result) {
		return evalNode(t, n.OnTrue, ctx, depth+1)
	}
	return evalNode(t, n.OnFalse, ctx, depth+1)
}
