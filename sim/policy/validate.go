package policy

import "fmt"

// ValidateParams walks every Condition node's expression tree and checks
// that each {param: name} leaf resolves in params — "parameter reference
// to an undefined name" is a ConfigError, fatal at load (spec §7).
func ValidateParams(t *Tree, params map[string]Scalar) error {
	for id, n := range t.Nodes {
		if n.Kind != NodeCondition {
			continue
		}
		if err := validateExprParams(n.Condition, params); err != nil {
			return fmt.Errorf("node %d: %w", id, err)
		}
	}
	return nil
}

func validateExprParams(e *Expr, params map[string]Scalar) error {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case ExprParam:
		if _, ok := params[e.Name]; !ok {
			return fmt.Errorf("undefined parameter %q", e.Name)
		}
	case ExprCompare:
		if err := validateExprParams(e.Left, params); err != nil {
			return err
		}
		return validateExprParams(e.Right, params)
	case ExprAnd, ExprOr:
		for _, c := range e.Conditions {
			if err := validateExprParams(c, params); err != nil {
				return err
			}
		}
	case ExprNot:
		return validateExprParams(e.Condition, params)
	case ExprCompute:
		if err := validateExprParams(e.Left, params); err != nil {
			return err
		}
		if err := validateExprParams(e.Right, params); err != nil {
			return err
		}
		for _, v := range e.Values {
			if err := validateExprParams(v, params); err != nil {
				return err
			}
		}
	}
	return nil
}
