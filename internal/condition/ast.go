package condition

import (
	"strconv"
	"strings"
)

// Expr is a compiled condition.
//
// This is a sealed interface: only Const, Compare, Member and Logic implement
// it. Eval is a pure function of its Env.
type Expr interface {
	exprNode() // Marker method - seals interface to this package

	// Eval resolves the expression against env.
	Eval(env Env) (bool, error)

	// String renders the expression in source form.
	String() string
}

// Const is an expression with a fixed result. Data tables use it for empty
// include (true) and exclude (false) conditions.
type Const struct {
	Value bool
}

// True and False are the shared constant expressions.
var (
	True  Expr = Const{Value: true}
	False Expr = Const{Value: false}
)

func (Const) exprNode() {}

// Eval implements Expr.
func (c Const) Eval(Env) (bool, error) { return c.Value, nil }

func (c Const) String() string {
	if c.Value {
		return "<true>"
	}
	return "<false>"
}

// CompareOp is a comparison operator. The aliases == and ~= normalise to
// OpEq and OpNe at parse time.
type CompareOp string

const (
	OpLt CompareOp = "<"
	OpLe CompareOp = "<="
	OpEq CompareOp = "="
	OpGe CompareOp = ">="
	OpGt CompareOp = ">"
	OpNe CompareOp = "!="
)

// Compare tests a variable against an integer operand.
//
// Ordering operators require a scalar variable. OpEq and OpNe accept a set
// variable and then test membership of Operand.
type Compare struct {
	Var     string
	Op      CompareOp
	Operand int
}

func (*Compare) exprNode() {}

// Eval implements Expr.
func (c *Compare) Eval(env Env) (bool, error) {
	v, ok := env.Lookup(c.Var)
	if !ok {
		return false, &EvalError{Code: ErrCodeUndefinedVariable, Var: c.Var}
	}
	switch c.Op {
	case OpEq:
		return v.matches(c.Operand), nil
	case OpNe:
		return !v.matches(c.Operand), nil
	}
	if v.IsSet() {
		return false, &EvalError{Code: ErrCodeNotScalar, Var: c.Var, Op: string(c.Op)}
	}
	switch c.Op {
	case OpLt:
		return v.Int() < c.Operand, nil
	case OpLe:
		return v.Int() <= c.Operand, nil
	case OpGe:
		return v.Int() >= c.Operand, nil
	case OpGt:
		return v.Int() > c.Operand, nil
	}
	return false, &EvalError{Code: ErrCodeUnknownOperator, Var: c.Var, Op: string(c.Op)}
}

func (c *Compare) String() string {
	return c.Var + string(c.Op) + strconv.Itoa(c.Operand)
}

// MemberOp is a set-membership operator.
type MemberOp string

const (
	// OpAny holds when the variable shares at least one id with the list.
	OpAny MemberOp = "?"
	// OpNone holds when the variable shares no id with the list.
	OpNone MemberOp = "!"
)

// Member tests a variable against a literal integer list. A set variable is
// intersected with the list; a scalar variable is looked up in it.
type Member struct {
	Var string
	Op  MemberOp
	Set []int // sorted, distinct
}

func (*Member) exprNode() {}

// Eval implements Expr.
func (m *Member) Eval(env Env) (bool, error) {
	v, ok := env.Lookup(m.Var)
	if !ok {
		return false, &EvalError{Code: ErrCodeUndefinedVariable, Var: m.Var}
	}
	hit := v.intersects(m.Set)
	if m.Op == OpNone {
		return !hit, nil
	}
	return hit, nil
}

func (m *Member) String() string {
	parts := make([]string, len(m.Set))
	for i, n := range m.Set {
		parts[i] = strconv.Itoa(n)
	}
	return m.Var + string(m.Op) + "[" + strings.Join(parts, ",") + "]"
}

// LogicOp is a boolean connector.
type LogicOp string

const (
	And LogicOp = "&"
	Or  LogicOp = "|"
)

// Logic joins two expressions. Both sides are always evaluated.
type Logic struct {
	Left  Expr
	Op    LogicOp
	Right Expr
}

func (*Logic) exprNode() {}

// Eval implements Expr.
func (l *Logic) Eval(env Env) (bool, error) {
	left, err := l.Left.Eval(env)
	if err != nil {
		return false, err
	}
	right, err := l.Right.Eval(env)
	if err != nil {
		return false, err
	}
	if l.Op == And {
		return left && right, nil
	}
	return left || right, nil
}

// String renders the expression so that Parse rebuilds the same tree. A
// connector on the left must be grouped; one on the right already nests
// there under the first-connector rule.
func (l *Logic) String() string {
	left := l.Left.String()
	if _, ok := l.Left.(*Logic); ok {
		left = "(" + left + ")"
	}
	return left + string(l.Op) + l.Right.String()
}
