package condition

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var (
	memberRE = regexp.MustCompile(
		`^\s*([A-Za-z][A-Za-z0-9]*)\s*([!\?])\s*\[((?:(?:\s*-?\d+\s*,)*\s*-?\d+(?:\s*,)?)?)\s*\]\s*$`)
	compareRE = regexp.MustCompile(
		`^\s*([A-Za-z][A-Za-z0-9]*)\s*(<|<=|==?|>=|>|!=|~=)\s*(-?\d+)\s*$`)
)

var compareOps = map[string]CompareOp{
	"<":  OpLt,
	"<=": OpLe,
	"=":  OpEq,
	"==": OpEq,
	">=": OpGe,
	">":  OpGt,
	"!=": OpNe,
	"~=": OpNe,
}

// group is one parenthesis level of the token tree. Each item is either a
// single source character or a nested group.
type group struct {
	items []item
}

type item struct {
	ch  rune
	sub *group
}

func (it item) isConnector() bool {
	return it.sub == nil && (it.ch == '&' || it.ch == '|')
}

// Parse compiles text into an expression.
//
// Parse is pure and deterministic; it never consults an Env. An empty string
// is not a valid condition: callers that treat an absent condition as a
// constant should substitute True or False themselves.
func Parse(text string) (Expr, error) {
	root := &group{}
	stack := []*group{root}
	for _, r := range text {
		top := stack[len(stack)-1]
		switch r {
		case '(':
			g := &group{}
			top.items = append(top.items, item{sub: g})
			stack = append(stack, g)
		case ')':
			if len(stack) == 1 {
				return nil, &ParseError{Code: ErrCodeUnmatchedRight, Message: "unmatched right parentheses", Text: text}
			}
			stack = stack[:len(stack)-1]
		case ' ':
		default:
			top.items = append(top.items, item{ch: r})
		}
	}
	if len(stack) != 1 {
		return nil, &ParseError{Code: ErrCodeUnmatchedLeft, Message: "unmatched left parentheses", Text: text}
	}
	return build(text, root.items)
}

// MustParse is like Parse but panics on error.
// Use only in tests or for conditions known at compile time.
func MustParse(text string) Expr {
	e, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return e
}

// build turns one level of the token tree into an expression. The first
// connector found splits the level; the right side absorbs the rest.
func build(text string, items []item) (Expr, error) {
	for len(items) == 1 && items[0].sub != nil {
		items = items[0].sub.items
	}

	for i, it := range items {
		if !it.isConnector() {
			continue
		}
		left, err := build(text, items[:i])
		if err != nil {
			return nil, err
		}
		right, err := build(text, items[i+1:])
		if err != nil {
			return nil, err
		}
		op := And
		if it.ch == '|' {
			op = Or
		}
		return &Logic{Left: left, Op: op, Right: right}, nil
	}

	var sb strings.Builder
	for _, it := range items {
		if it.sub != nil {
			sb.WriteString("(...)")
			return nil, unknown(text, sb.String())
		}
		sb.WriteRune(it.ch)
	}
	return leaf(text, sb.String())
}

func leaf(text, s string) (Expr, error) {
	if m := memberRE.FindStringSubmatch(s); m != nil {
		set, err := parseList(m[3])
		if err != nil {
			return nil, unknown(text, s)
		}
		return &Member{Var: m[1], Op: MemberOp(m[2]), Set: set}, nil
	}
	if m := compareRE.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[3])
		if err != nil {
			return nil, unknown(text, s)
		}
		return &Compare{Var: m[1], Op: compareOps[m[2]], Operand: n}, nil
	}
	return nil, unknown(text, s)
}

func parseList(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

func unknown(text, fragment string) *ParseError {
	return &ParseError{Code: ErrCodeUnknownCondition, Message: "unknown condition", Text: text, Fragment: fragment}
}
