// Package condition implements the predicate language that gates every
// branching decision in a run: talent activation, event eligibility, event
// branches and achievement unlocks.
//
// GRAMMAR:
//
// An expression is built from leaves joined by the connectors & and |, with
// parentheses for grouping. Whitespace is insignificant.
//
//	AGE>=18                     comparison (< <= = == >= > != ~=)
//	TLT?[1001,1002]             membership, any of the listed ids
//	EVT![10009]                 membership, none of the listed ids
//	(CHR>5|INT>5)&AGE<30        grouping
//
// PRECEDENCE:
//
// There is none. Within one parenthesis level the FIRST connector becomes the
// outermost node and everything after it is parsed as the right operand, so
//
//	a|b&c|d   parses as   a | (b & (c | d))
//
// Data authors rely on this shape; Parse must keep it.
//
// SEALED AST:
//
// Expr is a sealed interface. The variants are Const, Compare, Member and
// Logic. Comparisons and memberships are distinguished once, at parse time,
// by the shape of the source text; evaluation never inspects syntax again.
//
// EVALUATION:
//
// Expressions evaluate against an Env, an immutable snapshot of named integers
// and integer sets. An expression never mutates its Env and holds no state of
// its own, so one compiled Expr can be shared by any number of runs.
package condition
