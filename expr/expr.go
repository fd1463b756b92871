// Package expr provides a small expression tree for the arithmetic language
// understood by FFmpeg filter parameters (setpts, crop, zoompan, minterpolate).
// Expressions are built as trees, serialized once with String and can be
// evaluated in-process with Eval, which keeps the analytic parts of the filter
// synthesis testable without comparing strings.
package expr

import (
	"math"
	"strconv"
	"strings"
)

// Private constants (alphabetical)
const (
	precAdd  = 1
	precAtom = 4
	precMul  = 2
	precPow  = 3
)

// Public types (alphabetical)

// Call is a named function application such as if(a,b,c) or between(t,0,1).
type Call struct {
	Name string
	Args []Node
}

// Node is any element of an expression tree.
type Node interface {
	// String serializes the node into FFmpeg expression syntax.
	String() string
	precedence() int
}

// Num is a numeric literal.
type Num float64

// Op is a binary arithmetic operation.
type Op struct {
	Operator byte
	Left     Node
	Right    Node
}

// Var is a named variable or constant provided by the evaluating filter
// (t, it, T, STARTT, PTS, STARTPTS, TB, N, PI).
type Var string

// Public variables (alphabetical)

// Common variables used by the filters this module targets.
var (
	In       = Var("in")
	It       = Var("it")
	N        = Var("N")
	Pi       = Var("PI")
	PTS      = Var("PTS")
	StartPTS = Var("STARTPTS")
	StartT   = Var("STARTT")
	T        = Var("t")
	TB       = Var("TB")
	TUpper   = Var("T")
)

// Public functions (alphabetical)

// Abs returns abs(x).
func Abs(x Node) Node { return Fn("abs", x) }

// Add returns l+r, folding literal operands.
func Add(l, r Node) Node {
	if a, b, ok := literals(l, r); ok {
		return Num(a + b)
	}
	return Op{Operator: '+', Left: l, Right: r}
}

// Between returns between(x,lo,hi), which is 1 when lo<=x<=hi.
func Between(x, lo, hi Node) Node { return Fn("between", x, lo, hi) }

// Clip returns clip(x,lo,hi).
func Clip(x, lo, hi Node) Node { return Fn("clip", x, lo, hi) }

// Cos returns cos(x).
func Cos(x Node) Node { return Fn("cos", x) }

// Div returns l/r, folding literal operands.
func Div(l, r Node) Node {
	if a, b, ok := literals(l, r); ok && b != 0 {
		return Num(a / b)
	}
	return Op{Operator: '/', Left: l, Right: r}
}

// Eq returns eq(a,b).
func Eq(a, b Node) Node { return Fn("eq", a, b) }

// Fn builds a function call node.
func Fn(name string, args ...Node) Node {
	return Call{Name: name, Args: args}
}

// Gte returns gte(a,b).
func Gte(a, b Node) Node { return Fn("gte", a, b) }

// If returns if(cond,then,otherwise).
func If(cond, then, otherwise Node) Node { return Fn("if", cond, then, otherwise) }

// Lerp returns lerp(a,b,p).
func Lerp(a, b, p Node) Node { return Fn("lerp", a, b, p) }

// Log returns the natural logarithm log(x).
func Log(x Node) Node { return Fn("log", x) }

// Lt returns lt(a,b).
func Lt(a, b Node) Node { return Fn("lt", a, b) }

// Lte returns lte(a,b).
func Lte(a, b Node) Node { return Fn("lte", a, b) }

// Max returns max(a,b).
func Max(a, b Node) Node { return Fn("max", a, b) }

// Min returns min(a,b).
func Min(a, b Node) Node { return Fn("min", a, b) }

// Mul returns l*r, folding literal operands.
func Mul(l, r Node) Node {
	if a, b, ok := literals(l, r); ok {
		return Num(a * b)
	}
	return Op{Operator: '*', Left: l, Right: r}
}

// Pow returns l^r.
func Pow(l, r Node) Node {
	return Op{Operator: '^', Left: l, Right: r}
}

// Sqrt returns sqrt(x).
func Sqrt(x Node) Node { return Fn("sqrt", x) }

// Sub returns l-r, folding literal operands.
func Sub(l, r Node) Node {
	if a, b, ok := literals(l, r); ok {
		return Num(a - b)
	}
	return Op{Operator: '-', Left: l, Right: r}
}

// Sum adds all terms left to right. An empty sum is the literal 0.
func Sum(terms ...Node) Node {
	if len(terms) == 0 {
		return Num(0)
	}
	acc := terms[0]
	for _, term := range terms[1:] {
		acc = Op{Operator: '+', Left: acc, Right: term}
	}
	return acc
}

// FormatNumber renders a float as plain decimal text without exponent notation.
func FormatNumber(v float64) string {
	if v == 0 {
		// Avoids "-0".
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Private functions (alphabetical)

func literals(l, r Node) (float64, float64, bool) {
	a, okA := l.(Num)
	b, okB := r.(Num)
	return float64(a), float64(b), okA && okB
}

func opPrecedence(op byte) int {
	switch op {
	case '+', '-':
		return precAdd
	case '*', '/':
		return precMul
	default:
		return precPow
	}
}

func wrap(n Node, needParens bool) string {
	if needParens {
		return "(" + n.String() + ")"
	}
	return n.String()
}

// Type methods (alphabetical)

func (c Call) precedence() int { return precAtom }

// String renders the call with comma separated arguments.
func (c Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return c.Name + "(" + strings.Join(args, ",") + ")"
}

func (n Num) precedence() int {
	if n < 0 {
		return precAdd
	}
	return precAtom
}

// String renders the literal; negative values are parenthesized so they can be
// embedded after any operator.
func (n Num) String() string {
	s := FormatNumber(float64(n))
	if strings.HasPrefix(s, "-") {
		return "(" + s + ")"
	}
	return s
}

func (o Op) precedence() int { return opPrecedence(o.Operator) }

// String renders the operation, adding parentheses only where precedence or
// associativity requires them.
func (o Op) String() string {
	p := o.precedence()
	lp, rp := o.Left.precedence(), o.Right.precedence()

	leftParens := lp < p || (o.Operator == '^' && lp == p)
	rightParens := rp < p || (rp == p && o.Operator != '+' && o.Operator != '*' && o.Operator != '^')
	if _, isNum := o.Left.(Num); isNum {
		leftParens = false
	}
	if _, isNum := o.Right.(Num); isNum {
		rightParens = false
	}

	return wrap(o.Left, leftParens) + string(o.Operator) + wrap(o.Right, rightParens)
}

func (v Var) precedence() int { return precAtom }

// String returns the variable name.
func (v Var) String() string { return string(v) }

// isFinite reports whether v is neither NaN nor infinite.
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
