package expr

import (
	"errors"
	"fmt"
	"math"
)

// Public variables (alphabetical)

// ErrUnknownFunction is returned by Eval for a call it cannot evaluate.
var ErrUnknownFunction = errors.New("expr: unknown function")

// ErrUnboundVariable is returned by Eval for a variable missing from the environment.
var ErrUnboundVariable = errors.New("expr: unbound variable")

// Env binds variable names to values during evaluation. PI is always bound.
type Env map[string]float64

// Public functions (alphabetical)

// Eval evaluates n with FFmpeg semantics for the functions the filter
// compilers emit. It returns an error for unknown functions, wrong arity,
// unbound variables or a non-finite result.
func Eval(n Node, env Env) (float64, error) {
	v, err := eval(n, env)
	if err != nil {
		return 0, err
	}
	if !isFinite(v) {
		return v, fmt.Errorf("expr: non-finite result %v for %s", v, n)
	}
	return v, nil
}

// Private functions (alphabetical)

func bool2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func eval(n Node, env Env) (float64, error) {
	switch node := n.(type) {
	case Num:
		return float64(node), nil
	case Var:
		if node == Pi {
			return math.Pi, nil
		}
		v, ok := env[string(node)]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnboundVariable, node)
		}
		return v, nil
	case Op:
		l, err := eval(node.Left, env)
		if err != nil {
			return 0, err
		}
		r, err := eval(node.Right, env)
		if err != nil {
			return 0, err
		}
		switch node.Operator {
		case '+':
			return l + r, nil
		case '-':
			return l - r, nil
		case '*':
			return l * r, nil
		case '/':
			return l / r, nil
		case '^':
			return math.Pow(l, r), nil
		}
		return 0, fmt.Errorf("expr: unknown operator %q", node.Operator)
	case Call:
		return evalCall(node, env)
	}
	return 0, fmt.Errorf("expr: unsupported node %T", n)
}

func evalCall(c Call, env Env) (float64, error) {
	// if() only evaluates the selected branch, so a singular branch that is
	// guarded away does not poison the result.
	if c.Name == "if" {
		if len(c.Args) != 3 {
			return 0, fmt.Errorf("expr: if expects 3 arguments, got %d", len(c.Args))
		}
		cond, err := eval(c.Args[0], env)
		if err != nil {
			return 0, err
		}
		if cond != 0 {
			return eval(c.Args[1], env)
		}
		return eval(c.Args[2], env)
	}

	args := make([]float64, len(c.Args))
	for i, a := range c.Args {
		v, err := eval(a, env)
		if err != nil {
			return 0, err
		}
		args[i] = v
	}

	arity := map[string]int{
		"abs": 1, "between": 3, "clip": 3, "cos": 1, "eq": 2, "gte": 2,
		"lerp": 3, "log": 1, "lt": 2, "lte": 2, "max": 2, "min": 2, "sqrt": 1,
	}
	want, known := arity[c.Name]
	if !known {
		return 0, fmt.Errorf("%w: %s", ErrUnknownFunction, c.Name)
	}
	if len(args) != want {
		return 0, fmt.Errorf("expr: %s expects %d arguments, got %d", c.Name, want, len(args))
	}

	switch c.Name {
	case "abs":
		return math.Abs(args[0]), nil
	case "between":
		return bool2f(args[0] >= args[1] && args[0] <= args[2]), nil
	case "clip":
		return math.Max(args[1], math.Min(args[0], args[2])), nil
	case "cos":
		return math.Cos(args[0]), nil
	case "eq":
		return bool2f(args[0] == args[1]), nil
	case "gte":
		return bool2f(args[0] >= args[1]), nil
	case "lerp":
		return args[0] + (args[1]-args[0])*args[2], nil
	case "log":
		return math.Log(args[0]), nil
	case "lt":
		return bool2f(args[0] < args[1]), nil
	case "lte":
		return bool2f(args[0] <= args[1]), nil
	case "max":
		return math.Max(args[0], args[1]), nil
	case "min":
		return math.Min(args[0], args[1]), nil
	default: // sqrt
		return math.Sqrt(args[0]), nil
	}
}
