// Package keyexpr evaluates cache key expressions against the arguments of a
// single call.
//
// Expressions use the expr-lang grammar (literals, field and index access,
// operators) with SpEL-style "#param" references accepted as sugar for
// "param". Programs are compiled once per method, expression and argument
// type signature, then reused; evaluation never mutates the binding.
package keyexpr

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/spf13/cast"
)

var ErrEmptyExpression = errors.New("empty expression")

// Evaluator compiles and runs key expressions. Safe for concurrent use.
type Evaluator struct {
	mu       sync.RWMutex
	programs map[string]*vm.Program
	compiles uint64
}

func New() *Evaluator {
	return &Evaluator{programs: make(map[string]*vm.Program)}
}

// Evaluate is a one-shot helper: bind names to values, evaluate expression,
// and discard the compiled program.
func Evaluate(names []string, values []any, expression string) (string, error) {
	b, err := Bind(names, values)
	if err != nil {
		return "", err
	}
	return New().Evaluate("", b, expression)
}

// Evaluate runs expression against b and coerces the result to a string.
// method identifies the call site for program caching; an empty method
// still caches under the expression alone.
func (e *Evaluator) Evaluate(method string, b Binding, expression string) (string, error) {
	if strings.TrimSpace(expression) == "" {
		return "", &EvaluationError{Method: method, Expression: expression, Err: ErrEmptyExpression}
	}
	prog, err := e.program(method, b, expression)
	if err != nil {
		return "", &EvaluationError{Method: method, Expression: expression, Err: err}
	}
	out, err := expr.Run(prog, map[string]any(b))
	if err != nil {
		return "", &EvaluationError{Method: method, Expression: expression, Err: err}
	}
	s, err := cast.ToStringE(out)
	if err != nil {
		return "", &EvaluationError{
			Method:     method,
			Expression: expression,
			Err:        fmt.Errorf("result of type %T is not a string: %w", out, err),
		}
	}
	return s, nil
}

// Compiled reports how many programs have been compiled so far.
func (e *Evaluator) Compiled() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.compiles
}

func (e *Evaluator) program(method string, b Binding, expression string) (*vm.Program, error) {
	key := cacheKey(method, b, expression)

	e.mu.RLock()
	prog, ok := e.programs[key]
	e.mu.RUnlock()
	if ok {
		return prog, nil
	}

	prog, err := expr.Compile(normalize(expression), expr.Env(map[string]any(b)))
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if cached, ok := e.programs[key]; ok {
		prog = cached
	} else {
		e.programs[key] = prog
		e.compiles++
	}
	e.mu.Unlock()
	return prog, nil
}

// cacheKey includes the argument types because the compiler type-checks
// field access against the env it was given.
func cacheKey(method string, b Binding, expression string) string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString(method)
	sb.WriteByte(0)
	sb.WriteString(expression)
	for _, name := range names {
		sb.WriteByte(0)
		sb.WriteString(name)
		sb.WriteByte('=')
		writeType(&sb, reflect.TypeOf(b[name]))
	}
	return sb.String()
}

func writeType(sb *strings.Builder, t reflect.Type) {
	if t == nil {
		sb.WriteString("nil")
		return
	}
	sb.WriteString(t.String())
	base := t
	for base.Kind() == reflect.Pointer || base.Kind() == reflect.Slice || base.Kind() == reflect.Array {
		base = base.Elem()
	}
	if pkg := base.PkgPath(); pkg != "" {
		sb.WriteByte('@')
		sb.WriteString(pkg)
	}
}
