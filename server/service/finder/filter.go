package finder

import (
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"

	"github.com/hrygo/finder/internal/openinghours"
)

// Filter is a compiled CEL expression over a restaurant. The expression sees
// name, cuisine, address and state as strings and open as a bool, e.g.
//
//	open && cuisine in ["pizza", "italian"]
//	name.startsWith("Le ") || address.contains("Main St")
type Filter struct {
	expr    string
	program cel.Program
}

var (
	filterEnv     *cel.Env
	filterEnvErr  error
	filterEnvOnce sync.Once
)

func env() (*cel.Env, error) {
	filterEnvOnce.Do(func() {
		filterEnv, filterEnvErr = cel.NewEnv(
			cel.Variable("name", cel.StringType),
			cel.Variable("cuisine", cel.StringType),
			cel.Variable("address", cel.StringType),
			cel.Variable("state", cel.StringType),
			cel.Variable("open", cel.BoolType),
		)
	})
	return filterEnv, filterEnvErr
}

// CompileFilter parses and type-checks expr. An empty expression yields a nil filter.
func CompileFilter(expr string) (*Filter, error) {
	if expr == "" {
		return nil, nil
	}
	e, err := env()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create filter environment")
	}
	ast, iss := e.Compile(expr)
	if iss.Err() != nil {
		return nil, errors.Wrapf(iss.Err(), "invalid filter %q", expr)
	}
	if ast.OutputType() != cel.BoolType {
		return nil, errors.Errorf("filter %q must evaluate to a bool, got %s", expr, ast.OutputType())
	}
	program, err := e.Program(ast)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid filter %q", expr)
	}
	return &Filter{expr: expr, program: program}, nil
}

// Match evaluates the filter against a restaurant.
func (f *Filter) Match(r *Restaurant) (bool, error) {
	out, _, err := f.program.Eval(map[string]any{
		"name":    r.Name,
		"cuisine": r.Cuisine,
		"address": r.Address,
		"state":   r.State.String(),
		"open":    r.State == openinghours.Open,
	})
	if err != nil {
		return false, errors.Wrapf(err, "failed to evaluate filter %q", f.expr)
	}
	matched, ok := out.Value().(bool)
	return ok && matched, nil
}
