package output

import (
	"encoding/json"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// Generic converts v to the plain map/slice form used by the filters, with
// keys as they appear in v's JSON encoding.
func Generic(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return oj.Parse(data)
}

// JSONPath evaluates path against v. A single match is returned as is and
// several matches as a slice. No match is an error.
func JSONPath(v any, path string) (any, error) {
	x, err := jp.ParseString(path)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath %q: %w", path, err)
	}
	data, err := Generic(v)
	if err != nil {
		return nil, err
	}
	results := x.Get(data)
	switch len(results) {
	case 0:
		return nil, fmt.Errorf("jsonpath %q matched nothing", path)
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

// Where keeps the items for which the boolean expression holds. Each
// item's fields are the expression's variables.
func Where[T any](items []T, expression string) ([]T, error) {
	if expression == "" {
		return items, nil
	}
	program, err := expr.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid --where expression: %w", err)
	}

	kept := make([]T, 0, len(items))
	for _, item := range items {
		data, err := Generic(item)
		if err != nil {
			return nil, err
		}
		env, ok := data.(map[string]any)
		if !ok {
			env = map[string]any{"it": data}
		}
		out, err := expr.Run(program, env)
		if err != nil {
			return nil, fmt.Errorf("evaluate --where: %w", err)
		}
		match, ok := out.(bool)
		if !ok {
			return nil, fmt.Errorf("--where expression must be a boolean, got %T", out)
		}
		if match {
			kept = append(kept, item)
		}
	}
	return kept, nil
}
