package eventsvc

import (
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/rzbill/lorabridge/internal/eventlog"
)

// celFilter wraps a compiled CEL program shared by List and Stream. When
// disabled, Eval always returns true.
type celFilter struct {
	prog    cel.Program
	enabled bool
}

func newCELFilter(expr string) (celFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return celFilter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("seq", cel.IntType),
		cel.Variable("type", cel.StringType),
		cel.Variable("message", cel.StringType),
		cel.Variable("src_ip", cel.StringType),
		cel.Variable("dest_ip", cel.StringType),
		cel.Variable("timestamp", cel.StringType),
	)
	if err != nil {
		return celFilter{}, err
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return celFilter{}, iss.Err()
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return celFilter{}, errFilterNotBool
	}
	prog, err := env.Program(ast)
	if err != nil {
		return celFilter{}, err
	}
	return celFilter{prog: prog, enabled: true}, nil
}

// Eval evaluates the expression against one record. Evaluation errors count
// as no match.
func (f celFilter) Eval(r eventlog.Record) bool {
	if !f.enabled {
		return true
	}
	out, _, err := f.prog.Eval(map[string]any{
		"seq":       int64(r.Seq),
		"type":      r.Category.String(),
		"message":   r.Message,
		"src_ip":    r.Source,
		"dest_ip":   r.Destination,
		"timestamp": r.Timestamp,
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
