// Package cel evaluates CEL expressions over the fields resolved from a
// request view. The resolved fields are bound to the variable "_", so
// `_.query.startsWith("pa")` or `_.start_column < _.column_num` work as
// expected.
package cel

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	celext "github.com/google/cel-go/ext"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/oakwood-commons/reqview/pkg/identifier"
	"github.com/oakwood-commons/reqview/pkg/request"
	"github.com/oakwood-commons/reqview/pkg/textutil"
)

// programCacheSize bounds the number of compiled programs kept per evaluator.
const programCacheSize = 256

// Evaluator compiles and evaluates CEL expressions. Compiled programs are
// cached by expression text.
type Evaluator struct {
	env      *cel.Env
	scanner  *identifier.Scanner
	programs *lru.Cache[string, cel.Program]
}

// NewEvaluator creates an evaluator whose identifier functions use scanner.
// A nil scanner means the built-in rules. Extra options extend the
// environment.
func NewEvaluator(scanner *identifier.Scanner, opts ...cel.EnvOption) (*Evaluator, error) {
	if scanner == nil {
		scanner = identifier.Default()
	}
	programs, err := lru.New[string, cel.Program](programCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create program cache: %w", err)
	}
	e := &Evaluator{scanner: scanner, programs: programs}
	env, err := newStandardCELEnv(append(e.functions(), opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	e.env = env
	return e, nil
}

// GetEnvironment returns the CEL environment.
func (e *Evaluator) GetEnvironment() *cel.Env {
	return e.env
}

func newStandardCELEnv(opts ...cel.EnvOption) (*cel.Env, error) {
	allOpts := make([]cel.EnvOption, 0, 4+len(opts))
	allOpts = append(allOpts,
		cel.Variable("_", cel.DynType),
		celext.Strings(),
		celext.Lists(),
		celext.Math(),
	)
	allOpts = append(allOpts, opts...)
	return cel.NewEnv(allOpts...)
}

// functions declares the offset and identifier helpers:
//
//	codepoint_offset(text, byteOffset) int
//	byte_offset(text, codepointOffset) int
//	identifier_start(text, index, filetype) int
//	is_identifier(text, filetype) bool
func (e *Evaluator) functions() []cel.EnvOption {
	return []cel.EnvOption{
		cel.Function("codepoint_offset",
			cel.Overload("codepoint_offset_string_int",
				[]*cel.Type{cel.StringType, cel.IntType}, cel.IntType,
				cel.BinaryBinding(func(text, offset ref.Val) ref.Val {
					s, n, err := stringAndInt(text, offset)
					if err != nil {
						return types.NewErr("codepoint_offset: %v", err)
					}
					return types.Int(textutil.ByteOffsetToCodepointOffset(s, n))
				}),
			),
		),
		cel.Function("byte_offset",
			cel.Overload("byte_offset_string_int",
				[]*cel.Type{cel.StringType, cel.IntType}, cel.IntType,
				cel.BinaryBinding(func(text, offset ref.Val) ref.Val {
					s, n, err := stringAndInt(text, offset)
					if err != nil {
						return types.NewErr("byte_offset: %v", err)
					}
					return types.Int(textutil.CodepointOffsetToByteOffset(s, n))
				}),
			),
		),
		cel.Function("identifier_start",
			cel.Overload("identifier_start_string_int_string",
				[]*cel.Type{cel.StringType, cel.IntType, cel.StringType}, cel.IntType,
				cel.FunctionBinding(func(args ...ref.Val) ref.Val {
					s, n, err := stringAndInt(args[0], args[1])
					if err != nil {
						return types.NewErr("identifier_start: %v", err)
					}
					ft, ok := args[2].(types.String)
					if !ok {
						return types.NewErr("identifier_start: filetype must be a string")
					}
					return types.Int(e.scanner.StartOfLongestIdentifierEndingAtIndex(s, n, string(ft)))
				}),
			),
		),
		cel.Function("is_identifier",
			cel.Overload("is_identifier_string_string",
				[]*cel.Type{cel.StringType, cel.StringType}, cel.BoolType,
				cel.BinaryBinding(func(text, filetype ref.Val) ref.Val {
					s, ok1 := text.(types.String)
					ft, ok2 := filetype.(types.String)
					if !ok1 || !ok2 {
						return types.NewErr("is_identifier: arguments must be strings")
					}
					return types.Bool(e.scanner.IsIdentifier(string(s), string(ft)))
				}),
			),
		),
	}
}

func stringAndInt(text, offset ref.Val) (string, int, error) {
	s, ok := text.(types.String)
	if !ok {
		return "", 0, fmt.Errorf("text must be a string, got %s", text.Type())
	}
	n, ok := offset.(types.Int)
	if !ok {
		return "", 0, fmt.Errorf("offset must be an int, got %s", offset.Type())
	}
	return string(s), int(n), nil
}

// Compile parses and type-checks expr, reusing an earlier program for the
// same text.
func (e *Evaluator) Compile(expr string) (cel.Program, error) {
	if prg, ok := e.programs.Get(expr); ok {
		return prg, nil
	}
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation error: %w", issues.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	e.programs.Add(expr, prg)
	return prg, nil
}

// Evaluate evaluates expr with data bound to "_" and returns the result as
// plain Go values.
func (e *Evaluator) Evaluate(expr string, data any) (any, error) {
	prg, err := e.Compile(expr)
	if err != nil {
		return nil, err
	}
	result, _, err := prg.Eval(map[string]any{"_": data})
	if err != nil {
		return nil, fmt.Errorf("eval error: %w", err)
	}
	return ToGo(result), nil
}

// Bindings resolves the fields exposed to expressions: every derived field of
// v plus filepath, line_num and column_num.
func Bindings(v *request.View) (map[string]any, error) {
	data, err := v.Resolve()
	if err != nil {
		return nil, err
	}
	if data[request.KeyFilepath], err = v.Get(request.KeyFilepath); err != nil {
		return nil, err
	}
	for _, key := range []string{request.KeyLineNum, request.KeyColumnNum} {
		n, err := v.Int(key)
		if err != nil {
			return nil, err
		}
		data[key] = n
	}
	return data, nil
}

// EvaluateView evaluates expr against the fields resolved from v.
func (e *Evaluator) EvaluateView(expr string, v *request.View) (any, error) {
	data, err := Bindings(v)
	if err != nil {
		return nil, err
	}
	return e.Evaluate(expr, data)
}

// Assert evaluates expr against v and requires a boolean result.
func (e *Evaluator) Assert(expr string, v *request.View) (bool, error) {
	out, err := e.EvaluateView(expr, v)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("expression %q returned %T, want bool", expr, out)
	}
	return b, nil
}

// ToGo converts CEL values to plain Go values, recursing into lists and maps.
func ToGo(val ref.Val) any {
	if val == nil {
		return nil
	}
	switch v := val.(type) {
	case types.Bool:
		return bool(v)
	case types.Int:
		return int64(v)
	case types.Uint:
		return uint64(v)
	case types.Double:
		return float64(v)
	case types.String:
		return string(v)
	case types.Bytes:
		return []byte(v)
	case types.Null:
		return nil
	}

	valuer, ok := val.(interface{ Value() any })
	if !ok {
		return val
	}
	switch inner := valuer.Value().(type) {
	case []ref.Val:
		out := make([]any, len(inner))
		for i, elem := range inner {
			out[i] = ToGo(elem)
		}
		return out
	case []any:
		out := make([]any, len(inner))
		for i, elem := range inner {
			out[i] = toGoValue(elem)
		}
		return out
	case map[string]any:
		return convertMapValues(inner)
	case map[ref.Val]ref.Val:
		out := make(map[string]any, len(inner))
		for k, v := range inner {
			out[fmt.Sprintf("%v", toGoValue(k))] = ToGo(v)
		}
		return out
	default:
		return inner
	}
}

func toGoValue(v any) any {
	switch t := v.(type) {
	case ref.Val:
		return ToGo(t)
	case map[string]any:
		return convertMapValues(t)
	default:
		return v
	}
}

func convertMapValues(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if slice, ok := v.([]any); ok {
			converted := make([]any, len(slice))
			for i, elem := range slice {
				converted[i] = toGoValue(elem)
			}
			out[k] = converted
			continue
		}
		out[k] = toGoValue(v)
	}
	return out
}

// Functions lists the non-operator functions and macros of the evaluator's
// environment, sorted, as "name()" entries.
func (e *Evaluator) Functions() []string {
	seen := make(map[string]bool)
	for _, fn := range e.env.Functions() {
		if !isOperator(fn.Name()) {
			seen[fn.Name()] = true
		}
	}
	for _, m := range e.env.Macros() {
		if !isOperator(m.Function()) {
			seen[m.Function()] = true
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name+"()")
	}
	sort.Strings(out)
	return out
}

// isOperator reports internal operator-style declarations such as _+_ or @in.
func isOperator(name string) bool {
	if strings.HasPrefix(name, "@") {
		return true
	}
	if strings.HasPrefix(name, "_") && strings.HasSuffix(name, "_") {
		return true
	}
	switch name {
	case "!_", "-_", "_[_]", "_?_:_":
		return true
	}
	return false
}
