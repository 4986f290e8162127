package calltrace

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// WrapFunc returns fn, a function of any type, instrumented with t.
//
// Arguments are rendered individually; context.Context arguments are skipped.
// A trailing error result is treated as the failure signal, and a single
// remaining result implementing Deferred is reported when it settles. Several
// remaining results are rendered together as a list.
//
// An empty name is derived from the runtime symbol of fn; for method values
// this yields Type.Method. WrapFunc fails with ErrNotCallable if fn is not a
// non-nil function.
func WrapFunc[F any](t *Tracer, name string, fn F) (F, error) {
	var zero F
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return zero, fmt.Errorf("%w: %T", ErrNotCallable, fn)
	}

	scope := ""
	if name == "" {
		scope, name = splitSymbol(runtime.FuncForPC(v.Pointer()).Name())
	}

	wrapped, ok := t.instrument(scope, name, v).Interface().(F)
	if !ok {
		return zero, fmt.Errorf("%w: %T", ErrSignatureMismatch, fn)
	}
	return wrapped, nil
}

// WrapMethod returns the method of recv named method, bound to recv and
// instrumented with t. The frame is qualified with the name of recv's type
// as it is at wrap time.
func WrapMethod[F any](t *Tracer, recv any, method string) (F, error) {
	var zero F
	rv := reflect.ValueOf(recv)
	if !rv.IsValid() {
		return zero, fmt.Errorf("%w: %s on nil receiver", ErrNoSuchMethod, method)
	}

	scope := typeName(rv.Type())
	m := rv.MethodByName(method)
	if !m.IsValid() {
		return zero, fmt.Errorf("%w: %s.%s", ErrNoSuchMethod, scope, method)
	}

	wrapped, ok := t.instrument(scope, method, m).Interface().(F)
	if !ok {
		var want F
		return zero, fmt.Errorf("%w: %s.%s is %s, not %T", ErrSignatureMismatch, scope, method, m.Type(), want)
	}
	return wrapped, nil
}

// instrument builds a function of fn's type that reports to t around fn.
func (t *Tracer) instrument(scope, name string, fn reflect.Value) reflect.Value {
	typ := fn.Type()
	return reflect.MakeFunc(typ, func(in []reflect.Value) []reflect.Value {
		t.Enter(scope, name, callArgs(typ, in)...)
		defer t.recoverFrame(scope, name)

		var out []reflect.Value
		if typ.IsVariadic() {
			out = fn.CallSlice(in)
		} else {
			out = fn.Call(in)
		}
		t.settleValues(scope, name, typ, out)
		return out
	})
}

// callArgs flattens the arguments of a call for rendering.
func callArgs(typ reflect.Type, in []reflect.Value) []any {
	args := make([]any, 0, len(in))
	for i, v := range in {
		if typ.In(i) == contextType {
			continue
		}
		if typ.IsVariadic() && i == len(in)-1 {
			for j := 0; j < v.Len(); j++ {
				args = append(args, v.Index(j).Interface())
			}
			continue
		}
		args = append(args, v.Interface())
	}
	return args
}

func (t *Tracer) settleValues(scope, name string, typ reflect.Type, out []reflect.Value) {
	results := out
	if n := typ.NumOut(); n > 0 && typ.Out(n-1) == errorType {
		if errv := out[n-1]; !errv.IsNil() {
			t.fail(scope, name, errv.Interface())
			return
		}
		results = out[:n-1]
	}

	switch len(results) {
	case 0:
		t.Exit(scope, name)
	case 1:
		t.settle(scope, name, results[0].Interface())
	default:
		vals := make([]any, len(results))
		for i, r := range results {
			vals[i] = r.Interface()
		}
		t.ExitWith(scope, name, vals)
	}
}

func typeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if name := t.Name(); name != "" {
		return name
	}
	return t.String()
}

// splitSymbol turns a runtime function symbol into a scope and a name, e.g.
//
//	example.com/pkg.(*Calc).Add-fm -> Calc, Add
//	example.com/pkg.Calc.Add-fm    -> Calc, Add
//	example.com/pkg.add            -> "", add
//	gopkg.in/yaml.v3.Marshal       -> "", Marshal
//	example.com/pkg.run.func1      -> "", run.func1
//
// Closures keep the enclosing function in their name.
func splitSymbol(symbol string) (scope, name string) {
	symbol = strings.ReplaceAll(symbol, "%2e", ".")
	if i := strings.LastIndex(symbol, "/"); i >= 0 {
		symbol = symbol[i+1:]
	}
	symbol = trimPackage(symbol)
	symbol = strings.TrimSuffix(symbol, "-fm")

	var closure string
	for {
		i := strings.LastIndex(symbol, ".")
		if i < 0 || !isClosureSegment(symbol[i+1:]) {
			break
		}
		closure = symbol[i:] + closure
		symbol = symbol[:i]
	}
	if symbol == "glob." {
		// closures assigned to package-level variables
		return "", strings.TrimPrefix(closure, ".")
	}

	if i := strings.LastIndex(symbol, ")."); i >= 0 {
		recv := strings.TrimPrefix(symbol[:i], "(")
		return strings.TrimPrefix(recv, "*"), symbol[i+2:] + closure
	}
	if i := strings.LastIndex(symbol, "."); i >= 0 {
		return symbol[:i], symbol[i+1:] + closure
	}
	return "", symbol + closure
}

// trimPackage drops the package name, including a gopkg.in style version
// suffix such as yaml.v3, from a symbol without its import path.
func trimPackage(symbol string) string {
	i := strings.Index(symbol, ".")
	if i < 0 {
		return symbol
	}
	rest := symbol[i+1:]
	if j := strings.Index(rest, "."); j > 0 && isVersion(rest[:j]) {
		rest = rest[j+1:]
	}
	return rest
}

func isVersion(s string) bool {
	return len(s) > 1 && s[0] == 'v' && isDigits(s[1:])
}

// isClosureSegment matches the funcN and N parts the compiler appends to
// closure symbols.
func isClosureSegment(s string) bool {
	return isDigits(s) || (strings.HasPrefix(s, "func") && isDigits(s[len("func"):]))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
