package calltrace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Rendering limits, in characters (runes).
const (
	argLimit      = 200 // text and composite arguments longer than this are cut
	argPreview    = 100 // kept prefix of an over-long text argument
	resultLimit   = 100 // composite results longer than this are cut
	promptLimit   = 100 // LogPrompt preview
	responseLimit = 200 // LogResponse preview
)

const timestampLayout = "15:04:05.000"

func timestamp(t time.Time) string {
	return "[" + t.UTC().Format(timestampLayout) + "]"
}

// Qualify returns name prefixed with scope, or name alone when scope is empty.
func Qualify(scope, name string) string {
	if scope == "" {
		return name
	}
	return scope + "." + name
}

// truncateText shortens text past argLimit to an argPreview prefix and
// annotates the original length.
func truncateText(s string) string {
	n := utf8.RuneCountInString(s)
	if n <= argLimit {
		return s
	}
	return string([]rune(s)[:argPreview]) + "... (" + strconv.Itoa(n) + " chars)"
}

// clip cuts s to limit characters and appends an ellipsis when anything was dropped.
func clip(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}

func renderArgs(args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = renderArg(a)
	}
	return strings.Join(parts, ", ")
}

// renderArg renders one entry argument or log datum.
func renderArg(v any) string {
	if isNil(v) {
		return "null"
	}
	switch x := v.(type) {
	case string:
		return truncateText(x)
	case []byte:
		return truncateText(string(x))
	case error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	}
	if text, ok := textOf(v); ok {
		return truncateText(text)
	}
	if isComposite(v) {
		return clip(compactJSON(v), argLimit)
	}
	return fmt.Sprint(v)
}

// renderResult renders an exit result. Only composite values are cut.
func renderResult(v any) string {
	if isNil(v) {
		return "null"
	}
	switch x := v.(type) {
	case string:
		return x
	case error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	}
	if text, ok := textOf(v); ok {
		return text
	}
	if isComposite(v) {
		return clip(compactJSON(v), resultLimit)
	}
	return fmt.Sprint(v)
}

// failureText renders a failure reported by a wrapped call. Values that are
// not errors (recovered panics) use their default textual form.
func failureText(cause any) string {
	if err, ok := cause.(error); ok && !isNil(err) {
		return err.Error()
	}
	return fmt.Sprint(cause)
}

// textOf returns the text of values whose underlying type is string or
// []byte, such as named string types.
func textOf(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	switch {
	case rv.Kind() == reflect.String:
		return rv.String(), true
	case rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8:
		return string(rv.Bytes()), true
	}
	return "", false
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}

func isComposite(v any) bool {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return true
	}
	return false
}

func compactJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func indentJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// PromptPart is one part of a multi-part prompt. Text is printed as is; Data,
// when set, is printed as indented JSON below it.
type PromptPart struct {
	Role string
	Text string
	Data any
}

// renderPrompt flattens a prompt representation into a single string.
func renderPrompt(prompt any) string {
	switch p := prompt.(type) {
	case nil:
		return ""
	case string:
		return p
	case []string:
		return strings.Join(p, "\n\n")
	case PromptPart:
		return renderPart(p)
	case []PromptPart:
		parts := make([]string, len(p))
		for i, part := range p {
			parts[i] = renderPart(part)
		}
		return strings.Join(parts, "\n\n")
	case fmt.Stringer:
		return p.String()
	default:
		return indentJSON(p)
	}
}

func renderPart(p PromptPart) string {
	var sb strings.Builder
	if p.Role != "" {
		sb.WriteString("[" + p.Role + "] ")
	}
	sb.WriteString(p.Text)
	if p.Data != nil {
		if p.Text != "" {
			sb.WriteString("\n")
		}
		sb.WriteString(indentJSON(p.Data))
	}
	return sb.String()
}
