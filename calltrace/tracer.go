package calltrace

import (
	"context"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Line markers. Consumers filter trace output by these symbols.
const (
	MarkerEnter    = "▶"
	MarkerExit     = "◀"
	MarkerError    = "✖"
	MarkerLog      = "•"
	MarkerPrompt   = "👤"
	MarkerResponse = "🤖"
)

const (
	indentUnit  = "  "
	resultArrow = " → "
	dataSep     = " | "
	bannerRule  = "════════"
)

// Tracer emits entry, exit, error and log lines and tracks call depth for
// indentation.
//
// Contract:
//   - Concurrency: safe for concurrent use; lines are written whole.
//   - Disabled: every method is a no-op, including hooks.
//   - Errors: write failures of the output stream are ignored.
type Tracer struct {
	mu      sync.Mutex
	enabled bool
	stack   []string
	depth   int

	out    io.Writer
	now    func() time.Time
	colors palette
	hooks  []Hook
}

// Option configures a Tracer.
type Option func(*options)

type options struct {
	enabled bool
	out     io.Writer
	now     func() time.Time
	color   ColorMode
	hooks   []Hook
}

// WithEnabled sets the initial enablement flag.
func WithEnabled(enabled bool) Option {
	return func(o *options) { o.enabled = enabled }
}

// WithWriter sets the diagnostic output. The default is os.Stderr.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.out = w
		}
	}
}

// WithClock sets the time source used for line timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithColor sets the color mode. The default for New is ColorNever.
func WithColor(mode ColorMode) Option {
	return func(o *options) { o.color = mode }
}

// WithHooks adds hooks notified of every frame.
func WithHooks(hooks ...Hook) Option {
	return func(o *options) {
		for _, h := range hooks {
			if h != nil {
				o.hooks = append(o.hooks, h)
			}
		}
	}
}

// New creates a Tracer. It is disabled unless WithEnabled(true) is given.
func New(opts ...Option) *Tracer {
	o := options{
		out:   os.Stderr,
		now:   time.Now,
		color: ColorNever,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Tracer{
		enabled: o.enabled,
		out:     o.out,
		now:     o.now,
		colors:  newPalette(useColor(o.color, o.out)),
		hooks:   o.hooks,
	}
}

// NewFromEnv creates a Tracer configured from the environment. The
// environment is read once; opts are applied afterwards and win.
func NewFromEnv(ctx context.Context, opts ...Option) (*Tracer, error) {
	cfg, err := LoadConfig(ctx)
	if err != nil {
		return nil, err
	}
	return New(append(cfg.options(), opts...)...), nil
}

func useColor(mode ColorMode, w io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorAuto:
		f, ok := w.(*os.File)
		return ok && term.IsTerminal(int(f.Fd()))
	default:
		return false
	}
}

type palette struct {
	enter, exit, fail, log, prompt, response, banner *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		enter:    mk(color.FgCyan),
		exit:     mk(color.FgGreen),
		fail:     mk(color.FgRed, color.Bold),
		log:      mk(color.Bold),
		prompt:   mk(color.FgBlue, color.Bold),
		response: mk(color.FgMagenta, color.Bold),
		banner:   mk(color.FgYellow, color.Bold),
	}
}

// Enabled reports whether the tracer emits anything.
func (t *Tracer) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// SetEnabled overrides the enablement flag decided at construction.
func (t *Tracer) SetEnabled(enabled bool) {
	t.mu.Lock()
	t.enabled = enabled
	t.mu.Unlock()
}

// Enter reports entry into scope.name with its arguments, then pushes the
// frame.
func (t *Tracer) Enter(scope, name string, args ...any) {
	t.mu.Lock()
	if !t.enabled {
		t.mu.Unlock()
		return
	}
	frame := Qualify(scope, name)
	t.writeLocked(t.colors.enter, MarkerEnter, frame+"("+renderArgs(args)+")")
	t.stack = append(t.stack, frame)
	t.depth++
	hooks := t.hooks
	t.mu.Unlock()

	for _, h := range hooks {
		h.OnEnter(frame, args)
	}
}

// Exit reports a return without a result and pops the frame.
func (t *Tracer) Exit(scope, name string) {
	t.exit(scope, name, nil, false)
}

// ExitWith reports a return with result and pops the frame.
func (t *Tracer) ExitWith(scope, name string, result any) {
	t.exit(scope, name, result, true)
}

func (t *Tracer) exit(scope, name string, result any, hasResult bool) {
	t.mu.Lock()
	if !t.enabled {
		t.mu.Unlock()
		return
	}
	frame := Qualify(scope, name)
	t.unwindLocked()
	body := frame
	if hasResult {
		body += resultArrow + renderResult(result)
	}
	t.writeLocked(t.colors.exit, MarkerExit, body)
	hooks := t.hooks
	t.mu.Unlock()

	for _, h := range hooks {
		h.OnExit(frame, result)
	}
}

// Error reports a failure in scope.name. It does not pop the frame; a
// matching Exit is still expected. A nil err reports nothing.
func (t *Tracer) Error(scope, name string, err error) {
	if isNil(err) {
		return
	}
	t.failure(scope, name, err, false)
}

// fail reports a failure of a wrapped call and unwinds its frame without an
// exit line.
func (t *Tracer) fail(scope, name string, cause any) {
	t.failure(scope, name, cause, true)
}

func (t *Tracer) failure(scope, name string, cause any, unwind bool) {
	t.mu.Lock()
	if !t.enabled {
		t.mu.Unlock()
		return
	}
	frame := Qualify(scope, name)
	t.writeLocked(t.colors.fail, MarkerError, frame+": "+failureText(cause))
	if unwind {
		t.unwindLocked()
	}
	hooks := t.hooks
	t.mu.Unlock()

	err := asError(cause)
	for _, h := range hooks {
		h.OnError(frame, err)
		if unwind {
			h.OnExit(frame, nil)
		}
	}
}

// unwindLocked drops the innermost frame. Depth never goes below zero.
func (t *Tracer) unwindLocked() {
	if t.depth > 0 {
		t.depth--
	}
	if n := len(t.stack); n > 0 {
		t.stack = t.stack[:n-1]
	}
}

// Log emits a generic line. Data, when given, is rendered like entry arguments.
func (t *Tracer) Log(message string, data ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	body := message
	if len(data) > 0 {
		body += dataSep + renderArgs(data)
	}
	t.writeLocked(t.colors.log, MarkerLog, body)
}

// LogPrompt emits a user prompt, previewing its first 100 characters.
func (t *Tracer) LogPrompt(text string, metadata map[string]any) {
	t.logText(t.colors.prompt, MarkerPrompt, "USER PROMPT", text, promptLimit, metadata)
}

// LogResponse emits an API response, previewing its first 200 characters.
func (t *Tracer) LogResponse(text string, metadata map[string]any) {
	t.logText(t.colors.response, MarkerResponse, "API RESPONSE", text, responseLimit, metadata)
}

func (t *Tracer) logText(c *color.Color, marker, label, text string, limit int, metadata map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	body := label + " (" + strconv.Itoa(utf8.RuneCountInString(text)) + " chars): " + clip(text, limit)
	if len(metadata) > 0 {
		body += dataSep + compactJSON(metadata)
	}
	t.writeLocked(c, marker, body)
}

// LogLLMPrompt emits the complete prompt sent to a model across three lines:
// a header, the full text, and a length footer.
//
// The prompt may be a string, a []string, a []PromptPart, a fmt.Stringer, or
// any other value, which is rendered as indented JSON.
func (t *Tracer) LogLLMPrompt(prompt any, metadata map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	text := renderPrompt(prompt)
	header := bannerRule + " LLM PROMPT " + bannerRule
	if len(metadata) > 0 {
		header += dataSep + compactJSON(metadata)
	}
	footer := bannerRule + " END LLM PROMPT (" + strconv.Itoa(utf8.RuneCountInString(text)) + " chars) " + bannerRule

	ts := timestamp(t.now())
	indent := strings.Repeat(indentUnit, t.depth)
	var sb strings.Builder
	sb.WriteString(ts + " " + indent + t.colors.banner.Sprint(header) + "\n")
	sb.WriteString(text + "\n")
	sb.WriteString(ts + " " + indent + t.colors.banner.Sprint(footer) + "\n")
	_, _ = io.WriteString(t.out, sb.String())
}

// CallStack returns a copy of the active frames, outermost first.
func (t *Tracer) CallStack() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.stack))
	copy(out, t.stack)
	return out
}

// Depth returns the current nesting depth.
func (t *Tracer) Depth() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.depth
}

func (t *Tracer) writeLocked(c *color.Color, marker, body string) {
	var sb strings.Builder
	sb.WriteString(timestamp(t.now()))
	sb.WriteByte(' ')
	sb.WriteString(strings.Repeat(indentUnit, t.depth))
	sb.WriteString(c.Sprint(marker))
	sb.WriteByte(' ')
	sb.WriteString(body)
	sb.WriteByte('\n')
	_, _ = io.WriteString(t.out, sb.String())
}
