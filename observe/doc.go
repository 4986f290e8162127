// Package observe mirrors calltrace frames into OpenTelemetry.
//
// It is a pure instrumentation bridge: a Hook registered on a
// calltrace.Tracer turns every traced frame into a span, call metrics and a
// structured log record. Nothing is emitted while the tracer is disabled.
//
//	obs, err := observe.NewObserver(ctx, cfg)
//	hook, err := observe.HookFromObserver(obs)
//	tr := calltrace.New(calltrace.WithEnabled(true), calltrace.WithHooks(hook))
package observe
