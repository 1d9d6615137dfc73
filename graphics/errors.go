package graphics

import "errors"

// All validation happens when pipelines and resource bindings are constructed.
// The per-frame record path never returns errors; contract violations there are
// bugs and panic instead.
var (
	// ErrDevice reports a backend or device level failure. Fatal, not retried.
	ErrDevice = errors.New("graphics: device error")
	// ErrShaderCompile reports that a shader failed to compile. The wrapped
	// error carries the compiler diagnostics.
	ErrShaderCompile = errors.New("graphics: shader compilation failed")
	// ErrLayoutMismatch reports that a shader's declared interface does not
	// line up with the layouts supplied at pipeline construction.
	ErrLayoutMismatch = errors.New("graphics: pipeline layout mismatch")
	// ErrBindingLayout reports that a resource does not fit the binding slot it
	// was bound to.
	ErrBindingLayout = errors.New("graphics: resource binding layout mismatch")
	// ErrResourceExhausted reports that the backend ran out of GPU memory or
	// pool capacity. The caller may free resources and retry.
	ErrResourceExhausted = errors.New("graphics: GPU resources exhausted")
)
