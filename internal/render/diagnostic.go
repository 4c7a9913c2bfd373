package render

// DiagnosticKind classifies a render diagnostic.
type DiagnosticKind string

const (
	// UnknownComponent means the node's type has no component in the theme.
	UnknownComponent DiagnosticKind = "unknown_component"
	// ComponentFailed means the component panicked and its subtree was skipped.
	ComponentFailed DiagnosticKind = "component_failed"
)

// Diagnostic describes one node that did not render normally.
type Diagnostic struct {
	Kind   DiagnosticKind
	Theme  string
	Type   string
	Key    string
	Path   string
	Detail string
}

// Reporter receives render diagnostics. Implementations must be safe for
// concurrent use.
type Reporter interface {
	Report(d Diagnostic)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(d Diagnostic)

// Report calls f(d).
func (f ReporterFunc) Report(d Diagnostic) { f(d) }
