package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred.
type Phase string

const (
	PhaseDestroy    Phase = "destroy"     // generic_destroy
	PhaseInitCopy   Phase = "init_copy"   // generic_initWithCopy
	PhaseInitTake   Phase = "init_take"   // generic_initWithTake
	PhaseAssignCopy Phase = "assign_copy" // generic_assignWithCopy
	PhaseAssignTake Phase = "assign_take" // generic_assignWithTake
	PhaseEnumTag    Phase = "enum_tag"    // get/inject enum tag
	PhaseResolve    Phase = "resolve"     // resilience resolution
	PhaseBuild      Phase = "build"       // layoutbuild.Builder
)

// Kind categorizes the error.
type Kind string

const (
	KindUnsupportedOpcode   Kind = "unsupported_opcode"
	KindCorruptLayout       Kind = "corrupt_layout"
	KindMissingAccessor     Kind = "missing_accessor"
	KindOutOfBounds         Kind = "out_of_bounds"
	KindInvalidDiscriminant Kind = "invalid_discriminant"
	KindNilMetadata         Kind = "nil_metadata"
	KindAlreadyResolved     Kind = "already_resolved"
)

// Error is the structured error type used throughout the library.
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Opcode string
	Detail string
	Path   []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Opcode != "" {
		b.WriteString(": opcode ")
		b.WriteString(e.Opcode)
	}

	if e.Detail != "" {
		if e.Opcode != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction.
type Builder struct {
	err Error
}

// New creates a new error builder.
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path.
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Opcode sets the offending opcode name.
func (b *Builder) Opcode(name string) *Builder {
	b.err.Opcode = name
	return b
}

// Value sets the offending value.
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error.
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message.
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error.
func (b *Builder) Build() *Error {
	return &b.err
}

// OutOfBounds creates an out-of-bounds error.
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// InvalidDiscriminant creates an invalid discriminant error for enums.
func InvalidDiscriminant(phase Phase, path []string, disc, maxValid uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidDiscriminant,
		Path:   path,
		Detail: fmt.Sprintf("discriminant %d out of range (max %d)", disc, maxValid),
		Value:  disc,
	}
}

// NilMetadata creates a nil-metadata error.
func NilMetadata(phase Phase, path []string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilMetadata,
		Path:   path,
		Detail: "metadata is nil",
	}
}

// MissingAccessor creates an error for a resilient field whose accessor
// could not be resolved.
func MissingAccessor(path []string, detail string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindMissingAccessor,
		Path:   path,
		Detail: detail,
	}
}

// UnsupportedOpcode creates an error for an opcode with no defined operand
// contract (Custom, Generic).
func UnsupportedOpcode(phase Phase, opcode string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupportedOpcode,
		Opcode: opcode,
		Detail: "opcode has no defined operand contract",
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
