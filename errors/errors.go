package errors

import (
	"fmt"
	"go/token"
	"strings"
)

// Phase indicates where in generation the error occurred
type Phase string

const (
	PhaseLoad       Phase = "load"       // reading Go source
	PhaseParse      Phase = "parse"      // directive and tag parsing
	PhaseValidate   Phase = "validate"   // structural checks
	PhaseSynthesize Phase = "synthesize" // method set derivation
	PhaseEmit       Phase = "emit"       // source rendering
	PhaseRuntime    Phase = "runtime"    // simulated register memory
)

// Kind categorizes the error
type Kind string

const (
	KindNotRecord      Kind = "not_record"
	KindNotFixedLayout Kind = "not_fixed_layout"
	KindSizeMismatch   Kind = "size_mismatch"
	KindMarkerBound    Kind = "marker_bound"
	KindInvalidAccess  Kind = "invalid_access"
	KindUnknownToken   Kind = "unknown_token"
	KindDuplicateToken Kind = "duplicate_token"
	KindUnsupported    Kind = "unsupported"
	KindNameClash      Kind = "name_clash"
	KindCycle          Kind = "cycle"
	KindOutOfBounds    Kind = "out_of_bounds"
	KindAllocation     Kind = "allocation"
	KindNotFound       Kind = "not_found"
	KindInvalidInput   Kind = "invalid_input"
)

// Error is the structured error type used throughout the generator
type Error struct {
	Value  any
	Cause  error
	Pos    token.Position
	Phase  Phase
	Kind   Kind
	GoType string
	Detail string
	Path   []string
}

// Error implements the error interface
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

	if e.GoType != "" {
		b.WriteString(": Go type ")
		b.WriteString(e.GoType)
	}

	if e.Detail != "" {
		if e.GoType != "" {
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

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the block/field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// At sets the source position
func (b *Builder) At(pos token.Position) *Builder {
	b.err.Pos = pos
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// NotRecord creates an error for a directive attached to a non-struct type
func NotRecord(pos token.Position, name string) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindNotRecord,
		Pos:    pos,
		Path:   []string{name},
		Detail: "register blocks must be struct types",
	}
}

// NotFixedLayout creates an error for a struct without the host layout marker
func NotFixedLayout(pos token.Position, name string) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindNotFixedLayout,
		Pos:    pos,
		Path:   []string{name},
		Detail: "missing leading field `_ structs.HostLayout`",
	}
}

// SizeMismatch creates an error for implicit padding between or after fields
func SizeMismatch(pos token.Position, name string, fields, actual uint32) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindSizeMismatch,
		Pos:    pos,
		Path:   []string{name},
		Detail: fmt.Sprintf("fields cover %d bytes but the struct is %d bytes; declare padding as reserved fields", fields, actual),
		Value:  actual,
	}
}

// MarkerBound creates an error for a nested field whose type is not a register block
func MarkerBound(pos token.Position, path []string, goType string) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindMarkerBound,
		Pos:    pos,
		Path:   path,
		GoType: goType,
		Detail: "not a register block; add a //mmio:block directive to its declaration",
	}
}

// InvalidAccess creates an error for an illegal combination of access tokens
func InvalidAccess(pos token.Position, path []string, detail string) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindInvalidAccess,
		Pos:    pos,
		Path:   path,
		Detail: detail,
	}
}

// UnknownToken creates an error for an unrecognized directive or tag token
func UnknownToken(pos token.Position, path []string, tok string) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindUnknownToken,
		Pos:    pos,
		Path:   path,
		Detail: fmt.Sprintf("unknown token %q", tok),
		Value:  tok,
	}
}

// DuplicateToken creates an error for a capability category given twice
func DuplicateToken(pos token.Position, path []string, tok string) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindDuplicateToken,
		Pos:    pos,
		Path:   path,
		Detail: fmt.Sprintf("token %q repeats an access category", tok),
		Value:  tok,
	}
}

// Unsupported creates an unsupported construct error
func Unsupported(phase Phase, pos token.Position, path []string, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Pos:    pos,
		Path:   path,
		Detail: what,
	}
}

// NameClash creates an error for two declarations producing the same identifier
func NameClash(pos token.Position, path []string, name string) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindNameClash,
		Pos:    pos,
		Path:   path,
		Detail: fmt.Sprintf("generated identifier %s is already in use", name),
		Value:  name,
	}
}

// Cycle creates an error for blocks that contain themselves
func Cycle(pos token.Position, chain []string) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindCycle,
		Pos:    pos,
		Path:   chain[:1],
		Detail: "nested blocks form a cycle: " + strings.Join(chain, " -> "),
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
