package errors

import (
	"errors"
	"go/token"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseValidate,
				Kind:   KindMarkerBound,
				Path:   []string{"Uart", "bank"},
				GoType: "Bank",
				Detail: "not a register block",
			},
			contains: []string{"[validate]", "marker_bound", "Uart.bank", "Go type Bank", " - not a register block"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseParse,
				Kind:  KindUnknownToken,
			},
			contains: []string{"[parse]", "unknown_token"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseLoad,
				Kind:   KindInvalidInput,
				Detail: "parse package",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[load]", "invalid_input", "parse package", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseEmit,
		Kind:  KindInvalidInput,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseValidate,
		Kind:  KindSizeMismatch,
		Path:  []string{"Uart"},
	}

	if !err.Is(&Error{Phase: PhaseValidate, Kind: KindSizeMismatch}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseParse, Kind: KindSizeMismatch}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseValidate, Kind: KindCycle}) {
		t.Error("Is should not match different kind")
	}

	var wrapped error = Wrap(PhaseLoad, KindInvalidInput, err, "generate")
	if !errors.Is(wrapped, &Error{Phase: PhaseValidate, Kind: KindSizeMismatch}) {
		t.Error("errors.Is should find the wrapped error")
	}
	var target *Error
	if !errors.As(wrapped, &target) || target.Phase != PhaseLoad {
		t.Errorf("errors.As = %v", target)
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	pos := token.Position{Filename: "uart.go", Line: 12, Column: 2}
	err := New(PhaseValidate, KindInvalidAccess).
		At(pos).
		Path("Uart", "status").
		GoType("uint32").
		Value("Modify").
		Cause(cause).
		Detail("%s requires %s", "Modify", "Write").
		Build()

	if err.Phase != PhaseValidate {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseValidate)
	}
	if err.Kind != KindInvalidAccess {
		t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidAccess)
	}
	if err.Pos != pos {
		t.Errorf("Pos = %v, want %v", err.Pos, pos)
	}
	if len(err.Path) != 2 || err.Path[0] != "Uart" || err.Path[1] != "status" {
		t.Errorf("Path = %v, want [Uart status]", err.Path)
	}
	if err.GoType != "uint32" {
		t.Errorf("GoType = %v, want 'uint32'", err.GoType)
	}
	if err.Value != "Modify" {
		t.Errorf("Value = %v, want 'Modify'", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "Modify requires Write" {
		t.Errorf("Detail = %v, want 'Modify requires Write'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	pos := token.Position{Filename: "regs.go", Line: 3, Column: 6}

	tests := []struct {
		name  string
		err   *Error
		phase Phase
		kind  Kind
		want  string
	}{
		{"NotRecord", NotRecord(pos, "Mode"), PhaseValidate, KindNotRecord, "struct"},
		{"NotFixedLayout", NotFixedLayout(pos, "Uart"), PhaseValidate, KindNotFixedLayout, "structs.HostLayout"},
		{"SizeMismatch", SizeMismatch(pos, "Uart", 20, 24), PhaseValidate, KindSizeMismatch, "20 bytes"},
		{"MarkerBound", MarkerBound(pos, []string{"Uart", "bank"}, "Bank"), PhaseValidate, KindMarkerBound, "//mmio:block"},
		{"InvalidAccess", InvalidAccess(pos, []string{"Uart", "f"}, "Inner excludes Read"), PhaseValidate, KindInvalidAccess, "Inner"},
		{"UnknownToken", UnknownToken(pos, []string{"Uart", "f"}, "Peek"), PhaseParse, KindUnknownToken, `"Peek"`},
		{"DuplicateToken", DuplicateToken(pos, []string{"Uart", "f"}, "Read"), PhaseParse, KindDuplicateToken, `"Read"`},
		{"Unsupported", Unsupported(PhaseValidate, pos, []string{"Uart", "f"}, "float32 register"), PhaseValidate, KindUnsupported, "float32"},
		{"NameClash", NameClash(pos, []string{"Uart", "f"}, "ReadF"), PhaseValidate, KindNameClash, "ReadF"},
		{"Cycle", Cycle(pos, []string{"A", "B", "A"}), PhaseValidate, KindCycle, "A -> B -> A"},
	}

	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseRuntime, []string{"uart"}, 10, 5)
		if err.Kind != KindOutOfBounds || err.Phase != PhaseRuntime {
			t.Errorf("got [%s] %s", err.Phase, err.Kind)
		}
		if err.Value != 10 {
			t.Errorf("Value = %v, want 10", err.Value)
		}
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Phase != tt.phase {
				t.Errorf("Phase = %v, want %v", tt.err.Phase, tt.phase)
			}
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.kind)
			}
			if tt.err.Pos != pos {
				t.Errorf("Pos = %v, want %v", tt.err.Pos, pos)
			}
			if !strings.Contains(tt.err.Error(), tt.want) {
				t.Errorf("Error() = %q, want it to contain %q", tt.err.Error(), tt.want)
			}
		})
	}
}
