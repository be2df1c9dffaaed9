package errors

import (
	"errors"
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
				Phase:  PhaseResolve,
				Kind:   KindMissingAccessor,
				Path:   []string{"Optional", "case1"},
				Opcode: "SinglePayloadEnumFN",
				Detail: "accessor unresolved",
			},
			contains: []string{"[resolve]", "missing_accessor", "Optional.case1", "SinglePayloadEnumFN", "accessor unresolved"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseEnumTag,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[enum_tag]", "out_of_bounds"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseBuild,
				Kind:   KindCorruptLayout,
				Detail: "unterminated entry stream",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[build]", "corrupt_layout", "unterminated entry stream", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !containsSubstring(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseResolve,
		Kind:  KindCorruptLayout,
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
		Phase: PhaseResolve,
		Kind:  KindMissingAccessor,
		Path:  []string{"foo"},
	}

	if !err.Is(&Error{Phase: PhaseResolve, Kind: KindMissingAccessor}) {
		t.Error("Is should match same phase and kind")
	}

	if err.Is(&Error{Phase: PhaseEnumTag, Kind: KindMissingAccessor}) {
		t.Error("Is should not match different phase")
	}

	if err.Is(&Error{Phase: PhaseResolve, Kind: KindOutOfBounds}) {
		t.Error("Is should not match different kind")
	}

	target := &Error{Phase: PhaseResolve, Kind: KindMissingAccessor}
	if !errors.Is(err, target) {
		t.Error("errors.Is should match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseResolve, KindMissingAccessor).
		Path("Result", "err").
		Opcode("Resilient").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "Metatype", "nil").
		Build()

	if err.Phase != PhaseResolve {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseResolve)
	}
	if err.Kind != KindMissingAccessor {
		t.Errorf("Kind = %v, want %v", err.Kind, KindMissingAccessor)
	}
	if len(err.Path) != 2 || err.Path[0] != "Result" || err.Path[1] != "err" {
		t.Errorf("Path = %v, want [Result err]", err.Path)
	}
	if err.Opcode != "Resilient" {
		t.Errorf("Opcode = %v, want 'Resilient'", err.Opcode)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected Metatype, got nil" {
		t.Errorf("Detail = %v, want 'expected Metatype, got nil'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseBuild, []string{"entries"}, 10, 5)
		if err.Kind != KindOutOfBounds {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfBounds)
		}
		if err.Value != 10 {
			t.Errorf("Value = %v, want 10", err.Value)
		}
	})

	t.Run("InvalidDiscriminant", func(t *testing.T) {
		err := InvalidDiscriminant(PhaseEnumTag, []string{"variant"}, 5, 3)
		if err.Kind != KindInvalidDiscriminant {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidDiscriminant)
		}
	})

	t.Run("NilMetadata", func(t *testing.T) {
		err := NilMetadata(PhaseDestroy, []string{"payload"})
		if err.Kind != KindNilMetadata {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNilMetadata)
		}
	})

	t.Run("MissingAccessor", func(t *testing.T) {
		err := MissingAccessor([]string{"Result", "ok"}, "relative pointer resolved out of module")
		if err.Kind != KindMissingAccessor {
			t.Errorf("Kind = %v, want %v", err.Kind, KindMissingAccessor)
		}
		if err.Phase != PhaseResolve {
			t.Errorf("Phase = %v, want %v", err.Phase, PhaseResolve)
		}
	})

	t.Run("UnsupportedOpcode", func(t *testing.T) {
		err := UnsupportedOpcode(PhaseDestroy, "Custom")
		if err.Kind != KindUnsupportedOpcode {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnsupportedOpcode)
		}
		if err.Opcode != "Custom" {
			t.Errorf("Opcode = %v, want 'Custom'", err.Opcode)
		}
	})
}

func containsSubstring(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(substr) == 0 ||
		(len(s) > 0 && containsSubstringHelper(s, substr)))
}

func containsSubstringHelper(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
