package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := Newf(CodeInvalidSkill, "skill must be positive, got %v", -1.0)
	if !stderrors.Is(err, New(CodeInvalidSkill, "")) {
		t.Fatal("expected errors.Is to match on code")
	}
	if stderrors.Is(err, New(CodeInvalidGames, "")) {
		t.Fatal("expected errors.Is to reject a different code")
	}
}

func TestError_WrappedChain(t *testing.T) {
	inner := New(CodeDivisionGuard, "need at least two agents")
	err := fmt.Errorf("placement phase: %w", inner)

	if got := CodeOf(err); got != CodeDivisionGuard {
		t.Fatalf("CodeOf = %q, want %q", got, CodeDivisionGuard)
	}
	if !IsConfiguration(err) {
		t.Fatal("expected division guard to be a configuration error")
	}
}

func TestError_UnwrapCause(t *testing.T) {
	err := Wrap(CodeInvalidRating, "reading starting rating", io.ErrUnexpectedEOF)
	if !stderrors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatal("expected cause to be reachable through Unwrap")
	}
	want := "reading starting rating: unexpected EOF"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestCode_IsConfiguration(t *testing.T) {
	tests := []struct {
		code Code
		want bool
	}{
		{CodeInvalidAgentCount, true},
		{CodeInvalidSkill, true},
		{CodeInvalidGames, true},
		{CodeInvalidKFactor, true},
		{CodeInvalidWinRate, true},
		{CodeInvalidMode, true},
		{CodeInvalidScore, true},
		{CodeSameAgent, true},
		{CodeDivisionGuard, true},
		{CodeRateLimited, false},
		{CodeUnknown, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.IsConfiguration(); got != tt.want {
				t.Errorf("IsConfiguration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsConfiguration_PlainError(t *testing.T) {
	if IsConfiguration(stderrors.New("boom")) {
		t.Fatal("plain errors are not configuration errors")
	}
	if IsConfiguration(nil) {
		t.Fatal("nil is not a configuration error")
	}
}
