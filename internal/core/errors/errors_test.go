package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "target path does not exist")
		if err.Error() != "[NOT_FOUND] target path does not exist" {
			t.Errorf("expected [NOT_FOUND] target path does not exist, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("permission denied")
		err := Wrap(original, CodeIO, "read source file")
		expected := "[IO_ERROR] read source file: permission denied"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeValidationError, "invalid input")
		if !IsCode(err, CodeValidationError) {
			t.Error("expected IsCode to return true for CodeValidationError")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
	})

	t.Run("IsCodeThroughFmtWrap", func(t *testing.T) {
		err := fmt.Errorf("scan: %w", New(CodeParse, "syntax error"))
		if !IsCode(err, CodeParse) {
			t.Error("expected IsCode to see through fmt.Errorf wrapping")
		}
	})

	t.Run("AddContext", func(t *testing.T) {
		err := AddContext(New(CodeParse, "syntax error"), CtxPath, "a.py")
		var de *DomainError
		if !errors.As(err, &de) {
			t.Fatal("expected DomainError")
		}
		if de.Context[CtxPath] != "a.py" {
			t.Errorf("expected path context a.py, got %v", de.Context[CtxPath])
		}

		foreign := AddContext(errors.New("boom"), CtxOperation, "scan")
		if !IsCode(foreign, CodeInternal) {
			t.Error("expected foreign error to be wrapped as internal")
		}
	})

	t.Run("IsRecoverable", func(t *testing.T) {
		if !IsRecoverable(New(CodeParse, "x")) || !IsRecoverable(New(CodeIO, "x")) {
			t.Error("expected parse and io errors to be recoverable")
		}
		if IsRecoverable(New(CodeNotFound, "x")) || IsRecoverable(New(CodeInternal, "x")) {
			t.Error("expected not-found and internal errors to be fatal")
		}
	})
}
