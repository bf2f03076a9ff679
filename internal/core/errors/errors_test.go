package errors

import (
	"errors"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "unit not found")
		if err.Error() != "[NOT_FOUND] unit not found" {
			t.Errorf("expected [NOT_FOUND] unit not found, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("short read")
		err := Wrap(original, CodeIO, "reading foo/Bar.java")
		expected := "[IO_ERROR] reading foo/Bar.java: short read"
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

	t.Run("IsInternal", func(t *testing.T) {
		err := Internal("unknown statement %q", "Goto")
		if !IsInternal(err) {
			t.Fatal("expected internal compiler error")
		}
		if err.Error() != `[INTERNAL_COMPILER_ERROR] unknown statement "Goto"` {
			t.Errorf("unexpected message %s", err.Error())
		}
	})

	t.Run("AddNode", func(t *testing.T) {
		err := AddNode(Internal("boom"), "method zaz")
		err = AddNode(err, "type foo.Bar")
		var de *DomainError
		if !errors.As(err, &de) {
			t.Fatal("expected DomainError")
		}
		nodes, _ := de.Context[CtxNode].([]string)
		if len(nodes) != 2 || nodes[0] != "method zaz" || nodes[1] != "type foo.Bar" {
			t.Errorf("unexpected node chain %v", nodes)
		}
	})

	t.Run("AddContextForeign", func(t *testing.T) {
		err := AddContext(errors.New("x"), CtxPath, "a/B.java")
		if !IsInternal(err) {
			t.Error("foreign errors should be wrapped as internal")
		}
	})
}
