package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	err := New(KindNotFound, "user does not exist")
	if KindOf(err) != KindNotFound {
		t.Fatalf("expected not_found, got %s", KindOf(err))
	}

	wrapped := fmt.Errorf("lookup: %w", err)
	if KindOf(wrapped) != KindNotFound {
		t.Fatalf("expected kind to survive wrapping, got %s", KindOf(wrapped))
	}

	if KindOf(errors.New("boom")) != KindInternal {
		t.Fatal("untyped errors must default to internal")
	}
}

func TestMessageOf(t *testing.T) {
	err := Wrap(KindUnauthorized, "invalid credentials", errors.New("hash mismatch"))
	if MessageOf(err) != "invalid credentials" {
		t.Fatalf("unexpected message %q", MessageOf(err))
	}
	if MessageOf(errors.New("raw db failure")) != "internal error" {
		t.Fatal("untyped errors must not leak their message")
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("cause")
	err := Wrap(KindInternal, "token minting failed", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to reach the cause")
	}
}
