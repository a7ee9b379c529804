package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	if got := KindOf(Validation("bad input")); got != KindValidation {
		t.Errorf("KindOf(Validation) = %q", got)
	}
	if got := KindOf(NotFound("gone")); got != KindNotFound {
		t.Errorf("KindOf(NotFound) = %q", got)
	}
	if got := KindOf(Auth("nope")); got != KindAuth {
		t.Errorf("KindOf(Auth) = %q", got)
	}
	if got := KindOf(errors.New("plain")); got != KindUpstream {
		t.Errorf("KindOf(plain error) = %q, want upstream default", got)
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := NotFound("document not found")
	wrapped := fmt.Errorf("loading document: %w", inner)
	if !IsKind(wrapped, KindNotFound) {
		t.Error("kind lost through fmt.Errorf wrapping")
	}
}

func TestUpstreamCarriesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Upstream("failed to reach storage", cause)
	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
	if err.Error() != "failed to reach storage: connection refused" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestIsKindNil(t *testing.T) {
	if IsKind(nil, KindValidation) {
		t.Error("IsKind(nil, _) must be false")
	}
}
