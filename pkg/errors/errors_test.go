package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("connection reset")
	err := Wrap(CodeDependency, cause, "load order")

	if !stdErrors.Is(err, cause) {
		t.Fatal("wrapped error should unwrap to cause")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestAsFindsTypedErrorInChain(t *testing.T) {
	inner := New(CodeStateConflict, "currency mismatch")
	outer := fmt.Errorf("processing event: %w", inner)

	typed := As(outer)
	if typed == nil {
		t.Fatal("expected typed error in chain")
	}
	if typed.Code() != CodeStateConflict {
		t.Fatalf("unexpected code %s", typed.Code())
	}
}

func TestHasCode(t *testing.T) {
	err := New(CodeIdempotency, "payment already recorded")
	if !HasCode(err, CodeIdempotency) {
		t.Fatal("expected HasCode match")
	}
	if HasCode(err, CodeNotFound) {
		t.Fatal("unexpected HasCode match")
	}
	if HasCode(nil, CodeNotFound) {
		t.Fatal("nil error should never match")
	}
}

func TestMetadataFor(t *testing.T) {
	meta := MetadataFor(CodeUnauthorized)
	if meta.HTTPStatus != http.StatusUnauthorized {
		t.Fatalf("unexpected status %d", meta.HTTPStatus)
	}
	if meta.Retryable {
		t.Fatal("auth failures are not retryable")
	}

	fallback := MetadataFor(Code("UNKNOWN"))
	if fallback.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown codes should map to internal, got %d", fallback.HTTPStatus)
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(New(CodeStateConflict, "currency mismatch")) {
		t.Fatal("business failures must not invite gateway retries")
	}
	if !IsRetryable(New(CodeDependency, "store unavailable")) {
		t.Fatal("transient store failures must invite gateway retries")
	}
	if !IsRetryable(stdErrors.New("unknown")) {
		t.Fatal("untyped errors are treated as transient")
	}
}
