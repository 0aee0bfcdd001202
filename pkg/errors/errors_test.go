package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeInsufficientStock, status: http.StatusConflict, publicMsg: "insufficient available stock", detailsOK: true},
		{code: CodeWouldUnderflow, status: http.StatusUnprocessableEntity, publicMsg: "adjustment would breach stock invariant", detailsOK: true},
		{code: CodeMismatch, status: http.StatusUnprocessableEntity, publicMsg: "commit quantity inconsistent with reservation", detailsOK: true},
		{code: CodeTransientConflict, status: http.StatusConflict, publicMsg: "concurrent write contention, retry the request", retryable: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("row lock timeout")
	wrapped := Wrap(CodeTransientConflict, cause, "reserve retries exhausted")

	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("expected wrapped error to unwrap to cause")
	}
	if typed := As(wrapped); typed == nil || typed.Code() != CodeTransientConflict {
		t.Fatalf("expected typed transient conflict, got %v", wrapped)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(New(CodeTransientConflict, "contention")) {
		t.Fatal("transient conflict should be retryable")
	}
	if IsRetryable(New(CodeInsufficientStock, "no stock")) {
		t.Fatal("insufficient stock should not be retryable")
	}
	if IsRetryable(stdErrors.New("plain")) {
		t.Fatal("untyped errors are not retryable")
	}
}
