package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapKeepsFirstTypedError(t *testing.T) {
	inner := New(KindService, "upload", "unsupported mode")
	outer := Wrap(KindTransport, "orchestrator.resolve", "request failed", fmt.Errorf("wrapped: %w", inner))

	if outer != inner {
		t.Fatalf("expected the typed error to be returned unchanged, got %v", outer)
	}
	if !IsKind(outer, KindService) {
		t.Fatalf("expected service kind, got %s", KindOf(outer))
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(KindTransport, "op", "msg", nil) != nil {
		t.Fatal("wrapping nil must return nil")
	}
}

func TestSentinelsSurviveWrapping(t *testing.T) {
	err := Wrap(KindValidation, "intake.select", "Please select an image file.", ErrInvalidFileType)
	if !errors.Is(err, ErrInvalidFileType) {
		t.Fatal("errors.Is lost the sentinel")
	}
	if got := UserMessage(err); got != "Please select an image file." {
		t.Fatalf("UserMessage = %q", got)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{errors.New("plain failure"), "plain failure"},
		{New(KindService, "upload", "unsupported mode"), "unsupported mode"},
		{fmt.Errorf("ctx: %w", New(KindTransport, "upload", "server returned 502")), "server returned 502"},
	}

	for _, tt := range tests {
		if got := UserMessage(tt.err); got != tt.want {
			t.Errorf("UserMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestErrorString(t *testing.T) {
	err := Wrap(KindTransport, "client.upload", "connection refused", errors.New("dial tcp"))
	want := "[transport:client.upload] connection refused: dial tcp"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}
