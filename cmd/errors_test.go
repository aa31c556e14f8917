package cmd

import (
	"errors"
	"fmt"
	"testing"

	"pixelate/internal/apperr"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"plain", errors.New("boom"), "boom"},
		{"typed", apperr.New(apperr.KindService, "upload", "unsupported mode"), "unsupported mode"},
		{"wrapped typed", fmt.Errorf("convert: %w", apperr.New(apperr.KindTransport, "upload", "server returned 502")), "server returned 502"},
		{"config keeps cause", apperr.Wrap(apperr.KindConfig, "config.load", "invalid config", errors.New("line 3: bad indent")), "invalid config: line 3: bad indent"},
	}

	for _, tt := range tests {
		if got := userMessage(tt.err); got != tt.want {
			t.Errorf("%s: userMessage() = %q, want %q", tt.name, got, tt.want)
		}
	}
}
