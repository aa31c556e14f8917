package cmd

import (
	"errors"

	"pixelate/internal/apperr"
)

// userMessage keeps the operator-facing text of typed errors and the full
// chain of everything else.
func userMessage(err error) string {
	var typed *apperr.Error
	if errors.As(err, &typed) {
		if typed.Kind == apperr.KindConfig && typed.Cause != nil {
			return typed.Message + ": " + typed.Cause.Error()
		}
		return typed.Message
	}
	return err.Error()
}
