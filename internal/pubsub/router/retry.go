package router

import (
	"net"

	"github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/logger"
)

// ShouldRetry classifies a handler error as transient or terminal.
// Terminal errors fall through to the poison queue instead of burning
// retries.
func ShouldRetry(logger *logger.Logger, err error) bool {
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		logger.Debugw("retrying due to network timeout", "error", netErr)
		return true
	}

	if errors.IsValidation(err) ||
		errors.IsNotFound(err) ||
		errors.IsInvalidOperation(err) ||
		errors.IsPermissionDenied(err) {
		return false
	}

	return true
}
