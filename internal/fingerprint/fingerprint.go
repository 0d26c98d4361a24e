// Package fingerprint defines the offline verification path. The AS608
// reader integration is pending; the terminal ships with the Unavailable
// implementation and reports offline mode as not available.
package fingerprint

import (
	"context"
	"errors"

	"bioterminal/internal/models"
)

// ErrUnavailable is returned when no fingerprint reader is present.
var ErrUnavailable = errors.New("fingerprint reader not available")

// Reader verifies a person against the local user cache by fingerprint.
type Reader interface {
	// Verify blocks until a finger is read and matched, the context is
	// canceled, or the reader fails.
	Verify(ctx context.Context) (*models.User, error)
}

// Unavailable is the stub Reader used until AS608 support lands.
type Unavailable struct{}

// Verify always fails with ErrUnavailable.
func (Unavailable) Verify(ctx context.Context) (*models.User, error) {
	return nil, ErrUnavailable
}
