// Package refreshtokens stores the long-lived tokens used to mint new access
// tokens for a signed-in client.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/brewlog/internal/cloud/models"
)

// Repository stores refresh tokens.
type Repository interface {
	// Create stores token for userID, expiring at now+validity.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error
	// Find returns common.ErrNotFound when the token is unknown.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)
	// Delete of an unknown token is not an error.
	Delete(ctx context.Context, token string) error
}
