package users

import (
	"context"

	"github.com/dmitrijs2005/brewlog/internal/cloud/models"
)

// Repository stores user accounts.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}
