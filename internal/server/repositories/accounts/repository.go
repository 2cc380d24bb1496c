// Package accounts persists gateway accounts and their encrypted provider
// credential tokens.
package accounts

import (
	"context"

	"github.com/avidalm/iptvgate/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	// UpdateCredentials replaces the stored provider credential ciphertexts.
	UpdateCredentials(ctx context.Context, id string, providerURL, providerUsername, providerPassword string) (*models.Account, error)
	// Upsert inserts the account or, when the email is already taken,
	// refreshes that row's provider credentials in place.
	Upsert(ctx context.Context, account *models.Account) (*models.Account, error)
	Delete(ctx context.Context, id string) error
}
