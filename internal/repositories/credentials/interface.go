// Package credentials persists the ordered credential collection.
package credentials

import (
	"context"

	"github.com/dmitrijs2005/passvault/internal/models"
)

// Repository stores the whole credential collection.
//
// The collection is always written as a unit: ReplaceAll swaps the stored
// records for the given ones, keeping slice order. Run it inside a
// transaction (see dbx.WithTx) so readers never observe a partial write.
type Repository interface {
	// GetAll returns every record in insertion order.
	GetAll(ctx context.Context) ([]models.CredentialRecord, error)

	// ReplaceAll replaces the stored collection with records.
	ReplaceAll(ctx context.Context, records []models.CredentialRecord) error
}
