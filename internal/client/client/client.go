package client

import (
	"context"

	"github.com/dmitrijs2005/passvault/internal/models"
	"github.com/dmitrijs2005/passvault/internal/protocol"
)

type Client interface {
	Close() error
	Status(ctx context.Context) (models.LockStatus, error)
	Setup(ctx context.Context, password string) error
	Unlock(ctx context.Context, password string) error
	Lock(ctx context.Context) error
	ChangeMasterPassword(ctx context.Context, oldPassword, newPassword string) ([]string, error)
	GetCredentials(ctx context.Context, domain string) (protocol.CredentialsResponse, error)
	DecryptPassword(ctx context.Context, id string) (string, error)
	SaveCandidate(ctx context.Context, candidate models.PendingSaveCandidate) error
	PendingSave(ctx context.Context) (*models.PendingSaveCandidate, error)
	ConfirmSave(ctx context.Context, candidate models.PendingSaveCandidate) (string, error)
	ClearCandidate(ctx context.Context) error
	List(ctx context.Context) ([]models.CredentialRecord, error)
	Delete(ctx context.Context, id string) (bool, error)
	GeneratePassword(ctx context.Context, length int) (string, error)
}
