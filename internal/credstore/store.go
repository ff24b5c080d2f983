// Package credstore implements the credential store: lookup, upsert,
// removal and master-key rotation over the ordered credential collection.
//
// Every mutation loads the collection, edits it in memory and writes it
// back with a single ReplaceAll. Callers bind the repository to a
// transaction so the replace is atomic.
package credstore

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/cryptox"
	"github.com/dmitrijs2005/passvault/internal/models"
	"github.com/dmitrijs2005/passvault/internal/repositories/credentials"
	"github.com/google/uuid"
)

type Store interface {
	FindBySiteSubstring(ctx context.Context, domain string) ([]models.CredentialRecord, error)
	List(ctx context.Context) ([]models.CredentialRecord, error)
	Get(ctx context.Context, id string) (*models.CredentialRecord, error)
	Upsert(ctx context.Context, site, username string, envelope models.Envelope) (models.CredentialRecord, error)
	Remove(ctx context.Context, id string) (bool, error)
	RotateEncryption(ctx context.Context, oldKey, newKey []byte) (models.RotationReport, error)
}

type store struct {
	repo credentials.Repository
	now  func() time.Time
}

func New(repo credentials.Repository) Store {
	return &store{repo: repo, now: time.Now}
}

// timestamp matches the precision of the durable store.
func (s *store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *store) FindBySiteSubstring(ctx context.Context, domain string) ([]models.CredentialRecord, error) {
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("error retrieving credentials: %w", err)
	}

	result := make([]models.CredentialRecord, 0)
	for _, r := range all {
		if r.SiteContains(domain) {
			result = append(result, r)
		}
	}
	return result, nil
}

func (s *store) List(ctx context.Context) ([]models.CredentialRecord, error) {
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("error retrieving credentials: %w", err)
	}
	return all, nil
}

func (s *store) Get(ctx context.Context, id string) (*models.CredentialRecord, error) {
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("error retrieving credentials: %w", err)
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, common.ErrorNotFound
}

func (s *store) Upsert(ctx context.Context, site, username string, envelope models.Envelope) (models.CredentialRecord, error) {
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		return models.CredentialRecord{}, fmt.Errorf("error retrieving credentials: %w", err)
	}

	idx := -1
	for i := range all {
		if all[i].SameLogin(site, username) {
			idx = i
			break
		}
	}

	now := s.timestamp()
	if idx >= 0 {
		all[idx].Envelope = envelope
		all[idx].UpdatedAt = &now
	} else {
		all = append(all, models.CredentialRecord{
			ID:        uuid.NewString(),
			Site:      site,
			Username:  username,
			Envelope:  envelope,
			CreatedAt: now,
		})
		idx = len(all) - 1
	}

	if err := s.repo.ReplaceAll(ctx, all); err != nil {
		return models.CredentialRecord{}, fmt.Errorf("saving error: %w", err)
	}
	return all[idx], nil
}

// Remove deletes the record with the given id and reports whether it existed.
func (s *store) Remove(ctx context.Context, id string) (bool, error) {
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		return false, fmt.Errorf("error retrieving credentials: %w", err)
	}

	kept := all[:0]
	for _, r := range all {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(all) {
		return false, nil
	}

	if err := s.repo.ReplaceAll(ctx, kept); err != nil {
		return false, fmt.Errorf("error deleting credential: %w", err)
	}
	return true, nil
}

// RotateEncryption re-encrypts every symmetric envelope from oldKey to newKey.
// A record that does not decrypt under oldKey keeps its envelope and is
// listed in the report as degraded. Asymmetric envelopes are skipped.
func (s *store) RotateEncryption(ctx context.Context, oldKey, newKey []byte) (models.RotationReport, error) {
	var report models.RotationReport

	all, err := s.repo.GetAll(ctx)
	if err != nil {
		return report, fmt.Errorf("error retrieving credentials: %w", err)
	}

	for i := range all {
		env := all[i].Envelope
		if !env.IsSymmetric() {
			report.Skipped++
			continue
		}

		plain, err := cryptox.DecryptSymmetric(env.IV, env.Ciphertext, oldKey)
		if err != nil {
			report.Degraded = append(report.Degraded, all[i].ID)
			continue
		}

		iv, ct, err := cryptox.EncryptSymmetric(plain, newKey)
		common.WipeByteArray(plain)
		if err != nil {
			return report, fmt.Errorf("encryption error: %w", err)
		}

		all[i].Envelope = models.NewSymmetricEnvelope(iv, ct)
		report.Rotated++
	}

	if err := s.repo.ReplaceAll(ctx, all); err != nil {
		return report, fmt.Errorf("saving error: %w", err)
	}
	return report, nil
}
