package vault

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/credstore"
	"github.com/dmitrijs2005/passvault/internal/cryptox"
	"github.com/dmitrijs2005/passvault/internal/dbx"
	"github.com/dmitrijs2005/passvault/internal/models"
)

// FetchMatches returns the records whose site contains domain. When the
// vault is unlocked the first match is decrypted as well.
func (c *Controller) FetchMatches(ctx context.Context, domain string) (models.MatchResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	matches, err := credstore.New(c.repos.Credentials(c.db)).FindBySiteSubstring(ctx, domain)
	if err != nil {
		return models.MatchResult{}, err
	}

	result := models.MatchResult{Matches: matches}
	if len(matches) == 0 || !c.session.IsUnlocked(ctx) {
		return result, nil
	}

	best := matches[0]
	password, err := c.decrypt(ctx, best.Envelope)
	if err != nil {
		c.logger.Warn(ctx, "best match not decrypted", "id", best.ID, "error", err)
		return result, nil
	}
	result.Username = best.Username
	result.Password = password
	result.Decrypted = true
	return result, nil
}

// DecryptOne decrypts a single envelope with the key its tag names.
func (c *Controller) DecryptOne(ctx context.Context, env models.Envelope) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.decrypt(ctx, env)
}

// DecryptByID decrypts the stored record with the given id.
func (c *Controller) DecryptByID(ctx context.Context, id string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, err := credstore.New(c.repos.Credentials(c.db)).Get(ctx, id)
	if err != nil {
		return "", err
	}
	return c.decrypt(ctx, rec.Envelope)
}

func (c *Controller) decrypt(ctx context.Context, env models.Envelope) (string, error) {
	var (
		plain []byte
		err   error
	)

	switch env.Type {
	case models.EnvelopeSymmetric:
		key, ok := c.session.ActiveMasterKey(ctx)
		if !ok {
			return "", common.ErrVaultLocked
		}
		defer common.WipeByteArray(key)
		plain, err = cryptox.DecryptSymmetric(env.IV, env.Ciphertext, key)
	case models.EnvelopeAsymmetric:
		priv, ok := c.session.ActivePrivateKey(ctx)
		if !ok {
			if c.session.IsUnlocked(ctx) {
				return "", fmt.Errorf("%w: no private key in session", common.ErrDecryptionFailed)
			}
			return "", common.ErrVaultLocked
		}
		plain, err = cryptox.DecryptAsymmetric(env.Ciphertext, priv)
	default:
		return "", fmt.Errorf("%w: unknown envelope type %q", common.ErrDecryptionFailed, env.Type)
	}
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// ConfirmSave stores a credential. An unlocked vault encrypts under the
// master key; a locked one blind-saves under the public key. The pending
// candidate is cleared on success.
func (c *Controller) ConfirmSave(ctx context.Context, site, username, password string) (models.CredentialRecord, error) {
	site = strings.TrimSpace(site)
	if site == "" {
		return models.CredentialRecord{}, fmt.Errorf("%w: site is required", common.ErrInvalidRequest)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	env, err := c.seal(ctx, []byte(password))
	if err != nil {
		return models.CredentialRecord{}, err
	}

	var rec models.CredentialRecord
	err = dbx.WithTx(ctx, c.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r, err := credstore.New(c.repos.Credentials(tx)).Upsert(ctx, site, username, env)
		rec = r
		return err
	})
	if err != nil {
		return models.CredentialRecord{}, err
	}

	c.DismissCandidate()
	c.logger.Info(ctx, "credential saved", "id", rec.ID, "site", rec.Site, "envelope", string(env.Type))
	return rec, nil
}

func (c *Controller) seal(ctx context.Context, plain []byte) (models.Envelope, error) {
	if key, ok := c.session.ActiveMasterKey(ctx); ok {
		defer common.WipeByteArray(key)
		iv, ct, err := cryptox.EncryptSymmetric(plain, key)
		if err != nil {
			return models.Envelope{}, fmt.Errorf("encryption error: %w", err)
		}
		return models.NewSymmetricEnvelope(iv, ct), nil
	}

	pubPEM, err := c.repos.Metadata(c.db).Get(ctx, common.MetaKeyAsymPublicKey)
	if err != nil {
		return models.Envelope{}, err
	}
	if pubPEM == nil {
		return models.Envelope{}, common.ErrNotInitialized
	}
	pub, err := cryptox.ImportPublicKey(pubPEM)
	if err != nil {
		return models.Envelope{}, fmt.Errorf("stored public key: %w", err)
	}
	if max := cryptox.MaxAsymmetricPlaintext(pub); len(plain) > max {
		return models.Envelope{}, fmt.Errorf("%w: password longer than %d bytes cannot be saved while locked",
			common.ErrInvalidRequest, max)
	}
	ct, err := cryptox.EncryptAsymmetric(plain, pub)
	if err != nil {
		return models.Envelope{}, fmt.Errorf("encryption error: %w", err)
	}
	return models.NewAsymmetricEnvelope(ct), nil
}

// List returns every record in insertion order.
func (c *Controller) List(ctx context.Context) ([]models.CredentialRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return credstore.New(c.repos.Credentials(c.db)).List(ctx)
}

// Delete removes a record. Deleting a missing id succeeds and reports false.
func (c *Controller) Delete(ctx context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed bool
	err := dbx.WithTx(ctx, c.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r, err := credstore.New(c.repos.Credentials(tx)).Remove(ctx, id)
		removed = r
		return err
	})
	if err != nil {
		return false, err
	}
	if removed {
		c.logger.Info(ctx, "credential deleted", "id", id)
	}
	return removed, nil
}

// GeneratePassword returns a random password; length 0 selects the default.
func (c *Controller) GeneratePassword(length int) (string, error) {
	if length == 0 {
		length = cryptox.DefaultPasswordLength
	}
	p, err := cryptox.GeneratePassword(length)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidRequest, err)
	}
	return p, nil
}
