// Package vault implements the vault controller: the single entry point
// that runs setup, unlock, lock, master password rotation, lookups,
// decryption and the pending-save flow against the session manager and
// the durable store.
//
// All operations are serialized by the controller's mutex, so no caller
// ever observes a partially applied operation. The inactivity timer of the
// session manager is the only concurrent writer of the lock state.
package vault

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/credstore"
	"github.com/dmitrijs2005/passvault/internal/cryptox"
	"github.com/dmitrijs2005/passvault/internal/dbx"
	"github.com/dmitrijs2005/passvault/internal/logging"
	"github.com/dmitrijs2005/passvault/internal/models"
	"github.com/dmitrijs2005/passvault/internal/repositories/repomanager"
)

// Session is the part of session.Manager the controller depends on.
type Session interface {
	Activate(ctx context.Context, masterKey []byte, priv *rsa.PrivateKey) error
	Lock(ctx context.Context) error
	IsUnlocked(ctx context.Context) bool
	ActiveMasterKey(ctx context.Context) ([]byte, bool)
	ActivePrivateKey(ctx context.Context) (*rsa.PrivateKey, bool)
	OnLock(fn func())
}

// DB is satisfied by *sql.DB.
type DB interface {
	dbx.DBTX
	dbx.TxBeginner
}

type Options struct {
	// KDF is used for new vaults and for the new password on rotation.
	KDF cryptox.KDF
	// ClearPendingOnLock drops the pending save candidate on every lock.
	ClearPendingOnLock bool
}

type Controller struct {
	mu      sync.Mutex
	db      DB
	repos   repomanager.RepositoryManager
	session Session
	kdf     cryptox.KDF
	logger  logging.Logger

	pendingMu sync.Mutex
	pending   *models.PendingSaveCandidate
}

func NewController(db DB, repos repomanager.RepositoryManager, sess Session, opts Options, logger logging.Logger) *Controller {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	kdf := opts.KDF
	if kdf == "" {
		kdf = cryptox.KDFPBKDF2
	}

	c := &Controller{
		db:      db,
		repos:   repos,
		session: sess,
		kdf:     kdf,
		logger:  logger.With("module", "vault"),
	}
	if opts.ClearPendingOnLock {
		sess.OnLock(c.DismissCandidate)
	}
	return c
}

// Status reports whether a vault exists and whether it is unlocked.
// It does not count as activity for the inactivity timer.
func (c *Controller) Status(ctx context.Context) (models.LockStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, err := c.loadVerification(ctx, c.db)
	if err != nil {
		return models.LockStatus{}, err
	}
	if rec == nil {
		return models.LockStatus{}, nil
	}
	return models.LockStatus{Setup: true, Unlocked: c.session.IsUnlocked(ctx)}, nil
}

// Setup creates the vault: verification record, blind-save key pair and an
// active session under the new master key.
func (c *Controller) Setup(ctx context.Context, password string) error {
	if password == "" {
		return fmt.Errorf("%w: empty password", common.ErrInvalidRequest)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	existing, err := c.loadVerification(ctx, c.db)
	if err != nil {
		return err
	}
	if existing != nil {
		return common.ErrAlreadyInitialized
	}

	salt := common.GenerateRandByteArray(cryptox.SaltSize)
	key, err := cryptox.DeriveKey(c.kdf, []byte(password), salt)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(key)

	priv, err := cryptox.GenerateAsymmetricKeyPair()
	if err != nil {
		return fmt.Errorf("keypair generation error: %w", err)
	}

	rec := models.VerificationRecord{
		Hash: cryptox.HashPassword([]byte(password), salt),
		Salt: salt,
		KDF:  string(c.kdf),
	}

	err = dbx.WithTx(ctx, c.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := c.storeKeyPair(ctx, tx, priv, key); err != nil {
			return err
		}
		return c.storeVerification(ctx, tx, rec)
	})
	if err != nil {
		return fmt.Errorf("setup error: %w", err)
	}

	if err := c.session.Activate(ctx, key, priv); err != nil {
		// Undo the setup so the caller can retry.
		if rbErr := c.repos.Metadata(c.db).Delete(ctx, common.MetaKeyVerification,
			common.MetaKeyAsymPublicKey, common.MetaKeyAsymPrivateKeyEnc); rbErr != nil {
			c.logger.Error(ctx, "setup rollback failed", "error", rbErr)
		}
		return fmt.Errorf("session activation error: %w", err)
	}

	c.logger.Info(ctx, "vault created", "kdf", rec.KDF)
	return nil
}

// Unlock verifies password and activates a session. A vault created before
// blind save existed gets its key pair now.
func (c *Controller) Unlock(ctx context.Context, password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, err := c.loadVerification(ctx, c.db)
	if err != nil {
		return err
	}
	if rec == nil {
		return common.ErrNotInitialized
	}

	if !cryptox.VerifyPassword([]byte(password), rec.Salt, rec.Hash) {
		c.logger.Warn(ctx, "unlock rejected: incorrect password")
		return common.ErrIncorrectPassword
	}

	key, err := cryptox.DeriveKey(cryptox.KDF(rec.KDF), []byte(password), rec.Salt)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(key)

	priv, err := c.loadOrCreateKeyPair(ctx, key)
	if err != nil {
		return err
	}

	if err := c.session.Activate(ctx, key, priv); err != nil {
		return fmt.Errorf("session activation error: %w", err)
	}

	c.logger.Info(ctx, "vault unlocked")
	return nil
}

// Lock discards the session keys.
func (c *Controller) Lock(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.session.Lock(ctx); err != nil {
		return fmt.Errorf("lock error: %w", err)
	}
	c.logger.Info(ctx, "vault locked")
	return nil
}

// ChangeMasterPassword replaces the master password. Symmetric records are
// re-encrypted under the new key and the private key is re-wrapped, all in
// one transaction together with the new verification record. Records that
// do not decrypt under the old key are reported as degraded.
func (c *Controller) ChangeMasterPassword(ctx context.Context, oldPassword, newPassword string) (models.RotationReport, error) {
	var report models.RotationReport
	if newPassword == "" {
		return report, fmt.Errorf("%w: empty password", common.ErrInvalidRequest)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	rec, err := c.loadVerification(ctx, c.db)
	if err != nil {
		return report, err
	}
	if rec == nil {
		return report, common.ErrNotInitialized
	}
	if !cryptox.VerifyPassword([]byte(oldPassword), rec.Salt, rec.Hash) {
		c.logger.Warn(ctx, "password change rejected: incorrect old password")
		return report, common.ErrIncorrectPassword
	}

	oldKey, err := cryptox.DeriveKey(cryptox.KDF(rec.KDF), []byte(oldPassword), rec.Salt)
	if err != nil {
		return report, err
	}
	defer common.WipeByteArray(oldKey)

	newSalt := common.GenerateRandByteArray(cryptox.SaltSize)
	newKey, err := cryptox.DeriveKey(c.kdf, []byte(newPassword), newSalt)
	if err != nil {
		return report, err
	}
	defer common.WipeByteArray(newKey)

	priv, err := c.loadOrCreateKeyPair(ctx, oldKey)
	if err != nil {
		return report, err
	}

	newRec := models.VerificationRecord{
		Hash: cryptox.HashPassword([]byte(newPassword), newSalt),
		Salt: newSalt,
		KDF:  string(c.kdf),
	}

	err = dbx.WithTx(ctx, c.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r, err := credstore.New(c.repos.Credentials(tx)).RotateEncryption(ctx, oldKey, newKey)
		if err != nil {
			return err
		}
		report = r

		if priv != nil {
			if err := c.storeKeyPair(ctx, tx, priv, newKey); err != nil {
				return err
			}
		}
		return c.storeVerification(ctx, tx, newRec)
	})
	if err != nil {
		return models.RotationReport{}, fmt.Errorf("rotation error: %w", err)
	}

	if err := c.session.Activate(ctx, newKey, priv); err != nil {
		return report, fmt.Errorf("session activation error: %w", err)
	}

	if len(report.Degraded) > 0 {
		c.logger.Warn(ctx, "master password changed with degraded records",
			"rotated", report.Rotated, "degraded", report.Degraded)
	} else {
		c.logger.Info(ctx, "master password changed", "rotated", report.Rotated, "skipped", report.Skipped)
	}
	return report, nil
}

func (c *Controller) loadVerification(ctx context.Context, db dbx.DBTX) (*models.VerificationRecord, error) {
	raw, err := c.repos.Metadata(db).Get(ctx, common.MetaKeyVerification)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var rec models.VerificationRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("corrupt verification record: %w", err)
	}
	return &rec, nil
}

func (c *Controller) storeVerification(ctx context.Context, db dbx.DBTX, rec models.VerificationRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return c.repos.Metadata(db).Set(ctx, common.MetaKeyVerification, raw)
}

// storeKeyPair writes the public key and the private key wrapped under key.
func (c *Controller) storeKeyPair(ctx context.Context, db dbx.DBTX, priv *rsa.PrivateKey, key []byte) error {
	pubPEM, err := cryptox.ExportPublicKey(&priv.PublicKey)
	if err != nil {
		return fmt.Errorf("export public key: %w", err)
	}

	privPEM, err := cryptox.ExportPrivateKey(priv)
	if err != nil {
		return fmt.Errorf("export private key: %w", err)
	}
	defer common.WipeByteArray(privPEM)

	iv, ct, err := cryptox.EncryptSymmetric(privPEM, key)
	if err != nil {
		return fmt.Errorf("encryption error: %w", err)
	}
	wrapped := models.NewSymmetricEnvelope(iv, ct).Payload()

	meta := c.repos.Metadata(db)
	if err := meta.Set(ctx, common.MetaKeyAsymPublicKey, pubPEM); err != nil {
		return err
	}
	return meta.Set(ctx, common.MetaKeyAsymPrivateKeyEnc, []byte(wrapped))
}

// loadOrCreateKeyPair unwraps the stored private key with key. A vault
// without a key pair, or with one that no longer decrypts, gets a fresh
// pair so later blind saves stay recoverable.
func (c *Controller) loadOrCreateKeyPair(ctx context.Context, key []byte) (*rsa.PrivateKey, error) {
	stored, err := c.repos.Metadata(c.db).GetMany(ctx, common.MetaKeyAsymPrivateKeyEnc, common.MetaKeyAsymPublicKey)
	if err != nil {
		return nil, err
	}
	wrapped, pub := stored[common.MetaKeyAsymPrivateKeyEnc], stored[common.MetaKeyAsymPublicKey]

	if wrapped == nil || pub == nil {
		priv, err := c.replaceKeyPair(ctx, key)
		if err != nil {
			return nil, err
		}
		c.logger.Info(ctx, "generated blind-save key pair for existing vault")
		return priv, nil
	}

	priv, err := unwrapPrivateKey(string(wrapped), key)
	if err == nil {
		return priv, nil
	}

	stranded, listErr := c.strandedRecords(ctx)
	if listErr != nil {
		return nil, listErr
	}
	c.logger.Warn(ctx, "stored private key unusable; replacing key pair",
		"error", err, "stranded", stranded)

	return c.replaceKeyPair(ctx, key)
}

// replaceKeyPair generates a key pair and stores it wrapped under key.
func (c *Controller) replaceKeyPair(ctx context.Context, key []byte) (*rsa.PrivateKey, error) {
	priv, err := cryptox.GenerateAsymmetricKeyPair()
	if err != nil {
		return nil, fmt.Errorf("keypair generation error: %w", err)
	}
	err = dbx.WithTx(ctx, c.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return c.storeKeyPair(ctx, tx, priv, key)
	})
	if err != nil {
		return nil, fmt.Errorf("store keypair: %w", err)
	}
	return priv, nil
}

// strandedRecords lists the IDs of blind-saved records.
func (c *Controller) strandedRecords(ctx context.Context) ([]string, error) {
	records, err := credstore.New(c.repos.Credentials(c.db)).List(ctx)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, r := range records {
		if r.Envelope.Type == models.EnvelopeAsymmetric {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}

func unwrapPrivateKey(wrapped string, key []byte) (*rsa.PrivateKey, error) {
	env, err := models.ParseSymmetricPayload(wrapped)
	if err != nil {
		return nil, err
	}
	pemBytes, err := cryptox.DecryptSymmetric(env.IV, env.Ciphertext, key)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(pemBytes)

	priv, err := cryptox.ImportPrivateKey(pemBytes)
	if err != nil {
		return nil, errors.Join(common.ErrDecryptionFailed, err)
	}
	return priv, nil
}
