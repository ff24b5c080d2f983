package session

import (
	"context"
	"crypto/rsa"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/cryptox"
	"github.com/dmitrijs2005/passvault/internal/logging"
)

const (
	lockedTrue  = "true"
	lockedFalse = "false"
)

// FlagStore persists the durable locked flag. metadata.Repository
// satisfies it.
type FlagStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Manager owns the active session: the master key and the blind-save
// private key stored in a Store, the durable locked flag, and the
// inactivity timer.
//
// Every successful key access refreshes the timer. When it fires the
// session is cleared exactly as by Lock. A timer armed for an earlier
// session never locks a later one.
type Manager struct {
	mu      sync.Mutex
	store   Store
	flags   FlagStore
	timeout time.Duration
	logger  logging.Logger

	timer  *time.Timer
	gen    uint64
	onLock []func()
}

// NewManager builds a Manager. flags must be bound to a handle the inactivity
// timer may use from its own goroutine (normally the *sql.DB).
func NewManager(store Store, flags FlagStore, timeout time.Duration, logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Manager{
		store:   store,
		flags:   flags,
		timeout: timeout,
		logger:  logger.With("module", "session"),
	}
}

// OnLock registers fn to run after every lock, manual or automatic.
// Hooks run without the manager's lock held.
func (m *Manager) OnLock(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onLock = append(m.onLock, fn)
}

// Restore reconciles the session store with the durable locked flag at
// startup. A vault marked locked (or never unlocked) gets its session
// cleared; a surviving unlocked session gets a fresh inactivity timer.
func (m *Manager) Restore(ctx context.Context) error {
	flag, err := m.flags.Get(ctx, common.MetaKeyLocked)
	if err != nil {
		return err
	}

	if string(flag) != lockedFalse {
		m.mu.Lock()
		err := m.clearLocked(ctx)
		m.mu.Unlock()
		return err
	}

	if m.IsUnlocked(ctx) {
		m.logger.Info(ctx, "resumed unlocked session")
		return nil
	}

	// Flag says unlocked but the keys are gone: the store did not survive.
	return m.flags.Set(ctx, common.MetaKeyLocked, []byte(lockedTrue))
}

// Activate stores the session keys, clears the locked flag and starts the
// inactivity timer. priv may be nil.
func (m *Manager) Activate(ctx context.Context, masterKey []byte, priv *rsa.PrivateKey) error {
	jwk, err := cryptox.ExportSymmetricKey(masterKey)
	if err != nil {
		return fmt.Errorf("export master key: %w", err)
	}
	defer common.WipeByteArray(jwk)

	var privPEM []byte
	if priv != nil {
		privPEM, err = cryptox.ExportPrivateKey(priv)
		if err != nil {
			return fmt.Errorf("export private key: %w", err)
		}
		defer common.WipeByteArray(privPEM)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Set(ctx, common.SessionKeyVaultKey, jwk); err != nil {
		return fmt.Errorf("store master key: %w", err)
	}
	if privPEM != nil {
		err = m.store.Set(ctx, common.SessionKeyAsymPrivateKey, privPEM)
	} else {
		err = m.store.Delete(ctx, common.SessionKeyAsymPrivateKey)
	}
	if err != nil {
		_ = m.store.Delete(ctx, common.SessionKeyVaultKey)
		return fmt.Errorf("store private key: %w", err)
	}
	m.rearm()

	return m.flags.Set(ctx, common.MetaKeyLocked, []byte(lockedFalse))
}

// Lock clears the session and sets the durable locked flag. Locking a
// locked vault is a no-op apart from rewriting the flag.
func (m *Manager) Lock(ctx context.Context) error {
	_, err := m.lock(ctx, nil)
	return err
}

// lock clears the session. With a non-nil gen it only does so while the
// timer generation still matches, and reports whether it locked.
func (m *Manager) lock(ctx context.Context, gen *uint64) (bool, error) {
	m.mu.Lock()
	if gen != nil && *gen != m.gen {
		m.mu.Unlock()
		return false, nil
	}
	if err := m.clearLocked(ctx); err != nil {
		m.mu.Unlock()
		return false, err
	}
	// The flag is written before mu is released so a concurrent Activate
	// always lands after it.
	if err := m.flags.Set(ctx, common.MetaKeyLocked, []byte(lockedTrue)); err != nil {
		m.mu.Unlock()
		return true, err
	}
	hooks := append([]func(){}, m.onLock...)
	m.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	return true, nil
}

// IsUnlocked reports whether a master key is present. It does not count as
// activity, but arms the timer for a session restored from the store.
func (m *Manager) IsUnlocked(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok, err := m.store.Get(ctx, common.SessionKeyVaultKey)
	if err != nil {
		m.logger.Warn(ctx, "session store read failed", "error", err)
		return false
	}
	if ok && m.timer == nil {
		m.rearm()
	}
	return ok
}

// ActiveMasterKey returns a copy of the master key and refreshes the
// inactivity timer. Callers should wipe the copy when done.
func (m *Manager) ActiveMasterKey(ctx context.Context) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok, err := m.store.Get(ctx, common.SessionKeyVaultKey)
	if err != nil {
		m.logger.Warn(ctx, "session store read failed", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	defer common.WipeByteArray(raw)

	key, err := cryptox.ImportSymmetricKey(raw)
	if err != nil {
		m.logger.Warn(ctx, "session master key unreadable", "error", err)
		return nil, false
	}
	m.rearm()
	return key, true
}

// ActivePrivateKey returns the blind-save private key and refreshes the
// inactivity timer.
func (m *Manager) ActivePrivateKey(ctx context.Context) (*rsa.PrivateKey, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok, err := m.store.Get(ctx, common.SessionKeyVaultKey); err != nil || !ok {
		return nil, false
	}

	raw, ok, err := m.store.Get(ctx, common.SessionKeyAsymPrivateKey)
	if err != nil {
		m.logger.Warn(ctx, "session store read failed", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	defer common.WipeByteArray(raw)

	priv, err := cryptox.ImportPrivateKey(raw)
	if err != nil {
		m.logger.Warn(ctx, "session private key unreadable", "error", err)
		return nil, false
	}
	m.rearm()
	return priv, true
}

// Close stops the inactivity timer without locking.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// rearm must be called with mu held.
func (m *Manager) rearm() {
	if m.timer != nil {
		m.timer.Stop()
	}
	m.gen++
	gen := m.gen
	m.timer = time.AfterFunc(m.timeout, func() { m.expire(gen) })
}

// clearLocked must be called with mu held.
func (m *Manager) clearLocked(ctx context.Context) error {
	m.gen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if err := m.store.Delete(ctx, common.SessionKeyVaultKey, common.SessionKeyAsymPrivateKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (m *Manager) expire(gen uint64) {
	ctx := context.Background()
	locked, err := m.lock(ctx, &gen)
	if err != nil {
		m.logger.Error(ctx, "auto-lock failed", "error", err)
		return
	}
	if locked {
		m.logger.Info(ctx, "vault auto-locked after inactivity", "timeout", m.timeout.String())
	}
}
