package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memFlags is a FlagStore backed by a map. onSet, when set, runs before
// each write without the map's lock held.
type memFlags struct {
	mu    sync.Mutex
	m     map[string][]byte
	onSet func(value []byte)
}

func newMemFlags() *memFlags { return &memFlags{m: map[string][]byte{}} }

func (f *memFlags) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.m[key], nil
}

func (f *memFlags) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	hook := f.onSet
	f.mu.Unlock()
	if hook != nil {
		hook(value)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.m[key] = append([]byte(nil), value...)
	return nil
}

func (f *memFlags) setHook(fn func(value []byte)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onSet = fn
}

func (f *memFlags) locked() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.m[common.MetaKeyLocked])
}

func randomKey(t *testing.T) []byte {
	t.Helper()
	return common.GenerateRandByteArray(cryptox.KeySize)
}

func newManager(t *testing.T, timeout time.Duration) (*Manager, *memFlags) {
	t.Helper()
	flags := newMemFlags()
	m := NewManager(NewMemoryStore(), flags, timeout, nil)
	t.Cleanup(m.Close)
	return m, flags
}

func TestManager_ActivateAndLock(t *testing.T) {
	m, flags := newManager(t, time.Minute)
	ctx := context.Background()

	key := randomKey(t)
	priv, err := cryptox.GenerateAsymmetricKeyPair()
	require.NoError(t, err)

	assert.False(t, m.IsUnlocked(ctx))
	require.NoError(t, m.Activate(ctx, key, priv))
	assert.True(t, m.IsUnlocked(ctx))
	assert.Equal(t, "false", flags.locked())

	got, ok := m.ActiveMasterKey(ctx)
	require.True(t, ok)
	assert.Equal(t, key, got)

	gotPriv, ok := m.ActivePrivateKey(ctx)
	require.True(t, ok)
	assert.True(t, priv.Equal(gotPriv))

	require.NoError(t, m.Lock(ctx))
	assert.False(t, m.IsUnlocked(ctx))
	assert.Equal(t, "true", flags.locked())

	_, ok = m.ActiveMasterKey(ctx)
	assert.False(t, ok)
	_, ok = m.ActivePrivateKey(ctx)
	assert.False(t, ok)

	// idempotent
	require.NoError(t, m.Lock(ctx))
}

func TestManager_ActivateRejectsBadKey(t *testing.T) {
	m, _ := newManager(t, time.Minute)
	err := m.Activate(context.Background(), []byte("short"), nil)
	assert.Error(t, err)
	assert.False(t, m.IsUnlocked(context.Background()))
}

func TestManager_AutoLock(t *testing.T) {
	m, flags := newManager(t, 50*time.Millisecond)
	ctx := context.Background()

	var hookCalls int
	var mu sync.Mutex
	m.OnLock(func() {
		mu.Lock()
		hookCalls++
		mu.Unlock()
	})

	require.NoError(t, m.Activate(ctx, randomKey(t), nil))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return hookCalls == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.False(t, m.IsUnlocked(ctx))
	assert.Equal(t, "true", flags.locked())
}

func TestManager_ActivityDefersAutoLock(t *testing.T) {
	m, _ := newManager(t, 200*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, m.Activate(ctx, randomKey(t), nil))

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		_, ok := m.ActiveMasterKey(ctx)
		require.True(t, ok)
		time.Sleep(50 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return !m.IsUnlocked(ctx) }, 2*time.Second, 20*time.Millisecond)
}

func TestManager_StaleTimerDoesNotLockNewSession(t *testing.T) {
	m, _ := newManager(t, 80*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, m.Activate(ctx, randomKey(t), nil))
	require.NoError(t, m.Lock(ctx))

	m.timeout = time.Minute
	require.NoError(t, m.Activate(ctx, randomKey(t), nil))

	time.Sleep(200 * time.Millisecond)
	assert.True(t, m.IsUnlocked(ctx))
}

func TestManager_RestoreLockedFlagClearsStore(t *testing.T) {
	flags := newMemFlags()
	store := NewMemoryStore()
	ctx := context.Background()

	jwk, err := cryptox.ExportSymmetricKey(randomKey(t))
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, common.SessionKeyVaultKey, jwk))
	require.NoError(t, flags.Set(ctx, common.MetaKeyLocked, []byte("true")))

	m := NewManager(store, flags, time.Minute, nil)
	defer m.Close()

	require.NoError(t, m.Restore(ctx))
	assert.False(t, m.IsUnlocked(ctx))
}

func TestManager_RestoreResumesSession(t *testing.T) {
	dir := t.TempDir()
	flags := newMemFlags()
	ctx := context.Background()

	store, err := NewFileStore(dir)
	require.NoError(t, err)
	first := NewManager(store, flags, time.Minute, nil)
	key := randomKey(t)
	require.NoError(t, first.Activate(ctx, key, nil))
	first.Close()

	store2, err := NewFileStore(dir)
	require.NoError(t, err)
	second := NewManager(store2, flags, time.Minute, nil)
	defer second.Close()

	require.NoError(t, second.Restore(ctx))
	got, ok := second.ActiveMasterKey(ctx)
	require.True(t, ok)
	assert.Equal(t, key, got)
}

func TestManager_RestoreFixesStaleUnlockedFlag(t *testing.T) {
	m, flags := newManager(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, flags.Set(ctx, common.MetaKeyLocked, []byte("false")))
	require.NoError(t, m.Restore(ctx))

	assert.Equal(t, "true", flags.locked())
	assert.False(t, m.IsUnlocked(ctx))
}

func TestManager_LockFlagWrittenBeforeConcurrentActivate(t *testing.T) {
	m, flags := newManager(t, time.Minute)
	ctx := context.Background()
	require.NoError(t, m.Activate(ctx, randomKey(t), nil))

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	flags.setHook(func(value []byte) {
		if string(value) == "true" {
			once.Do(func() {
				close(entered)
				<-release
			})
		}
	})

	lockDone := make(chan error, 1)
	go func() { lockDone <- m.Lock(ctx) }()
	<-entered

	nextKey := randomKey(t)
	activateDone := make(chan error, 1)
	go func() { activateDone <- m.Activate(ctx, nextKey, nil) }()

	select {
	case err := <-activateDone:
		t.Fatalf("activate finished while lock was writing the flag: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	close(release)

	require.NoError(t, <-lockDone)
	require.NoError(t, <-activateDone)
	assert.True(t, m.IsUnlocked(ctx))
	assert.Equal(t, "false", flags.locked())
}
