package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/passvault/internal/client/client"
	"github.com/dmitrijs2005/passvault/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_ConfirmsPassword(t *testing.T) {
	fc := &fakeClient{}
	a, out := newTestApp(t, fc, "hunter2\nhunter2\n")

	require.NoError(t, a.Setup(context.Background(), nil))
	assert.Equal(t, "hunter2", fc.password)
	assert.Contains(t, out.String(), "Vault created and unlocked.")
	assert.Equal(t, "(unlocked)", a.getStatus())
}

func TestSetup_Mismatch(t *testing.T) {
	fc := &fakeClient{}
	a, _ := newTestApp(t, fc, "one\ntwo\n")

	err := a.Setup(context.Background(), nil)
	require.ErrorIs(t, err, errPasswordMismatch)
	assert.Empty(t, fc.password)
}

func TestUnlockAndLock(t *testing.T) {
	fc := &fakeClient{status: models.LockStatus{Setup: true}}
	a, out := newTestApp(t, fc, "pw\n")
	ctx := context.Background()

	require.NoError(t, a.Unlock(ctx, nil))
	assert.True(t, a.isUnlocked())

	require.NoError(t, a.Lock(ctx, nil))
	assert.False(t, a.isUnlocked())
	assert.Equal(t, "(locked)", a.getStatus())
	assert.Contains(t, out.String(), "Locked.")
}

func TestUnlock_Rejected(t *testing.T) {
	fc := &fakeClient{err: &client.RejectedError{Message: "incorrect password"}}
	a, _ := newTestApp(t, fc, "bad\n")

	err := a.Unlock(context.Background(), nil)
	var rej *client.RejectedError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, "incorrect password", rej.Message)
}

func TestChangePassword_ReportsDegraded(t *testing.T) {
	fc := &fakeClient{degraded: []string{"r9"}}
	a, out := newTestApp(t, fc, "old\nnew\nnew\n")

	require.NoError(t, a.ChangePassword(context.Background(), nil))
	assert.Equal(t, "new", fc.password)
	assert.Contains(t, out.String(), "1 record(s) could not be re-encrypted")
	assert.Contains(t, out.String(), "r9")
}

func TestFind(t *testing.T) {
	fc := &fakeClient{records: sampleRecords()}
	a, out := newTestApp(t, fc, "")

	require.ErrorIs(t, a.Find(context.Background(), nil), errUsage)

	require.NoError(t, a.Find(context.Background(), []string{"github"}))
	assert.Contains(t, out.String(), "github.com")
	assert.NotContains(t, out.String(), "gitlab.com")
	assert.Contains(t, out.String(), "Best match: alice / decrypted-r1")
}

func TestList(t *testing.T) {
	fc := &fakeClient{records: sampleRecords()}
	a, out := newTestApp(t, fc, "")

	require.NoError(t, a.List(context.Background(), nil))
	assert.Contains(t, out.String(), "gitlab.com")
	assert.Contains(t, out.String(), "2024-05-01 10:00")

	fc.records = nil
	out.Reset()
	require.NoError(t, a.List(context.Background(), nil))
	assert.Contains(t, out.String(), "No entries.")
}

func TestShow(t *testing.T) {
	a, out := newTestApp(t, &fakeClient{}, "")

	require.ErrorIs(t, a.Show(context.Background(), nil), errUsage)
	require.NoError(t, a.Show(context.Background(), []string{"r1"}))
	assert.Contains(t, out.String(), "decrypted-r1")
}

func TestCaptureConfirmFlow(t *testing.T) {
	fc := &fakeClient{}
	a, out := newTestApp(t, fc, "example.com\nbob\npw1\n")
	ctx := context.Background()

	require.NoError(t, a.Capture(ctx, nil))
	require.NotNil(t, fc.pending)
	assert.Equal(t, models.PendingSaveCandidate{Site: "example.com", Username: "bob", Password: "pw1"}, *fc.pending)

	require.NoError(t, a.Pending(ctx, nil))
	assert.Contains(t, out.String(), "Pending save: example.com / bob")

	require.NoError(t, a.Confirm(ctx, nil))
	require.Len(t, fc.saved, 1)
	assert.Nil(t, fc.pending)
	assert.Contains(t, out.String(), "Saved with id id-1")

	out.Reset()
	require.NoError(t, a.Confirm(ctx, nil))
	assert.Contains(t, out.String(), "No pending save.")
}

func TestDismiss(t *testing.T) {
	fc := &fakeClient{pending: &models.PendingSaveCandidate{Site: "a"}}
	a, _ := newTestApp(t, fc, "")

	require.NoError(t, a.Dismiss(context.Background(), nil))
	assert.Nil(t, fc.pending)
}

func TestSave(t *testing.T) {
	fc := &fakeClient{}
	a, _ := newTestApp(t, fc, "site\nuser\npass\n")

	require.NoError(t, a.Save(context.Background(), nil))
	require.Len(t, fc.saved, 1)
	assert.Equal(t, "pass", fc.saved[0].Password)
}

func TestDelete(t *testing.T) {
	fc := &fakeClient{records: sampleRecords()}
	a, out := newTestApp(t, fc, "")
	ctx := context.Background()

	require.ErrorIs(t, a.Delete(ctx, nil), errUsage)
	require.NoError(t, a.Delete(ctx, []string{"r1"}))
	assert.Len(t, fc.records, 1)
	assert.Contains(t, out.String(), "Deleted.")

	require.NoError(t, a.Delete(ctx, []string{"r1"}))
	assert.Contains(t, out.String(), "No entry with id r1")
}

func TestGenerate(t *testing.T) {
	fc := &fakeClient{}
	a, out := newTestApp(t, fc, "")
	ctx := context.Background()

	require.NoError(t, a.Generate(ctx, nil))
	assert.Equal(t, 0, fc.genLen)

	require.NoError(t, a.Generate(ctx, []string{"8"}))
	assert.Equal(t, 8, fc.genLen)
	assert.Contains(t, out.String(), "xxxxxxxx")

	require.ErrorIs(t, a.Generate(ctx, []string{"abc"}), errUsage)
	require.ErrorIs(t, a.Generate(ctx, []string{"-1"}), errUsage)
}

func TestStatus_Offline(t *testing.T) {
	fc := &fakeClient{statusErr: client.ErrUnavailable}
	a, _ := newTestApp(t, fc, "")

	err := a.Status(context.Background(), nil)
	require.True(t, errors.Is(err, client.ErrUnavailable))
	assert.Equal(t, "(offline)", a.getStatus())
}

func TestStatus_Prints(t *testing.T) {
	fc := &fakeClient{status: models.LockStatus{Setup: true}}
	a, out := newTestApp(t, fc, "")

	require.NoError(t, a.Status(context.Background(), nil))
	assert.Contains(t, out.String(), "vault is locked")
}

func TestRun_ClosesClient(t *testing.T) {
	fc := &fakeClient{}
	a, out := newTestApp(t, fc, "status\nexit\n")

	a.Run(context.Background())
	assert.True(t, fc.closed)
	assert.Contains(t, out.String(), "pv (uninitialized)> ")
	assert.Contains(t, out.String(), "Bye!")
}
