package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/passvault/internal/models"
	"github.com/dmitrijs2005/passvault/internal/protocol"
)

type fakeClient struct {
	status    models.LockStatus
	statusErr error
	err       error

	password string
	pending  *models.PendingSaveCandidate
	saved    []models.PendingSaveCandidate
	records  []models.CredentialRecord
	degraded []string
	genLen   int
	closed   bool
}

func (f *fakeClient) Close() error { f.closed = true; return nil }

func (f *fakeClient) Status(context.Context) (models.LockStatus, error) {
	return f.status, f.statusErr
}

func (f *fakeClient) Setup(_ context.Context, pw string) error {
	if f.err != nil {
		return f.err
	}
	f.password = pw
	f.status = models.LockStatus{Setup: true, Unlocked: true}
	return nil
}

func (f *fakeClient) Unlock(_ context.Context, pw string) error {
	if f.err != nil {
		return f.err
	}
	f.password = pw
	f.status.Unlocked = true
	return nil
}

func (f *fakeClient) Lock(context.Context) error {
	f.status.Unlocked = false
	return f.err
}

func (f *fakeClient) ChangeMasterPassword(_ context.Context, _, next string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.password = next
	return f.degraded, nil
}

func (f *fakeClient) GetCredentials(_ context.Context, domain string) (protocol.CredentialsResponse, error) {
	resp := protocol.CredentialsResponse{Result: protocol.OK}
	for _, r := range f.records {
		if strings.Contains(r.Site, domain) {
			resp.Matches = append(resp.Matches, r)
		}
	}
	if len(resp.Matches) > 0 {
		resp.Username = resp.Matches[0].Username
		resp.Password = "decrypted-" + resp.Matches[0].ID
	}
	return resp, f.err
}

func (f *fakeClient) DecryptPassword(_ context.Context, id string) (string, error) {
	return "decrypted-" + id, f.err
}

func (f *fakeClient) SaveCandidate(_ context.Context, c models.PendingSaveCandidate) error {
	f.pending = &c
	return f.err
}

func (f *fakeClient) PendingSave(context.Context) (*models.PendingSaveCandidate, error) {
	return f.pending, f.err
}

func (f *fakeClient) ConfirmSave(_ context.Context, c models.PendingSaveCandidate) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved = append(f.saved, c)
	f.pending = nil
	return "id-1", nil
}

func (f *fakeClient) ClearCandidate(context.Context) error {
	f.pending = nil
	return f.err
}

func (f *fakeClient) List(context.Context) ([]models.CredentialRecord, error) {
	return f.records, f.err
}

func (f *fakeClient) Delete(_ context.Context, id string) (bool, error) {
	for i, r := range f.records {
		if r.ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return true, nil
		}
	}
	return false, f.err
}

func (f *fakeClient) GeneratePassword(_ context.Context, length int) (string, error) {
	f.genLen = length
	if length == 0 {
		length = 20
	}
	return strings.Repeat("x", length), f.err
}

// newTestApp builds an App over fc reading input. Passwords are read as
// plain lines.
func newTestApp(t *testing.T, fc *fakeClient, input string) (*App, *bytes.Buffer) {
	t.Helper()
	orig := isTerminal
	isTerminal = func(int) bool { return false }
	t.Cleanup(func() { isTerminal = orig })

	var out bytes.Buffer
	return newApp(fc, strings.NewReader(input), &out), &out
}

func sampleRecords() []models.CredentialRecord {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return []models.CredentialRecord{
		{ID: "r1", Site: "github.com", Username: "alice", CreatedAt: created},
		{ID: "r2", Site: "gitlab.com", Username: "bob", CreatedAt: created},
	}
}
