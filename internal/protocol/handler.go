package protocol

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/logging"
	"github.com/dmitrijs2005/passvault/internal/models"
)

// Vault is the controller surface the handler dispatches to.
type Vault interface {
	Status(ctx context.Context) (models.LockStatus, error)
	Setup(ctx context.Context, password string) error
	Unlock(ctx context.Context, password string) error
	Lock(ctx context.Context) error
	ChangeMasterPassword(ctx context.Context, oldPassword, newPassword string) (models.RotationReport, error)
	FetchMatches(ctx context.Context, domain string) (models.MatchResult, error)
	DecryptOne(ctx context.Context, env models.Envelope) (string, error)
	DecryptByID(ctx context.Context, id string) (string, error)
	CaptureCandidate(candidate models.PendingSaveCandidate)
	PeekCandidate() *models.PendingSaveCandidate
	ConfirmSave(ctx context.Context, site, username, password string) (models.CredentialRecord, error)
	DismissCandidate()
	List(ctx context.Context) ([]models.CredentialRecord, error)
	Delete(ctx context.Context, id string) (bool, error)
	GeneratePassword(length int) (string, error)
}

type Handler struct {
	vault  Vault
	logger logging.Logger
}

func NewHandler(v Vault, l logging.Logger) *Handler {
	if l == nil {
		l = logging.NopLogger{}
	}
	return &Handler{vault: v, logger: l.With("module", "protocol")}
}

// Handle executes req and returns the response value to encode. It never
// fails: errors become failed Results.
func (h *Handler) Handle(ctx context.Context, req Request) any {
	h.logger.Debug(ctx, "request", "type", req.Type)

	switch req.Type {
	case CheckLockState:
		st, err := h.vault.Status(ctx)
		if err != nil {
			return h.fail(ctx, req, err)
		}
		return LockStateResponse{Setup: st.Setup, Unlocked: st.Unlocked}

	case SetMasterPassword:
		if err := h.vault.Setup(ctx, req.Password); err != nil {
			return h.fail(ctx, req, err)
		}
		return OK

	case UnlockVault:
		if err := h.vault.Unlock(ctx, req.Password); err != nil {
			return h.fail(ctx, req, err)
		}
		return OK

	case LockVault:
		if err := h.vault.Lock(ctx); err != nil {
			return h.fail(ctx, req, err)
		}
		return OK

	case ChangeMasterPassword:
		report, err := h.vault.ChangeMasterPassword(ctx, req.OldPassword, req.NewPassword)
		if err != nil {
			return ChangePasswordResponse{Result: h.fail(ctx, req, err)}
		}
		return ChangePasswordResponse{Result: OK, Degraded: report.Degraded}

	case GetCredentials:
		res, err := h.vault.FetchMatches(ctx, req.Domain)
		if err != nil {
			return CredentialsResponse{Result: h.fail(ctx, req, err), Matches: []models.CredentialRecord{}}
		}
		// success reports whether anything matched; an empty lookup is not an error.
		matches := res.Matches
		if matches == nil {
			matches = []models.CredentialRecord{}
		}
		return CredentialsResponse{
			Result:   Result{Success: len(matches) > 0},
			Matches:  matches,
			Username: res.Username,
			Password: res.Password,
		}

	case DecryptPassword:
		var (
			password string
			err      error
		)
		switch {
		case req.EncryptedData != nil:
			password, err = h.vault.DecryptOne(ctx, *req.EncryptedData)
		case req.ID != "":
			password, err = h.vault.DecryptByID(ctx, req.ID)
		default:
			err = fmt.Errorf("%w: encryptedData or id is required", common.ErrInvalidRequest)
		}
		if err != nil {
			return PasswordResponse{Result: h.fail(ctx, req, err)}
		}
		return PasswordResponse{Result: OK, Password: password}

	case SaveCandidate:
		if req.Payload == nil {
			return h.fail(ctx, req, fmt.Errorf("%w: payload is required", common.ErrInvalidRequest))
		}
		h.vault.CaptureCandidate(*req.Payload)
		return OK

	case CheckPendingSave:
		// nil encodes as JSON null.
		return h.vault.PeekCandidate()

	case ConfirmSave:
		if req.Payload == nil {
			return SaveResponse{Result: h.fail(ctx, req, fmt.Errorf("%w: payload is required", common.ErrInvalidRequest))}
		}
		rec, err := h.vault.ConfirmSave(ctx, req.Payload.Site, req.Payload.Username, req.Payload.Password)
		if err != nil {
			return SaveResponse{Result: h.fail(ctx, req, err)}
		}
		return SaveResponse{Result: OK, ID: rec.ID}

	case ClearCandidate:
		h.vault.DismissCandidate()
		return OK

	case ListCredentials:
		records, err := h.vault.List(ctx)
		if err != nil {
			return ListResponse{Result: h.fail(ctx, req, err), Records: []models.CredentialRecord{}}
		}
		return ListResponse{Result: OK, Records: records}

	case DeleteCredential:
		if req.ID == "" {
			return DeleteResponse{Result: h.fail(ctx, req, fmt.Errorf("%w: id is required", common.ErrInvalidRequest))}
		}
		deleted, err := h.vault.Delete(ctx, req.ID)
		if err != nil {
			return DeleteResponse{Result: h.fail(ctx, req, err)}
		}
		return DeleteResponse{Result: OK, Deleted: deleted}

	case GeneratePassword:
		p, err := h.vault.GeneratePassword(req.Length)
		if err != nil {
			return PasswordResponse{Result: h.fail(ctx, req, err)}
		}
		return PasswordResponse{Result: OK, Password: p}

	default:
		return h.fail(ctx, req, fmt.Errorf("%w: %q", common.ErrUnknownRequest, req.Type))
	}
}

func (h *Handler) fail(ctx context.Context, req Request, err error) Result {
	msg := ErrorMessage(err)
	if msg == internalError {
		h.logger.Error(ctx, "request failed", "type", req.Type, "error", err)
	} else {
		h.logger.Debug(ctx, "request rejected", "type", req.Type, "error", msg)
	}
	return Failure(msg)
}

const internalError = "internal error"

var publicErrors = []error{
	common.ErrIncorrectPassword,
	common.ErrVaultLocked,
	common.ErrDecryptionFailed,
	common.ErrNotInitialized,
	common.ErrAlreadyInitialized,
	common.ErrUnknownRequest,
	common.ErrorNotFound,
}

// ErrorMessage maps err to the message sent to callers. Taxonomy errors are
// surfaced verbatim; invalid-request errors keep their detail; anything
// else is reported as an internal error.
func ErrorMessage(err error) string {
	if errors.Is(err, common.ErrInvalidRequest) {
		return err.Error()
	}
	for _, e := range publicErrors {
		if errors.Is(err, e) {
			return e.Error()
		}
	}
	return internalError
}
