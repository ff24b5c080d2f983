// Package protocol defines the request/response messages exchanged with the
// vault daemon, the dispatcher that executes them against the controller,
// and the gRPC service description that carries them.
//
// A request is a JSON object with a "type" field naming the operation and
// operation-specific fields next to it. Every request produces exactly one
// response; failures are reported in-band as {"success": false, "error": "..."}.
package protocol

import (
	"github.com/dmitrijs2005/passvault/internal/models"
)

// Request types.
const (
	CheckLockState       = "CheckLockState"
	SetMasterPassword    = "SetMasterPassword"
	UnlockVault          = "UnlockVault"
	LockVault            = "LockVault"
	ChangeMasterPassword = "ChangeMasterPassword"
	GetCredentials       = "GetCredentials"
	DecryptPassword      = "DecryptPassword"
	SaveCandidate        = "SaveCandidate"
	CheckPendingSave     = "CheckPendingSave"
	ConfirmSave          = "ConfirmSave"
	ClearCandidate       = "ClearCandidate"
	ListCredentials      = "ListCredentials"
	DeleteCredential     = "DeleteCredential"
	GeneratePassword     = "GeneratePassword"
)

// Request is the union of all request payloads. Only the fields of the
// named operation are read.
type Request struct {
	Type string `json:"type"`

	Password    string `json:"password,omitempty"`
	OldPassword string `json:"oldPassword,omitempty"`
	NewPassword string `json:"newPassword,omitempty"`

	Domain string `json:"domain,omitempty"`

	// EncryptedData is a tagged {type, payload} envelope or a bare
	// "iv:ciphertext" string.
	EncryptedData *models.Envelope `json:"encryptedData,omitempty"`

	Payload *models.PendingSaveCandidate `json:"payload,omitempty"`

	ID     string `json:"id,omitempty"`
	Length int    `json:"length,omitempty"`
}

type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type LockStateResponse struct {
	Setup    bool `json:"setup"`
	Unlocked bool `json:"unlocked"`
}

type ChangePasswordResponse struct {
	Result
	Degraded []string `json:"degraded,omitempty"`
}

type CredentialsResponse struct {
	Result
	Matches  []models.CredentialRecord `json:"matches"`
	Username string                    `json:"username,omitempty"`
	Password string                    `json:"password,omitempty"`
}

type PasswordResponse struct {
	Result
	Password string `json:"password,omitempty"`
}

type SaveResponse struct {
	Result
	ID string `json:"id,omitempty"`
}

type ListResponse struct {
	Result
	Records []models.CredentialRecord `json:"records"`
}

type DeleteResponse struct {
	Result
	Deleted bool `json:"deleted"`
}

// Failure builds a failed Result carrying msg.
func Failure(msg string) Result {
	return Result{Success: false, Error: msg}
}

// OK is the successful Result.
var OK = Result{Success: true}
