package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Vault errors. Callers should match them with errors.Is.
	ErrIncorrectPassword  = errors.New("incorrect password")
	ErrVaultLocked        = errors.New("vault locked")
	ErrDecryptionFailed   = errors.New("decryption failed")
	ErrNotInitialized     = errors.New("vault not initialized")
	ErrAlreadyInitialized = errors.New("vault already initialized")

	// Transport errors.
	ErrUnknownRequest = errors.New("unknown request type")
	ErrInvalidRequest = errors.New("invalid request")
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
)
