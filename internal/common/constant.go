// Package common contains shared constants, sentinel errors and small helpers
// used across passvault components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// Durable metadata keys.
const (
	MetaKeyVerification      = "verification"
	MetaKeyLocked            = "locked"
	MetaKeyAsymPublicKey     = "asym_public_key"
	MetaKeyAsymPrivateKeyEnc = "asym_private_key_encrypted"
)

// Session-scoped store keys. Both are cleared together on lock.
const (
	SessionKeyVaultKey       = "vault_key"
	SessionKeyAsymPrivateKey = "asym_private_key"
)
