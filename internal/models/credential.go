package models

import (
	"strings"
	"time"
)

// CredentialRecord is a stored site login. ID is stable for the record's
// life; at most one record exists per (case-insensitive site, username).
type CredentialRecord struct {
	ID        string     `json:"id"`
	Site      string     `json:"site"`
	Username  string     `json:"username"`
	Envelope  Envelope   `json:"password"`
	CreatedAt time.Time  `json:"created"`
	UpdatedAt *time.Time `json:"updated,omitempty"`
}

// SameLogin reports whether r is the record for (site, username).
func (r CredentialRecord) SameLogin(site, username string) bool {
	return strings.EqualFold(r.Site, site) && r.Username == username
}

// SiteContains reports whether domain is a case-insensitive substring of r.Site.
func (r CredentialRecord) SiteContains(domain string) bool {
	return strings.Contains(strings.ToLower(r.Site), strings.ToLower(domain))
}

// PendingSaveCandidate is a login observed on a submitted form and held in
// memory until the user confirms or dismisses it.
type PendingSaveCandidate struct {
	Site     string `json:"site"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// MatchResult is the answer to an autofill lookup. Username and Password
// are set only when the vault is unlocked and the first match decrypted.
type MatchResult struct {
	Matches   []CredentialRecord
	Username  string
	Password  string
	Decrypted bool
}

// RotationReport summarizes a master password rotation.
//
// Degraded lists records whose symmetric envelope could not be decrypted
// under the old key; they stay encrypted under the old key.
type RotationReport struct {
	Rotated  int
	Skipped  int
	Degraded []string
}
