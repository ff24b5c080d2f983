// Package session holds the unlocked vault's key material and enforces the
// inactivity auto-lock.
//
// Keys live in a Store that survives for the life of the session but never
// in the durable vault database. MemoryStore keeps them in memguard enclaves
// inside the daemon; FileStore keeps them in owner-only files under a
// runtime directory so a restarted daemon can resume an unlocked session.
package session

import "context"

// Store is a session-scoped byte store. Get reports ok=false for a
// missing key. Delete ignores missing keys.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}
