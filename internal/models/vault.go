package models

// VerificationRecord is the durable proof of the current master password:
// Hash == cryptox.HashPassword(password, Salt). KDF names the function used
// to derive the master key from the same salt.
type VerificationRecord struct {
	Hash string `json:"hash"`
	Salt []byte `json:"salt"`
	KDF  string `json:"kdf,omitempty"`
}

// LockState is the process-wide vault state.
type LockState int

const (
	Uninitialized LockState = iota
	Locked
	Unlocked
)

func (s LockState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Locked:
		return "locked"
	case Unlocked:
		return "unlocked"
	default:
		return "unknown"
	}
}

// LockStatus is the CheckLockState answer.
type LockStatus struct {
	Setup    bool `json:"setup"`
	Unlocked bool `json:"unlocked"`
}

// State collapses s into a LockState.
func (s LockStatus) State() LockState {
	switch {
	case !s.Setup:
		return Uninitialized
	case s.Unlocked:
		return Unlocked
	default:
		return Locked
	}
}
