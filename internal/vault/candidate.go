package vault

import "github.com/dmitrijs2005/passvault/internal/models"

// CaptureCandidate replaces the pending save candidate.
func (c *Controller) CaptureCandidate(candidate models.PendingSaveCandidate) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	c.pending = &candidate
}

// PeekCandidate returns a copy of the pending candidate, or nil.
func (c *Controller) PeekCandidate() *models.PendingSaveCandidate {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	if c.pending == nil {
		return nil
	}
	cp := *c.pending
	return &cp
}

// DismissCandidate clears the pending candidate.
func (c *Controller) DismissCandidate() {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	c.pending = nil
}
