// Package store persists identifier records and the results of status
// synchronization.
package store

import (
	"time"

	"pidstore/internal/pid/models"
)

// SyncRecord is the outcome of the last status synchronization of a DOI.
type SyncRecord struct {
	Value     string        `json:"pid_value"`
	Status    models.Status `json:"status,omitempty"`
	Previous  models.Status `json:"previous_status,omitempty"`
	CheckedAt time.Time     `json:"checked_at"`
	// Error is set when the remote probe failed; Status is then empty.
	Error string `json:"error,omitempty"`
}

// Succeeded reports whether the sync reached a conclusion.
func (r SyncRecord) Succeeded() bool {
	return r.Error == ""
}
