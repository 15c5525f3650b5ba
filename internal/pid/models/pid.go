package models

import (
	"fmt"
	"time"

	dErrors "pidstore/pkg/domain-errors"
)

// PersistentIdentifier is a DOI record as tracked locally.
//
// Invariants:
//   - Type, Value and Provider are set at construction and never change
//   - Status only changes through the lifecycle methods or SyncStatus
//   - Register is legal from new or reserved only
//   - Delete of a new record purges it; any other record becomes deleted
type PersistentIdentifier struct {
	Type       string    `json:"pid_type"`
	Value      string    `json:"pid_value"`
	Provider   string    `json:"pid_provider"`
	Status     Status    `json:"status"`
	ObjectType string    `json:"object_type,omitempty"`
	ObjectID   string    `json:"object_uuid,omitempty"`
	CreatedAt  time.Time `json:"created"`
	UpdatedAt  time.Time `json:"updated"`
}

// New creates a record in the given initial status.
func New(pidType, value, provider string, status Status, now time.Time) (*PersistentIdentifier, error) {
	if pidType == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "pid type cannot be empty")
	}
	if value == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "pid value cannot be empty")
	}
	if len(value) > 255 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "pid value must be 255 characters or less")
	}
	if !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("invalid status %q", status))
	}
	return &PersistentIdentifier{
		Type:      pidType,
		Value:     value,
		Provider:  provider,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Assign attaches the identified object. A record already assigned to a
// different object is left untouched.
func (p *PersistentIdentifier) Assign(objectType, objectID string, now time.Time) error {
	if objectType == "" || objectID == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "object type and id are required")
	}
	if p.ObjectID != "" && (p.ObjectType != objectType || p.ObjectID != objectID) {
		return dErrors.New(dErrors.CodeConflict, "pid is already assigned to another object")
	}
	p.ObjectType = objectType
	p.ObjectID = objectID
	p.UpdatedAt = now
	return nil
}

func (p *PersistentIdentifier) IsNew() bool        { return p.Status == StatusNew }
func (p *PersistentIdentifier) IsReserved() bool   { return p.Status == StatusReserved }
func (p *PersistentIdentifier) IsRegistered() bool { return p.Status == StatusRegistered }
func (p *PersistentIdentifier) IsDeleted() bool    { return p.Status == StatusDeleted }

// Register transitions a new or reserved record to registered.
func (p *PersistentIdentifier) Register(now time.Time) error {
	if p.Status != StatusNew && p.Status != StatusReserved {
		return dErrors.New(dErrors.CodeInvariantViolation,
			fmt.Sprintf("cannot register pid in status %s", p.Status))
	}
	p.Status = StatusRegistered
	p.UpdatedAt = now
	return nil
}

// Reserve transitions a new record to reserved. Reserving twice is allowed.
func (p *PersistentIdentifier) Reserve(now time.Time) error {
	if !p.Status.CanTransitionTo(StatusReserved) {
		return dErrors.New(dErrors.CodeInvariantViolation,
			fmt.Sprintf("cannot reserve pid in status %s", p.Status))
	}
	p.Status = StatusReserved
	p.UpdatedAt = now
	return nil
}

// Delete marks the record deleted. A new record was never announced
// anywhere, so it is purged instead: purge is true and the status is left
// as is for the caller to remove the record.
func (p *PersistentIdentifier) Delete(now time.Time) (purge bool, err error) {
	if p.IsNew() {
		return true, nil
	}
	if !p.Status.CanTransitionTo(StatusDeleted) {
		return false, dErrors.New(dErrors.CodeInvariantViolation,
			fmt.Sprintf("cannot delete pid in status %s", p.Status))
	}
	p.Status = StatusDeleted
	p.UpdatedAt = now
	return false, nil
}

// SyncStatus writes a status learned from the registration service. The
// remote side is authoritative, so lifecycle rules are not applied.
func (p *PersistentIdentifier) SyncStatus(status Status, now time.Time) error {
	if !status.IsValid() {
		return dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("invalid status %q", status))
	}
	if p.Status == status {
		return nil
	}
	p.Status = status
	p.UpdatedAt = now
	return nil
}

// Clone returns an independent copy.
func (p *PersistentIdentifier) Clone() *PersistentIdentifier {
	if p == nil {
		return nil
	}
	out := *p
	return &out
}
