package handler

import (
	"strings"
	"time"

	"pidstore/internal/pid/models"
	"pidstore/internal/pid/service"
	"pidstore/internal/pid/store"
	dErrors "pidstore/pkg/domain-errors"
)

// CreatePIDRequest reserves a DOI in the local store.
type CreatePIDRequest struct {
	DOI        string `json:"doi"`
	ObjectType string `json:"object_type,omitempty"`
	ObjectUUID string `json:"object_uuid,omitempty"`
}

func (r *CreatePIDRequest) Normalize() {
	r.DOI = strings.TrimSpace(r.DOI)
	r.ObjectType = strings.TrimSpace(r.ObjectType)
	r.ObjectUUID = strings.TrimSpace(r.ObjectUUID)
}

func (r *CreatePIDRequest) Validate() error {
	if r.DOI == "" {
		return dErrors.New(dErrors.CodeValidation, "doi is required")
	}
	return nil
}

func (r *CreatePIDRequest) toService() service.CreateRequest {
	return service.CreateRequest{Value: r.DOI, ObjectType: r.ObjectType, ObjectID: r.ObjectUUID}
}

// DepositRequest carries the landing page and the deposit XML for register
// and update.
type DepositRequest struct {
	URL      string `json:"url"`
	Metadata string `json:"metadata"`
}

func (r *DepositRequest) Normalize() {
	r.URL = strings.TrimSpace(r.URL)
}

func (r *DepositRequest) Validate() error {
	if r.URL == "" {
		return dErrors.New(dErrors.CodeValidation, "url is required")
	}
	if strings.TrimSpace(r.Metadata) == "" {
		return dErrors.New(dErrors.CodeValidation, "metadata is required")
	}
	return nil
}

func (r *DepositRequest) toService(value string) service.DepositRequest {
	return service.DepositRequest{Value: value, URL: r.URL, Metadata: []byte(r.Metadata)}
}

// PIDResponse is the wire form of a record.
type PIDResponse struct {
	PIDType    string    `json:"pid_type"`
	DOI        string    `json:"doi"`
	Provider   string    `json:"pid_provider"`
	Status     string    `json:"status"`
	ObjectType string    `json:"object_type,omitempty"`
	ObjectUUID string    `json:"object_uuid,omitempty"`
	CreatedAt  time.Time `json:"created"`
	UpdatedAt  time.Time `json:"updated"`
}

func toPIDResponse(pid *models.PersistentIdentifier) *PIDResponse {
	return &PIDResponse{
		PIDType:    pid.Type,
		DOI:        pid.Value,
		Provider:   pid.Provider,
		Status:     string(pid.Status),
		ObjectType: pid.ObjectType,
		ObjectUUID: pid.ObjectID,
		CreatedAt:  pid.CreatedAt,
		UpdatedAt:  pid.UpdatedAt,
	}
}

type DeleteResponse struct {
	DOI    string `json:"doi"`
	Status string `json:"status,omitempty"`
	Purged bool   `json:"purged"`
}

// SyncResponse reports the last status synchronization.
type SyncResponse struct {
	DOI            string    `json:"doi"`
	Status         string    `json:"status,omitempty"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	CheckedAt      time.Time `json:"checked_at"`
	Error          string    `json:"error,omitempty"`
}

func toSyncResponse(rec *store.SyncRecord) *SyncResponse {
	return &SyncResponse{
		DOI:            rec.Value,
		Status:         string(rec.Status),
		PreviousStatus: string(rec.Previous),
		CheckedAt:      rec.CheckedAt,
		Error:          rec.Error,
	}
}
