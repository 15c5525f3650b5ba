package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"pidstore/internal/pid/models"
	"pidstore/internal/pid/store"
)

type pidView struct {
	DOI        string    `yaml:"doi" json:"doi"`
	Status     string    `yaml:"status" json:"status"`
	Provider   string    `yaml:"provider,omitempty" json:"provider,omitempty"`
	ObjectType string    `yaml:"object_type,omitempty" json:"object_type,omitempty"`
	ObjectUUID string    `yaml:"object_uuid,omitempty" json:"object_uuid,omitempty"`
	Updated    time.Time `yaml:"updated,omitempty" json:"updated,omitzero"`
	Purged     bool      `yaml:"purged,omitempty" json:"purged,omitempty"`
}

func viewOf(pid *models.PersistentIdentifier) pidView {
	return pidView{
		DOI:        pid.Value,
		Status:     string(pid.Status),
		Provider:   pid.Provider,
		ObjectType: pid.ObjectType,
		ObjectUUID: pid.ObjectID,
		Updated:    pid.UpdatedAt,
	}
}

type syncView struct {
	DOI       string    `yaml:"doi" json:"doi"`
	Status    string    `yaml:"status,omitempty" json:"status,omitempty"`
	Previous  string    `yaml:"previous_status,omitempty" json:"previous_status,omitempty"`
	CheckedAt time.Time `yaml:"checked_at" json:"checked_at"`
	Error     string    `yaml:"error,omitempty" json:"error,omitempty"`
}

func syncViewOf(rec *store.SyncRecord) syncView {
	return syncView{
		DOI:       rec.Value,
		Status:    string(rec.Status),
		Previous:  string(rec.Previous),
		CheckedAt: rec.CheckedAt,
		Error:     rec.Error,
	}
}

// tokenView is printed once; only Hash goes into server.admin_token_hash.
type tokenView struct {
	Token string `yaml:"token" json:"token"`
	Hash  string `yaml:"hash" json:"hash"`
}

func render(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q (want yaml or json)", format)
	}
}
