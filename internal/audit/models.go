package audit

import "time"

// Actions recorded for identifier lifecycle operations.
const (
	ActionCreated    = "pid.created"
	ActionRegistered = "pid.registered"
	ActionUpdated    = "pid.updated"
	ActionDeleted    = "pid.deleted"
	ActionPurged     = "pid.purged"
	ActionSynced     = "pid.synced"
	ActionFailed     = "pid.operation_failed"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Action     string    `json:"action"`
	Operation  string    `json:"operation,omitempty"`
	PIDType    string    `json:"pid_type"`
	PIDValue   string    `json:"pid_value"`
	Provider   string    `json:"provider,omitempty"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	ClientIP   string    `json:"client_ip,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	Error      string    `json:"error,omitempty"`
}
