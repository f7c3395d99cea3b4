package audit

import "time"

// Actions recorded by the registry.
const (
	ActionListingCreated     = "listing.created"
	ActionListingUpdated     = "listing.updated"
	ActionListingDeleted     = "listing.deleted"
	ActionListingStatusSet   = "listing.status_set"
	ActionUserRegistered     = "user.registered"
	ActionUserRoleChanged    = "user.role_changed"
	ActionMediaUploaded      = "media.uploaded"
	ActionMediaDeleted       = "media.deleted"
	ActionAdminAccessDenied  = "admin.access_denied"
	ActionAuthTokenExchanged = "auth.token_exchanged"
)

// Event captures one key action. Keep it transport-agnostic so stores and
// sinks can fan out.
type Event struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	ActorID    string    `json:"actor_id,omitempty"`
	Subject    string    `json:"subject,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	ClientIP   string    `json:"client_ip,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
