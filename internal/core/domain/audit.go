package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionCreateHolder     AuditAction = "CREATE_HOLDER"
	AuditActionDeactivateHolder AuditAction = "DEACTIVATE_HOLDER"
	AuditActionOpenAccount      AuditAction = "OPEN_ACCOUNT"
	AuditActionCloseAccount     AuditAction = "CLOSE_ACCOUNT"
	AuditActionBlockAccount     AuditAction = "BLOCK_ACCOUNT"
	AuditActionUnblockAccount   AuditAction = "UNBLOCK_ACCOUNT"
	AuditActionTransaction      AuditAction = "TRANSACTION"
)

// AuditLog records one successful write. Holder CPFs are stored as
// fingerprints, never in clear.
type AuditLog struct {
	ID                uuid.UUID   `json:"id"`
	Action            AuditAction `json:"action"`
	ResourceType      string      `json:"resource_type"`
	ResourceID        string      `json:"resource_id,omitempty"`
	HolderFingerprint string      `json:"holder_fingerprint,omitempty"`
	Details           string      `json:"details,omitempty"` // JSON string
	IPAddress         string      `json:"ip_address"`
	CreatedAt         time.Time   `json:"created_at"`
}
