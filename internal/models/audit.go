package models

import "time"

// Audit actions recorded against an asset.
const (
	ActionCreate       = "create"
	ActionUpdate       = "update"
	ActionCheckout     = "checkout"
	ActionCheckin      = "checkin"
	ActionSerialUpdate = "serial_update"
)

// Audit levels. Warn marks an entry that records an anomaly.
const (
	LevelInfo = "info"
	LevelWarn = "warn"
)

// AuditEntry represents one audit log row. Rows are never updated.
type AuditEntry struct {
	ID        int       `json:"id"`
	AssetID   int       `json:"asset_id"`
	UserID    int       `json:"user_id"`
	Action    string    `json:"action"` // create, update, checkout, checkin, serial_update
	Level     string    `json:"level"`
	Details   string    `json:"details,omitempty"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
