package model

import "time"

// Audit actions. The set is open-ended; these are the ones the API produces.
const (
	ActionUpload   = "upload"
	ActionView     = "view"
	ActionShare    = "share"
	ActionDownload = "download"
	ActionRevoke   = "revoke"
)

// AuditLogEntry records one action taken against one document.
// Entries are append-only: no code path updates or removes them.
type AuditLogEntry struct {
	ID              string            `json:"id"`
	DocumentID      string            `json:"documentId"`
	UserID          string            `json:"userId,omitempty"`
	Action          string            `json:"action"`
	IPAddress       string            `json:"ipAddress"`
	UserAgent       string            `json:"userAgent"`
	AccessedByEmail string            `json:"accessedByEmail,omitempty"`
	AccessedByName  string            `json:"accessedByName,omitempty"`
	Metadata        map[string]string `json:"metadata"`
	CreatedAt       time.Time         `json:"createdAt"`
}
