package model

import "time"

// Document is the metadata record for one uploaded file.
// The file bytes live in object storage under StoragePath; this struct is a
// pure domain model shared across layers with no persistence tags.
// Ownership is immutable: UserID is the uploader, forever.
type Document struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	FileSize     int64     `json:"fileSize"`
	MimeType     string    `json:"mimeType"`
	StoragePath  string    `json:"storagePath"`
	Category     string    `json:"category"`
	Subcategory  string    `json:"subcategory"`
	TaxYear      *int      `json:"taxYear"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"createdAt"`
}
