package model

import "time"

// SheetTemplate is a registered PDF sheet template stored in object storage.
// This is a pure domain model with no database-specific dependencies or tags.
type SheetTemplate struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	StoragePath string    `json:"storage_path"`
	Size        int64     `json:"size"`
	FieldCount  int       `json:"field_count"`
	CreatedAt   time.Time `json:"created_at"`
}
