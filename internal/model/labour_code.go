package model

import "time"

// LabourCode maps a billable item code to its category. The registry is
// operator-maintained; the classification pipeline only reads it.
// Category is free text, historically one of "labour", "service",
// "tyre service", or a sales description.
type LabourCode struct {
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Code        string
	Description string
	Category    string
	ID          int64
	IsActive    bool
}
