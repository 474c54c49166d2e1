package types

import "time"

// Backup records an export of a reseller's sales to a workbook.
// It is metadata only; the workbook itself is not kept in the database.
type Backup struct {
	// ID is the unique identifier of the backup record.
	ID int `json:"id" db:"id"`

	// UserID identifies the reseller who produced the export.
	UserID int `json:"user_id" db:"user_id"`

	// FileName is the generated workbook file name.
	FileName string `json:"file_name" db:"file_name"`

	// FileSize is the workbook size in bytes, when known.
	FileSize *int64 `json:"file_size" db:"file_size"`

	// SalesCount is the number of sales included at export time.
	SalesCount int `json:"sales_count" db:"sales_count"`

	// CreatedAt is the timestamp when the export was recorded.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
