package backend

import (
	"context"

	"tiledash/internal/sheets"
	"tiledash/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the persistence backend and optional cleanup function
type BackendResult struct {
	Store   storage.KeyValueStore
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates the key-value persistence backend
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)

	// CreateExporter creates the report export writer
	CreateExporter(ctx context.Context, config Config) (sheets.GridWriter, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory backend specific
	DataDirectory string

	// Export
	Export                   ExportType
	ExportDir                string
	GoogleSpreadsheetID      string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
}

// BackendType represents the type of persistence backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// ExportType selects where report grids are written
type ExportType string

const (
	FileExport   ExportType = "file"
	SheetsExport ExportType = "sheets"
	MemoryExport ExportType = "memory"
)

// IsValid returns true if the export type is valid
func (et ExportType) IsValid() bool {
	switch et {
	case FileExport, SheetsExport, MemoryExport:
		return true
	default:
		return false
	}
}
