package backend

import (
	"context"
	"fmt"

	"tiledash/internal/log"
	"tiledash/internal/sheets"
	"tiledash/internal/sheets/excel"
	gsheet "tiledash/internal/sheets/google"
	"tiledash/internal/sheets/memory"
	"tiledash/internal/storage"
	"tiledash/internal/store"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Store:   repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	kv := storage.NewFromDir(dataDir, store.AllKeys)

	f.logger.InfoContext(ctx, "Initialized memory backend", "data_directory", dataDir)

	return &BackendResult{
		Store:   kv,
		Cleanup: nil,
	}, nil
}

// CreateExporter implements Factory.CreateExporter
func (f *DefaultFactory) CreateExporter(ctx context.Context, config Config) (sheets.GridWriter, error) {
	switch config.Export {
	case FileExport, "":
		dir := config.ExportDir
		if dir == "" {
			dir = "exports"
		}
		f.logger.InfoContext(ctx, "Initialized file exporter", "dir", dir)
		return &excel.FileWriter{Dir: dir}, nil
	case SheetsExport:
		cli, err := gsheet.NewWithCredentials(ctx, config.GoogleSpreadsheetID,
			config.GoogleServiceAccountJSON, config.GoogleServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized Google Sheets exporter")
		return cli, nil
	case MemoryExport:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported export type: %s", config.Export)
	}
}
