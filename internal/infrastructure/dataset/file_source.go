package dataset

import (
	"context"
	"fmt"
	"os"

	"github.com/erp/orderstats/internal/domain/shop"
	"go.uber.org/zap"
)

// FileSource loads customers from a YAML or JSON dataset file.
// The file is re-read on every call so edits are picked up without a restart.
type FileSource struct {
	path   string
	format Format
	logger *zap.Logger
}

// NewFileSource creates a FileSource; the format is derived from the file extension.
func NewFileSource(path string, logger *zap.Logger) (*FileSource, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	return &FileSource{path: path, format: format, logger: logger}, nil
}

// Name identifies the source in logs and metrics.
func (s *FileSource) Name() string {
	return "file"
}

// LoadCustomers reads, validates and converts the dataset file.
func (s *FileSource) LoadCustomers(ctx context.Context) ([]*shop.Customer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", s.path, err)
	}
	defer f.Close()

	doc, err := Decode(f, s.format)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", s.path, err)
	}
	customers, err := doc.ToDomain()
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", s.path, err)
	}

	s.logger.Debug("Dataset loaded",
		zap.String("path", s.path),
		zap.Int("customers", len(customers)),
	)
	return customers, nil
}
