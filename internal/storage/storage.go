package storage

import (
	"github.com/pkg/errors"

	"github.com/OmarIbannez/clean-twitter/internal/config"
	"github.com/OmarIbannez/clean-twitter/internal/models"
)

// Journal defines the interface for the removal journal
type Journal interface {
	// RecordRemoval saves one removal attempt
	RecordRemoval(removal *models.Removal) error

	// ListRemovals retrieves the newest removal attempts, at most limit of them
	ListRemovals(limit int) ([]*models.Removal, error)

	// Enabled reports whether attempts are actually kept
	Enabled() bool

	// Close closes the storage connection
	Close() error
}

// Open returns the journal selected by the storage configuration
func Open(cfg config.StorageConfig) (Journal, error) {
	switch cfg.Type {
	case "", "none":
		return NopJournal{}, nil
	case "sqlite":
		return NewSQLiteJournal(cfg.Path)
	default:
		return nil, errors.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// NopJournal discards every removal attempt
type NopJournal struct{}

func (NopJournal) RecordRemoval(*models.Removal) error { return nil }

func (NopJournal) ListRemovals(int) ([]*models.Removal, error) { return nil, nil }

func (NopJournal) Enabled() bool { return false }

func (NopJournal) Close() error { return nil }
