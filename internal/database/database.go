// Package database provides the data access layer with support for multiple backends.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tendorai/avp/internal/config"
	"github.com/tendorai/avp/internal/models"
)

// Store defines the interface for data persistence.
type Store interface {
	// Reports. Records are written once and never updated.
	PutReport(ctx context.Context, report *models.PersistedReport) (string, error)
	GetReport(ctx context.Context, id string) (*models.ReportData, error)
	GetPDF(ctx context.Context, id string) ([]byte, error)
	GetPersisted(ctx context.Context, id string) (*models.PersistedReport, error)
	ListByVendor(ctx context.Context, vendorID string) ([]string, error)
	LatestReportByIP(ctx context.Context, ip string, since time.Time) (*models.PersistedReport, error)

	// DeleteByVendor removes a vendor's reports and mention records.
	DeleteByVendor(ctx context.Context, vendorID string) error

	// Mention scans
	InsertMentionScans(ctx context.Context, records []models.MentionScanRecord) (int, error)
	ListMentionScans(ctx context.Context, vendorID string, limit int) ([]models.MentionScanRecord, error)

	// Vendors
	UpsertVendor(ctx context.Context, v *models.Vendor) error
	GetVendor(ctx context.Context, id string) (*models.Vendor, error)
	ListVendorsByTier(ctx context.Context, tiers ...models.Tier) ([]models.Vendor, error)
	CountListed(ctx context.Context, category, city, excludeCompany string) (int, error)

	// Lifecycle
	Close() error
	Migrate() error
}

// Open returns the store selected by cfg.
func Open(cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	case "postgres":
		return NewPostgresStore(cfg.URL)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}
