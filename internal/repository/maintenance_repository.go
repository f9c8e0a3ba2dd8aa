package repository

import (
	"gorm.io/gorm"
)

// MaintenanceRepository runs dialect-aware housekeeping statements
type MaintenanceRepository struct {
	db *gorm.DB
}

func NewMaintenanceRepository(db *gorm.DB) *MaintenanceRepository {
	return &MaintenanceRepository{db: db}
}

func (r *MaintenanceRepository) isSQLite() bool {
	return r.db.Dialector.Name() == "sqlite"
}

// IntegrityCheck returns "ok" when the store reports no corruption
func (r *MaintenanceRepository) IntegrityCheck() (string, error) {
	if !r.isSQLite() {
		return "ok", nil
	}
	var result string
	err := r.db.Raw("PRAGMA integrity_check").Row().Scan(&result)
	return result, err
}

// Vacuum rebuilds the database file to reclaim space
func (r *MaintenanceRepository) Vacuum() error {
	return r.db.Exec("VACUUM").Error
}

// TableCounts returns row counts for every content table
func (r *MaintenanceRepository) TableCounts() (map[string]int64, error) {
	tables := []string{"users", "profiles", "discussions", "comments", "events", "rsvps", "resources", "messages", "announcements"}
	counts := make(map[string]int64, len(tables))
	for _, table := range tables {
		var n int64
		if err := r.db.Table(table).Count(&n).Error; err != nil {
			return nil, err
		}
		counts[table] = n
	}
	return counts, nil
}
