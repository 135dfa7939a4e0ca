package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// BaseModel contains common columns for all tables
type BaseModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate will set a UUID rather than numeric ID
func (base *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if base.ID == "" {
		base.ID = uuid.New().String()
	}
	return nil
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	DSN string
}

// InitDB opens the MySQL connection and runs migrations.
func InitDB(config DatabaseConfig) (*gorm.DB, error) {
	// TranslateError lets handlers detect unique-constraint violations
	// through gorm.ErrDuplicatedKey regardless of the driver.
	db, err := gorm.Open(mysql.Open(config.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate runs the schema migration for all clinic entities.
// Kept separate from InitDB so tests can migrate their own database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Utilisateur{},
		&RefreshToken{},
		&Patient{},
		&Consultation{},
		&Examen{},
		&ResultatExamen{},
	)
}
