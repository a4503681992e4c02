package db

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	_ "github.com/lib/pq"

	"github.com/portfel-app/portfel/internal/models"
)

// Config holds database configuration
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DB wraps the GORM database connection
type DB struct {
	*gorm.DB
}

// NewConfig creates a new database configuration from environment variables
func NewConfig() *Config {
	return &Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5433"),
		User:     getEnv("DB_USER", "portfel_user"),
		Password: getEnv("DB_PASSWORD", "portfel_password"),
		Name:     getEnv("DB_NAME", "portfel"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}
}

// Connect establishes a GORM connection to the database
func Connect(config *Config) (*DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.Name, config.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db}, nil
}

// Wrap adapts an already-open gorm connection (sqlite in tests).
func Wrap(db *gorm.DB) *DB {
	return &DB{db}
}

// Migrate creates or updates the schema for the full model set.
func Migrate(db *DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserNote{},
		&models.Session{},
		&models.IPBlock{},
		&models.Bank{},
		&models.Wallet{},
		&models.Debt{},
		&models.RecurringExpense{},
		&models.YearGoal{},
		&models.DepositAccount{},
		&models.DepositAccountBalance{},
		&models.Transaction{},
		&models.CapitalGain{},
		&models.BrokerageAccount{},
		&models.BrokerageDepositLink{},
		&models.Instrument{},
		&models.Holding{},
		&models.BrokerageEvent{},
		&models.MetalHolding{},
		&models.RealEstate{},
		&models.RealEstatePrice{},
		&models.FxMonthlySnapshot{},
		&models.DepositAccountMonthlySnapshot{},
		&models.BrokerageAccountMonthlySnapshot{},
		&models.MetalHoldingMonthlySnapshot{},
		&models.RealEstateMonthlySnapshot{},
	)
}

// LockForUpdate applies a row-level lock on dialects that support it. The
// sqlite test dialect serializes writes on its own, so the clause is skipped
// there.
func LockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health checks if the database connection is healthy
func (db *DB) Health() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// GetSQLDB returns the underlying *sql.DB for compatibility with existing code
func (db *DB) GetSQLDB() (*sql.DB, error) {
	return db.DB.DB()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
