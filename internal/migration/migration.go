package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	auditdomain "github.com/smallbiznis/storefront/internal/audit/domain"
	customerdomain "github.com/smallbiznis/storefront/internal/customer/domain"
	loyaltydomain "github.com/smallbiznis/storefront/internal/loyalty/domain"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	pricewindowdomain "github.com/smallbiznis/storefront/internal/pricewindow/domain"
	productdomain "github.com/smallbiznis/storefront/internal/product/domain"
	"gorm.io/gorm"
)

// RunMigrations applies the embedded postgres migrations.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// Models lists every table owned by the service, parents first.
func Models() []any {
	return []any{
		&productdomain.Product{},
		&customerdomain.Customer{},
		&pricewindowdomain.PriceWindow{},
		&pricewindowdomain.PriceWindowItem{},
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
		&loyaltydomain.LedgerEntry{},
		&auditdomain.AuditLog{},
	}
}

// AutoMigrate builds the schema from the gorm models. Used for sqlite, where the
// postgres migration driver does not apply.
func AutoMigrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
