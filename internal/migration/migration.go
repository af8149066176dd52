package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	coupondomain "github.com/smallbiznis/storefront/internal/coupon/domain"
	discountdomain "github.com/smallbiznis/storefront/internal/discount/domain"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	shippingdomain "github.com/smallbiznis/storefront/internal/shipping/domain"
	taxdomain "github.com/smallbiznis/storefront/internal/tax/domain"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies the embedded Postgres schema. Every storefront
// table is created on startup so a fresh database is usable right away.
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

// Models lists every persisted type, in dependency order.
func Models() []any {
	return []any{
		&catalogdomain.Category{},
		&catalogdomain.Product{},
		&coupondomain.Coupon{},
		&coupondomain.Redemption{},
		&discountdomain.Discount{},
		&taxdomain.TaxRate{},
		&shippingdomain.Rate{},
		&orderdomain.Order{},
		&orderdomain.StatusEvent{},
		&orderdomain.Comment{},
	}
}

// AutoMigrate derives the schema from the models. It backs SQLite and MySQL
// deployments and tests, where the Postgres migrations do not apply.
func AutoMigrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
