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
	coupondomain "github.com/smallbiznis/storefront/internal/coupon/domain"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	paymentmethoddomain "github.com/smallbiznis/storefront/internal/paymentmethod/domain"
	productdomain "github.com/smallbiznis/storefront/internal/product/domain"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies the embedded PostgreSQL migrations.
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

// The row types below add the foreign keys the domain models leave out, so
// AutoMigrate creates the same constraints as the SQL migrations.

type orderRow struct {
	orderdomain.Order
	Coupon        *coupondomain.Coupon               `gorm:"foreignKey:CouponID;constraint:OnDelete:SET NULL"`
	PaymentMethod *paymentmethoddomain.PaymentMethod `gorm:"foreignKey:PaymentMethodID;constraint:OnDelete:SET NULL"`
}

type orderItemRow struct {
	orderdomain.OrderItem
	Order   *orderdomain.Order     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Product *productdomain.Product `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
}

type orderNoteRow struct {
	orderdomain.OrderNote
	Order *orderdomain.Order `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// AutoMigrate builds the schema from the gorm models. It serves the mysql and
// sqlite dialects, which the SQL migrations do not cover.
func AutoMigrate(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	return conn.AutoMigrate(
		&productdomain.Product{},
		&coupondomain.Coupon{},
		&paymentmethoddomain.PaymentMethod{},
		&orderRow{},
		&orderItemRow{},
		&orderNoteRow{},
	)
}
