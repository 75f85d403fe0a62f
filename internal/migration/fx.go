package migration

import (
	"context"

	"github.com/smallbiznis/storefront/internal/config"
	paymentmethoddomain "github.com/smallbiznis/storefront/internal/paymentmethod/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, paymentMethods paymentmethoddomain.Service, log *zap.Logger) error {
		if cfg.DBMigrate {
			if err := applySchema(conn, cfg); err != nil {
				return err
			}
			log.Info("database schema up to date", zap.String("type", cfg.DBType))
		}
		return paymentMethods.EnsureDefaults(context.Background())
	}),
)

func applySchema(conn *gorm.DB, cfg config.Config) error {
	if cfg.DBType != "postgres" {
		return AutoMigrate(conn)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB)
}
