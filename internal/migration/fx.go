package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/facturio/facturio/internal/config"
	customerdomain "github.com/facturio/facturio/internal/customer/domain"
	documentdomain "github.com/facturio/facturio/internal/document/domain"
	productdomain "github.com/facturio/facturio/internal/product/domain"
	"github.com/facturio/facturio/internal/seed"
	supplierdomain "github.com/facturio/facturio/internal/supplier/domain"
	taxdomain "github.com/facturio/facturio/internal/tax/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// mysql and sqlite installs (dev mode) derive the schema from
			// the models instead of the PostgreSQL migration files.
			if err := conn.AutoMigrate(
				&taxdomain.TaxRule{},
				&taxdomain.TaxGroup{},
				&taxdomain.TaxGroupMember{},
				&productdomain.Product{},
				&customerdomain.Customer{},
				&supplierdomain.Supplier{},
				&documentdomain.Document{},
				&documentdomain.DocumentLine{},
				&documentdomain.DocumentLineTax{},
				&documentdomain.DocumentTaxLine{},
			); err != nil {
				return err
			}
		}

		return seed.EnsureDefaultTaxConfiguration(conn)
	}),
)
