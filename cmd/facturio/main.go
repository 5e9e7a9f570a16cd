package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/facturio/facturio/internal/config"
	"github.com/facturio/facturio/internal/customer"
	"github.com/facturio/facturio/internal/document"
	"github.com/facturio/facturio/internal/logger"
	"github.com/facturio/facturio/internal/metrics"
	"github.com/facturio/facturio/internal/migration"
	"github.com/facturio/facturio/internal/product"
	"github.com/facturio/facturio/internal/server"
	"github.com/facturio/facturio/internal/supplier"
	"github.com/facturio/facturio/internal/tax"
	"github.com/facturio/facturio/pkg/db"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		metrics.Module,
		migration.Module,

		// Functional domains
		tax.Module,
		product.Module,
		customer.Module,
		supplier.Module,
		document.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
