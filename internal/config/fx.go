package config

import "go.uber.org/fx"

// Module wires application configuration and the hot-reloading billing
// defaults.
var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewBillingDefaultsHolder),
)
