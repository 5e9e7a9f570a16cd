package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// BillingDefaults are the installation-wide document defaults: applied
// when a document is created, never consulted by the tax engine itself.
type BillingDefaults struct {
	Currency          string `mapstructure:"currency"`
	InvoiceDueDays    int    `mapstructure:"invoiceDueDays"`
	QuoteValidityDays int    `mapstructure:"quoteValidityDays"`
}

func DefaultBillingDefaults() BillingDefaults {
	return BillingDefaults{
		Currency:          "TND",
		InvoiceDueDays:    30,
		QuoteValidityDays: 30,
	}
}

// BillingDefaultsHolder exposes the current defaults and hot-reloads them
// when the config file changes.
type BillingDefaultsHolder struct {
	current atomic.Value // holds BillingDefaults
}

func NewBillingDefaultsHolder() (*BillingDefaultsHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/facturio/config") // Volume-mounted config
	v.AddConfigPath("/etc/facturio")            // System config
	v.AddConfigPath(".")                        // Current directory (dev mode)

	v.SetEnvPrefix("FACTURIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultBillingDefaults()
		v.SetDefault("billing.currency", defaults.Currency)
		v.SetDefault("billing.invoiceDueDays", defaults.InvoiceDueDays)
		v.SetDefault("billing.quoteValidityDays", defaults.QuoteValidityDays)
	}

	var cfg BillingDefaults
	if err := v.UnmarshalKey("billing", &cfg); err != nil {
		return nil, err
	}
	if err := validateBillingDefaults(cfg); err != nil {
		return nil, err
	}

	holder := &BillingDefaultsHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated BillingDefaults
		if err := v.UnmarshalKey("billing", &updated); err != nil {
			log.Printf("[billing-config] reload failed: %v", err)
			return
		}
		if err := validateBillingDefaults(updated); err != nil {
			log.Printf("[billing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[billing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *BillingDefaultsHolder) Get() BillingDefaults {
	return h.current.Load().(BillingDefaults)
}

func validateBillingDefaults(cfg BillingDefaults) error {
	if strings.TrimSpace(cfg.Currency) == "" {
		return errors.New("billing.currency cannot be empty")
	}
	if cfg.InvoiceDueDays < 0 || cfg.QuoteValidityDays < 0 {
		return errors.New("billing day offsets cannot be negative")
	}
	return nil
}
