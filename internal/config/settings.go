package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// StoreSettings is the store-wide configuration shown to customers and used
// for outbound notifications. It is read once at startup and never reloaded.
type StoreSettings struct {
	SiteName      string `mapstructure:"siteName"`
	Currency      string `mapstructure:"currency"`
	ContactEmail  string `mapstructure:"contactEmail"`
	ContactPhone  string `mapstructure:"contactPhone"`
	Address       string `mapstructure:"address"`
	AdminEmail    string `mapstructure:"adminEmail"`
	OrderPrefix   string `mapstructure:"orderPrefix"`
	LowStockLevel int    `mapstructure:"lowStockLevel"`
}

func DefaultStoreSettings() StoreSettings {
	return StoreSettings{
		SiteName:      "Storefront",
		Currency:      "HKD",
		AdminEmail:    "admin@storefront.local",
		OrderPrefix:   "ORD",
		LowStockLevel: 5,
	}
}

// LoadStoreSettings reads storefront.yml from the usual locations, with
// STOREFRONT_STORE_* environment variables taking precedence.
func LoadStoreSettings() (StoreSettings, error) {
	v := viper.New()

	v.SetConfigName("storefront")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/storefront")
	v.AddConfigPath(".")

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultStoreSettings()
	v.SetDefault("store.siteName", defaults.SiteName)
	v.SetDefault("store.currency", defaults.Currency)
	v.SetDefault("store.contactEmail", defaults.ContactEmail)
	v.SetDefault("store.contactPhone", defaults.ContactPhone)
	v.SetDefault("store.address", defaults.Address)
	v.SetDefault("store.adminEmail", defaults.AdminEmail)
	v.SetDefault("store.orderPrefix", defaults.OrderPrefix)
	v.SetDefault("store.lowStockLevel", defaults.LowStockLevel)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return StoreSettings{}, err
		}
	}

	var settings StoreSettings
	if err := v.UnmarshalKey("store", &settings); err != nil {
		return StoreSettings{}, err
	}
	if err := validateStoreSettings(settings); err != nil {
		return StoreSettings{}, err
	}
	return settings, nil
}

func validateStoreSettings(s StoreSettings) error {
	if strings.TrimSpace(s.SiteName) == "" {
		return errors.New("store.siteName cannot be empty")
	}
	prefix := strings.TrimSpace(s.OrderPrefix)
	if prefix == "" {
		return errors.New("store.orderPrefix cannot be empty")
	}
	if strings.ContainsAny(prefix, " -") {
		return errors.New("store.orderPrefix must not contain spaces or dashes")
	}
	return nil
}
