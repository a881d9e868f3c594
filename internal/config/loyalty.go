package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// LoyaltyConfig holds the points earning and redemption rules.
type LoyaltyConfig struct {
	// Currency units of eligible spend per earned point.
	SpendPerPoint int64 `mapstructure:"spendPerPoint"`
	// Smallest redemption accepted.
	MinRedeemPoints int64 `mapstructure:"minRedeemPoints"`
	// Redemptions are rounded down to a multiple of this.
	RedeemStep int64 `mapstructure:"redeemStep"`
	// PointsPerRedeemUnit points are worth RedeemUnitValue currency units.
	PointsPerRedeemUnit int64 `mapstructure:"pointsPerRedeemUnit"`
	RedeemUnitValue     int64 `mapstructure:"redeemUnitValue"`
	// Trailing window, in months, of ledger entries counted as redeemable.
	RedeemableWindowMonths int `mapstructure:"redeemableWindowMonths"`
}

func DefaultLoyaltyConfig() LoyaltyConfig {
	return LoyaltyConfig{
		SpendPerPoint:          1000,
		MinRedeemPoints:        500,
		RedeemStep:             100,
		PointsPerRedeemUnit:    100,
		RedeemUnitValue:        1000,
		RedeemableWindowMonths: 12,
	}
}

// PointsValue converts points into currency units.
func (c LoyaltyConfig) PointsValue(points int64) int64 {
	if c.PointsPerRedeemUnit <= 0 {
		return 0
	}
	return points / c.PointsPerRedeemUnit * c.RedeemUnitValue
}

type LoyaltyConfigHolder struct {
	current atomic.Value // holds LoyaltyConfig
}

// NewStaticLoyaltyConfigHolder returns a holder that never reloads.
func NewStaticLoyaltyConfigHolder(cfg LoyaltyConfig) *LoyaltyConfigHolder {
	holder := &LoyaltyConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewLoyaltyConfigHolder() (*LoyaltyConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("loyalty")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/storefront/config")
	v.AddConfigPath("/etc/storefront")
	v.AddConfigPath(".")

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultLoyaltyConfig()
	v.SetDefault("loyalty.spendPerPoint", defaults.SpendPerPoint)
	v.SetDefault("loyalty.minRedeemPoints", defaults.MinRedeemPoints)
	v.SetDefault("loyalty.redeemStep", defaults.RedeemStep)
	v.SetDefault("loyalty.pointsPerRedeemUnit", defaults.PointsPerRedeemUnit)
	v.SetDefault("loyalty.redeemUnitValue", defaults.RedeemUnitValue)
	v.SetDefault("loyalty.redeemableWindowMonths", defaults.RedeemableWindowMonths)

	watch := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		watch = false
	}

	cfg, err := unmarshalLoyalty(v)
	if err != nil {
		return nil, err
	}
	if err := ValidateLoyaltyConfig(cfg); err != nil {
		return nil, err
	}

	holder := &LoyaltyConfigHolder{}
	holder.current.Store(cfg)

	if !watch {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := unmarshalLoyalty(v)
		if err != nil {
			log.Printf("[loyalty-config] reload failed: %v", err)
			return
		}
		if err := ValidateLoyaltyConfig(updated); err != nil {
			log.Printf("[loyalty-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[loyalty-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// unmarshalLoyalty decodes through AllSettings so keys missing from the file keep their defaults.
func unmarshalLoyalty(v *viper.Viper) (LoyaltyConfig, error) {
	var wrapper struct {
		Loyalty LoyaltyConfig `mapstructure:"loyalty"`
	}
	if err := v.Unmarshal(&wrapper); err != nil {
		return LoyaltyConfig{}, err
	}
	return wrapper.Loyalty, nil
}

func (h *LoyaltyConfigHolder) Get() LoyaltyConfig {
	return h.current.Load().(LoyaltyConfig)
}

func ValidateLoyaltyConfig(cfg LoyaltyConfig) error {
	if cfg.SpendPerPoint <= 0 {
		return errors.New("loyalty.spendPerPoint must be positive")
	}
	if cfg.RedeemStep <= 0 {
		return errors.New("loyalty.redeemStep must be positive")
	}
	if cfg.MinRedeemPoints < 0 {
		return errors.New("loyalty.minRedeemPoints cannot be negative")
	}
	if cfg.PointsPerRedeemUnit <= 0 || cfg.RedeemUnitValue <= 0 {
		return errors.New("loyalty.pointsPerRedeemUnit and loyalty.redeemUnitValue must be positive")
	}
	if cfg.RedeemableWindowMonths <= 0 {
		return errors.New("loyalty.redeemableWindowMonths must be positive")
	}
	return nil
}
