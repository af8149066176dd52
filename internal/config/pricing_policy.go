package config

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/smallbiznis/storefront/internal/pricing/engine"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// PricingPolicy is the store-independent pricing configuration read from pricing.yml.
type PricingPolicy struct {
	CascadeToSubcategories bool   `mapstructure:"cascade_to_subcategories"`
	TaxBase                string `mapstructure:"tax_base"`
	SnapshotTTLSeconds     int    `mapstructure:"snapshot_ttl_seconds"`
}

func DefaultPricingPolicy() PricingPolicy {
	return PricingPolicy{
		CascadeToSubcategories: false,
		TaxBase:                string(engine.TaxBasePostDiscount),
		SnapshotTTLSeconds:     30,
	}
}

// EnginePolicy converts the file representation into engine switches.
func (p PricingPolicy) EnginePolicy() engine.Policy {
	return engine.Policy{
		CascadeToSubcategories: p.CascadeToSubcategories,
		TaxBase:                engine.TaxBase(strings.ToLower(strings.TrimSpace(p.TaxBase))),
	}
}

// SnapshotTTL is how long a store's rule snapshot may be served from memory. Zero disables caching.
func (p PricingPolicy) SnapshotTTL() time.Duration {
	return time.Duration(p.SnapshotTTLSeconds) * time.Second
}

type PricingPolicyHolder struct {
	current atomic.Value // holds PricingPolicy
}

// NewStaticPricingPolicyHolder returns a holder that never reloads.
func NewStaticPricingPolicyHolder(policy PricingPolicy) *PricingPolicyHolder {
	holder := &PricingPolicyHolder{}
	holder.current.Store(policy)
	return holder
}

// NewPricingPolicyHolder reads pricing.yml from the usual config paths and
// keeps it current while the file changes.
func NewPricingPolicyHolder(log *zap.Logger) (*PricingPolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/storefront/config")
	v.AddConfigPath("/etc/storefront")
	v.AddConfigPath(".")

	return loadPricingPolicy(v, log)
}

// NewPricingPolicyHolderFromFile is NewPricingPolicyHolder for an explicit path.
func NewPricingPolicyHolderFromFile(path string, log *zap.Logger) (*PricingPolicyHolder, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return loadPricingPolicy(v, log)
}

func loadPricingPolicy(v *viper.Viper, log *zap.Logger) (*PricingPolicyHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("config.pricing")

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultPricingPolicy()
	v.SetDefault("pricing.cascade_to_subcategories", defaults.CascadeToSubcategories)
	v.SetDefault("pricing.tax_base", defaults.TaxBase)
	v.SetDefault("pricing.snapshot_ttl_seconds", defaults.SnapshotTTLSeconds)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileFound = false
		log.Info("pricing.yml not found, using defaults")
	}

	policy, err := decodePricingPolicy(v)
	if err != nil {
		return nil, err
	}

	holder := &PricingPolicyHolder{}
	holder.current.Store(policy)

	if fileFound {
		v.OnConfigChange(func(e fsnotify.Event) {
			updated, err := decodePricingPolicy(v)
			if err != nil {
				log.Warn("invalid pricing policy ignored", zap.String("file", e.Name), zap.Error(err))
				return
			}
			holder.current.Store(updated)
			log.Info("pricing policy reloaded",
				zap.String("file", e.Name),
				zap.Bool("cascade_to_subcategories", updated.CascadeToSubcategories),
				zap.String("tax_base", updated.TaxBase),
			)
		})
		v.WatchConfig()
	}

	return holder, nil
}

func (h *PricingPolicyHolder) Get() PricingPolicy {
	return h.current.Load().(PricingPolicy)
}

func decodePricingPolicy(v *viper.Viper) (PricingPolicy, error) {
	var policy PricingPolicy
	if err := v.UnmarshalKey("pricing", &policy); err != nil {
		return PricingPolicy{}, err
	}
	policy.TaxBase = strings.ToLower(strings.TrimSpace(policy.TaxBase))
	if policy.TaxBase == "" {
		policy.TaxBase = string(engine.TaxBasePostDiscount)
	}
	if err := validatePricingPolicy(policy); err != nil {
		return PricingPolicy{}, err
	}
	return policy, nil
}

func validatePricingPolicy(policy PricingPolicy) error {
	switch engine.TaxBase(policy.TaxBase) {
	case engine.TaxBasePostDiscount, engine.TaxBasePreDiscount:
	default:
		return errors.New("pricing.tax_base must be post_discount or pre_discount")
	}
	if policy.SnapshotTTLSeconds < 0 {
		return errors.New("pricing.snapshot_ttl_seconds cannot be negative")
	}
	return nil
}
