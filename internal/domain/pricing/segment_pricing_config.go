package pricing

import (
	"strings"
	"time"

	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SegmentPricingConfig is the persisted pricing configuration for one customer tier
type SegmentPricingConfig struct {
	shared.BaseAggregateRoot
	tier              PricingTier
	baseMarkup        MarkupPercentage
	maxDiscount       DiscountPercentage
	floorMargin       decimal.Decimal
	targetMargin      decimal.Decimal
	defaultStrategyID string
	notes             string
	active            bool
}

// NewDefaultSegmentPricingConfig seeds a config from the tier's fixed parameters
func NewDefaultSegmentPricingConfig(tier PricingTier, defaultStrategyID string) (*SegmentPricingConfig, error) {
	if tier.IsZero() {
		return nil, validationError("Pricing tier is required")
	}
	if strings.TrimSpace(defaultStrategyID) == "" {
		return nil, validationError("Default pricing strategy is required")
	}
	markup, err := NewMarkupPercentage(tier.BaseMarkupPercentage())
	if err != nil {
		return nil, err
	}
	discount, err := NewDiscountPercentage(tier.MaxDiscountPercentage())
	if err != nil {
		return nil, err
	}
	return &SegmentPricingConfig{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		tier:              tier,
		baseMarkup:        markup,
		maxDiscount:       discount,
		floorMargin:       tier.FloorGrossMarginPercentage(),
		targetMargin:      tier.TargetGrossMarginPercentage(),
		defaultStrategyID: defaultStrategyID,
		active:            true,
	}, nil
}

// Tier returns the configured tier
func (c *SegmentPricingConfig) Tier() PricingTier { return c.tier }

// BaseMarkup returns the markup applied to cost
func (c *SegmentPricingConfig) BaseMarkup() MarkupPercentage { return c.baseMarkup }

// MaxDiscount returns the largest discount allowed for the tier
func (c *SegmentPricingConfig) MaxDiscount() DiscountPercentage { return c.maxDiscount }

// FloorMargin returns the floor margin percentage
func (c *SegmentPricingConfig) FloorMargin() decimal.Decimal { return c.floorMargin }

// TargetMargin returns the target margin percentage
func (c *SegmentPricingConfig) TargetMargin() decimal.Decimal { return c.targetMargin }

// DefaultStrategyID returns the strategy used when none is requested
func (c *SegmentPricingConfig) DefaultStrategyID() string { return c.defaultStrategyID }

// Notes returns free-form notes
func (c *SegmentPricingConfig) Notes() string { return c.notes }

// IsActive reports whether the config may be used for quotes
func (c *SegmentPricingConfig) IsActive() bool { return c.active }

// Activate enables the config
func (c *SegmentPricingConfig) Activate() {
	c.active = true
	c.Touch()
}

// Deactivate disables the config
func (c *SegmentPricingConfig) Deactivate() {
	c.active = false
	c.Touch()
}

// UpdateDefaultStrategy changes the default strategy
func (c *SegmentPricingConfig) UpdateDefaultStrategy(strategyID string) error {
	if strings.TrimSpace(strategyID) == "" {
		return validationError("Default pricing strategy is required")
	}
	c.defaultStrategyID = strategyID
	c.Touch()
	return nil
}

// UpdateMarkup changes the base markup
func (c *SegmentPricingConfig) UpdateMarkup(markup MarkupPercentage) {
	c.baseMarkup = markup
	c.Touch()
}

// UpdateNotes replaces the notes
func (c *SegmentPricingConfig) UpdateNotes(notes string) {
	c.notes = notes
	c.Touch()
}

// SegmentPricingConfigState is the full persisted state of a SegmentPricingConfig
type SegmentPricingConfigState struct {
	ID                uuid.UUID
	Version           int
	Tier              TierType
	BaseMarkup        decimal.Decimal
	MaxDiscount       decimal.Decimal
	FloorMargin       decimal.Decimal
	TargetMargin      decimal.Decimal
	DefaultStrategyID string
	Notes             string
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// State returns the config's state for persistence
func (c *SegmentPricingConfig) State() SegmentPricingConfigState {
	return SegmentPricingConfigState{
		ID:                c.ID,
		Version:           c.Version,
		Tier:              c.tier.Type(),
		BaseMarkup:        c.baseMarkup.Value(),
		MaxDiscount:       c.maxDiscount.Value(),
		FloorMargin:       c.floorMargin,
		TargetMargin:      c.targetMargin,
		DefaultStrategyID: c.defaultStrategyID,
		Notes:             c.notes,
		Active:            c.active,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

// ReconstructSegmentPricingConfig rebuilds a config from persisted state
func ReconstructSegmentPricingConfig(s SegmentPricingConfigState) (*SegmentPricingConfig, error) {
	tier, err := NewPricingTier(s.Tier)
	if err != nil {
		return nil, err
	}
	markup, err := NewMarkupPercentage(s.BaseMarkup)
	if err != nil {
		return nil, err
	}
	discount, err := NewDiscountPercentage(s.MaxDiscount)
	if err != nil {
		return nil, err
	}
	c := &SegmentPricingConfig{
		tier:              tier,
		baseMarkup:        markup,
		maxDiscount:       discount,
		floorMargin:       s.FloorMargin,
		targetMargin:      s.TargetMargin,
		defaultStrategyID: s.DefaultStrategyID,
		notes:             s.Notes,
		active:            s.Active,
	}
	c.ID = s.ID
	c.Version = s.Version
	c.CreatedAt = s.CreatedAt
	c.UpdatedAt = s.UpdatedAt
	return c, nil
}
