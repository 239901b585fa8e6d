package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

// PromotionalCampaignModel is the persistence model for the PromotionalCampaign aggregate root.
// Collections are stored as JSON documents.
type PromotionalCampaignModel struct {
	TenantAggregateModel
	Name                string                 `gorm:"type:varchar(200);not null"`
	Description         string                 `gorm:"type:text"`
	Type                pricing.CampaignType   `gorm:"type:varchar(30);not null"`
	Status              pricing.CampaignStatus `gorm:"type:varchar(20);not null;index"`
	StartDate           time.Time              `gorm:"not null;index"`
	EndDate             time.Time              `gorm:"not null;index"`
	ApplicableTiersJSON string                 `gorm:"column:applicable_tiers;type:jsonb;not null;default:'[]'"`
	PriceModifierJSON   string                 `gorm:"column:price_modifier;type:jsonb;not null"`
	PricingRulesJSON    string                 `gorm:"column:pricing_rules;type:jsonb;not null;default:'[]'"`
	ProductIDsJSON      string                 `gorm:"column:product_ids;type:jsonb;not null;default:'[]'"`
	CategoryIDsJSON     string                 `gorm:"column:category_ids;type:jsonb;not null;default:'[]'"`
	MaxUsageCount       *int                   `gorm:"column:max_usage_count"`
	CurrentUsageCount   int                    `gorm:"column:current_usage_count;not null;default:0"`
	Code                *string                `gorm:"type:varchar(50);uniqueIndex"`
}

// TableName returns the table name for GORM
func (PromotionalCampaignModel) TableName() string {
	return "promotional_campaigns"
}

// PromotionalCampaignModelFromDomain converts a domain campaign to its persistence model
func PromotionalCampaignModelFromDomain(c *pricing.PromotionalCampaign) (*PromotionalCampaignModel, error) {
	s := c.State()
	m := &PromotionalCampaignModel{
		TenantAggregateModel: TenantAggregateModel{
			AggregateModel: newAggregateModel(s.ID, s.Version, s.CreatedAt, s.UpdatedAt),
			TenantID:       s.TenantID,
			CreatedBy:      s.CreatedBy,
		},
		Name:              s.Name,
		Description:       s.Description,
		Type:              s.Type,
		Status:            s.Status,
		StartDate:         s.StartDate,
		EndDate:           s.EndDate,
		MaxUsageCount:     s.MaxUsageCount,
		CurrentUsageCount: s.CurrentUsageCount,
	}
	if s.Code != "" {
		code := s.Code
		m.Code = &code
	}

	tiers := make([]pricing.TierType, len(s.ApplicableTiers))
	for i, t := range s.ApplicableTiers {
		tiers[i] = t.Type()
	}
	rules := make([]pricing.PricingRuleSnapshot, len(s.PricingRules))
	for i, r := range s.PricingRules {
		rules[i] = r.Snapshot()
	}

	var err error
	if m.ApplicableTiersJSON, err = encodeJSON(tiers); err != nil {
		return nil, fmt.Errorf("encode applicable tiers: %w", err)
	}
	if m.PriceModifierJSON, err = encodeJSON(s.PriceModifier.Snapshot()); err != nil {
		return nil, fmt.Errorf("encode price modifier: %w", err)
	}
	if m.PricingRulesJSON, err = encodeJSON(rules); err != nil {
		return nil, fmt.Errorf("encode pricing rules: %w", err)
	}
	if m.ProductIDsJSON, err = encodeJSON(nonNilStrings(s.ProductIDs)); err != nil {
		return nil, fmt.Errorf("encode product ids: %w", err)
	}
	if m.CategoryIDsJSON, err = encodeJSON(nonNilStrings(s.CategoryIDs)); err != nil {
		return nil, fmt.Errorf("encode category ids: %w", err)
	}
	return m, nil
}

// ToDomain converts the persistence model to a domain PromotionalCampaign.
// Unlike most models this can fail: stored modifiers and rules are revalidated.
func (m *PromotionalCampaignModel) ToDomain() (*pricing.PromotionalCampaign, error) {
	var tierTypes []pricing.TierType
	if err := decodeJSON(m.ApplicableTiersJSON, &tierTypes); err != nil {
		return nil, fmt.Errorf("campaign %s: decode applicable tiers: %w", m.ID, err)
	}
	tiers, err := pricing.TiersFromTypes(tierTypes)
	if err != nil {
		return nil, fmt.Errorf("campaign %s: %w", m.ID, err)
	}

	var modSnap pricing.PriceModifierSnapshot
	if err := decodeJSON(m.PriceModifierJSON, &modSnap); err != nil {
		return nil, fmt.Errorf("campaign %s: decode price modifier: %w", m.ID, err)
	}
	modifier, err := modSnap.ToPriceModifier()
	if err != nil {
		return nil, fmt.Errorf("campaign %s: %w", m.ID, err)
	}

	var ruleSnaps []pricing.PricingRuleSnapshot
	if err := decodeJSON(m.PricingRulesJSON, &ruleSnaps); err != nil {
		return nil, fmt.Errorf("campaign %s: decode pricing rules: %w", m.ID, err)
	}
	rules := make([]*pricing.PricingRule, 0, len(ruleSnaps))
	for _, rs := range ruleSnaps {
		rule, err := rs.ToPricingRule()
		if err != nil {
			return nil, fmt.Errorf("campaign %s: rule %s: %w", m.ID, rs.ID, err)
		}
		rules = append(rules, rule)
	}

	var productIDs, categoryIDs []string
	if err := decodeJSON(m.ProductIDsJSON, &productIDs); err != nil {
		return nil, fmt.Errorf("campaign %s: decode product ids: %w", m.ID, err)
	}
	if err := decodeJSON(m.CategoryIDsJSON, &categoryIDs); err != nil {
		return nil, fmt.Errorf("campaign %s: decode category ids: %w", m.ID, err)
	}

	state := pricing.PromotionalCampaignState{
		ID:                m.ID,
		TenantID:          m.TenantID,
		Version:           m.Version,
		Name:              m.Name,
		Description:       m.Description,
		Type:              m.Type,
		Status:            m.Status,
		StartDate:         m.StartDate,
		EndDate:           m.EndDate,
		ApplicableTiers:   tiers,
		PriceModifier:     modifier,
		PricingRules:      rules,
		ProductIDs:        productIDs,
		CategoryIDs:       categoryIDs,
		MaxUsageCount:     m.MaxUsageCount,
		CurrentUsageCount: m.CurrentUsageCount,
		CreatedBy:         m.CreatedBy,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	if m.Code != nil {
		state.Code = *m.Code
	}
	return pricing.ReconstructPromotionalCampaign(state), nil
}

// SegmentPricingConfigModel is the persistence model for SegmentPricingConfig.
// Segment configs are global; there is at most one row per tier.
type SegmentPricingConfigModel struct {
	AggregateModel
	Tier              pricing.TierType `gorm:"type:varchar(20);not null;uniqueIndex"`
	BaseMarkup        decimal.Decimal  `gorm:"type:decimal(10,4);not null"`
	MaxDiscount       decimal.Decimal  `gorm:"type:decimal(10,4);not null"`
	FloorMargin       decimal.Decimal  `gorm:"type:decimal(10,4);not null"`
	TargetMargin      decimal.Decimal  `gorm:"type:decimal(10,4);not null"`
	DefaultStrategyID string           `gorm:"type:varchar(50);not null"`
	Notes             string           `gorm:"type:text"`
	Active            bool             `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (SegmentPricingConfigModel) TableName() string {
	return "segment_pricing_configs"
}

// SegmentPricingConfigModelFromDomain converts a domain config to its persistence model
func SegmentPricingConfigModelFromDomain(c *pricing.SegmentPricingConfig) *SegmentPricingConfigModel {
	s := c.State()
	m := &SegmentPricingConfigModel{
		AggregateModel:    newAggregateModel(s.ID, s.Version, s.CreatedAt, s.UpdatedAt),
		Tier:              s.Tier,
		BaseMarkup:        s.BaseMarkup,
		MaxDiscount:       s.MaxDiscount,
		FloorMargin:       s.FloorMargin,
		TargetMargin:      s.TargetMargin,
		DefaultStrategyID: s.DefaultStrategyID,
		Notes:             s.Notes,
		Active:            s.Active,
	}
	return m
}

// ToDomain converts the persistence model to a domain SegmentPricingConfig
func (m *SegmentPricingConfigModel) ToDomain() (*pricing.SegmentPricingConfig, error) {
	return pricing.ReconstructSegmentPricingConfig(pricing.SegmentPricingConfigState{
		ID:                m.ID,
		Version:           m.Version,
		Tier:              m.Tier,
		BaseMarkup:        m.BaseMarkup,
		MaxDiscount:       m.MaxDiscount,
		FloorMargin:       m.FloorMargin,
		TargetMargin:      m.TargetMargin,
		DefaultStrategyID: m.DefaultStrategyID,
		Notes:             m.Notes,
		Active:            m.Active,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	})
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeJSON(raw string, v any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), v)
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
