package pricing

import (
	"time"

	"github.com/erp/pricing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceModifierSnapshot is the serializable form of a PriceModifier
type PriceModifierSnapshot struct {
	Type        ModifierType         `json:"type"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Value       decimal.Decimal      `json:"value"`
	Currency    valueobject.Currency `json:"currency,omitempty"`
	Priority    int                  `json:"priority"`
}

// Snapshot returns the serializable form of the modifier
func (m PriceModifier) Snapshot() PriceModifierSnapshot {
	return PriceModifierSnapshot{
		Type:        m.modifierType,
		Name:        m.name,
		Description: m.description,
		Value:       m.value,
		Currency:    m.currency,
		Priority:    m.priority,
	}
}

// ToPriceModifier validates the snapshot and rebuilds the modifier
func (s PriceModifierSnapshot) ToPriceModifier() (PriceModifier, error) {
	return NewPriceModifier(PriceModifierParams{
		Type:        s.Type,
		Name:        s.Name,
		Description: s.Description,
		Value:       s.Value,
		Currency:    s.Currency,
		Priority:    s.Priority,
	})
}

// PricingRuleSnapshot is the serializable form of a PricingRule
type PricingRuleSnapshot struct {
	ID              uuid.UUID             `json:"id"`
	Name            string                `json:"name"`
	Description     string                `json:"description,omitempty"`
	Conditions      []RuleCondition       `json:"conditions"`
	PriceModifier   PriceModifierSnapshot `json:"price_modifier"`
	ApplicableTiers []TierType            `json:"applicable_tiers"`
	Priority        int                   `json:"priority"`
	Active          bool                  `json:"active"`
	ValidFrom       time.Time             `json:"valid_from"`
	ValidTo         time.Time             `json:"valid_to"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// Snapshot returns the serializable form of the rule
func (r *PricingRule) Snapshot() PricingRuleSnapshot {
	return PricingRuleSnapshot{
		ID:              r.id,
		Name:            r.name,
		Description:     r.description,
		Conditions:      cloneConditions(r.conditions),
		PriceModifier:   r.priceModifier.Snapshot(),
		ApplicableTiers: tierTypes(r.applicableTiers),
		Priority:        r.priority,
		Active:          r.active,
		ValidFrom:       r.validFrom,
		ValidTo:         r.validTo,
		CreatedAt:       r.createdAt,
		UpdatedAt:       r.updatedAt,
	}
}

// ToPricingRule rebuilds a rule from persisted state, keeping its identity and timestamps
func (s PricingRuleSnapshot) ToPricingRule() (*PricingRule, error) {
	modifier, err := s.PriceModifier.ToPriceModifier()
	if err != nil {
		return nil, err
	}
	tiers, err := TiersFromTypes(s.ApplicableTiers)
	if err != nil {
		return nil, err
	}
	return &PricingRule{
		id:              s.ID,
		name:            s.Name,
		description:     s.Description,
		conditions:      cloneConditions(s.Conditions),
		priceModifier:   modifier,
		applicableTiers: tiers,
		priority:        s.Priority,
		active:          s.Active,
		validFrom:       s.ValidFrom,
		validTo:         s.ValidTo,
		createdAt:       s.CreatedAt,
		updatedAt:       s.UpdatedAt,
	}, nil
}

func tierTypes(tiers []PricingTier) []TierType {
	out := make([]TierType, len(tiers))
	for i, t := range tiers {
		out[i] = t.Type()
	}
	return out
}

// TiersFromTypes converts tier types into validated tiers
func TiersFromTypes(types []TierType) ([]PricingTier, error) {
	out := make([]PricingTier, 0, len(types))
	for _, t := range types {
		tier, err := NewPricingTier(t)
		if err != nil {
			return nil, err
		}
		out = append(out, tier)
	}
	return out, nil
}
