package pricing

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RuleConditionType identifies which context value a condition inspects
type RuleConditionType string

const (
	ConditionCustomerSegment RuleConditionType = "CUSTOMER_SEGMENT"
	ConditionProductCategory RuleConditionType = "PRODUCT_CATEGORY"
	ConditionMinimumQuantity RuleConditionType = "MINIMUM_QUANTITY"
	ConditionMinimumSpend    RuleConditionType = "MINIMUM_SPEND"
	ConditionTimeBased       RuleConditionType = "TIME_BASED"
	ConditionBundle          RuleConditionType = "BUNDLE"
	ConditionLocation        RuleConditionType = "LOCATION"
	ConditionFirstPurchase   RuleConditionType = "FIRST_PURCHASE"
)

// IsValid checks if the condition type is known
func (t RuleConditionType) IsValid() bool {
	switch t {
	case ConditionCustomerSegment, ConditionProductCategory, ConditionMinimumQuantity, ConditionMinimumSpend,
		ConditionTimeBased, ConditionBundle, ConditionLocation, ConditionFirstPurchase:
		return true
	}
	return false
}

// ConditionOperator is the comparison applied between context and condition values
type ConditionOperator string

const (
	OperatorEquals         ConditionOperator = "EQUALS"
	OperatorNotEquals      ConditionOperator = "NOT_EQUALS"
	OperatorGreaterThan    ConditionOperator = "GREATER_THAN"
	OperatorGreaterOrEqual ConditionOperator = "GREATER_OR_EQUAL"
	OperatorLessThan       ConditionOperator = "LESS_THAN"
	OperatorContains       ConditionOperator = "CONTAINS"
	OperatorNotContains    ConditionOperator = "NOT_CONTAINS"
)

// RuleCondition is a single predicate over the evaluation context
type RuleCondition struct {
	Type     RuleConditionType `json:"type"`
	Operator ConditionOperator `json:"operator,omitempty"`
	Values   []string          `json:"values"`
}

// NewRuleCondition builds a condition; an empty operator means EQUALS
func NewRuleCondition(conditionType RuleConditionType, operator ConditionOperator, values ...string) RuleCondition {
	return RuleCondition{
		Type:     conditionType,
		Operator: operator,
		Values:   slices.Clone(values),
	}
}

func (c RuleCondition) validate() error {
	if !c.Type.IsValid() {
		return validationError("Invalid rule condition type: %s", c.Type)
	}
	if len(c.Values) == 0 {
		return validationError("Rule condition %s requires a value", c.Type)
	}
	return nil
}

// evaluate reports whether the condition holds; an absent context value never matches
func (c RuleCondition) evaluate(ctx RuleContext) bool {
	actual, ok := ctx.lookup(c.Type)
	if !ok || len(actual) == 0 {
		return false
	}

	switch c.Operator {
	case OperatorNotEquals:
		return !scalarEquals(actual[0], c.Values[0])
	case OperatorGreaterThan:
		return compareNumeric(actual[0], c.Values[0], func(a, b decimal.Decimal) bool { return a.GreaterThan(b) })
	case OperatorGreaterOrEqual:
		return compareNumeric(actual[0], c.Values[0], func(a, b decimal.Decimal) bool { return a.GreaterThanOrEqual(b) })
	case OperatorLessThan:
		return compareNumeric(actual[0], c.Values[0], func(a, b decimal.Decimal) bool { return a.LessThan(b) })
	case OperatorContains:
		return containsAny(actual, c.Values)
	case OperatorNotContains:
		return !containsAny(actual, c.Values)
	default:
		return scalarEquals(actual[0], c.Values[0])
	}
}

func scalarEquals(a, b string) bool {
	da, errA := decimal.NewFromString(a)
	db, errB := decimal.NewFromString(b)
	if errA == nil && errB == nil {
		return da.Equal(db)
	}
	return a == b
}

func compareNumeric(a, b string, cmp func(a, b decimal.Decimal) bool) bool {
	da, err := decimal.NewFromString(a)
	if err != nil {
		return false
	}
	db, err := decimal.NewFromString(b)
	if err != nil {
		return false
	}
	return cmp(da, db)
}

func containsAny(haystack, needles []string) bool {
	for _, n := range needles {
		if slices.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// RuleContext carries the facts a PricingRule is evaluated against.
// Zero values mean "not provided".
type RuleContext struct {
	Tier             PricingTier
	Quantity         int
	Spend            decimal.Decimal
	CustomerSegment  string
	CategoryIDs      []string
	BundleProductIDs []string
	Location         string
	FirstPurchase    *bool
	At               time.Time
}

func (c RuleContext) evaluationTime() time.Time {
	if c.At.IsZero() {
		return time.Now()
	}
	return c.At
}

func (c RuleContext) lookup(t RuleConditionType) ([]string, bool) {
	switch t {
	case ConditionCustomerSegment:
		return []string{c.CustomerSegment}, c.CustomerSegment != ""
	case ConditionProductCategory:
		return c.CategoryIDs, len(c.CategoryIDs) > 0
	case ConditionMinimumQuantity:
		return []string{decimal.NewFromInt(int64(c.Quantity)).String()}, c.Quantity > 0
	case ConditionMinimumSpend:
		return []string{c.Spend.String()}, c.Spend.IsPositive()
	case ConditionTimeBased:
		// hour of day, 0-23
		return []string{decimal.NewFromInt(int64(c.evaluationTime().Hour())).String()}, true
	case ConditionBundle:
		return c.BundleProductIDs, len(c.BundleProductIDs) > 0
	case ConditionLocation:
		return []string{c.Location}, c.Location != ""
	case ConditionFirstPurchase:
		if c.FirstPurchase == nil {
			return nil, false
		}
		if *c.FirstPurchase {
			return []string{"true"}, true
		}
		return []string{"false"}, true
	}
	return nil, false
}

// PricingRule binds applicability conditions, a price modifier, applicable tiers and a validity window
type PricingRule struct {
	id              uuid.UUID
	name            string
	description     string
	conditions      []RuleCondition
	priceModifier   PriceModifier
	applicableTiers []PricingTier
	priority        int
	active          bool
	validFrom       time.Time
	validTo         time.Time
	createdAt       time.Time
	updatedAt       time.Time
}

// PricingRuleParams holds the arguments for NewPricingRule
type PricingRuleParams struct {
	Name            string
	Description     string
	Conditions      []RuleCondition
	PriceModifier   PriceModifier
	ApplicableTiers []PricingTier
	Priority        int
	ValidFrom       time.Time
	ValidTo         time.Time
}

// NewPricingRule validates and creates an active PricingRule
func NewPricingRule(p PricingRuleParams) (*PricingRule, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, validationError("Pricing rule name is required")
	}
	if len(p.Conditions) == 0 {
		return nil, validationError("Pricing rule must have at least one condition")
	}
	for _, c := range p.Conditions {
		if err := c.validate(); err != nil {
			return nil, err
		}
	}
	if p.PriceModifier.IsZero() {
		return nil, validationError("Pricing rule requires a price modifier")
	}
	if len(p.ApplicableTiers) == 0 {
		return nil, validationError("Pricing rule must apply to at least one pricing tier")
	}
	if !p.ValidFrom.Before(p.ValidTo) {
		return nil, validationError("Pricing rule validFrom must be before validTo")
	}

	now := time.Now()
	return &PricingRule{
		id:              uuid.New(),
		name:            strings.TrimSpace(p.Name),
		description:     p.Description,
		conditions:      cloneConditions(p.Conditions),
		priceModifier:   p.PriceModifier,
		applicableTiers: slices.Clone(p.ApplicableTiers),
		priority:        p.Priority,
		active:          true,
		validFrom:       p.ValidFrom,
		validTo:         p.ValidTo,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

func cloneConditions(in []RuleCondition) []RuleCondition {
	out := make([]RuleCondition, len(in))
	for i, c := range in {
		out[i] = NewRuleCondition(c.Type, c.Operator, c.Values...)
	}
	return out
}

// ID returns the rule identifier
func (r *PricingRule) ID() uuid.UUID { return r.id }

// Name returns the rule name
func (r *PricingRule) Name() string { return r.name }

// Description returns the rule description
func (r *PricingRule) Description() string { return r.description }

// Conditions returns a copy of the rule's conditions
func (r *PricingRule) Conditions() []RuleCondition { return cloneConditions(r.conditions) }

// PriceModifier returns the rule's modifier
func (r *PricingRule) PriceModifier() PriceModifier { return r.priceModifier }

// ApplicableTiers returns a copy of the tiers the rule applies to
func (r *PricingRule) ApplicableTiers() []PricingTier { return slices.Clone(r.applicableTiers) }

// Priority returns the rule priority; lower values apply first
func (r *PricingRule) Priority() int { return r.priority }

// IsActive returns the rule's active flag
func (r *PricingRule) IsActive() bool { return r.active }

// ValidFrom returns the start of the validity window
func (r *PricingRule) ValidFrom() time.Time { return r.validFrom }

// ValidTo returns the end of the validity window
func (r *PricingRule) ValidTo() time.Time { return r.validTo }

// CreatedAt returns the creation time
func (r *PricingRule) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last modification time
func (r *PricingRule) UpdatedAt() time.Time { return r.updatedAt }

// IsApplicableToTier reports whether the tier is one of the rule's tiers
func (r *PricingRule) IsApplicableToTier(tier PricingTier) bool {
	return slices.ContainsFunc(r.applicableTiers, tier.Equals)
}

// IsCurrentlyActive reports whether the rule is active and now is within [validFrom, validTo]
func (r *PricingRule) IsCurrentlyActive(now time.Time) bool {
	return r.active && !now.Before(r.validFrom) && !now.After(r.validTo)
}

// MatchesConditions reports whether every condition holds for the context
func (r *PricingRule) MatchesConditions(ctx RuleContext) bool {
	for _, c := range r.conditions {
		if !c.evaluate(ctx) {
			return false
		}
	}
	return true
}

// IsSatisfiedBy reports whether the rule applies to the context.
// Inactive rules and rules outside their window never match.
func (r *PricingRule) IsSatisfiedBy(ctx RuleContext) bool {
	if !r.IsCurrentlyActive(ctx.evaluationTime()) {
		return false
	}
	if ctx.Tier.IsZero() || !r.IsApplicableToTier(ctx.Tier) {
		return false
	}
	return r.MatchesConditions(ctx)
}

// Activate enables the rule
func (r *PricingRule) Activate() {
	r.active = true
	r.updatedAt = time.Now()
}

// Deactivate disables the rule
func (r *PricingRule) Deactivate() {
	r.active = false
	r.updatedAt = time.Now()
}

// UpdateDateRange changes the validity window
func (r *PricingRule) UpdateDateRange(from, to time.Time) error {
	if !from.Before(to) {
		return validationError("Pricing rule validFrom must be before validTo")
	}
	r.validFrom = from
	r.validTo = to
	r.updatedAt = time.Now()
	return nil
}

// UpdatePriority changes the application order
func (r *PricingRule) UpdatePriority(priority int) {
	r.priority = priority
	r.updatedAt = time.Now()
}

// clone returns a deep copy
func (r *PricingRule) clone() *PricingRule {
	c := *r
	c.conditions = cloneConditions(r.conditions)
	c.applicableTiers = slices.Clone(r.applicableTiers)
	return &c
}
