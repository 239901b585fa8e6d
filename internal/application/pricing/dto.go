package pricing

import (
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductPriceRequest asks for the price of one catalog line
type ProductPriceRequest struct {
	ProductID     string           `json:"product_id" binding:"required,max=100"`
	CategoryIDs   []string         `json:"category_ids"`
	BaseCost      decimal.Decimal  `json:"base_cost" binding:"decimal_nonnegative"`
	Currency      string           `json:"currency" binding:"omitempty,len=3,uppercase"`
	Quantity      int              `json:"quantity" binding:"required,min=1"`
	Tier          pricing.TierType `json:"tier" binding:"required,tier_type"`
	PromotionCode string           `json:"promotion_code" binding:"max=50"`
	StrategyID    string           `json:"strategy_id" binding:"max=50"`
	CustomerID    string           `json:"customer_id" binding:"max=100"`
	OrderID       string           `json:"order_id" binding:"max=100"`

	// rule evaluation facts
	CustomerSegment string `json:"customer_segment"`
	Location        string `json:"location"`
	FirstPurchase   *bool  `json:"first_purchase"`

	// dynamic markdown
	DaysRemaining       *int             `json:"days_remaining" binding:"omitempty,min=0"`
	DemandFactor        *decimal.Decimal `json:"demand_factor"`
	ProfitabilityFactor *decimal.Decimal `json:"profitability_factor"`
	ShelfLifeDays       int              `json:"shelf_life_days" binding:"min=0"`

	// subscription members buying catalog items
	SubscriptionTier pricing.SubscriptionTier `json:"subscription_tier" binding:"omitempty,oneof=BASIC PREMIUM VIP"`

	// negotiated unit prices keyed by product ID, in the request currency
	NegotiatedPrices  map[string]decimal.Decimal `json:"negotiated_prices"`
	PreviousUnitPrice *decimal.Decimal           `json:"previous_unit_price"`

	// caller supplied adjustments, applied after pricing rules
	Modifiers []PriceModifierRequest `json:"modifiers" binding:"omitempty,max=10,dive"`
}

// ProductPriceResponse is the priced line
type ProductPriceResponse struct {
	CalculationID        uuid.UUID        `json:"calculation_id"`
	ProductID            string           `json:"product_id"`
	Tier                 pricing.TierType `json:"tier"`
	StrategyID           string           `json:"strategy_id"`
	Currency             string           `json:"currency"`
	Quantity             int              `json:"quantity"`
	UnitPrice            decimal.Decimal  `json:"unit_price"`
	BaseUnitPrice        decimal.Decimal  `json:"base_unit_price"`
	TotalPrice           decimal.Decimal  `json:"total_price"`
	DiscountAmount       decimal.Decimal  `json:"discount_amount"`
	DiscountPercentage   decimal.Decimal  `json:"discount_percentage"`
	AppliedPromotions    []string         `json:"applied_promotions"`
	PromotionCode        string           `json:"promotion_code,omitempty"`
	Notes                []string         `json:"notes,omitempty"`
	DynamicPricingFrozen bool             `json:"dynamic_pricing_frozen"`
}

// SubscriptionPriceRequest asks for a subscription plan's recurring fee
type SubscriptionPriceRequest struct {
	PlanID           string                   `json:"plan_id" binding:"required,max=100"`
	SubscriptionTier pricing.SubscriptionTier `json:"subscription_tier" binding:"required,oneof=BASIC PREMIUM VIP"`
	BaseCost         decimal.Decimal          `json:"base_cost" binding:"decimal_nonnegative"`
	Currency         string                   `json:"currency" binding:"omitempty,len=3,uppercase"`
	Tier             pricing.TierType         `json:"tier" binding:"required,tier_type"`
}

// BulkPriceResult is one entry of a bulk quotation; exactly one of Price and Error is set
type BulkPriceResult struct {
	Index     int                   `json:"index"`
	ProductID string                `json:"product_id"`
	Price     *ProductPriceResponse `json:"price,omitempty"`
	Error     string                `json:"error,omitempty"`
	ErrorCode string                `json:"error_code,omitempty"`
}

// OrderLineItem is an already priced order line
type OrderLineItem struct {
	ProductID string          `json:"product_id" binding:"required"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Currency  string          `json:"currency" binding:"omitempty,len=3,uppercase"`
}

// OrderTotalRequest asks for an order total with at most one promotion code
type OrderTotalRequest struct {
	OrderID        string           `json:"order_id" binding:"max=100"`
	Tier           pricing.TierType `json:"tier" binding:"required,tier_type"`
	Currency       string           `json:"currency" binding:"omitempty,len=3,uppercase"`
	LineItems      []OrderLineItem  `json:"line_items" binding:"dive"`
	PromotionCodes []string         `json:"promotion_codes"`
}

// AppliedPromotion describes the campaign redeemed by a quotation
type AppliedPromotion struct {
	CampaignID    uuid.UUID            `json:"campaign_id"`
	Code          string               `json:"code"`
	Name          string               `json:"name"`
	DiscountType  pricing.ModifierType `json:"discount_type"`
	DiscountValue decimal.Decimal      `json:"discount_value"`
	UsageCount    int                  `json:"usage_count"`
}

// OrderTotalResponse is the order total after promotion
type OrderTotalResponse struct {
	OrderID          string            `json:"order_id,omitempty"`
	Currency         string            `json:"currency"`
	Subtotal         decimal.Decimal   `json:"subtotal"`
	Discount         decimal.Decimal   `json:"discount"`
	Total            decimal.Decimal   `json:"total"`
	AppliedPromotion *AppliedPromotion `json:"applied_promotion,omitempty"`
}

// PromotionPreview is a redeemable promotion for a product and tier
type PromotionPreview struct {
	Code          string               `json:"code"`
	Name          string               `json:"name"`
	Description   string               `json:"description"`
	DiscountType  pricing.ModifierType `json:"discount_type"`
	DiscountValue string               `json:"discount_value"`
	EndDate       time.Time            `json:"end_date"`
	Recommended   bool                 `json:"recommended"`
}

// PriceModifierRequest describes a price modifier
type PriceModifierRequest struct {
	Type        pricing.ModifierType `json:"type" binding:"required,oneof=PERCENTAGE_DISCOUNT FIXED_DISCOUNT PERCENTAGE_SURCHARGE FIXED_SURCHARGE"`
	Name        string               `json:"name" binding:"required,max=100"`
	Description string               `json:"description" binding:"max=500"`
	Value       decimal.Decimal      `json:"value" binding:"decimal_positive"`
	Currency    string               `json:"currency" binding:"omitempty,len=3,uppercase"`
	Priority    int                  `json:"priority"`
}

// RuleConditionRequest describes one pricing rule condition
type RuleConditionRequest struct {
	Type     pricing.RuleConditionType `json:"type" binding:"required"`
	Operator pricing.ConditionOperator `json:"operator"`
	Values   []string                  `json:"values" binding:"required,min=1"`
}

// PricingRuleRequest describes a pricing rule attached to a campaign
type PricingRuleRequest struct {
	Name        string                 `json:"name" binding:"required,max=100"`
	Description string                 `json:"description" binding:"max=500"`
	Conditions  []RuleConditionRequest `json:"conditions" binding:"required,min=1,dive"`
	Priority    int                    `json:"priority"`
}

// CreateCampaignRequest creates a promotional campaign in DRAFT
type CreateCampaignRequest struct {
	Name            string               `json:"name" binding:"required,max=200"`
	Description     string               `json:"description" binding:"max=2000"`
	Type            pricing.CampaignType `json:"type" binding:"required"`
	StartDate       time.Time            `json:"start_date" binding:"required"`
	EndDate         time.Time            `json:"end_date" binding:"required"`
	ApplicableTiers []pricing.TierType   `json:"applicable_tiers" binding:"required,min=1,dive,tier_type"`
	Modifier        PriceModifierRequest `json:"modifier" binding:"required"`
	Rules           []PricingRuleRequest `json:"rules" binding:"dive"`
	ProductIDs      []string             `json:"product_ids"`
	CategoryIDs     []string             `json:"category_ids"`
	MaxUsageCount   *int                 `json:"max_usage_count" binding:"omitempty,min=1"`
	Code            string               `json:"code" binding:"max=50"`
}

// CampaignResponse is a promotional campaign in API responses
type CampaignResponse struct {
	ID                uuid.UUID                     `json:"id"`
	TenantID          uuid.UUID                     `json:"tenant_id"`
	Name              string                        `json:"name"`
	Description       string                        `json:"description"`
	Type              pricing.CampaignType          `json:"type"`
	Status            pricing.CampaignStatus        `json:"status"`
	StartDate         time.Time                     `json:"start_date"`
	EndDate           time.Time                     `json:"end_date"`
	ApplicableTiers   []pricing.TierType            `json:"applicable_tiers"`
	Modifier          pricing.PriceModifierSnapshot `json:"modifier"`
	RuleCount         int                           `json:"rule_count"`
	ProductIDs        []string                      `json:"product_ids"`
	CategoryIDs       []string                      `json:"category_ids"`
	MaxUsageCount     *int                          `json:"max_usage_count,omitempty"`
	CurrentUsageCount int                           `json:"current_usage_count"`
	Code              string                        `json:"code,omitempty"`
	CreatedBy         *uuid.UUID                    `json:"created_by,omitempty"`
	CreatedAt         time.Time                     `json:"created_at"`
	UpdatedAt         time.Time                     `json:"updated_at"`
	Version           int                           `json:"version"`
}

// ToCampaignResponse converts a campaign to its response DTO
func ToCampaignResponse(c *pricing.PromotionalCampaign) CampaignResponse {
	tiers := make([]pricing.TierType, 0, len(c.ApplicableTiers()))
	for _, t := range c.ApplicableTiers() {
		tiers = append(tiers, t.Type())
	}
	return CampaignResponse{
		ID:                c.ID,
		TenantID:          c.TenantID,
		Name:              c.Name(),
		Description:       c.Description(),
		Type:              c.Type(),
		Status:            c.Status(),
		StartDate:         c.StartDate(),
		EndDate:           c.EndDate(),
		ApplicableTiers:   tiers,
		Modifier:          c.PriceModifier().Snapshot(),
		RuleCount:         len(c.PricingRules()),
		ProductIDs:        c.ProductIDs(),
		CategoryIDs:       c.CategoryIDs(),
		MaxUsageCount:     c.MaxUsageCount(),
		CurrentUsageCount: c.CurrentUsageCount(),
		Code:              c.Code(),
		CreatedBy:         c.CreatedBy(),
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
		Version:           c.Version,
	}
}

// ToCampaignResponses converts a slice of campaigns
func ToCampaignResponses(campaigns []*pricing.PromotionalCampaign) []CampaignResponse {
	out := make([]CampaignResponse, len(campaigns))
	for i, c := range campaigns {
		out[i] = ToCampaignResponse(c)
	}
	return out
}
