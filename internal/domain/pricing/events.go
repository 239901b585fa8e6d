package pricing

import (
	"time"

	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypePromotionalCampaign = "PromotionalCampaign"
	AggregateTypePricingRule         = "PricingRule"
	AggregateTypePricing             = "Pricing"
)

// Event type constants
const (
	EventTypePromotionalCampaignCreated       = "PromotionalCampaignCreated"
	EventTypePromotionalCampaignStatusChanged = "PromotionalCampaignStatusChanged"
	EventTypePromotionalCampaignRedeemed      = "PromotionalCampaignRedeemed"
	EventTypePricingRuleViolated              = "PricingRuleViolated"
	EventTypeMarginFloorBreached              = "MarginFloorBreached"
	EventTypePriceChanged                     = "PriceChanged"
)

// ViolationSeverity grades a PricingRuleViolated event
type ViolationSeverity string

const (
	SeverityInfo    ViolationSeverity = "INFO"
	SeverityWarning ViolationSeverity = "WARNING"
	SeverityError   ViolationSeverity = "ERROR"
)

// PromotionalCampaignCreatedEvent is raised when a campaign is created
type PromotionalCampaignCreatedEvent struct {
	shared.BaseDomainEvent
	CampaignID uuid.UUID      `json:"campaign_id"`
	Name       string         `json:"name"`
	Type       CampaignType   `json:"campaign_type"`
	Status     CampaignStatus `json:"status"`
	StartDate  time.Time      `json:"start_date"`
	EndDate    time.Time      `json:"end_date"`
}

// NewPromotionalCampaignCreatedEvent creates a new PromotionalCampaignCreatedEvent
func NewPromotionalCampaignCreatedEvent(c *PromotionalCampaign) *PromotionalCampaignCreatedEvent {
	return &PromotionalCampaignCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePromotionalCampaignCreated, AggregateTypePromotionalCampaign, c.ID, c.TenantID),
		CampaignID:      c.ID,
		Name:            c.name,
		Type:            c.campaignType,
		Status:          c.status,
		StartDate:       c.startDate,
		EndDate:         c.endDate,
	}
}

// EventType returns the event type name
func (e *PromotionalCampaignCreatedEvent) EventType() string {
	return EventTypePromotionalCampaignCreated
}

// PromotionalCampaignStatusChangedEvent is raised on every lifecycle transition
type PromotionalCampaignStatusChangedEvent struct {
	shared.BaseDomainEvent
	CampaignID uuid.UUID      `json:"campaign_id"`
	FromStatus CampaignStatus `json:"from_status"`
	ToStatus   CampaignStatus `json:"to_status"`
}

// NewPromotionalCampaignStatusChangedEvent creates a new PromotionalCampaignStatusChangedEvent
func NewPromotionalCampaignStatusChangedEvent(c *PromotionalCampaign, from, to CampaignStatus) *PromotionalCampaignStatusChangedEvent {
	return &PromotionalCampaignStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePromotionalCampaignStatusChanged, AggregateTypePromotionalCampaign, c.ID, c.TenantID),
		CampaignID:      c.ID,
		FromStatus:      from,
		ToStatus:        to,
	}
}

// EventType returns the event type name
func (e *PromotionalCampaignStatusChangedEvent) EventType() string {
	return EventTypePromotionalCampaignStatusChanged
}

// PromotionalCampaignRedeemedEvent is raised after a redemption has been counted
type PromotionalCampaignRedeemedEvent struct {
	shared.BaseDomainEvent
	CampaignID uuid.UUID `json:"campaign_id"`
	Code       string    `json:"code"`
	UsageCount int       `json:"usage_count"`
	OrderID    string    `json:"order_id,omitempty"`
}

// NewPromotionalCampaignRedeemedEvent creates a new PromotionalCampaignRedeemedEvent
func NewPromotionalCampaignRedeemedEvent(c *PromotionalCampaign, usageCount int, orderID string) *PromotionalCampaignRedeemedEvent {
	return &PromotionalCampaignRedeemedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePromotionalCampaignRedeemed, AggregateTypePromotionalCampaign, c.ID, c.TenantID),
		CampaignID:      c.ID,
		Code:            c.Code(),
		UsageCount:      usageCount,
		OrderID:         orderID,
	}
}

// EventType returns the event type name
func (e *PromotionalCampaignRedeemedEvent) EventType() string {
	return EventTypePromotionalCampaignRedeemed
}

// PricingRuleViolatedEvent is raised when a pricing rule such as one-promo-per-order is broken
type PricingRuleViolatedEvent struct {
	shared.BaseDomainEvent
	RuleID    uuid.UUID         `json:"rule_id"`
	Context   map[string]any    `json:"context"`
	Message   string            `json:"message"`
	Severity  ViolationSeverity `json:"severity"`
	OrderID   string            `json:"order_id,omitempty"`
	ProductID string            `json:"product_id,omitempty"`
	UserID    string            `json:"user_id,omitempty"`
}

// PricingRuleViolation holds the arguments for NewPricingRuleViolatedEvent
type PricingRuleViolation struct {
	TenantID  uuid.UUID
	RuleID    uuid.UUID
	Context   map[string]any
	Message   string
	Severity  ViolationSeverity
	OrderID   string
	ProductID string
	UserID    string
}

// NewPricingRuleViolatedEvent creates a new PricingRuleViolatedEvent
func NewPricingRuleViolatedEvent(v PricingRuleViolation) *PricingRuleViolatedEvent {
	severity := v.Severity
	if severity == "" {
		severity = SeverityWarning
	}
	ctx := make(map[string]any, len(v.Context))
	for k, val := range v.Context {
		ctx[k] = val
	}
	return &PricingRuleViolatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePricingRuleViolated, AggregateTypePricingRule, v.RuleID, v.TenantID),
		RuleID:          v.RuleID,
		Context:         ctx,
		Message:         v.Message,
		Severity:        severity,
		OrderID:         v.OrderID,
		ProductID:       v.ProductID,
		UserID:          v.UserID,
	}
}

// EventType returns the event type name
func (e *PricingRuleViolatedEvent) EventType() string {
	return EventTypePricingRuleViolated
}

// MarginFloorBreachedEvent is raised when a price falls below its tier's margin floor
type MarginFloorBreachedEvent struct {
	shared.BaseDomainEvent
	ProductID        string          `json:"product_id"`
	Price            decimal.Decimal `json:"price"`
	Cost             decimal.Decimal `json:"cost"`
	Currency         string          `json:"currency"`
	CalculatedMargin decimal.Decimal `json:"calculated_margin"`
	FloorMargin      decimal.Decimal `json:"floor_margin"`
	Tier             TierType        `json:"tier"`
	CalculationID    uuid.UUID       `json:"calculation_id"`
	OrderID          string          `json:"order_id,omitempty"`
}

// EventType returns the event type name
func (e *MarginFloorBreachedEvent) EventType() string {
	return EventTypeMarginFloorBreached
}

// PriceChangedEvent is raised when a calculated unit price differs from the previous one
type PriceChangedEvent struct {
	shared.BaseDomainEvent
	ProductID  string          `json:"product_id"`
	OldPrice   decimal.Decimal `json:"old_price"`
	NewPrice   decimal.Decimal `json:"new_price"`
	Currency   string          `json:"currency"`
	StrategyID string          `json:"strategy_id"`
	Tier       TierType        `json:"tier"`
}

// EventType returns the event type name
func (e *PriceChangedEvent) EventType() string {
	return EventTypePriceChanged
}
