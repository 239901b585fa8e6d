package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// MarginBreachHandler handles MarginFloorBreached events.
// Repeated breaches freeze dynamic pricing for the tier.
type MarginBreachHandler struct {
	governance *pricing.PricingGovernanceService
	metrics    *telemetry.PricingMetrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewMarginBreachHandler creates a new MarginBreachHandler
func NewMarginBreachHandler(governance *pricing.PricingGovernanceService, logger *zap.Logger) *MarginBreachHandler {
	return &MarginBreachHandler{
		governance: governance,
		logger:     logger,
		now:        time.Now,
	}
}

// WithMetrics sets the business metrics recorder
func (h *MarginBreachHandler) WithMetrics(metrics *telemetry.PricingMetrics) *MarginBreachHandler {
	h.metrics = metrics
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *MarginBreachHandler) EventTypes() []string {
	return []string{pricing.EventTypeMarginFloorBreached}
}

// Handle processes the MarginFloorBreached event
func (h *MarginBreachHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	evt, ok := event.(*pricing.MarginFloorBreachedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", pricing.EventTypeMarginFloorBreached),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	tier, err := pricing.NewPricingTier(evt.Tier)
	if err != nil {
		return err
	}
	if h.metrics != nil {
		h.metrics.RecordMarginBreach(ctx, string(tier.Type()))
	}

	wasFrozen := h.governance.IsDynamicPricingFrozen(tier)
	frozen := h.governance.CheckAndUpdateFreezeStatus(tier, h.now())
	if h.metrics != nil {
		h.metrics.RecordFreezeState(ctx, map[string]bool{string(tier.Type()): frozen})
	}
	if frozen && !wasFrozen {
		h.logger.Warn("Dynamic pricing frozen after repeated margin breaches",
			zap.String("tier", string(tier.Type())),
			zap.String("product_id", evt.ProductID),
		)
	}
	return nil
}

// RuleViolationHandler counts PricingRuleViolated events
type RuleViolationHandler struct {
	metrics *telemetry.PricingMetrics
	logger  *zap.Logger
}

// NewRuleViolationHandler creates a new RuleViolationHandler
func NewRuleViolationHandler(metrics *telemetry.PricingMetrics, logger *zap.Logger) *RuleViolationHandler {
	return &RuleViolationHandler{metrics: metrics, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *RuleViolationHandler) EventTypes() []string {
	return []string{pricing.EventTypePricingRuleViolated}
}

// Handle processes the PricingRuleViolated event
func (h *RuleViolationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if _, ok := event.(*pricing.PricingRuleViolatedEvent); !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", pricing.EventTypePricingRuleViolated),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}
	if h.metrics != nil {
		h.metrics.RecordStackingViolation(ctx)
	}
	return nil
}

// PricingAuditHandler writes every pricing event to the audit log
type PricingAuditHandler struct {
	logger *zap.Logger
}

// NewPricingAuditHandler creates a new PricingAuditHandler
func NewPricingAuditHandler(logger *zap.Logger) *PricingAuditHandler {
	return &PricingAuditHandler{logger: logger.Named("pricing.audit")}
}

// EventTypes returns the event types this handler is interested in
func (h *PricingAuditHandler) EventTypes() []string {
	return []string{
		pricing.EventTypePromotionalCampaignCreated,
		pricing.EventTypePromotionalCampaignStatusChanged,
		pricing.EventTypePromotionalCampaignRedeemed,
		pricing.EventTypePricingRuleViolated,
		pricing.EventTypeMarginFloorBreached,
		pricing.EventTypePriceChanged,
	}
}

// Handle logs the event with its type specific fields
func (h *PricingAuditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}

	switch evt := event.(type) {
	case *pricing.MarginFloorBreachedEvent:
		h.logger.Warn("Margin floor breached", append(fields,
			zap.String("product_id", evt.ProductID),
			zap.String("tier", string(evt.Tier)),
			zap.String("price", evt.Price.String()),
			zap.String("cost", evt.Cost.String()),
			zap.String("margin", evt.CalculatedMargin.String()),
			zap.String("floor", evt.FloorMargin.String()),
			zap.String("order_id", evt.OrderID),
		)...)
	case *pricing.PricingRuleViolatedEvent:
		h.logger.Warn("Pricing rule violated", append(fields,
			zap.String("severity", string(evt.Severity)),
			zap.String("message", evt.Message),
			zap.String("order_id", evt.OrderID),
			zap.Any("context", evt.Context),
		)...)
	case *pricing.PromotionalCampaignRedeemedEvent:
		h.logger.Info("Promotional campaign redeemed", append(fields,
			zap.String("code", evt.Code),
			zap.Int("usage_count", evt.UsageCount),
			zap.String("order_id", evt.OrderID),
		)...)
	case *pricing.PromotionalCampaignStatusChangedEvent:
		h.logger.Info("Promotional campaign status changed", append(fields,
			zap.String("from", string(evt.FromStatus)),
			zap.String("to", string(evt.ToStatus)),
		)...)
	case *pricing.PriceChangedEvent:
		h.logger.Info("Price changed", append(fields,
			zap.String("product_id", evt.ProductID),
			zap.String("old_price", evt.OldPrice.String()),
			zap.String("new_price", evt.NewPrice.String()),
			zap.String("strategy", evt.StrategyID),
		)...)
	default:
		h.logger.Info("Pricing event", fields...)
	}
	return nil
}
