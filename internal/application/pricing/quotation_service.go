package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/domain/shared/valueobject"
	"github.com/erp/pricing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Quotation operation names used for spans and metrics
const (
	OperationProductPrice      = "product_price"
	OperationSubscriptionPrice = "subscription_price"
	OperationBulkPrice         = "bulk_price"
	OperationOrderTotal        = "order_total"
	OperationPreviewPromotions = "preview_promotions"
)

// PriceQuotationService orchestrates tier configuration, strategy selection,
// promotions, margin guard rails and redemption for price quotes
type PriceQuotationService struct {
	configRepo   pricing.SegmentPricingConfigRepository
	campaignRepo pricing.PromotionalCampaignRepository
	calculator   *pricing.PriceCalculationService
	guardRail    *pricing.MarginGuardRailService
	governance   *pricing.PricingGovernanceService
	publisher    shared.EventPublisher
	metrics      *telemetry.PricingMetrics
	logger       *zap.Logger
	now          func() time.Time
}

// NewPriceQuotationService creates a new PriceQuotationService
func NewPriceQuotationService(
	configRepo pricing.SegmentPricingConfigRepository,
	campaignRepo pricing.PromotionalCampaignRepository,
	calculator *pricing.PriceCalculationService,
	guardRail *pricing.MarginGuardRailService,
	governance *pricing.PricingGovernanceService,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *PriceQuotationService {
	if publisher == nil {
		publisher = shared.NoopEventPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PriceQuotationService{
		configRepo:   configRepo,
		campaignRepo: campaignRepo,
		calculator:   calculator,
		guardRail:    guardRail,
		governance:   governance,
		publisher:    publisher,
		logger:       logger,
		now:          time.Now,
	}
}

// WithMetrics sets the business metrics recorder
func (s *PriceQuotationService) WithMetrics(metrics *telemetry.PricingMetrics) *PriceQuotationService {
	s.metrics = metrics
	return s
}

// WithClock overrides the clock used for campaign windows
func (s *PriceQuotationService) WithClock(now func() time.Time) *PriceQuotationService {
	s.now = now
	return s
}

// CalculateProductPrice prices one catalog line for a tier, optionally
// redeeming a promotion code
func (s *PriceQuotationService) CalculateProductPrice(ctx context.Context, req ProductPriceRequest) (*ProductPriceResponse, error) {
	start := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, "quotation", OperationProductPrice,
		telemetry.WithAttribute(telemetry.SpanAttrProductID, req.ProductID),
		telemetry.WithAttribute(telemetry.SpanAttrTier, string(req.Tier)),
		telemetry.WithAttribute(telemetry.SpanAttrQuantity, req.Quantity),
	)
	defer span.End()

	resp, err := s.quoteProduct(ctx, req)
	strategyID := ""
	if resp != nil {
		strategyID = resp.StrategyID
	}
	s.finish(ctx, span, OperationProductPrice, string(req.Tier), strategyID, start, err)
	if err != nil {
		s.logRejection(OperationProductPrice, err,
			zap.String("product_id", req.ProductID),
			zap.String("tier", string(req.Tier)),
			zap.String("promotion_code", req.PromotionCode),
		)
		return nil, err
	}

	s.logger.Info("Product price calculated",
		zap.String("product_id", resp.ProductID),
		zap.String("tier", string(resp.Tier)),
		zap.String("strategy", resp.StrategyID),
		zap.String("unit_price", resp.UnitPrice.StringFixed(2)),
		zap.Int("quantity", resp.Quantity),
	)
	return resp, nil
}

func (s *PriceQuotationService) quoteProduct(ctx context.Context, req ProductPriceRequest) (*ProductPriceResponse, error) {
	tier, err := pricing.NewPricingTier(req.Tier)
	if err != nil {
		return nil, err
	}
	currency := resolveCurrency(req.Currency)
	cost, err := valueobject.NewMoney(req.BaseCost, currency)
	if err != nil {
		return nil, shared.NewDomainError(pricing.CodeValidation, err.Error())
	}
	cfg, err := s.loadConfig(ctx, tier)
	if err != nil {
		return nil, err
	}

	now := s.now()
	pc, err := buildPricingContext(req, tier, cost, now)
	if err != nil {
		return nil, err
	}
	for _, m := range req.Modifiers {
		if m.Currency == "" {
			m.Currency = string(currency)
		}
		modifier, err := buildModifier(m)
		if err != nil {
			return nil, shared.NewDomainError(pricing.CodeValidation, err.Error())
		}
		pc.PriceModifiers = append(pc.PriceModifiers, modifier)
	}

	frozen := s.governance.IsDynamicPricingFrozen(tier)
	if frozen {
		pc.DaysRemaining = nil
	}
	strategyID := s.selectStrategy(pc, req.StrategyID, cfg, frozen)

	var campaign *pricing.PromotionalCampaign
	if req.PromotionCode != "" {
		campaign, err = s.resolvePromotion(ctx, req.PromotionCode, now)
		if err != nil {
			return nil, err
		}
		if !campaign.IsApplicableTo(tier, req.ProductID, req.CategoryIDs) {
			return nil, promotionNotApplicable("Promotion code %s is not applicable to this product or customer tier", req.PromotionCode)
		}
		pc.PriceModifiers = append(pc.PriceModifiers, campaign.PriceModifier().AsPromotion())
	}
	if err := s.governance.ValidateOrder(ctx, req.OrderID, pc.PriceModifiers); err != nil {
		return nil, err
	}

	breakdown, err := s.calculator.CalculatePrice(ctx, strategyID, pc)
	if err != nil {
		return nil, err
	}

	if !pc.IsRecurringFee {
		err := s.guardRail.CheckTierMargin(ctx, pricing.MarginCheck{
			Price:         breakdown.UnitPrice,
			Cost:          cost,
			Tier:          tier,
			ProductID:     req.ProductID,
			OrderID:       req.OrderID,
			CalculationID: breakdown.CalculationID,
		})
		if err != nil {
			return nil, err
		}
	}

	resp := toProductPriceResponse(req.ProductID, tier, req.Quantity, breakdown)
	resp.DynamicPricingFrozen = frozen
	if campaign != nil {
		if _, err := s.redeem(ctx, campaign, req.OrderID); err != nil {
			return nil, err
		}
		resp.PromotionCode = campaign.Code()
	}
	if err := s.calculator.PublishPriceChange(ctx, pc, breakdown); err != nil {
		s.logger.Warn("Failed to publish price change",
			zap.String("product_id", req.ProductID),
			zap.Error(err),
		)
	}
	return resp, nil
}

// CalculateSubscriptionPrice returns the recurring fee for a subscription plan.
// Recurring fees are not subject to margin floors.
func (s *PriceQuotationService) CalculateSubscriptionPrice(ctx context.Context, req SubscriptionPriceRequest) (*ProductPriceResponse, error) {
	start := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, "quotation", OperationSubscriptionPrice,
		telemetry.WithAttribute(telemetry.SpanAttrPlan, string(req.SubscriptionTier)),
		telemetry.WithAttribute(telemetry.SpanAttrTier, string(req.Tier)),
	)
	defer span.End()

	resp, err := s.quoteSubscription(ctx, req)
	s.finish(ctx, span, OperationSubscriptionPrice, string(req.Tier), pricing.StrategyIDTiered, start, err)
	if err != nil {
		s.logRejection(OperationSubscriptionPrice, err,
			zap.String("plan_id", req.PlanID),
			zap.String("subscription_tier", string(req.SubscriptionTier)),
		)
		return nil, err
	}

	s.logger.Info("Subscription price calculated",
		zap.String("plan_id", req.PlanID),
		zap.String("subscription_tier", string(req.SubscriptionTier)),
		zap.String("fee", resp.UnitPrice.StringFixed(2)),
	)
	return resp, nil
}

func (s *PriceQuotationService) quoteSubscription(ctx context.Context, req SubscriptionPriceRequest) (*ProductPriceResponse, error) {
	if !req.SubscriptionTier.IsValid() {
		return nil, shared.NewDomainError(pricing.CodeValidation,
			fmt.Sprintf("Invalid subscription tier: %s", req.SubscriptionTier))
	}
	tier, err := pricing.NewPricingTier(req.Tier)
	if err != nil {
		return nil, err
	}
	cost, err := valueobject.NewMoney(req.BaseCost, resolveCurrency(req.Currency))
	if err != nil {
		return nil, shared.NewDomainError(pricing.CodeValidation, err.Error())
	}
	if _, err := s.loadConfig(ctx, tier); err != nil {
		return nil, err
	}

	pc := pricing.PricingContext{
		BaseCost:         cost,
		Quantity:         1,
		Tier:             tier,
		ProductID:        req.PlanID,
		SubscriptionTier: req.SubscriptionTier,
		IsRecurringFee:   true,
		RuleContext: pricing.RuleContext{
			Tier:     tier,
			Quantity: 1,
			At:       s.now(),
		},
	}
	breakdown, err := s.calculator.CalculatePrice(ctx, pricing.StrategyIDTiered, pc)
	if err != nil {
		return nil, err
	}
	return toProductPriceResponse(req.PlanID, tier, 1, breakdown), nil
}

// CalculateBulkPrices prices each request independently. A failing entry
// does not affect the others.
func (s *PriceQuotationService) CalculateBulkPrices(ctx context.Context, reqs []ProductPriceRequest) ([]BulkPriceResult, error) {
	if len(reqs) == 0 {
		return nil, shared.NewDomainError(pricing.CodeValidation, "At least one item is required")
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "quotation", OperationBulkPrice,
		telemetry.WithAttribute(telemetry.SpanAttrItemCount, len(reqs)),
	)
	defer span.End()

	results := make([]BulkPriceResult, len(reqs))
	failed := 0
	for i, req := range reqs {
		results[i] = BulkPriceResult{Index: i, ProductID: req.ProductID}
		resp, err := s.CalculateProductPrice(ctx, req)
		if err != nil {
			failed++
			results[i].Error, results[i].ErrorCode = describeError(err)
			continue
		}
		results[i].Price = resp
	}

	telemetry.SetAttributes(span, "pricing.failed_count", failed)
	telemetry.SetOK(span)
	s.logger.Info("Bulk prices calculated",
		zap.Int("items", len(reqs)),
		zap.Int("failed", failed),
	)
	return results, nil
}

// CalculateOrderTotal sums priced order lines and applies at most one
// promotion code to the subtotal
func (s *PriceQuotationService) CalculateOrderTotal(ctx context.Context, req OrderTotalRequest) (*OrderTotalResponse, error) {
	start := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, "quotation", OperationOrderTotal,
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, req.OrderID),
		telemetry.WithAttribute(telemetry.SpanAttrTier, string(req.Tier)),
		telemetry.WithAttribute(telemetry.SpanAttrItemCount, len(req.LineItems)),
	)
	defer span.End()

	resp, err := s.orderTotal(ctx, req)
	s.finish(ctx, span, OperationOrderTotal, string(req.Tier), "", start, err)
	if err != nil {
		s.logRejection(OperationOrderTotal, err,
			zap.String("order_id", req.OrderID),
			zap.Strings("promotion_codes", req.PromotionCodes),
		)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrFinalAmount, resp.Total.StringFixed(2))
	s.logger.Info("Order total calculated",
		zap.String("order_id", resp.OrderID),
		zap.String("subtotal", resp.Subtotal.StringFixed(2)),
		zap.String("discount", resp.Discount.StringFixed(2)),
		zap.String("total", resp.Total.StringFixed(2)),
	)
	return resp, nil
}

func (s *PriceQuotationService) orderTotal(ctx context.Context, req OrderTotalRequest) (*OrderTotalResponse, error) {
	tier, err := pricing.NewPricingTier(req.Tier)
	if err != nil {
		return nil, err
	}
	if len(req.LineItems) == 0 {
		return nil, shared.NewDomainError(pricing.CodeValidation, "Order must contain at least one line item")
	}

	// checked on the raw list: repeated or blank entries still count
	if len(req.PromotionCodes) > 1 {
		return nil, s.rejectStackedCodes(ctx, req.OrderID, req.PromotionCodes)
	}

	currency := resolveCurrency(req.Currency)
	subtotal := valueobject.Zero(currency)
	for _, item := range req.LineItems {
		if item.Quantity <= 0 {
			return nil, shared.NewDomainError(pricing.CodeValidation,
				fmt.Sprintf("Quantity must be positive for product %s", item.ProductID))
		}
		if !item.UnitPrice.IsPositive() {
			return nil, shared.NewDomainError(pricing.CodeValidation,
				fmt.Sprintf("Unit price must be positive for product %s", item.ProductID))
		}
		if item.Currency != "" && valueobject.Currency(item.Currency) != currency {
			return nil, shared.NewDomainError(pricing.CodeCurrencyMismatch,
				fmt.Sprintf("Currency mismatch: %s vs %s", item.Currency, currency))
		}
		line := valueobject.MustNewMoney(item.UnitPrice, currency).MultiplyByInt(int64(item.Quantity))
		subtotal, err = subtotal.Add(line)
		if err != nil {
			return nil, err
		}
	}
	subtotal = subtotal.Round(2)

	resp := &OrderTotalResponse{
		OrderID:  req.OrderID,
		Currency: string(currency),
		Subtotal: subtotal.Amount(),
		Discount: decimal.Zero,
		Total:    subtotal.Amount(),
	}
	if len(req.PromotionCodes) == 0 {
		return resp, nil
	}
	code := pricing.NormalizePromotionCode(req.PromotionCodes[0])
	if code == "" {
		return resp, nil
	}

	campaign, err := s.resolvePromotion(ctx, code, s.now())
	if err != nil {
		return nil, err
	}
	if !campaign.IsApplicableToTier(tier) {
		return nil, promotionNotApplicable("Promotion code %s is not applicable to this customer tier", code)
	}
	modifier := campaign.PriceModifier().AsPromotion()

	discounted, err := modifier.ApplyToPrice(subtotal)
	if err != nil {
		return nil, err
	}
	total := discounted.FloorAtZero().Round(2)
	discount, err := subtotal.Subtract(total)
	if err != nil {
		return nil, err
	}

	usage, err := s.redeem(ctx, campaign, req.OrderID)
	if err != nil {
		return nil, err
	}

	resp.Discount = discount.Amount()
	resp.Total = total.Amount()
	resp.AppliedPromotion = &AppliedPromotion{
		CampaignID:    campaign.ID,
		Code:          campaign.Code(),
		Name:          campaign.Name(),
		DiscountType:  modifier.Type(),
		DiscountValue: modifier.Value(),
		UsageCount:    usage,
	}
	return resp, nil
}

// rejectStackedCodes publishes the violation and returns STACKING_VIOLATION
func (s *PriceQuotationService) rejectStackedCodes(ctx context.Context, orderID string, codes []string) error {
	const message = "Only one promotion code can be applied per order"
	event := pricing.NewPricingRuleViolatedEvent(pricing.PricingRuleViolation{
		RuleID:   uuid.New(),
		Context:  map[string]any{"promotion_codes": codes},
		Message:  message,
		Severity: pricing.SeverityWarning,
		OrderID:  orderID,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish pricing rule violation",
			zap.String("order_id", orderID),
			zap.Error(err),
		)
	}
	return shared.NewDomainError(pricing.CodeStackingViolation, message)
}

// PreviewPromotions lists the code-redeemable promotions currently
// applicable to a product for a tier. Nothing is redeemed.
func (s *PriceQuotationService) PreviewPromotions(ctx context.Context, productID string, categoryIDs []string, tierType pricing.TierType) ([]PromotionPreview, error) {
	start := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, "quotation", OperationPreviewPromotions,
		telemetry.WithAttribute(telemetry.SpanAttrProductID, productID),
		telemetry.WithAttribute(telemetry.SpanAttrTier, string(tierType)),
	)
	defer span.End()

	previews, err := s.previewPromotions(ctx, productID, categoryIDs, tierType)
	s.finish(ctx, span, OperationPreviewPromotions, string(tierType), "", start, err)
	if err != nil {
		return nil, err
	}
	return previews, nil
}

func (s *PriceQuotationService) previewPromotions(ctx context.Context, productID string, categoryIDs []string, tierType pricing.TierType) ([]PromotionPreview, error) {
	tier, err := pricing.NewPricingTier(tierType)
	if err != nil {
		return nil, err
	}
	now := s.now()
	campaigns, err := s.campaignRepo.FindActive(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load active campaigns: %w", err)
	}

	eligible := make([]*pricing.PromotionalCampaign, 0, len(campaigns))
	for _, c := range campaigns {
		if c.HasCode() && c.IsCurrentlyActive(now) && c.IsApplicableTo(tier, productID, categoryIDs) {
			eligible = append(eligible, c)
		}
	}
	best := s.governance.RecommendCampaign(eligible)

	previews := make([]PromotionPreview, 0, len(eligible))
	for _, c := range eligible {
		modifier := c.PriceModifier()
		previews = append(previews, PromotionPreview{
			Code:          c.Code(),
			Name:          c.Name(),
			Description:   c.Description(),
			DiscountType:  modifier.Type(),
			DiscountValue: modifier.String(),
			EndDate:       c.EndDate(),
			Recommended:   c == best,
		})
	}
	return previews, nil
}

// loadConfig returns the active pricing configuration for a tier
func (s *PriceQuotationService) loadConfig(ctx context.Context, tier pricing.PricingTier) (*pricing.SegmentPricingConfig, error) {
	cfg, err := s.configRepo.FindByTierType(ctx, tier.Type())
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to load pricing configuration: %w", err)
	}
	if cfg == nil || !cfg.IsActive() {
		return nil, shared.NewDomainError(pricing.CodeNotFound,
			fmt.Sprintf("No pricing configuration found for tier %s", tier.Type()))
	}
	return cfg, nil
}

// selectStrategy honours an explicit strategy, otherwise derives one from
// the context. Frozen tiers never use dynamic markdown.
func (s *PriceQuotationService) selectStrategy(pc pricing.PricingContext, requested string, cfg *pricing.SegmentPricingConfig, frozen bool) string {
	id := requested
	if id == "" {
		id = s.calculator.DetermineStrategy(pc, cfg.DefaultStrategyID())
	}
	if frozen && id == pricing.StrategyIDDynamic {
		id = cfg.DefaultStrategyID()
		if id == "" || id == pricing.StrategyIDDynamic {
			id = pricing.DefaultPricingStrategy
		}
	}
	return id
}

// resolvePromotion finds a redeemable campaign by code
func (s *PriceQuotationService) resolvePromotion(ctx context.Context, code string, now time.Time) (*pricing.PromotionalCampaign, error) {
	campaign, err := s.campaignRepo.FindByCode(ctx, pricing.NormalizePromotionCode(code))
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up promotion code: %w", err)
	}
	if campaign == nil || !campaign.IsCurrentlyActive(now) {
		return nil, shared.NewDomainError(pricing.CodePromotionInvalid,
			fmt.Sprintf("Promotion code %s is invalid, inactive, or has reached its usage limit", code))
	}
	return campaign, nil
}

// redeem counts one use of the campaign atomically and announces it
func (s *PriceQuotationService) redeem(ctx context.Context, campaign *pricing.PromotionalCampaign, orderID string) (int, error) {
	usage, err := s.campaignRepo.IncrementUsageIfAvailable(ctx, campaign.ID)
	if err != nil {
		s.recordRedemption(ctx, campaign, false)
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to redeem promotion: %w", err)
	}
	s.recordRedemption(ctx, campaign, true)

	if err := s.publisher.Publish(ctx, pricing.NewPromotionalCampaignRedeemedEvent(campaign, usage, orderID)); err != nil {
		s.logger.Warn("Failed to publish campaign redemption",
			zap.String("campaign_id", campaign.ID.String()),
			zap.Error(err),
		)
	}
	return usage, nil
}

func (s *PriceQuotationService) recordRedemption(ctx context.Context, campaign *pricing.PromotionalCampaign, redeemed bool) {
	if s.metrics != nil {
		s.metrics.RecordRedemption(ctx, string(campaign.Type()), redeemed)
	}
}

func (s *PriceQuotationService) finish(ctx context.Context, span trace.Span, operation, tier, strategyID string, start time.Time, err error) {
	if strategyID != "" {
		telemetry.SetAttributes(span, telemetry.SpanAttrStrategy, strategyID)
	}
	if err != nil {
		telemetry.RecordError(span, err)
	} else {
		telemetry.SetOK(span)
	}
	if s.metrics != nil {
		s.metrics.RecordQuote(ctx, telemetry.QuoteObservation{
			Operation: operation,
			Tier:      tier,
			Strategy:  strategyID,
			Duration:  time.Since(start),
			Err:       err,
		})
	}
}

// logRejection logs domain rejections at warn and unexpected failures at error
func (s *PriceQuotationService) logRejection(operation string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("operation", operation), zap.Error(err))
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		s.logger.Warn("Quotation rejected", append(fields, zap.String("code", domainErr.Code))...)
		return
	}
	s.logger.Error("Quotation failed", fields...)
}

func buildPricingContext(req ProductPriceRequest, tier pricing.PricingTier, cost valueobject.Money, now time.Time) (pricing.PricingContext, error) {
	pc := pricing.PricingContext{
		BaseCost:            cost,
		Quantity:            req.Quantity,
		Tier:                tier,
		ProductID:           req.ProductID,
		CustomerID:          req.CustomerID,
		DaysRemaining:       req.DaysRemaining,
		DemandFactor:        req.DemandFactor,
		ProfitabilityFactor: req.ProfitabilityFactor,
		ShelfLifeDays:       req.ShelfLifeDays,
		SubscriptionTier:    req.SubscriptionTier,
		RuleContext: pricing.RuleContext{
			Tier:            tier,
			Quantity:        req.Quantity,
			Spend:           cost.Amount().Mul(decimal.NewFromInt(int64(req.Quantity))),
			CustomerSegment: req.CustomerSegment,
			CategoryIDs:     req.CategoryIDs,
			Location:        req.Location,
			FirstPurchase:   req.FirstPurchase,
			At:              now,
		},
	}
	if req.PreviousUnitPrice != nil {
		prev := valueobject.MustNewMoney(*req.PreviousUnitPrice, cost.Currency())
		pc.PreviousUnitPrice = &prev
	}
	if len(req.NegotiatedPrices) > 0 {
		pc.NegotiatedPrices = make(map[string]valueobject.Money, len(req.NegotiatedPrices))
		for productID, price := range req.NegotiatedPrices {
			if price.IsNegative() {
				return pricing.PricingContext{}, shared.NewDomainError(pricing.CodeValidation,
					fmt.Sprintf("Negotiated price for product %s cannot be negative", productID))
			}
			pc.NegotiatedPrices[productID] = valueobject.MustNewMoney(price, cost.Currency())
		}
	}
	return pc, nil
}

func toProductPriceResponse(productID string, tier pricing.PricingTier, quantity int, b *pricing.PriceBreakdown) *ProductPriceResponse {
	applied := b.AppliedPromotions
	if applied == nil {
		applied = []string{}
	}
	return &ProductPriceResponse{
		CalculationID:      b.CalculationID,
		ProductID:          productID,
		Tier:               tier.Type(),
		StrategyID:         b.StrategyID,
		Currency:           string(b.Currency),
		Quantity:           quantity,
		UnitPrice:          b.UnitPrice.Amount(),
		BaseUnitPrice:      b.BaseUnitPrice.Amount(),
		TotalPrice:         b.TotalPrice.Amount(),
		DiscountAmount:     b.DiscountAmount.Amount(),
		DiscountPercentage: b.DiscountPercentage,
		AppliedPromotions:  applied,
		Notes:              b.StrategyNotes,
	}
}

func resolveCurrency(code string) valueobject.Currency {
	if code == "" {
		return valueobject.DefaultCurrency
	}
	return valueobject.Currency(code)
}

func promotionNotApplicable(format, code string) error {
	return shared.NewDomainError(pricing.CodePromotionNotApplicable, fmt.Sprintf(format, code))
}

// describeError returns the message and code reported for a failed bulk entry
func describeError(err error) (string, string) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message, domainErr.Code
	}
	return "Failed to calculate price", "INTERNAL_ERROR"
}
