package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/erp/pricing/internal/domain/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Outcome labels
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// ErrMeterNil is returned when a metrics constructor receives a nil meter.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// PricingMetrics records pricing business metrics.
type PricingMetrics struct {
	logger *zap.Logger

	quotesTotal         *Counter
	quoteDuration       *Histogram
	redemptionsTotal    *Counter
	marginBreachesTotal *Counter
	stackingViolations  *Counter
	frozenTiers         metric.Int64Gauge
}

// NewPricingMetrics creates the pricing instruments on meter.
func NewPricingMetrics(meter metric.Meter, logger *zap.Logger) (*PricingMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	pm := &PricingMetrics{logger: logger}
	var err error

	if pm.quotesTotal, err = NewCounter(meter,
		"pricing_quotes_total",
		"Price quotations by operation, tier, strategy and outcome",
		"{quotes}"); err != nil {
		return nil, err
	}
	if pm.quoteDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "pricing_quote_duration_seconds",
		Description: "Time spent producing a price quotation",
		Unit:        "s",
		Boundaries:  QuoteDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if pm.redemptionsTotal, err = NewCounter(meter,
		"pricing_promotion_redemptions_total",
		"Promotion redemption attempts by outcome",
		"{redemptions}"); err != nil {
		return nil, err
	}
	if pm.marginBreachesTotal, err = NewCounter(meter,
		"pricing_margin_breaches_total",
		"Prices rejected for falling below the tier margin floor",
		"{breaches}"); err != nil {
		return nil, err
	}
	if pm.stackingViolations, err = NewCounter(meter,
		"pricing_stacking_violations_total",
		"Orders rejected for combining promotions",
		"{violations}"); err != nil {
		return nil, err
	}
	if pm.frozenTiers, err = meter.Int64Gauge("pricing_dynamic_pricing_frozen",
		metric.WithDescription("1 while dynamic markdowns are frozen for the tier"),
		metric.WithUnit("{tiers}")); err != nil {
		return nil, err
	}

	return pm, nil
}

// QuoteObservation describes one finished quotation.
type QuoteObservation struct {
	Operation string
	Tier      string
	Strategy  string
	Duration  time.Duration
	Err       error
}

// RecordQuote records a quotation and its latency. Domain errors count as
// rejections labelled with their code; anything else is an error.
func (pm *PricingMetrics) RecordQuote(ctx context.Context, obs QuoteObservation) {
	attrs := []attribute.KeyValue{
		AttrOperation.String(obs.Operation),
		AttrTier.String(obs.Tier),
		AttrStrategy.String(obs.Strategy),
	}

	var domainErr *shared.DomainError
	switch {
	case obs.Err == nil:
		attrs = append(attrs, AttrOutcome.String(OutcomeSuccess))
	case errors.As(obs.Err, &domainErr):
		attrs = append(attrs, AttrOutcome.String(OutcomeRejected), AttrErrorCode.String(domainErr.Code))
	default:
		attrs = append(attrs, AttrOutcome.String(OutcomeError))
	}

	pm.quotesTotal.Inc(ctx, attrs...)
	pm.quoteDuration.RecordDuration(ctx, obs.Duration, attrs[:3]...)
}

// RecordRedemption records a redemption attempt for a campaign type.
func (pm *PricingMetrics) RecordRedemption(ctx context.Context, campaignType string, redeemed bool) {
	outcome := OutcomeSuccess
	if !redeemed {
		outcome = OutcomeRejected
	}
	pm.redemptionsTotal.Inc(ctx, AttrCampaignType.String(campaignType), AttrOutcome.String(outcome))
}

// RecordMarginBreach records a margin floor breach for tier.
func (pm *PricingMetrics) RecordMarginBreach(ctx context.Context, tier string) {
	pm.marginBreachesTotal.Inc(ctx, AttrTier.String(tier))
}

// RecordStackingViolation records a rejected promotion combination.
func (pm *PricingMetrics) RecordStackingViolation(ctx context.Context) {
	pm.stackingViolations.Inc(ctx)
}

// RecordFreezeState records whether dynamic pricing is frozen for each tier.
func (pm *PricingMetrics) RecordFreezeState(ctx context.Context, states map[string]bool) {
	for tier, frozen := range states {
		var v int64
		if frozen {
			v = 1
		}
		pm.frozenTiers.Record(ctx, v, metric.WithAttributes(AttrTier.String(tier)))
	}
	pm.logger.Debug("Recorded dynamic pricing freeze state", zap.Int("tiers", len(states)))
}
