package pricing

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
)

// CampaignType classifies a promotional campaign
type CampaignType string

const (
	CampaignTypeSeasonal            CampaignType = "SEASONAL"
	CampaignTypeClearance           CampaignType = "CLEARANCE"
	CampaignTypeNewProduct          CampaignType = "NEW_PRODUCT"
	CampaignTypeCustomerAcquisition CampaignType = "CUSTOMER_ACQUISITION"
	CampaignTypeLoyalty             CampaignType = "LOYALTY"
	CampaignTypeBundle              CampaignType = "BUNDLE"
)

// IsValid checks if the campaign type is known
func (t CampaignType) IsValid() bool {
	switch t {
	case CampaignTypeSeasonal, CampaignTypeClearance, CampaignTypeNewProduct,
		CampaignTypeCustomerAcquisition, CampaignTypeLoyalty, CampaignTypeBundle:
		return true
	}
	return false
}

// CampaignStatus is the lifecycle state of a promotional campaign
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "DRAFT"
	CampaignStatusScheduled CampaignStatus = "SCHEDULED"
	CampaignStatusActive    CampaignStatus = "ACTIVE"
	CampaignStatusPaused    CampaignStatus = "PAUSED"
	CampaignStatusCompleted CampaignStatus = "COMPLETED"
	CampaignStatusCancelled CampaignStatus = "CANCELLED"
)

// IsValid checks if the status is a valid CampaignStatus
func (s CampaignStatus) IsValid() bool {
	switch s {
	case CampaignStatusDraft, CampaignStatusScheduled, CampaignStatusActive,
		CampaignStatusPaused, CampaignStatusCompleted, CampaignStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are possible
func (s CampaignStatus) IsTerminal() bool {
	return s == CampaignStatusCompleted || s == CampaignStatusCancelled
}

// String returns the string representation of CampaignStatus
func (s CampaignStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s CampaignStatus) CanTransitionTo(target CampaignStatus) bool {
	switch s {
	case CampaignStatusDraft:
		return target == CampaignStatusActive || target == CampaignStatusScheduled || target == CampaignStatusCancelled
	case CampaignStatusScheduled:
		return target == CampaignStatusActive || target == CampaignStatusCompleted || target == CampaignStatusCancelled
	case CampaignStatusActive:
		return target == CampaignStatusPaused || target == CampaignStatusCompleted || target == CampaignStatusCancelled
	case CampaignStatusPaused:
		return target == CampaignStatusActive || target == CampaignStatusCompleted || target == CampaignStatusCancelled
	case CampaignStatusCompleted, CampaignStatusCancelled:
		return false // Terminal states
	}
	return false
}

// NormalizePromotionCode canonicalizes a redemption code for storage and lookup
func NormalizePromotionCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// PromotionalCampaign is a time-boxed, usage-capped promotion that bundles
// a price modifier with the pricing rules that govern it.
// Collections are copied on every read and write.
type PromotionalCampaign struct {
	shared.TenantAggregateRoot
	name              string
	description       string
	campaignType      CampaignType
	status            CampaignStatus
	startDate         time.Time
	endDate           time.Time
	applicableTiers   []PricingTier
	priceModifier     PriceModifier
	pricingRules      []*PricingRule
	productIDs        []string
	categoryIDs       []string
	maxUsageCount     *int
	currentUsageCount int
	code              *string
}

// PromotionalCampaignParams holds the arguments for NewPromotionalCampaign
type PromotionalCampaignParams struct {
	TenantID          uuid.UUID
	Name              string
	Description       string
	Type              CampaignType
	Status            CampaignStatus // empty means DRAFT
	StartDate         time.Time
	EndDate           time.Time
	ApplicableTiers   []PricingTier
	PriceModifier     PriceModifier
	PricingRules      []*PricingRule
	ProductIDs        []string
	CategoryIDs       []string
	MaxUsageCount     *int
	CurrentUsageCount int
	Code              string
}

// NewPromotionalCampaign validates and creates a campaign, recording a PromotionalCampaignCreated event
func NewPromotionalCampaign(p PromotionalCampaignParams) (*PromotionalCampaign, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, validationError("Campaign name is required")
	}
	if !p.Type.IsValid() {
		return nil, validationError("Invalid campaign type: %s", p.Type)
	}
	status := p.Status
	if status == "" {
		status = CampaignStatusDraft
	}
	if !status.IsValid() || status.IsTerminal() {
		return nil, validationError("Invalid initial campaign status: %s", status)
	}
	if !p.StartDate.Before(p.EndDate) {
		return nil, validationError("Campaign start date must be before end date")
	}
	if len(p.ApplicableTiers) == 0 {
		return nil, validationError("Campaign must apply to at least one pricing tier")
	}
	if len(p.PricingRules) == 0 {
		return nil, validationError("Campaign must have at least one pricing rule")
	}
	if len(p.ProductIDs) == 0 && len(p.CategoryIDs) == 0 {
		return nil, validationError("Campaign must target at least one product or category")
	}
	if p.PriceModifier.IsZero() {
		return nil, validationError("Campaign requires a price modifier")
	}
	if p.MaxUsageCount != nil && *p.MaxUsageCount <= 0 {
		return nil, validationError("Maximum usage count must be greater than 0")
	}
	if p.CurrentUsageCount < 0 {
		return nil, validationError("Current usage count cannot be negative")
	}
	if p.MaxUsageCount != nil && p.CurrentUsageCount > *p.MaxUsageCount {
		return nil, validationError("Current usage count cannot exceed maximum usage count")
	}

	c := &PromotionalCampaign{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(p.TenantID),
		name:                strings.TrimSpace(p.Name),
		description:         p.Description,
		campaignType:        p.Type,
		status:              status,
		startDate:           p.StartDate,
		endDate:             p.EndDate,
		applicableTiers:     slices.Clone(p.ApplicableTiers),
		priceModifier:       p.PriceModifier,
		pricingRules:        cloneRules(p.PricingRules),
		productIDs:          slices.Clone(p.ProductIDs),
		categoryIDs:         slices.Clone(p.CategoryIDs),
		maxUsageCount:       cloneIntPtr(p.MaxUsageCount),
		currentUsageCount:   p.CurrentUsageCount,
	}
	if code := NormalizePromotionCode(p.Code); code != "" {
		c.code = &code
	}

	c.AddDomainEvent(NewPromotionalCampaignCreatedEvent(c))

	return c, nil
}

func cloneRules(in []*PricingRule) []*PricingRule {
	out := make([]*PricingRule, len(in))
	for i, r := range in {
		out[i] = r.clone()
	}
	return out
}

func cloneIntPtr(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Name returns the campaign name
func (c *PromotionalCampaign) Name() string { return c.name }

// Description returns the campaign description
func (c *PromotionalCampaign) Description() string { return c.description }

// Type returns the campaign type
func (c *PromotionalCampaign) Type() CampaignType { return c.campaignType }

// Status returns the lifecycle status
func (c *PromotionalCampaign) Status() CampaignStatus { return c.status }

// StartDate returns the start of the campaign window
func (c *PromotionalCampaign) StartDate() time.Time { return c.startDate }

// EndDate returns the end of the campaign window
func (c *PromotionalCampaign) EndDate() time.Time { return c.endDate }

// ApplicableTiers returns a copy of the tiers the campaign applies to
func (c *PromotionalCampaign) ApplicableTiers() []PricingTier { return slices.Clone(c.applicableTiers) }

// PriceModifier returns the campaign's modifier
func (c *PromotionalCampaign) PriceModifier() PriceModifier { return c.priceModifier }

// PricingRules returns deep copies of the campaign's rules
func (c *PromotionalCampaign) PricingRules() []*PricingRule { return cloneRules(c.pricingRules) }

// ProductIDs returns a copy of the targeted product IDs
func (c *PromotionalCampaign) ProductIDs() []string { return slices.Clone(c.productIDs) }

// CategoryIDs returns a copy of the targeted category IDs
func (c *PromotionalCampaign) CategoryIDs() []string { return slices.Clone(c.categoryIDs) }

// MaxUsageCount returns the usage cap, nil when unlimited
func (c *PromotionalCampaign) MaxUsageCount() *int { return cloneIntPtr(c.maxUsageCount) }

// CurrentUsageCount returns how many times the campaign has been redeemed
func (c *PromotionalCampaign) CurrentUsageCount() int { return c.currentUsageCount }

// Code returns the redemption code, empty when the campaign has none
func (c *PromotionalCampaign) Code() string {
	if c.code == nil {
		return ""
	}
	return *c.code
}

// HasCode reports whether the campaign can be redeemed by code
func (c *PromotionalCampaign) HasCode() bool {
	return c.code != nil && *c.code != ""
}

// HasReachedUsageLimit reports whether a cap is set and has been reached
func (c *PromotionalCampaign) HasReachedUsageLimit() bool {
	return c.maxUsageCount != nil && c.currentUsageCount >= *c.maxUsageCount
}

// IsCurrentlyActive reports status ACTIVE, now within [start, end], and usage below the cap
func (c *PromotionalCampaign) IsCurrentlyActive(now time.Time) bool {
	return c.status == CampaignStatusActive &&
		!now.Before(c.startDate) &&
		!now.After(c.endDate) &&
		!c.HasReachedUsageLimit()
}

// IsDiscount reports whether the campaign lowers prices
func (c *PromotionalCampaign) IsDiscount() bool {
	return c.priceModifier.IsDiscount()
}

// IsApplicableToTier reports whether the tier is one of the campaign's tiers
func (c *PromotionalCampaign) IsApplicableToTier(tier PricingTier) bool {
	return slices.ContainsFunc(c.applicableTiers, tier.Equals)
}

// IsApplicableToProduct checks product membership, falling back to category
// overlap when no products are listed. A campaign with neither is unrestricted.
func (c *PromotionalCampaign) IsApplicableToProduct(productID string, categoryIDs []string) bool {
	if len(c.productIDs) > 0 {
		return slices.Contains(c.productIDs, productID)
	}
	if len(c.categoryIDs) > 0 {
		return containsAny(categoryIDs, c.categoryIDs)
	}
	return true
}

// IsApplicableTo combines tier and product applicability
func (c *PromotionalCampaign) IsApplicableTo(tier PricingTier, productID string, categoryIDs []string) bool {
	return c.IsApplicableToTier(tier) && c.IsApplicableToProduct(productID, categoryIDs)
}

// IncrementUsageCount records one redemption
func (c *PromotionalCampaign) IncrementUsageCount() error {
	if c.HasReachedUsageLimit() {
		return shared.NewDomainError(CodeUsageLimitReached, "Campaign has reached its usage limit")
	}
	c.currentUsageCount++
	c.Touch()
	return nil
}

// Activate moves the campaign to ACTIVE. The campaign must not have ended.
func (c *PromotionalCampaign) Activate(now time.Time) error {
	if !c.status.CanTransitionTo(CampaignStatusActive) {
		return c.transitionError("activate")
	}
	if now.After(c.endDate) {
		return shared.NewDomainError(CodeInvalidState, "Cannot activate a campaign that has already ended")
	}
	c.transition(CampaignStatusActive)
	return nil
}

// Schedule moves a draft campaign to SCHEDULED
func (c *PromotionalCampaign) Schedule() error {
	if !c.status.CanTransitionTo(CampaignStatusScheduled) {
		return c.transitionError("schedule")
	}
	c.transition(CampaignStatusScheduled)
	return nil
}

// Pause moves an active campaign to PAUSED
func (c *PromotionalCampaign) Pause() error {
	if !c.status.CanTransitionTo(CampaignStatusPaused) {
		return c.transitionError("pause")
	}
	c.transition(CampaignStatusPaused)
	return nil
}

// Complete moves the campaign to COMPLETED
func (c *PromotionalCampaign) Complete() error {
	if !c.status.CanTransitionTo(CampaignStatusCompleted) {
		return c.transitionError("complete")
	}
	c.transition(CampaignStatusCompleted)
	return nil
}

// Cancel moves the campaign to CANCELLED from any non-terminal status
func (c *PromotionalCampaign) Cancel() error {
	if !c.status.CanTransitionTo(CampaignStatusCancelled) {
		return c.transitionError("cancel")
	}
	c.transition(CampaignStatusCancelled)
	return nil
}

func (c *PromotionalCampaign) transition(to CampaignStatus) {
	from := c.status
	c.status = to
	c.Touch()
	c.AddDomainEvent(NewPromotionalCampaignStatusChangedEvent(c, from, to))
}

func (c *PromotionalCampaign) transitionError(action string) error {
	return shared.NewDomainError(CodeInvalidState,
		fmt.Sprintf("Cannot %s campaign with status %s", action, c.status))
}

func (c *PromotionalCampaign) ensureMutable() error {
	if c.status.IsTerminal() {
		return shared.NewDomainError(CodeInvalidState,
			fmt.Sprintf("Cannot modify campaign with status %s", c.status))
	}
	return nil
}

// UpdateDateRange changes the campaign window
func (c *PromotionalCampaign) UpdateDateRange(start, end time.Time) error {
	if err := c.ensureMutable(); err != nil {
		return err
	}
	if !start.Before(end) {
		return validationError("Campaign start date must be before end date")
	}
	c.startDate = start
	c.endDate = end
	c.Touch()
	return nil
}

// AddProductID targets an additional product
func (c *PromotionalCampaign) AddProductID(productID string) error {
	if err := c.ensureMutable(); err != nil {
		return err
	}
	if productID == "" {
		return validationError("Product ID is required")
	}
	if !slices.Contains(c.productIDs, productID) {
		c.productIDs = append(c.productIDs, productID)
		c.Touch()
	}
	return nil
}

// RemoveProductID stops targeting a product
func (c *PromotionalCampaign) RemoveProductID(productID string) error {
	if err := c.ensureMutable(); err != nil {
		return err
	}
	c.productIDs = slices.DeleteFunc(c.productIDs, func(id string) bool { return id == productID })
	c.Touch()
	return nil
}

// AddCategoryID targets an additional category
func (c *PromotionalCampaign) AddCategoryID(categoryID string) error {
	if err := c.ensureMutable(); err != nil {
		return err
	}
	if categoryID == "" {
		return validationError("Category ID is required")
	}
	if !slices.Contains(c.categoryIDs, categoryID) {
		c.categoryIDs = append(c.categoryIDs, categoryID)
		c.Touch()
	}
	return nil
}

// RemoveCategoryID stops targeting a category
func (c *PromotionalCampaign) RemoveCategoryID(categoryID string) error {
	if err := c.ensureMutable(); err != nil {
		return err
	}
	c.categoryIDs = slices.DeleteFunc(c.categoryIDs, func(id string) bool { return id == categoryID })
	c.Touch()
	return nil
}

// UpdatePriceModifier replaces the campaign's modifier
func (c *PromotionalCampaign) UpdatePriceModifier(modifier PriceModifier) error {
	if err := c.ensureMutable(); err != nil {
		return err
	}
	if modifier.IsZero() {
		return validationError("Campaign requires a price modifier")
	}
	c.priceModifier = modifier
	c.Touch()
	return nil
}

// PromotionalCampaignState is the full persisted state of a campaign
type PromotionalCampaignState struct {
	ID                uuid.UUID
	TenantID          uuid.UUID
	Version           int
	Name              string
	Description       string
	Type              CampaignType
	Status            CampaignStatus
	StartDate         time.Time
	EndDate           time.Time
	ApplicableTiers   []PricingTier
	PriceModifier     PriceModifier
	PricingRules      []*PricingRule
	ProductIDs        []string
	CategoryIDs       []string
	MaxUsageCount     *int
	CurrentUsageCount int
	Code              string
	CreatedBy         *uuid.UUID
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// State returns a copy of the campaign's state for persistence
func (c *PromotionalCampaign) State() PromotionalCampaignState {
	return PromotionalCampaignState{
		ID:                c.ID,
		TenantID:          c.TenantID,
		Version:           c.Version,
		Name:              c.name,
		Description:       c.description,
		Type:              c.campaignType,
		Status:            c.status,
		StartDate:         c.startDate,
		EndDate:           c.endDate,
		ApplicableTiers:   c.ApplicableTiers(),
		PriceModifier:     c.priceModifier,
		PricingRules:      c.PricingRules(),
		ProductIDs:        c.ProductIDs(),
		CategoryIDs:       c.CategoryIDs(),
		MaxUsageCount:     c.MaxUsageCount(),
		CurrentUsageCount: c.currentUsageCount,
		Code:              c.Code(),
		CreatedBy:         c.CreatedBy(),
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

// ReconstructPromotionalCampaign rebuilds a campaign from persisted state without validation or events
func ReconstructPromotionalCampaign(s PromotionalCampaignState) *PromotionalCampaign {
	c := &PromotionalCampaign{
		name:              s.Name,
		description:       s.Description,
		campaignType:      s.Type,
		status:            s.Status,
		startDate:         s.StartDate,
		endDate:           s.EndDate,
		applicableTiers:   slices.Clone(s.ApplicableTiers),
		priceModifier:     s.PriceModifier,
		pricingRules:      cloneRules(s.PricingRules),
		productIDs:        slices.Clone(s.ProductIDs),
		categoryIDs:       slices.Clone(s.CategoryIDs),
		maxUsageCount:     cloneIntPtr(s.MaxUsageCount),
		currentUsageCount: s.CurrentUsageCount,
	}
	c.ID = s.ID
	c.TenantID = s.TenantID
	c.Version = s.Version
	c.CreatedAt = s.CreatedAt
	c.UpdatedAt = s.UpdatedAt
	if s.CreatedBy != nil {
		c.SetCreatedBy(*s.CreatedBy)
	}
	if s.Code != "" {
		code := NormalizePromotionCode(s.Code)
		c.code = &code
	}
	return c
}
