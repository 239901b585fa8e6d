package handler

import (
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// GovernanceService exposes the dynamic pricing freeze controls
type GovernanceService interface {
	FreezeStatus(tier pricing.PricingTier) (pricing.FreezeStatus, bool)
	LastReview(tier pricing.PricingTier) (pricing.ReviewRecord, bool)
	FreezeDynamicPricing(tier pricing.PricingTier, reason string)
	UnfreezeDynamicPricing(tier pricing.PricingTier, reviewer, notes string) error
}

// GovernanceHandler handles dynamic pricing governance endpoints
type GovernanceHandler struct {
	BaseHandler
	governance GovernanceService
}

// NewGovernanceHandler creates a new GovernanceHandler
func NewGovernanceHandler(governance GovernanceService) *GovernanceHandler {
	return &GovernanceHandler{governance: governance}
}

// TierGovernanceResponse is the freeze state of one tier
type TierGovernanceResponse struct {
	Tier       pricing.TierType `json:"tier"`
	Frozen     bool             `json:"frozen"`
	Reason     string           `json:"reason,omitempty"`
	FrozenAt   *time.Time       `json:"frozen_at,omitempty"`
	LastReview *ReviewResponse  `json:"last_review,omitempty"`
}

// ReviewResponse describes the review that lifted the last freeze
type ReviewResponse struct {
	Reviewer   string    `json:"reviewer"`
	Notes      string    `json:"notes"`
	ReviewedAt time.Time `json:"reviewed_at"`
}

// FreezeRequest freezes dynamic pricing for a tier
type FreezeRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// UnfreezeRequest lifts a freeze after review
type UnfreezeRequest struct {
	Notes string `json:"notes" binding:"required,max=2000"`
}

// ListTiers godoc
// @ID           listGovernanceTiers
// @Summary      Dynamic pricing freeze state for every tier
// @Tags         governance
// @Produce      json
// @Router       /pricing/governance/tiers [get]
func (h *GovernanceHandler) ListTiers(c *gin.Context) {
	types := pricing.AllTierTypes()
	out := make([]TierGovernanceResponse, 0, len(types))
	for _, t := range types {
		out = append(out, h.describe(pricing.MustPricingTier(t)))
	}
	h.Success(c, out)
}

// GetTier returns the freeze state of one tier
func (h *GovernanceHandler) GetTier(c *gin.Context) {
	tier, ok := h.tier(c)
	if !ok {
		return
	}
	h.Success(c, h.describe(tier))
}

// Freeze godoc
// @ID           freezeTier
// @Summary      Freeze dynamic pricing for a tier
// @Tags         governance
// @Accept       json
// @Produce      json
// @Router       /pricing/governance/tiers/{tier}/freeze [post]
func (h *GovernanceHandler) Freeze(c *gin.Context) {
	tier, ok := h.tier(c)
	if !ok {
		return
	}
	var req FreezeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.governance.FreezeDynamicPricing(tier, req.Reason)
	h.Success(c, h.describe(tier))
}

// Unfreeze godoc
// @ID           unfreezeTier
// @Summary      Lift a dynamic pricing freeze; the caller is recorded as reviewer
// @Tags         governance
// @Accept       json
// @Produce      json
// @Router       /pricing/governance/tiers/{tier}/unfreeze [post]
func (h *GovernanceHandler) Unfreeze(c *gin.Context) {
	tier, ok := h.tier(c)
	if !ok {
		return
	}
	var req UnfreezeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	reviewer := getReviewer(c)
	if reviewer == "" {
		h.Unauthorized(c, "Reviewer identity is required")
		return
	}
	if err := h.governance.UnfreezeDynamicPricing(tier, reviewer, req.Notes); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, h.describe(tier))
}

func (h *GovernanceHandler) tier(c *gin.Context) (pricing.PricingTier, bool) {
	var req dto.TierRequest
	if !h.BindURI(c, &req) {
		return pricing.PricingTier{}, false
	}
	return pricing.MustPricingTier(pricing.TierType(req.Tier)), true
}

func (h *GovernanceHandler) describe(tier pricing.PricingTier) TierGovernanceResponse {
	resp := TierGovernanceResponse{Tier: tier.Type()}
	if status, frozen := h.governance.FreezeStatus(tier); frozen {
		frozenAt := status.FrozenAt
		resp.Frozen = true
		resp.Reason = status.Reason
		resp.FrozenAt = &frozenAt
	}
	if review, ok := h.governance.LastReview(tier); ok {
		resp.LastReview = &ReviewResponse{
			Reviewer:   review.Reviewer,
			Notes:      review.Notes,
			ReviewedAt: review.ReviewedAt,
		}
	}
	return resp
}
