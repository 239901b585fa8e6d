package handler

import (
	"context"

	pricingapp "github.com/erp/pricing/internal/application/pricing"
	"github.com/erp/pricing/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CampaignService is the application service behind the campaign endpoints
type CampaignService interface {
	CreateCampaign(ctx context.Context, tenantID uuid.UUID, req pricingapp.CreateCampaignRequest) (*pricingapp.CampaignResponse, error)
	GetCampaign(ctx context.Context, id uuid.UUID) (*pricingapp.CampaignResponse, error)
	ListActiveCampaigns(ctx context.Context) ([]pricingapp.CampaignResponse, error)
	ActivateCampaign(ctx context.Context, id uuid.UUID) (*pricingapp.CampaignResponse, error)
	ScheduleCampaign(ctx context.Context, id uuid.UUID) (*pricingapp.CampaignResponse, error)
	PauseCampaign(ctx context.Context, id uuid.UUID) (*pricingapp.CampaignResponse, error)
	CompleteCampaign(ctx context.Context, id uuid.UUID) (*pricingapp.CampaignResponse, error)
	CancelCampaign(ctx context.Context, id uuid.UUID) (*pricingapp.CampaignResponse, error)
}

// CampaignHandler handles promotional campaign API endpoints
type CampaignHandler struct {
	BaseHandler
	campaigns CampaignService
}

// NewCampaignHandler creates a new CampaignHandler
func NewCampaignHandler(campaigns CampaignService) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns}
}

// Create godoc
// @ID           createCampaign
// @Summary      Create a promotional campaign in DRAFT
// @Tags         campaigns
// @Accept       json
// @Produce      json
// @Router       /pricing/campaigns [post]
func (h *CampaignHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context is required")
		return
	}

	var req pricingapp.CreateCampaignRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.campaigns.CreateCampaign(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetByID godoc
// @ID           getCampaign
// @Summary      Get a promotional campaign
// @Tags         campaigns
// @Produce      json
// @Param        id path string true "Campaign ID"
// @Router       /pricing/campaigns/{id} [get]
func (h *CampaignHandler) GetByID(c *gin.Context) {
	id, ok := h.campaignID(c)
	if !ok {
		return
	}
	resp, err := h.campaigns.GetCampaign(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListActive godoc
// @ID           listActiveCampaigns
// @Summary      List campaigns that are currently running
// @Tags         campaigns
// @Produce      json
// @Router       /pricing/campaigns/active [get]
func (h *CampaignHandler) ListActive(c *gin.Context) {
	resp, err := h.campaigns.ListActiveCampaigns(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Activate moves a campaign to ACTIVE
func (h *CampaignHandler) Activate(c *gin.Context) {
	h.transition(c, h.campaigns.ActivateCampaign)
}

// Schedule moves a DRAFT campaign to SCHEDULED
func (h *CampaignHandler) Schedule(c *gin.Context) {
	h.transition(c, h.campaigns.ScheduleCampaign)
}

// Pause moves an ACTIVE campaign to PAUSED
func (h *CampaignHandler) Pause(c *gin.Context) {
	h.transition(c, h.campaigns.PauseCampaign)
}

// Complete ends a campaign
func (h *CampaignHandler) Complete(c *gin.Context) {
	h.transition(c, h.campaigns.CompleteCampaign)
}

// Cancel cancels a campaign that has not completed
func (h *CampaignHandler) Cancel(c *gin.Context) {
	h.transition(c, h.campaigns.CancelCampaign)
}

func (h *CampaignHandler) transition(c *gin.Context, apply func(context.Context, uuid.UUID) (*pricingapp.CampaignResponse, error)) {
	id, ok := h.campaignID(c)
	if !ok {
		return
	}
	resp, err := apply(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

func (h *CampaignHandler) campaignID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if !h.BindURI(c, &req) {
		return uuid.Nil, false
	}
	return uuid.MustParse(req.ID), true
}
