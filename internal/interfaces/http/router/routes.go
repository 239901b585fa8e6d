package router

import (
	"github.com/erp/pricing/internal/infrastructure/auth"
	"github.com/erp/pricing/internal/interfaces/http/handler"
	"github.com/erp/pricing/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers served by the pricing API
type Handlers struct {
	Pricing    *handler.PricingHandler
	Campaigns  *handler.CampaignHandler
	Governance *handler.GovernanceHandler
	Strategies *handler.StrategyHandler
	System     *handler.SystemHandler
}

// PricingRoutes builds the /pricing route group with per-route permissions
func PricingRoutes(h Handlers, log *zap.Logger) *DomainGroup {
	canQuote := middleware.RequirePermission(log, auth.PermissionQuote)
	canReadCampaigns := middleware.RequireAnyPermission(log, auth.PermissionCampaignRead, auth.PermissionCampaignManage)
	canManageCampaigns := middleware.RequirePermission(log, auth.PermissionCampaignManage)
	canGovern := middleware.RequirePermission(log, auth.PermissionGovernanceAdmin)

	pricingRoutes := NewDomainGroup("pricing", "/pricing")

	quotes := pricingRoutes.Group("quotes", "/quotes").Use(canQuote)
	quotes.POST("/product", h.Pricing.QuoteProduct)
	quotes.POST("/subscription", h.Pricing.QuoteSubscription)
	quotes.POST("/bulk", h.Pricing.QuoteBulk)
	quotes.POST("/order", h.Pricing.QuoteOrder)

	pricingRoutes.GET("/promotions/preview", canQuote, h.Pricing.PreviewPromotions)
	pricingRoutes.GET("/strategies", canQuote, h.Strategies.ListStrategies)

	campaigns := pricingRoutes.Group("campaigns", "/campaigns")
	campaigns.POST("", canManageCampaigns, h.Campaigns.Create)
	campaigns.GET("/active", canReadCampaigns, h.Campaigns.ListActive)
	campaigns.GET("/:id", canReadCampaigns, h.Campaigns.GetByID)
	campaigns.POST("/:id/activate", canManageCampaigns, h.Campaigns.Activate)
	campaigns.POST("/:id/schedule", canManageCampaigns, h.Campaigns.Schedule)
	campaigns.POST("/:id/pause", canManageCampaigns, h.Campaigns.Pause)
	campaigns.POST("/:id/complete", canManageCampaigns, h.Campaigns.Complete)
	campaigns.POST("/:id/cancel", canManageCampaigns, h.Campaigns.Cancel)

	governance := pricingRoutes.Group("governance", "/governance").Use(canGovern)
	governance.GET("/tiers", h.Governance.ListTiers)
	governance.GET("/tiers/:tier", h.Governance.GetTier)
	governance.POST("/tiers/:tier/freeze", h.Governance.Freeze)
	governance.POST("/tiers/:tier/unfreeze", h.Governance.Unfreeze)

	return pricingRoutes
}

// SystemRoutes builds the unauthenticated /system route group
func SystemRoutes(h *handler.SystemHandler) *DomainGroup {
	systemRoutes := NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", h.GetSystemInfo)
	systemRoutes.GET("/ping", h.Ping)
	return systemRoutes
}
