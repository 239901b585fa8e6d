package handler

import (
	"context"

	pricingapp "github.com/erp/pricing/internal/application/pricing"
	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/gin-gonic/gin"
)

// QuotationService is the application service behind the quote endpoints
type QuotationService interface {
	CalculateProductPrice(ctx context.Context, req pricingapp.ProductPriceRequest) (*pricingapp.ProductPriceResponse, error)
	CalculateSubscriptionPrice(ctx context.Context, req pricingapp.SubscriptionPriceRequest) (*pricingapp.ProductPriceResponse, error)
	CalculateBulkPrices(ctx context.Context, reqs []pricingapp.ProductPriceRequest) ([]pricingapp.BulkPriceResult, error)
	CalculateOrderTotal(ctx context.Context, req pricingapp.OrderTotalRequest) (*pricingapp.OrderTotalResponse, error)
	PreviewPromotions(ctx context.Context, productID string, categoryIDs []string, tierType pricing.TierType) ([]pricingapp.PromotionPreview, error)
}

// PricingHandler handles quotation API endpoints
type PricingHandler struct {
	BaseHandler
	quotes QuotationService
}

// NewPricingHandler creates a new PricingHandler
func NewPricingHandler(quotes QuotationService) *PricingHandler {
	return &PricingHandler{quotes: quotes}
}

// BulkPriceRequest wraps the lines of a bulk quotation, at most 200
type BulkPriceRequest struct {
	Items []pricingapp.ProductPriceRequest `json:"items" binding:"required,min=1,max=200,dive"`
}

// PreviewPromotionsQuery selects the product and tier to preview promotions for
type PreviewPromotionsQuery struct {
	ProductID   string           `form:"product_id" binding:"required,max=100"`
	CategoryIDs []string         `form:"category_id"`
	Tier        pricing.TierType `form:"tier" binding:"required,tier_type"`
}

// QuoteProduct godoc
// @ID           quoteProductPrice
// @Summary      Quote a product price for a customer tier
// @Tags         pricing
// @Accept       json
// @Produce      json
// @Router       /pricing/quotes/product [post]
func (h *PricingHandler) QuoteProduct(c *gin.Context) {
	var req pricingapp.ProductPriceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.quotes.CalculateProductPrice(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// QuoteSubscription godoc
// @ID           quoteSubscriptionPrice
// @Summary      Quote a subscription plan's recurring fee
// @Tags         pricing
// @Accept       json
// @Produce      json
// @Router       /pricing/quotes/subscription [post]
func (h *PricingHandler) QuoteSubscription(c *gin.Context) {
	var req pricingapp.SubscriptionPriceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.quotes.CalculateSubscriptionPrice(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// QuoteBulk godoc
// @ID           quoteBulkPrices
// @Summary      Quote many product lines; failed lines carry their own error
// @Tags         pricing
// @Accept       json
// @Produce      json
// @Router       /pricing/quotes/bulk [post]
func (h *PricingHandler) QuoteBulk(c *gin.Context) {
	var req BulkPriceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	results, err := h.quotes.CalculateBulkPrices(c.Request.Context(), req.Items)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, results)
}

// QuoteOrder godoc
// @ID           quoteOrderTotal
// @Summary      Total priced order lines with at most one promotion code
// @Tags         pricing
// @Accept       json
// @Produce      json
// @Router       /pricing/quotes/order [post]
func (h *PricingHandler) QuoteOrder(c *gin.Context) {
	var req pricingapp.OrderTotalRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.quotes.CalculateOrderTotal(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// PreviewPromotions godoc
// @ID           previewPromotions
// @Summary      List code-redeemable promotions for a product and tier
// @Tags         pricing
// @Produce      json
// @Param        product_id   query string true  "Product ID"
// @Param        tier         query string true  "Customer tier"
// @Param        category_id  query []string false "Category IDs"
// @Router       /pricing/promotions/preview [get]
func (h *PricingHandler) PreviewPromotions(c *gin.Context) {
	var q PreviewPromotionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.validationFailed(c, err)
		return
	}
	previews, err := h.quotes.PreviewPromotions(c.Request.Context(), q.ProductID, q.CategoryIDs, q.Tier)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, previews)
}
