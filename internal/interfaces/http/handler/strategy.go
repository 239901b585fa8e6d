package handler

import (
	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/gin-gonic/gin"
)

// StrategyRegistry lists the registered pricing strategies
type StrategyRegistry interface {
	FindAll() []pricing.PricingStrategy
	GetDefault() string
}

// StrategyHandler handles strategy-related API endpoints
type StrategyHandler struct {
	BaseHandler
	registry StrategyRegistry
}

// NewStrategyHandler creates a new StrategyHandler
func NewStrategyHandler(registry StrategyRegistry) *StrategyHandler {
	return &StrategyHandler{registry: registry}
}

// StrategyInfo represents information about a single strategy
type StrategyInfo struct {
	ID          string `json:"id" example:"tier-markup"`
	Name        string `json:"name" example:"Tier Markup"`
	Type        string `json:"type" example:"TIERED"`
	Description string `json:"description"`
	IsDefault   bool   `json:"is_default"`
}

// ListStrategies godoc
// @ID           listPricingStrategies
// @Summary      List available pricing strategies
// @Tags         pricing
// @Produce      json
// @Router       /pricing/strategies [get]
func (h *StrategyHandler) ListStrategies(c *gin.Context) {
	defaultID := h.registry.GetDefault()
	all := h.registry.FindAll()

	out := make([]StrategyInfo, 0, len(all))
	for _, s := range all {
		out = append(out, StrategyInfo{
			ID:          s.ID(),
			Name:        s.Name(),
			Type:        string(s.Type()),
			Description: s.Description(),
			IsDefault:   s.ID() == defaultID,
		})
	}
	h.Success(c, out)
}
