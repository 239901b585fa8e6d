package persistence

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPromotionalCampaignRepository implements pricing.PromotionalCampaignRepository using GORM.
// The usage counter is owned by IncrementUsageIfAvailable; Save never writes it.
type GormPromotionalCampaignRepository struct {
	db *gorm.DB
}

// NewGormPromotionalCampaignRepository creates a new GormPromotionalCampaignRepository
func NewGormPromotionalCampaignRepository(db *gorm.DB) *GormPromotionalCampaignRepository {
	return &GormPromotionalCampaignRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormPromotionalCampaignRepository) WithTx(tx *gorm.DB) *GormPromotionalCampaignRepository {
	return &GormPromotionalCampaignRepository{db: tx}
}

// FindByID finds a campaign by its ID
func (r *GormPromotionalCampaignRepository) FindByID(ctx context.Context, id uuid.UUID) (*pricing.PromotionalCampaign, error) {
	var model models.PromotionalCampaignModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindByCode finds a campaign by its redemption code
func (r *GormPromotionalCampaignRepository) FindByCode(ctx context.Context, code string) (*pricing.PromotionalCampaign, error) {
	normalized := pricing.NormalizePromotionCode(code)
	if normalized == "" {
		return nil, shared.ErrNotFound
	}
	var model models.PromotionalCampaignModel
	if err := r.db.WithContext(ctx).Where("code = ?", normalized).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindActive returns ACTIVE campaigns whose window contains now and whose usage cap is not exhausted
func (r *GormPromotionalCampaignRepository) FindActive(ctx context.Context, now time.Time) ([]*pricing.PromotionalCampaign, error) {
	var campaignModels []models.PromotionalCampaignModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND start_date <= ? AND end_date >= ?", pricing.CampaignStatusActive, now, now).
		Where("(max_usage_count IS NULL OR current_usage_count < max_usage_count)").
		Order("start_date ASC").
		Find(&campaignModels).Error
	if err != nil {
		return nil, err
	}
	return toDomainCampaigns(campaignModels)
}

// FindActiveByProductID returns active campaigns that explicitly target the product
func (r *GormPromotionalCampaignRepository) FindActiveByProductID(ctx context.Context, productID string, now time.Time) ([]*pricing.PromotionalCampaign, error) {
	active, err := r.FindActive(ctx, now)
	if err != nil {
		return nil, err
	}
	// product_ids is a JSON array; filtering here keeps the query portable across dialects
	result := make([]*pricing.PromotionalCampaign, 0, len(active))
	for _, c := range active {
		if slices.Contains(c.ProductIDs(), productID) {
			result = append(result, c)
		}
	}
	return result, nil
}

// Save inserts a new campaign or updates an existing one with optimistic locking
func (r *GormPromotionalCampaignRepository) Save(ctx context.Context, campaign *pricing.PromotionalCampaign) error {
	model, err := models.PromotionalCampaignModelFromDomain(campaign)
	if err != nil {
		return err
	}
	if model.Code != nil {
		var dup int64
		if err := r.db.WithContext(ctx).Model(&models.PromotionalCampaignModel{}).
			Where("code = ? AND id <> ?", *model.Code, model.ID).
			Count(&dup).Error; err != nil {
			return err
		}
		if dup > 0 {
			return shared.NewDomainError("PROMOTION_CODE_EXISTS", "A campaign with this promotion code already exists")
		}
	}

	currentVersion := campaign.Version
	result := r.db.WithContext(ctx).
		Model(&models.PromotionalCampaignModel{}).
		Where("id = ? AND version = ?", model.ID, currentVersion).
		Updates(map[string]any{
			"name":             model.Name,
			"description":      model.Description,
			"type":             model.Type,
			"status":           model.Status,
			"start_date":       model.StartDate,
			"end_date":         model.EndDate,
			"applicable_tiers": model.ApplicableTiersJSON,
			"price_modifier":   model.PriceModifierJSON,
			"pricing_rules":    model.PricingRulesJSON,
			"product_ids":      model.ProductIDsJSON,
			"category_ids":     model.CategoryIDsJSON,
			"max_usage_count":  model.MaxUsageCount,
			"code":             model.Code,
			"version":          currentVersion + 1,
			"updated_at":       model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		campaign.IncrementVersion()
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.PromotionalCampaignModel{}).
		Where("id = ?", model.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return shared.ErrConcurrencyConflict
	}
	return r.db.WithContext(ctx).Create(model).Error
}

// IncrementUsageIfAvailable counts one redemption in a single conditional UPDATE
// so concurrent redemptions can never exceed the cap.
func (r *GormPromotionalCampaignRepository) IncrementUsageIfAvailable(ctx context.Context, id uuid.UUID) (int, error) {
	var newCount int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.PromotionalCampaignModel{}).
			Where("id = ? AND (max_usage_count IS NULL OR current_usage_count < max_usage_count)", id).
			Updates(map[string]any{
				"current_usage_count": gorm.Expr("current_usage_count + 1"),
				"updated_at":          time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.PromotionalCampaignModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return shared.ErrNotFound
			}
			return shared.NewDomainError(pricing.CodeUsageLimitReached, "Campaign has reached its usage limit")
		}
		var model models.PromotionalCampaignModel
		if err := tx.Select("current_usage_count").First(&model, "id = ?", id).Error; err != nil {
			return err
		}
		newCount = model.CurrentUsageCount
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newCount, nil
}

func toDomainCampaigns(campaignModels []models.PromotionalCampaignModel) ([]*pricing.PromotionalCampaign, error) {
	campaigns := make([]*pricing.PromotionalCampaign, 0, len(campaignModels))
	for i := range campaignModels {
		c, err := campaignModels[i].ToDomain()
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, nil
}

// Ensure GormPromotionalCampaignRepository implements the domain interface
var _ pricing.PromotionalCampaignRepository = (*GormPromotionalCampaignRepository)(nil)
