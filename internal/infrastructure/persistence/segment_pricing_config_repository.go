package persistence

import (
	"context"
	"errors"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSegmentPricingConfigRepository implements pricing.SegmentPricingConfigRepository using GORM
type GormSegmentPricingConfigRepository struct {
	db *gorm.DB
}

// NewGormSegmentPricingConfigRepository creates a new GormSegmentPricingConfigRepository
func NewGormSegmentPricingConfigRepository(db *gorm.DB) *GormSegmentPricingConfigRepository {
	return &GormSegmentPricingConfigRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormSegmentPricingConfigRepository) WithTx(tx *gorm.DB) *GormSegmentPricingConfigRepository {
	return &GormSegmentPricingConfigRepository{db: tx}
}

// Save inserts or updates a config with optimistic locking
func (r *GormSegmentPricingConfigRepository) Save(ctx context.Context, config *pricing.SegmentPricingConfig) error {
	model := models.SegmentPricingConfigModelFromDomain(config)
	currentVersion := config.Version

	result := r.db.WithContext(ctx).
		Model(&models.SegmentPricingConfigModel{}).
		Where("id = ? AND version = ?", model.ID, currentVersion).
		Updates(map[string]any{
			"base_markup":         model.BaseMarkup,
			"max_discount":        model.MaxDiscount,
			"floor_margin":        model.FloorMargin,
			"target_margin":       model.TargetMargin,
			"default_strategy_id": model.DefaultStrategyID,
			"notes":               model.Notes,
			"active":              model.Active,
			"version":             currentVersion + 1,
			"updated_at":          model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		config.IncrementVersion()
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.SegmentPricingConfigModel{}).
		Where("id = ?", model.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return shared.ErrConcurrencyConflict
	}

	exists, err := r.ExistsForTier(ctx, model.Tier)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError("SEGMENT_CONFIG_EXISTS", "A pricing configuration already exists for tier "+model.Tier.String())
	}
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByID finds a config by its ID
func (r *GormSegmentPricingConfigRepository) FindByID(ctx context.Context, id uuid.UUID) (*pricing.SegmentPricingConfig, error) {
	var model models.SegmentPricingConfigModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindByTierType finds the config for a tier
func (r *GormSegmentPricingConfigRepository) FindByTierType(ctx context.Context, tier pricing.TierType) (*pricing.SegmentPricingConfig, error) {
	var model models.SegmentPricingConfigModel
	if err := r.db.WithContext(ctx).Where("tier = ?", tier).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindAll returns every config ordered by tier
func (r *GormSegmentPricingConfigRepository) FindAll(ctx context.Context) ([]*pricing.SegmentPricingConfig, error) {
	return r.find(r.db.WithContext(ctx))
}

// FindAllActive returns active configs ordered by tier
func (r *GormSegmentPricingConfigRepository) FindAllActive(ctx context.Context) ([]*pricing.SegmentPricingConfig, error) {
	return r.find(r.db.WithContext(ctx).Where("active = ?", true))
}

func (r *GormSegmentPricingConfigRepository) find(query *gorm.DB) ([]*pricing.SegmentPricingConfig, error) {
	var configModels []models.SegmentPricingConfigModel
	if err := query.Order("tier ASC").Find(&configModels).Error; err != nil {
		return nil, err
	}
	configs := make([]*pricing.SegmentPricingConfig, 0, len(configModels))
	for i := range configModels {
		c, err := configModels[i].ToDomain()
		if err != nil {
			return nil, err
		}
		configs = append(configs, c)
	}
	return configs, nil
}

// Delete removes a config
func (r *GormSegmentPricingConfigRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.SegmentPricingConfigModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ExistsForTier reports whether a config is stored for the tier
func (r *GormSegmentPricingConfigRepository) ExistsForTier(ctx context.Context, tier pricing.TierType) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.SegmentPricingConfigModel{}).
		Where("tier = ?", tier).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormSegmentPricingConfigRepository implements the domain interface
var _ pricing.SegmentPricingConfigRepository = (*GormSegmentPricingConfigRepository)(nil)
