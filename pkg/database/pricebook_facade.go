package database

import (
	"context"

	"gorm.io/gorm"

	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/database/model"
)

type PricebookFacadeInterface interface {
	// LatestPricebook returns the highest-version pricebook and its active
	// rules. Returns (nil, nil, nil) when no pricebook has been loaded yet;
	// pricing then falls back to built-in rates.
	LatestPricebook(ctx context.Context) (*model.PricebookVersion, []*model.PricingRule, error)
}

type PricebookFacade struct {
	BaseFacade
}

func NewPricebookFacade() PricebookFacadeInterface {
	return &PricebookFacade{}
}

func (f *PricebookFacade) LatestPricebook(ctx context.Context) (*model.PricebookVersion, []*model.PricingRule, error) {
	db := f.getDB().WithContext(ctx)
	var version model.PricebookVersion
	result := db.Order("version DESC").First(&version)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil, nil
		}
		return nil, nil, result.Error
	}
	var rules []*model.PricingRule
	result = db.
		Where("pricebook_version_id = ? AND is_active = ?", version.ID, true).
		Order("name ASC").
		Find(&rules)
	if result.Error != nil {
		return nil, nil, result.Error
	}
	return &version, rules, nil
}
