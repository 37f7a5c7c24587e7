package model

import (
	"encoding/json"
	"time"
)

const (
	TableNamePricebookVersion = "pricebook_versions"
	TableNamePricingRule      = "pricing_rules"
)

// PricebookVersion mapped from table <pricebook_versions>. The pricing stage
// always uses the highest version.
type PricebookVersion struct {
	ID            string     `gorm:"column:id;primaryKey;size:64" json:"id"`
	Version       int        `gorm:"column:version;not null" json:"version"`
	EffectiveDate *time.Time `gorm:"column:effective_date" json:"effective_date,omitempty"`
	Notes         string     `gorm:"column:notes;size:1024" json:"notes,omitempty"`
	CreatedAt     time.Time  `gorm:"column:created_at" json:"created_at"`
}

// TableName PricebookVersion's table name
func (*PricebookVersion) TableName() string {
	return TableNamePricebookVersion
}

// PricingRule mapped from table <pricing_rules>. FormulaJSON and AppliesTo
// are opaque jsonb payloads evaluated by the pricing stage.
type PricingRule struct {
	ID                 string          `gorm:"column:id;primaryKey;size:64" json:"id"`
	PricebookVersionID string          `gorm:"column:pricebook_version_id;not null;size:64;index" json:"pricebook_version_id"`
	Name               string          `gorm:"column:name;size:256" json:"name"`
	Category           string          `gorm:"column:category;size:64" json:"category,omitempty"`
	FormulaJSON        json.RawMessage `gorm:"column:formula_json;type:jsonb" json:"formula_json,omitempty"`
	AppliesTo          json.RawMessage `gorm:"column:applies_to;type:jsonb" json:"applies_to,omitempty"`
	IsActive           bool            `gorm:"column:is_active;default:true" json:"is_active"`
}

// TableName PricingRule's table name
func (*PricingRule) TableName() string {
	return TableNamePricingRule
}
