package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/database"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/database/model"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/logger/log"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/ssot"
)

// Fallback rates when no pricebook rule matches. Dimensions default to the
// most common sizes in the shop's catalog.
const (
	defaultShowerRatePerSqft = 45.0
	defaultMirrorRatePerSqft = 35.0

	defaultShowerWidthIn  = 36.0
	defaultShowerHeightIn = 72.0
	defaultMirrorWidthIn  = 30.0
	defaultMirrorHeightIn = 36.0
)

const pricebookCacheKey = "pricebook:latest"

// formula is the parsed formula_json payload of a pricing rule.
type formula struct {
	Type      string  `json:"type"`
	UnitPrice float64 `json:"unitPrice"`
	Rate      float64 `json:"rate"`
	Amount    float64 `json:"amount"`
}

// appliesTo is the parsed applies_to payload of a pricing rule.
type appliesTo struct {
	Category      string `json:"category"`
	Configuration string `json:"configuration"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func dimValue(item *ssot.Item, key string, fallback float64) float64 {
	if dim, ok := item.Dimensions[key]; ok && dim.Value != nil {
		return *dim.Value
	}
	return fallback
}

// EvaluateFormula computes a unit price for an item. Unknown formula types
// price at zero so a bad pricebook row is visible rather than fatal.
func EvaluateFormula(f *formula, item *ssot.Item) float64 {
	switch f.Type {
	case "", "unit_price":
		return f.UnitPrice
	case "per_sqft":
		width := dimValue(item, "width", 0)
		height := dimValue(item, "height", 0)
		sqft := width * height / 144.0
		return f.Rate * sqft
	case "fixed":
		return f.Amount
	}
	return 0.0
}

// ruleApplies checks a rule's applies_to constraints against an item. Rules
// without constraints are universal.
func ruleApplies(rule *model.PricingRule, item *ssot.Item) bool {
	if len(rule.AppliesTo) == 0 {
		return true
	}
	var a appliesTo
	if err := json.Unmarshal(rule.AppliesTo, &a); err != nil {
		log.Warnf("unparseable applies_to on pricing rule %s: %v", rule.ID, err)
		return false
	}
	if a.Category != "" && item.Category != a.Category {
		return false
	}
	if a.Configuration != "" && item.Configuration != a.Configuration {
		return false
	}
	return true
}

// fallbackUnitPrice estimates from square footage when no rule matched.
func fallbackUnitPrice(item *ssot.Item) float64 {
	switch item.Category {
	case ssot.CategoryShowerEnclosure:
		w := dimValue(item, "width", defaultShowerWidthIn)
		h := dimValue(item, "height", defaultShowerHeightIn)
		return w * h / 144.0 * defaultShowerRatePerSqft
	case ssot.CategoryVanityMirror:
		w := dimValue(item, "width", defaultMirrorWidthIn)
		h := dimValue(item, "height", defaultMirrorHeightIn)
		return w * h / 144.0 * defaultMirrorRatePerSqft
	}
	return 0.0
}

// computeBreakdown splits a unit price into cost classes using industry
// norm percentages.
func computeBreakdown(item *ssot.Item, unitPrice float64) *ssot.Breakdown {
	glassPct, hardwarePct, laborPct, otherPct := 0.40, 0.25, 0.30, 0.05
	if item.Category == ssot.CategoryVanityMirror {
		glassPct, hardwarePct, laborPct, otherPct = 0.55, 0.10, 0.25, 0.10
	}
	return &ssot.Breakdown{
		Glass:    round2(unitPrice * glassPct),
		Hardware: round2(unitPrice * hardwarePct),
		Labor:    round2(unitPrice * laborPct),
		Other:    round2(unitPrice * otherPct),
	}
}

// lineItemDescription builds the human-readable bid row description.
func lineItemDescription(item *ssot.Item) string {
	parts := []string{titleCase(strings.ReplaceAll(item.Category, "_", " "))}
	if item.Configuration != "" {
		parts = append(parts, "("+titleCase(strings.ReplaceAll(item.Configuration, "-", " "))+")")
	}
	if item.Location != "" {
		parts = append(parts, "at "+item.Location)
	}
	return strings.Join(parts, " ")
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// latestPricebook serves the pricebook through the in-process cache so a
// busy queue does not hammer the pricing tables on every job.
func (r *Runner) latestPricebook(ctx context.Context) (*model.PricebookVersion, []*model.PricingRule, error) {
	type cached struct {
		version *model.PricebookVersion
		rules   []*model.PricingRule
	}
	if v, ok := r.priceCache.Get(pricebookCacheKey); ok {
		c := v.(*cached)
		return c.version, c.rules, nil
	}
	version, rules, err := r.pricebooks.LatestPricebook(ctx)
	if err != nil {
		return nil, nil, err
	}
	r.priceCache.SetDefault(pricebookCacheKey, &cached{version: version, rules: rules})
	return version, rules, nil
}

// runPricing prices every item against the latest pricebook and snapshots
// the applied rules into the SSOT. Manual overrides from a previous pricing
// round survive re-pricing untouched.
func (r *Runner) runPricing(ctx context.Context, job *model.Job) error {
	log.Infof("starting PRICING stage for job %s", job.ID)
	if err := r.jobs.UpdateJobStatus(ctx, job.ID, model.JobStatusPricing, &database.JobUpdate{Actor: r.cfg.WorkerID}); err != nil {
		return err
	}

	doc, err := ssot.Load(job.SSOT)
	if err != nil {
		return err
	}

	pricebook, rules, err := r.latestPricebook(ctx)
	if err != nil {
		return err
	}

	var overrides map[string]*ssot.LineItem
	if doc.Pricing != nil {
		overrides = make(map[string]*ssot.LineItem, len(doc.Pricing.LineItems))
		for i := range doc.Pricing.LineItems {
			li := &doc.Pricing.LineItems[i]
			if li.ManualOverride {
				overrides[li.ItemID] = li
			}
		}
	}

	var lineItems []ssot.LineItem
	subtotal := 0.0

	for i := range doc.Items {
		item := &doc.Items[i]

		if existing, ok := overrides[item.ItemID]; ok {
			lineItems = append(lineItems, *existing)
			subtotal += existing.TotalPrice
			continue
		}

		unitPrice := 0.0
		var appliedRule *model.PricingRule
		for _, rule := range rules {
			if !ruleApplies(rule, item) {
				continue
			}
			var f formula
			if err := json.Unmarshal(rule.FormulaJSON, &f); err != nil {
				log.Warnf("unparseable formula on pricing rule %s: %v", rule.ID, err)
				continue
			}
			unitPrice = EvaluateFormula(&f, item)
			appliedRule = rule
			break
		}

		if unitPrice == 0 && appliedRule == nil {
			unitPrice = fallbackUnitPrice(item)
		}

		qty := item.QuantityPerUnit
		if qty == 0 {
			qty = 1
		}
		totalPrice := round2(unitPrice * float64(qty))
		lineItems = append(lineItems, ssot.LineItem{
			ItemID:         item.ItemID,
			Description:    lineItemDescription(item),
			UnitPrice:      round2(unitPrice),
			Quantity:       qty,
			TotalPrice:     totalPrice,
			Breakdown:      computeBreakdown(item, unitPrice),
			ManualOverride: false,
			OverrideReason: nil,
		})
		subtotal += totalPrice
	}

	// Tax is not charged yet; the field stays in the document for when the
	// shop starts invoicing taxable jurisdictions.
	taxRate := 0.0
	tax := round2(subtotal * taxRate)
	total := round2(subtotal + tax)

	pricing := &ssot.Pricing{
		Rules:     []ssot.RuleSnapshot{},
		LineItems: lineItems,
		Subtotal:  round2(subtotal),
		Tax:       tax,
		Total:     total,
	}
	if pricebook != nil {
		id := pricebook.ID
		pricing.PricebookVersionID = &id
		if pricebook.EffectiveDate != nil {
			date := pricebook.EffectiveDate.Format("2006-01-02T15:04:05Z07:00")
			pricing.PricebookSnapshotDate = &date
		}
	}
	for _, rule := range rules {
		pricing.Rules = append(pricing.Rules, ssot.RuleSnapshot{
			RuleID:    rule.ID,
			Name:      rule.Name,
			Category:  rule.Category,
			Formula:   rule.FormulaJSON,
			AppliesTo: rule.AppliesTo,
		})
	}
	doc.Pricing = pricing

	raw, err := doc.Dump()
	if err != nil {
		return err
	}
	if err := r.jobs.UpdateJobStatus(ctx, job.ID, model.JobStatusPriced, &database.JobUpdate{
		SSOT: raw,
		StageProgress: stageProgress(map[string]interface{}{
			"stage":      "pricing",
			"status":     "complete",
			"line_items": len(lineItems),
			"total":      total,
		}),
		Actor: r.cfg.WorkerID,
	}); err != nil {
		return err
	}
	log.Infof("PRICING complete for job %s: %d line items, total %s",
		job.ID, len(lineItems), fmt.Sprintf("%.2f", total))
	return nil
}
