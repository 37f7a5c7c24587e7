// Package generators produces the customer-facing artifacts: the bid PDF
// and the shop drawings PDF, gated by a QA validation pass over the SSOT.
package generators

import (
	"fmt"
	"math"
	"strings"

	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/logger/log"
	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/ssot"
)

// Validation error codes. Codes containing WARNING never block generation.
const (
	CodeMathError         = "MATH_ERROR"
	CodeRangeError        = "RANGE_ERROR"
	CodeConsistencyError  = "CONSISTENCY_ERROR"
	CodeCompletenessError = "COMPLETENESS_ERROR"
	CodeTemplateError     = "TEMPLATE_ERROR"
	CodeDuplicateWarning  = "DUPLICATE_WARNING"
)

// ValidationError is one finding of the QA gate.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	ItemID  string `json:"itemId,omitempty"`
}

// IsBlocking reports whether the finding stops generation.
func (e *ValidationError) IsBlocking() bool {
	return !strings.Contains(e.Code, "WARNING")
}

// BlockingErrors filters a finding list down to the generation stoppers.
func BlockingErrors(errs []ValidationError) []ValidationError {
	var blocking []ValidationError
	for _, e := range errs {
		if e.IsBlocking() {
			blocking = append(blocking, e)
		}
	}
	return blocking
}

// ValidateForGeneration runs the full QA pass. An empty result means the
// document is safe to generate from.
func ValidateForGeneration(doc *ssot.Document) []ValidationError {
	var errs []ValidationError

	var lineItems []ssot.LineItem
	declaredSubtotal := 0.0
	if doc.Pricing != nil {
		lineItems = doc.Pricing.LineItems
		declaredSubtotal = doc.Pricing.Subtotal
	}

	// Math: line item totals must add up to the declared subtotal.
	computedSubtotal := 0.0
	for _, li := range lineItems {
		computedSubtotal += li.TotalPrice
	}
	if math.Abs(computedSubtotal-declaredSubtotal) > 0.01 {
		errs = append(errs, ValidationError{
			Code: CodeMathError,
			Message: fmt.Sprintf("Sum of line item totals (%.2f) != declared subtotal (%.2f)",
				computedSubtotal, declaredSubtotal),
		})
	}

	// Ranges: fabricable dimensions only.
	for _, item := range doc.Items {
		for _, dimKey := range []string{"width", "height"} {
			dim, ok := item.Dimensions[dimKey]
			if !ok || dim.Value == nil {
				continue
			}
			val := *dim.Value
			switch item.Category {
			case ssot.CategoryShowerEnclosure:
				if val < 6 || val > 240 {
					errs = append(errs, ValidationError{
						Code:    CodeRangeError,
						Message: fmt.Sprintf(`Shower %s (%g") out of range [6, 240]`, dimKey, val),
						ItemID:  item.ItemID,
					})
				}
			case ssot.CategoryVanityMirror:
				if val < 6 || val > 120 {
					errs = append(errs, ValidationError{
						Code:    CodeRangeError,
						Message: fmt.Sprintf(`Mirror %s (%g") out of range [6, 120]`, dimKey, val),
						ItemID:  item.ItemID,
					})
				}
			}
		}
	}

	// Consistency: items and pricing rows must pair up both ways.
	itemIDs := make(map[string]bool, len(doc.Items))
	for _, item := range doc.Items {
		itemIDs[item.ItemID] = true
	}
	pricedIDs := make(map[string]bool, len(lineItems))
	for _, li := range lineItems {
		pricedIDs[li.ItemID] = true
	}
	for _, item := range doc.Items {
		if !pricedIDs[item.ItemID] {
			errs = append(errs, ValidationError{
				Code:    CodeConsistencyError,
				Message: fmt.Sprintf("Item %s has no corresponding pricing line item", item.ItemID),
				ItemID:  item.ItemID,
			})
		}
	}
	for _, li := range lineItems {
		if !itemIDs[li.ItemID] {
			errs = append(errs, ValidationError{
				Code:    CodeConsistencyError,
				Message: fmt.Sprintf("Pricing line item %s has no corresponding item", li.ItemID),
				ItemID:  li.ItemID,
			})
		}
	}

	// Completeness: a null dimension is only acceptable once the field
	// crew has been assigned to verify it.
	for _, item := range doc.Items {
		for _, dimKey := range []string{"width", "height"} {
			dim, ok := item.Dimensions[dimKey]
			if ok && dim.Value != nil {
				continue
			}
			if !item.HasFlag(ssot.FlagToBeVerifiedInField) {
				errs = append(errs, ValidationError{
					Code:    CodeCompletenessError,
					Message: fmt.Sprintf("Item %s has null %s without TBV flag", item.ItemID, dimKey),
					ItemID:  item.ItemID,
				})
			}
		}
	}

	// Template mapping: every item must resolve to a drawing template.
	for _, item := range doc.Items {
		if item.Configuration == "" || item.Configuration == "unknown" {
			errs = append(errs, ValidationError{
				Code:    CodeTemplateError,
				Message: fmt.Sprintf("Item %s has no configuration mapping", item.ItemID),
				ItemID:  item.ItemID,
			})
		}
	}

	// Duplicates: same unit, location and category with quantity 1 smells
	// like a double extraction. Non-blocking.
	type dupKey struct{ unitID, location, category string }
	seen := make(map[dupKey]bool)
	for _, item := range doc.Items {
		key := dupKey{item.UnitID, item.Location, item.Category}
		qty := item.QuantityPerUnit
		if qty == 0 {
			qty = 1
		}
		if seen[key] && qty <= 1 {
			errs = append(errs, ValidationError{
				Code:    CodeDuplicateWarning,
				Message: fmt.Sprintf("Possible duplicate: (%s, %s, %s)", key.unitID, key.location, key.category),
				ItemID:  item.ItemID,
			})
		}
		seen[key] = true
	}

	if len(errs) > 0 {
		log.Warnf("ssot validation failed with %d finding(s)", len(errs))
	} else {
		log.Infof("ssot validation passed")
	}
	return errs
}
