package generators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/ssot"
)

func validDoc() *ssot.Document {
	w, h := 36.0, 72.0
	return &ssot.Document{
		Items: []ssot.Item{{
			ItemID:        "item-1",
			Category:      ssot.CategoryShowerEnclosure,
			UnitID:        "A-101",
			Location:      "Master Bath",
			Configuration: "inline-panel",
			Dimensions: map[string]ssot.Dimension{
				"width":  {Value: &w, Unit: "in"},
				"height": {Value: &h, Unit: "in"},
			},
			QuantityPerUnit: 1,
		}},
		Pricing: &ssot.Pricing{
			LineItems: []ssot.LineItem{{
				ItemID: "item-1", UnitPrice: 900, Quantity: 1, TotalPrice: 900,
			}},
			Subtotal: 900, Total: 900,
		},
	}
}

func codes(errs []ValidationError) []string {
	var out []string
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}

func TestValidateForGeneration(t *testing.T) {
	t.Run("clean document passes", func(t *testing.T) {
		assert.Empty(t, ValidateForGeneration(validDoc()))
	})

	t.Run("subtotal mismatch is a math error", func(t *testing.T) {
		doc := validDoc()
		doc.Pricing.Subtotal = 800
		assert.Contains(t, codes(ValidateForGeneration(doc)), CodeMathError)
	})

	t.Run("penny drift is tolerated", func(t *testing.T) {
		doc := validDoc()
		doc.Pricing.Subtotal = 900.009
		assert.Empty(t, ValidateForGeneration(doc))
	})

	t.Run("shower dimension out of range", func(t *testing.T) {
		doc := validDoc()
		big := 300.0
		doc.Items[0].Dimensions["width"] = ssot.Dimension{Value: &big}
		assert.Contains(t, codes(ValidateForGeneration(doc)), CodeRangeError)
	})

	t.Run("mirror range is tighter", func(t *testing.T) {
		doc := validDoc()
		v := 130.0 // fine for a shower, too wide for a mirror
		doc.Items[0].Category = ssot.CategoryVanityMirror
		doc.Items[0].Dimensions["width"] = ssot.Dimension{Value: &v}
		assert.Contains(t, codes(ValidateForGeneration(doc)), CodeRangeError)
	})

	t.Run("unpriced item and orphan line item", func(t *testing.T) {
		doc := validDoc()
		doc.Pricing.LineItems[0].ItemID = "item-other"
		got := codes(ValidateForGeneration(doc))
		count := 0
		for _, c := range got {
			if c == CodeConsistencyError {
				count++
			}
		}
		assert.Equal(t, 2, count, "both directions flagged")
	})

	t.Run("null dimension without tbv flag", func(t *testing.T) {
		doc := validDoc()
		doc.Items[0].Dimensions["height"] = ssot.Dimension{Value: nil}
		assert.Contains(t, codes(ValidateForGeneration(doc)), CodeCompletenessError)
	})

	t.Run("null dimension with tbv flag passes", func(t *testing.T) {
		doc := validDoc()
		doc.Items[0].Dimensions["height"] = ssot.Dimension{Value: nil}
		doc.Items[0].Flags = []string{ssot.FlagToBeVerifiedInField}
		assert.Empty(t, ValidateForGeneration(doc))
	})

	t.Run("unknown configuration", func(t *testing.T) {
		doc := validDoc()
		doc.Items[0].Configuration = "unknown"
		assert.Contains(t, codes(ValidateForGeneration(doc)), CodeTemplateError)
	})

	t.Run("duplicate key is a warning only", func(t *testing.T) {
		doc := validDoc()
		dup := doc.Items[0]
		dup.ItemID = "item-2"
		doc.Items = append(doc.Items, dup)
		doc.Pricing.LineItems = append(doc.Pricing.LineItems, ssot.LineItem{
			ItemID: "item-2", UnitPrice: 900, Quantity: 1, TotalPrice: 900,
		})
		doc.Pricing.Subtotal = 1800
		doc.Pricing.Total = 1800

		errs := ValidateForGeneration(doc)
		require.Len(t, errs, 1)
		assert.Equal(t, CodeDuplicateWarning, errs[0].Code)
		assert.False(t, errs[0].IsBlocking())
		assert.Empty(t, BlockingErrors(errs))
	})

	t.Run("higher quantity is not a duplicate", func(t *testing.T) {
		doc := validDoc()
		dup := doc.Items[0]
		dup.ItemID = "item-2"
		dup.QuantityPerUnit = 4
		doc.Items = append(doc.Items, dup)
		doc.Pricing.LineItems = append(doc.Pricing.LineItems, ssot.LineItem{
			ItemID: "item-2", UnitPrice: 900, Quantity: 4, TotalPrice: 3600,
		})
		doc.Pricing.Subtotal = 4500
		doc.Pricing.Total = 4500
		assert.Empty(t, ValidateForGeneration(doc))
	})
}
