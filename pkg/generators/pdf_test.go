package generators

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/ssot"
)

func drawableDoc() *ssot.Document {
	doc := validDoc()
	doc.Metadata = &ssot.Metadata{
		ProjectName: "Tower B Residences",
		ClientName:  "Acme Development",
		Address:     "100 Main St",
	}
	doc.Items[0].GlassType = "3/8 clear tempered"
	doc.Items[0].Hardware = []string{"Chrome hinges", "8in pull"}
	doc.Assumptions = []string{"All glass tempered per code"}
	doc.Exclusions = []string{"Plumbing by others"}
	doc.Pricing.LineItems[0].Description = "Shower Enclosure (Inline Panel) at Master Bath"

	mirror := ssot.Item{
		ItemID:        "item-2",
		Category:      ssot.CategoryVanityMirror,
		UnitID:        "A-101",
		Location:      "Powder Room",
		Configuration: "vanity-mirror",
		Dimensions: map[string]ssot.Dimension{
			"width":  {Value: nil},
			"height": {Value: nil},
		},
		GlassType:       "1/4 mirror",
		Flags:           []string{ssot.FlagToBeVerifiedInField},
		QuantityPerUnit: 1,
	}
	doc.Items = append(doc.Items, mirror)
	doc.Pricing.LineItems = append(doc.Pricing.LineItems, ssot.LineItem{
		ItemID: "item-2", Description: "Vanity Mirror at Powder Room",
		UnitPrice: 262.5, Quantity: 1, TotalPrice: 262.5,
	})
	doc.Pricing.Subtotal = 1162.5
	doc.Pricing.Total = 1162.5
	return doc
}

func assertPDFWritten(t *testing.T, path string) {
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(1000), "suspiciously small PDF")

	head := make([]byte, 5)
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	_, err = f.Read(head)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(head))
}

func TestGenerateBidPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "bid-v1.pdf")
	require.NoError(t, GenerateBidPDF(drawableDoc(), path))
	assertPDFWritten(t, path)
}

func TestGenerateShopDrawingsPDF(t *testing.T) {
	t.Run("full drawing set", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "shop-drawings-v1.pdf")
		require.NoError(t, GenerateShopDrawingsPDF(drawableDoc(), path))
		assertPDFWritten(t, path)
	})

	t.Run("empty scope still produces a document", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "shop-drawings-v1.pdf")
		doc := &ssot.Document{Metadata: &ssot.Metadata{ProjectName: "Empty"}}
		require.NoError(t, GenerateShopDrawingsPDF(doc, path))
		assertPDFWritten(t, path)
	})
}

func TestAssignDrawingNumbers(t *testing.T) {
	items := []ssot.Item{
		{ItemID: "a", UnitID: "A-101"},
		{ItemID: "b", UnitID: "A-101"},
		{ItemID: "c", UnitID: "B-202"},
		{ItemID: "d"},
	}
	entries := assignDrawingNumbers(items)
	require.Len(t, entries, 4)
	assert.Equal(t, "SD-A-101-001", entries[0].number)
	assert.Equal(t, "SD-A-101-002", entries[1].number)
	assert.Equal(t, "SD-B-202-001", entries[2].number)
	assert.Equal(t, "SD-GEN-001", entries[3].number)
}

func TestTemplateForItem(t *testing.T) {
	assert.NotNil(t, templateForItem(&ssot.Item{Configuration: "90-degree-corner"}))
	// Unmapped configurations fall back by category.
	mirror := &ssot.Item{Configuration: "weird", Category: ssot.CategoryVanityMirror}
	assert.NotNil(t, templateForItem(mirror))
}
