package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	persisted := NewConfig("acme")
	persisted.Set("Origin", Constant("국산", FormatText))
	persisted.Set("SKU[필수]", ColumnRef("sku_code", FormatText))
	persisted.Set("Price", ColumnRef("old_price", FormatNumber))
	persisted.Set("Brand", ColumnRef("maker", FormatGeneral))

	sources := []string{"sku_code", "price_krw", "brand_name"}

	tests := []struct {
		name       string
		target     string
		persisted  *Config
		want       Entry
		provenance Provenance
	}{
		{"stored constant", "Origin", persisted, Constant("국산", FormatText), FromStore},
		{"stored column present", "SKU[필수]", persisted, ColumnRef("sku_code", FormatText), FromStore},
		{"stored column drifted falls back to auto", "Price", persisted, ColumnRef("price_krw", FormatGeneral), AutoMatched},
		{"stored column drifted, auto match on a renamed column", "Brand", persisted, ColumnRef("brand_name", FormatGeneral), AutoMatched},
		{"nothing stored, auto match", "SKU[필수]", nil, ColumnRef("sku_code", FormatGeneral), AutoMatched},
		{"nothing at all", "Weight", persisted, Unmapped(), NoMatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, p := Resolve(tt.target, tt.persisted, sources)
			assert.Equal(t, tt.want, e)
			assert.Equal(t, tt.provenance, p)
		})
	}
}

func TestResolveDriftNeverFromStore(t *testing.T) {
	persisted := NewConfig("acme")
	persisted.Set("Color", ColumnRef("colour", FormatText))

	e, p := Resolve("Color", persisted, []string{"size"})
	assert.NotEqual(t, FromStore, p)
	assert.Equal(t, NoMatch, p)
	assert.True(t, e.IsUnmapped())
}

func TestResolveAll(t *testing.T) {
	persisted := NewConfig("acme")
	persisted.Set("Origin", Constant("N/A", FormatGeneral))

	res := ResolveAll("acme", []string{"SKU[필수]", "Price", "Origin", "Weight"}, persisted, []string{"sku_code", "price_krw"})

	assert.Equal(t, "acme", res.Config.Vendor)
	assert.Equal(t, 3, res.Config.Len())
	assert.Equal(t, ColumnRef("price_krw", FormatGeneral), res.Config.Get("Price"))
	assert.True(t, res.Config.Get("Weight").IsUnmapped())
	assert.Equal(t, 1, res.Count(FromStore))
	assert.Equal(t, 2, res.Count(AutoMatched))
	assert.Equal(t, 1, res.Count(NoMatch))
}
