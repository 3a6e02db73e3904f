package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggest(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		sources []string
		want    string
		found   bool
	}{
		{"exact after normalization", "SKU[필수]", []string{"name", "sku"}, "sku", true},
		{"substring", "SKU[필수]", []string{"name", "sku_code"}, "sku_code", true},
		{"earlier substring beats later exact", "Price", []string{"price_krw", "price"}, "price_krw", true},
		{"no candidate", "Color", []string{"sku", "price"}, "", false},
		{"empty normalized target", "[필수]", []string{"anything"}, "", false},
		{"target longer than source", "price_krw", []string{"price"}, "", false},
		{"hangul", "상품명[필수]", []string{"코드", "상품명(국문)"}, "상품명(국문)", true},
		{"empty sources", "SKU", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Suggest(tt.target, tt.sources)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSuggestExactMatchFound(t *testing.T) {
	pairs := [][2]string{
		{"SKU[필수]", "sku"},
		{"Brand Name", "brand_name"},
		{"판매\n가격", "판매가격"},
	}

	for _, p := range pairs {
		got, ok := Suggest(p[0], []string{p[1], "zzz", "other"})
		assert.True(t, ok)
		assert.Equal(t, p[1], got)
	}
}
