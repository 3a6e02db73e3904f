package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"SKU[필수]", "sku"},
		{"sku_code", "skucode"},
		{"Price (KRW)", "pricekrw"},
		{"상품명[필수]", "상품명"},
		{"판매\n가격", "판매가격"},
		{"[필수]모델명[선택]", "모델명"},
		{"[]", ""},
		{"", ""},
		{"ㄱㄴ", ""}, // jamo are not Hangul syllables
		{"Ünïcode", "ncode"},
		{"A[unclosed", "aunclosed"},
		{"ID 123", "id123"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"SKU[필수]", "a[b]c[d]e", "[[nested]]", "판매\n가격(원)", "   ", "X-Y_Z", "[필수]",
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestIsRequired(t *testing.T) {
	assert.True(t, IsRequired("SKU[필수]"))
	assert.True(t, IsRequired("[필수]\n상품명"))
	assert.False(t, IsRequired("Price"))
	assert.False(t, IsRequired("필수"))
}

func TestDisplayLabel(t *testing.T) {
	assert.Equal(t, "판매 가격", DisplayLabel("판매\n가격"))
	assert.Equal(t, "a b c", DisplayLabel("a\r\nb\nc"))
	assert.Equal(t, "plain", DisplayLabel("plain"))
}
