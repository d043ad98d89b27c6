package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileFilterValid(t *testing.T) {
	prg, err := CompileFilter(`product.vendor == "Acme"`)
	require.NoError(t, err)
	assert.NotNil(t, prg)
}

func TestCompileFilterInvalid(t *testing.T) {
	tests := []string{
		"product.vendor ==",
		"nonexistent_var == 1",
		"product.vendor = \"Acme\"",
	}

	for _, expr := range tests {
		t.Run(expr, func(t *testing.T) {
			_, err := CompileFilter(expr)
			assert.Error(t, err)
		})
	}
}

func TestApplyFilter(t *testing.T) {
	products := []RawProduct{
		{ID: 1, Title: "Boots", Vendor: "Acme", ProductType: "Shoes", Status: "active"},
		{ID: 2, Title: "Hat", Vendor: "Acme", ProductType: "Hats", Status: "draft"},
		{ID: 3, Title: "Sandals", Vendor: "Beta", ProductType: "Shoes", Status: "active"},
	}

	tests := []struct {
		name    string
		expr    string
		wantIDs []int64
	}{
		{"by vendor", `product.vendor == "Acme"`, []int64{1, 2}},
		{"by type list", `product.product_type in ["Shoes"]`, []int64{1, 3}},
		{"conjunction", `product.vendor == "Acme" && product.status == "active"`, []int64{1}},
		{"no matches", `product.vendor == "Nobody"`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prg, err := CompileFilter(tt.expr)
			require.NoError(t, err)

			got := ApplyFilter(prg, products)
			ids := make([]int64, 0, len(got))
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			if tt.wantIDs == nil {
				assert.Empty(t, ids)
			} else {
				assert.Equal(t, tt.wantIDs, ids)
			}
		})
	}
}

func TestApplyFilterNilProgramMatchesAll(t *testing.T) {
	products := []RawProduct{{ID: 1}, {ID: 2}}
	assert.Equal(t, products, ApplyFilter(nil, products))
}

func TestApplyFilterNonBooleanResultSkips(t *testing.T) {
	prg, err := CompileFilter(`product.title`)
	require.NoError(t, err)

	got := ApplyFilter(prg, []RawProduct{{ID: 1, Title: "x"}})
	assert.Empty(t, got)
}
