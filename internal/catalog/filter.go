package catalog

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/cel-go/cel"
)

// filterEnv lazily builds the shared CEL environment for product filters.
// The single declared variable is "product", a map of the raw product's
// scalar fields. Construction failure surfaces through CompileFilter
// instead of leaving a nil environment behind.
var filterEnv = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("product", cel.MapType(cel.StringType, cel.DynType)),
	)
})

// CompileFilter compiles a CEL expression used to select which products
// take part in a sync, e.g. `product.vendor == "Acme"` or
// `product.product_type in ["Shoes", "Hats"]`. An invalid expression is an
// input error and should be rejected before any network call.
func CompileFilter(expr string) (cel.Program, error) {
	env, err := filterEnv()
	if err != nil {
		return nil, fmt.Errorf("filter environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}
	return prg, nil
}

// ApplyFilter returns the products matching the compiled filter, preserving
// input order. A nil program matches everything. Products whose evaluation
// errors (e.g. the expression touches a missing field) are skipped.
func ApplyFilter(prg cel.Program, products []RawProduct) []RawProduct {
	if prg == nil {
		return products
	}

	matched := make([]RawProduct, 0, len(products))
	for _, p := range products {
		out, _, err := prg.Eval(map[string]interface{}{
			"product": productFilterMap(p),
		})
		if err != nil {
			slog.Debug("Filter evaluation skipped product", "product_id", p.ID, "error", err)
			continue
		}
		if keep, ok := out.Value().(bool); ok && keep {
			matched = append(matched, p)
		}
	}
	return matched
}

// productFilterMap exposes the raw product's scalar fields to filter
// expressions.
func productFilterMap(p RawProduct) map[string]interface{} {
	return map[string]interface{}{
		"id":           p.ID,
		"title":        p.Title,
		"vendor":       p.Vendor,
		"product_type": p.ProductType,
		"tags":         p.Tags,
		"status":       p.Status,
	}
}
