package catalog

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// stripHTML converts a Shopify body_html fragment into plain text.
func stripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// ProcessProducts normalizes raw products into the shape used for
// knowledge-base formatting. It is pure and total: missing optional fields
// map to defined defaults and malformed input never causes an error.
// Output order matches input order, one processed product per raw product.
func ProcessProducts(raw []RawProduct) []ProcessedProduct {
	processed := make([]ProcessedProduct, 0, len(raw))

	for _, p := range raw {
		out := ProcessedProduct{
			ID:          p.ID,
			Title:       p.Title,
			Description: stripHTML(p.BodyHTML),
			Variants:    make([]ProcessedVariant, 0, len(p.Variants)),
		}

		for _, v := range p.Variants {
			out.Variants = append(out.Variants, ProcessedVariant{
				Title:     v.Title,
				Price:     v.Price,
				SKU:       v.SKU,
				Inventory: v.InventoryQuantity,
			})
			out.Inventory += v.InventoryQuantity
		}

		// The display price is the first variant's price, Shopify's own
		// default ordering.
		if len(p.Variants) > 0 {
			out.Price = p.Variants[0].Price
		}

		processed = append(processed, out)
	}

	return processed
}

// FormatKnowledgeText serializes processed products into a single plain-text
// document for knowledge-base ingestion. Deterministic: identical input
// yields byte-identical output. Exported so debug endpoints and tests call
// it directly instead of reaching into sync internals.
func FormatKnowledgeText(products []ProcessedProduct) string {
	var b strings.Builder

	fmt.Fprintf(&b, "PRODUCT CATALOG (%d products)\n", len(products))

	for _, p := range products {
		b.WriteString("\n---\n")
		fmt.Fprintf(&b, "Product: %s\n", p.Title)
		fmt.Fprintf(&b, "ID: %d\n", p.ID)
		if p.Price != "" {
			fmt.Fprintf(&b, "Price: %s\n", p.Price)
		}
		fmt.Fprintf(&b, "Inventory: %d\n", p.Inventory)
		if p.Description != "" {
			fmt.Fprintf(&b, "Description: %s\n", p.Description)
		}
		if len(p.Variants) > 0 {
			b.WriteString("Variants:\n")
			for _, v := range p.Variants {
				fmt.Fprintf(&b, "  - %s (price %s, stock %d)\n", v.Title, v.Price, v.Inventory)
			}
		}
	}

	return b.String()
}

// GenerateFacts derives standalone fact lines from the processed catalog.
// These accompany the raw text in the knowledge-base payload so the agent
// can answer aggregate questions without parsing the full document.
func GenerateFacts(shopName string, products []ProcessedProduct) []string {
	if shopName == "" {
		shopName = "This store"
	}

	facts := []string{
		fmt.Sprintf("%s sells %d products.", shopName, len(products)),
	}

	if len(products) == 0 {
		return facts
	}

	minPrice, maxPrice, priced := priceRange(products)
	if priced {
		facts = append(facts, fmt.Sprintf("Prices range from %.2f to %.2f.", minPrice, maxPrice))
	}

	totalInventory := 0
	for _, p := range products {
		totalInventory += p.Inventory
	}
	facts = append(facts, fmt.Sprintf("Total inventory across all products is %d units.", totalInventory))

	titles := make([]string, 0, len(products))
	for _, p := range products {
		if p.Title != "" {
			titles = append(titles, p.Title)
		}
	}
	sort.Strings(titles)
	if len(titles) > 0 {
		const maxListed = 20
		if len(titles) > maxListed {
			titles = titles[:maxListed]
		}
		facts = append(facts, fmt.Sprintf("Available products include: %s.", strings.Join(titles, ", ")))
	}

	return facts
}

// priceRange returns the min and max parseable variant price across the
// catalog. Unparsable prices are skipped; ok is false when none parsed.
func priceRange(products []ProcessedProduct) (minPrice, maxPrice float64, ok bool) {
	for _, p := range products {
		for _, v := range p.Variants {
			f, err := strconv.ParseFloat(v.Price, 64)
			if err != nil {
				continue
			}
			if !ok {
				minPrice, maxPrice, ok = f, f, true
				continue
			}
			if f < minPrice {
				minPrice = f
			}
			if f > maxPrice {
				maxPrice = f
			}
		}
	}
	return minPrice, maxPrice, ok
}
