package catalog

// Credentials identifies one storefront for the duration of a single request.
// They are supplied by the browser per call and never persisted server-side.
type Credentials struct {
	Domain      string `json:"domain"`
	AccessToken string `json:"accessToken"`
}

// ConnectionStatus is the result of a connectivity probe against the
// storefront API. Expected failure modes (bad token, unreachable domain)
// are reported here rather than as errors.
type ConnectionStatus struct {
	Connected bool   `json:"connected"`
	ShopName  string `json:"shopName,omitempty"`
	Error     string `json:"error,omitempty"`
}

// RawProduct is a product as returned by the Shopify Admin REST API.
// Held only for the duration of one sync request.
type RawProduct struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	BodyHTML    string       `json:"body_html"`
	Vendor      string       `json:"vendor"`
	ProductType string       `json:"product_type"`
	Tags        string       `json:"tags"`
	Status      string       `json:"status"`
	Variants    []RawVariant `json:"variants"`
}

// RawVariant is a product variant as returned by the Shopify Admin REST API.
type RawVariant struct {
	ID                int64  `json:"id"`
	Title             string `json:"title"`
	Price             string `json:"price"`
	SKU               string `json:"sku"`
	InventoryQuantity int    `json:"inventory_quantity"`
}

// ProcessedProduct is the normalized projection of a RawProduct used for
// knowledge-base formatting. Derived deterministically, one per RawProduct.
type ProcessedProduct struct {
	ID          int64              `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Price       string             `json:"price"`
	Variants    []ProcessedVariant `json:"variants"`
	Inventory   int                `json:"inventory"`
}

// ProcessedVariant is the normalized projection of a RawVariant.
type ProcessedVariant struct {
	Title     string `json:"title"`
	Price     string `json:"price"`
	SKU       string `json:"sku,omitempty"`
	Inventory int    `json:"inventory"`
}
