package rest

import (
	"net/http"

	"storepilot/internal/catalog"
)

// Debug endpoints exercise each pipeline step in isolation and return the
// intermediate values as JSON. They never touch the agent platform.

const (
	debugSampleSize    = 3
	debugPreviewLength = 2000
)

// DebugConnectionResponse reports the outcome of a connection probe.
type DebugConnectionResponse struct {
	ConnectionStatus catalog.ConnectionStatus `json:"connectionStatus"`
	ProductCount     int                      `json:"productCount,omitempty"`
	CountError       string                   `json:"countError,omitempty"`
}

func (h *Handler) handleDebugConnection(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAndValidate[SyncRequest](r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	creds := catalog.Credentials{Domain: req.Domain, AccessToken: req.AccessToken}
	resp := DebugConnectionResponse{
		ConnectionStatus: h.catalog.TestConnection(r.Context(), creds),
	}

	if resp.ConnectionStatus.Connected {
		count, err := h.catalog.GetProductCount(r.Context(), creds)
		if err != nil {
			resp.CountError = err.Error()
		} else {
			resp.ProductCount = count
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// DebugProductsResponse carries raw and processed product samples.
type DebugProductsResponse struct {
	TotalProducts    int                        `json:"totalProducts"`
	FilteredProducts int                        `json:"filteredProducts"`
	RawSample        []catalog.RawProduct       `json:"rawSample"`
	ProcessedSample  []catalog.ProcessedProduct `json:"processedSample"`
}

func (h *Handler) handleDebugProducts(w http.ResponseWriter, r *http.Request) {
	req, raw, ok := h.fetchCatalog(w, r)
	if !ok {
		return
	}

	filtered := raw
	if req.Filter != "" {
		prg, err := catalog.CompileFilter(req.Filter)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeBadRequest,
				"invalid filter expression: "+err.Error())
			return
		}
		filtered = catalog.ApplyFilter(prg, raw)
	}

	processed := catalog.ProcessProducts(filtered)

	writeJSON(w, http.StatusOK, DebugProductsResponse{
		TotalProducts:    len(raw),
		FilteredProducts: len(filtered),
		RawSample:        sample(raw, debugSampleSize),
		ProcessedSample:  sample(processed, debugSampleSize),
	})
}

// DebugFormatResponse previews the knowledge base text as it would be
// uploaded, truncated to a displayable length.
type DebugFormatResponse struct {
	Preview     string   `json:"preview"`
	TotalLength int      `json:"totalLength"`
	Facts       []string `json:"facts"`
}

func (h *Handler) handleDebugFormat(w http.ResponseWriter, r *http.Request) {
	req, raw, ok := h.fetchCatalog(w, r)
	if !ok {
		return
	}

	products := catalog.ProcessProducts(raw)
	text := catalog.FormatKnowledgeText(products)

	preview := text
	if len(preview) > debugPreviewLength {
		preview = preview[:debugPreviewLength]
	}

	writeJSON(w, http.StatusOK, DebugFormatResponse{
		Preview:     preview,
		TotalLength: len(text),
		Facts:       catalog.GenerateFacts(req.Domain, products),
	})
}

// fetchCatalog validates the request and fetches the full raw catalog.
// On failure it writes the error response and returns ok=false.
func (h *Handler) fetchCatalog(w http.ResponseWriter, r *http.Request) (SyncRequest, []catalog.RawProduct, bool) {
	req, err := decodeAndValidate[SyncRequest](r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return req, nil, false
	}

	creds := catalog.Credentials{Domain: req.Domain, AccessToken: req.AccessToken}
	raw, err := h.catalog.GetAllProducts(r.Context(), creds)
	if err != nil {
		writeError(w, http.StatusBadGateway, ErrCodeUpstreamError,
			"Failed to fetch products: "+err.Error())
		return req, nil, false
	}
	return req, raw, true
}

func sample[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
