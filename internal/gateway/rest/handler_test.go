package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storepilot/internal/agent"
	"storepilot/internal/catalog"
	"storepilot/internal/sync"
)

type mockCatalog struct {
	testConnection  func(ctx context.Context, creds catalog.Credentials) catalog.ConnectionStatus
	getProductCount func(ctx context.Context, creds catalog.Credentials) (int, error)
	getAllProducts  func(ctx context.Context, creds catalog.Credentials) ([]catalog.RawProduct, error)
}

func (m *mockCatalog) TestConnection(ctx context.Context, creds catalog.Credentials) catalog.ConnectionStatus {
	return m.testConnection(ctx, creds)
}

func (m *mockCatalog) GetProductCount(ctx context.Context, creds catalog.Credentials) (int, error) {
	return m.getProductCount(ctx, creds)
}

func (m *mockCatalog) GetAllProducts(ctx context.Context, creds catalog.Credentials) ([]catalog.RawProduct, error) {
	return m.getAllProducts(ctx, creds)
}

type mockAgent struct {
	listReplicas        func(ctx context.Context, kind string) ([]agent.Replica, error)
	listKnowledgeBases  func(ctx context.Context, replicaUUID string) ([]agent.KnowledgeBaseEntry, error)
	ensureReplica       func(ctx context.Context, shopName string) (agent.Replica, error)
	createKnowledgeBase func(ctx context.Context, replicaUUID string, payload agent.KnowledgeBasePayload) (agent.Identifiers, error)
}

func (m *mockAgent) ListReplicas(ctx context.Context, kind string) ([]agent.Replica, error) {
	return m.listReplicas(ctx, kind)
}

func (m *mockAgent) ListKnowledgeBases(ctx context.Context, replicaUUID string) ([]agent.KnowledgeBaseEntry, error) {
	return m.listKnowledgeBases(ctx, replicaUUID)
}

func (m *mockAgent) EnsureReplica(ctx context.Context, shopName string) (agent.Replica, error) {
	return m.ensureReplica(ctx, shopName)
}

func (m *mockAgent) CreateKnowledgeBase(ctx context.Context, replicaUUID string, payload agent.KnowledgeBasePayload) (agent.Identifiers, error) {
	return m.createKnowledgeBase(ctx, replicaUUID, payload)
}

func defaultCatalog() *mockCatalog {
	return &mockCatalog{
		testConnection: func(context.Context, catalog.Credentials) catalog.ConnectionStatus {
			return catalog.ConnectionStatus{Connected: true, ShopName: "Test Shop"}
		},
		getProductCount: func(context.Context, catalog.Credentials) (int, error) {
			return 2, nil
		},
		getAllProducts: func(context.Context, catalog.Credentials) ([]catalog.RawProduct, error) {
			return []catalog.RawProduct{
				{ID: 1, Title: "Boots", Vendor: "Acme", Variants: []catalog.RawVariant{{Price: "80.00", InventoryQuantity: 2}}},
				{ID: 2, Title: "Hat", Vendor: "Beta", Variants: []catalog.RawVariant{{Price: "25.00", InventoryQuantity: 5}}},
			}, nil
		},
	}
}

func defaultAgent() *mockAgent {
	return &mockAgent{
		listReplicas: func(context.Context, string) ([]agent.Replica, error) {
			return []agent.Replica{{UUID: "u1", Name: "Bot", Tags: []string{"shopify"}}}, nil
		},
		listKnowledgeBases: func(context.Context, string) ([]agent.KnowledgeBaseEntry, error) {
			return []agent.KnowledgeBaseEntry{{ID: 7, Status: "READY"}}, nil
		},
		ensureReplica: func(_ context.Context, shopName string) (agent.Replica, error) {
			return agent.Replica{UUID: "u1", Name: shopName}, nil
		},
		createKnowledgeBase: func(_ context.Context, replicaUUID string, _ agent.KnowledgeBasePayload) (agent.Identifiers, error) {
			return agent.Identifiers{KnowledgeBaseID: 42, ReplicaUUID: replicaUUID, UserID: "user-1"}, nil
		},
	}
}

func newTestMux(catalogSvc CatalogService, agentSvc agent.Service) *http.ServeMux {
	mux := http.NewServeMux()
	NewHandler(catalogSvc, agentSvc, nil).RegisterRoutes(mux)
	return mux
}

func postJSON(mux *http.ServeMux, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func getPath(mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeAPIError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	return apiErr
}

// parseSSE extracts the data frames from a recorded SSE body.
func parseSSE(t *testing.T, body string) []sync.Event {
	t.Helper()

	var events []sync.Event
	for _, frame := range strings.Split(body, "\n\n") {
		frame = strings.TrimSpace(frame)
		if frame == "" || strings.HasPrefix(frame, ":") {
			continue
		}
		require.True(t, strings.HasPrefix(frame, "data: "), "unexpected frame %q", frame)

		var ev sync.Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(frame, "data: ")), &ev))
		events = append(events, ev)
	}
	return events
}

func TestSyncStreamHappyPath(t *testing.T) {
	mux := newTestMux(defaultCatalog(), defaultAgent())
	rec := postJSON(mux, "/api/shopify/sync", `{"domain":"shop.example","accessToken":"t"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), ": connected\n\n"))

	events := parseSSE(t, rec.Body.String())
	require.NotEmpty(t, events)

	last := events[len(events)-1]
	assert.Equal(t, sync.EventSuccess, last.Type)
	assert.Equal(t, 2, last.ProductCount)
	assert.Equal(t, "Test Shop", last.ShopName)
	assert.Equal(t, 42, last.KnowledgeBaseID)

	for i := 1; i < len(events); i++ {
		assert.GreaterOrEqual(t, events[i].Progress, events[i-1].Progress)
	}
}

func TestSyncStreamFailedProbe(t *testing.T) {
	c := defaultCatalog()
	c.testConnection = func(context.Context, catalog.Credentials) catalog.ConnectionStatus {
		return catalog.ConnectionStatus{Connected: false, Error: "Invalid access token for shop.example"}
	}

	mux := newTestMux(c, defaultAgent())
	rec := postJSON(mux, "/api/shopify/sync", `{"domain":"shop.example","accessToken":"bad"}`)

	// Streaming already started; failures arrive as events, not status codes.
	require.Equal(t, http.StatusOK, rec.Code)

	events := parseSSE(t, rec.Body.String())
	require.NotEmpty(t, events)

	last := events[len(events)-1]
	assert.Equal(t, sync.EventError, last.Type)
	assert.Contains(t, last.Message, "Invalid access token")

	terminals := 0
	for _, ev := range events {
		if ev.Terminal() {
			terminals++
		}
	}
	assert.Equal(t, 1, terminals)
}

func TestSyncStreamValidation(t *testing.T) {
	mux := newTestMux(defaultCatalog(), defaultAgent())

	tests := []struct {
		name string
		body string
	}{
		{"missing domain", `{"accessToken":"t"}`},
		{"missing token", `{"domain":"shop.example"}`},
		{"malformed json", `{`},
		{"unknown field", `{"domain":"d","accessToken":"t","shopDomain":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(mux, "/api/shopify/sync", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, ErrCodeBadRequest, decodeAPIError(t, rec).Code)
		})
	}
}

func TestSyncStreamInvalidFilter(t *testing.T) {
	mux := newTestMux(defaultCatalog(), defaultAgent())
	rec := postJSON(mux, "/api/shopify/sync",
		`{"domain":"shop.example","accessToken":"t","filter":"product.vendor =="}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeAPIError(t, rec).Message, "filter")
}

func TestSyncStreamAgentNotConfigured(t *testing.T) {
	mux := newTestMux(defaultCatalog(), nil)
	rec := postJSON(mux, "/api/shopify/sync", `{"domain":"shop.example","accessToken":"t"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, ErrCodeAgentUnavailable, decodeAPIError(t, rec).Code)
}

func TestDebugConnection(t *testing.T) {
	mux := newTestMux(defaultCatalog(), nil)
	rec := postJSON(mux, "/api/debug/connection", `{"domain":"shop.example","accessToken":"t"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp DebugConnectionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.ConnectionStatus.Connected)
	assert.Equal(t, "Test Shop", resp.ConnectionStatus.ShopName)
	assert.Equal(t, 2, resp.ProductCount)
}

func TestDebugProductsWithFilter(t *testing.T) {
	mux := newTestMux(defaultCatalog(), nil)
	rec := postJSON(mux, "/api/debug/products",
		`{"domain":"shop.example","accessToken":"t","filter":"product.vendor == \"Acme\""}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp DebugProductsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.TotalProducts)
	assert.Equal(t, 1, resp.FilteredProducts)
	require.Len(t, resp.ProcessedSample, 1)
	assert.Equal(t, "Boots", resp.ProcessedSample[0].Title)
}

func TestDebugFormat(t *testing.T) {
	mux := newTestMux(defaultCatalog(), nil)
	rec := postJSON(mux, "/api/debug/format", `{"domain":"shop.example","accessToken":"t"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp DebugFormatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Preview, "PRODUCT CATALOG (2 products)")
	assert.Equal(t, len(resp.Preview), resp.TotalLength)
	assert.NotEmpty(t, resp.Facts)
}

func TestListReplicas(t *testing.T) {
	mux := newTestMux(defaultCatalog(), defaultAgent())
	rec := getPath(mux, "/api/replicas?type=shopify")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ReplicaListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "u1", resp.Items[0].UUID)
}

func TestListReplicasInvalidType(t *testing.T) {
	mux := newTestMux(defaultCatalog(), defaultAgent())
	rec := getPath(mux, "/api/replicas?type=bogus")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListReplicasAgentNotConfigured(t *testing.T) {
	mux := newTestMux(defaultCatalog(), nil)
	rec := getPath(mux, "/api/replicas")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, ErrCodeAgentUnavailable, decodeAPIError(t, rec).Code)
}

func TestListKnowledgeBases(t *testing.T) {
	mux := newTestMux(defaultCatalog(), defaultAgent())
	rec := getPath(mux, "/api/knowledge-bases?replica=7f9c0a4e-1f2b-4c3d-9e8f-0a1b2c3d4e5f")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp KnowledgeBaseListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 7, resp.Items[0].ID)
}

func TestListKnowledgeBasesRequiresReplica(t *testing.T) {
	mux := newTestMux(defaultCatalog(), defaultAgent())

	rec := getPath(mux, "/api/knowledge-bases")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = getPath(mux, "/api/knowledge-bases?replica=not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	mux := newTestMux(defaultCatalog(), nil)
	rec := getPath(mux, "/health")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.False(t, resp.AgentConfigured)
}
