package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
)

// ErrMissingAPIKey is returned by NewClient when no service key is
// configured. Callers degrade the affected endpoints to a 500 instead of
// refusing to start.
var ErrMissingAPIKey = errors.New("agent API key is not configured")

// Service is the agent platform surface the rest of the application
// depends on.
type Service interface {
	ListReplicas(ctx context.Context, kind string) ([]Replica, error)
	ListKnowledgeBases(ctx context.Context, replicaUUID string) ([]KnowledgeBaseEntry, error)
	EnsureReplica(ctx context.Context, shopName string) (Replica, error)
	CreateKnowledgeBase(ctx context.Context, replicaUUID string, payload KnowledgeBasePayload) (Identifiers, error)
}

// Client talks to the AI agent platform's HTTP API. Authenticated with an
// organization service key; all state lives on the platform side.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

var _ Service = (*Client)(nil)

// NewClient creates a new agent platform client.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		logger:     logger.With("component", "agent"),
	}, nil
}

// do performs one authenticated call and decodes the JSON response into out
// when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Organization-Secret", c.cfg.APIKey)
	req.Header.Set("X-API-Version", c.cfg.APIVersion)
	req.Header.Set("X-User-Id", c.cfg.UserID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("agent platform request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("agent platform returned status %d: %s", resp.StatusCode, readErrorMessage(resp.Body))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode agent platform response: %w", err)
	}
	return nil
}

// readErrorMessage extracts a human-readable message from an error body.
func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return "no error detail"
	}
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &body) == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return strings.TrimSpace(string(data))
}

// ListReplicas lists the organization's replicas. Kind narrows the result:
// "all" returns everything, any other kind keeps replicas tagged with it
// (syncs created by this service tag their replicas "shopify").
func (c *Client) ListReplicas(ctx context.Context, kind string) ([]Replica, error) {
	var body struct {
		Items []Replica `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/replicas", nil, &body); err != nil {
		return nil, err
	}

	if kind == "" || kind == "all" {
		return body.Items, nil
	}

	filtered := make([]Replica, 0, len(body.Items))
	for _, r := range body.Items {
		for _, tag := range r.Tags {
			if strings.EqualFold(tag, kind) {
				filtered = append(filtered, r)
				break
			}
		}
	}
	return filtered, nil
}

// ListKnowledgeBases lists the knowledge-base entries of one replica.
func (c *Client) ListKnowledgeBases(ctx context.Context, replicaUUID string) ([]KnowledgeBaseEntry, error) {
	var body struct {
		Items []KnowledgeBaseEntry `json:"items"`
	}
	path := fmt.Sprintf("/v1/replicas/%s/knowledge-base", replicaUUID)
	if err := c.do(ctx, http.MethodGet, path, nil, &body); err != nil {
		return nil, err
	}
	return body.Items, nil
}

// EnsureReplica finds the replica for a shop by slug, creating it when
// absent. The slug is derived from the shop name so repeated syncs reuse
// the same replica.
func (c *Client) EnsureReplica(ctx context.Context, shopName string) (Replica, error) {
	slug := replicaSlug(shopName)

	existing, err := c.ListReplicas(ctx, "all")
	if err != nil {
		return Replica{}, err
	}
	for _, r := range existing {
		if r.Slug == slug {
			return r, nil
		}
	}

	create := Replica{
		Name:             shopName + " Assistant",
		Slug:             slug,
		ShortDescription: "Product expert for " + shopName,
		Greeting:         fmt.Sprintf("Hi! Ask me anything about %s's products.", shopName),
		Tags:             []string{"shopify"},
	}

	var created struct {
		UUID string `json:"uuid"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/replicas", create, &created); err != nil {
		return Replica{}, err
	}
	create.UUID = created.UUID

	c.logger.Info("Created replica", "slug", slug, "uuid", created.UUID)
	return create, nil
}

// CreateKnowledgeBase pushes one knowledge-base payload to a replica.
// The platform uses a two-step contract: create an empty entry, then fill
// it. Versioning and idempotency are the platform's responsibility.
func (c *Client) CreateKnowledgeBase(ctx context.Context, replicaUUID string, payload KnowledgeBasePayload) (Identifiers, error) {
	basePath := fmt.Sprintf("/v1/replicas/%s/knowledge-base", replicaUUID)

	var created struct {
		ID int `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, basePath, struct{}{}, &created); err != nil {
		return Identifiers{}, fmt.Errorf("create knowledge base entry: %w", err)
	}

	fillPath := fmt.Sprintf("%s/%d", basePath, created.ID)
	if err := c.do(ctx, http.MethodPut, fillPath, payload, nil); err != nil {
		return Identifiers{}, fmt.Errorf("upload knowledge base content: %w", err)
	}

	c.logger.Info("Knowledge base updated",
		"replica_uuid", replicaUUID,
		"knowledge_base_id", created.ID,
		"facts", len(payload.GeneratedFacts),
	)

	return Identifiers{
		KnowledgeBaseID: created.ID,
		ReplicaUUID:     replicaUUID,
		UserID:          c.cfg.UserID,
	}, nil
}

var slugCleanRe = regexp.MustCompile(`[^a-z0-9]+`)

// replicaSlug derives a stable platform slug from a shop name.
func replicaSlug(shopName string) string {
	s := slugCleanRe.ReplaceAllString(strings.ToLower(shopName), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		s = "store"
	}
	return "shopify-" + s
}
