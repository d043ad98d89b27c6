package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance. Validator instances cache
// struct metadata, so a single instance is reused across requests.
var validate = validator.New(validator.WithRequiredStructEnabled())

// SyncRequest is the body of the sync and debug endpoints.
type SyncRequest struct {
	// Domain is the storefront domain, e.g. "my-store.myshopify.com".
	Domain string `json:"domain" validate:"required,max=255"`

	// AccessToken is the storefront Admin API access token.
	AccessToken string `json:"accessToken" validate:"required,max=255"`

	// Filter is an optional product filter expression.
	Filter string `json:"filter" validate:"max=1024"`
}

// ListReplicasQuery carries the query parameters of GET /api/replicas.
type ListReplicasQuery struct {
	Type string `schema:"type" validate:"omitempty,oneof=all shopify knowledge"`
}

// ListKnowledgeBasesQuery carries the query parameters of
// GET /api/knowledge-bases.
type ListKnowledgeBasesQuery struct {
	Replica string `schema:"replica" validate:"required,uuid4"`
}

// decodeAndValidate decodes a JSON request body into T and validates it.
// The returned error message is safe to echo back to the client.
func decodeAndValidate[T any](r *http.Request) (T, error) {
	var req T

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("invalid request body: %w", err)
	}

	if err := validate.Struct(&req); err != nil {
		return req, fmt.Errorf("validation failed: %s", formatValidationError(err))
	}

	return req, nil
}

// validateQuery validates an already-decoded query struct.
func validateQuery(q any) error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("validation failed: %s", formatValidationError(err))
	}
	return nil
}

// formatValidationError turns validator errors into a readable, field-keyed
// message without leaking struct internals.
func formatValidationError(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fieldName(fe)))
		case "max":
			parts = append(parts, fmt.Sprintf("%s exceeds maximum length %s", fieldName(fe), fe.Param()))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of: %s", fieldName(fe), fe.Param()))
		case "uuid4":
			parts = append(parts, fmt.Sprintf("%s must be a valid UUID", fieldName(fe)))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid", fieldName(fe)))
		}
	}
	return strings.Join(parts, "; ")
}

// fieldName lowercases the leading rune so messages match the JSON casing.
func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return "field"
	}
	return strings.ToLower(name[:1]) + name[1:]
}
