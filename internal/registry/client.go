package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/blckdfly/sphyre/contracts/registry"
	dErrors "github.com/blckdfly/sphyre/pkg/domain-errors"
)

// HTTPClient talks to a remote registry service over REST. Every call is
// traced so registry latency shows up in distributed traces.
type HTTPClient struct {
	base   string
	http   *http.Client
	tracer trace.Tracer
}

func NewHTTPClient(endpoint string) *HTTPClient {
	return &HTTPClient{
		base:   endpoint,
		http:   &http.Client{Timeout: 10 * time.Second},
		tracer: otel.Tracer("sphyre/registry"),
	}
}

type registerCredentialRequest struct {
	DID            string `json:"did"`
	CredentialHash string `json:"credential_hash"`
	MetadataRef    string `json:"metadata_ref,omitempty"`
}

type receiptResponse struct {
	TxHash    string    `json:"tx_hash"`
	Timestamp time.Time `json:"timestamp"`
}

type validityResponse struct {
	Valid bool `json:"valid"`
}

type registerSchemaRequest struct {
	SchemaID   string `json:"schema_id"`
	SchemaHash string `json:"schema_hash"`
}

type schemaStatusResponse struct {
	Registered bool `json:"registered"`
}

func (c *HTTPClient) RegisterCredential(ctx context.Context, did, credentialHash, metadataRef string) (registry.Receipt, error) {
	ctx, span := c.start(ctx, "registry.RegisterCredential", did, credentialHash)
	var out receiptResponse
	err := c.post(ctx, "/credentials", registerCredentialRequest{
		DID:            did,
		CredentialHash: credentialHash,
		MetadataRef:    metadataRef,
	}, &out)
	endSpan(span, err)
	if err != nil {
		return registry.Receipt{}, err
	}
	return registry.Receipt{TxHash: out.TxHash, Timestamp: out.Timestamp}, nil
}

func (c *HTTPClient) RevokeCredential(ctx context.Context, did, credentialHash string) (registry.Receipt, error) {
	ctx, span := c.start(ctx, "registry.RevokeCredential", did, credentialHash)
	var out receiptResponse
	err := c.post(ctx, "/credentials/revoke", registerCredentialRequest{
		DID:            did,
		CredentialHash: credentialHash,
	}, &out)
	endSpan(span, err)
	if err != nil {
		return registry.Receipt{}, err
	}
	return registry.Receipt{TxHash: out.TxHash, Timestamp: out.Timestamp}, nil
}

func (c *HTTPClient) IsCredentialValid(ctx context.Context, did, credentialHash string) (bool, error) {
	ctx, span := c.start(ctx, "registry.IsCredentialValid", did, credentialHash)
	query := url.Values{"did": {did}, "hash": {credentialHash}}
	var out validityResponse
	err := c.get(ctx, "/credentials/valid?"+query.Encode(), &out)
	endSpan(span, err)
	if err != nil {
		return false, err
	}
	return out.Valid, nil
}

func (c *HTTPClient) RegisterSchema(ctx context.Context, schemaID, schemaHash string) (registry.Receipt, error) {
	ctx, span := c.start(ctx, "registry.RegisterSchema", schemaID, schemaHash)
	var out receiptResponse
	err := c.post(ctx, "/schemas", registerSchemaRequest{SchemaID: schemaID, SchemaHash: schemaHash}, &out)
	endSpan(span, err)
	if err != nil {
		return registry.Receipt{}, err
	}
	return registry.Receipt{TxHash: out.TxHash, Timestamp: out.Timestamp}, nil
}

func (c *HTTPClient) IsSchemaRegistered(ctx context.Context, schemaID string) (bool, error) {
	ctx, span := c.start(ctx, "registry.IsSchemaRegistered", schemaID, "")
	var out schemaStatusResponse
	err := c.get(ctx, "/schemas/"+url.PathEscape(schemaID), &out)
	endSpan(span, err)
	if err != nil {
		return false, err
	}
	return out.Registered, nil
}

func (c *HTTPClient) start(ctx context.Context, name, subject, hash string) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("registry.subject", subject),
		attribute.String("registry.hash", hash),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (c *HTTPClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeRegistry, "encode registry request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeRegistry, "build registry request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *HTTPClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeRegistry, "build registry request")
	}
	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeRegistry, "call registry")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return dErrors.New(dErrors.CodeRegistry,
			fmt.Sprintf("registry returned status %d", resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeRegistry, "decode registry response")
	}
	return nil
}
