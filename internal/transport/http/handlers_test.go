package httptransport_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blckdfly/sphyre/internal/audit"
	"github.com/blckdfly/sphyre/internal/auth"
	"github.com/blckdfly/sphyre/internal/blobstore"
	"github.com/blckdfly/sphyre/internal/consent"
	"github.com/blckdfly/sphyre/internal/credential"
	"github.com/blckdfly/sphyre/internal/identity"
	"github.com/blckdfly/sphyre/internal/issuer"
	"github.com/blckdfly/sphyre/internal/platform/metrics"
	"github.com/blckdfly/sphyre/internal/platform/workerpool"
	"github.com/blckdfly/sphyre/internal/presentation"
	"github.com/blckdfly/sphyre/internal/registry"
	"github.com/blckdfly/sphyre/internal/schema"
	httptransport "github.com/blckdfly/sphyre/internal/transport/http"
	"github.com/blckdfly/sphyre/pkg/attrs"
)

var (
	policy      = identity.NewMethodPolicy("alyra")
	testMetrics = metrics.New()
)

type testServer struct {
	server      *httptest.Server
	authService *auth.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.Default()
	inbox := make(chan audit.Event, 64)
	recorder := audit.NewRecorder(inbox, logger)
	reg := registry.NewInMemory()
	pool := workerpool.New(4)

	credentials := credential.NewService(
		credential.NewInMemoryStore(), blobstore.NewInMemoryStore(), reg,
		policy, testMetrics, recorder, logger)
	presentations := presentation.NewService(
		presentation.NewInMemoryStore(), presentation.NewInMemoryRequestStore(),
		credentials, policy, testMetrics, recorder, logger)
	schemas := schema.NewService(schema.NewInMemoryStore(), reg, policy, recorder, logger)
	issuerService := issuer.NewService(issuer.NewInMemoryStore(), credentials, schemas, policy, logger)
	consents := consent.NewService(consent.NewInMemoryStore(), policy, recorder, logger)
	authService := auth.NewService(
		auth.NewInMemoryUserStore(), auth.NewInMemoryChallengeStore(),
		auth.NewSessions("test-signing-key"), policy, recorder, logger)

	router := httptransport.NewRouter(httptransport.Deps{
		Auth:          httptransport.NewAuthHandler(authService, logger),
		Credentials:   httptransport.NewCredentialHandler(credentials, pool, logger),
		Presentations: httptransport.NewPresentationHandler(presentations, pool, logger),
		Issuer:        httptransport.NewIssuerHandler(issuerService, pool, logger),
		Schemas:       httptransport.NewSchemaHandler(schemas, logger),
		Consents:      httptransport.NewConsentHandler(consents, logger),
		Sessions:      authService,
		Logger:        logger,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &testServer{server: server, authService: authService}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.server.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// registerAndLogin walks the full challenge/response flow over HTTP and
// returns the session token.
func (ts *testServer) registerAndLogin(t *testing.T) (*identity.KeyPair, string) {
	t.Helper()
	keys, err := identity.Generate(policy)
	require.NoError(t, err)

	resp := ts.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"did": keys.DID, "public_key": keys.PublicKey, "name": "Alice",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = ts.do(t, http.MethodPost, "/auth/challenge", "", map[string]string{"did": keys.DID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var challenge struct {
		Challenge string `json:"challenge"`
	}
	decodeBody(t, resp, &challenge)

	sig, err := keys.Sign([]byte(challenge.Challenge))
	require.NoError(t, err)

	resp = ts.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"did":       keys.DID,
		"challenge": challenge.Challenge,
		"signature": base64.StdEncoding.EncodeToString(sig),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login struct {
		Token string `json:"token"`
	}
	decodeBody(t, resp, &login)
	require.NotEmpty(t, login.Token)
	return keys, login.Token
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)
	keys, token := ts.registerAndLogin(t)

	resp := ts.do(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me struct {
		DID string `json:"did"`
	}
	decodeBody(t, resp, &me)
	assert.Equal(t, keys.DID, me.DID)
}

func TestProtectedRoutesRejectAnonymous(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.do(t, http.MethodGet, "/credentials", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestCredentialLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	issuerKeys, issuerToken := ts.registerAndLogin(t)
	ownerKeys, ownerToken := ts.registerAndLogin(t)

	resp := ts.do(t, http.MethodPost, "/credentials/issue", issuerToken, map[string]any{
		"issuer_private_key": issuerKeys.PrivateKey,
		"owner_did":          ownerKeys.DID,
		"credential_type":    "ProofOfAge",
		"credential_data":    map[string]any{"name": "Alice", "age": 25},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var issued struct {
		Credential credential.Credential `json:"credential"`
	}
	decodeBody(t, resp, &issued)
	require.NotEmpty(t, issued.Credential.Token)

	resp = ts.do(t, http.MethodPost, "/credentials/verify", ownerToken, map[string]string{
		"token": issued.Credential.Token,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var verification credential.VerificationResult
	decodeBody(t, resp, &verification)
	assert.True(t, verification.IsValid, "errors: %v", verification.Errors)
	assert.Equal(t, issuerKeys.DID, verification.IssuerDID)

	resp = ts.do(t, http.MethodGet, "/credentials", ownerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listing struct {
		Credentials []credential.Credential `json:"credentials"`
	}
	decodeBody(t, resp, &listing)
	require.Len(t, listing.Credentials, 1)

	// Only the issuer may revoke.
	revokePath := fmt.Sprintf("/credentials/%s/revoke", issued.Credential.ID)
	resp = ts.do(t, http.MethodPost, revokePath, ownerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = ts.do(t, http.MethodPost, revokePath, issuerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var revoked credential.Credential
	decodeBody(t, resp, &revoked)
	assert.Equal(t, credential.StatusRevoked, revoked.Status)

	resp = ts.do(t, http.MethodPost, "/credentials/verify", ownerToken, map[string]string{
		"token": issued.Credential.Token,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &verification)
	assert.False(t, verification.IsValid)
	assert.True(t, verification.IsRevoked)
}

func TestSelectiveDisclosureOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	issuerKeys, issuerToken := ts.registerAndLogin(t)
	ownerKeys, ownerToken := ts.registerAndLogin(t)

	resp := ts.do(t, http.MethodPost, "/credentials/issue", issuerToken, map[string]any{
		"issuer_private_key": issuerKeys.PrivateKey,
		"owner_did":          ownerKeys.DID,
		"credential_type":    "ProofOfAge",
		"credential_data":    map[string]any{"name": "Alice", "age": 25, "city": "Oslo"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var issued struct {
		Credential credential.Credential `json:"credential"`
	}
	decodeBody(t, resp, &issued)

	resp = ts.do(t, http.MethodPost, fmt.Sprintf("/credentials/%s/disclose", issued.Credential.ID),
		ownerToken, map[string]any{"disclosed_attributes": []string{"name"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var disclosed struct {
		DisclosedData attrs.Map `json:"disclosed_data"`
	}
	decodeBody(t, resp, &disclosed)
	assert.Contains(t, disclosed.DisclosedData, "name")
	assert.NotContains(t, disclosed.DisclosedData, "age")
	assert.Contains(t, disclosed.DisclosedData, "_undisclosed_hash")

	// The issuer does not own the credential and cannot disclose from it.
	resp = ts.do(t, http.MethodPost, fmt.Sprintf("/credentials/%s/disclose", issued.Credential.ID),
		issuerToken, map[string]any{"disclosed_attributes": []string{"name"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestSchemaEndpoints(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.registerAndLogin(t)

	resp := ts.do(t, http.MethodPost, "/schemas", token, map[string]any{
		"name":    "ProofOfAge",
		"version": "1.0",
		"attributes": []map[string]any{
			{"name": "age", "data_type": "number", "required": true},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created schema.Schema
	decodeBody(t, resp, &created)

	resp = ts.do(t, http.MethodPost, "/schemas/"+created.ID+"/validate", token, map[string]any{
		"credential_data": map[string]any{"age": "not a number"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result schema.ValidationResult
	decodeBody(t, resp, &result)
	assert.False(t, result.IsValid)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
