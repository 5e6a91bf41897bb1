package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contractai/backend/pkg/billing/dodo"
	"github.com/contractai/backend/pkg/contracts"
	"github.com/contractai/backend/pkg/ledger"
	"github.com/contractai/backend/storage/memory"
)

type testEnv struct {
	server *Server
	ledger *ledger.Service
	router http.Handler
}

func newTestEnv(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()

	svc, err := ledger.NewService(memory.New(), ledger.Config{})
	require.NoError(t, err)

	store, err := contracts.NewStore(t.TempDir())
	require.NoError(t, err)

	dodoProvider, err := dodo.NewProvider(dodo.Config{
		WebhookSecret: "whsec_dGVzdC1zaWduaW5nLWtleQ==",
		ProductID:     "prod_test",
		ReturnURL:     "https://app.example.com/billing",
		Ledger:        svc,
	})
	require.NoError(t, err)

	config := Config{
		Ledger:    svc,
		Contracts: store,
		Dodo:      dodoProvider,
	}
	if mutate != nil {
		mutate(&config)
	}

	server, err := NewServer(config)
	require.NoError(t, err)

	return &testEnv{server: server, ledger: svc, router: server.Router()}
}

func (e *testEnv) do(t *testing.T, method, path string, body []byte, header map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var resp map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestServer_RootAndHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, resp := env.do(t, http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", resp["status"])

	rec, resp = env.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Contract AI Backend", resp["service"])
	assert.Equal(t, false, resp["llm_configured"])
}

func uploadRequest(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return &buf, writer.FormDataContentType()
}

func TestServer_UploadWithoutAI(t *testing.T) {
	env := newTestEnv(t, nil)

	body, contentType := uploadRequest(t, "agreement.txt", "This agreement covers payment terms.")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "agreement.txt", resp["filename"])
	assert.NotEmpty(t, resp["saved_as"])
	assert.Equal(t, "This agreement covers payment terms.", resp["extracted_text"])

	analysis, ok := resp["analysis"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(50), analysis["risk_score"])
}

func TestServer_UploadRejectsUnsupportedType(t *testing.T) {
	env := newTestEnv(t, nil)

	body, contentType := uploadRequest(t, "virus.exe", "nope")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_ContractsListAndDelete(t *testing.T) {
	env := newTestEnv(t, nil)

	body, contentType := uploadRequest(t, "a.txt", "contract text")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var uploadResp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploadResp))
	savedAs := uploadResp["saved_as"].(string)

	rec2, resp := env.do(t, http.MethodGet, "/contracts", nil, nil)
	assert.Equal(t, http.StatusOK, rec2.Code)
	assert.Equal(t, float64(1), resp["count"])

	rec2, resp = env.do(t, http.MethodDelete, "/contracts/"+savedAs, nil, nil)
	assert.Equal(t, http.StatusOK, rec2.Code)
	assert.Contains(t, resp["message"], "deleted successfully")

	rec2, resp = env.do(t, http.MethodDelete, "/contracts/"+savedAs, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec2.Code)
	assert.Equal(t, "Contract not found", resp["detail"])
}

func TestServer_AnalyzeValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, resp := env.do(t, http.MethodPost, "/analyze", []byte(`{"contract_text":""}`), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No contract text provided", resp["detail"])

	rec, _ = env.do(t, http.MethodPost, "/analyze", []byte(`{"contract_text":"some terms"}`), nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServer_CreditsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	_, err := env.ledger.Grant(context.Background(), "User@Example.com", 7)
	require.NoError(t, err)

	rec, resp := env.do(t, http.MethodGet, "/credits/User%40Example.com", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user@example.com", resp["email"])
	assert.Equal(t, float64(7), resp["credits"])

	// Unknown accounts read as zero, not an error.
	rec, resp = env.do(t, http.MethodGet, "/credits/nobody%40example.com", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), resp["credits"])
}

func TestServer_PaymentLink(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, resp := env.do(t, http.MethodGet, "/payments/pro/link?email=user%40example.com", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	link, ok := resp["paymentLink"].(string)
	require.True(t, ok)
	assert.Contains(t, link, "checkout.dodopayments.com/buy/prod_test")
	assert.Contains(t, link, "email=user%40example.com")
	assert.Contains(t, link, "quantity=1")

	// The quantity query parameter flows through to the link.
	rec, resp = env.do(t, http.MethodGet, "/payments/pro/link?quantity=3", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	link, ok = resp["paymentLink"].(string)
	require.True(t, ok)
	assert.Contains(t, link, "quantity=3")
}

func TestServer_PaymentLinkMissingRedirect(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		provider, err := dodo.NewProvider(dodo.Config{
			ProductID: "prod_test",
			Ledger:    c.Ledger,
		})
		require.NoError(t, err)
		c.Dodo = provider
	})

	rec, resp := env.do(t, http.MethodGet, "/payments/pro/link", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "redirect_url is required but not provided", resp["detail"])
}

func TestServer_PaymentLinkNotConfigured(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.Dodo = nil })

	rec, resp := env.do(t, http.MethodGet, "/payments/pro/link", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Payment link not configured", resp["detail"])
}

func TestServer_WebhookRouteRejectsUnsigned(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, _ := env.do(t, http.MethodPost, "/webhooks/dodo", []byte(`{}`), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_CreditEnforcement(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.EnforceCredits = true })

	// No email header at all.
	rec, _ := env.do(t, http.MethodPost, "/analyze", []byte(`{"contract_text":"x"}`), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Known user with no credits.
	header := map[string]string{"X-User-Email": "broke@example.com"}
	rec, resp := env.do(t, http.MethodPost, "/analyze", []byte(`{"contract_text":"x"}`), header)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, "insufficient credits", resp["detail"])

	// Granted credits pass the gate; the handler itself then fails on
	// the missing AI client, which is fine for this test.
	_, err := env.ledger.Grant(context.Background(), "broke@example.com", 1)
	require.NoError(t, err)

	rec, _ = env.do(t, http.MethodPost, "/analyze", []byte(`{"contract_text":"x"}`), header)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	balance, err := env.ledger.Balance(context.Background(), "broke@example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}
