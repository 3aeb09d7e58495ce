package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"warsha/internal/models"
	"warsha/internal/service"
	"warsha/pkg/appsscript"
	"warsha/pkg/gateway"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubStore struct {
	records []*models.PaymentRecord
	creates int
}

func (s *stubStore) Create(p *models.PaymentRecord) error {
	s.creates++
	s.records = append(s.records, p)
	return nil
}

func (s *stubStore) GetBySessionID(id string) (*models.PaymentRecord, error) {
	for _, r := range s.records {
		if id != "" && r.SessionID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (s *stubStore) GetByMerchantOrderID(id string) (*models.PaymentRecord, error) {
	for _, r := range s.records {
		if id != "" && r.MerchantOrderID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (s *stubStore) GetByProviderOrderRef(ref string) (*models.PaymentRecord, error) {
	return nil, nil
}

func (s *stubStore) Update(p *models.PaymentRecord) error { return nil }

type stubGateway struct {
	createResp *gateway.SessionResponse
	createErr  error
	verifyResp *gateway.PaymentState
	verifyErr  error
}

func (s *stubGateway) CreateSession(ctx context.Context, req gateway.CreateSessionRequest) (*gateway.SessionResponse, error) {
	return s.createResp, s.createErr
}

func (s *stubGateway) VerifySession(ctx context.Context, id string) (*gateway.PaymentState, error) {
	return s.verifyResp, s.verifyErr
}

type stubReceipts struct{}

func (stubReceipts) SendReceipt(ctx context.Context, req appsscript.ReceiptRequest) ([]byte, error) {
	return []byte(`{"success":true}`), nil
}

func testRouter(store *stubStore, gw *stubGateway) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := zap.NewNop().Sugar()
	svc := service.NewPaymentService(store, gw, stubReceipts{}, "https://server.test/api/payment/webhook", log)
	r := gin.New()
	r.POST("/api/payment/session", NewPaymentHandler(svc, log).CreateSession)
	r.POST("/api/payment/webhook", NewPaymentWebhookHandler(svc, log).Handle)
	r.GET("/api/payment/status", NewPaymentStatusHandler(svc, log).Status)
	r.POST("/api/payment/fulfill", NewFulfillmentHandler(svc, log).Fulfill)
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestCreateSessionEndpoint(t *testing.T) {
	store := &stubStore{}
	gw := &stubGateway{createResp: &gateway.SessionResponse{
		SessionID:   "sess-1",
		RedirectURL: "https://checkout.test?sessionId=sess-1",
		Body:        []byte(`{"session":{"id":"sess-1"}}`),
	}}
	r := testRouter(store, gw)

	w := postJSON(r, "/api/payment/session", `{"amount":100,"currency":"EGP","merchantRedirect":"https://x/r"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "https://checkout.test?sessionId=sess-1", resp["sessionUrl"])
	require.Len(t, store.records, 1)
	assert.Equal(t, models.StatusCreated, store.records[0].Status)
}

func TestCreateSessionValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"zero amount", `{"amount":0,"merchantRedirect":"https://x/r"}`},
		{"negative amount", `{"amount":-5,"merchantRedirect":"https://x/r"}`},
		{"missing amount", `{"merchantRedirect":"https://x/r"}`},
		{"missing redirect", `{"amount":100}`},
		{"non numeric amount", `{"amount":"abc","merchantRedirect":"https://x/r"}`},
		{"quoted zero amount", `{"amount":"0","merchantRedirect":"https://x/r"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &stubStore{}
			r := testRouter(store, &stubGateway{})
			w := postJSON(r, "/api/payment/session", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, 0, store.creates)
		})
	}
}

func TestCreateSessionAcceptsQuotedAmount(t *testing.T) {
	store := &stubStore{}
	gw := &stubGateway{createResp: &gateway.SessionResponse{
		SessionID:   "sess-2",
		RedirectURL: "https://checkout.test?sessionId=sess-2",
		Body:        []byte(`{"session":{"id":"sess-2"}}`),
	}}
	r := testRouter(store, gw)

	w := postJSON(r, "/api/payment/session", `{"amount":"150.50","merchantRedirect":"https://x/r"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, store.records, 1)
	assert.Equal(t, 150.50, store.records[0].Amount)
}

func TestCreateSessionGatewayRejection(t *testing.T) {
	store := &stubStore{}
	gw := &stubGateway{createErr: &gateway.GatewayError{StatusCode: 400, Body: `{"responseCode":"100"}`}}
	r := testRouter(store, gw)

	w := postJSON(r, "/api/payment/session", `{"amount":100,"merchantRedirect":"https://x/r"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "responseCode")
	assert.Equal(t, 0, store.creates)
}

func TestWebhookEndpoint(t *testing.T) {
	store := &stubStore{records: []*models.PaymentRecord{
		{SessionID: "abc", Status: models.StatusCreated},
	}}
	gw := &stubGateway{verifyResp: &gateway.PaymentState{
		SessionID: "abc",
		Status:    models.StatusPaid,
		Body:      []byte(`{"session":{"id":"abc","status":"Paid"}}`),
	}}
	r := testRouter(store, gw)

	w := postJSON(r, "/api/payment/webhook", `{"sessionId":"abc"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
	assert.Equal(t, models.StatusPaid, store.records[0].Status)
}

func TestWebhookUnresolvable(t *testing.T) {
	r := testRouter(&stubStore{}, &stubGateway{})
	w := postJSON(r, "/api/payment/webhook", `{"status":"PAID"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookVerificationFailure(t *testing.T) {
	gw := &stubGateway{verifyErr: &gateway.GatewayError{StatusCode: 500, Body: "boom"}}
	r := testRouter(&stubStore{}, gw)
	w := postJSON(r, "/api/payment/webhook", `{"sessionId":"abc"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestStatusEndpoint(t *testing.T) {
	store := &stubStore{records: []*models.PaymentRecord{
		{SessionID: "abc", MerchantOrderID: "mo-1", Status: models.StatusPaid},
	}}
	r := testRouter(store, &stubGateway{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/payment/status?merchantOrderId=mo-1", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusPaid, resp["status"])
	assert.Equal(t, false, resp["verified"])
}

func TestStatusUnknownOrder(t *testing.T) {
	r := testRouter(&stubStore{}, &stubGateway{})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/payment/status?merchantOrderId=nope", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusMissingKeys(t *testing.T) {
	r := testRouter(&stubStore{}, &stubGateway{})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/payment/status", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFulfillEndpointNotSuccessful(t *testing.T) {
	store := &stubStore{records: []*models.PaymentRecord{
		{SessionID: "abc", MerchantOrderID: "mo-1", Status: models.StatusCreated, CustomerEmail: "a@b.c"},
	}}
	gw := &stubGateway{verifyResp: &gateway.PaymentState{SessionID: "abc", Status: "FAILED", Body: []byte(`{}`)}}
	r := testRouter(store, gw)

	w := postJSON(r, "/api/payment/fulfill", `{"merchantOrderId":"mo-1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "FAILED")
}

func TestFulfillEndpoint(t *testing.T) {
	store := &stubStore{records: []*models.PaymentRecord{
		{SessionID: "abc", MerchantOrderID: "mo-1", Status: models.StatusPaid, CustomerEmail: "a@b.c"},
	}}
	gw := &stubGateway{verifyResp: &gateway.PaymentState{SessionID: "abc", Status: models.StatusPaid, Body: []byte(`{}`)}}
	r := testRouter(store, gw)

	w := postJSON(r, "/api/payment/fulfill", `{"merchantOrderId":"mo-1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["ok"])
	assert.Equal(t, true, resp["receiptSent"])
}
