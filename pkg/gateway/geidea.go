package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	testBaseURL = "https://api-test.merchant.geidea.net"
	liveBaseURL = "https://api.merchant.geidea.net"

	testCheckoutURL = "https://www.merchant.geidea.net/hpp/checkout-test"
	liveCheckoutURL = "https://www.merchant.geidea.net/hpp/checkout"
)

// GeideaClient talks to the Geidea hosted-payment API. The live/test mode on
// the config picks the endpoint base; callers never choose explicitly.
type GeideaClient struct {
	BaseURL     string
	CheckoutURL string
	MerchantID  string
	APIKey      string
	APISecret   string
	client      *http.Client
	log         *zap.SugaredLogger
}

func NewGeideaClient(mode, merchantID, apiKey, apiSecret string, log *zap.SugaredLogger) *GeideaClient {
	baseURL := testBaseURL
	checkoutURL := testCheckoutURL
	if mode == "live" {
		baseURL = liveBaseURL
		checkoutURL = liveCheckoutURL
	}
	return &GeideaClient{
		BaseURL:     baseURL,
		CheckoutURL: checkoutURL,
		MerchantID:  merchantID,
		APIKey:      apiKey,
		APISecret:   apiSecret,
		client:      &http.Client{Timeout: 30 * time.Second},
		log:         log,
	}
}

type geideaSessionReq struct {
	Amount              float64  `json:"amount"`
	Currency            string   `json:"currency"`
	MerchantReferenceID string   `json:"merchantReferenceId"`
	MerchantPublicKey   string   `json:"merchantPublicKey,omitempty"`
	CallbackURL         string   `json:"callbackUrl"`
	ReturnURL           string   `json:"returnUrl"`
	ExpiryDate          string   `json:"expiryDate"`
	PaymentOperation    string   `json:"paymentOperation"`
	PaymentMethods      []string `json:"paymentMethods"`
	MaxFailedAttempts   int      `json:"maximumFailedAttempts"`
	Language            string   `json:"language,omitempty"`
	CustomerEmail       string   `json:"customerEmail,omitempty"`
	CustomerReference   string   `json:"customerReference,omitempty"`
	Description         string   `json:"description,omitempty"`
	Tokenization        struct {
		RetrieveSavedCards bool `json:"retrieveSavedCards"`
	} `json:"tokenization"`
}

type geideaSessionResp struct {
	Session struct {
		ID          string `json:"id"`
		RedirectURL string `json:"redirectUrl"`
	} `json:"session"`
	ResponseCode            string `json:"responseCode"`
	DetailedResponseMessage string `json:"detailedResponseMessage"`
}

func (c *GeideaClient) CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionResponse, error) {
	expiry := req.ExpiryMinutes
	if expiry <= 0 {
		expiry = 60
	}
	payload := geideaSessionReq{
		Amount:              req.Amount,
		Currency:            req.Currency,
		MerchantReferenceID: req.MerchantOrderID,
		MerchantPublicKey:   c.MerchantID,
		CallbackURL:         req.CallbackURL,
		ReturnURL:           req.MerchantRedirect,
		ExpiryDate:          time.Now().UTC().Add(time.Duration(expiry) * time.Minute).Format(time.RFC3339),
		PaymentOperation:    "Pay",
		PaymentMethods:      []string{"card"},
		MaxFailedAttempts:   3,
		CustomerEmail:       req.CustomerEmail,
		CustomerReference:   req.CustomerReference,
		Description:         req.Description,
	}
	// Saved-card retrieval triggers an unauthenticated browser call on the
	// provider's checkout page; keep it off.
	payload.Tokenization.RetrieveSavedCards = false

	body, _ := json.Marshal(payload)
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/payment-intent/api/v2/direct/session", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	apiReq.Header.Set("Content-Type", "application/json")
	apiReq.SetBasicAuth(c.APIKey, c.APISecret)
	c.log.Infof("[GATEWAY] POST %s/payment-intent/api/v2/direct/session merchant_order_id=%s amount=%.2f %s", c.BaseURL, req.MerchantOrderID, req.Amount, req.Currency)
	resp, err := c.client.Do(apiReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	c.log.Infof("[GATEWAY] session response status=%d body=%s", resp.StatusCode, string(respBody))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	var out geideaSessionResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	redirectURL := out.Session.RedirectURL
	if redirectURL == "" && out.Session.ID != "" {
		redirectURL = c.CheckoutURL + "?sessionId=" + out.Session.ID
	}
	var raw map[string]interface{}
	_ = json.Unmarshal(respBody, &raw)
	return &SessionResponse{
		SessionID:   out.Session.ID,
		RedirectURL: redirectURL,
		Raw:         raw,
		Body:        respBody,
	}, nil
}

type geideaVerifyResp struct {
	Session struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Order  struct {
			ID             string  `json:"id"`
			Status         string  `json:"status"`
			DetailedStatus string  `json:"detailedStatus"`
			Amount         float64 `json:"amount"`
			Currency       string  `json:"currency"`
		} `json:"order"`
	} `json:"session"`
}

// VerifySession fetches the authoritative state of a session, server to
// server. This is the single source of truth for payment status.
func (c *GeideaClient) VerifySession(ctx context.Context, sessionID string) (*PaymentState, error) {
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/pgw/api/v2/direct/session/"+sessionID, nil)
	if err != nil {
		return nil, err
	}
	apiReq.SetBasicAuth(c.APIKey, c.APISecret)
	resp, err := c.client.Do(apiReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	c.log.Infof("[GATEWAY] verify session_id=%s status=%d body=%s", sessionID, resp.StatusCode, string(respBody))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	var out geideaVerifyResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	status := out.Session.Order.DetailedStatus
	if status == "" {
		status = out.Session.Order.Status
	}
	if status == "" {
		status = out.Session.Status
	}
	var raw map[string]interface{}
	_ = json.Unmarshal(respBody, &raw)
	sid := out.Session.ID
	if sid == "" {
		sid = sessionID
	}
	return &PaymentState{
		SessionID: sid,
		OrderRef:  out.Session.Order.ID,
		Status:    strings.ToUpper(status),
		Amount:    out.Session.Order.Amount,
		Currency:  out.Session.Order.Currency,
		Raw:       raw,
		Body:      respBody,
	}, nil
}
