// Package appsscript wraps the Google Apps Script web app that sends
// registration and receipt emails on our behalf.
package appsscript

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type Client struct {
	URL    string
	Token  string
	client *http.Client
	log    *zap.SugaredLogger
}

func NewClient(url, token string, log *zap.SugaredLogger) *Client {
	return &Client{
		URL:    url,
		Token:  token,
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log,
	}
}

// Configured reports whether an automation endpoint is set. Handlers answer
// 500 rather than forwarding into the void.
func (c *Client) Configured() bool {
	return c.URL != ""
}

// ReceiptRequest carries everything the automation needs to email a receipt.
type ReceiptRequest struct {
	Email           string                 `json:"email"`
	MerchantOrderID string                 `json:"merchantOrderId"`
	SessionID       string                 `json:"sessionId"`
	Amount          float64                `json:"amount"`
	Currency        string                 `json:"currency"`
	Status          string                 `json:"status"`
	User            map[string]interface{} `json:"user,omitempty"`
	MetaData        map[string]interface{} `json:"metaData,omitempty"`
}

// Forward posts a registration submission to the automation and returns its
// raw response body.
func (c *Client) Forward(ctx context.Context, payload map[string]interface{}) ([]byte, error) {
	return c.post(ctx, "register", payload)
}

// SendReceipt asks the automation to email a payment receipt.
func (c *Client) SendReceipt(ctx context.Context, req ReceiptRequest) ([]byte, error) {
	payload := map[string]interface{}{
		"email":           req.Email,
		"merchantOrderId": req.MerchantOrderID,
		"sessionId":       req.SessionID,
		"amount":          req.Amount,
		"currency":        req.Currency,
		"status":          req.Status,
	}
	if req.User != nil {
		payload["user"] = req.User
	}
	if req.MetaData != nil {
		payload["metaData"] = req.MetaData
	}
	return c.post(ctx, "sendReceipt", payload)
}

func (c *Client) post(ctx context.Context, action string, payload map[string]interface{}) ([]byte, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("apps script: endpoint not configured")
	}
	body := map[string]interface{}{"action": action}
	if c.Token != "" {
		body["token"] = c.Token
	}
	for k, v := range payload {
		body[k] = v
	}
	buf, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.log.Infof("[APPS SCRIPT] POST action=%s", action)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("apps script %s: status %d: %s", action, resp.StatusCode, string(respBody))
	}
	// Apps Script web apps answer 200 even for handled failures; the body
	// carries the real outcome.
	var out struct {
		Success *bool  `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(respBody, &out); err == nil {
		if out.Success != nil && !*out.Success {
			return nil, fmt.Errorf("apps script %s: %s", action, out.Error)
		}
	}
	return respBody, nil
}
