package gateway

import (
	"context"
	"fmt"
)

// CreateSessionRequest is the generic input for opening a hosted payment
// session. CallbackURL points back at this system's webhook endpoint.
type CreateSessionRequest struct {
	Amount            float64
	Currency          string
	MerchantOrderID   string
	MerchantRedirect  string
	CallbackURL       string
	Description       string
	CustomerEmail     string
	CustomerReference string
	ExpiryMinutes     int
}

// SessionResponse is the provider's answer to a session create. Body keeps the
// raw payload for persistence; Raw is the same payload decoded for callers
// that echo it back to the client.
type SessionResponse struct {
	SessionID   string
	RedirectURL string
	Raw         map[string]interface{}
	Body        []byte
}

// PaymentState is the authoritative state of a session as reported by a
// server-to-server verification call. Webhook bodies are never a substitute.
type PaymentState struct {
	SessionID string
	OrderRef  string // provider-assigned order reference
	Status    string // normalized upper-case
	Amount    float64
	Currency  string
	Raw       map[string]interface{}
	Body      []byte
}

type Client interface {
	CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionResponse, error)
	VerifySession(ctx context.Context, sessionID string) (*PaymentState, error)
}

// GatewayError is a non-success HTTP response from the provider. The raw body
// is kept so callers can surface the provider's own error message.
type GatewayError struct {
	StatusCode int
	Body       string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway: status %d: %s", e.StatusCode, e.Body)
}
