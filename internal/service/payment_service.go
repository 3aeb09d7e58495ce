package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"warsha/internal/models"
	"warsha/pkg/appsscript"
	"warsha/pkg/gateway"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentStore is the record store contract the payment flows need. Lookups
// return (nil, nil) when nothing matches.
type PaymentStore interface {
	Create(p *models.PaymentRecord) error
	GetBySessionID(sessionID string) (*models.PaymentRecord, error)
	GetByMerchantOrderID(orderID string) (*models.PaymentRecord, error)
	GetByProviderOrderRef(ref string) (*models.PaymentRecord, error)
	Update(p *models.PaymentRecord) error
}

// ReceiptSender dispatches a receipt email through the external automation.
type ReceiptSender interface {
	SendReceipt(ctx context.Context, req appsscript.ReceiptRequest) ([]byte, error)
}

type PaymentService struct {
	store       PaymentStore
	gw          gateway.Client
	receipts    ReceiptSender
	callbackURL string
	log         *zap.SugaredLogger
}

func NewPaymentService(store PaymentStore, gw gateway.Client, receipts ReceiptSender, callbackURL string, log *zap.SugaredLogger) *PaymentService {
	return &PaymentService{
		store:       store,
		gw:          gw,
		receipts:    receipts,
		callbackURL: callbackURL,
		log:         log,
	}
}

type CreateSessionInput struct {
	Amount            float64
	Currency          string
	Order             string
	MerchantRedirect  string
	Description       string
	CustomerEmail     string
	CustomerReference string
	MetaData          map[string]interface{}
	Age               int
	User              map[string]interface{}
}

type CreateSessionResult struct {
	SessionURL string
	Raw        map[string]interface{}
}

// CreateSession opens a hosted payment session and persists a CREATED record.
// A record-write failure is logged but the session URL is still returned; the
// provider-side session is not rolled back.
func (s *PaymentService) CreateSession(ctx context.Context, in CreateSessionInput) (*CreateSessionResult, error) {
	currency := in.Currency
	if currency == "" {
		currency = "EGP"
	}
	orderID := in.Order
	if orderID == "" {
		orderID = fmt.Sprintf("wshp-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
	}
	resp, err := s.gw.CreateSession(ctx, gateway.CreateSessionRequest{
		Amount:            in.Amount,
		Currency:          currency,
		MerchantOrderID:   orderID,
		MerchantRedirect:  in.MerchantRedirect,
		CallbackURL:       s.callbackURL,
		Description:       in.Description,
		CustomerEmail:     in.CustomerEmail,
		CustomerReference: in.CustomerReference,
		ExpiryMinutes:     60,
	})
	if err != nil {
		return nil, err
	}
	rec := &models.PaymentRecord{
		SessionID:         resp.SessionID,
		MerchantOrderID:   orderID,
		ProviderOrderRef:  orderRefFromRaw(resp.Raw),
		Status:            models.StatusCreated,
		Amount:            in.Amount,
		Currency:          currency,
		Description:       in.Description,
		CustomerEmail:     in.CustomerEmail,
		CustomerReference: in.CustomerReference,
		User:              marshalContext(in.User),
		Age:               in.Age,
		MetaData:          marshalContext(in.MetaData),
		Response:          string(resp.Body),
	}
	if err := s.store.Create(rec); err != nil {
		s.log.Errorf("[SESSION] record create failed merchant_order_id=%s session_id=%s: %v", orderID, resp.SessionID, err)
	}
	return &CreateSessionResult{SessionURL: resp.RedirectURL, Raw: resp.Raw}, nil
}

type StatusResult struct {
	Status   string
	Verified bool
	Payment  *models.PaymentRecord
}

// Status returns the current state of a payment. Settled records are answered
// from the store; everything else is re-verified live. An unknown session id
// is verified and materialized as a minimal record.
func (s *PaymentService) Status(ctx context.Context, merchantOrderID, sessionID string) (*StatusResult, error) {
	rec, err := s.find(merchantOrderID, sessionID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		if sessionID == "" {
			return nil, ErrNotFound
		}
		state, err := s.gw.VerifySession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		rec = s.recordFromState(state, "")
		if err := s.store.Create(rec); err != nil {
			s.log.Errorf("[STATUS] bootstrap record create failed session_id=%s: %v", sessionID, err)
		}
		return &StatusResult{Status: rec.Status, Verified: true, Payment: rec}, nil
	}
	if models.IsSuccessStatus(rec.Status) {
		return &StatusResult{Status: rec.Status, Verified: false, Payment: rec}, nil
	}
	sid := rec.SessionID
	if sid == "" {
		sid = sessionID
	}
	if sid == "" {
		// Record exists but the provider never handed back a session id;
		// the stored status is all we have.
		return &StatusResult{Status: rec.Status, Verified: false, Payment: rec}, nil
	}
	state, err := s.gw.VerifySession(ctx, sid)
	if err != nil {
		return nil, err
	}
	if s.applyState(rec, state) {
		if err := s.store.Update(rec); err != nil {
			s.log.Errorf("[STATUS] record update failed session_id=%s: %v", sid, err)
		}
	}
	return &StatusResult{Status: rec.Status, Verified: true, Payment: rec}, nil
}

type FulfillResult struct {
	Status          string
	ReceiptSent     bool
	ReceiptResponse string
}

// Fulfill sends the receipt email for a settled payment, at most once per
// record. An already-dispatched record short-circuits with no side effects.
func (s *PaymentService) Fulfill(ctx context.Context, merchantOrderID, sessionID string) (*FulfillResult, error) {
	rec, err := s.find(merchantOrderID, sessionID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	if rec.ReceiptSent {
		return &FulfillResult{Status: rec.Status, ReceiptSent: true, ReceiptResponse: rec.ReceiptResponse}, nil
	}
	sid := rec.SessionID
	if sid == "" {
		sid = sessionID
	}
	if sid == "" {
		return nil, &NotSuccessfulError{Status: rec.Status}
	}
	state, err := s.gw.VerifySession(ctx, sid)
	if err != nil {
		return nil, err
	}
	if s.applyState(rec, state) {
		if err := s.store.Update(rec); err != nil {
			s.log.Errorf("[FULFILL] record update failed session_id=%s: %v", sid, err)
		}
	}
	if !models.IsSuccessStatus(state.Status) {
		return nil, &NotSuccessfulError{Status: state.Status}
	}
	email := s.resolveEmail(rec)
	if email == "" {
		s.log.Warnf("[FULFILL] no email resolvable merchant_order_id=%s, skipping dispatch", rec.MerchantOrderID)
		return &FulfillResult{Status: rec.Status, ReceiptSent: false}, nil
	}
	respBody, err := s.receipts.SendReceipt(ctx, appsscript.ReceiptRequest{
		Email:           email,
		MerchantOrderID: rec.MerchantOrderID,
		SessionID:       rec.SessionID,
		Amount:          rec.Amount,
		Currency:        rec.Currency,
		Status:          rec.Status,
		User:            unmarshalContext(rec.User),
		MetaData:        unmarshalContext(rec.MetaData),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReceiptDispatch, err)
	}
	now := time.Now()
	rec.ReceiptSent = true
	rec.ReceiptResponse = string(respBody)
	rec.EmailedAt = &now
	if err := s.store.Update(rec); err != nil {
		// Dispatch already happened; a retry may email twice. Log only.
		s.log.Errorf("[FULFILL] receipt bookkeeping update failed merchant_order_id=%s: %v", rec.MerchantOrderID, err)
	}
	return &FulfillResult{Status: rec.Status, ReceiptSent: true, ReceiptResponse: rec.ReceiptResponse}, nil
}

func (s *PaymentService) find(merchantOrderID, sessionID string) (*models.PaymentRecord, error) {
	if merchantOrderID != "" {
		rec, err := s.store.GetByMerchantOrderID(merchantOrderID)
		if err != nil || rec != nil {
			return rec, err
		}
	}
	if sessionID != "" {
		return s.store.GetBySessionID(sessionID)
	}
	return nil, nil
}

// applyState copies a verified state onto the record and reports whether the
// status actually changed. Equal statuses are a no-op so repeated
// verifications do not churn verifiedAt.
func (s *PaymentService) applyState(rec *models.PaymentRecord, state *gateway.PaymentState) bool {
	if rec.Status == state.Status {
		return false
	}
	now := time.Now()
	rec.Status = state.Status
	rec.Verification = string(state.Body)
	rec.VerifiedAt = &now
	if rec.SessionID == "" {
		rec.SessionID = state.SessionID
	}
	if rec.ProviderOrderRef == "" {
		rec.ProviderOrderRef = state.OrderRef
	}
	return true
}

func (s *PaymentService) recordFromState(state *gateway.PaymentState, merchantOrderID string) *models.PaymentRecord {
	now := time.Now()
	return &models.PaymentRecord{
		SessionID:        state.SessionID,
		MerchantOrderID:  merchantOrderID,
		ProviderOrderRef: state.OrderRef,
		Status:           state.Status,
		Amount:           state.Amount,
		Currency:         state.Currency,
		Verification:     string(state.Body),
		VerifiedAt:       &now,
	}
}

func (s *PaymentService) resolveEmail(rec *models.PaymentRecord) string {
	if rec.CustomerEmail != "" {
		return rec.CustomerEmail
	}
	user := unmarshalContext(rec.User)
	if email, ok := user["email"].(string); ok {
		return email
	}
	return ""
}

func marshalContext(m map[string]interface{}) string {
	if len(m) == 0 {
		return ""
	}
	b, _ := json.Marshal(m)
	return string(b)
}

func unmarshalContext(s string) map[string]interface{} {
	if s == "" {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil
	}
	return m
}

// orderRefFromRaw digs the provider-assigned order reference out of a raw
// payload, if it is there at all.
func orderRefFromRaw(raw map[string]interface{}) string {
	if raw == nil {
		return ""
	}
	if id, ok := raw["orderId"].(string); ok {
		return id
	}
	if session, ok := raw["session"].(map[string]interface{}); ok {
		if order, ok := session["order"].(map[string]interface{}); ok {
			if id, ok := order["id"].(string); ok {
				return id
			}
		}
	}
	if order, ok := raw["order"].(map[string]interface{}); ok {
		if id, ok := order["id"].(string); ok {
			return id
		}
	}
	return ""
}
