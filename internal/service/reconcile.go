package service

import (
	"context"
	"encoding/json"
)

// Notification is the parsed shape of a provider webhook body. Everything in
// it is untrusted; it only ever supplies correlation keys.
type Notification struct {
	SessionID       string
	MerchantOrderID string
	OrderRef        string
	Raw             map[string]interface{}
}

// ParseNotification pulls the correlation keys out of the known notification
// shapes the provider sends.
func ParseNotification(body []byte) *Notification {
	n := &Notification{}
	if err := json.Unmarshal(body, &n.Raw); err != nil {
		return n
	}
	n.SessionID = firstString(n.Raw, "sessionId", "session_id")
	n.MerchantOrderID = firstString(n.Raw, "merchantOrderId", "merchant_order_id", "merchantReferenceId")
	n.OrderRef = firstString(n.Raw, "orderId", "order_id")
	if session, ok := n.Raw["session"].(map[string]interface{}); ok {
		if n.SessionID == "" {
			n.SessionID = firstString(session, "id")
		}
	}
	if order, ok := n.Raw["order"].(map[string]interface{}); ok {
		if n.SessionID == "" {
			n.SessionID = firstString(order, "sessionId")
		}
		if n.MerchantOrderID == "" {
			n.MerchantOrderID = firstString(order, "merchantReferenceId")
		}
		if n.OrderRef == "" {
			n.OrderRef = firstString(order, "id")
		}
	}
	return n
}

// sessionResolver tries one strategy for turning a notification into a
// session id. Empty result means "not this one, try the next".
type sessionResolver func(ctx context.Context, n *Notification) (string, error)

func (s *PaymentService) resolvers() []sessionResolver {
	return []sessionResolver{
		s.resolveDirect,
		s.resolveByMerchantOrder,
		s.resolveByOrderRef,
	}
}

func (s *PaymentService) resolveDirect(ctx context.Context, n *Notification) (string, error) {
	return n.SessionID, nil
}

func (s *PaymentService) resolveByMerchantOrder(ctx context.Context, n *Notification) (string, error) {
	if n.MerchantOrderID == "" {
		return "", nil
	}
	rec, err := s.store.GetByMerchantOrderID(n.MerchantOrderID)
	if err != nil || rec == nil {
		return "", err
	}
	return rec.SessionID, nil
}

func (s *PaymentService) resolveByOrderRef(ctx context.Context, n *Notification) (string, error) {
	if n.OrderRef == "" {
		return "", nil
	}
	rec, err := s.store.GetByProviderOrderRef(n.OrderRef)
	if err != nil || rec == nil {
		return "", err
	}
	return rec.SessionID, nil
}

// Reconcile applies one webhook notification: resolve the session id, fetch
// the authoritative state from the gateway, and apply an idempotent status
// transition. The notification's own status claim is never written.
func (s *PaymentService) Reconcile(ctx context.Context, body []byte) error {
	n := ParseNotification(body)
	s.log.Infof("[WEBHOOK] notification session_id=%q merchant_order_id=%q order_ref=%q", n.SessionID, n.MerchantOrderID, n.OrderRef)
	var sessionID string
	for _, resolve := range s.resolvers() {
		id, err := resolve(ctx, n)
		if err != nil {
			s.log.Errorf("[WEBHOOK] lookup failed: %v", err)
			continue
		}
		if id != "" {
			sessionID = id
			break
		}
	}
	if sessionID == "" {
		return ErrUnreconcilable
	}
	state, err := s.gw.VerifySession(ctx, sessionID)
	if err != nil {
		return err
	}
	rec, err := s.store.GetBySessionID(sessionID)
	if err != nil {
		s.log.Errorf("[WEBHOOK] record lookup failed session_id=%s: %v", sessionID, err)
		return nil
	}
	if rec == nil {
		rec = s.recordFromState(state, n.MerchantOrderID)
		if err := s.store.Create(rec); err != nil {
			s.log.Errorf("[WEBHOOK] record create failed session_id=%s: %v", sessionID, err)
		}
		return nil
	}
	if !s.applyState(rec, state) {
		s.log.Infof("[WEBHOOK] session_id=%s already %s, no-op", sessionID, rec.Status)
		return nil
	}
	if err := s.store.Update(rec); err != nil {
		s.log.Errorf("[WEBHOOK] record update failed session_id=%s: %v", sessionID, err)
	}
	return nil
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
