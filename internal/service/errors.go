package service

import (
	"errors"
	"fmt"
)

// ErrNotFound means no payment record matched and no session id was available
// to bootstrap one from.
var ErrNotFound = errors.New("payment record not found")

// ErrUnreconcilable means a webhook notification carried no resolvable
// session identifier. The request is dropped; the provider's own retry
// policy is the only recovery path.
var ErrUnreconcilable = errors.New("notification cannot be reconciled")

// ErrReceiptDispatch wraps a failed receipt send. ReceiptSent stays false so
// a retried fulfillment attempts dispatch again.
var ErrReceiptDispatch = errors.New("receipt dispatch failed")

// NotSuccessfulError is returned by fulfillment when the verified payment is
// not in a success state. No receipt is dispatched.
type NotSuccessfulError struct {
	Status string
}

func (e *NotSuccessfulError) Error() string {
	return fmt.Sprintf("payment not successful: status %s", e.Status)
}
