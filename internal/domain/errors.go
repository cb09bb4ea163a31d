package domain

import "errors"

var (
	ErrRecordNotFound      = errors.New("record not found")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInvalidLineItem     = errors.New("invalid line item")
	ErrCartNotFound        = errors.New("cart not found or has expired")
	ErrSessionExists       = errors.New("payment session already exists")
	ErrIllegalTransition   = errors.New("illegal status transition")
	ErrDuplicateEvent      = errors.New("webhook event already applied")
	ErrUnknownSession      = errors.New("event references an unknown payment session")
	ErrOverRefund          = errors.New("refund amount exceeds the remaining session total")
	ErrInvalidSessionState = errors.New("session is not in a refundable state")
)
