// Package api holds the request and response types of the public HTTP surface.
package api

import (
	"time"

	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Message   string    `json:"message"`
	Code      string    `json:"code,omitempty"`
	RequestId string    `json:"requestId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationErrorResponse struct {
	Message          string            `json:"message"`
	ValidationErrors []ValidationError `json:"validationErrors"`
	RequestId        string            `json:"requestId,omitempty"`
	Timestamp        time.Time         `json:"timestamp"`
}

type LineItem struct {
	ProductId   string `json:"productId" validate:"required"`
	ProductType string `json:"productType" validate:"required,product_type"`
	Name        string `json:"name" validate:"required"`
	UnitAmount  int64  `json:"unitAmount" validate:"gte=0"`
	Quantity    int    `json:"quantity" validate:"gte=1"`
}

type CheckoutSessionRequest struct {
	LineItems     []LineItem        `json:"lineItems" validate:"required,min=1,dive"`
	SuccessUrl    string            `json:"successUrl" validate:"required,url"`
	CancelUrl     string            `json:"cancelUrl" validate:"required,url"`
	Currency      string            `json:"currency" validate:"omitempty,currency_code"`
	CustomerEmail string            `json:"customerEmail" validate:"omitempty,email"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

type CheckoutFromCartRequest struct {
	SuccessUrl    string            `json:"successUrl" validate:"omitempty,url"`
	CancelUrl     string            `json:"cancelUrl" validate:"omitempty,url"`
	Currency      string            `json:"currency" validate:"omitempty,currency_code"`
	CustomerEmail string            `json:"customerEmail" validate:"omitempty,email"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

type CheckoutSessionResponse struct {
	SessionId   string `json:"sessionId"`
	RedirectUrl string `json:"redirectUrl"`
}

type PaymentStatusResponse struct {
	SessionId     string     `json:"sessionId"`
	PaymentStatus string     `json:"paymentStatus"`
	Status        string     `json:"status"`
	AmountTotal   int64      `json:"amountTotal"`
	Currency      string     `json:"currency"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	FailureReason *string    `json:"failureReason,omitempty"`
}

type RefundRequest struct {
	SessionId string `json:"sessionId" validate:"required"`
	Amount    int64  `json:"amount" validate:"gt=0"`
	Reason    string `json:"reason" validate:"required"`
}

type RefundResponse struct {
	RefundId string `json:"refundId"`
	Status   string `json:"status"`
}

type RefundResultRequest struct {
	Success bool `json:"success"`
}

type AddCartItemRequest struct {
	ProductId string          `json:"productId" validate:"required"`
	Type      string          `json:"type" validate:"required,product_type"`
	Name      string          `json:"name" validate:"required"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity" validate:"gte=1"`
}

type CartItem struct {
	ProductId string          `json:"productId"`
	Type      string          `json:"type"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

type CartResponse struct {
	CartId     string          `json:"cartId"`
	Items      []CartItem      `json:"items"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

type SystemInfo struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type HealthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"systemInfo"`
}
