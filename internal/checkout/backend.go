package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/slimmermetai/checkout-api/internal/domain"
)

// maxResponseBody caps how much of an upstream response is read during
// classification. Oversized bodies are a symptom of a proxy error page, not a
// session payload.
const maxResponseBody = 1 << 20

// CheckoutPayload is the backend-neutral description of what the customer is
// buying. Backends translate it into their own wire format.
type CheckoutPayload struct {
	Items         []domain.LineItem
	Currency      string
	SuccessURL    string
	CancelURL     string
	CustomerEmail string
	Metadata      map[string]string
}

func (p *CheckoutPayload) totalAmount() int64 {
	var total int64
	for _, item := range p.Items {
		total += item.UnitAmount * int64(item.Quantity)
	}

	return total
}

// RedirectTarget is where the browser goes next. Direct is set when the
// target came from the provider SDK rather than one of our own APIs, which
// means no payment row exists for it yet.
type RedirectTarget struct {
	SessionID string
	URL       string
	Backend   string
	Direct    bool
}

// CheckoutBackend is one way of obtaining a redirect target. Attempt must
// honor ctx and classify its own failures via BackendError.
type CheckoutBackend interface {
	Name() string
	Attempt(ctx context.Context, payload *CheckoutPayload) (*RedirectTarget, error)
}

// APIBackend creates a session through one of our checkout API deployments.
type APIBackend struct {
	name   string
	url    string
	client *http.Client
}

func NewAPIBackend(name, url string, client *http.Client) *APIBackend {
	if client == nil {
		client = &http.Client{}
	}

	return &APIBackend{name: name, url: url, client: client}
}

func (b *APIBackend) Name() string {
	return b.name
}

type sessionRequest struct {
	LineItems     []lineItemRequest `json:"lineItems"`
	Currency      string            `json:"currency,omitempty"`
	SuccessURL    string            `json:"successUrl"`
	CancelURL     string            `json:"cancelUrl"`
	CustomerEmail string            `json:"customerEmail,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

type lineItemRequest struct {
	ProductID   string `json:"productId"`
	ProductType string `json:"productType"`
	Name        string `json:"name"`
	UnitAmount  int64  `json:"unitAmount"`
	Quantity    int    `json:"quantity"`
}

// sessionResponse tolerates both field spellings seen across deployments.
type sessionResponse struct {
	SessionID   string `json:"sessionId"`
	ID          string `json:"id"`
	RedirectURL string `json:"redirectUrl"`
	URL         string `json:"url"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

func (b *APIBackend) Attempt(ctx context.Context, payload *CheckoutPayload) (*RedirectTarget, error) {
	reqBody := sessionRequest{
		LineItems:     make([]lineItemRequest, 0, len(payload.Items)),
		Currency:      payload.Currency,
		SuccessURL:    payload.SuccessURL,
		CancelURL:     payload.CancelURL,
		CustomerEmail: payload.CustomerEmail,
		Metadata:      payload.Metadata,
	}

	for _, item := range payload.Items {
		reqBody.LineItems = append(reqBody.LineItems, lineItemRequest{
			ProductID:   item.ProductID,
			ProductType: string(item.ProductType),
			Name:        item.Name,
			UnitAmount:  item.UnitAmount,
			Quantity:    item.Quantity,
		})
	}

	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return nil, terminalError(b.name, KindInvalidRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(encoded))
	if err != nil {
		return nil, terminalError(b.name, KindInvalidRequest, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, retryableError(b.name, KindNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, retryableError(b.name, KindNetwork, err)
	}

	return classifyResponse(b.name, resp.StatusCode, body)
}

// classifyResponse turns an upstream HTTP response into a redirect target or
// a classified error. The markup sniff runs before any JSON parsing: hosting
// layers answer with HTML error pages under load, sometimes with status 200,
// and those must never be mistaken for a session.
func classifyResponse(backend string, status int, body []byte) (*RedirectTarget, error) {
	if looksLikeMarkup(body) {
		return nil, retryableError(backend, KindMalformedResponse,
			fmt.Errorf("got markup instead of JSON (status %d)", status))
	}

	switch {
	case status >= 500:
		return nil, retryableError(backend, KindUpstreamUnavailable,
			fmt.Errorf("upstream returned status %d", status))

	case status >= 400:
		var errResp errorResponse
		if err := json.Unmarshal(body, &errResp); err == nil {
			msg := errResp.Message
			if msg == "" {
				msg = errResp.Error
			}
			if msg != "" {
				return nil, terminalError(backend, KindRejected,
					fmt.Errorf("upstream rejected request (status %d): %s", status, msg))
			}
		}

		// A 4xx without a structured body tells us nothing about our
		// request, so another backend still gets its chance.
		return nil, retryableError(backend, KindMalformedResponse,
			fmt.Errorf("unparsable error body (status %d)", status))
	}

	var sessResp sessionResponse
	if err := json.Unmarshal(body, &sessResp); err != nil {
		return nil, retryableError(backend, KindMalformedResponse, err)
	}

	sessionID := sessResp.SessionID
	if sessionID == "" {
		sessionID = sessResp.ID
	}

	if sessionID == "" {
		return nil, retryableError(backend, KindMissingSessionID,
			errors.New("response carried no session identifier"))
	}

	url := sessResp.RedirectURL
	if url == "" {
		url = sessResp.URL
	}

	return &RedirectTarget{SessionID: sessionID, URL: url, Backend: backend}, nil
}

func looksLikeMarkup(body []byte) bool {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return false
	}

	lowered := strings.ToLower(trimmed)

	return strings.HasPrefix(lowered, "<!doctype") ||
		strings.HasPrefix(lowered, "<html") ||
		strings.HasPrefix(lowered, "<?php")
}
