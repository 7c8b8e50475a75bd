package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const stripeSignatureTolerance = 5 * time.Minute

// CheckoutSessionRequest describes one hosted checkout for a payment
type CheckoutSessionRequest struct {
	PaymentID     uint
	CustomerEmail string
	Description   string
	Amount        decimal.Decimal
	Currency      string
	SuccessURL    string
	CancelURL     string
}

// CheckoutSession is the subset of the Stripe response we keep
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CheckoutCompletedEvent is the session payload of checkout.session.completed
type CheckoutCompletedEvent struct {
	Type    string
	Session struct {
		ID                string            `json:"id"`
		PaymentIntent     string            `json:"payment_intent"`
		PaymentStatus     string            `json:"payment_status"`
		ClientReferenceID string            `json:"client_reference_id"`
		Metadata          map[string]string `json:"metadata"`
	}
}

// PaymentID extracts our payment id from the session reference
func (e CheckoutCompletedEvent) PaymentID() (uint, error) {
	ref := e.Session.ClientReferenceID
	if ref == "" {
		ref = e.Session.Metadata["payment_id"]
	}
	id, err := strconv.ParseUint(ref, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("session %s carries no payment reference", e.Session.ID)
	}
	return uint(id), nil
}

// StripeClient talks to the Stripe Checkout REST API
type StripeClient struct {
	client        *resty.Client
	webhookSecret string
	now           func() time.Time
}

func NewStripeClient(apiURL, secretKey, webhookSecret string) *StripeClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(apiURL, "/")).
		SetBasicAuth(secretKey, "").
		SetTimeout(15 * time.Second).
		SetRetryCount(2)
	return &StripeClient{client: client, webhookSecret: webhookSecret, now: time.Now}
}

// CreateCheckoutSession opens a hosted payment page for the amount
func (s *StripeClient) CreateCheckoutSession(req CheckoutSessionRequest) (*CheckoutSession, error) {
	ref := strconv.FormatUint(uint64(req.PaymentID), 10)
	// Stripe wants the amount in the currency's minor unit
	minor := req.Amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()

	form := map[string]string{
		"mode":                 "payment",
		"success_url":          req.SuccessURL,
		"cancel_url":           req.CancelURL,
		"client_reference_id":  ref,
		"metadata[payment_id]": ref,
	}
	form["line_items[0][quantity]"] = "1"
	form["line_items[0][price_data][currency]"] = strings.ToLower(req.Currency)
	form["line_items[0][price_data][unit_amount]"] = strconv.FormatInt(minor, 10)
	form["line_items[0][price_data][product_data][name]"] = req.Description
	if req.CustomerEmail != "" {
		form["customer_email"] = req.CustomerEmail
	}

	var session CheckoutSession
	resp, err := s.client.R().
		SetHeader("Idempotency-Key", "checkout-"+ref+"-"+uuid.NewString()).
		SetFormData(form).
		SetResult(&session).
		Post("/v1/checkout/sessions")
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %v", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("stripe error %d: %s", resp.StatusCode(), resp.String())
	}
	if session.ID == "" {
		return nil, fmt.Errorf("stripe returned no session id")
	}
	return &session, nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event
func (s *StripeClient) ParseWebhook(payload []byte, signatureHeader string) (*CheckoutCompletedEvent, error) {
	if err := VerifyStripeSignature(payload, signatureHeader, s.webhookSecret, s.now()); err != nil {
		return nil, err
	}

	var raw struct {
		Type string `json:"type"`
		Data struct {
			Object json.RawMessage `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse webhook: %v", err)
	}
	event := &CheckoutCompletedEvent{Type: raw.Type}
	if raw.Type == "checkout.session.completed" {
		if err := json.Unmarshal(raw.Data.Object, &event.Session); err != nil {
			return nil, fmt.Errorf("failed to parse checkout session: %v", err)
		}
	}
	return event, nil
}

// VerifyStripeSignature checks a "t=<ts>,v1=<hex>" header against the payload
func VerifyStripeSignature(payload []byte, header, secret string, at time.Time) error {
	if secret == "" {
		return fmt.Errorf("webhook secret not configured")
	}

	var timestamp string
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return fmt.Errorf("malformed signature header")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("malformed signature timestamp")
	}
	if d := at.Sub(time.Unix(ts, 0)); d > stripeSignatureTolerance || d < -stripeSignatureTolerance {
		return fmt.Errorf("signature timestamp outside tolerance")
	}

	expected := SignStripePayload(payload, secret, ts)
	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}
	return fmt.Errorf("signature mismatch")
}

// SignStripePayload computes the v1 signature for a payload at ts
func SignStripePayload(payload []byte, secret string, ts int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
