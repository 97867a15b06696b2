package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

// Gateway is the payment boundary the wizard depends on. The live
// implementation talks to the PayPal Orders v2 API; tests inject a fake.
type Gateway interface {
	CreateOrder(ctx context.Context, amount, currency, description string) (orderID string, err error)
	CaptureOrder(ctx context.Context, orderID string) (transactionID string, err error)
}

var (
	// ErrPaymentDeclined is a recoverable decline: the guest stays on the
	// payment step and may retry.
	ErrPaymentDeclined = errors.New("payment declined")
	// ErrPaymentFailed is a transport or provider error, equally recoverable.
	ErrPaymentFailed = errors.New("payment error")
)

// Client is the live PayPal gateway.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	http         *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewClient() *Client {
	base := os.Getenv("PAYPAL_API_BASE")
	if base == "" {
		base = "https://api-m.sandbox.paypal.com"
	}
	return &Client{
		baseURL:      strings.TrimRight(base, "/"),
		clientID:     os.Getenv("PAYPAL_CLIENT_ID"),
		clientSecret: os.Getenv("PAYPAL_CLIENT_SECRET"),
		http:         &http.Client{Timeout: 20 * time.Second},
	}
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token status %d", ErrPaymentFailed, resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	c.accessToken = body.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(body.ExpiresIn-60) * time.Second)
	return c.accessToken, nil
}

// CreateOrder opens a PayPal order for the frozen wizard total.
func (c *Client) CreateOrder(ctx context.Context, amount, currency, description string) (string, error) {
	payload := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{{
			"description": description,
			"amount":      map[string]string{"value": amount, "currency_code": currency},
		}},
	}

	var body struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, "/v2/checkout/orders", payload, &body); err != nil {
		return "", err
	}
	if body.ID == "" {
		return "", fmt.Errorf("%w: empty order id", ErrPaymentFailed)
	}
	return body.ID, nil
}

// CaptureOrder finalises an approved order and returns the capture
// transaction id.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (string, error) {
	var body struct {
		Status        string `json:"status"`
		PurchaseUnits []struct {
			Payments struct {
				Captures []struct {
					ID     string `json:"id"`
					Status string `json:"status"`
				} `json:"captures"`
			} `json:"payments"`
		} `json:"purchase_units"`
	}
	if err := c.post(ctx, "/v2/checkout/orders/"+orderID+"/capture", map[string]any{}, &body); err != nil {
		return "", err
	}

	for _, pu := range body.PurchaseUnits {
		for _, cap := range pu.Payments.Captures {
			if cap.Status == "COMPLETED" && cap.ID != "" {
				return cap.ID, nil
			}
			if cap.Status == "DECLINED" {
				return "", ErrPaymentDeclined
			}
		}
	}
	return "", fmt.Errorf("%w: no completed capture in response", ErrPaymentFailed)
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	tok, err := c.token(ctx)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity, resp.StatusCode == http.StatusPaymentRequired:
		return ErrPaymentDeclined
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: status %d on %s", ErrPaymentFailed, resp.StatusCode, path)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
