// Package paystack is a minimal client for the Paystack REST API covering
// the operations the billing core needs: hosted transaction initialization,
// off-session charges against a saved authorization, verification by
// reference, and webhook signature checks.
package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/goviral/goviral/internal/payment"
)

const DefaultBaseURL = "https://api.paystack.co"

// SignatureHeader carries the HMAC-SHA512 digest of the raw webhook body.
const SignatureHeader = "x-paystack-signature"

type Client struct {
	secretKey   string
	callbackURL string
	baseURL     string
	httpClient  *http.Client
}

func NewClient(secretKey, callbackURL string) *Client {
	return &Client{
		secretKey:   secretKey,
		callbackURL: callbackURL,
		baseURL:     DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewClientWithBaseURL is used by tests to point the client at a stub server.
func NewClientWithBaseURL(secretKey, callbackURL, baseURL string) *Client {
	c := NewClient(secretKey, callbackURL)
	c.baseURL = baseURL
	return c
}

// Configured reports whether the client has credentials to call the API.
func (c *Client) Configured() bool {
	return c.secretKey != ""
}

// envelope is Paystack's standard response wrapper.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type transactionData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type chargeData struct {
	Status        string                    `json:"status"`
	Reference     string                    `json:"reference"`
	Amount        int                       `json:"amount"`
	Authorization payment.CardAuthorization `json:"authorization"`
	Customer      struct {
		CustomerCode string `json:"customer_code"`
		Email        string `json:"email"`
	} `json:"customer"`
	Metadata payment.Metadata `json:"metadata"`
}

// InitializeTransaction creates a hosted payment page and returns its URL.
// Amounts are in the currency's minor unit, per the Paystack wire format.
func (c *Client) InitializeTransaction(ctx context.Context, p payment.InitializeParams) (*payment.HostedTransaction, error) {
	body := map[string]any{
		"email":     p.Email,
		"amount":    p.AmountCents,
		"reference": p.Reference,
		"currency":  p.Currency,
		"metadata":  p.Metadata,
	}
	if p.CallbackURL != "" {
		body["callback_url"] = p.CallbackURL
	} else if c.callbackURL != "" {
		body["callback_url"] = c.callbackURL
	}

	var data transactionData
	if err := c.post(ctx, "/transaction/initialize", body, &data); err != nil {
		return nil, err
	}
	return &payment.HostedTransaction{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
	}, nil
}

// ChargeAuthorization performs an off-session charge against a saved card
// authorization. The returned result reports whether the charge settled.
func (c *Client) ChargeAuthorization(ctx context.Context, p payment.ChargeParams) (*payment.ChargeResult, error) {
	body := map[string]any{
		"authorization_code": p.AuthorizationCode,
		"email":              p.Email,
		"amount":             p.AmountCents,
		"reference":          p.Reference,
		"currency":           p.Currency,
		"metadata":           p.Metadata,
	}

	var data chargeData
	if err := c.post(ctx, "/transaction/charge_authorization", body, &data); err != nil {
		return nil, err
	}
	return &payment.ChargeResult{
		Reference:     data.Reference,
		Paid:          data.Status == "success",
		AmountCents:   data.Amount,
		CustomerCode:  data.Customer.CustomerCode,
		Authorization: data.Authorization,
	}, nil
}

// VerifyTransaction fetches the settled state of a transaction by reference.
// Used by the synchronous redirect flow before any webhook has arrived.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*payment.VerifyResult, error) {
	var data chargeData
	if err := c.get(ctx, "/transaction/verify/"+reference, &data); err != nil {
		return nil, err
	}
	return &payment.VerifyResult{
		Reference:     data.Reference,
		Paid:          data.Status == "success",
		AmountCents:   data.Amount,
		CustomerCode:  data.Customer.CustomerCode,
		Authorization: data.Authorization,
		Metadata:      data.Metadata,
	}, nil
}

// VerifyWebhookSignature checks that the raw webhook body was signed with the
// account's secret key. Must be called before the body is parsed.
func (c *Client) VerifyWebhookSignature(body []byte, signature string) bool {
	if c.secretKey == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(c.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(payload), result)
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) do(ctx context.Context, method, path string, body *bytes.Reader, result any) error {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("paystack API request: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode paystack response: %w", err)
	}
	if resp.StatusCode >= 400 || !env.Status {
		return fmt.Errorf("paystack API %s %s: status %d: %s", method, path, resp.StatusCode, env.Message)
	}
	if result != nil {
		if err := json.Unmarshal(env.Data, result); err != nil {
			return fmt.Errorf("decode paystack data: %w", err)
		}
	}
	return nil
}
