package paymongo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/riveravet/clinic-api/pkg/circuitbreaker"
	"github.com/riveravet/clinic-api/pkg/metrics"
)

const DefaultBaseURL = "https://api.paymongo.com/v1"

// Intent statuses reported by PayMongo.
const (
	StatusSucceeded             = "succeeded"
	StatusAwaitingNextAction    = "awaiting_next_action"
	StatusAwaitingPaymentMethod = "awaiting_payment_method"
)

// APIError is a 4xx answer from PayMongo.
type APIError struct {
	StatusCode int
	Code       string
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paymongo: %d %s: %s", e.StatusCode, e.Code, e.Detail)
}

type Config struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

type Client struct {
	baseURL string
	secret  string
	http    *http.Client
	breaker *circuitbreaker.CircuitBreaker
	metrics *metrics.Metrics
}

func NewClient(cfg Config, m *metrics.Metrics) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		secret:  cfg.SecretKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "paymongo",
			MaxRequests: 5,
			Timeout:     30 * time.Second,
		}),
		metrics: m,
	}
}

type Intent struct {
	ID          string
	Status      string
	Amount      int64
	RedirectURL string
	// PaymentID is the first captured payment, set once the intent succeeded.
	PaymentID string
}

type Billing struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type Refund struct {
	ID     string
	Status string
	Amount int64
}

type envelope struct {
	Data struct {
		ID         string          `json:"id"`
		Attributes json.RawMessage `json:"attributes"`
	} `json:"data"`
	Errors []struct {
		Code   string `json:"code"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

type intentAttributes struct {
	Status     string `json:"status"`
	Amount     int64  `json:"amount"`
	NextAction *struct {
		Redirect struct {
			URL string `json:"url"`
		} `json:"redirect"`
	} `json:"next_action"`
	Payments []struct {
		ID string `json:"id"`
	} `json:"payments"`
}

// CreateIntent opens an e-wallet payment intent for amount centavos in PHP.
func (c *Client) CreateIntent(ctx context.Context, amount int64, descriptor string) (*Intent, error) {
	body := attributes(map[string]interface{}{
		"amount":                 amount,
		"currency":               "PHP",
		"capture_type":           "automatic",
		"payment_method_allowed": []string{"gcash", "paymaya"},
		"statement_descriptor":   descriptor,
		"description":            descriptor,
	})

	var env envelope
	if err := c.do(ctx, "create_intent", http.MethodPost, "/payment_intents", body, &env); err != nil {
		return nil, err
	}
	return decodeIntent(&env)
}

// CreateMethod registers a payment method of kind (gcash or paymaya) and returns its id.
func (c *Client) CreateMethod(ctx context.Context, kind string, billing Billing) (string, error) {
	body := attributes(map[string]interface{}{
		"type":    kind,
		"billing": billing,
	})

	var env envelope
	if err := c.do(ctx, "create_method", http.MethodPost, "/payment_methods", body, &env); err != nil {
		return "", err
	}
	return env.Data.ID, nil
}

// AttachMethod binds methodID to the intent; the result carries the checkout redirect.
func (c *Client) AttachMethod(ctx context.Context, intentID, methodID, returnURL string) (*Intent, error) {
	body := attributes(map[string]interface{}{
		"payment_method": methodID,
		"return_url":     returnURL,
	})

	var env envelope
	if err := c.do(ctx, "attach_method", http.MethodPost, "/payment_intents/"+intentID+"/attach", body, &env); err != nil {
		return nil, err
	}
	return decodeIntent(&env)
}

func (c *Client) GetIntent(ctx context.Context, intentID string) (*Intent, error) {
	var env envelope
	if err := c.do(ctx, "get_intent", http.MethodGet, "/payment_intents/"+intentID, nil, &env); err != nil {
		return nil, err
	}
	return decodeIntent(&env)
}

// Refund returns amount centavos of paymentID to the customer.
func (c *Client) Refund(ctx context.Context, paymentID string, amount int64, reason string) (*Refund, error) {
	body := attributes(map[string]interface{}{
		"amount":     amount,
		"payment_id": paymentID,
		"reason":     reason,
	})

	var env envelope
	if err := c.do(ctx, "refund", http.MethodPost, "/refunds", body, &env); err != nil {
		return nil, err
	}

	var attrs struct {
		Status string `json:"status"`
		Amount int64  `json:"amount"`
	}
	if err := json.Unmarshal(env.Data.Attributes, &attrs); err != nil {
		return nil, fmt.Errorf("paymongo: failed to decode refund: %w", err)
	}
	return &Refund{ID: env.Data.ID, Status: attrs.Status, Amount: attrs.Amount}, nil
}

func attributes(attrs map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"data": map[string]interface{}{"attributes": attrs}}
}

func decodeIntent(env *envelope) (*Intent, error) {
	var attrs intentAttributes
	if err := json.Unmarshal(env.Data.Attributes, &attrs); err != nil {
		return nil, fmt.Errorf("paymongo: failed to decode payment intent: %w", err)
	}
	intent := &Intent{ID: env.Data.ID, Status: attrs.Status, Amount: attrs.Amount}
	if attrs.NextAction != nil {
		intent.RedirectURL = attrs.NextAction.Redirect.URL
	}
	if len(attrs.Payments) > 0 {
		intent.PaymentID = attrs.Payments[0].ID
	}
	return intent, nil
}

// do sends one request. Transport failures and 5xx answers count against the
// breaker; 4xx answers are returned as *APIError and do not.
func (c *Client) do(ctx context.Context, op, method, path string, body interface{}, out *envelope) error {
	timer := prometheus.NewTimer(c.metrics.PaymentLatency.WithLabelValues(op))
	defer timer.ObserveDuration()

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("paymongo: failed to encode request: %w", err)
		}
	}

	var apiErr *APIError
	err := c.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.SetBasicAuth(c.secret, "")
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("paymongo: %s failed: %w", op, err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return fmt.Errorf("paymongo: failed to read %s response: %w", op, err)
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("paymongo: %s returned status %d", op, resp.StatusCode)
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("paymongo: failed to decode %s response: %w", op, err)
		}
		if resp.StatusCode >= 400 {
			apiErr = &APIError{StatusCode: resp.StatusCode}
			if len(out.Errors) > 0 {
				apiErr.Code = out.Errors[0].Code
				apiErr.Detail = out.Errors[0].Detail
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if apiErr != nil {
		return apiErr
	}
	return nil
}

// IsAPIError reports whether err is a 4xx answer from PayMongo.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
