// Package catalog talks to the product service to resolve authoritative prices.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/Lixing-Zhang/ecommerce-backend/internal/models"
)

// Outcome discriminates a PriceResult
type Outcome int

const (
	OutcomeFound Outcome = iota
	OutcomeNotFound
	OutcomeClientError
	OutcomeServerError
	OutcomeRedirect
	OutcomeTransport
	OutcomeDecode
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeClientError:
		return "client_error"
	case OutcomeServerError:
		return "server_error"
	case OutcomeRedirect:
		return "redirect"
	case OutcomeTransport:
		return "transport"
	case OutcomeDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// PriceResult is the outcome of one lookup. Price is meaningful only when
// Outcome is OutcomeFound; Err carries the cause of every failure outcome.
type PriceResult struct {
	Outcome    Outcome
	Price      decimal.Decimal
	StatusCode int
	Err        error
}

// Found reports whether the lookup produced a price
func (r PriceResult) Found() bool {
	return r.Outcome == OutcomeFound
}

var lookupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "catalog_price_lookup_total",
		Help: "Price lookups against the product service by outcome",
	},
	[]string{"outcome"},
)

// maxBodyBytes bounds how much of a product response is read
const maxBodyBytes = 1 << 20

// Client fetches product prices from the product service over HTTP.
// It never retries and never follows redirects.
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        *slog.Logger
}

// NewClient creates a catalog client for baseURL (e.g. http://product-service).
// timeout is the transport-level limit for a single lookup.
func NewClient(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}
}

type productPayload struct {
	Price *decimal.Decimal `json:"price"`
}

// LookupPrice performs GET /api/products/{id} and classifies the response
func (c *Client) LookupPrice(ctx context.Context, productID string) PriceResult {
	result := c.lookup(ctx, productID)
	lookupTotal.WithLabelValues(result.Outcome.String()).Inc()

	if !result.Found() && result.Outcome != OutcomeNotFound {
		c.log.Error("price lookup failed",
			"product_id", productID,
			"outcome", result.Outcome.String(),
			"status", result.StatusCode,
			"error", result.Err,
		)
	}
	return result
}

func (c *Client) lookup(ctx context.Context, productID string) PriceResult {
	endpoint := c.baseURL + "/api/products/" + url.PathEscape(productID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return PriceResult{Outcome: OutcomeTransport, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return PriceResult{Outcome: OutcomeTransport, Err: fmt.Errorf("failed to reach product service: %w", err)}
	}
	defer resp.Body.Close()

	status := resp.StatusCode
	switch {
	case status == http.StatusOK:
		// handled below
	case status == http.StatusNotFound:
		return PriceResult{Outcome: OutcomeNotFound, StatusCode: status, Err: fmt.Errorf("product %s not found", productID)}
	case status >= 300 && status < 400:
		return PriceResult{Outcome: OutcomeRedirect, StatusCode: status, Err: fmt.Errorf("unexpected redirect: %d", status)}
	case status >= 400 && status < 500:
		return PriceResult{Outcome: OutcomeClientError, StatusCode: status, Err: fmt.Errorf("product service rejected request: %d", status)}
	default:
		// 5xx and any other unexpected status break the upstream contract
		return PriceResult{Outcome: OutcomeServerError, StatusCode: status, Err: fmt.Errorf("unexpected status code: %d", status)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return PriceResult{Outcome: OutcomeTransport, StatusCode: status, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	var payload productPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return PriceResult{Outcome: OutcomeDecode, StatusCode: status, Err: fmt.Errorf("failed to decode product: %w", err)}
	}
	if payload.Price == nil {
		return PriceResult{Outcome: OutcomeDecode, StatusCode: status, Err: errors.New("product response has no price")}
	}
	if !models.CentsInRange(*payload.Price) {
		return PriceResult{Outcome: OutcomeDecode, StatusCode: status, Err: fmt.Errorf("product price %s out of range", payload.Price.String())}
	}

	return PriceResult{Outcome: OutcomeFound, Price: *payload.Price, StatusCode: status}
}
