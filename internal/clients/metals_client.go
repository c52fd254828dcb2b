package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/zakat/internal/domain"
)

const (
	DefaultMetalsAPIURL  = "https://metals-api.com/api"
	defaultMetalsTimeout = 15 * time.Second
	symbolGold           = "XAU"
	symbolSilver         = "XAG"
)

// MetalsClient reads spot rates from a Metals-API compatible endpoint.
type MetalsClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewMetalsClient creates a new Metals-API client.
func NewMetalsClient(baseURL, apiKey string) *MetalsClient {
	if baseURL == "" {
		baseURL = DefaultMetalsAPIURL
	}
	return &MetalsClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultMetalsTimeout},
	}
}

type metalsResponse struct {
	Success bool                       `json:"success"`
	Base    string                     `json:"base"`
	Rates   map[string]decimal.Decimal `json:"rates"`
	Error   *metalsError               `json:"error,omitempty"`
}

type metalsError struct {
	Code int    `json:"code"`
	Type string `json:"type"`
	Info string `json:"info"`
}

// LatestOunceRates returns the USD price of one troy ounce of gold and silver.
func (c *MetalsClient) LatestOunceRates(ctx context.Context) (gold, silver decimal.Decimal, _ error) {
	if c.apiKey == "" {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: metals API key is empty", domain.ErrProviderUnavailable)
	}

	query := url.Values{}
	query.Set("access_key", c.apiKey)
	query.Set("base", "USD")
	query.Set("symbols", symbolGold+","+symbolSilver)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/latest?"+query.Encode(), nil)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, errors.Wrap(err, "failed to create HTTP request"))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, errors.Wrap(err, "HTTP request failed"))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, errors.Wrap(err, "failed to read response body"))
	}

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: metals API returned status %d: %s", domain.ErrProviderUnavailable, resp.StatusCode, truncate(body, maxErrorBodyLen))
	}

	var metalsResp metalsResponse
	if err := json.Unmarshal(body, &metalsResp); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: %w: %w", domain.ErrProviderUnavailable, domain.ErrMalformedProviderData, err)
	}

	if !metalsResp.Success {
		if metalsResp.Error != nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("%w: metals API error %d (%s): %s",
				domain.ErrProviderUnavailable, metalsResp.Error.Code, metalsResp.Error.Type, metalsResp.Error.Info)
		}
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: metals API reported failure", domain.ErrProviderUnavailable)
	}

	gold, err = ouncePrice(metalsResp.Rates, symbolGold)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	silver, err = ouncePrice(metalsResp.Rates, symbolSilver)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return gold, silver, nil
}

// ouncePrice inverts a USD-based rate (ounces per dollar) into dollars per ounce.
func ouncePrice(rates map[string]decimal.Decimal, symbol string) (decimal.Decimal, error) {
	rate, ok := rates[symbol]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable,
			errors.Wrapf(domain.ErrMalformedProviderData, "no positive %s rate", symbol))
	}
	return decimal.NewFromInt(1).DivRound(rate, 8), nil
}
