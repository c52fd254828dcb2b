package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/zakat/internal/domain"
	"github.com/vadiminshakov/zakat/pkg/retrier"
)

const (
	DefaultCovalentURL     = "https://api.covalenthq.com"
	defaultCovalentTimeout = 30 * time.Second
	transactionsPageSize   = 100
	maxTransactionPages    = 20
	maxErrorBodyLen        = 512
)

// errTransient marks failures worth another attempt (transport errors, 429, 5xx).
var errTransient = errors.New("transient upstream failure")

// BalanceItem one row of the balances_v2 endpoint.
type BalanceItem struct {
	ContractTickerSymbol string
	ContractName         string
	Type                 string
	Balance              decimal.Decimal
	ContractDecimals     int32
	Quote                decimal.Decimal
	ContractAddress      string
	LogoURL              string
	// Complete is false if any expected key was missing or undecodable.
	Complete bool
}

// TransactionItem one row of the transactions_v2 endpoint.
type TransactionItem struct {
	BlockSignedAt string
	TxHash        string
	FromAddress   string
	ToAddress     string
	ValueQuote    decimal.Decimal
}

type balanceFields struct {
	ContractTickerSymbol string          `mapstructure:"contract_ticker_symbol"`
	ContractName         string          `mapstructure:"contract_name"`
	Type                 string          `mapstructure:"type"`
	Balance              decimal.Decimal `mapstructure:"balance"`
	ContractDecimals     int32           `mapstructure:"contract_decimals"`
	Quote                decimal.Decimal `mapstructure:"quote"`
	ContractAddress      string          `mapstructure:"contract_address"`
	LogoURL              string          `mapstructure:"logo_url"`
}

type transactionFields struct {
	BlockSignedAt string          `mapstructure:"block_signed_at"`
	TxHash        string          `mapstructure:"tx_hash"`
	FromAddress   string          `mapstructure:"from_address"`
	ToAddress     string          `mapstructure:"to_address"`
	ValueQuote    decimal.Decimal `mapstructure:"value_quote"`
}

type covalentResponse struct {
	Data         *covalentData `json:"data"`
	Error        bool          `json:"error"`
	ErrorMessage string        `json:"error_message"`
	ErrorCode    int           `json:"error_code"`
}

type covalentData struct {
	Address    string              `json:"address"`
	Items      []any               `json:"items"`
	Pagination *covalentPagination `json:"pagination"`
}

type covalentPagination struct {
	HasMore    bool `json:"has_more"`
	PageNumber int  `json:"page_number"`
}

// CovalentClient talks to the Covalent (GoldRush) indexing API.
type CovalentClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retrier    *retrier.Retrier
	logger     *zap.Logger
}

// NewCovalentClient creates a client. maxRetries of 0 disables retrying.
func NewCovalentClient(baseURL, apiKey string, timeout time.Duration, maxRetries int, logger *zap.Logger) *CovalentClient {
	if baseURL == "" {
		baseURL = DefaultCovalentURL
	}
	if timeout <= 0 {
		timeout = defaultCovalentTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CovalentClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		retrier: retrier.New(
			retrier.WithMaxRetries(maxRetries),
			retrier.WithInitialInterval(500*time.Millisecond),
			retrier.WithRetryIf(func(err error) bool { return errors.Is(err, errTransient) }),
			retrier.WithOnRetry(func(attempt int, err error, wait time.Duration) {
				logger.Warn("covalent request failed, retrying",
					zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
			}),
		),
		logger: logger,
	}
}

// Balances returns the token balances of address on chainID.
func (c *CovalentClient) Balances(ctx context.Context, chainID int64, address string) ([]BalanceItem, error) {
	query := url.Values{}
	query.Set("nft", "false")
	query.Set("no-nft-fetch", "true")

	data, err := c.get(ctx, fmt.Sprintf("/v1/%d/address/%s/balances_v2/", chainID, address), query)
	if err != nil {
		return nil, errors.Wrap(err, "fetch balances")
	}

	items := make([]BalanceItem, 0, len(data.Items))
	for i, raw := range data.Items {
		row, ok := raw.(map[string]any)
		if !ok {
			// kept as an empty incomplete row so it is excluded, not fatal
			c.logger.Debug("balance row is not an object", zap.Int("index", i))
			items = append(items, BalanceItem{})
			continue
		}
		item, err := decodeBalanceItem(row)
		if err != nil {
			c.logger.Debug("incomplete balance row", zap.Int("index", i), zap.Error(err))
		}
		items = append(items, item)
	}

	return items, nil
}

// Transactions returns transactions touching address, newest first, stopping
// once a page reaches back past since.
func (c *CovalentClient) Transactions(ctx context.Context, chainID int64, address string, since time.Time) ([]TransactionItem, error) {
	var items []TransactionItem
	for page := 0; page < maxTransactionPages; page++ {
		query := url.Values{}
		query.Set("no-logs", "true")
		query.Set("page-size", strconv.Itoa(transactionsPageSize))
		query.Set("page-number", strconv.Itoa(page))

		data, err := c.get(ctx, fmt.Sprintf("/v1/%d/address/%s/transactions_v2/", chainID, address), query)
		if err != nil {
			return nil, errors.Wrapf(err, "fetch transactions page %d", page)
		}

		reachedSince := false
		for i, raw := range data.Items {
			row, ok := raw.(map[string]any)
			if !ok {
				c.logger.Debug("skipping transaction row that is not an object", zap.Int("page", page), zap.Int("index", i))
				continue
			}
			item, err := decodeTransactionItem(row)
			if err != nil {
				c.logger.Debug("incomplete transaction row", zap.Int("page", page), zap.Int("index", i), zap.Error(err))
			}
			items = append(items, item)

			if ts, err := time.Parse(time.RFC3339, item.BlockSignedAt); err == nil && ts.Before(since) {
				reachedSince = true
			}
		}

		if reachedSince || data.Pagination == nil || !data.Pagination.HasMore {
			break
		}
	}

	return items, nil
}

func (c *CovalentClient) get(ctx context.Context, path string, query url.Values) (*covalentData, error) {
	return retrier.DoWithData(c.retrier, ctx, func(ctx context.Context) (*covalentData, error) {
		return c.sendRequest(ctx, path, query)
	})
}

func (c *CovalentClient) sendRequest(ctx context.Context, path string, query url.Values) (*covalentData, error) {
	if c.apiKey != "" {
		query.Set("key", c.apiKey)
	}
	endpoint := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, errors.Wrap(err, "failed to create HTTP request"))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", domain.ErrProviderUnavailable, errTransient, errors.Wrap(err, "HTTP request failed"))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", domain.ErrProviderUnavailable, errTransient, errors.Wrap(err, "failed to read response body"))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := fmt.Errorf("covalent returned status %d: %s", resp.StatusCode, truncate(body, maxErrorBodyLen))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: %w: %w", domain.ErrProviderUnavailable, errTransient, statusErr)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, statusErr)
	}

	var envelope covalentResponse
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: %w: %w", domain.ErrProviderUnavailable, domain.ErrMalformedProviderData, err)
	}

	if envelope.Error {
		return nil, fmt.Errorf("%w: covalent error %d: %s", domain.ErrProviderUnavailable, envelope.ErrorCode, envelope.ErrorMessage)
	}
	if envelope.Data == nil || envelope.Data.Items == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, errors.Wrap(domain.ErrMalformedProviderData, "response has no data.items"))
	}

	return envelope.Data, nil
}

func decodeBalanceItem(raw map[string]any) (BalanceItem, error) {
	var fields balanceFields
	md, err := decodeRow(raw, &fields)

	complete := err == nil
	for _, key := range md.Unset {
		// logo_url is optional
		if key != "logo_url" {
			complete = false
		}
	}

	return BalanceItem{
		ContractTickerSymbol: fields.ContractTickerSymbol,
		ContractName:         fields.ContractName,
		Type:                 fields.Type,
		Balance:              fields.Balance,
		ContractDecimals:     fields.ContractDecimals,
		Quote:                fields.Quote,
		ContractAddress:      fields.ContractAddress,
		LogoURL:              fields.LogoURL,
		Complete:             complete,
	}, err
}

func decodeTransactionItem(raw map[string]any) (TransactionItem, error) {
	var fields transactionFields
	_, err := decodeRow(raw, &fields)

	return TransactionItem{
		BlockSignedAt: fields.BlockSignedAt,
		TxHash:        fields.TxHash,
		FromAddress:   fields.FromAddress,
		ToAddress:     fields.ToAddress,
		ValueQuote:    fields.ValueQuote,
	}, err
}

// decodeRow decodes a loosely typed provider row into out. Fields that fail to
// decode keep their zero value; the returned error lists them.
func decodeRow(raw map[string]any, out any) (mapstructure.Metadata, error) {
	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       decimalHook,
		WeaklyTypedInput: true,
		Metadata:         &md,
		Result:           out,
	})
	if err != nil {
		return md, err
	}

	return md, decoder.Decode(raw)
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

// decimalHook converts provider numbers and numeric strings to decimals;
// anything unparsable becomes zero.
func decimalHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != decimalType {
		return data, nil
	}

	var s string
	switch v := data.(type) {
	case json.Number:
		s = v.String()
	case string:
		s = v
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	default:
		return decimal.Zero, nil
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, nil
	}
	return d, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
