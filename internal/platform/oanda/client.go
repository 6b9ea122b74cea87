// Package oanda is the concrete VenueClient for the OANDA v20 API: a REST
// surface for account discovery, candles, orders and positions, plus the
// streaming connection that carries price and transaction events.
package oanda

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/denideni205/forex-trade/internal/domain"
)

const (
	// requestTimeout bounds every REST call. Calls fail fast rather than
	// hang; retrying is the caller's decision.
	requestTimeout = 10 * time.Second

	// maxCandleCount is the venue's per-request candle limit.
	maxCandleCount = 5000
)

// Client is the OANDA REST client. One Client serves one session's
// credentials.
type Client struct {
	baseURL    string
	streamURL  string
	token      string
	accountID  string // optional preselected account
	httpClient *http.Client
}

// NewClient creates an OANDA REST client for the given endpoints and
// credentials.
func NewClient(baseURL, streamURL string, creds domain.Credentials) *Client {
	return &Client{
		baseURL:   baseURL,
		streamURL: streamURL,
		token:     creds.Token,
		accountID: creds.AccountID,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Authenticate enumerates the accounts visible to the token, selects the
// configured account (or the first one), and fetches its detail. Every
// failure maps to domain.ErrAuthentication without echoing the token.
func (c *Client) Authenticate(ctx context.Context) (domain.Account, error) {
	body, err := c.get(ctx, "/v3/accounts", nil)
	if err != nil {
		return domain.Account{}, fmt.Errorf("%w: account discovery: %v", domain.ErrAuthentication, err)
	}

	var accounts accountsResponse
	if err := json.Unmarshal(body, &accounts); err != nil {
		return domain.Account{}, fmt.Errorf("%w: decode accounts: %v", domain.ErrAuthentication, err)
	}
	if len(accounts.Accounts) == 0 {
		return domain.Account{}, fmt.Errorf("%w: no accounts visible to token", domain.ErrAuthentication)
	}

	accountID := c.accountID
	if accountID == "" {
		accountID = accounts.Accounts[0].ID
	}

	body, err = c.get(ctx, "/v3/accounts/"+url.PathEscape(accountID), nil)
	if err != nil {
		return domain.Account{}, fmt.Errorf("%w: account detail: %v", domain.ErrAuthentication, err)
	}

	var detail accountDetailResponse
	if err := json.Unmarshal(body, &detail); err != nil {
		return domain.Account{}, fmt.Errorf("%w: decode account detail: %v", domain.ErrAuthentication, err)
	}

	return domain.Account{
		ID:       detail.Account.ID,
		Alias:    detail.Account.Alias,
		Currency: detail.Account.Currency,
		Balance:  parseDecimal(detail.Account.Balance),
	}, nil
}

// Candles fetches up to count mid-price candles for the granularity code and
// converts them to the common Candle shape.
func (c *Client) Candles(ctx context.Context, symbol, granularity string, count int) ([]domain.Candle, error) {
	if count < 1 || count > maxCandleCount {
		return nil, fmt.Errorf("oanda: candle count %d out of range [1,%d]", count, maxCandleCount)
	}

	params := url.Values{}
	params.Set("granularity", granularity)
	params.Set("count", strconv.Itoa(count))
	params.Set("price", "M")

	body, err := c.get(ctx, "/v3/instruments/"+url.PathEscape(symbol)+"/candles", params)
	if err != nil {
		return nil, fmt.Errorf("oanda: get candles %s: %w", symbol, err)
	}

	var resp candlesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("oanda: decode candles: %w", err)
	}

	candles := make([]domain.Candle, 0, len(resp.Candles))
	for _, cd := range resp.Candles {
		candles = append(candles, domain.Candle{
			Symbol:   symbol,
			OpenTime: parseTime(cd.Time),
			Open:     parseDecimal(cd.Mid.O),
			High:     parseDecimal(cd.Mid.H),
			Low:      parseDecimal(cd.Mid.L),
			Close:    parseDecimal(cd.Mid.C),
			Volume:   float64(cd.Volume),
		})
	}

	return candles, nil
}

// PlaceOrder submits one order. Units are sent signed (negative for sells),
// the price field is included only for limit orders, and stop-loss /
// take-profit blocks only when supplied. The clientID rides along as a client
// extension so a resubmitting caller can be de-duplicated venue-side.
func (c *Client) PlaceOrder(ctx context.Context, accountID string, req domain.OrderRequest, clientID string) (domain.OrderAck, error) {
	units := req.Units
	if req.Side == domain.OrderSideSell {
		units = -units
	}

	body := orderBody{
		Instrument:   req.Symbol,
		Units:        formatDecimal(units),
		Type:         "MARKET",
		TimeInForce:  "FOK",
		PositionFill: "DEFAULT",
	}
	if req.Type == domain.OrderTypeLimit {
		body.Type = "LIMIT"
		body.TimeInForce = "GTC"
		body.Price = formatDecimal(req.Price)
	}
	if req.StopLoss > 0 {
		body.StopLossOnFill = &priceBlock{Price: formatDecimal(req.StopLoss)}
	}
	if req.TakeProfit > 0 {
		body.TakeProfitOnFill = &priceBlock{Price: formatDecimal(req.TakeProfit)}
	}
	if clientID != "" {
		body.ClientExtensions = &clientExtensions{ID: clientID}
	}

	respBody, status, err := c.post(ctx, "/v3/accounts/"+url.PathEscape(accountID)+"/orders", orderPayload{Order: body})
	if err != nil {
		return domain.OrderAck{}, fmt.Errorf("oanda: place order %s: %w", req.Symbol, err)
	}
	if status < 200 || status >= 300 {
		var venueErr errorResponse
		_ = json.Unmarshal(respBody, &venueErr)
		return domain.OrderAck{}, &domain.OrderRejectedError{
			Symbol: req.Symbol,
			Reason: venueErr.reason(),
			Err:    fmt.Errorf("oanda: HTTP %d", status),
		}
	}

	var resp orderResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return domain.OrderAck{}, fmt.Errorf("oanda: decode order response: %w", err)
	}

	ack := domain.OrderAck{
		OrderID:     resp.OrderCreateTransaction.ID,
		ClientID:    clientID,
		Symbol:      req.Symbol,
		SubmittedAt: parseTime(resp.OrderCreateTransaction.Time),
	}
	if resp.OrderFillTransaction.ID != "" {
		ack.Filled = true
		ack.FilledPrice = parseDecimal(resp.OrderFillTransaction.Price)
	}

	return ack, nil
}

// OpenPositions lists the venue's current open positions. The venue reports
// long and short legs separately; each non-empty leg becomes one Position.
func (c *Client) OpenPositions(ctx context.Context, accountID string) ([]domain.Position, error) {
	body, err := c.get(ctx, "/v3/accounts/"+url.PathEscape(accountID)+"/openPositions", nil)
	if err != nil {
		return nil, fmt.Errorf("oanda: get open positions: %w", err)
	}

	var resp openPositionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("oanda: decode open positions: %w", err)
	}

	var positions []domain.Position
	for _, p := range resp.Positions {
		if units := parseDecimal(p.Long.Units); units > 0 {
			positions = append(positions, domain.Position{
				ID:           p.Instrument + "_long",
				Symbol:       p.Instrument,
				Side:         domain.PositionSideLong,
				Units:        units,
				AveragePrice: parseDecimal(p.Long.AveragePrice),
			})
		}
		if units := parseDecimal(p.Short.Units); units < 0 {
			positions = append(positions, domain.Position{
				ID:           p.Instrument + "_short",
				Symbol:       p.Instrument,
				Side:         domain.PositionSideShort,
				Units:        -units,
				AveragePrice: parseDecimal(p.Short.AveragePrice),
			})
		}
	}

	return positions, nil
}

// ---------------------------------------------------------------------------
// Internal helpers
// ---------------------------------------------------------------------------

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var venueErr errorResponse
		_ = json.Unmarshal(body, &venueErr)
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, venueErr.reason())
	}

	return body, nil
}

// post sends a JSON body and returns the raw response plus its status code so
// the caller can attach venue-specific rejection context.
func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, int, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}

	return body, resp.StatusCode, nil
}

func formatDecimal(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Compile-time interface check.
var _ domain.VenueClient = (*Client)(nil)
