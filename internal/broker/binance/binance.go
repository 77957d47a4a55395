// Package binance is a minimal Binance spot REST client: public klines and
// signed market orders. Requests carry bounded timeouts and a bounded
// retry/backoff loop; an exchange-side order rejection is reported in the
// response payload, not as a transport error.
package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/go-querystring/query"

	"tronprofit/internal/interfaces"
	"tronprofit/internal/logger"
	"tronprofit/internal/types"
)

type Params struct {
	BaseURL    string
	APIKey     string
	APISecret  string
	Interval   string
	Timeout    time.Duration
	MaxRetries int
}

type Client struct {
	p      Params
	client *http.Client
	now    func() time.Time
}

var _ interfaces.Broker = (*Client)(nil)

func New(p Params) *Client {
	if p.Interval == "" {
		p.Interval = "1h"
	}
	if p.Timeout <= 0 {
		p.Timeout = 10 * time.Second
	}
	if p.MaxRetries <= 0 {
		p.MaxRetries = 3
	}
	return &Client{
		p:      p,
		client: &http.Client{Timeout: p.Timeout},
		now:    time.Now,
	}
}

// Klines fetches the most recent candles for a symbol, oldest first.
func (c *Client) Klines(ctx context.Context, symbol string, limit int) ([]types.Candle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", c.p.Interval)
	q.Set("limit", strconv.Itoa(limit))

	body, status, err := c.doWithRetry(ctx, http.MethodGet, "/api/v3/klines?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch klines for %s: %w", symbol, err)
	}
	if status != http.StatusOK {
		var apiErr struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
		}
		_ = json.Unmarshal(body, &apiErr)
		return nil, fmt.Errorf("fetch klines for %s: exchange status %d code=%d msg=%s",
			symbol, status, apiErr.Code, apiErr.Msg)
	}
	return parseKlines(body)
}

// orderParams is the canonical parameter set of a signed market order. The
// signature is an HMAC-SHA256 of the encoded query string and must be
// appended after signing, never included in it.
type orderParams struct {
	Symbol    string  `url:"symbol"`
	Side      string  `url:"side"`
	Type      string  `url:"type"`
	Quantity  float64 `url:"quantity"`
	Timestamp int64   `url:"timestamp"`
}

// PlaceOrder submits a signed market order. A transport failure is returned
// as an error; an exchange rejection comes back inside the OrderResp with
// its code and message, and FillConfirmed() false.
func (c *Client) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	p := orderParams{
		Symbol:    req.Symbol,
		Side:      req.Side,
		Type:      "MARKET",
		Quantity:  req.Qty,
		Timestamp: c.now().UnixMilli(),
	}
	vals, err := query.Values(p)
	if err != nil {
		return types.OrderResp{}, fmt.Errorf("encode order params: %w", err)
	}
	qs := vals.Encode()
	signed := qs + "&signature=" + Sign(qs, c.p.APISecret)

	headers := http.Header{"X-MBX-APIKEY": []string{c.p.APIKey}}
	body, status, err := c.doWithRetry(ctx, http.MethodPost, "/api/v3/order?"+signed, headers)
	if err != nil {
		return types.OrderResp{}, fmt.Errorf("submit %s %s order: %w", req.Side, req.Symbol, err)
	}

	var resp types.OrderResp
	if err := json.Unmarshal(body, &resp); err != nil {
		return types.OrderResp{}, fmt.Errorf("decode order response (status %d): %w", status, err)
	}
	resp.Raw = body
	if status != http.StatusOK && resp.Code == 0 {
		resp.Code = -status
		resp.Msg = fmt.Sprintf("http status %d", status)
	}
	return resp, nil
}

// Sign computes the hex HMAC-SHA256 of the canonical query string.
func Sign(queryString, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(queryString))
	return hex.EncodeToString(mac.Sum(nil))
}

// doWithRetry performs one HTTP request with exponential backoff on
// transport errors and 5xx responses. 4xx responses are not retried: they
// carry the exchange's verdict and must reach the caller as-is.
func (c *Client) doWithRetry(ctx context.Context, method, pathAndQuery string, headers http.Header) ([]byte, int, error) {
	var lastErr error
	for attempt := 0; attempt < c.p.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			logger.Warn(ctx, "Retrying exchange request",
				"method", method, "attempt", attempt+1, "backoff", backoff.String(), "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, c.p.BaseURL+pathAndQuery, nil)
		if err != nil {
			return nil, 0, err
		}
		for k, v := range headers {
			req.Header[k] = v
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			lastErr = fmt.Errorf("exchange status %d: %s", resp.StatusCode, body)
			continue
		}
		return body, resp.StatusCode, nil
	}
	return nil, 0, fmt.Errorf("all %d attempts failed: %w", c.p.MaxRetries, lastErr)
}

// Binance kline rows are heterogeneous arrays: the open time is a number,
// prices and volume are decimal strings.
func parseKlines(body []byte) ([]types.Candle, error) {
	var rows [][]any
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode klines: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("empty klines response")
	}

	candles := make([]types.Candle, 0, len(rows))
	for i, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("short kline row %d: %d fields", i, len(row))
		}
		c, err := parseKlineRow(row)
		if err != nil {
			return nil, fmt.Errorf("kline row %d: %w", i, err)
		}
		candles = append(candles, c)
	}
	return candles, nil
}

// A malformed price must fail the fetch: a silently zeroed close would
// poison the indicator series and could end up as a recorded trade price.
func parseKlineRow(row []any) (types.Candle, error) {
	var c types.Candle
	var err error
	if c.Ts, err = asInt64(row[0]); err != nil {
		return c, err
	}
	for _, f := range []struct {
		dst  *float64
		v    any
		name string
	}{
		{&c.Open, row[1], "open"},
		{&c.High, row[2], "high"},
		{&c.Low, row[3], "low"},
		{&c.Close, row[4], "close"},
		{&c.Vol, row[5], "volume"},
	} {
		if *f.dst, err = asFloat(f.v); err != nil {
			return c, fmt.Errorf("%s: %w", f.name, err)
		}
	}
	return c, nil
}

func asFloat(v any) (float64, error) {
	switch t := v.(type) {
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", t)
		}
		return f, nil
	case float64:
		return t, nil
	default:
		return 0, fmt.Errorf("unexpected field type %T", v)
	}
}

func asInt64(v any) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case string:
		i, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("not a timestamp: %q", t)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("unexpected field type %T", v)
	}
}
