package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tronprofit/internal/types"
)

func testNotifier(baseURL string) *TelegramNotifier {
	return &TelegramNotifier{
		BotToken: "test-token",
		ChatID:   "42",
		APIBase:  baseURL,
		Client:   &http.Client{Timeout: 2 * time.Second},
	}
}

func TestSendPostsToConfiguredChat(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendMessage", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	err := testNotifier(srv.URL).Send(context.Background(), "BUY BTCUSDT executed")
	require.NoError(t, err)
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "BUY BTCUSDT executed", got["text"])
}

func TestSendSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false,"description":"Unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := testNotifier(srv.URL).Send(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSendWithRetryRecovers(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "flood control", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	err := testNotifier(srv.URL).SendWithRetry(context.Background(), "hello", 2)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSendWithRetryGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := testNotifier(srv.URL).SendWithRetry(context.Background(), "hello", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retries exhausted")
}

func TestSendWithRetryStopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := testNotifier(srv.URL).SendWithRetry(ctx, "hello", 5)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStartPollingDispatchesCommands(t *testing.T) {
	var sent atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/bottest-token/getUpdates" && r.URL.Query().Get("offset") == "0":
			w.Write([]byte(`{"ok":true,"result":[{"update_id":7,"message":{"text":"/status"}}]}`))
		case r.URL.Path == "/bottest-token/getUpdates":
			// Offset must have advanced past the consumed update.
			assert.Equal(t, "8", r.URL.Query().Get("offset"))
			w.Write([]byte(`{"ok":true,"result":[]}`))
		case r.URL.Path == "/bottest-token/sendMessage":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			sent.Store(body["text"])
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		testNotifier(srv.URL).StartPolling(ctx, func(ctx context.Context, cmd string) string {
			assert.Equal(t, "/status", cmd)
			return "Trading BTCUSDT every 60s"
		})
	}()

	require.Eventually(t, func() bool {
		v, _ := sent.Load().(string)
		return v == "Trading BTCUSDT every 60s"
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("polling loop did not stop on cancel")
	}
}

func TestNoopNeverFails(t *testing.T) {
	assert.NoError(t, NewNoop().Notify(context.Background(), "anything"))
}

func TestFormatOrderResult(t *testing.T) {
	filled := types.OrderResp{OrderID: 99, Status: "FILLED"}
	s := FormatOrderResult("BTCUSDT", "BUY", 0.001, 45000.5, filled, true)
	assert.Contains(t, s, "BUY BTCUSDT executed")
	assert.Contains(t, s, "order_id=99")

	rejected := types.OrderResp{Code: -2010, Msg: "insufficient balance"}
	s = FormatOrderResult("BTCUSDT", "SELL", 0.001, 45000.5, rejected, false)
	assert.Contains(t, s, "REJECTED")
	assert.Contains(t, s, "-2010")
}

func TestFormatTrades(t *testing.T) {
	assert.Equal(t, "No trades recorded yet.", FormatTrades(nil))

	recs := []types.TradeRecord{
		{Time: time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC), Symbol: "BTCUSDT", Side: "BUY", Price: 45000},
	}
	s := FormatTrades(recs)
	assert.Contains(t, s, "2026-08-01 10:30")
	assert.Contains(t, s, "BUY BTCUSDT @ 45000")
}

func TestFormatLedgerFailure(t *testing.T) {
	s := FormatLedgerFailure("BTCUSDT", "BUY", errors.New("disk full"))
	assert.Contains(t, s, "NOT recorded")
	assert.Contains(t, s, "disk full")
}
