package types

import (
	"encoding/json"
	"time"
)

// Candle is a single kline bar. Ts is the open time in unix milliseconds;
// Close drives every indicator.
type Candle struct {
	Ts                          int64
	Open, High, Low, Close, Vol float64
}

// Indicators is the snapshot of every technical indicator, aligned to the
// newest close of the series it was computed from. Values are NaN until the
// series is long enough to warm them up.
type Indicators struct {
	RSI        float64
	EMAFast    float64
	EMASlow    float64
	MACD       float64
	MACDSignal float64
}

const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
	ActionHold = "HOLD"
)

type Decision struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

type OrderReq struct {
	Symbol, Side string
	Qty          float64
}

// OrderResp is the exchange's reply to an order. Binance reports rejections
// in-band as {"code":...,"msg":...} rather than through a transport error,
// so Code/Msg are zero on success.
type OrderResp struct {
	OrderID int64           `json:"orderId"`
	Status  string          `json:"status"`
	Code    int             `json:"code"`
	Msg     string          `json:"msg"`
	Raw     json.RawMessage `json:"-"`
}

// FillConfirmed reports whether the exchange accepted the order.
func (r OrderResp) FillConfirmed() bool {
	if r.Code != 0 {
		return false
	}
	return r.Status != "REJECTED" && r.Status != "EXPIRED"
}

// TradeRecord is one executed trade as persisted in the ledger.
// Immutable once written.
type TradeRecord struct {
	Time   time.Time
	Symbol string
	Side   string
	Price  float64
}

type StepResult struct {
	Symbol     string      `json:"symbol"`
	Decision   Decision    `json:"decision"`
	Price      float64     `json:"price"`
	Time       int64       `json:"time"`
	Profit     float64     `json:"profit"`
	Fee        float64     `json:"fee"`
	Indicators Indicators  `json:"indicators"`
	Order      *OrderResp  `json:"order,omitempty"`
	Recorded   bool        `json:"recorded"`
}
